// Package linux implements the Linux fast-path executor (spec.md section
// 4.4): write the guest into an anonymous memory descriptor and execute it
// directly from that descriptor, never touching a filesystem path.
package linux

import "strconv"

// procFDPath formats the /proc/self/fd/N path for a descriptor. Kept as a
// pure function, independent of the linux build tag, so it is testable on
// every platform that builds this package's tests.
func procFDPath(fd int) string {
	return "/proc/self/fd/" + strconv.Itoa(fd)
}
