//go:build linux

package linux

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"golang.org/x/sys/unix"

	"github.com/xsfx/xsfx/internal/loader"
)

// descriptorName is written into the kernel's anonymous-descriptor table and
// shows up in /proc/self/maps for diagnostics; it carries no other meaning.
const descriptorName = "rsfx-payload"

// Loader is the Linux memfd+execveat executor.
type Loader struct{}

var _ loader.Loader = Loader{}

// Load writes guest into an anonymous memory descriptor and executes it
// directly from that descriptor via the extended-execve syscall. If the
// syscall is unavailable it falls back to forking a child process against
// the descriptor's /proc/self/fd/N path.
func (Loader) Load(guest []byte, argv []string, exePath string) (int, error) {
	fd, err := unix.MemfdCreate(descriptorName, unix.MFD_CLOEXEC)
	if err != nil {
		return 1, fmt.Errorf("%w: memfd_create: %v", loader.ErrAllocationFailed, err)
	}
	memfd := os.NewFile(uintptr(fd), descriptorName)
	defer memfd.Close()

	if _, err := memfd.Write(guest); err != nil {
		return 1, fmt.Errorf("%w: writing guest to memfd: %v", loader.ErrAllocationFailed, err)
	}
	if err := memfd.Sync(); err != nil {
		return 1, fmt.Errorf("%w: flushing memfd: %v", loader.ErrAllocationFailed, err)
	}
	if err := unix.Fchmod(fd, 0o700); err != nil {
		return 1, fmt.Errorf("%w: fchmod memfd: %v", loader.ErrProtectionFailed, err)
	}

	// The guest's argv[0] is the path the SFX was invoked by, not exePath
	// (on Linux the literal /proc/self/exe used to read the launcher image).
	argv0 := exePath
	if len(os.Args) > 0 {
		argv0 = os.Args[0]
	}
	guestArgv := append([]string{argv0}, argv...)

	// Primary path: execveat with AT_EMPTY_PATH replaces the process image
	// in place. On success this call never returns.
	execErr := unix.Execveat(fd, "", guestArgv, os.Environ(), unix.AT_EMPTY_PATH)
	if execErr == nil {
		return 0, nil // unreachable; kept for readability
	}

	// An execveat failure (missing syscall, old kernel) is recovered
	// locally by a forked child targeting the same descriptor via its
	// procfs path. A memfd_create failure above is not recovered: it is
	// returned as ErrAllocationFailed.
	return execChildFallback(fd, guestArgv)
}

func execChildFallback(fd int, guestArgv []string) (int, error) {
	cmd := exec.Command(procFDPath(fd))
	cmd.Args = guestArgv
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), nil
		}
		return 1, fmt.Errorf("%w: child-process fallback: %v", loader.ErrAllocationFailed, err)
	}
	return 0, nil
}
