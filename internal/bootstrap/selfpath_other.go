//go:build !linux

package bootstrap

import "os"

// selfExePath resolves the running executable's path on platforms without
// a /proc/self/exe equivalent.
func selfExePath() (string, error) {
	return os.Executable()
}
