// Package bootstrap implements the launcher bootstrap shared across
// platforms (spec.md section 4.3): locate the launcher's own trailer,
// decompress the embedded guest, and hand off to a platform Loader.
package bootstrap

import (
	"fmt"
	"os"

	"github.com/xsfx/xsfx/internal/container"
	"github.com/xsfx/xsfx/internal/loader"
	"github.com/xsfx/xsfx/internal/xzcodec"
)

// Run executes the full bootstrap sequence and returns the exit code the
// caller's main() should propagate. argv is the full os.Args (including
// argv[0]); the platform loader receives argv[1:].
func Run(l loader.Loader, argv []string) (int, error) {
	exePath, err := selfExePath()
	if err != nil {
		return 1, fmt.Errorf("bootstrap: locating self image: %w", err)
	}
	return RunWithPath(l, argv, exePath)
}

// RunWithPath is Run with the self-image path supplied explicitly,
// separated out so the OS-dependent step (locating /proc/self/exe vs
// os.Executable) can be tested against an arbitrary file.
func RunWithPath(l loader.Loader, argv []string, exePath string) (int, error) {
	f, err := os.Open(exePath)
	if err != nil {
		return 1, fmt.Errorf("bootstrap: opening self image: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 1, fmt.Errorf("bootstrap: statting self image: %w", err)
	}

	loc, err := container.Locate(f, info.Size())
	if err != nil {
		return 1, err
	}

	guest, err := xzcodec.Decompress(container.PayloadSection(f, loc))
	if err != nil {
		return 1, loader.ErrDecompressionFailed
	}

	guestArgv := argv[1:]
	exitCode, err := l.Load(guest, guestArgv, exePath)
	if err != nil {
		return 1, err
	}
	return exitCode, nil
}
