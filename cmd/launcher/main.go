// Command launcher is the source compiled into every catalog stub
// (spec.md section 4.3): locate its own trailer, decompress the embedded
// guest, and hand off to the platform loader.
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/xsfx/xsfx/internal/bootstrap"
	"github.com/xsfx/xsfx/internal/loader"
	"github.com/xsfx/xsfx/internal/loader/linux"
	"github.com/xsfx/xsfx/internal/loader/macho"
	"github.com/xsfx/xsfx/internal/loader/pe"
)

func main() {
	l, err := platformLoader()
	if err != nil {
		fmt.Fprintln(os.Stderr, "SFX stub error:", err)
		os.Exit(1)
	}

	code, err := bootstrap.Run(l, os.Args)
	if err != nil {
		fmt.Fprintln(os.Stderr, "SFX stub error:", err)
		os.Exit(1)
	}
	os.Exit(code)
}

func platformLoader() (loader.Loader, error) {
	switch runtime.GOOS {
	case "linux":
		return linux.Loader{}, nil
	case "windows":
		return pe.Loader{}, nil
	case "darwin":
		return macho.Loader{}, nil
	default:
		return nil, fmt.Errorf("unsupported platform %q", runtime.GOOS)
	}
}
