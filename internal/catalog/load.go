package catalog

import (
	"embed"
	"os"
	"path/filepath"
	"runtime"
)

//go:embed testdata/stubs
var testStubs embed.FS

// hostDefaultTarget maps the running host's GOOS/GOARCH to one of the
// recognized triples, preferring the glibc/gnu variant on Linux.
func hostDefaultTarget() string {
	switch runtime.GOOS {
	case "linux":
		if runtime.GOARCH == "arm64" {
			return "aarch64-unknown-linux-gnu"
		}
		return "x86_64-unknown-linux-gnu"
	case "darwin":
		if runtime.GOARCH == "arm64" {
			return "aarch64-apple-darwin"
		}
		return "x86_64-apple-darwin"
	case "windows":
		if runtime.GOARCH == "arm64" {
			return "aarch64-pc-windows-msvc"
		}
		return "x86_64-pc-windows-msvc"
	default:
		return Targets[0]
	}
}

// ResolveDefaultTarget returns the XSFX_TARGET environment override if
// set, else a target inferred from the host, as the build-time catalog
// generator would have baked in (spec.md section 6).
func ResolveDefaultTarget() string {
	if t := os.Getenv("XSFX_TARGET"); t != "" {
		return t
	}
	return hostDefaultTarget()
}

// LoadFromDir builds a Catalog from a directory of prebuilt stub files,
// one file per recognized target named exactly after its triple
// (XSFX_PREBUILT_STUBS_DIR in spec.md section 6). Only entries for
// triples with a file present are included.
func LoadFromDir(dir string, def string) (*Catalog, error) {
	var entries []Entry
	for _, t := range Targets {
		b, err := os.ReadFile(filepath.Join(dir, t))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		entries = append(entries, Entry{Target: t, Bytes: b})
	}
	return New(entries, def)
}

// LoadEmbeddedTestStubs builds a Catalog from the placeholder stub bytes
// embedded in this package's testdata. These are not real executables;
// they exist so packer/bootstrap round-trip tests and local development
// don't require a real cross-compiled launcher for every target.
func LoadEmbeddedTestStubs(def string) (*Catalog, error) {
	var entries []Entry
	for _, t := range Targets {
		b, err := testStubs.ReadFile("testdata/stubs/" + t)
		if err != nil {
			continue
		}
		entries = append(entries, Entry{Target: t, Bytes: b})
	}
	return New(entries, def)
}

// Load resolves the runtime catalog: XSFX_PREBUILT_STUBS_DIR if set and
// non-empty, else the embedded placeholder stubs.
func Load() (*Catalog, error) {
	def := ResolveDefaultTarget()
	if dir := os.Getenv("XSFX_PREBUILT_STUBS_DIR"); dir != "" {
		return LoadFromDir(dir, def)
	}
	return LoadEmbeddedTestStubs(def)
}
