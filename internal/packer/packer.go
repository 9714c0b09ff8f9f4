// Package packer implements the packer driver (spec.md section 4.2):
// resolve a target, compress a guest, assemble launcher ‖ compressed ‖
// trailer, and write it out.
package packer

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xsfx/xsfx/internal/catalog"
	"github.com/xsfx/xsfx/internal/container"
	"github.com/xsfx/xsfx/internal/xzcodec"
)

// ErrGuestReadFailed wraps a failure to read the guest payload.
type ErrGuestReadFailed struct {
	Path string
	Err  error
}

func (e *ErrGuestReadFailed) Error() string {
	return fmt.Sprintf("packer: reading guest %s: %v", e.Path, e.Err)
}
func (e *ErrGuestReadFailed) Unwrap() error { return e.Err }

// ErrCompressionFailed wraps a failure from the compression backend.
type ErrCompressionFailed struct{ Err error }

func (e *ErrCompressionFailed) Error() string { return "packer: compression failed: " + e.Err.Error() }
func (e *ErrCompressionFailed) Unwrap() error { return e.Err }

// ErrOutputWriteFailed wraps a failure to write the assembled SFX.
type ErrOutputWriteFailed struct {
	Path string
	Err  error
}

func (e *ErrOutputWriteFailed) Error() string {
	return fmt.Sprintf("packer: writing output %s: %v", e.Path, e.Err)
}
func (e *ErrOutputWriteFailed) Unwrap() error { return e.Err }

// Options configures a single Run invocation.
type Options struct {
	GuestPath  string
	OutputPath string
	// Target is the explicit --target flag value; empty means "not given".
	Target string
}

// ResolveTarget implements spec.md section 4.2 step 1: explicit --target,
// else XSFX_OUT_TARGET, else the catalog's default.
func ResolveTarget(explicit string, c *catalog.Catalog) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv("XSFX_OUT_TARGET"); env != "" {
		return env
	}
	return c.Default()
}

// Run executes the full packer driver against an already-loaded catalog.
func Run(opts Options, c *catalog.Catalog) error {
	target := ResolveTarget(opts.Target, c)

	launcherBytes, err := c.Lookup(target)
	if err != nil {
		return err
	}

	guest, err := os.ReadFile(opts.GuestPath)
	if err != nil {
		return &ErrGuestReadFailed{Path: opts.GuestPath, Err: err}
	}

	compressed, err := xzcodec.Compress(guest)
	if err != nil {
		return &ErrCompressionFailed{Err: err}
	}

	return writeAtomic(opts.OutputPath, launcherBytes, compressed)
}

// writeAtomic builds the SFX in a temp file in the output's directory and
// renames it into place, so a partially-written file never appears at
// OutputPath. Per spec.md section 4.2 step 6, a crash mid-write merely
// leaves a stray temp file; the output itself is rebuilt from scratch on
// the next run.
func writeAtomic(outputPath string, launcherBytes, compressed []byte) error {
	dir := filepath.Dir(outputPath)
	tmp, err := os.CreateTemp(dir, ".xsfx-*.tmp")
	if err != nil {
		return &ErrOutputWriteFailed{Path: outputPath, Err: err}
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once the rename below succeeds

	if _, err := container.Assemble(tmp, bytes.NewReader(launcherBytes), bytes.NewReader(compressed)); err != nil {
		tmp.Close()
		return &ErrOutputWriteFailed{Path: outputPath, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return &ErrOutputWriteFailed{Path: outputPath, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &ErrOutputWriteFailed{Path: outputPath, Err: err}
	}
	if err := os.Chmod(tmpPath, 0o755); err != nil {
		return &ErrOutputWriteFailed{Path: outputPath, Err: err}
	}
	if err := os.Rename(tmpPath, outputPath); err != nil {
		return &ErrOutputWriteFailed{Path: outputPath, Err: err}
	}
	return nil
}

// ListTargets renders the catalog's targets with a "(default)" marker, for
// diagnostic output on UnknownTarget / usage errors (spec.md section 6).
func ListTargets(c *catalog.Catalog) string {
	var buf bytes.Buffer
	buf.WriteString("Available stub targets in this build:\n")
	for _, e := range c.List() {
		marker := ""
		if e.Target == c.Default() {
			marker = " (default)"
		}
		fmt.Fprintf(&buf, "  - %s%s\n", e.Target, marker)
	}
	return buf.String()
}
