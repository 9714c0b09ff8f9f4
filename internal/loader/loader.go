// Package loader defines the contract platform loaders implement: take a
// decompressed guest image plus argv and an exe path, and run it without
// writing it to durable storage, returning the exit code the host process
// should propagate.
package loader

import "errors"

// Loader runs a decompressed guest image in-process or as a memory-backed
// child, returning its exit code.
type Loader interface {
	Load(guest []byte, argv []string, exePath string) (exitCode int, err error)
}

// Shared loader-validation error taxonomy (spec.md section 7).
var (
	ErrOutOfBounds          = errors.New("loader: read out of bounds")
	ErrTruncatedTrailer     = errors.New("loader: truncated trailer")
	ErrUnsupportedMachine   = errors.New("loader: unsupported machine type")
	ErrUnsupportedBitness   = errors.New("loader: unsupported bitness")
	ErrTooManySections      = errors.New("loader: too many sections")
	ErrSectionExceedsImage  = errors.New("loader: section exceeds image size")
	ErrHeaderTooSmall       = errors.New("loader: header too small")
	ErrDecompressionFailed  = errors.New("loader: decompression failed")
	ErrAllocationFailed     = errors.New("loader: memory allocation failed")
	ErrProtectionFailed     = errors.New("loader: page protection failed")
	ErrDllLoadFailed        = errors.New("loader: DLL load failed")
	ErrImportResolutionFail = errors.New("loader: import resolution failed")
	ErrLinkFailed           = errors.New("loader: link failed")
	ErrSymbolNotFound       = errors.New("loader: symbol not found")
)
