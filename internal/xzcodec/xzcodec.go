// Package xzcodec implements the compression I/O component: XZ/LZMA2
// encoding for the packer and decoding for the launcher, with a CRC64
// integrity check in either direction.
package xzcodec

import (
	"bytes"
	"io"

	"github.com/ulikunitz/xz"
)

// ErrCompressionFailed wraps any error from the encoder.
type ErrCompressionFailed struct{ Err error }

func (e *ErrCompressionFailed) Error() string { return "xzcodec: compression failed: " + e.Err.Error() }
func (e *ErrCompressionFailed) Unwrap() error { return e.Err }

// ErrDecompressionFailed wraps any error from the decoder, including
// integrity-check and truncation failures.
type ErrDecompressionFailed struct{ Err error }

func (e *ErrDecompressionFailed) Error() string {
	return "xzcodec: decompression failed: " + e.Err.Error()
}
func (e *ErrDecompressionFailed) Unwrap() error { return e.Err }

// Compress encodes data as an XZ stream using the native encoder when one
// was linked in (build tag cgo, see xzcodec_native.go) at preset 9 extreme
// with a 64 MiB dictionary capped to the next power of two at or above len(data)
// (floor 4 KiB), BinaryTree4 match finder, normal mode, nice_len 273, and a
// CRC64 integrity check. If no native encoder is available it falls back
// to the portable pure-Go encoder with default options. Both paths emit a
// standard XZ stream.
func Compress(data []byte) ([]byte, error) {
	if nativeAvailable {
		out, err := compressNative(data)
		if err != nil {
			return nil, &ErrCompressionFailed{Err: err}
		}
		return out, nil
	}
	return compressPortable(data)
}

func compressPortable(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		return nil, &ErrCompressionFailed{Err: err}
	}
	if _, err := w.Write(data); err != nil {
		return nil, &ErrCompressionFailed{Err: err}
	}
	if err := w.Close(); err != nil {
		return nil, &ErrCompressionFailed{Err: err}
	}
	return buf.Bytes(), nil
}

// Decompress reads an XZ stream from r in full and returns the decoded
// bytes, using the portable decoder (the one format both encoders above
// produce is a standard XZ stream, so one decoder serves both).
func Decompress(r io.Reader) ([]byte, error) {
	xr, err := xz.NewReader(r)
	if err != nil {
		return nil, &ErrDecompressionFailed{Err: err}
	}
	out, err := io.ReadAll(xr)
	if err != nil {
		return nil, &ErrDecompressionFailed{Err: err}
	}
	return out, nil
}

// nextPow2Dict computes the dictionary size the native encoder should
// request: the next power of two at or above n, capped at 64 MiB and
// floored at 4 KiB.
func nextPow2Dict(n int) uint32 {
	const (
		floor = 4 * 1024
		cap64 = 64 * 1024 * 1024
	)
	if n <= floor {
		return floor
	}
	d := uint32(1)
	for int(d) < n {
		d <<= 1
	}
	if d > cap64 {
		return cap64
	}
	return d
}
