package container

import (
	"errors"
	"fmt"
	"io"
)

// Errors surfaced while locating the payload inside an assembled SFX file.
var (
	ErrFileTooSmall     = errors.New("container: file smaller than trailer")
	ErrBadMagic         = errors.New("container: trailer magic mismatch")
	ErrBadPayloadLength = errors.New("container: invalid payload length")
)

// Located describes where the compressed payload sits inside an SFX file,
// as derived from the trailer at the end of it.
type Located struct {
	Trailer      Trailer
	FileSize     int64
	PayloadStart int64 // offset of the first compressed byte
	PayloadLen   int64 // == Trailer.PayloadLen, as int64
}

// ReaderAt is the minimal capability Locate needs from a file handle.
type ReaderAt interface {
	io.ReaderAt
}

// Locate reads the trailer from the end of a ReaderAt of the given size and
// validates the container invariants from the data model: file_size >= 16,
// payload_len in [1, file_size-16], and the magic must match.
//
// The launcher bootstrap uses it to find the payload to decompress; the
// packer does not call it on its own output.
func Locate(r ReaderAt, fileSize int64) (Located, error) {
	if fileSize < TrailerSize {
		return Located{}, ErrFileTooSmall
	}

	trailerBuf := make([]byte, TrailerSize)
	if _, err := r.ReadAt(trailerBuf, fileSize-TrailerSize); err != nil {
		return Located{}, fmt.Errorf("container: reading trailer: %w", err)
	}

	tr, err := Decode(trailerBuf)
	if err != nil {
		return Located{}, err
	}
	if tr.MagicValue != Magic {
		return Located{}, ErrBadMagic
	}
	if tr.PayloadLen == 0 || int64(tr.PayloadLen) > fileSize-TrailerSize {
		return Located{}, ErrBadPayloadLength
	}

	payloadLen := int64(tr.PayloadLen)
	return Located{
		Trailer:      tr,
		FileSize:     fileSize,
		PayloadStart: fileSize - TrailerSize - payloadLen,
		PayloadLen:   payloadLen,
	}, nil
}

// PayloadSection returns a bounded reader over exactly the compressed
// payload described by loc, reading from r starting at loc.PayloadStart.
func PayloadSection(r io.ReaderAt, loc Located) io.Reader {
	return io.NewSectionReader(r, loc.PayloadStart, loc.PayloadLen)
}

// Assemble writes launcher ‖ compressed ‖ trailer to w, in that order,
// returning the number of compressed-payload bytes written (== payload_len
// recorded in the trailer). It is the single place that defines the
// on-disk byte order from spec.md section 6.
func Assemble(w io.Writer, launcher io.Reader, compressed io.Reader) (int64, error) {
	if _, err := io.Copy(w, launcher); err != nil {
		return 0, fmt.Errorf("container: writing launcher: %w", err)
	}

	n, err := io.Copy(w, compressed)
	if err != nil {
		return n, fmt.Errorf("container: writing compressed payload: %w", err)
	}

	trailer := Encode(uint64(n))
	if _, err := w.Write(trailer[:]); err != nil {
		return n, fmt.Errorf("container: writing trailer: %w", err)
	}
	return n, nil
}
