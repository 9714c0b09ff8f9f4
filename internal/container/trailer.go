// Package container implements the SFX byte layout: a launcher image
// followed by a compressed guest followed by a fixed 16-byte trailer.
package container

import (
	"encoding/binary"
	"errors"
)

// TrailerSize is the fixed, on-disk size of the trailer footer.
const TrailerSize = 16

// Magic is the u64 whose big-endian byte representation is the ASCII
// "SFXLZMA!"; it is stored little-endian, so the trailer bytes read "!AMZLXFS".
const Magic uint64 = 0x5346584C5A4D4121

// ErrTruncatedTrailer is returned by Decode when fewer than TrailerSize
// bytes are available. It says nothing about whether the magic matches;
// that is the caller's job so a single pass can distinguish "truncated"
// from "not an SFX" from "corrupt SFX".
var ErrTruncatedTrailer = errors.New("container: truncated trailer")

// Trailer is the fixed 16-byte footer: payload length followed by magic.
type Trailer struct {
	PayloadLen uint64
	MagicValue uint64
}

// Encode serializes a Trailer with PayloadLen=payloadLen and the standard
// magic into 16 little-endian bytes.
func Encode(payloadLen uint64) [TrailerSize]byte {
	var buf [TrailerSize]byte
	binary.LittleEndian.PutUint64(buf[0:8], payloadLen)
	binary.LittleEndian.PutUint64(buf[8:16], Magic)
	return buf
}

// Decode parses a Trailer out of the first TrailerSize bytes of b.
// It does not validate MagicValue against Magic.
func Decode(b []byte) (Trailer, error) {
	if len(b) < TrailerSize {
		return Trailer{}, ErrTruncatedTrailer
	}
	return Trailer{
		PayloadLen: binary.LittleEndian.Uint64(b[0:8]),
		MagicValue: binary.LittleEndian.Uint64(b[8:16]),
	}, nil
}
