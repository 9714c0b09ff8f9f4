// Package macho implements the macOS Mach-O loader (spec.md section 4.6):
// pure header validation and file-type patching of a copy, plus a darwin-only
// legacy dyld linker. Header constants come from
// github.com/blacktop/go-macho/types.
package macho

import (
	"encoding/binary"
	"fmt"

	machotypes "github.com/blacktop/go-macho/types"

	"github.com/xsfx/xsfx/internal/loader"
)

const (
	fileTypeOffset = 12
	headerSize     = 16
)

// Validate checks the Mach-O magic and returns the header's file type
// field (offset 12). Pure byte parsing, no platform dependency.
func Validate(data []byte) (machotypes.HeaderFileType, error) {
	if len(data) < headerSize {
		return 0, fmt.Errorf("%w: Mach-O too small for header", loader.ErrHeaderTooSmall)
	}

	magic := machotypes.Magic(binary.LittleEndian.Uint32(data[0:4]))
	if magic != machotypes.Magic64 {
		return 0, fmt.Errorf("%w: invalid Mach-O magic", loader.ErrUnsupportedMachine)
	}

	fileType := machotypes.HeaderFileType(binary.LittleEndian.Uint32(data[fileTypeOffset : fileTypeOffset+4]))
	return fileType, nil
}

// PatchToBundle validates the image is MH_EXECUTE and returns a new
// buffer with the file type field rewritten to MH_BUNDLE, leaving every
// other byte untouched. dyld will only privately link MH_BUNDLE images.
func PatchToBundle(data []byte) ([]byte, error) {
	fileType, err := Validate(data)
	if err != nil {
		return nil, err
	}
	if fileType != machotypes.MH_EXECUTE {
		return nil, fmt.Errorf("%w: Mach-O is not MH_EXECUTE", loader.ErrUnsupportedMachine)
	}

	patched := make([]byte, len(data))
	copy(patched, data)
	binary.LittleEndian.PutUint32(patched[fileTypeOffset:fileTypeOffset+4], uint32(machotypes.MH_BUNDLE))
	return patched, nil
}
