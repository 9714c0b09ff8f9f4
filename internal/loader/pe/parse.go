// Package pe implements the Windows PE32+ loader (spec.md section 4.5):
// a pure, cross-platform byte parser plus a Windows-only in-memory mapper
// and linker. Parsing lives here so section 8's layout assertions run on
// any platform.
package pe

import (
	"encoding/binary"
	"fmt"

	"github.com/xsfx/xsfx/internal/loader"
)

const (
	dosMagic             = 0x5A4D     // "MZ"
	peSignature          = 0x00004550 // "PE\x00\x00"
	imageFileMachineAMD64 = 0x8664
	optionalMagicPE32Plus = 0x020B
	maxSections          = 96

	imageScnMemExecute = 0x20000000
	imageScnMemRead    = 0x40000000
	imageScnMemWrite   = 0x80000000

	imageRelBasedDir64     = 10
	imageRelBasedAbsolute  = 0

	memCommit  = 0x1000
	memReserve = 0x2000
	memRelease = 0x8000

	pageNoaccess          = 0x01
	pageReadonly          = 0x02
	pageReadwrite         = 0x04
	pageExecute           = 0x10
	pageExecuteRead       = 0x20
	pageExecuteReadwrite  = 0x40
)

// SectionInfo is a parsed IMAGE_SECTION_HEADER, trimmed to the fields the
// loader needs.
type SectionInfo struct {
	VirtualAddress  uint32
	VirtualSize     uint32
	RawDataOffset   uint32
	RawDataSize     uint32
	Characteristics uint32
}

// Headers is the parsed subset of PE32+ headers needed to map, relocate,
// and link an image in memory.
type Headers struct {
	ImageBase       uint64
	SizeOfImage     uint32
	EntryPointRVA   uint32
	SectionAlign    uint32
	Sections        []SectionInfo
	ImportDirRVA    uint32
	ImportDirSize   uint32
	RelocDirRVA     uint32
	RelocDirSize    uint32
}

func readU16(data []byte, offset int) (uint16, error) {
	if offset < 0 || offset+2 > len(data) {
		return 0, loader.ErrOutOfBounds
	}
	return binary.LittleEndian.Uint16(data[offset:]), nil
}

func readU32(data []byte, offset int) (uint32, error) {
	if offset < 0 || offset+4 > len(data) {
		return 0, loader.ErrOutOfBounds
	}
	return binary.LittleEndian.Uint32(data[offset:]), nil
}

func readU64(data []byte, offset int) (uint64, error) {
	if offset < 0 || offset+8 > len(data) {
		return 0, loader.ErrOutOfBounds
	}
	return binary.LittleEndian.Uint64(data[offset:]), nil
}

// Parse parses PE32+ headers from raw bytes. Pure byte parsing, no
// platform dependency.
func Parse(data []byte) (Headers, error) {
	if len(data) < 64 {
		return Headers{}, fmt.Errorf("%w: PE too small for DOS header", loader.ErrHeaderTooSmall)
	}

	dosSig, err := readU16(data, 0)
	if err != nil {
		return Headers{}, err
	}
	if dosSig != dosMagic {
		return Headers{}, fmt.Errorf("%w: invalid DOS signature", loader.ErrUnsupportedMachine)
	}

	peOffset32, err := readU32(data, 60)
	if err != nil {
		return Headers{}, err
	}
	peOffset := int(peOffset32)

	sig, err := readU32(data, peOffset)
	if err != nil {
		return Headers{}, err
	}
	if sig != peSignature {
		return Headers{}, fmt.Errorf("%w: invalid PE signature", loader.ErrUnsupportedMachine)
	}

	coffOffset := peOffset + 4
	machine, err := readU16(data, coffOffset)
	if err != nil {
		return Headers{}, err
	}
	if machine != imageFileMachineAMD64 {
		return Headers{}, fmt.Errorf("%w: unsupported PE machine type (only x64)", loader.ErrUnsupportedMachine)
	}

	numSections, err := readU16(data, coffOffset+2)
	if err != nil {
		return Headers{}, err
	}
	optionalHdrSize, err := readU16(data, coffOffset+16)
	if err != nil {
		return Headers{}, err
	}
	optionalOffset := coffOffset + 20

	if optionalHdrSize < 112 {
		return Headers{}, fmt.Errorf("%w: PE optional header too small", loader.ErrHeaderTooSmall)
	}

	optMagic, err := readU16(data, optionalOffset)
	if err != nil {
		return Headers{}, err
	}
	if optMagic != optionalMagicPE32Plus {
		return Headers{}, fmt.Errorf("%w: not a PE32+ (64-bit) image", loader.ErrUnsupportedBitness)
	}

	entryPointRVA, err := readU32(data, optionalOffset+16)
	if err != nil {
		return Headers{}, err
	}
	imageBase, err := readU64(data, optionalOffset+24)
	if err != nil {
		return Headers{}, err
	}
	sectionAlign, err := readU32(data, optionalOffset+32)
	if err != nil {
		return Headers{}, err
	}
	sizeOfImage, err := readU32(data, optionalOffset+56)
	if err != nil {
		return Headers{}, err
	}

	numDataDirs32, err := readU32(data, optionalOffset+108)
	if err != nil {
		return Headers{}, err
	}
	numDataDirs := int(numDataDirs32)
	dataDirOffset := optionalOffset + 112

	var importDirRVA, importDirSize, relocDirRVA, relocDirSize uint32
	if numDataDirs > 1 {
		if importDirRVA, err = readU32(data, dataDirOffset+8); err != nil {
			return Headers{}, err
		}
		if importDirSize, err = readU32(data, dataDirOffset+12); err != nil {
			return Headers{}, err
		}
	}
	if numDataDirs > 5 {
		if relocDirRVA, err = readU32(data, dataDirOffset+40); err != nil {
			return Headers{}, err
		}
		if relocDirSize, err = readU32(data, dataDirOffset+44); err != nil {
			return Headers{}, err
		}
	}

	if int(numSections) > maxSections {
		return Headers{}, fmt.Errorf("%w: too many PE sections", loader.ErrTooManySections)
	}

	sectionsOffset := optionalOffset + int(optionalHdrSize)
	sections := make([]SectionInfo, 0, numSections)
	for i := 0; i < int(numSections); i++ {
		s := sectionsOffset + i*40
		virtualSize, err := readU32(data, s+8)
		if err != nil {
			return Headers{}, err
		}
		virtualAddress, err := readU32(data, s+12)
		if err != nil {
			return Headers{}, err
		}
		rawDataSize, err := readU32(data, s+16)
		if err != nil {
			return Headers{}, err
		}
		rawDataOffset, err := readU32(data, s+20)
		if err != nil {
			return Headers{}, err
		}
		characteristics, err := readU32(data, s+36)
		if err != nil {
			return Headers{}, err
		}

		if uint64(virtualAddress)+uint64(virtualSize) > uint64(sizeOfImage) {
			return Headers{}, fmt.Errorf("%w: section %d", loader.ErrSectionExceedsImage, i)
		}

		sections = append(sections, SectionInfo{
			VirtualAddress:  virtualAddress,
			VirtualSize:     virtualSize,
			RawDataOffset:   rawDataOffset,
			RawDataSize:     rawDataSize,
			Characteristics: characteristics,
		})
	}

	return Headers{
		ImageBase:     imageBase,
		SizeOfImage:   sizeOfImage,
		EntryPointRVA: entryPointRVA,
		SectionAlign:  sectionAlign,
		Sections:      sections,
		ImportDirRVA:  importDirRVA,
		ImportDirSize: importDirSize,
		RelocDirRVA:   relocDirRVA,
		RelocDirSize:  relocDirSize,
	}, nil
}

// sectionProtection maps a section's characteristics flags to the
// PAGE_* constant the Windows mapper should apply, per the exact truth
// table spec.md section 4.5 requires.
func sectionProtection(characteristics uint32) uint32 {
	r := characteristics&imageScnMemRead != 0
	w := characteristics&imageScnMemWrite != 0
	x := characteristics&imageScnMemExecute != 0

	switch {
	case x && w:
		return pageExecuteReadwrite
	case x && !w && r:
		return pageExecuteRead
	case x && !w && !r:
		return pageExecute
	case !x && w:
		return pageReadwrite
	case !x && !w && r:
		return pageReadonly
	default:
		return pageNoaccess
	}
}
