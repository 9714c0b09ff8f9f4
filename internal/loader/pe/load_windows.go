//go:build windows

package pe

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/xsfx/xsfx/internal/loader"
)

// Loader is the Windows PE32+ in-memory mapper and linker.
type Loader struct{}

var _ loader.Loader = Loader{}

// Load maps, relocates, links, and invokes a PE32+ image entirely in the
// current process's address space, returning the entry point's return
// value as the exit code.
func (Loader) Load(guest []byte, _ []string, _ string) (int, error) {
	headers, err := Parse(guest)
	if err != nil {
		return 1, err
	}

	size := uintptr(headers.SizeOfImage)

	base, allocErr := windows.VirtualAlloc(uintptr(headers.ImageBase), size, windows.MEM_RESERVE|windows.MEM_COMMIT, windows.PAGE_READWRITE)
	if allocErr != nil || base == 0 {
		base, allocErr = windows.VirtualAlloc(0, size, windows.MEM_RESERVE|windows.MEM_COMMIT, windows.PAGE_READWRITE)
		if allocErr != nil || base == 0 {
			return 1, fmt.Errorf("%w: VirtualAlloc: %v", loader.ErrAllocationFailed, allocErr)
		}
	}

	exitCode, loadErr := loadAt(base, guest, headers)
	if loadErr != nil {
		windows.VirtualFree(base, 0, windows.MEM_RELEASE)
		return 1, loadErr
	}
	return exitCode, nil
}

func loadAt(base uintptr, guest []byte, headers Headers) (int, error) {
	if err := mapSections(base, guest, headers); err != nil {
		return 0, err
	}
	if err := processRelocations(base, headers); err != nil {
		return 0, err
	}
	if err := resolveImports(base, headers); err != nil {
		return 0, err
	}
	if err := setSectionProtections(base, headers); err != nil {
		return 0, err
	}

	proc, err := windows.GetCurrentProcess()
	if err != nil {
		return 0, fmt.Errorf("%w: GetCurrentProcess: %v", loader.ErrProtectionFailed, err)
	}
	if err := windows.FlushInstructionCache(proc, base, uintptr(headers.SizeOfImage)); err != nil {
		return 0, fmt.Errorf("%w: FlushInstructionCache: %v", loader.ErrProtectionFailed, err)
	}

	entry := base + uintptr(headers.EntryPointRVA)
	entryFn := *(*func() int32)(unsafe.Pointer(&entry))
	return int(entryFn()), nil
}

func mapSections(base uintptr, guest []byte, headers Headers) error {
	hdrSize := int(headers.SectionAlign)
	if hdrSize > len(guest) {
		hdrSize = len(guest)
	}
	dst := unsafe.Slice((*byte)(unsafe.Pointer(base)), headers.SizeOfImage)
	copy(dst[:hdrSize], guest[:hdrSize])

	for _, sec := range headers.Sections {
		destOff := sec.VirtualAddress
		if sec.RawDataSize > 0 {
			srcStart := int(sec.RawDataOffset)
			srcEnd := srcStart + int(sec.RawDataSize)
			if srcEnd > len(guest) {
				return fmt.Errorf("%w: section raw data exceeds PE file", loader.ErrSectionExceedsImage)
			}
			copy(dst[destOff:], guest[srcStart:srcEnd])
		}
		fillStart := sec.RawDataSize
		fillEnd := sec.VirtualSize
		if fillEnd > fillStart {
			for i := fillStart; i < fillEnd; i++ {
				dst[destOff+i] = 0
			}
		}
	}
	return nil
}

func processRelocations(base uintptr, headers Headers) error {
	if headers.RelocDirRVA == 0 || headers.RelocDirSize == 0 {
		return nil
	}
	delta := uint64(base) - headers.ImageBase
	if delta == 0 {
		return nil
	}

	relocBase := base + uintptr(headers.RelocDirRVA)
	var offset uint32
	total := headers.RelocDirSize

	for offset+8 <= total {
		blockRVA := *(*uint32)(unsafe.Pointer(relocBase + uintptr(offset)))
		blockSize := *(*uint32)(unsafe.Pointer(relocBase + uintptr(offset) + 4))
		if blockSize < 8 {
			break
		}

		entryCount := (blockSize - 8) / 2
		entriesBase := relocBase + uintptr(offset) + 8

		for i := uint32(0); i < entryCount; i++ {
			entry := *(*uint16)(unsafe.Pointer(entriesBase + uintptr(i)*2))
			relocType := entry >> 12
			relocOffset := uint32(entry & 0x0FFF)

			switch relocType {
			case imageRelBasedDir64:
				addr := (*uint64)(unsafe.Pointer(base + uintptr(blockRVA+relocOffset)))
				*addr += delta
			case imageRelBasedAbsolute:
			}
		}

		offset += blockSize
	}
	return nil
}

func resolveImports(base uintptr, headers Headers) error {
	if headers.ImportDirRVA == 0 || headers.ImportDirSize == 0 {
		return nil
	}

	importBase := base + uintptr(headers.ImportDirRVA)
	var descOffset uintptr

	for {
		iltRVA := *(*uint32)(unsafe.Pointer(importBase + descOffset))
		nameRVA := *(*uint32)(unsafe.Pointer(importBase + descOffset + 12))
		iatRVA := *(*uint32)(unsafe.Pointer(importBase + descOffset + 16))

		if iltRVA == 0 && nameRVA == 0 && iatRVA == 0 {
			break
		}

		dllName := cStringAt(base + uintptr(nameRVA))
		dllHandle, err := windows.LoadLibrary(dllName)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", loader.ErrDllLoadFailed, dllName, err)
		}

		lookupRVA := iltRVA
		if lookupRVA == 0 {
			lookupRVA = iatRVA
		}
		var thunkOffset uintptr

		for {
			lookupPtr := (*uint64)(unsafe.Pointer(base + uintptr(lookupRVA) + thunkOffset))
			thunkData := *lookupPtr
			if thunkData == 0 {
				break
			}

			var procAddr uintptr
			if thunkData&(1<<63) != 0 {
				ordinal := uint16(thunkData & 0xFFFF)
				procAddr, err = windows.GetProcAddressByOrdinal(dllHandle, uintptr(ordinal))
			} else {
				hintNameRVA := uint32(thunkData & 0x7FFFFFFF)
				funcName := cStringAt(base + uintptr(hintNameRVA) + 2)
				procAddr, err = windows.GetProcAddress(dllHandle, funcName)
			}
			if err != nil || procAddr == 0 {
				return fmt.Errorf("%w: %v", loader.ErrImportResolutionFail, err)
			}

			iatPtr := (*uint64)(unsafe.Pointer(base + uintptr(iatRVA) + thunkOffset))
			*iatPtr = uint64(procAddr)

			thunkOffset += 8
		}

		descOffset += 20
	}

	return nil
}

func cStringAt(addr uintptr) string {
	var n int
	for {
		b := *(*byte)(unsafe.Pointer(addr + uintptr(n)))
		if b == 0 {
			break
		}
		n++
	}
	return string(unsafe.Slice((*byte)(unsafe.Pointer(addr)), n))
}

func setSectionProtections(base uintptr, headers Headers) error {
	for _, sec := range headers.Sections {
		if sec.VirtualSize == 0 {
			continue
		}
		addr := base + uintptr(sec.VirtualAddress)
		prot := sectionProtection(sec.Characteristics)
		var oldProt uint32
		if err := windows.VirtualProtect(addr, uintptr(sec.VirtualSize), prot, &oldProt); err != nil {
			return fmt.Errorf("%w: VirtualProtect: %v", loader.ErrProtectionFailed, err)
		}
	}
	return nil
}
