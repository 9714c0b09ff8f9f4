package macho

import (
	"encoding/binary"
	"testing"

	machotypes "github.com/blacktop/go-macho/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xsfx/xsfx/internal/loader"
)

func buildMinimalMachOExecute() []byte {
	data := make([]byte, 32)
	binary.LittleEndian.PutUint32(data[0:4], uint32(machotypes.Magic64))
	binary.LittleEndian.PutUint32(data[12:16], uint32(machotypes.MH_EXECUTE))
	return data
}

func TestValidateMachOValid(t *testing.T) {
	fileType, err := Validate(buildMinimalMachOExecute())
	require.NoError(t, err)
	assert.Equal(t, machotypes.MH_EXECUTE, fileType)
}

func TestPatchFiletypeToBundle(t *testing.T) {
	data := buildMinimalMachOExecute()
	patched, err := PatchToBundle(data)
	require.NoError(t, err)

	assert.Equal(t, uint32(machotypes.MH_BUNDLE), binary.LittleEndian.Uint32(patched[12:16]))
	assert.Equal(t, uint32(machotypes.Magic64), binary.LittleEndian.Uint32(patched[0:4]))
}

func TestPatchPreservesOtherBytes(t *testing.T) {
	data := buildMinimalMachOExecute()
	binary.LittleEndian.PutUint32(data[4:8], 0x0100000C) // cputype
	binary.LittleEndian.PutUint32(data[16:20], 42)        // ncmds

	patched, err := PatchToBundle(data)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x0100000C), binary.LittleEndian.Uint32(patched[4:8]))
	assert.Equal(t, uint32(42), binary.LittleEndian.Uint32(patched[16:20]))
}

func TestValidateMachOTooSmall(t *testing.T) {
	_, err := Validate(make([]byte, 8))
	assert.ErrorIs(t, err, loader.ErrHeaderTooSmall)
}

func TestValidateMachOBadMagic(t *testing.T) {
	data := make([]byte, 32)
	binary.LittleEndian.PutUint32(data[0:4], 0xDEADBEEF)
	_, err := Validate(data)
	assert.ErrorIs(t, err, loader.ErrUnsupportedMachine)
}

func TestValidateMachOEmpty(t *testing.T) {
	_, err := Validate(nil)
	assert.Error(t, err)
}

func TestPatchNotExecute(t *testing.T) {
	data := make([]byte, 32)
	binary.LittleEndian.PutUint32(data[0:4], uint32(machotypes.Magic64))
	binary.LittleEndian.PutUint32(data[12:16], uint32(machotypes.MH_BUNDLE))
	_, err := PatchToBundle(data)
	assert.ErrorIs(t, err, loader.ErrUnsupportedMachine)
}

func TestPatchBadMagic(t *testing.T) {
	data := make([]byte, 32)
	for i := range data {
		data[i] = 0xFF
	}
	_, err := PatchToBundle(data)
	assert.Error(t, err)
}

func TestPatchTruncated(t *testing.T) {
	_, err := PatchToBundle([]byte{0xCF, 0xFA, 0xED, 0xFE})
	assert.Error(t, err)
}

func TestValidateMachO32BitMagicRejected(t *testing.T) {
	data := make([]byte, 32)
	binary.LittleEndian.PutUint32(data[0:4], uint32(machotypes.Magic32))
	_, err := Validate(data)
	assert.Error(t, err)
}

func TestPatchReturnsNewSlice(t *testing.T) {
	original := buildMinimalMachOExecute()
	originalCopy := append([]byte(nil), original...)

	patched, err := PatchToBundle(original)
	require.NoError(t, err)

	assert.Equal(t, originalCopy, original, "PatchToBundle must not mutate its input")
	assert.NotEqual(t, original, patched)
}
