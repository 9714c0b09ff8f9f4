// Package xsfx holds root-level integration tests that exercise the
// container, compression, catalog, and packer components together, as
// opposed to each package's own unit tests (spec.md section 8).
package xsfx

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xsfx/xsfx/internal/catalog"
	"github.com/xsfx/xsfx/internal/container"
	"github.com/xsfx/xsfx/internal/packer"
	"github.com/xsfx/xsfx/internal/xzcodec"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.LoadEmbeddedTestStubs(catalog.Targets[0])
	require.NoError(t, err)
	return c
}

// roundTrip packs guest with the packer driver, then unpacks it by hand
// the way bootstrap.RunWithPath would, returning the decompressed guest.
func roundTrip(t *testing.T, guest []byte, target string) []byte {
	t.Helper()
	dir := t.TempDir()
	guestPath := filepath.Join(dir, "guest.bin")
	outPath := filepath.Join(dir, "out.sfx")
	require.NoError(t, os.WriteFile(guestPath, guest, 0o644))

	c := testCatalog(t)
	err := packer.Run(packer.Options{GuestPath: guestPath, OutputPath: outPath, Target: target}, c)
	require.NoError(t, err)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)

	loc, err := container.Locate(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	decompressed, err := xzcodec.Decompress(container.PayloadSection(bytes.NewReader(data), loc))
	require.NoError(t, err)
	return decompressed
}

func TestScenarioHelloWorld(t *testing.T) {
	guest := []byte("hello world\n")
	got := roundTrip(t, guest, catalog.Targets[0])
	assert.Equal(t, guest, got)
}

func TestScenarioRepeatedByte(t *testing.T) {
	guest := bytes.Repeat([]byte{0x42}, 100_000)
	got := roundTrip(t, guest, catalog.Targets[0])
	assert.Equal(t, guest, got)
}

func TestScenarioFullByteRange(t *testing.T) {
	guest := make([]byte, 256)
	for i := range guest {
		guest[i] = byte(i)
	}
	got := roundTrip(t, guest, catalog.Targets[0])
	assert.Equal(t, guest, got)
}

func TestScenarioEmptyPayloadIsRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sfx")

	trailer := container.Encode(0)
	require.NoError(t, os.WriteFile(path, append([]byte("STUB"), trailer[:]...), 0o644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	_, err = container.Locate(bytes.NewReader(data), int64(len(data)))
	assert.ErrorIs(t, err, container.ErrBadPayloadLength)
}

func TestScenarioOversizedPayloadLenIsRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sfx")

	trailer := container.Encode(1 << 40)
	require.NoError(t, os.WriteFile(path, append([]byte("STUB"), trailer[:]...), 0o644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	_, err = container.Locate(bytes.NewReader(data), int64(len(data)))
	assert.ErrorIs(t, err, container.ErrBadPayloadLength)
}

func TestScenarioAllCatalogTargetsRoundTrip(t *testing.T) {
	for _, target := range catalog.Targets {
		target := target
		t.Run(target, func(t *testing.T) {
			guest := []byte("guest for " + target)
			got := roundTrip(t, guest, target)
			assert.Equal(t, guest, got)
		})
	}
}

func TestScenarioMinimalSyntheticPE(t *testing.T) {
	// A minimal synthetic PE32+ image, packed and round-tripped like any
	// other guest: the packer/container layer is payload-agnostic, so a
	// PE image compresses and decompresses byte-for-byte like any blob.
	pe := make([]byte, 512)
	pe[0], pe[1] = 0x4D, 0x5A
	got := roundTrip(t, pe, catalog.Targets[0])
	assert.Equal(t, pe, got)
}
