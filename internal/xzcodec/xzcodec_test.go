package xzcodec

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressEmitsXZMagic(t *testing.T) {
	compressed, err := Compress([]byte("Hello, World!"))
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(compressed), 6)
	assert.Equal(t, []byte{0xFD, 0x37, 0x7A, 0x58, 0x5A, 0x00}, compressed[:6])
}

func TestRoundTripHelloWorld(t *testing.T) {
	payload := []byte("Hello, World!")
	compressed, err := Compress(payload)
	require.NoError(t, err)

	got, err := Decompress(bytes.NewReader(compressed))
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestRoundTripLargeRepetitive(t *testing.T) {
	payload := bytes.Repeat([]byte{0x42}, 100_000)
	compressed, err := Compress(payload)
	require.NoError(t, err)
	assert.Less(t, len(compressed), len(payload)/10, "repetitive data should compress well")

	got, err := Decompress(bytes.NewReader(compressed))
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestRoundTripAllByteValues(t *testing.T) {
	payload := make([]byte, 256)
	for i := range payload {
		payload[i] = byte(i)
	}
	compressed, err := Compress(payload)
	require.NoError(t, err)

	got, err := Decompress(bytes.NewReader(compressed))
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestRoundTripEmpty(t *testing.T) {
	compressed, err := Compress(nil)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(compressed), 6)

	got, err := Decompress(bytes.NewReader(compressed))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDecompressRejectsTruncatedStream(t *testing.T) {
	compressed, err := Compress([]byte("some data long enough to matter"))
	require.NoError(t, err)

	truncated := compressed[:len(compressed)-4]
	_, err = Decompress(bytes.NewReader(truncated))
	assert.Error(t, err)
}

func TestDecompressRejectsBitFlippedStream(t *testing.T) {
	compressed, err := Compress([]byte("some data long enough to survive a single flipped bit"))
	require.NoError(t, err)

	corrupted := append([]byte(nil), compressed...)
	corrupted[len(corrupted)/2] ^= 0xFF

	_, err = Decompress(bytes.NewReader(corrupted))
	assert.Error(t, err)
}

func TestDecompressRejectsGarbage(t *testing.T) {
	_, err := Decompress(bytes.NewReader([]byte("not an xz stream at all")))
	assert.Error(t, err)
}

func TestNextPow2Dict(t *testing.T) {
	assert.Equal(t, uint32(4096), nextPow2Dict(0))
	assert.Equal(t, uint32(4096), nextPow2Dict(4096))
	assert.Equal(t, uint32(8192), nextPow2Dict(4097))
	assert.Equal(t, uint32(64*1024*1024), nextPow2Dict(1<<30))
}
