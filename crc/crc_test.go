package crc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestChecksumDistinguishesSimilarInputs(t *testing.T) {
	assert.NotEqual(t, Checksum([]byte("Hello")), Checksum([]byte("Helo")))
}

func TestVerifySelfCheck(t *testing.T) {
	body := []byte("Hello")
	crc := Checksum(body)
	withCRC := append(append([]byte(nil), body...), byte(crc>>8), byte(crc))
	assert.True(t, Verify(withCRC))
}

func TestAppendChecksumRoundTrips(t *testing.T) {
	body := []byte("Data")
	framed := AppendChecksum(body)
	assert.Len(t, framed, len(body)+2)
	assert.True(t, Verify(framed))
}

func TestSingleBitFlipAlwaysDetected(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		body := rapid.SliceOfN(rapid.Byte(), 1, 64).Draw(t, "body")
		framed := AppendChecksum(body)

		byteIdx := rapid.IntRange(0, len(framed)-1).Draw(t, "byteIdx")
		bitIdx := rapid.IntRange(0, 7).Draw(t, "bitIdx")

		corrupted := append([]byte(nil), framed...)
		corrupted[byteIdx] ^= 1 << uint(bitIdx)

		assert.False(t, Verify(corrupted), "single-bit flip at byte %d bit %d went undetected", byteIdx, bitIdx)
	})
}

func TestChecksumDeterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		data := rapid.SliceOf(rapid.Byte()).Draw(t, "data")
		assert.Equal(t, Checksum(data), Checksum(data))
	})
}
