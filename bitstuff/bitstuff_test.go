package bitstuff

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestStuffKnownExample(t *testing.T) {
	assert.Equal(t, "01111101", Stuff("0111111"))
}

func TestFrameAndExtractKnownExample(t *testing.T) {
	stuffed := Stuff("0111111")
	framed := Frame(stuffed)
	assert.Equal(t, Flag+"01111101"+Flag, framed)

	extracted, err := Extract(framed)
	require.NoError(t, err)
	assert.Equal(t, stuffed, extracted)
	assert.Equal(t, "0111111", Destuff(extracted))
}

func TestExtractMissingFlagsFails(t *testing.T) {
	_, err := Extract("00001111")
	assert.ErrorIs(t, err, ErrNotFramed)

	_, err = Extract(Flag + "0011")
	assert.ErrorIs(t, err, ErrNotFramed)
}

func genBitString(t *rapid.T) string {
	n := rapid.IntRange(0, 200).Draw(t, "n")
	var b strings.Builder
	for i := 0; i < n; i++ {
		if rapid.Bool().Draw(t, "bit") {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

func TestDestuffInvertsStuff(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		bits := genBitString(t)
		assert.Equal(t, bits, Destuff(Stuff(bits)))
	})
}

func TestStuffNeverProducesSixOnes(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		bits := genBitString(t)
		assert.NotContains(t, Stuff(bits), "111111")
	})
}

func TestFrameExtractRoundTrips(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		bits := genBitString(t)
		stuffed := Stuff(bits)
		extracted, err := Extract(Frame(stuffed))
		require.NoError(t, err)
		assert.Equal(t, stuffed, extracted)
	})
}

func TestPackUnpackBytesRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		data := rapid.SliceOf(rapid.Byte()).Draw(t, "data")
		assert.True(t, bytes.Equal(data, PackBits(UnpackBytes(data))))
	})
}
