package frame

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	raw := Serialize(3, DATA, []byte("Data"))
	f, valid, err := Deserialize(raw)
	require.NoError(t, err)
	assert.True(t, valid)
	assert.Equal(t, uint8(3), f.Seq)
	assert.Equal(t, DATA, f.Kind)
	assert.Equal(t, []byte("Data"), f.Payload)
}

func TestSingleBitCorruptionIsDetected(t *testing.T) {
	raw := Serialize(0, DATA, []byte("Data"))
	raw[5] ^= 0x01 // flip bit 0 of byte 5

	_, valid, err := Deserialize(raw)
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestDeserializeTooShortFails(t *testing.T) {
	_, _, err := Deserialize([]byte{1, 2, 3, 4, 5})
	require.Error(t, err)
	assert.True(t, IsTooShort(err))
}

func TestDeserializeLengthMismatchFails(t *testing.T) {
	raw := Serialize(0, DATA, []byte("abc"))
	_, _, err := Deserialize(raw[:len(raw)-1])
	require.Error(t, err)
}

func TestACKFrameCarriesNoPayload(t *testing.T) {
	raw := Serialize(7, ACK, nil)
	f, valid, err := Deserialize(raw)
	require.NoError(t, err)
	assert.True(t, valid)
	assert.Equal(t, ACK, f.Kind)
	assert.Empty(t, f.Payload)
}

func TestFragmentBoundary(t *testing.T) {
	message := make([]byte, 250)
	chunks := Fragment(message)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 100)
	assert.Len(t, chunks[1], 100)
	assert.Len(t, chunks[2], 50)
}

func TestFragmentEmptyMessage(t *testing.T) {
	assert.Empty(t, Fragment(nil))
}

func TestDeserializeRoundTripsForAnyWellFormedFrame(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		seq := uint8(rapid.IntRange(0, 255).Draw(t, "seq"))
		kind := DATA
		if rapid.Bool().Draw(t, "isACK") {
			kind = ACK
		}
		var payload []byte
		if kind == DATA {
			payload = rapid.SliceOfN(rapid.Byte(), 0, MaxPayload).Draw(t, "payload")
		}

		raw := Serialize(seq, kind, payload)
		f, valid, err := Deserialize(raw)
		require.NoError(t, err)
		assert.True(t, valid)
		assert.Equal(t, seq, f.Seq)
		assert.Equal(t, kind, f.Kind)
		assert.True(t, bytes.Equal(payload, f.Payload))
	})
}
