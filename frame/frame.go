// Package frame implements the wire format for goarq frames: a small
// fixed header, an optional payload, and a trailing CRC-16/CCITT that
// protects the header and payload jointly.
package frame

import "github.com/drunlade/goarq/crc"

// Kind distinguishes a data-carrying frame from an acknowledgment.
type Kind uint8

const (
	// DATA carries a fragment of the message being transferred.
	DATA Kind = 0
	// ACK acknowledges a sequence number; it never carries a payload.
	ACK Kind = 1
)

func (k Kind) String() string {
	if k == ACK {
		return "ACK"
	}
	return "DATA"
}

// MaxPayload is the largest payload, in bytes, a DATA frame may carry.
const MaxPayload = 100

// HeaderSize is the size, in bytes, of the fixed header (seq, kind, length).
const HeaderSize = 4

// MinSize is the smallest possible serialized frame: header plus CRC, zero
// payload.
const MinSize = HeaderSize + 2

// Frame is the unit of transmission: a sequence number, a kind, a payload,
// and the CRC protecting them.
type Frame struct {
	Seq     uint8
	Kind    Kind
	Payload []byte
	CRC     uint16
}

// Serialize builds the wire representation of a frame: a 1-byte sequence
// number, a 1-byte kind tag, a big-endian 2-byte payload length, the
// payload itself, and a big-endian 2-byte CRC-16/CCITT computed over
// everything preceding it.
func Serialize(seq uint8, kind Kind, payload []byte) []byte {
	body := make([]byte, HeaderSize+len(payload))
	body[0] = seq
	body[1] = byte(kind)
	body[2] = byte(len(payload) >> 8)
	body[3] = byte(len(payload))
	copy(body[HeaderSize:], payload)

	return crc.AppendChecksum(body)
}

// Deserialize parses raw into a Frame. It fails (non-nil error) only on
// structural problems: fewer than MinSize bytes, or a declared length that
// does not fit within raw. A CRC mismatch is not a structural failure: the
// Frame is still returned so a caller can inspect the claimed sequence
// number, and crcValid reports whether the checksum over the whole frame
// came out to zero.
func Deserialize(raw []byte) (f Frame, crcValid bool, err error) {
	if len(raw) < MinSize {
		return Frame{}, false, NewError(ErrTooShort, "frame shorter than header+crc")
	}

	length := int(raw[2])<<8 | int(raw[3])
	total := HeaderSize + length + 2
	if len(raw) < total {
		return Frame{}, false, NewError(ErrLengthMismatch, "declared length exceeds available bytes")
	}

	payload := raw[HeaderSize : HeaderSize+length]
	wireCRC := uint16(raw[HeaderSize+length])<<8 | uint16(raw[HeaderSize+length+1])

	f = Frame{
		Seq:     raw[0],
		Kind:    Kind(raw[1]),
		Payload: append([]byte(nil), payload...),
		CRC:     wireCRC,
	}
	crcValid = crc.Verify(raw[:total])
	return f, crcValid, nil
}

// Fragment splits message into chunks of at most MaxPayload bytes each,
// preserving order. An empty message yields zero chunks.
func Fragment(message []byte) [][]byte {
	if len(message) == 0 {
		return nil
	}
	chunks := make([][]byte, 0, (len(message)+MaxPayload-1)/MaxPayload)
	for i := 0; i < len(message); i += MaxPayload {
		end := i + MaxPayload
		if end > len(message) {
			end = len(message)
		}
		chunks = append(chunks, message[i:end])
	}
	return chunks
}
