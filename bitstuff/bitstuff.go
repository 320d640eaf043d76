// Package bitstuff implements the HDLC bit-stuffing and flag-delimiting
// codec used for bit-level framing. It operates over a bit-string
// representation (a string of '0'/'1' runes) rather than bytes, matching
// the layering in the original canal/protocole prototype this module was
// distilled from. It is a standalone library: goarq's Go-Back-N data path
// frames at the byte level (see package frame) and does not stuff bits
// underneath it — see DESIGN.md for that layering decision.
package bitstuff

import (
	"errors"
	"strings"
)

// Flag is the 8-bit pattern that delimits an HDLC frame.
const Flag = "01111110"

// ErrNotFramed is returned by Extract when the input does not contain two
// Flag occurrences delimiting a frame.
var ErrNotFramed = errors.New("bitstuff: input is not flag-delimited")

// Stuff inserts a '0' after every run of five consecutive '1' bits, so the
// result never contains six consecutive '1' bits outside of flags.
func Stuff(bits string) string {
	var b strings.Builder
	b.Grow(len(bits) + len(bits)/5 + 1)

	ones := 0
	for i := 0; i < len(bits); i++ {
		c := bits[i]
		b.WriteByte(c)
		if c == '1' {
			ones++
			if ones == 5 {
				b.WriteByte('0')
				ones = 0
			}
		} else {
			ones = 0
		}
	}
	return b.String()
}

// Destuff removes the '0' bits inserted by Stuff after every run of five
// consecutive '1' bits, restoring the original sequence exactly.
func Destuff(bits string) string {
	var b strings.Builder
	b.Grow(len(bits))

	ones := 0
	for i := 0; i < len(bits); i++ {
		c := bits[i]
		b.WriteByte(c)
		if c == '1' {
			ones++
			if ones == 5 {
				i++ // skip the stuffed '0'
				ones = 0
			}
		} else {
			ones = 0
		}
	}
	return b.String()
}

// Frame wraps stuffed bits with a leading and trailing Flag.
func Frame(stuffedBits string) string {
	return Flag + stuffedBits + Flag
}

// Extract returns the bits strictly between the first Flag and the next
// Flag occurring after it. It returns ErrNotFramed if either flag is
// missing.
func Extract(framed string) (string, error) {
	start := strings.Index(framed, Flag)
	if start == -1 {
		return "", ErrNotFramed
	}
	afterStart := start + len(Flag)
	end := strings.Index(framed[afterStart:], Flag)
	if end == -1 {
		return "", ErrNotFramed
	}
	return framed[afterStart : afterStart+end], nil
}

// PackBits groups a bit string into bytes, MSB-first, zero-padding the
// final byte if bits is not a multiple of 8 long.
func PackBits(bits string) []byte {
	if rem := len(bits) % 8; rem != 0 {
		bits += strings.Repeat("0", 8-rem)
	}
	out := make([]byte, len(bits)/8)
	for i := 0; i < len(out); i++ {
		var v byte
		for j := 0; j < 8; j++ {
			v <<= 1
			if bits[i*8+j] == '1' {
				v |= 1
			}
		}
		out[i] = v
	}
	return out
}

// UnpackBytes renders bytes as a bit string, MSB-first, the inverse of
// PackBits (modulo any zero padding PackBits introduced).
func UnpackBytes(data []byte) string {
	var b strings.Builder
	b.Grow(len(data) * 8)
	for _, byt := range data {
		for bit := 7; bit >= 0; bit-- {
			if byt&(1<<uint(bit)) != 0 {
				b.WriteByte('1')
			} else {
				b.WriteByte('0')
			}
		}
	}
	return b.String()
}
