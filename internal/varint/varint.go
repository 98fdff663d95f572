// Package varint implements the variable-length integer encoding used by
// the SQLite file format.
//
// A varint is 1 to 9 bytes, most significant byte first. Bytes 1-8 carry
// 7 value bits each with the high bit as a continuation flag; the 9th byte,
// when reached, contributes all 8 of its bits and terminates unconditionally.
package varint

import (
	"github.com/FocuswithJustin/tamarack/core/errors"
)

// MaxLen is the largest possible varint encoding in bytes.
const MaxLen = 9

// Get reads a varint from the start of p and returns the decoded value and
// the number of bytes consumed. If p is exhausted before the varint
// terminates, Get fails with ErrMalformedVarint.
func Get(p []byte) (uint64, int, error) {
	if len(p) == 0 {
		return 0, 0, errors.Wrap(errors.ErrMalformedVarint, "empty input")
	}

	// Fast path for 1-byte case
	if p[0] < 0x80 {
		return uint64(p[0]), 1, nil
	}

	// Fast path for 2-byte case
	if len(p) > 1 && p[1] < 0x80 {
		return (uint64(p[0]&0x7f) << 7) | uint64(p[1]), 2, nil
	}

	var v uint64
	for i := 0; i < MaxLen; i++ {
		if i >= len(p) {
			return 0, 0, errors.Wrapf(errors.ErrMalformedVarint,
				"unterminated after %d bytes", len(p))
		}
		if i == MaxLen-1 {
			// 9th byte: all 8 bits, no continuation semantics. Folding it
			// with the 7-bit rule would corrupt the value.
			return (v << 8) | uint64(p[i]), MaxLen, nil
		}
		v = (v << 7) | uint64(p[i]&0x7f)
		if p[i]&0x80 == 0 {
			return v, i + 1, nil
		}
	}
	return 0, 0, errors.Wrap(errors.ErrMalformedVarint, "unterminated")
}

// Put writes v to p as a varint and returns the number of bytes written.
// p must have room for Len(v) bytes.
func Put(p []byte, v uint64) int {
	if v <= 0x7f {
		p[0] = byte(v)
		return 1
	}
	if v <= 0x3fff {
		p[0] = byte((v>>7)&0x7f) | 0x80
		p[1] = byte(v & 0x7f)
		return 2
	}
	return put64(p, v)
}

// put64 handles the general case of encoding a 64-bit varint
func put64(p []byte, v uint64) int {
	if v&(uint64(0xff000000)<<32) != 0 {
		// 9-byte case: all 8 bits of the 9th byte are used
		p[8] = byte(v)
		v >>= 8
		for i := 7; i >= 0; i-- {
			p[i] = byte((v & 0x7f) | 0x80)
			v >>= 7
		}
		return 9
	}

	// Count how many 7-bit groups we need
	n := 1
	temp := v >> 7
	for temp > 0 {
		n++
		temp >>= 7
	}

	// Encode from most significant to least significant
	for i := n - 1; i >= 0; i-- {
		shift := uint(i * 7)
		b := byte((v >> shift) & 0x7f)
		if i > 0 {
			b |= 0x80
		}
		p[n-1-i] = b
	}
	return n
}

// Append appends the varint encoding of v to buf and returns the result.
func Append(buf []byte, v uint64) []byte {
	var tmp [MaxLen]byte
	n := Put(tmp[:], v)
	return append(buf, tmp[:n]...)
}

// Len returns the number of bytes required to encode v as a varint.
func Len(v uint64) int {
	if v <= 0x7f {
		return 1
	}
	if v <= 0x3fff {
		return 2
	}
	if v <= 0x1fffff {
		return 3
	}
	if v <= 0xfffffff {
		return 4
	}
	if v <= 0x7ffffffff {
		return 5
	}
	if v <= 0x3ffffffffff {
		return 6
	}
	if v <= 0x1ffffffffffff {
		return 7
	}
	if v <= 0xffffffffffffff {
		return 8
	}
	return 9
}
