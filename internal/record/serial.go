package record

import (
	"math"

	"github.com/FocuswithJustin/tamarack/core/errors"
)

// Serial type codes from the record format:
//
//	0: NULL
//	1: 8-bit signed integer
//	2: 16-bit big-endian signed integer
//	3: 24-bit big-endian signed integer
//	4: 32-bit big-endian signed integer
//	5: 48-bit big-endian signed integer
//	6: 64-bit big-endian signed integer
//	7: IEEE 754 float64 (big-endian)
//	8: integer constant 0 (no data stored)
//	9: integer constant 1 (no data stored)
//	10,11: reserved for internal use
//	N>=12 (even): BLOB of (N-12)/2 bytes
//	N>=13 (odd): TEXT of (N-13)/2 bytes

// SerialType represents a serial type code from a record header.
type SerialType uint64

const (
	SerialTypeNull    SerialType = 0
	SerialTypeInt8    SerialType = 1
	SerialTypeInt16   SerialType = 2
	SerialTypeInt24   SerialType = 3
	SerialTypeInt32   SerialType = 4
	SerialTypeInt48   SerialType = 5
	SerialTypeInt64   SerialType = 6
	SerialTypeFloat64 SerialType = 7
	SerialTypeZero    SerialType = 8
	SerialTypeOne     SerialType = 9
)

// ValueKind classifies what a serial type stores.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindInteger
	KindFloat
	KindZero
	KindOne
	KindText
	KindBlob
)

func (k ValueKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindZero:
		return "zero"
	case KindOne:
		return "one"
	case KindText:
		return "text"
	case KindBlob:
		return "blob"
	}
	return "unknown"
}

// Resolve maps a serial type to its value kind and the number of bytes the
// value occupies in the record body. Types 10 and 11 fail with
// ErrReservedSerialType; codes whose derived length cannot be represented
// fail with ErrInvalidSerialType.
func Resolve(st SerialType) (ValueKind, int, error) {
	switch st {
	case SerialTypeNull:
		return KindNull, 0, nil
	case SerialTypeInt8:
		return KindInteger, 1, nil
	case SerialTypeInt16:
		return KindInteger, 2, nil
	case SerialTypeInt24:
		return KindInteger, 3, nil
	case SerialTypeInt32:
		return KindInteger, 4, nil
	case SerialTypeInt48:
		return KindInteger, 6, nil
	case SerialTypeInt64:
		return KindInteger, 8, nil
	case SerialTypeFloat64:
		return KindFloat, 8, nil
	case SerialTypeZero:
		return KindZero, 0, nil
	case SerialTypeOne:
		return KindOne, 0, nil
	case 10, 11:
		return KindNull, 0, errors.Wrapf(errors.ErrReservedSerialType, "serial type %d", st)
	}

	// Blob (even) or text (odd). The format caps payload sizes well below
	// 2^31, so a larger derived length can only come from a corrupt header.
	n := uint64(st)
	var length uint64
	if n%2 == 0 {
		length = (n - 12) / 2
	} else {
		length = (n - 13) / 2
	}
	if length > math.MaxInt32 {
		return KindNull, 0, errors.Wrapf(errors.ErrInvalidSerialType, "serial type %d implies %d-byte value", st, length)
	}
	if n%2 == 0 {
		return KindBlob, int(length), nil
	}
	return KindText, int(length), nil
}

// SerialTypeFor determines the serial type that encodes val most compactly.
func SerialTypeFor(val Value) SerialType {
	switch val.Kind {
	case KindNull:
		return SerialTypeNull

	case KindInteger:
		i := val.Int
		if i == 0 {
			return SerialTypeZero
		}
		if i == 1 {
			return SerialTypeOne
		}
		if i >= -128 && i <= 127 {
			return SerialTypeInt8
		}
		if i >= -32768 && i <= 32767 {
			return SerialTypeInt16
		}
		if i >= -8388608 && i <= 8388607 {
			return SerialTypeInt24
		}
		if i >= -2147483648 && i <= 2147483647 {
			return SerialTypeInt32
		}
		if i >= -140737488355328 && i <= 140737488355327 {
			return SerialTypeInt48
		}
		return SerialTypeInt64

	case KindFloat:
		return SerialTypeFloat64

	case KindText:
		return SerialType(13 + 2*len(val.Text))

	case KindBlob:
		return SerialType(12 + 2*len(val.Blob))
	}

	return SerialTypeNull
}
