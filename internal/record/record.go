// Package record decodes and encodes rows in the SQLite record format.
//
// A record is a header followed by a body. The header opens with a varint
// giving the total header length in bytes, counting that varint's own
// encoding, followed by one serial-type varint per column. The body carries
// the column values back to back, each occupying exactly the width its
// serial type resolves to. Column count is whatever the header declares;
// there is no upper bound.
package record

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/FocuswithJustin/tamarack/core/errors"
	"github.com/FocuswithJustin/tamarack/internal/varint"
)

// Record is one decoded row.
type Record struct {
	Values []Value
}

// Parse decodes a record from a complete payload. The payload must span the
// exact record: a header that declares more bytes than are present fails
// with ErrTruncatedRecord, as does any column whose value would read past
// the end.
func Parse(data []byte) (*Record, error) {
	if len(data) == 0 {
		return nil, errors.Wrap(errors.ErrTruncatedRecord, "empty payload")
	}

	headerLen, n, err := varint.Get(data)
	if err != nil {
		return nil, errors.Wrap(err, "record header length")
	}
	if headerLen < uint64(n) {
		return nil, errors.Wrapf(errors.ErrCorrupt,
			"record header length %d smaller than its own encoding (%d bytes)", headerLen, n)
	}
	if headerLen > uint64(len(data)) {
		return nil, errors.Wrapf(errors.ErrTruncatedRecord,
			"record header length %d exceeds payload of %d bytes", headerLen, len(data))
	}

	// The loop bound is the byte length of the header, which counts the
	// header-length varint itself. Serial-type varints may not cross the
	// header boundary.
	header := data[:headerLen]
	offset := n
	var serialTypes []SerialType
	for offset < len(header) {
		st, m, err := varint.Get(header[offset:])
		if err != nil {
			return nil, errors.Wrapf(err, "serial type %d in record header", len(serialTypes))
		}
		serialTypes = append(serialTypes, SerialType(st))
		offset += m
	}

	values := make([]Value, len(serialTypes))
	for i, st := range serialTypes {
		val, m, err := parseValue(data, offset, st)
		if err != nil {
			return nil, errors.Wrapf(err, "column %d", i)
		}
		values[i] = val
		offset += m
	}

	if offset != len(data) {
		return nil, errors.Wrapf(errors.ErrCorrupt,
			"record leaves %d undecoded bytes", len(data)-offset)
	}

	return &Record{Values: values}, nil
}

// parseValue decodes a single value from the record body at offset.
func parseValue(data []byte, offset int, st SerialType) (Value, int, error) {
	kind, length, err := Resolve(st)
	if err != nil {
		return Value{}, 0, err
	}
	if offset+length > len(data) {
		return Value{}, 0, errors.Wrapf(errors.ErrTruncatedRecord,
			"%s value needs %d bytes, %d remain", kind, length, len(data)-offset)
	}

	switch st {
	case SerialTypeNull:
		return Value{Kind: KindNull, IsNull: true}, 0, nil

	case SerialTypeZero:
		return Value{Kind: KindInteger, Int: 0}, 0, nil

	case SerialTypeOne:
		return Value{Kind: KindInteger, Int: 1}, 0, nil

	case SerialTypeInt8:
		return Value{Kind: KindInteger, Int: int64(int8(data[offset]))}, 1, nil

	case SerialTypeInt16:
		v := int64(int16(binary.BigEndian.Uint16(data[offset:])))
		return Value{Kind: KindInteger, Int: v}, 2, nil

	case SerialTypeInt24:
		v := int32(data[offset])<<16 | int32(data[offset+1])<<8 | int32(data[offset+2])
		if v&0x800000 != 0 {
			v |= ^0xffffff // Sign extend
		}
		return Value{Kind: KindInteger, Int: int64(v)}, 3, nil

	case SerialTypeInt32:
		v := int64(int32(binary.BigEndian.Uint32(data[offset:])))
		return Value{Kind: KindInteger, Int: v}, 4, nil

	case SerialTypeInt48:
		v := int64(data[offset])<<40 | int64(data[offset+1])<<32 |
			int64(data[offset+2])<<24 | int64(data[offset+3])<<16 |
			int64(data[offset+4])<<8 | int64(data[offset+5])
		if v&0x800000000000 != 0 {
			v |= ^0xffffffffffff // Sign extend
		}
		return Value{Kind: KindInteger, Int: v}, 6, nil

	case SerialTypeInt64:
		v := int64(binary.BigEndian.Uint64(data[offset:]))
		return Value{Kind: KindInteger, Int: v}, 8, nil

	case SerialTypeFloat64:
		bits := binary.BigEndian.Uint64(data[offset:])
		return Value{Kind: KindFloat, Float: math.Float64frombits(bits)}, 8, nil
	}

	// Blob or text. Bytes are copied so values stay valid after the page
	// buffer is reused.
	b := make([]byte, length)
	copy(b, data[offset:offset+length])

	if kind == KindBlob {
		return Value{Kind: KindBlob, Blob: b}, length, nil
	}
	if !utf8.Valid(b) {
		return Value{}, 0, errors.Wrapf(errors.ErrInvalidText,
			"text value of %d bytes", length)
	}
	return Value{Kind: KindText, Text: string(b)}, length, nil
}

// Make encodes values as a record payload. It is the inverse of Parse and
// exists for fixture construction and content digests.
func Make(values []Value) ([]byte, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("cannot create empty record")
	}

	serialTypes := make([]SerialType, len(values))
	serialTypesSize := 0
	bodySize := 0

	for i, val := range values {
		st := SerialTypeFor(val)
		serialTypes[i] = st
		serialTypesSize += varint.Len(uint64(st))
		_, n, err := Resolve(st)
		if err != nil {
			return nil, err
		}
		bodySize += n
	}

	// The header length counts its own varint, so the size is
	// self-referential; iterate until it stabilizes.
	headerSize := serialTypesSize + 1
	for {
		newHeaderSize := varint.Len(uint64(headerSize)) + serialTypesSize
		if newHeaderSize == headerSize {
			break
		}
		headerSize = newHeaderSize
	}

	buf := make([]byte, 0, headerSize+bodySize)
	buf = varint.Append(buf, uint64(headerSize))
	for _, st := range serialTypes {
		buf = varint.Append(buf, uint64(st))
	}
	for i, val := range values {
		buf = appendValue(buf, val, serialTypes[i])
	}

	return buf, nil
}

// appendValue appends a value's body bytes according to its serial type.
func appendValue(buf []byte, val Value, st SerialType) []byte {
	switch st {
	case SerialTypeNull, SerialTypeZero, SerialTypeOne:
		return buf

	case SerialTypeInt8:
		return append(buf, byte(val.Int))

	case SerialTypeInt16:
		var tmp [2]byte
		binary.BigEndian.PutUint16(tmp[:], uint16(val.Int))
		return append(buf, tmp[:]...)

	case SerialTypeInt24:
		v := uint32(val.Int)
		return append(buf, byte(v>>16), byte(v>>8), byte(v))

	case SerialTypeInt32:
		var tmp [4]byte
		binary.BigEndian.PutUint32(tmp[:], uint32(val.Int))
		return append(buf, tmp[:]...)

	case SerialTypeInt48:
		v := uint64(val.Int)
		return append(buf,
			byte(v>>40), byte(v>>32), byte(v>>24),
			byte(v>>16), byte(v>>8), byte(v))

	case SerialTypeInt64:
		var tmp [8]byte
		binary.BigEndian.PutUint64(tmp[:], uint64(val.Int))
		return append(buf, tmp[:]...)

	case SerialTypeFloat64:
		var tmp [8]byte
		binary.BigEndian.PutUint64(tmp[:], math.Float64bits(val.Float))
		return append(buf, tmp[:]...)
	}

	if uint64(st)%2 == 0 {
		return append(buf, val.Blob...)
	}
	return append(buf, val.Text...)
}
