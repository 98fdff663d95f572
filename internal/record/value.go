package record

import "strconv"

// Value is one decoded column value.
type Value struct {
	Kind   ValueKind
	Int    int64
	Float  float64
	Text   string
	Blob   []byte
	IsNull bool
}

// Display renders the value the way the query surface reports it:
// NULL as the empty string, integers and floats in decimal, text verbatim,
// blobs as their raw bytes.
func (v Value) Display() string {
	switch v.Kind {
	case KindNull:
		return ""
	case KindInteger:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case KindText:
		return v.Text
	case KindBlob:
		return string(v.Blob)
	}
	return ""
}

// IntValue creates an integer value
func IntValue(i int64) Value {
	return Value{Kind: KindInteger, Int: i}
}

// FloatValue creates a float value
func FloatValue(f float64) Value {
	return Value{Kind: KindFloat, Float: f}
}

// TextValue creates a text value
func TextValue(s string) Value {
	return Value{Kind: KindText, Text: s}
}

// BlobValue creates a blob value
func BlobValue(b []byte) Value {
	return Value{Kind: KindBlob, Blob: b}
}

// NullValue creates a null value
func NullValue() Value {
	return Value{Kind: KindNull, IsNull: true}
}
