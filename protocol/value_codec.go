package protocol

import (
	"encoding/binary"
	"fmt"
	"unicode/utf8"

	"github.com/mickamy/microbat/value"
)

// encodeValue appends a value's wire encoding — [type-tag:1][length:4 LE]
// [bytes] — to buf. Integer is 4-byte big-endian i32 (see spec.md §9:
// earlier revisions of this wire format used unsigned 32-bit, which
// mismatched the signed Value variant; this encoder uses signed
// big-endian, the historically-corrected layout).
func encodeValue(buf []byte, v value.Value) []byte {
	buf = append(buf, v.TypeTag())
	switch v.Type() {
	case value.Integer:
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], uint32(v.Int()))
		buf = appendLengthPrefixed(buf, b[:])
	case value.Varchar:
		buf = appendLengthPrefixed(buf, []byte(v.Str()))
	default:
		buf = appendLengthPrefixed(buf, nil)
	}
	return buf
}

// decodeValue reads one [type-tag][length][bytes] value off the front of
// buf and returns it with the remaining unread bytes.
func decodeValue(buf []byte) (value.Value, []byte, error) {
	if len(buf) < 1 {
		return value.Value{}, nil, fmt.Errorf("protocol: truncated value tag")
	}
	tag := buf[0]
	buf = buf[1:]

	raw, rest, err := readLengthPrefixed(buf)
	if err != nil {
		return value.Value{}, nil, err
	}

	switch tag {
	case value.TypeTagNull:
		return value.NewNull(), rest, nil
	case value.TypeTagInteger:
		if len(raw) != 4 {
			return value.Value{}, nil, fmt.Errorf("protocol: integer value must be 4 bytes, got %d", len(raw))
		}
		return value.NewInteger(int32(binary.BigEndian.Uint32(raw))), rest, nil
	case value.TypeTagVarchar:
		if !utf8.Valid(raw) {
			return value.Value{}, nil, fmt.Errorf("protocol: varchar value is not valid UTF-8")
		}
		return value.NewVarchar(string(raw)), rest, nil
	default:
		return value.Value{}, nil, fmt.Errorf("protocol: unknown value type tag %q", tag)
	}
}
