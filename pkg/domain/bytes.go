package domain

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"strconv"

	dErrors "idattest/pkg/domain-errors"
)

// Bytes is an opaque byte string. It marshals to a JSON array of byte values,
// the wire form notary clients already speak, and also accepts a base64
// string on input.
type Bytes []byte

func (b Bytes) MarshalJSON() ([]byte, error) {
	if b == nil {
		return []byte("[]"), nil
	}
	var buf bytes.Buffer
	buf.Grow(len(b)*4 + 2)
	buf.WriteByte('[')
	for i, v := range b {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Itoa(int(v)))
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func (b *Bytes) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*b = nil
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return dErrors.New(dErrors.CodeInvalidInput, "bytes must be a byte array or base64 string")
		}
		*b = raw
		return nil
	}
	var nums []int
	if err := json.Unmarshal(data, &nums); err != nil {
		return dErrors.New(dErrors.CodeInvalidInput, "bytes must be a byte array or base64 string")
	}
	out := make([]byte, len(nums))
	for i, n := range nums {
		if n < 0 || n > 255 {
			return dErrors.Newf(dErrors.CodeInvalidInput, "byte value %d out of range", n)
		}
		out[i] = byte(n)
	}
	*b = out
	return nil
}
