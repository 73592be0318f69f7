package persistence

import (
	"bytes"
	"encoding/gob"
	"fmt"
)

// EncodeMessage serializes msg with encoding/gob. The value is encoded
// behind an interface so DecodeMessage can restore its dynamic type, which
// means concrete message types must be registered with gob.Register.
func EncodeMessage(msg any) ([]byte, error) {
	if msg == nil {
		return nil, nil
	}
	var buf bytes.Buffer
	iv := msg
	if err := gob.NewEncoder(&buf).Encode(&iv); err != nil {
		return nil, fmt.Errorf("encode %T: %w", msg, err)
	}
	return buf.Bytes(), nil
}

// DecodeMessage restores a message written by EncodeMessage. Empty data
// decodes to nil.
func DecodeMessage(data []byte) (any, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var iv any
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&iv); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}
	return iv, nil
}

// DecodeMessageAs decodes data and asserts the result to T.
func DecodeMessageAs[T any](data []byte) (T, error) {
	var zero T
	v, err := DecodeMessage(data)
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("decode message: got %T, want %T", v, zero)
	}
	return t, nil
}
