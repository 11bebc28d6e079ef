package codec

import (
	"bytes"
	"encoding/gob"
)

// NameBinary is the configuration name of the binary codec.
const NameBinary = "binary"

// Binary is the opaque-binary codec, built on encoding/gob. It can carry
// any gob-encodable Go value, including user-defined struct types, but the
// producing and consuming processes must share the codebase that defines
// those types.
var Binary Codec = binaryCodec{}

type binaryCodec struct{}

func (binaryCodec) Name() string { return NameBinary }

func (binaryCodec) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, codecErrors.NewWithCause(codeMarshal, err)
	}
	return buf.Bytes(), nil
}

func (binaryCodec) Unmarshal(data []byte, v any) error {
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(v); err != nil {
		return codecErrors.NewWithCause(codeUnmarshal, err)
	}
	return nil
}
