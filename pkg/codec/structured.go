package codec

import "encoding/json"

// NameStructured is the configuration name of the structured codec.
const NameStructured = "structured"

// Structured is the text codec, built on encoding/json. Payloads are
// restricted to what JSON can express — primitives, arrays, and mappings —
// which makes them inspectable and safe to hand to consumers that do not
// share the producer's codebase.
var Structured Codec = structuredCodec{}

type structuredCodec struct{}

func (structuredCodec) Name() string { return NameStructured }

func (structuredCodec) Marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, codecErrors.NewWithCause(codeMarshal, err)
	}
	return data, nil
}

func (structuredCodec) Unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return codecErrors.NewWithCause(codeUnmarshal, err)
	}
	return nil
}
