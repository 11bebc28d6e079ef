// Package codec provides the payload serializers used by the distributed
// task layer. Two variants exist: an opaque binary mode that round-trips
// arbitrary Go values between producers and consumers built from the same
// codebase, and a structured text mode restricted to JSON-representable
// values that is safe to exchange across trust boundaries.
package codec

import "github.com/concurrency-go/aiopool/pkg/errx"

// Codec encodes and decodes task payloads.
type Codec interface {
	// Name identifies the codec in configuration ("binary" or "structured").
	Name() string

	// Marshal encodes v into a payload.
	Marshal(v any) ([]byte, error)

	// Unmarshal decodes a payload into v, which must be a pointer.
	Unmarshal(data []byte, v any) error
}

var codecErrors = errx.NewRegistry("CODEC")

var (
	codeMarshal   = codecErrors.Register("MARSHAL", errx.TypeInternal, "Payload encoding failed")
	codeUnmarshal = codecErrors.Register("UNMARSHAL", errx.TypeValidation, "Payload decoding failed")
	codeUnknown   = codecErrors.Register("UNKNOWN", errx.TypeValidation, "Unknown codec name")
)

// Sentinel errors for matching with errors.Is.
var (
	ErrMarshal   = codecErrors.New(codeMarshal)
	ErrUnmarshal = codecErrors.New(codeUnmarshal)
	ErrUnknown   = codecErrors.New(codeUnknown)
)

// ByName resolves a codec from its configuration name.
func ByName(name string) (Codec, error) {
	switch name {
	case NameBinary:
		return Binary, nil
	case NameStructured:
		return Structured, nil
	default:
		return nil, codecErrors.New(codeUnknown).WithDetail("name", name)
	}
}
