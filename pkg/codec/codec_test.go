package codec_test

import (
	"errors"
	"testing"

	"github.com/concurrency-go/aiopool/pkg/codec"
)

type payload struct {
	Name  string
	Count int
	Tags  []string
}

func TestBinary_RoundTripsStructs(t *testing.T) {
	in := payload{Name: "resize", Count: 3, Tags: []string{"a", "b"}}

	data, err := codec.Binary.Marshal(in)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var out payload
	if err := codec.Binary.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if out.Name != in.Name || out.Count != in.Count || len(out.Tags) != 2 {
		t.Fatalf("round trip mismatch: %+v", out)
	}
}

func TestStructured_RoundTripsPrimitives(t *testing.T) {
	in := map[string]any{"x": "y", "n": float64(4)}

	data, err := codec.Structured.Marshal(in)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var out map[string]any
	if err := codec.Structured.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if out["x"] != "y" || out["n"] != float64(4) {
		t.Fatalf("round trip mismatch: %+v", out)
	}
}

func TestStructured_RejectsGarbage(t *testing.T) {
	var out payload
	err := codec.Structured.Unmarshal([]byte("not json"), &out)
	if !errors.Is(err, codec.ErrUnmarshal) {
		t.Fatalf("expected ErrUnmarshal, got %v", err)
	}
}

func TestBinary_RejectsGarbage(t *testing.T) {
	var out payload
	err := codec.Binary.Unmarshal([]byte{0x01, 0x02}, &out)
	if !errors.Is(err, codec.ErrUnmarshal) {
		t.Fatalf("expected ErrUnmarshal, got %v", err)
	}
}

func TestByName(t *testing.T) {
	b, err := codec.ByName("binary")
	if err != nil || b.Name() != codec.NameBinary {
		t.Fatalf("binary lookup failed: %v", err)
	}
	s, err := codec.ByName("structured")
	if err != nil || s.Name() != codec.NameStructured {
		t.Fatalf("structured lookup failed: %v", err)
	}
	if _, err := codec.ByName("xml"); !errors.Is(err, codec.ErrUnknown) {
		t.Fatalf("expected ErrUnknown, got %v", err)
	}
}
