package wire

import (
	"testing"

	"github.com/google/uuid"

	"github.com/splash-engine/splash/tree"
	"github.com/splash-engine/splash/value"
)

func TestValueRoundTrip(t *testing.T) {
	cases := []value.Value{
		value.Empty(),
		value.Bool(true),
		value.Int(-42),
		value.Float(3.25),
		value.String("hello, splash"),
		value.Buffer([]byte{9, 8, 7, 6}),
		value.List([]value.Value{value.Int(1), value.String("x"), value.Bool(false)}),
	}
	for _, v := range cases {
		b, err := MarshalValue(v)
		if err != nil {
			t.Fatalf("marshal %v: %v", v, err)
		}
		if len(b) != Size(v) {
			t.Fatalf("Size(%v)=%d but marshaled to %d bytes", v, Size(v), len(b))
		}
		got, err := UnmarshalValue(b)
		if err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if !value.Equal(got, v) {
			t.Fatalf("got %v, want %v", got, v)
		}
	}
}

func TestSeedRoundTrip(t *testing.T) {
	s := tree.Seed{
		Task:      tree.TaskSetLeaf,
		Path:      "/scene/x",
		Args:      value.Int(7),
		Timestamp: 123456789,
		Origin:    uuid.New(),
	}
	b, err := MarshalSeed(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := UnmarshalSeed(b)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Task != s.Task || got.Path != s.Path || got.Timestamp != s.Timestamp || got.Origin != s.Origin {
		t.Fatalf("got %+v, want %+v", got, s)
	}
	if !value.Equal(got.Args, s.Args) {
		t.Fatalf("args mismatch: got %v, want %v", got.Args, s.Args)
	}
}
