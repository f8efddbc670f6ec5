package value

import "testing"

func TestCoercion(t *testing.T) {
	v := String("42")
	i, err := v.Int()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if i != 42 {
		t.Fatalf("got %d, want 42", i)
	}

	f, err := v.Float()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f != 42.0 {
		t.Fatalf("got %v, want 42.0", f)
	}
}

func TestListWrapsScalar(t *testing.T) {
	v := Int(7)
	lst, err := v.List()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lst) != 1 || !Equal(lst[0], v) {
		t.Fatalf("got %v, want [7]", lst)
	}
}

func TestEqual(t *testing.T) {
	a := List([]Value{Int(1), String("x")})
	b := List([]Value{Int(1), String("x")})
	c := List([]Value{Int(1), String("y")})
	if !Equal(a, b) {
		t.Fatalf("expected equal")
	}
	if Equal(a, c) {
		t.Fatalf("expected not equal")
	}
}

func TestNamePreservedNotComparedByEqual(t *testing.T) {
	a := Int(1).Named("foo")
	b := Int(1)
	if !Equal(a, b) {
		t.Fatalf("Equal must ignore Name")
	}
	if a.Name() != "foo" {
		t.Fatalf("got name %q, want foo", a.Name())
	}
}

func TestBufferRoundTrip(t *testing.T) {
	v := Buffer([]byte{1, 2, 3})
	buf, err := v.Buf()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(buf) != 3 {
		t.Fatalf("got len %d, want 3", len(buf))
	}
}

func TestBoolCoercionError(t *testing.T) {
	v := String("not-a-bool")
	if _, err := v.Bool(); err == nil {
		t.Fatalf("expected error coercing %q to bool", v.String())
	}
}
