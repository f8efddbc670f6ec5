package attribute

import (
	"testing"

	"github.com/splash-engine/splash/value"
)

func TestDefaultBackedStoreAndRetrieve(t *testing.T) {
	a := New("position")
	if ok := a.Call([]value.Value{value.Float(1.0), value.Float(2.0)}); !ok {
		t.Fatalf("first call should succeed and derive the signature")
	}
	got := a.Value()
	if len(got) != 2 || !value.Equal(got[0], value.Float(1.0)) {
		t.Fatalf("got %v", got)
	}

	// a later call with a mismatched signature is rejected
	if ok := a.Call([]value.Value{value.String("nope")}); ok {
		t.Fatalf("mismatched call should fail")
	}
}

func TestLockedAttributeRejectsWrites(t *testing.T) {
	a := New("frozen")
	a.Call([]value.Value{value.Int(1)})
	if ok := a.Lock(nil); !ok {
		t.Fatalf("lock should succeed")
	}
	if ok := a.Call([]value.Value{value.Int(2)}); ok {
		t.Fatalf("locked attribute must silently reject writes")
	}
	got := a.Value()
	if len(got) != 1 || !value.Equal(got[0], value.Int(1)) {
		t.Fatalf("locked value should be unchanged, got %v", got)
	}
}

func TestFunctorSetterGetter(t *testing.T) {
	var stored int64
	a := NewFunctor("count", []value.Kind{value.KindInt},
		func(args []value.Value) bool {
			i, err := args[0].Int()
			if err != nil {
				return false
			}
			stored = i
			return true
		},
		func() []value.Value { return []value.Value{value.Int(stored)} },
	)

	if ok := a.Call([]value.Value{value.Int(5)}); !ok {
		t.Fatalf("call should succeed")
	}
	if stored != 5 {
		t.Fatalf("setter did not run, stored=%d", stored)
	}
	got := a.Value()
	if len(got) != 1 || !value.Equal(got[0], value.Int(5)) {
		t.Fatalf("getter did not run, got=%v", got)
	}
}

func TestSignatureMismatchIsRejected(t *testing.T) {
	a := NewFunctor("typed", []value.Kind{value.KindInt, value.KindString},
		func(args []value.Value) bool { return true },
		nil,
	)
	if ok := a.Call([]value.Value{value.String("wrong-order")}); ok {
		t.Fatalf("mismatched signature should fail")
	}
	// extra trailing args beyond the signature are accepted
	if ok := a.Call([]value.Value{value.Int(1), value.String("x"), value.Bool(true)}); !ok {
		t.Fatalf("extra trailing args should be accepted")
	}
}
