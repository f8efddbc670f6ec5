package object

import (
	"testing"

	"github.com/splash-engine/splash/attribute"
	"github.com/splash-engine/splash/value"
)

type fakeLookup struct {
	objs map[string]*Object
}

func (f *fakeLookup) Lookup(name string) (*Object, bool) {
	o, ok := f.objs[name]
	return o, ok
}

func TestSetAttributeCreatesAndReportsNew(t *testing.T) {
	obj := NewBase("image", "bg")
	ok, created := obj.SetAttribute("scale", []value.Value{value.Float(2.0)})
	if !ok || !created {
		t.Fatalf("got ok=%v created=%v, want true,true", ok, created)
	}
	ok, created = obj.SetAttribute("scale", []value.Value{value.Float(3.0)})
	if !ok || created {
		t.Fatalf("got ok=%v created=%v, want true,false", ok, created)
	}
	got, ok := obj.GetAttribute("scale")
	if !ok || len(got) != 1 || !value.Equal(got[0], value.Float(3.0)) {
		t.Fatalf("got %v", got)
	}
	if !obj.WasUpdated() {
		t.Fatalf("object should be marked updated")
	}
	obj.ClearUpdated()
	if obj.WasUpdated() {
		t.Fatalf("ClearUpdated should reset the dirty bit")
	}
}

func TestLinkToIsIdempotentAndWeak(t *testing.T) {
	a := NewBase("window", "w1")
	b := NewBase("camera", "c1")
	lookup := &fakeLookup{objs: map[string]*Object{"c1": b}}
	a.SetLookup(lookup)

	a.LinkTo("c1")
	a.LinkTo("c1") // idempotent
	linked := a.LinkedObjects()
	if len(linked) != 1 || linked[0] != b {
		t.Fatalf("got %v", linked)
	}

	delete(lookup.objs, "c1") // simulate removal: the weak ref expires
	linked = a.LinkedObjects()
	if len(linked) != 0 {
		t.Fatalf("expired weak ref should be elided, got %v", linked)
	}

	a.SetLookup(lookup)
	a.LinkTo("c1")
	a.UnlinkFrom("c1")
	lookup.objs["c1"] = b
	linked = a.LinkedObjects()
	if len(linked) != 0 {
		t.Fatalf("unlinked object should not reappear, got %v", linked)
	}
}

func TestFactoryRegisterAndConstruct(t *testing.T) {
	kind := "test-kind-factory"
	Register(kind, func() Instance { return NewBase(kind, "") })

	inst, err := New(kind, "instance1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	obj := inst.Base()
	if obj.Kind() != kind || obj.Name() != "instance1" {
		t.Fatalf("got kind=%s name=%s", obj.Kind(), obj.Name())
	}

	if _, err := New("no-such-kind", "x"); err == nil {
		t.Fatalf("expected error for unregistered kind")
	}
}

func TestSnapshotFiltersBySavableAndDistant(t *testing.T) {
	obj := NewBase("image", "bg")
	obj.SetAttribute("path", []value.Value{value.String("/tmp/x.png")})

	localAttr := attribute.New("localOnly").SetPropagateToPeers(false)
	localAttr.Call([]value.Value{value.Int(1)})
	obj.RegisterAttribute(localAttr)

	snap := obj.Snapshot(false, false)
	if _, ok := snap["path"]; !ok {
		t.Fatalf("expected path in unfiltered snapshot")
	}
	distant := obj.Snapshot(false, true)
	if _, ok := distant["localOnly"]; ok {
		t.Fatalf("non-propagating attribute leaked into distant snapshot")
	}
}
