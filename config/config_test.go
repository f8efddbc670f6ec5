package config

import (
	"testing"

	"github.com/spf13/afero"

	"github.com/splash-engine/splash/object"
	"github.com/splash-engine/splash/value"
)

func TestSaveLoadApplyRoundTrip(t *testing.T) {
	obj := object.NewBase("projector", "proj1")
	obj.SetAttribute("brightness", []value.Value{value.Float(0.8)})

	doc, err := Build(map[string]*object.Object{"proj1": obj})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	fs := afero.NewMemMapFs()
	if err := Save(fs, "/splash.json", doc); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load(fs, "/splash.json")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	registry := make(map[string]*object.Object)
	ctor := func(kind, name string) (object.Instance, error) {
		return object.NewBase(kind, name), nil
	}
	register := func(inst object.Instance) bool {
		o := inst.Base()
		if _, exists := registry[o.Name()]; exists {
			return false
		}
		registry[o.Name()] = o
		return true
	}
	if err := Apply(loaded, ctor, register); err != nil {
		t.Fatalf("apply: %v", err)
	}

	got, ok := registry["proj1"]
	if !ok {
		t.Fatalf("proj1 should have been reconstructed")
	}
	if got.Kind() != "projector" {
		t.Fatalf("unexpected kind: %v", got.Kind())
	}
	vals, ok := got.GetAttribute("brightness")
	if !ok || len(vals) != 1 || !value.Equal(vals[0], value.Float(0.8)) {
		t.Fatalf("attribute did not survive round trip, got %v", vals)
	}
}

func TestBuildSkipsNonSavableAttributes(t *testing.T) {
	obj := object.NewBase("screen", "s1")
	obj.SetAttribute("visible", []value.Value{value.Bool(true)})
	if a, ok := obj.Attribute("visible"); ok {
		a.SetSavable(false)
	}

	doc, err := Build(map[string]*object.Object{"s1": obj})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if _, exists := doc["s1"].Attributes["visible"]; exists {
		t.Fatalf("non-savable attribute should be excluded from the document")
	}
}
