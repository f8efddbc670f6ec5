// Splash
// Copyright (C) 2013-2024+ James Shubin and the project contributors
// Written by James Shubin <james@shubin.ca> and the project contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package config persists an Object graph's savable Attributes as JSON,
// via an afero.Fs so callers can exercise it against an in-memory
// filesystem in tests and a real one in production.
package config

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/afero"

	"github.com/splash-engine/splash/object"
	"github.com/splash-engine/splash/value"
)

// ObjectDoc is the on-disk shape of one Object: its kind (mirroring
// remote_type if the kind registered one, else the plain kind) plus a map
// from attribute name to its stored scalar/list-of-scalar value(s).
type ObjectDoc struct {
	Type       string                     `json:"type"`
	Attributes map[string][]jsonValue `json:"attributes"`
}

// Document is the top-level shape of a saved config: object name -> doc.
type Document map[string]ObjectDoc

// jsonValue is value.Value's JSON projection: a tagged union, since JSON
// has no native sum type and a bare `interface{}` would lose the
// distinction between, say, an empty string and an empty buffer.
type jsonValue struct {
	Kind  string  `json:"kind"`
	Bool  bool    `json:"bool,omitempty"`
	Int   int64   `json:"int,omitempty"`
	Float float64 `json:"float,omitempty"`
	Str   string  `json:"string,omitempty"`
	Buf   []byte  `json:"buffer,omitempty"`
}

func toJSONValue(v value.Value) (jsonValue, error) {
	switch v.Kind() {
	case value.KindEmpty:
		return jsonValue{Kind: "empty"}, nil
	case value.KindBool:
		b, _ := v.Bool()
		return jsonValue{Kind: "bool", Bool: b}, nil
	case value.KindInt:
		i, _ := v.Int()
		return jsonValue{Kind: "int", Int: i}, nil
	case value.KindFloat:
		f, _ := v.Float()
		return jsonValue{Kind: "float", Float: f}, nil
	case value.KindString:
		return jsonValue{Kind: "string", Str: v.String()}, nil
	case value.KindBuffer:
		b, _ := v.Buf()
		return jsonValue{Kind: "buffer", Buf: b}, nil
	default:
		return jsonValue{}, fmt.Errorf("config: value kind %v is not savable as a scalar", v.Kind())
	}
}

func fromJSONValue(j jsonValue) (value.Value, error) {
	switch j.Kind {
	case "empty":
		return value.Empty(), nil
	case "bool":
		return value.Bool(j.Bool), nil
	case "int":
		return value.Int(j.Int), nil
	case "float":
		return value.Float(j.Float), nil
	case "string":
		return value.String(j.Str), nil
	case "buffer":
		return value.Buffer(j.Buf), nil
	default:
		return value.Empty(), fmt.Errorf("config: unknown stored value kind %q", j.Kind)
	}
}

// Build walks objects and produces the Document that Save would write,
// restricted to each Object's savable Attributes (§6.4: "for each savable
// Object, a map from attribute name to Values").
func Build(objects map[string]*object.Object) (Document, error) {
	doc := make(Document, len(objects))
	for name, obj := range objects {
		snap := obj.Snapshot(true, false)
		attrs := make(map[string][]jsonValue, len(snap))
		for attrName, values := range snap {
			jvs := make([]jsonValue, 0, len(values))
			for _, v := range values {
				jv, err := toJSONValue(v)
				if err != nil {
					return nil, fmt.Errorf("config: object %q attribute %q: %w", name, attrName, err)
				}
				jvs = append(jvs, jv)
			}
			attrs[attrName] = jvs
		}
		typ := obj.RemoteKind()
		doc[name] = ObjectDoc{Type: typ, Attributes: attrs}
	}
	return doc, nil
}

// Save marshals doc as indented JSON to path on fs.
func Save(fs afero.Fs, path string, doc Document) error {
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return afero.WriteFile(fs, path, b, 0o644)
}

// Load reads path from fs and decodes it into a Document.
func Load(fs afero.Fs, path string) (Document, error) {
	b, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Apply replays doc as SetAttribute calls: it constructs each Object via
// ctor (typically object.New, the Factory constructor) keyed by the doc's
// recorded type, registers it with register, then sets every saved
// attribute on it. ctor and register both deal in object.Instance rather
// than a bare *object.Object so a BufferObject kind reconstructed from disk
// keeps its concrete type all the way into the registry, exactly as one
// announced over a Link does. Object names are applied in sorted order so
// replay is deterministic across runs.
func Apply(doc Document, ctor func(kind, name string) (object.Instance, error), register func(object.Instance) bool) error {
	names := make([]string, 0, len(doc))
	for name := range doc {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		objDoc := doc[name]
		inst, err := ctor(objDoc.Type, name)
		if err != nil {
			return fmt.Errorf("config: construct %q of type %q: %w", name, objDoc.Type, err)
		}
		if !register(inst) {
			return fmt.Errorf("config: register %q: name already taken", name)
		}
		obj := inst.Base()
		attrNames := make([]string, 0, len(objDoc.Attributes))
		for attrName := range objDoc.Attributes {
			attrNames = append(attrNames, attrName)
		}
		sort.Strings(attrNames)
		for _, attrName := range attrNames {
			jvs := objDoc.Attributes[attrName]
			args := make([]value.Value, 0, len(jvs))
			for _, jv := range jvs {
				v, err := fromJSONValue(jv)
				if err != nil {
					return fmt.Errorf("config: object %q attribute %q: %w", name, attrName, err)
				}
				args = append(args, v)
			}
			if ok, _ := obj.SetAttribute(attrName, args); !ok {
				return fmt.Errorf("config: object %q: replaying attribute %q was rejected", name, attrName)
			}
		}
	}
	return nil
}
