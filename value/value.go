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

// Package value implements the tagged union used throughout Splash to pass
// attribute arguments, leaf contents, and seed payloads across process
// boundaries.
package value

import (
	"fmt"
	"strconv"

	"github.com/splash-engine/splash/util/errwrap"
)

// Kind identifies which alternative of the Value union is populated.
type Kind uint8

// The full set of alternatives a Value can hold.
const (
	KindEmpty Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindList
	KindBuffer
)

// String gives a human readable name for a Kind, used in error messages.
func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindBuffer:
		return "buffer"
	default:
		return "unknown"
	}
}

// Value is a tagged union over the small set of primitive shapes an Attribute
// or a Tree leaf can hold. The zero Value is the empty alternative. Name is
// optional metadata a caller can attach with Named; it is not part of the
// Value's identity for comparison purposes.
type Value struct {
	kind Kind
	name string

	b   bool
	i   int64
	f   float64
	s   string
	buf []byte
	lst []Value
}

// Empty returns the empty alternative.
func Empty() Value { return Value{kind: KindEmpty} }

// Bool wraps a bool.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int wraps an int64.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float wraps a float64.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// String wraps a string.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Buffer wraps an opaque byte buffer. The bytes are not copied; callers must
// not mutate buf after handing it to Buffer.
func Buffer(buf []byte) Value { return Value{kind: KindBuffer, buf: buf} }

// List wraps a list of Values.
func List(lst []Value) Value { return Value{kind: KindList, lst: lst} }

// Named returns a copy of this Value carrying the given name.
func (v Value) Named(name string) Value {
	v.name = name
	return v
}

// Name returns the optional name attached to this Value.
func (v Value) Name() string { return v.name }

// Kind returns which alternative is populated.
func (v Value) Kind() Kind { return v.kind }

// IsEmpty reports whether this is the empty alternative.
func (v Value) IsEmpty() bool { return v.kind == KindEmpty }

// Bool coerces this Value to a bool, following the cross-type coercion rules:
// numeric values are nonzero-is-true, strings are parsed with strconv, single
// element lists recurse into their element.
func (v Value) Bool() (bool, error) {
	switch v.kind {
	case KindBool:
		return v.b, nil
	case KindInt:
		return v.i != 0, nil
	case KindFloat:
		return v.f != 0, nil
	case KindString:
		b, err := strconv.ParseBool(v.s)
		if err != nil {
			return false, errwrap.Wrapf(err, "can't coerce string to bool")
		}
		return b, nil
	case KindList:
		if len(v.lst) == 1 {
			return v.lst[0].Bool()
		}
	}
	return false, fmt.Errorf("can't coerce %s to bool", v.kind)
}

// Int coerces this Value to an int64.
func (v Value) Int() (int64, error) {
	switch v.kind {
	case KindInt:
		return v.i, nil
	case KindFloat:
		return int64(v.f), nil
	case KindBool:
		if v.b {
			return 1, nil
		}
		return 0, nil
	case KindString:
		i, err := strconv.ParseInt(v.s, 10, 64)
		if err != nil {
			return 0, errwrap.Wrapf(err, "can't coerce string to int")
		}
		return i, nil
	case KindList:
		if len(v.lst) == 1 {
			return v.lst[0].Int()
		}
	}
	return 0, fmt.Errorf("can't coerce %s to int", v.kind)
}

// Float coerces this Value to a float64.
func (v Value) Float() (float64, error) {
	switch v.kind {
	case KindFloat:
		return v.f, nil
	case KindInt:
		return float64(v.i), nil
	case KindBool:
		if v.b {
			return 1, nil
		}
		return 0, nil
	case KindString:
		f, err := strconv.ParseFloat(v.s, 64)
		if err != nil {
			return 0, errwrap.Wrapf(err, "can't coerce string to float")
		}
		return f, nil
	case KindList:
		if len(v.lst) == 1 {
			return v.lst[0].Float()
		}
	}
	return 0, fmt.Errorf("can't coerce %s to float", v.kind)
}

// String coerces this Value to a string. Every alternative can be stringified.
func (v Value) String() string {
	switch v.kind {
	case KindEmpty:
		return ""
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return v.s
	case KindBuffer:
		return fmt.Sprintf("<buffer %d bytes>", len(v.buf))
	case KindList:
		out := "["
		for i, e := range v.lst {
			if i > 0 {
				out += ", "
			}
			out += e.String()
		}
		return out + "]"
	default:
		return ""
	}
}

// Buf returns the raw bytes if this is a buffer alternative.
func (v Value) Buf() ([]byte, error) {
	if v.kind != KindBuffer {
		return nil, fmt.Errorf("can't coerce %s to buffer", v.kind)
	}
	return v.buf, nil
}

// List coerces this Value to a list. A scalar is wrapped as a single element
// list; a list passes through unchanged.
func (v Value) List() ([]Value, error) {
	switch v.kind {
	case KindList:
		return v.lst, nil
	case KindEmpty:
		return nil, nil
	default:
		return []Value{v}, nil
	}
}

// Equal compares two Values for deep equality. Names are not compared.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindEmpty:
		return true
	case KindBool:
		return a.b == b.b
	case KindInt:
		return a.i == b.i
	case KindFloat:
		return a.f == b.f
	case KindString:
		return a.s == b.s
	case KindBuffer:
		if len(a.buf) != len(b.buf) {
			return false
		}
		for i := range a.buf {
			if a.buf[i] != b.buf[i] {
				return false
			}
		}
		return true
	case KindList:
		if len(a.lst) != len(b.lst) {
			return false
		}
		for i := range a.lst {
			if !Equal(a.lst[i], b.lst[i]) {
				return false
			}
		}
		return true
	}
	return false
}
