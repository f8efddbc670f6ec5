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

package object

import (
	"fmt"
	"sync"
)

// Instance is anything a registered Ctor can produce: at minimum its own
// embedded *Object identity, reachable through Base so the Factory can stamp
// kind/name without needing to know the concrete type. Unlike a plain
// *Object return, an Instance lets the concrete kind survive the trip
// through New, so a caller can type-assert it back to whatever richer
// traits (Bufferable, the root package's bufferKind) that kind composes.
type Instance interface {
	Base() *Object
}

// Base makes the bare *Object itself a valid Instance, so kinds with no
// traits beyond the base Object need no Base method of their own.
func (obj *Object) Base() *Object { return obj }

// Ctor builds a fresh, unnamed instance of a registered kind. The Factory
// calls it, then fills in the Named/Kinded identity via its Base.
type Ctor func() Instance

var (
	registryMutex sync.Mutex
	registry      = make(map[string]Ctor)
)

// Register installs a constructor under a kind name so that it can later be
// instantiated by name alone -- this is how the World turns the string type
// tag that arrives over the wire or out of a JSON config file back into a
// concrete kind, mirroring the teacher's register-by-string-tag factory
// pattern.
func Register(kind string, ctor Ctor) {
	registryMutex.Lock()
	defer registryMutex.Unlock()
	if _, exists := registry[kind]; exists {
		panic(fmt.Sprintf("object: kind %q already registered", kind))
	}
	registry[kind] = ctor
}

// New constructs a registered kind by name, then stamps it with its kind and
// given name. It returns an error (not a panic) because, unlike Register
// (called from init()), this runs on data arriving from the network or from
// a config file, which may legitimately name an unknown kind. The returned
// Instance retains whatever concrete type the kind's Ctor built; a caller
// that needs more than the base Object (e.g. a BufferObject kind) type-
// asserts it back, rather than losing that type the way a bare *Object
// return would.
func New(kind, name string) (Instance, error) {
	registryMutex.Lock()
	ctor, ok := registry[kind]
	registryMutex.Unlock()
	if !ok {
		return nil, fmt.Errorf("object: no kind registered as %q", kind)
	}
	inst := ctor()
	inst.Base().SetKind(kind)
	inst.Base().SetName(name)
	return inst, nil
}

// RegisteredKinds returns the sorted-by-nothing-in-particular list of
// currently registered kind names; used by introspection and tests.
func RegisteredKinds() []string {
	registryMutex.Lock()
	defer registryMutex.Unlock()
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	return out
}
