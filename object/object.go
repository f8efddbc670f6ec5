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

// Package object implements the uniform Object/BufferObject model: a
// capability set of small embeddable trait structs (Kinded, Named,
// Attributes, Linkable, optionally Bufferable and RenderPriorityTrait)
// composed by concrete kinds, plus the Factory that constructs them by
// registered name.
package object

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/splash-engine/splash/attribute"
	"github.com/splash-engine/splash/value"
)

// Lookup resolves an object by name. A Root implements this; it is the
// "owning map" half of the owning-map-plus-weak-reference pattern that
// replaces shared pointers between Objects: linked objects are stored here
// as names, not strong references, and are only resolved on demand.
type Lookup interface {
	Lookup(name string) (*Object, bool)
}

// Attributes is the trait giving an Object its map of named Attributes and
// the dirty-tracking bit that records whether any of them changed since the
// last ClearUpdated call.
type Attributes struct {
	mutex      sync.Mutex
	attributes map[string]*attribute.Attribute
	updated    bool

	// Logf, if set, is threaded into every Attribute created through
	// SetAttribute so attribute-level warnings carry the same handle as
	// the rest of the process.
	Logf func(format string, v ...interface{})
}

func (a *Attributes) init() {
	if a.attributes == nil {
		a.attributes = make(map[string]*attribute.Attribute)
	}
}

// SetAttribute creates the named Attribute on first use (a default-backed
// one) and dispatches args to it. It returns (dispatchOK, created) so a
// caller (normally the Root) can tell whether a brand new Attribute was
// just auto-vivified and needs its definition propagated to peers.
func (a *Attributes) SetAttribute(name string, args []value.Value) (bool, bool) {
	a.mutex.Lock()
	a.init()
	attr, created := a.attributes[name]
	if !created {
		attr = attribute.New(name)
		attr.Logf = a.Logf
		a.attributes[name] = attr
	}
	a.mutex.Unlock()

	ok := attr.Call(args)
	if ok {
		a.mutex.Lock()
		a.updated = true
		a.mutex.Unlock()
	}
	return ok, !created
}

// RegisterAttribute installs an explicitly-built Attribute (typically a
// NewFunctor one with a real setter/getter) under its own name. It does not
// mark the object dirty; registration is not itself a mutation.
func (a *Attributes) RegisterAttribute(attr *attribute.Attribute) {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	a.init()
	if attr.Logf == nil {
		attr.Logf = a.Logf
	}
	a.attributes[attr.Name()] = attr
}

// GetAttribute retrieves an Attribute's current value(s). Non-savable
// attributes are returned like any other; only Snapshot filters on
// savability.
func (a *Attributes) GetAttribute(name string) ([]value.Value, bool) {
	a.mutex.Lock()
	attr, ok := a.attributes[name]
	a.mutex.Unlock()
	if !ok {
		return nil, false
	}
	return attr.Value(), true
}

// Attribute returns the underlying Attribute handle, for callers (the Root,
// the Tree bridge) that need metadata like Savable/PropagateToPeers.
func (a *Attributes) Attribute(name string) (*attribute.Attribute, bool) {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	attr, ok := a.attributes[name]
	return attr, ok
}

// AttributeNames returns a stable-order snapshot of every attribute name.
func (a *Attributes) AttributeNames() []string {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	names := make([]string, 0, len(a.attributes))
	for name := range a.attributes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot returns name -> value(s) for every attribute, optionally
// restricted to the savable ones (for config export) or the
// propagate-to-peers ones (for replication to Scenes).
func (a *Attributes) Snapshot(savableOnly, distantOnly bool) map[string][]value.Value {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	out := make(map[string][]value.Value)
	for name, attr := range a.attributes {
		if savableOnly && !attr.Savable() {
			continue
		}
		if distantOnly && !attr.PropagateToPeers() {
			continue
		}
		out[name] = attr.Value()
	}
	return out
}

// WasUpdated reports whether any attribute was successfully set since the
// last ClearUpdated.
func (a *Attributes) WasUpdated() bool {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return a.updated
}

// ClearUpdated resets the dirty bit. Called by the host after it has acted
// on a change.
func (a *Attributes) ClearUpdated() {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	a.updated = false
}

// Linkable is the trait giving an Object a set of weak references to other
// Objects (its rendering inputs). References are kept as names resolved
// through a Lookup (the owning Root), never as Go pointers, so an Object's
// lifetime is governed solely by the Root's registry.
type Linkable struct {
	mutex  sync.Mutex
	lookup Lookup
	linked []string
}

// SetLookup installs the Root (or test double) used to resolve linked names.
// Called once, when the Object is registered.
func (l *Linkable) SetLookup(lookup Lookup) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.lookup = lookup
}

// LinkTo adds a weak reference to another Object by name. Idempotent.
func (l *Linkable) LinkTo(name string) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	for _, n := range l.linked {
		if n == name {
			return // already linked
		}
	}
	l.linked = append(l.linked, name)
}

// UnlinkFrom removes a weak reference by name. Idempotent.
func (l *Linkable) UnlinkFrom(name string) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	out := l.linked[:0]
	for _, n := range l.linked {
		if n != name {
			out = append(out, n)
		}
	}
	l.linked = out
}

// LinkedObjects resolves the current set of links into live Objects,
// silently eliding any name whose Object has since been removed from the
// Root (an expired weak reference).
func (l *Linkable) LinkedObjects() []*Object {
	l.mutex.Lock()
	names := append([]string(nil), l.linked...)
	lookup := l.lookup
	l.mutex.Unlock()

	if lookup == nil {
		return nil
	}
	out := make([]*Object, 0, len(names))
	for _, name := range names {
		if obj, ok := lookup.Lookup(name); ok {
			out = append(out, obj)
		}
	}
	return out
}

// Object is the base capability set every live Splash entity embeds: an
// identity (Kinded + Named + a process-unique id), a map of Attributes, and
// a set of weak links to other Objects. Concrete kinds embed *Object (or
// compose the traits directly) and add their own domain-specific behaviour
// via RegisterAttribute-installed functors.
type Object struct {
	Kinded
	Named
	Attributes
	Linkable

	id string
}

// NewBase constructs the base Object part of a concrete kind. A kind's own
// constructor (registered with the Factory) calls this before embedding it
// and adding its domain-specific Attributes.
func NewBase(kind, name string) *Object {
	obj := &Object{id: uuid.NewString()}
	obj.SetKind(kind)
	obj.SetName(name)
	return obj
}

// SetAttribute shadows Attributes.SetAttribute to special-case the two
// names that resolve against Linkable instead of the Attribute registry:
// "link_to" and "unlink_from", each taking a single peer-name string
// argument. This is the Scene object lifecycle's step 6: Link/Unlink
// messages arrive as an ordinary set_attribute call and are resolved
// through the Object's own weak-reference set.
func (obj *Object) SetAttribute(name string, args []value.Value) (bool, bool) {
	switch name {
	case "link_to":
		if len(args) != 1 {
			return false, false
		}
		obj.LinkTo(args[0].String())
		return true, false
	case "unlink_from":
		if len(args) != 1 {
			return false, false
		}
		obj.UnlinkFrom(args[0].String())
		return true, false
	default:
		return obj.Attributes.SetAttribute(name, args)
	}
}

// ID returns this object's process-unique identifier, distinct from its
// (peer-visible) Name.
func (obj *Object) ID() string { return obj.id }
