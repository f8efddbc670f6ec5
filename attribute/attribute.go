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

// Package attribute implements the named, typed, settable slot that every
// Object exposes as its sole means of externally observable mutation.
package attribute

import (
	"sync"

	"github.com/splash-engine/splash/value"
)

// SyncMode controls whether a peer applies this attribute's value right away
// or defers it to the next frame boundary.
type SyncMode uint8

// The two sync modes an Attribute can be flagged with.
const (
	// SyncAsync lets a peer apply the value whenever convenient.
	SyncAsync SyncMode = iota
	// SyncForce requires the peer to apply the value before its next frame.
	SyncForce
)

// Setter is the functor an Attribute dispatches a call to. It returns whether
// the call succeeded.
type Setter func(args []value.Value) bool

// Getter is the functor an Attribute dispatches a value query to.
type Getter func() []value.Value

// Attribute is a named, typed, settable slot on an Object. Setting it is the
// only way external callers mutate Object state; getting it is read-only.
type Attribute struct {
	mutex sync.Mutex

	name        string
	description string
	signature   []value.Kind // expected argument kinds, by position
	setter      Setter
	getter      Getter
	stored      []value.Value // used when no setter/getter is supplied

	savable          bool
	propagateToPeers bool
	syncMode         SyncMode
	locked           bool

	// Logf is used to report type-mismatch and locked-attribute warnings.
	// It is optional; nil means silence.
	Logf func(format string, v ...interface{})
}

// New builds a default-backed Attribute: one with no setter or getter, which
// simply stores whatever was last successfully set. Its signature is derived
// from the first successful Call.
func New(name string) *Attribute {
	return &Attribute{
		name:             name,
		savable:          true,
		propagateToPeers: true,
	}
}

// NewFunctor builds an Attribute backed by explicit setter/getter closures and
// an explicit type signature, matching the struct-of-closures pattern this
// codebase uses in place of virtual dispatch.
func NewFunctor(name string, signature []value.Kind, setter Setter, getter Getter) *Attribute {
	return &Attribute{
		name:             name,
		signature:        signature,
		setter:           setter,
		getter:           getter,
		savable:          true,
		propagateToPeers: true,
	}
}

// Name returns the attribute's name.
func (a *Attribute) Name() string { return a.name }

// SetDescription sets a human readable description, used for introspection.
func (a *Attribute) SetDescription(s string) *Attribute { a.description = s; return a }

// Description returns the human readable description, if any.
func (a *Attribute) Description() string { return a.description }

// SetSavable controls whether this attribute is included in a config export.
func (a *Attribute) SetSavable(b bool) *Attribute { a.savable = b; return a }

// Savable reports whether this attribute is included in a config export.
func (a *Attribute) Savable() bool { return a.savable }

// SetPropagateToPeers controls whether a change to this attribute on the
// World is forwarded to Scene replicas.
func (a *Attribute) SetPropagateToPeers(b bool) *Attribute { a.propagateToPeers = b; return a }

// PropagateToPeers reports whether a change to this attribute is forwarded.
func (a *Attribute) PropagateToPeers() bool { return a.propagateToPeers }

// SetSyncMode sets whether peers must force-sync this attribute.
func (a *Attribute) SetSyncMode(m SyncMode) *Attribute { a.syncMode = m; return a }

// SyncMode returns the configured sync mode.
func (a *Attribute) SyncMode() SyncMode { return a.syncMode }

// Lock marks the attribute immutable, optionally setting it to args first.
// It returns false if the args fail validation.
func (a *Attribute) Lock(args []value.Value) bool {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	a.locked = false // allow the Call below to go through
	ok := true
	if len(args) > 0 {
		ok = a.callLocked(args)
	}
	a.locked = true
	return ok
}

// Unlock removes the immutability flag.
func (a *Attribute) Unlock() { a.mutex.Lock(); a.locked = false; a.mutex.Unlock() }

// Locked reports whether the attribute currently rejects Call.
func (a *Attribute) Locked() bool {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return a.locked
}

// Call dispatches args to the setter (or the default store). It returns false
// silently if the attribute is locked, and false with a logged warning on a
// signature mismatch.
func (a *Attribute) Call(args []value.Value) bool {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return a.callLocked(args)
}

// callLocked is Call's body, assumed to run under a.mutex.
func (a *Attribute) callLocked(args []value.Value) bool {
	if a.locked {
		return false // silent: locked attributes reject writes
	}

	if a.setter == nil && a.getter == nil {
		// default-backed: the first successful call derives the signature
		if a.signature == nil {
			sig := make([]value.Kind, len(args))
			for i, v := range args {
				sig[i] = v.Kind()
			}
			a.signature = sig
		} else if !a.matches(args) {
			a.logf("attribute %q: type mismatch on default-backed set", a.name)
			return false
		}
		a.stored = args
		return true
	}

	if a.signature != nil && !a.matches(args) {
		a.logf("attribute %q: type mismatch, expected %d args matching signature", a.name, len(a.signature))
		return false
	}

	if a.setter == nil {
		return false // getter-only attribute: rejects writes
	}
	return a.setter(args)
}

// matches checks that args satisfies the signature: at least len(signature)
// args, and the leading ones match kind by position. Extra trailing args
// beyond the signature length are accepted, per the variadic contract.
func (a *Attribute) matches(args []value.Value) bool {
	if len(args) < len(a.signature) {
		return false
	}
	for i, want := range a.signature {
		if args[i].Kind() != want {
			return false
		}
	}
	return true
}

// Value returns the current value(s) of this attribute.
func (a *Attribute) Value() []value.Value {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	if a.getter != nil {
		return a.getter()
	}
	return a.stored
}

func (a *Attribute) logf(format string, v ...interface{}) {
	if a.Logf != nil {
		a.Logf(format, v...)
	}
}
