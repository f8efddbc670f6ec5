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

// Kinded tracks the local type tag and the type a remote peer should
// instantiate to mirror this object, which may differ from the local type.
type Kinded struct {
	xkind       string
	xremoteKind string
}

// Kind returns this object's local type tag.
func (obj *Kinded) Kind() string { return obj.xkind }

// SetKind sets this object's local type tag. Intended for use by the Factory
// at construction time only.
func (obj *Kinded) SetKind(kind string) { obj.xkind = kind }

// RemoteKind returns the type a peer should instantiate for this object. If
// unset, it defaults to Kind().
func (obj *Kinded) RemoteKind() string {
	if obj.xremoteKind == "" {
		return obj.xkind
	}
	return obj.xremoteKind
}

// SetRemoteKind overrides the type a peer should instantiate.
func (obj *Kinded) SetRemoteKind(kind string) { obj.xremoteKind = kind }

// Named tracks an object's unique name.
type Named struct {
	xname string
}

// Name returns this object's name.
func (obj *Named) Name() string { return obj.xname }

// SetName sets this object's name. Intended for use by the Factory at
// construction time only.
func (obj *Named) SetName(name string) { obj.xname = name }

// RenderPriority is the draw-order enum a Scene sorts render-capable Objects
// by. Lower values draw first.
type RenderPriority int

// The fixed rendering priority buckets, in draw order.
const (
	PriorityPreCamera RenderPriority = iota
	PriorityCamera
	PriorityFilter
	PriorityPostCamera
	PriorityWindow
	PriorityPostWindow
)

// RenderPriorityTrait is embedded by kinds that participate in the draw
// order. Kinds that don't draw simply don't embed it.
type RenderPriorityTrait struct {
	priority RenderPriority
}

// RenderPriority returns this object's draw-order bucket.
func (obj *RenderPriorityTrait) RenderPriority() RenderPriority { return obj.priority }

// SetRenderPriority sets this object's draw-order bucket.
func (obj *RenderPriorityTrait) SetRenderPriority(p RenderPriority) { obj.priority = p }
