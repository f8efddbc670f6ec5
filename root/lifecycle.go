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

// Object lifecycle on a Scene replica (§4.6 steps 1-4): a World announces a
// new Object as a Tree branch carrying its kind, then replicates each
// distant attribute as a leaf under it; a Scene watches the Tree for those
// exact shapes and drives the Factory and set_attribute in response. Step 5
// (BufferObject payloads) goes over the Link directly, see
// Root.RegisterBufferObject; step 6 (link_to/unlink_from) is handled by
// Object.SetAttribute itself.
package root

import (
	"github.com/splash-engine/splash/object"
	"github.com/splash-engine/splash/tree"
	"github.com/splash-engine/splash/value"
)

// objectsRoot is the Tree branch under which every World-announced Object's
// type and attributes are mirrored.
const objectsRoot = "/objects"

func objectPath(name string) string          { return objectsRoot + "/" + name }
func objectTypePath(name string) string      { return objectPath(name) + "/type" }
func objectAttrBranch(name string) string    { return objectPath(name) + "/attr" }
func objectAttrPath(name, attr string) string { return objectAttrBranch(name) + "/" + attr }

// argsToValue collapses a Set call's argument list into the single Value a
// Tree leaf holds: the lone argument itself for the common single-arg case,
// or a Value of kind List for a multi-argument Attribute.
func argsToValue(args []value.Value) value.Value {
	if len(args) == 1 {
		return args[0]
	}
	return value.List(append([]value.Value(nil), args...))
}

// valueToArgs is argsToValue's inverse, used when a Scene replays a leaf's
// value back through set_attribute.
func valueToArgs(v value.Value) []value.Value {
	if v.Kind() == value.KindList {
		lst, err := v.List()
		if err == nil {
			return lst
		}
	}
	return []value.Value{v}
}

// PublishObject mirrors obj's identity and current distant-propagated
// attributes into the Tree (§4.6 object lifecycle steps 1 and 3), so any
// Scene already connected -- or one that connects later and replays the
// full seed history -- can materialize it via the Factory. Called once,
// right after a newly constructed Object is registered.
func (w *World) PublishObject(obj *object.Object) {
	name := obj.Name()
	w.Tree.CreateBranch(objectPath(name))
	w.Tree.CreateLeaf(objectTypePath(name), value.String(obj.Kind()))
	for attrName, vals := range obj.Snapshot(false, true) {
		w.Tree.CreateLeaf(objectAttrPath(name, attrName), argsToValue(vals))
	}
}

// registerInstanceAndPublish is LoadConfig's register callback: it registers
// inst with this World's Root via RegisterInstance (preserving a
// BufferObject kind's concrete type the same way a freshly constructed one
// would be), then publishes it to the Tree so config-loaded Objects are
// replicated the same way as ones created after startup.
func (w *World) registerInstanceAndPublish(inst object.Instance) bool {
	if !w.RegisterInstance(inst) {
		return false
	}
	w.PublishObject(inst.Base())
	return true
}

// Set dispatches to the embedded Root exactly like Root.Set, and on a
// successful dispatch additionally mirrors the change into the Tree as a
// SetLeaf Seed and pushes it directly to every connected Scene as a
// Message -- realizing §2 data-flow 1 ("attribute sets on World Objects,
// mirrored as Tree seeds, broadcast to all Scenes") and lifecycle step 3.
func (w *World) Set(target, attribute string, args []value.Value, async bool) bool {
	if target == broadcastTarget {
		ok := false
		for _, name := range w.ObjectNames() {
			if w.setOneAndMirror(name, attribute, args) {
				ok = true
			}
		}
		return ok
	}
	return w.setOneAndMirror(target, attribute, args)
}

func (w *World) setOneAndMirror(target, attribute string, args []value.Value) bool {
	if !w.Root.setOne(target, attribute, args) {
		return false
	}
	path := objectAttrPath(target, attribute)
	v := argsToValue(args)
	if !w.Tree.SetLeaf(path, v, 0) {
		w.Tree.CreateLeaf(path, v)
	}
	w.BroadcastAttribute(target, attribute, args)
	w.BroadcastSeeds()
	return true
}

// WatchObjectLifecycle registers the Tree callbacks that drive the Scene
// half of the object lifecycle (§4.6 steps 1-4): watching /objects for a
// newly announced branch, then that branch's type leaf to materialize the
// Object via the Factory, then its attr branch to replay each distant
// attribute as it arrives. Call this once, right after constructing a
// Scene and before it connects to a World.
func (s *Scene) WatchObjectLifecycle() {
	s.Tree.RegisterBranchCallback(objectsRoot, func(task tree.Task, _, name string) {
		if task != tree.TaskAddBranch {
			return
		}
		s.watchNewObject(name)
	})
}

func (s *Scene) watchNewObject(name string) {
	s.Tree.RegisterBranchCallback(objectPath(name), func(task tree.Task, _, leafName string) {
		if task == tree.TaskAddLeaf && leafName == "type" {
			s.materializeObject(name)
		}
	})
}

func (s *Scene) materializeObject(name string) {
	v, _, ok := s.Tree.GetLeaf(objectTypePath(name))
	if !ok {
		return
	}
	kind := v.String()
	inst, err := object.New(kind, name)
	if err != nil {
		s.logf("scene: materialize %q: %v", name, err)
		return
	}
	if !s.RegisterInstance(inst) {
		s.logf("scene: materialize %q: already registered", name)
		return
	}
	s.logf("scene: materialized object %q as kind %q", name, kind)
	s.watchAttributes(name)
}

func (s *Scene) watchAttributes(name string) {
	s.Tree.RegisterBranchCallback(objectAttrBranch(name), func(task tree.Task, _, attrName string) {
		if task != tree.TaskAddLeaf {
			return
		}
		s.watchAttributeLeaf(name, attrName)
	})
}

// watchAttributeLeaf applies the attribute's just-created value immediately
// (the leaf's creation already carries the first value, which RegisterLeafCallback
// alone would miss -- that callback only fires on a later SetLeaf) and
// registers a LeafCallback so subsequent SetLeaf Seeds keep applying it.
func (s *Scene) watchAttributeLeaf(objName, attrName string) {
	path := objectAttrPath(objName, attrName)
	if v, _, ok := s.Tree.GetLeaf(path); ok {
		s.Set(objName, attrName, valueToArgs(v), false)
	}
	s.Tree.RegisterLeafCallback(path, func(v value.Value, _ int64) {
		s.Set(objName, attrName, valueToArgs(v), false)
	})
}
