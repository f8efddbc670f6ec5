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

package objects

import (
	"github.com/splash-engine/splash/attribute"
	"github.com/splash-engine/splash/object"
	"github.com/splash-engine/splash/value"
)

// KindCamera is the Factory registration name for Camera.
const KindCamera = "camera"

func init() {
	object.Register(KindCamera, func() object.Instance { return NewCamera() })
}

// Camera projects a scene's rendering inputs (its linked Image/Mesh
// objects) toward a Window. Its fov attribute is locked once a calibration
// pass completes, matching the teacher's pattern of locking an Attribute
// after a one-time setup step.
type Camera struct {
	*object.Object
	object.RenderPriorityTrait

	fov float64
}

// NewCamera constructs an unregistered Camera.
func NewCamera() *Camera {
	cam := &Camera{Object: object.NewBase(KindCamera, "")}
	cam.SetRenderPriority(object.PriorityCamera)
	cam.fov = 60.0

	cam.RegisterAttribute(attribute.NewFunctor("fov", []value.Kind{value.KindFloat},
		func(args []value.Value) bool {
			f, err := args[0].Float()
			if err != nil {
				return false
			}
			cam.fov = f
			return true
		},
		func() []value.Value { return []value.Value{value.Float(cam.fov)} },
	))

	return cam
}

// LockFOV freezes the fov attribute at its current value, used once a
// calibration pass has converged.
func (cam *Camera) LockFOV() {
	if attr, ok := cam.Attribute("fov"); ok {
		attr.Lock(nil)
	}
}
