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

// KindWindow is the Factory registration name for Window.
const KindWindow = "window"

func init() {
	object.Register(KindWindow, func() object.Instance { return NewWindow() })
}

// Window is the output-surface kind a Scene renders into: it links to the
// Camera(s) feeding it and draws at PriorityWindow, per RenderPriorityTrait:
// after the camera and filter stages, and before any PostWindow object.
type Window struct {
	*object.Object
	object.RenderPriorityTrait

	fullscreen bool
}

// NewWindow constructs an unregistered Window.
func NewWindow() *Window {
	win := &Window{Object: object.NewBase(KindWindow, "")}
	win.SetRenderPriority(object.PriorityWindow)

	win.RegisterAttribute(attribute.NewFunctor("fullscreen", []value.Kind{value.KindBool},
		func(args []value.Value) bool {
			b, err := args[0].Bool()
			if err != nil {
				return false
			}
			win.fullscreen = b
			return true
		},
		func() []value.Value { return []value.Value{value.Bool(win.fullscreen)} },
	))

	return win
}
