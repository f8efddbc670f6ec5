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

package root

import (
	"time"

	"github.com/splash-engine/splash/link"
	"github.com/splash-engine/splash/value"
)

// RenderLoop is the external collaborator a Scene drives once per frame;
// the real GL/Vulkan backend is out of scope for this repository, so
// Render is an interface any such backend can satisfy, and NoOpRenderLoop
// below is the only implementation this repo ships.
type RenderLoop interface {
	// Render draws one frame and returns how long it took.
	Render() (time.Duration, error)
}

// NoOpRenderLoop is a RenderLoop that does nothing, used by tests and by
// a headless Scene (e.g. one acting purely as a telemetry relay).
type NoOpRenderLoop struct{}

// Render returns immediately, reporting a zero-duration frame.
func (NoOpRenderLoop) Render() (time.Duration, error) { return 0, nil }

// Scene is the renderer Root: it owns the render loop and forwards
// telemetry (answerMessage replies, per-frame timing leaves) back to its
// World over a Link.
type Scene struct {
	*Root

	Render RenderLoop
	Master bool // false => slave, following a master Scene's frame pacing

	worldPeerName string
}

// NewScene builds a Scene around a fresh Root, using loop as its render
// collaborator (NoOpRenderLoop{} is a reasonable default for tests).
func NewScene(poolSize int, loop RenderLoop, master bool) *Scene {
	return &Scene{Root: New(poolSize), Render: loop, Master: master}
}

// ConnectToWorld registers l as this Scene's Link back to its World, under
// peerName, so ReportTelemetry knows where to send.
func (s *Scene) ConnectToWorld(peerName string, l *link.Link) {
	s.worldPeerName = peerName
	s.AddLink(peerName, l)
}

// RenderOneFrame drives the render loop once, recording the elapsed time
// as a Tree leaf under /scene/frameTimeMs and reporting it to World as
// telemetry.
func (s *Scene) RenderOneFrame() error {
	d, err := s.Render.Render()
	if err != nil {
		s.LatchError("scene: render: " + err.Error())
		return err
	}
	ms := d.Milliseconds()
	path := "/scene/frameTimeMs"
	if !s.Tree.SetLeaf(path, value.Int(ms), 0) {
		s.Tree.CreateLeaf(path, value.Int(ms))
	}
	s.ReportTelemetry("frameTimeMs", value.Int(ms))
	return nil
}

// ReportTelemetry sends attribute/value back to World as an answerMessage,
// the request/response reply shape (§6.1): the first element of args
// names the attribute being reported.
func (s *Scene) ReportTelemetry(attribute string, v value.Value) {
	s.linksMu.Lock()
	l, ok := s.links[s.worldPeerName]
	s.linksMu.Unlock()
	if !ok {
		return // not yet connected to a World; telemetry is best-effort
	}
	msg := link.Message{
		Target:    "world",
		Attribute: "answerMessage",
		Args:      []value.Value{value.String(attribute), v},
	}
	if err := l.SendMessage(msg); err != nil {
		s.logf("scene: report telemetry %q: %v", attribute, err)
	}
}
