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
	"github.com/spf13/afero"

	"github.com/splash-engine/splash/config"
	"github.com/splash-engine/splash/link"
	"github.com/splash-engine/splash/object"
	"github.com/splash-engine/splash/value"
)

// World is the controller Root: it owns the master config, constructs
// each Scene's initial object set, and forwards attribute changes to
// every connected Scene via Link. It is authoritative for savable state.
type World struct {
	*Root

	Fs         afero.Fs
	ConfigPath string
}

// NewWorld builds a World around a fresh Root, persisting its config
// through fs at configPath.
func NewWorld(poolSize int, fs afero.Fs, configPath string) *World {
	return &World{Root: New(poolSize), Fs: fs, ConfigPath: configPath}
}

// LoadConfig reads ConfigPath from Fs and replays it through the Factory,
// registering every reconstructed Object with this World's Root.
func (w *World) LoadConfig() error {
	doc, err := config.Load(w.Fs, w.ConfigPath)
	if err != nil {
		return err
	}
	return config.Apply(doc, object.New, w.registerInstanceAndPublish)
}

// SaveConfig snapshots every registered, savable Object and writes it to
// ConfigPath on Fs.
func (w *World) SaveConfig() error {
	w.objMu.Lock()
	snapshot := make(map[string]*object.Object, len(w.objects))
	for name, obj := range w.objects {
		snapshot[name] = obj
	}
	w.objMu.Unlock()

	doc, err := config.Build(snapshot)
	if err != nil {
		return err
	}
	return config.Save(w.Fs, w.ConfigPath, doc)
}

// ForwardTelemetry is invoked (from a Link's OnMessage handler) when a
// connected Scene reports a per-frame timing or answerMessage leaf. It sets
// the corresponding Tree leaf, creating it on first report, so any other
// observer (a CLI, an HTTP poller) can read current Scene health without
// its own direct Link.
func (w *World) ForwardTelemetry(scenePath string, v value.Value) {
	if !w.Tree.SetLeaf(scenePath, v, 0) {
		w.Tree.CreateLeaf(scenePath, v)
	}
}

// BroadcastAttribute ships a single (target, attribute, args) Message to
// every connected Scene Link -- the control-plane half of "forwards
// attribute changes to all Scenes via Link" (§4.6).
func (w *World) BroadcastAttribute(target, attribute string, args []value.Value) {
	msg := link.Message{Target: target, Attribute: attribute, Args: args}
	for peerName, l := range w.Links() {
		if err := l.SendMessage(msg); err != nil {
			w.logf("world: broadcast to %q: %v", peerName, err)
		}
	}
}
