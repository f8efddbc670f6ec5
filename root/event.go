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

import "github.com/splash-engine/splash/util"

// Kind identifies what a Msg is telling a Root's main loop to do.
type Kind int

const (
	// KindNil is the zero value; never sent deliberately.
	KindNil Kind = iota
	// KindStart asks the main loop to begin running tasks.
	KindStart
	// KindPause asks the main loop to stop running tasks until resumed.
	KindPause
	// KindPoke asks the main loop to re-check for queued work without
	// otherwise changing its running state.
	KindPoke
	// KindExit asks the main loop to shut down.
	KindExit
)

func (k Kind) String() string {
	switch k {
	case KindStart:
		return "start"
	case KindPause:
		return "pause"
	case KindPoke:
		return "poke"
	case KindExit:
		return "exit"
	default:
		return "nil"
	}
}

// Msg is sent down a Root's event channel to steer its main loop. A Msg
// that expects acknowledgement carries a non-nil ack; CanACK reports
// whether ACK is safe to call.
type Msg struct {
	Kind Kind
	ack  *util.EasyAck
}

// NewMsg builds a Msg of the given Kind with an ack ready to use.
func NewMsg(kind Kind) *Msg {
	return &Msg{Kind: kind, ack: util.NewEasyAck()}
}

// CanACK reports whether this Msg has a live ack.
func (m *Msg) CanACK() bool { return m.ack != nil }

// ACK acknowledges the Msg. Safe to call at most once.
func (m *Msg) ACK() {
	if m.ack != nil {
		m.ack.Ack()
	}
}

// Wait blocks until ACK is called.
func (m *Msg) Wait() {
	if m.ack != nil {
		<-m.ack.Wait()
	}
}
