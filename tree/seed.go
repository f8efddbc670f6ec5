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

package tree

import (
	"github.com/google/uuid"

	"github.com/splash-engine/splash/value"
)

// Task identifies which mutating operation a Seed replays.
type Task uint8

// The full set of operations a Seed can carry, matching the wire task tags
// in the universal serializer one-for-one.
const (
	TaskAddBranch Task = iota
	TaskAddLeaf
	TaskRemoveBranch
	TaskRemoveLeaf
	TaskRenameBranch
	TaskRenameLeaf
	TaskSetLeaf
)

// Seed is the replication unit this package's Tree emits for every mutating
// operation (unless explicitly silenced) and consumes to replay another
// Tree's mutations. Origin carries the UUID of the Tree that first produced
// it, so a Tree never replays its own Seeds back onto itself (echo
// suppression).
type Seed struct {
	Task      Task
	Path      string
	Args      value.Value // new name, leaf value, or empty depending on Task
	Timestamp int64       // ms
	Origin    uuid.UUID
}
