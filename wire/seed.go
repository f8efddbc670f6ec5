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

package wire

import (
	"bytes"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/splash-engine/splash/tree"
)

// seedTaskTag maps a tree.Task to its one-byte wire tag. The mapping is
// pinned independently of tree.Task's own iota values so that reordering the
// Go constants can never silently change the wire format.
func seedTaskTag(t tree.Task) (byte, error) {
	switch t {
	case tree.TaskAddBranch:
		return 0, nil
	case tree.TaskAddLeaf:
		return 1, nil
	case tree.TaskRemoveBranch:
		return 2, nil
	case tree.TaskRemoveLeaf:
		return 3, nil
	case tree.TaskRenameBranch:
		return 4, nil
	case tree.TaskRenameLeaf:
		return 5, nil
	case tree.TaskSetLeaf:
		return 6, nil
	default:
		return 0, fmt.Errorf("wire: unknown seed task %v", t)
	}
}

func seedTaskFromTag(b byte) (tree.Task, error) {
	switch b {
	case 0:
		return tree.TaskAddBranch, nil
	case 1:
		return tree.TaskAddLeaf, nil
	case 2:
		return tree.TaskRemoveBranch, nil
	case 3:
		return tree.TaskRemoveLeaf, nil
	case 4:
		return tree.TaskRenameBranch, nil
	case 5:
		return tree.TaskRenameLeaf, nil
	case 6:
		return tree.TaskSetLeaf, nil
	default:
		return 0, fmt.Errorf("wire: unknown seed task tag %d", b)
	}
}

// WriteSeed encodes a tree.Seed as (task_tag: u8, path: string, args: Value,
// timestamp_ms: i64, origin_uuid: 16 bytes).
func WriteSeed(w io.Writer, s tree.Seed) error {
	tag, err := seedTaskTag(s.Task)
	if err != nil {
		return err
	}
	if _, err := w.Write([]byte{tag}); err != nil {
		return err
	}
	if err := WriteBytes(w, []byte(s.Path)); err != nil {
		return err
	}
	if err := WriteValue(w, s.Args); err != nil {
		return err
	}
	var tsBuf [8]byte
	order.PutUint64(tsBuf[:], uint64(s.Timestamp))
	if _, err := w.Write(tsBuf[:]); err != nil {
		return err
	}
	originBytes, err := s.Origin.MarshalBinary()
	if err != nil {
		return err
	}
	_, err = w.Write(originBytes)
	return err
}

// ReadSeed decodes a tree.Seed previously written by WriteSeed.
func ReadSeed(r io.Reader) (tree.Seed, error) {
	var tagBuf [1]byte
	if _, err := io.ReadFull(r, tagBuf[:]); err != nil {
		return tree.Seed{}, err
	}
	task, err := seedTaskFromTag(tagBuf[0])
	if err != nil {
		return tree.Seed{}, err
	}

	pathBytes, err := ReadBytes(r)
	if err != nil {
		return tree.Seed{}, err
	}

	args, err := ReadValue(r)
	if err != nil {
		return tree.Seed{}, err
	}

	var tsBuf [8]byte
	if _, err := io.ReadFull(r, tsBuf[:]); err != nil {
		return tree.Seed{}, err
	}
	timestamp := int64(order.Uint64(tsBuf[:]))

	var originBuf [16]byte
	if _, err := io.ReadFull(r, originBuf[:]); err != nil {
		return tree.Seed{}, err
	}
	origin, err := uuid.FromBytes(originBuf[:])
	if err != nil {
		return tree.Seed{}, err
	}

	return tree.Seed{
		Task:      task,
		Path:      string(pathBytes),
		Args:      args,
		Timestamp: timestamp,
		Origin:    origin,
	}, nil
}

// MarshalSeed is a convenience wrapper returning the encoded bytes directly.
func MarshalSeed(s tree.Seed) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteSeed(&buf, s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalSeed is a convenience wrapper decoding from a byte slice.
func UnmarshalSeed(b []byte) (tree.Seed, error) {
	return ReadSeed(bytes.NewReader(b))
}
