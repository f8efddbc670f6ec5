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

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/spf13/afero"
)

// Serializable is implemented by concrete kinds that embed Bufferable, and
// do the actual type-specific encode/decode of their payload.
type Serializable interface {
	// SerializePayload produces the opaque bytes shipped over the Link.
	SerializePayload() ([]byte, error)
	// DeserializePayload consumes bytes produced by a peer's
	// SerializePayload and applies them to this object's state. It
	// returns false (not an error) on a recoverable decode failure.
	DeserializePayload([]byte) bool
}

// Bufferable is the trait a large-payload kind (images, meshes) embeds on
// top of the base Object. It enforces the single-flight deserialize
// invariant: at most one deserialize may be in flight per BufferObject at a
// time, via a compare-and-swap "staged" latch rather than a mutex held
// across user code.
type Bufferable struct {
	readMutex sync.RWMutex // guards the live payload during deserialize swap-in

	timestamp int64 // monotonic ms; advances on every mutation
	updated   int32 // atomic bool: buffer_updated flag

	staged   atomic.Bool // true while a staged blob awaits/undergoes deserialize
	stageBuf []byte
	stageMu  sync.Mutex

	// OnUpdated, if set, is called (outside any lock) after a successful
	// deserialize or local mutation, so the Root can signal its
	// buffer-updated condition.
	OnUpdated func()
}

// Timestamp returns the last-mutation timestamp in milliseconds.
func (b *Bufferable) Timestamp() int64 { return atomic.LoadInt64(&b.timestamp) }

// UpdateTimestamp advances the timestamp to the given value if it is newer,
// marks the buffer updated, and fires OnUpdated. It is also used directly by
// local setters that mutate buffer-backed state.
func (b *Bufferable) UpdateTimestamp(ms int64) {
	for {
		cur := atomic.LoadInt64(&b.timestamp)
		if ms <= cur {
			return // stale: never move the clock backwards
		}
		if atomic.CompareAndSwapInt64(&b.timestamp, cur, ms) {
			break
		}
	}
	atomic.StoreInt32(&b.updated, 1)
	if b.OnUpdated != nil {
		b.OnUpdated()
	}
}

// Now is the millisecond clock BufferObjects stamp themselves with on local
// mutation: wall-clock milliseconds since the Unix epoch. It is not a
// monotonic clock; a step of the system clock moves it too.
func Now() int64 { return time.Now().UnixNano() / int64(time.Millisecond) }

// BufferUpdated reports and clears the buffer_updated flag (a single read
// clears it, matching the edge-triggered contract Scenes poll with).
func (b *Bufferable) BufferUpdated() bool {
	return atomic.CompareAndSwapInt32(&b.updated, 1, 0)
}

// StageSerialized atomically swaps in a newly received blob and, if no
// deserialize is already in flight for this object, starts one on the
// supplied worker pool. It returns false if a deserialize was already
// staged (the caller should drop the duplicate rather than queue a second
// one: only the most recent staged blob matters).
func (b *Bufferable) StageSerialized(buf []byte, target Serializable, pool *Pool, sourceTimestamp int64, logf func(string, ...interface{})) bool {
	b.stageMu.Lock()
	b.stageBuf = buf
	b.stageMu.Unlock()

	if !b.staged.CompareAndSwap(false, true) {
		return false // already have one in flight; the new bytes replace stageBuf but don't requeue
	}

	pool.Go(func() {
		defer b.staged.Store(false)

		b.stageMu.Lock()
		data := b.stageBuf
		b.stageMu.Unlock()

		b.readMutex.Lock()
		ok := target.DeserializePayload(data)
		b.readMutex.Unlock()

		if !ok {
			if logf != nil {
				logf("bufferobject: deserialize failed, dropping")
			}
			return
		}
		b.UpdateTimestamp(sourceTimestamp)
	})
	return true
}

// Serialize takes the read lock and delegates to the kind's SerializePayload.
func (b *Bufferable) Serialize(target Serializable) ([]byte, error) {
	b.readMutex.RLock()
	defer b.readMutex.RUnlock()
	return target.SerializePayload()
}

// VarDirPath safely joins name onto varDir, rejecting any attempt by a
// name arriving off the wire or out of a config file to escape the var-dir
// via ".." or an absolute path.
func VarDirPath(varDir, name string) (string, error) {
	return securejoin.SecureJoin(varDir, name+".buf")
}

// CacheToDisk writes target's current serialized payload under varDir, so a
// Scene restarted mid-session can warm-start from its last received buffer
// instead of rendering nothing until the next update arrives from its World.
func (b *Bufferable) CacheToDisk(fs afero.Fs, varDir, name string, target Serializable) error {
	path, err := VarDirPath(varDir, name)
	if err != nil {
		return err
	}
	data, err := b.Serialize(target)
	if err != nil {
		return err
	}
	return afero.WriteFile(fs, path, data, 0o644)
}

// LoadFromDiskCache reads a previously cached payload for name out of
// varDir and applies it directly to target, bypassing the single-flight
// staging latch: this only ever runs once, synchronously, before a Scene
// starts receiving live buffers over its Link.
func (b *Bufferable) LoadFromDiskCache(fs afero.Fs, varDir, name string, target Serializable) error {
	path, err := VarDirPath(varDir, name)
	if err != nil {
		return err
	}
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return err
	}
	if !target.DeserializePayload(data) {
		return fmt.Errorf("bufferobject: cached payload for %q failed to deserialize", name)
	}
	b.UpdateTimestamp(Now())
	return nil
}
