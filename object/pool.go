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
	"sync"

	"github.com/splash-engine/splash/util/semaphore"
)

// Pool is the bounded deserialization worker pool a Root owns and hands to
// every BufferObject it constructs. It caps concurrent deserializes across
// the whole process, not just per-object, using the same counting semaphore
// idiom used elsewhere in this codebase rather than an unbounded goroutine
// per buffer.
type Pool struct {
	sem *semaphore.Semaphore
	wg  sync.WaitGroup
}

// NewPool builds a pool that runs at most size deserializes concurrently.
func NewPool(size int) *Pool {
	return &Pool{sem: semaphore.NewSemaphore(size)}
}

// Go schedules fn to run on the pool and returns immediately: fn gets its
// own goroutine, which waits for a free slot before running fn.
func (p *Pool) Go(fn func()) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if err := p.sem.P(1); err != nil {
			return // pool closed
		}
		defer p.sem.V(1)
		fn()
	}()
}

// Close prevents new work from acquiring a slot and waits for in-flight
// deserializes to finish.
func (p *Pool) Close() {
	p.sem.Close()
	p.wg.Wait()
}
