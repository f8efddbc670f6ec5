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

// Package objects holds the concrete Splash kinds: small structs that embed
// the object traits they need and register themselves with the Factory.
package objects

import (
	"sync"

	"github.com/splash-engine/splash/attribute"
	"github.com/splash-engine/splash/object"
	"github.com/splash-engine/splash/value"
)

// KindImage is the Factory registration name for Image.
const KindImage = "image"

func init() {
	object.Register(KindImage, func() object.Instance { return NewImage() })
}

// Image is a BufferObject kind carrying a raw pixel payload plus width and
// height attributes. A World decodes a source file into the payload once;
// Scenes receive it over a Link and stage it with StageSerialized.
type Image struct {
	*object.Object
	object.Bufferable

	mutex  sync.RWMutex
	width  int
	height int
	pixels []byte
}

// NewImage constructs an unregistered Image; the caller still needs to
// RegisterObject it with a Root (and typically Root.WireBuffer it first).
func NewImage() *Image {
	img := &Image{Object: object.NewBase(KindImage, "")}

	img.RegisterAttribute(attribute.NewFunctor("width", []value.Kind{value.KindInt},
		func(args []value.Value) bool {
			n, err := args[0].Int()
			if err != nil {
				return false
			}
			img.mutex.Lock()
			img.width = int(n)
			img.mutex.Unlock()
			return true
		},
		func() []value.Value {
			img.mutex.RLock()
			defer img.mutex.RUnlock()
			return []value.Value{value.Int(int64(img.width))}
		},
	).SetSavable(false))

	img.RegisterAttribute(attribute.NewFunctor("height", []value.Kind{value.KindInt},
		func(args []value.Value) bool {
			n, err := args[0].Int()
			if err != nil {
				return false
			}
			img.mutex.Lock()
			img.height = int(n)
			img.mutex.Unlock()
			return true
		},
		func() []value.Value {
			img.mutex.RLock()
			defer img.mutex.RUnlock()
			return []value.Value{value.Int(int64(img.height))}
		},
	).SetSavable(false))

	return img
}

// SerializePayload implements object.Serializable: width and height as a
// fixed 8-byte little-endian header, followed by the raw pixel bytes.
func (img *Image) SerializePayload() ([]byte, error) {
	img.mutex.RLock()
	defer img.mutex.RUnlock()
	out := make([]byte, 8+len(img.pixels))
	putUint32(out[0:4], uint32(img.width))
	putUint32(out[4:8], uint32(img.height))
	copy(out[8:], img.pixels)
	return out, nil
}

// DeserializePayload implements object.Serializable.
func (img *Image) DeserializePayload(b []byte) bool {
	if len(b) < 8 {
		return false
	}
	img.mutex.Lock()
	defer img.mutex.Unlock()
	img.width = int(getUint32(b[0:4]))
	img.height = int(getUint32(b[4:8]))
	img.pixels = append(img.pixels[:0], b[8:]...)
	return true
}

// Base returns the embedded Object, satisfying root.bufferKind so a Root
// can register this Image by name without the plain Factory's loss of
// concrete type.
func (img *Image) Base() *object.Object { return img.Object }

// Buffer implements the Bufferable half of root.bufferKind, exposing the
// embedded trait so a Root can wire its OnUpdated hook and dispatch inbound
// Buffers addressed to this Image's name.
func (img *Image) Buffer() *object.Bufferable { return &img.Bufferable }

// SetPixels replaces the local pixel buffer and advances the
// BufferObject's timestamp, as a local mutation rather than a staged one
// received from a peer.
func (img *Image) SetPixels(width, height int, pixels []byte) {
	img.mutex.Lock()
	img.width = width
	img.height = height
	img.pixels = append(img.pixels[:0], pixels...)
	img.mutex.Unlock()
	img.UpdateTimestamp(object.Now())
}

func putUint32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func getUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
