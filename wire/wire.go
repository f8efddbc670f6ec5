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

// Package wire implements the universal little-endian serializer: the
// bespoke TLV wire format used for Values, Seeds, and messages carried over
// a Link. It is hand-rolled on top of encoding/binary rather than a generic
// codec (gob, protobuf) because the format is specified byte-for-byte and
// must interoperate with a fixed little-endian layout, not with whatever a
// generic Go object-graph codec would decide to emit.
package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/splash-engine/splash/value"
)

// tag identifies a Value's alternative on the wire. These match value.Kind
// one-for-one but are pinned here explicitly so the wire format never shifts
// just because a Kind constant is renumbered.
const (
	tagEmpty  byte = 0
	tagBool   byte = 1
	tagInt    byte = 2
	tagFloat  byte = 3
	tagString byte = 4
	tagList   byte = 5
	tagBuffer byte = 6
)

var order = binary.LittleEndian

// WriteUint32 writes a length-prefix-style uint32.
func WriteUint32(w io.Writer, n uint32) error {
	var buf [4]byte
	order.PutUint32(buf[:], n)
	_, err := w.Write(buf[:])
	return err
}

// ReadUint32 reads a length-prefix-style uint32.
func ReadUint32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return order.Uint32(buf[:]), nil
}

// WriteBytes writes a length-prefixed byte string.
func WriteBytes(w io.Writer, b []byte) error {
	if err := WriteUint32(w, uint32(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

// ReadBytes reads a length-prefixed byte string.
func ReadBytes(r io.Reader) ([]byte, error) {
	n, err := ReadUint32(r)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// WriteValue encodes a Value as a one-byte tag followed by its payload.
func WriteValue(w io.Writer, v value.Value) error {
	switch v.Kind() {
	case value.KindEmpty:
		_, err := w.Write([]byte{tagEmpty})
		return err

	case value.KindBool:
		b, _ := v.Bool()
		buf := []byte{tagBool, 0}
		if b {
			buf[1] = 1
		}
		_, err := w.Write(buf)
		return err

	case value.KindInt:
		i, _ := v.Int()
		if _, err := w.Write([]byte{tagInt}); err != nil {
			return err
		}
		var buf [8]byte
		order.PutUint64(buf[:], uint64(i))
		_, err := w.Write(buf[:])
		return err

	case value.KindFloat:
		f, _ := v.Float()
		if _, err := w.Write([]byte{tagFloat}); err != nil {
			return err
		}
		var buf [8]byte
		order.PutUint64(buf[:], math.Float64bits(f))
		_, err := w.Write(buf[:])
		return err

	case value.KindString:
		if _, err := w.Write([]byte{tagString}); err != nil {
			return err
		}
		return WriteBytes(w, []byte(v.String()))

	case value.KindBuffer:
		buf, _ := v.Buf()
		if _, err := w.Write([]byte{tagBuffer}); err != nil {
			return err
		}
		return WriteBytes(w, buf)

	case value.KindList:
		lst, _ := v.List()
		if _, err := w.Write([]byte{tagList}); err != nil {
			return err
		}
		if err := WriteUint32(w, uint32(len(lst))); err != nil {
			return err
		}
		for _, e := range lst {
			if err := WriteValue(w, e); err != nil {
				return err
			}
		}
		return nil

	default:
		return fmt.Errorf("wire: unknown value kind %v", v.Kind())
	}
}

// ReadValue decodes a Value previously written by WriteValue.
func ReadValue(r io.Reader) (value.Value, error) {
	var tagBuf [1]byte
	if _, err := io.ReadFull(r, tagBuf[:]); err != nil {
		return value.Empty(), err
	}

	switch tagBuf[0] {
	case tagEmpty:
		return value.Empty(), nil

	case tagBool:
		var b [1]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return value.Empty(), err
		}
		return value.Bool(b[0] != 0), nil

	case tagInt:
		var buf [8]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return value.Empty(), err
		}
		return value.Int(int64(order.Uint64(buf[:]))), nil

	case tagFloat:
		var buf [8]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return value.Empty(), err
		}
		return value.Float(math.Float64frombits(order.Uint64(buf[:]))), nil

	case tagString:
		b, err := ReadBytes(r)
		if err != nil {
			return value.Empty(), err
		}
		return value.String(string(b)), nil

	case tagBuffer:
		b, err := ReadBytes(r)
		if err != nil {
			return value.Empty(), err
		}
		return value.Buffer(b), nil

	case tagList:
		n, err := ReadUint32(r)
		if err != nil {
			return value.Empty(), err
		}
		lst := make([]value.Value, 0, n)
		for i := uint32(0); i < n; i++ {
			e, err := ReadValue(r)
			if err != nil {
				return value.Empty(), err
			}
			lst = append(lst, e)
		}
		return value.List(lst), nil

	default:
		return value.Empty(), fmt.Errorf("wire: unknown tag byte %d", tagBuf[0])
	}
}

// MarshalValue is a convenience wrapper returning the encoded bytes directly.
func MarshalValue(v value.Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteValue(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalValue is a convenience wrapper decoding from a byte slice.
func UnmarshalValue(b []byte) (value.Value, error) {
	return ReadValue(bytes.NewReader(b))
}

// Size returns the number of bytes WriteValue would produce for v, without
// actually serializing it -- the universal serializer's size-without-
// serializing requirement.
func Size(v value.Value) int {
	switch v.Kind() {
	case value.KindEmpty:
		return 1
	case value.KindBool:
		return 2
	case value.KindInt, value.KindFloat:
		return 9
	case value.KindString:
		return 1 + 4 + len(v.String())
	case value.KindBuffer:
		buf, _ := v.Buf()
		return 1 + 4 + len(buf)
	case value.KindList:
		lst, _ := v.List()
		n := 1 + 4
		for _, e := range lst {
			n += Size(e)
		}
		return n
	default:
		return 0
	}
}
