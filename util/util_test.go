// Mgmt
// Copyright (C) 2013-2019+ James Shubin and the project contributors
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

// +build !root

package util

import (
	"reflect"
	"testing"
)

func TestFirstToUpper(t *testing.T) {
	values := []struct {
		in  string
		out string
	}{
		{"", ""},
		{"hello", "Hello"},
		{"Hello", "Hello"},
		{"h", "H"},
	}
	for _, v := range values {
		if out := FirstToUpper(v.in); out != v.out {
			t.Errorf("FirstToUpper(%q) = %q, want %q", v.in, out, v.out)
		}
	}
}

func TestStrInList(t *testing.T) {
	if !StrInList("b", []string{"a", "b", "c"}) {
		t.Errorf("expected to find b")
	}
	if StrInList("z", []string{"a", "b", "c"}) {
		t.Errorf("did not expect to find z")
	}
}

func TestStrRemoveDuplicatesInList(t *testing.T) {
	out := StrRemoveDuplicatesInList([]string{"a", "b", "a", "c", "b"})
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(out, want) {
		t.Errorf("got %v, want %v", out, want)
	}
}

func TestStrFilterElementsInList(t *testing.T) {
	out := StrFilterElementsInList([]string{"b"}, []string{"a", "b", "c"})
	want := []string{"a", "c"}
	if !reflect.DeepEqual(out, want) {
		t.Errorf("got %v, want %v", out, want)
	}
}

func TestStrListIntersection(t *testing.T) {
	out := StrListIntersection([]string{"a", "b", "c"}, []string{"b", "c", "d"})
	want := []string{"b", "c"}
	if !reflect.DeepEqual(out, want) {
		t.Errorf("got %v, want %v", out, want)
	}
}

func TestReverseStringList(t *testing.T) {
	out := ReverseStringList([]string{"a", "b", "c"})
	want := []string{"c", "b", "a"}
	if !reflect.DeepEqual(out, want) {
		t.Errorf("got %v, want %v", out, want)
	}
}

func TestBoolMapTrue(t *testing.T) {
	if !BoolMapTrue([]bool{true, true}) {
		t.Errorf("expected true")
	}
	if BoolMapTrue([]bool{true, false}) {
		t.Errorf("expected false")
	}
}

func TestDirnameBasename(t *testing.T) {
	if d := Dirname("/a/b/c"); d != "/a/b/" {
		t.Errorf("Dirname(/a/b/c) = %q", d)
	}
	if b := Basename("/a/b/c"); b != "c" {
		t.Errorf("Basename(/a/b/c) = %q", b)
	}
	if b := Basename("/a/b/"); b != "b/" {
		t.Errorf("Basename(/a/b/) = %q", b)
	}
}

func TestPathSplit(t *testing.T) {
	out := PathSplit("/a/b/c")
	want := []string{"", "a", "b", "c"}
	if !reflect.DeepEqual(out, want) {
		t.Errorf("got %v, want %v", out, want)
	}
}

func TestHasPathPrefix(t *testing.T) {
	if !HasPathPrefix("/a/b/c", "/a/b") {
		t.Errorf("expected /a/b to be a prefix of /a/b/c")
	}
	if HasPathPrefix("/a/b", "/a/b/c") {
		t.Errorf("did not expect /a/b/c to be a prefix of /a/b")
	}
}

func TestPathPrefixDelta(t *testing.T) {
	if d := PathPrefixDelta("/a/b/c", "/a"); d != 2 {
		t.Errorf("got delta %d, want 2", d)
	}
	if d := PathPrefixDelta("/a", "/x"); d != -1 {
		t.Errorf("got delta %d, want -1 for a non-prefix", d)
	}
}

func TestStrInPathPrefixList(t *testing.T) {
	if !StrInPathPrefixList("/a", []string{"/a/b", "/c"}) {
		t.Errorf("expected /a to be a prefix in the list")
	}
	if StrInPathPrefixList("/z", []string{"/a/b", "/c"}) {
		t.Errorf("did not expect /z to be a prefix in the list")
	}
}

func TestDirifyFileList(t *testing.T) {
	out := DirifyFileList([]string{"/a/b/c", "/a/b/", "/a/d"}, false)
	want := []string{"/a/b/c", "/a/b/", "/a/d"}
	if !reflect.DeepEqual(out, want) {
		t.Errorf("got %v, want %v", out, want)
	}
}

func TestFlattenListWithSplit(t *testing.T) {
	out := FlattenListWithSplit([]string{"a,b;c"}, []string{",", ";"})
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(out, want) {
		t.Errorf("got %v, want %v", out, want)
	}
}
