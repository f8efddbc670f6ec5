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
	"fmt"
	"strings"
)

// splitPath parses a POSIX-like path into its ordered list of components. It
// enforces the rules this package's paths must obey: the path must start
// with "/", a trailing "/" is stripped before splitting, and empty
// components (from a run of consecutive slashes) are rejected outright
// rather than silently collapsed.
func splitPath(p string) ([]string, error) {
	if !strings.HasPrefix(p, "/") {
		return nil, fmt.Errorf("tree: path %q must start with /", p)
	}
	trimmed := strings.TrimSuffix(p, "/")
	if trimmed == "" {
		return []string{}, nil // the root itself
	}
	parts := strings.Split(trimmed[1:], "/")
	for _, c := range parts {
		if c == "" {
			return nil, fmt.Errorf("tree: path %q has an empty component", p)
		}
	}
	return parts, nil
}

// parentAndLeaf splits a path into its parent path's component list and the
// final component, which is useful for every operation that needs to find
// the parent branch before acting on the final name.
func parentAndLeaf(p string) ([]string, string, error) {
	parts, err := splitPath(p)
	if err != nil {
		return nil, "", err
	}
	if len(parts) == 0 {
		return nil, "", fmt.Errorf("tree: path %q names the root, which has no parent", p)
	}
	return parts[:len(parts)-1], parts[len(parts)-1], nil
}
