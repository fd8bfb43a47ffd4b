// Copyright 2018 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package plugin defines the data types shared by the loader SPI, the scan
// engine, and the host registry: PluginInfo and its dotted-numeric Version.
package plugin

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a dotted-numeric version string ("1.2.3") with a total order:
// components compare left to right, a missing trailing component is treated
// as zero, and a nil *Version compares less than any non-nil Version (see
// Compare).
type Version struct {
	raw   string
	parts []int64
}

// ParseVersion parses a dotted-numeric version string such as "1.0" or
// "2.10.1". An empty string is rejected; callers that want "no version" use
// a nil *Version rather than ParseVersion("").
func ParseVersion(s string) (*Version, error) {
	if s == "" {
		return nil, fmt.Errorf("plugin: empty version string")
	}
	fields := strings.Split(s, ".")
	parts := make([]int64, len(fields))
	for i, f := range fields {
		n, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("plugin: invalid version %q: %w", s, err)
		}
		parts[i] = n
	}
	return &Version{raw: s, parts: parts}, nil
}

// String returns the original dotted-numeric representation.
func (v *Version) String() string {
	if v == nil {
		return ""
	}
	return v.raw
}

// Compare returns -1, 0, or 1 according to whether a sorts before, equal to,
// or after b. A nil Version sorts before any non-nil Version; two nil
// Versions are equal. Equal raw strings always compare equal.
func Compare(a, b *Version) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return -1
	}
	if b == nil {
		return 1
	}
	if a.raw == b.raw {
		return 0
	}
	n := len(a.parts)
	if len(b.parts) > n {
		n = len(b.parts)
	}
	for i := 0; i < n; i++ {
		var x, y int64
		if i < len(a.parts) {
			x = a.parts[i]
		}
		if i < len(b.parts) {
			y = b.parts[i]
		}
		if x != y {
			if x < y {
				return -1
			}
			return 1
		}
	}
	return 0
}

// GreaterThan reports whether a is strictly greater than b under Compare,
// i.e. the relation Phase B and Phase C of the scan engine rely on.
func GreaterThan(a, b *Version) bool {
	return Compare(a, b) > 0
}
