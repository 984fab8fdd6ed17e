// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package util

import (
	"path"
	"strings"
)

// NormalizePath converts every \ to /, collapses repeated separators and removes trailing separators.
//
// A path holding only separators normalizes to "/" and the empty string stays empty.
func NormalizePath(p string) string {
	if p == "" {
		return ""
	}

	p = strings.ReplaceAll(p, `\`, "/")

	var b strings.Builder
	b.Grow(len(p))

	prevSep := false
	for i := 0; i < len(p); i++ {
		c := p[i]
		if c == '/' {
			if prevSep {
				continue
			}
			prevSep = true
		} else {
			prevSep = false
		}
		b.WriteByte(c)
	}

	res := strings.TrimRight(b.String(), "/")
	if res == "" {
		return "/"
	}

	return res
}

// EntryDirectory derives the directory holding an archive entry from its full path.
//
// Root level entries return "" and true. False is returned when no directory can be
// derived, that is for empty paths, paths without a file name and root only paths.
func EntryDirectory(fullPath string) (string, bool) {
	if fullPath == "" {
		return "", false
	}

	if strings.HasSuffix(fullPath, "/") || strings.HasSuffix(fullPath, `\`) {
		return "", false
	}

	p := NormalizePath(fullPath)
	if p == "/" {
		return "", false
	}

	dir := strings.TrimPrefix(path.Dir(p), "/")
	if dir == "." || dir == "" {
		return "", true
	}

	return dir, true
}

// IsWithin reports whether target, once cleaned, is root or a path below root
func IsWithin(root string, target string) bool {
	root = path.Clean(NormalizePath(root))
	target = path.Clean(NormalizePath(target))

	if target == root {
		return true
	}

	if root == "." {
		return target != ".." && !strings.HasPrefix(target, "../") && !path.IsAbs(target)
	}

	if root == "/" {
		return strings.HasPrefix(target, "/")
	}

	return strings.HasPrefix(target, root+"/")
}
