// This file is part of Gopher2600.
//
// Gopher2600 is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Gopher2600 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Gopher2600.  If not, see <https://www.gnu.org/licenses/>.

// Package paths joins, cleans, splits and shortens paths recorded by debug
// information. These paths may have been produced on a different platform
// to the one doing the symbolication, so none of the functions here use
// path/filepath: that package's behaviour is tied to the host OS, whereas a
// comp_dir embedded in a DWARF unit or a PDB source path needs its
// separator style detected from the string itself.
package paths

import (
	"strings"
)

func isAbsoluteWindowsPath(s string) bool {
	if len(s) > 2 && (s[:2] == `\\` || s[:2] == "//") {
		return true
	}

	if len(s) == 0 {
		return false
	}

	fc := s[0]
	isLetter := (fc >= 'A' && fc <= 'Z') || (fc >= 'a' && fc <= 'z')
	if !isLetter {
		return false
	}

	if len(s) < 2 || s[1] != ':' {
		return false
	}

	if len(s) == 2 {
		return true
	}

	tc := s[2]
	return tc == '\\' || tc == '/'
}

func isSemiAbsoluteWindowsPath(s string) bool {
	return strings.HasPrefix(s, "/") || strings.HasPrefix(s, `\`)
}

func isAbsoluteUnixPath(s string) bool {
	return strings.HasPrefix(s, "/")
}

func isWindowsPath(p string) bool {
	return strings.Contains(p, `\`) || isAbsoluteWindowsPath(p)
}

// JoinPath joins base and other, detecting along the way whether the
// result should use Windows or Unix directory separators.
//
// A handful of special cases are handled to match what toolchains actually
// emit in debug information: pseudo-paths like "<stdin>" are returned
// unchanged, and an absolute other replaces base entirely.
func JoinPath(base, other string) string {
	if strings.HasPrefix(other, "<") && strings.HasSuffix(other, ">") {
		return other
	}

	if base == "" || isAbsoluteWindowsPath(other) || isAbsoluteUnixPath(other) {
		return other
	}

	if other == "" {
		return base
	}

	if isSemiAbsoluteWindowsPath(other) {
		if isAbsoluteWindowsPath(base) {
			return base[:2] + other
		}
		return other
	}

	winStyle := isWindowsPath(base) || isWindowsPath(other)

	if winStyle {
		return strings.TrimRight(base, `\/`) + `\` + strings.TrimLeft(other, `\/`)
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(other, "/")
}

func popPath(path *strings.Builder, s string) (string, bool) {
	idx := strings.LastIndexAny(s, `/\`)
	if idx >= 0 {
		return s[:idx], true
	} else if s != "" {
		return "", true
	}
	return s, false
}

// CleanPath removes redundant "." and ".." segments from a path. It does
// not resolve symlinks and is therefore a lossy operation on paths that
// traverse them.
//
// A ".." that would escape the accumulated prefix is kept literally rather
// than discarded, matching the behaviour of toolchains that emit relative
// comp_dirs.
func CleanPath(path string) string {
	isWindows := strings.Contains(path, `\`)
	sep := "/"
	if isWindows {
		sep = `\`
	}

	var rv strings.Builder
	needsSeparator := false
	isPastRoot := false

	segments := strings.FieldsFunc(path, func(r rune) bool {
		return r == '/' || r == '\\'
	})

	for _, segment := range segments {
		if segment == "." {
			continue
		} else if segment == ".." {
			if !isPastRoot {
				cur := rv.String()
				popped, ok := popPath(&rv, cur)
				if ok {
					rv.Reset()
					rv.WriteString(popped)
					if rv.Len() == 0 {
						needsSeparator = false
					}
					continue
				}
				needsSeparator = false
				isPastRoot = true
			}
			if needsSeparator {
				rv.WriteString(sep)
			}
			rv.WriteString("..")
			needsSeparator = true
			continue
		}

		if needsSeparator {
			rv.WriteString(sep)
		} else {
			needsSeparator = true
		}
		rv.WriteString(segment)
	}

	if strings.HasPrefix(path, "/") || strings.HasPrefix(path, `\`) {
		return sep + rv.String()
	}
	return rv.String()
}

// SplitPath splits off the last component of a path to a file. The path
// should not name a directory or the root; behaviour in that case is
// undefined.
//
// Returns the directory (or "" if there wasn't one) and the final
// component. For POSIX paths a leading "/" is returned as the directory
// "/".
func SplitPath(path string) (dir string, name string) {
	trimmed := strings.TrimRight(path, `/\`)

	splitChar := byte('/')
	if strings.ContainsRune(trimmed, '\\') {
		splitChar = '\\'
	}

	idx := strings.LastIndexByte(trimmed, splitChar)
	switch {
	case idx < 0:
		return "", trimmed
	case idx == 0:
		return trimmed[:1], trimmed[1:]
	default:
		return trimmed[:idx], trimmed[idx+1:]
	}
}

// ShortenPath trims path to at most length characters, preferring to keep
// the first two segments and as many trailing segments as fit, replacing
// the elided middle with "...".
func ShortenPath(path string, length int) string {
	if len(path) <= length {
		return path
	}
	if length <= 10 {
		if length > 3 {
			return path[:length-3] + "..."
		}
		return path[:length]
	}

	sep := "/"
	var rv strings.Builder
	lastIdx := 0
	segCount := 0

	i := 0
	for i < len(path) {
		idx := strings.IndexAny(path[i:], `/\`)
		if idx < 0 {
			break
		}
		idx += i
		s := string(path[idx])
		slice := path[lastIdx : idx+1]
		rv.WriteString(slice)
		done := lastIdx > 0
		lastIdx = idx + 1
		sep = s
		i = idx + 1
		if done {
			break
		}
		segCount++
	}

	maxLen := length - 4

	// collect trailing segments from the right until we run out of room
	type span struct{ from, to int }
	var rest []span
	nextIdx := len(path)
	searchEnd := len(path)
	finalLength := int64(rv.Len())

	for {
		idx := strings.LastIndexAny(path[:searchEnd], `/\`)
		if idx < 0 || idx <= lastIdx-1 {
			break
		}
		sliceLen := int64(nextIdx - (idx + 1))
		if finalLength+sliceLen > int64(maxLen) {
			break
		}
		rest = append(rest, span{idx + 1, nextIdx})
		nextIdx = idx + 1
		searchEnd = idx
		finalLength += sliceLen
	}

	if rv.Len() > maxLen || len(rest) == 0 {
		basename := path
		if idx := strings.LastIndexAny(path, `/\`); idx >= 0 {
			basename = path[idx+1:]
		}
		if len(basename) > maxLen {
			return "..." + basename[len(basename)-maxLen+1:]
		}
		return "..." + sep + basename
	}

	var out strings.Builder
	out.WriteString(rv.String())
	out.WriteString("...")
	out.WriteString(sep)
	for i := len(rest) - 1; i >= 0; i-- {
		out.WriteString(path[rest[i].from:rest[i].to])
	}

	return out.String()
}
