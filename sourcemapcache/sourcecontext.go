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

package sourcemapcache

import "unicode/utf16"

// lineOffset records the byte offset a source line begins at.
type lineOffset uint32

// appendLineOffsets computes one lineOffset per line of source (including a
// final entry for a trailing empty line after a closing newline) and
// appends them to out. There is always at least one entry, even for an
// empty source, matching the convention source map tooling uses when
// indexing a file's lines for random access.
func appendLineOffsets(source string, out []lineOffset) []lineOffset {
	if source == "" {
		return append(out, lineOffset(0))
	}

	start := 0
	for i := 0; i < len(source); i++ {
		if source[i] == '\n' {
			out = append(out, lineOffset(start))
			start = i + 1
		}
	}
	out = append(out, lineOffset(start))

	return out
}

// sourceContext maps byte offsets within a piece of JavaScript source to
// (line, column) positions using JavaScript's own column convention: a
// column is a count of UTF-16 code units since the start of the line, not
// bytes or runes, since that is what every source map consumer expects.
type sourceContext struct {
	source      string
	lineOffsets []lineOffset
}

func newSourceContext(source string) *sourceContext {
	return &sourceContext{
		source:      source,
		lineOffsets: appendLineOffsets(source, nil),
	}
}

// offsetToPosition converts a byte offset into source into a 0-based
// (line, column) pair, or false if the offset is out of range.
func (c *sourceContext) offsetToPosition(offset int) (line, column uint32, ok bool) {
	if offset < 0 || offset > len(c.source) {
		return 0, 0, false
	}

	lo, hi := 0, len(c.lineOffsets)
	for lo < hi {
		mid := (lo + hi) / 2
		if int(c.lineOffsets[mid]) <= offset {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	lineIdx := lo - 1
	if lineIdx < 0 {
		lineIdx = 0
	}

	lineStart := int(c.lineOffsets[lineIdx])
	col := utf16.Encode([]rune(c.source[lineStart:offset]))

	return uint32(lineIdx), uint32(len(col)), true
}

// line returns the text of the given 0-based line number, or false if out
// of range. The returned text includes its trailing newline, if any,
// matching the slicing convention every lineOffset entry was built for.
func (c *sourceContext) line(n int) (string, bool) {
	if n < 0 || n >= len(c.lineOffsets) {
		return "", false
	}
	from := int(c.lineOffsets[n])
	to := len(c.source)
	if n+1 < len(c.lineOffsets) {
		to = int(c.lineOffsets[n+1])
	}
	if from > to || to > len(c.source) {
		return "", false
	}
	return c.source[from:to], true
}
