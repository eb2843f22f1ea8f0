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

// Package functree assembles a flat, depth-annotated stream of functions
// (as DWARF emits them: a top-level subprogram followed by its
// DW_TAG_inlined_subroutine children at increasing depth) into correctly
// nested inline trees. Folding an inlinee into its parent requires
// splitting the parent's line records at the inlinee's address boundaries,
// so that every address covered by the inlinee is attributed to it rather
// than to the enclosing line.
package functree

import "github.com/jetsetilly/gosymbolic/debugsession"

type entry struct {
	depth    int
	function debugsession.Function
}

// Stack assembles function trees from a depth-tagged stream. Depth is
// relative: a function's first inlinee is pushed one depth deeper than the
// function itself.
type Stack struct {
	entries []entry
}

// NewStack creates an empty assembler stack.
func NewStack() *Stack {
	return &Stack{entries: make([]entry, 0, 16)}
}

// Push adds function at depth. Callers must have called Flush for any
// previously pushed function at a depth greater than or equal to depth.
func (s *Stack) Push(depth int, function debugsession.Function) {
	s.entries = append(s.entries, entry{depth: depth, function: function})
}

// Flush pops every entry whose depth is greater than or equal to depth,
// folding inlined functions into their immediate parent and appending
// non-inline functions to destination. After Flush returns, the stack is
// either empty or its remaining top entry has a depth below depth, so a
// caller can safely Push at that depth again.
func (s *Stack) Flush(depth int, destination *[]debugsession.Function) {
	var inlinee *debugsession.Function

	for len(s.entries) > 0 {
		top := s.entries[len(s.entries)-1]
		s.entries = s.entries[:len(s.entries)-1]

		function := top.function

		if inlinee != nil {
			normalizeLines(&function.Lines, inlinee.Lines)
			function.Inlinees = append(function.Inlinees, *inlinee)
			inlinee = nil
		}

		if top.depth < depth {
			s.entries = append(s.entries, entry{depth: top.depth, function: function})
			return
		}

		if function.Inline {
			f := function
			inlinee = &f
		} else {
			sortInlineesByAddress(function.Inlinees)
			*destination = append(*destination, function)
		}
	}
}

func sortInlineesByAddress(fns []debugsession.Function) {
	// insertion sort: inlinee counts per function are small and the input
	// is typically already close to sorted
	for i := 1; i < len(fns); i++ {
		for j := i; j > 0 && fns[j].Address < fns[j-1].Address; j-- {
			fns[j], fns[j-1] = fns[j-1], fns[j]
		}
	}
}

// normalizeLines splits the line records in parentLines so that a record
// boundary exists at every address covered by a sized entry in childLines,
// and appends the result back into parentLines.
//
// A child line with no known size breaks out of the loop early without
// processing remaining children — this mirrors a quirk in the algorithm
// this was ported from rather than a deliberately chosen behavior; see
// DESIGN.md.
func normalizeLines(parentLines *[]debugsession.LineInfo, childLines []debugsession.LineInfo) {
	workLines := *parentLines
	*parentLines = nil
	reverse(workLines)

	for _, child := range childLines {
		if !child.HasSize {
			break
		}
		childEnd := saturatingAdd(child.Address, child.Size)

		var parent debugsession.LineInfo
		var parentEnd uint64
		found := false

	popLoop:
		for {
			if len(workLines) == 0 {
				*parentLines = append(*parentLines, reversed(workLines)...)
				return
			}
			parentLine := workLines[len(workLines)-1]
			workLines = workLines[:len(workLines)-1]

			if !parentLine.HasSize {
				break
			}

			pEnd := saturatingAdd(parentLine.Address, parentLine.Size)
			if pEnd <= child.Address {
				*parentLines = append(*parentLines, parentLine)
				continue
			}

			parent = parentLine
			parentEnd = pEnd
			found = true
			break popLoop
		}

		if !found {
			break
		}

		if child.Address > parent.Address {
			offset := child.Address - parent.Address
			before, at := splitLine(parent, offset)
			parent = at
			*parentLines = append(*parentLines, before)
		}

		if childEnd < parentEnd {
			at, after := splitLine(parent, child.Size)
			*parentLines = append(*parentLines, at)
			workLines = append(workLines, after)
		} else {
			*parentLines = append(*parentLines, parent)
		}
	}

	*parentLines = append(*parentLines, reversed(workLines)...)
}

// splitLine splits first into two records at size offset mid. first must
// have a defined size no smaller than mid; callers (normalizeLines) only
// ever call this having already established that invariant from the
// traversal itself.
func splitLine(first debugsession.LineInfo, mid uint64) (debugsession.LineInfo, debugsession.LineInfo) {
	size := first.Size
	second := first
	first.Size = mid
	second.Address = saturatingAdd(first.Address, mid)
	second.Size = size - mid
	return first, second
}

func saturatingAdd(a, b uint64) uint64 {
	sum := a + b
	if sum < a {
		return ^uint64(0)
	}
	return sum
}

func reverse(lines []debugsession.LineInfo) {
	for i, j := 0, len(lines)-1; i < j; i, j = i+1, j-1 {
		lines[i], lines[j] = lines[j], lines[i]
	}
}

func reversed(lines []debugsession.LineInfo) []debugsession.LineInfo {
	out := make([]debugsession.LineInfo, len(lines))
	for i, l := range lines {
		out[len(lines)-1-i] = l
	}
	return out
}
