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

package object

import (
	"debug/dwarf"
	"errors"
	"fmt"
	"io"
	"sort"

	gosymerrors "github.com/jetsetilly/gosymbolic/errors"
	"github.com/jetsetilly/gosymbolic/functree"
	"github.com/jetsetilly/gosymbolic/lang"
	"github.com/jetsetilly/gosymbolic/logger"
	"github.com/jetsetilly/gosymbolic/objname"

	"github.com/jetsetilly/gosymbolic/debugsession"
)

// dwarfSession walks a debug/dwarf.Data tree, building Function trees via
// the function-tree assembler. This mirrors the teacher's own DWARF
// line-reader usage (coprocessor/developer/dwarf/dwarf_process_lines.go)
// but generalized from a single fixed-width target to the address width
// and inline-chain shape this module's SymCache writer needs.
type dwarfSession struct {
	files     []debugsession.FileEntry
	functions []debugsession.Function
}

func newDwarfSession(d *dwarf.Data) (*dwarfSession, error) {
	sess := &dwarfSession{}

	r := d.Reader()
	for {
		cu, err := r.Next()
		if err != nil {
			return nil, fmt.Errorf(gosymerrors.MalformedLineTable, err)
		}
		if cu == nil {
			break
		}
		if cu.Tag != dwarf.TagCompileUnit {
			r.SkipChildren()
			continue
		}

		compDir, _ := cu.Val(dwarf.AttrCompDir).(string)

		lr, err := d.LineReader(cu)
		if err != nil {
			logger.Logf(logger.Allow, "object", "dwarf: no line program for compile unit: %v", err)
		}

		if err := sess.walkUnit(r, d, lr, compDir); err != nil {
			return nil, err
		}
	}

	return sess, nil
}

func (s *dwarfSession) Files() ([]debugsession.FileEntry, error) {
	return s.files, nil
}

func (s *dwarfSession) Functions() ([]debugsession.Function, error) {
	return s.functions, nil
}

// walkUnit reads every subprogram/inlined_subroutine in a compile unit,
// feeding a depth-tagged stream into a functree.Stack exactly as the
// source-level model in this module's debugsession package expects.
func (s *dwarfSession) walkUnit(r *dwarf.Reader, d *dwarf.Data, lr *dwarf.LineReader, compDir string) error {
	stack := functree.NewStack()
	depth := 0
	funcDepth := -1

	for {
		entry, err := r.Next()
		if err != nil {
			return fmt.Errorf(gosymerrors.MalformedLineTable, err)
		}
		if entry == nil {
			break
		}
		if entry.Tag == 0 {
			// end of a sibling chain (the reader's depth-decrementing marker)
			depth--
			if depth <= funcDepth {
				stack.Flush(depth+1, &s.functions)
				funcDepth = depth - 1
			}
			if depth < 0 {
				break
			}
			continue
		}

		isFunc := entry.Tag == dwarf.TagSubprogram || entry.Tag == dwarf.TagInlinedSubroutine
		if isFunc {
			fn, ok := s.readFunction(d, lr, entry, compDir, entry.Tag == dwarf.TagInlinedSubroutine)
			if ok {
				stack.Flush(depth, &s.functions)
				stack.Push(depth, fn)
				funcDepth = depth
			}
		}

		if entry.Children {
			depth++
		}
	}

	stack.Flush(0, &s.functions)
	return nil
}

func (s *dwarfSession) readFunction(d *dwarf.Data, lr *dwarf.LineReader, entry *dwarf.Entry, compDir string, inline bool) (debugsession.Function, bool) {
	name, _ := entry.Val(dwarf.AttrName).(string)

	lowPC, lowOK := entry.Val(dwarf.AttrLowpc).(uint64)
	if !lowOK {
		return debugsession.Function{}, false
	}

	var size uint64
	hasSize := false
	switch hi := entry.Val(dwarf.AttrHighpc).(type) {
	case uint64:
		size = hi - lowPC
		hasSize = size > 0
	case int64:
		size = uint64(hi)
		hasSize = size > 0
	}

	fn := debugsession.Function{
		Address:        lowPC,
		Size:           size,
		HasSize:        hasSize,
		Name:           objname.New(name, objname.Unknown, lang.Unknown),
		CompilationDir: compDir,
		Inline:         inline,
	}

	if lr != nil && hasSize {
		fn.Lines = s.readLines(lr, lowPC, lowPC+size)
	}

	return fn, true
}

// readLines reads the line-number program entries covering [start, end),
// assigning each an end address by peeking at the next entry, matching the
// teacher's own addInstructionsToLines approach.
func (s *dwarfSession) readLines(lr *dwarf.LineReader, start, end uint64) []debugsession.LineInfo {
	var lines []debugsession.LineInfo

	lr.Seek(0)
	var le dwarf.LineEntry
	for {
		err := lr.Next(&le)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return lines
		}
		if le.EndSequence || le.Address < start || le.Address >= end {
			continue
		}

		pos := lr.Tell()
		var peek dwarf.LineEntry
		var lineEnd uint64
		if err := lr.Next(&peek); err != nil {
			lineEnd = end
		} else {
			lineEnd = peek.Address
			if lineEnd > end {
				lineEnd = end
			}
		}
		lr.Seek(pos)

		if lineEnd <= le.Address {
			continue
		}

		fileName := ""
		if le.File != nil {
			fileName = le.File.Name
		}

		lines = append(lines, debugsession.LineInfo{
			Address: le.Address,
			Size:    lineEnd - le.Address,
			HasSize: true,
			File:    debugsession.FileEntry{Name: fileName},
			Line:    uint32(le.Line),
		})

		if fileName != "" {
			s.recordFile(fileName)
		}
	}

	sort.Slice(lines, func(i, j int) bool { return lines[i].Address < lines[j].Address })
	return lines
}

func (s *dwarfSession) recordFile(name string) {
	for _, f := range s.files {
		if f.Name == name {
			return
		}
	}
	s.files = append(s.files, debugsession.FileEntry{Name: name})
}
