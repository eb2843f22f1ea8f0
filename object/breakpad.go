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
	"bytes"
	"fmt"

	"github.com/jetsetilly/gosymbolic/arch"
	"github.com/jetsetilly/gosymbolic/breakpad"
	"github.com/jetsetilly/gosymbolic/codeid"
	"github.com/jetsetilly/gosymbolic/debugid"
	"github.com/jetsetilly/gosymbolic/debugsession"
	gosymerrors "github.com/jetsetilly/gosymbolic/errors"
	"github.com/jetsetilly/gosymbolic/objname"
)

// BreakpadObject wraps a parsed Breakpad text symbol file. Unlike the other
// formats this module understands, a Breakpad file carries everything
// (module identity, symbols, source-level line tables) in one plain-text
// document; there is no separate parse-vs-debug-session step.
type BreakpadObject struct {
	file *breakpad.File
}

// TestBreakpad performs a cheap probe: a Breakpad file's first line always
// begins with "MODULE ".
func TestBreakpad(data []byte) bool {
	return breakpad.Test(data)
}

// ParseBreakpad parses data as a Breakpad text symbol file.
func ParseBreakpad(data []byte) (*BreakpadObject, error) {
	f, err := breakpad.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf(gosymerrors.ObjectParseError, err)
	}
	return &BreakpadObject{file: f}, nil
}

func (o *BreakpadObject) FileFormat() FileFormat { return FormatBreakpad }

// DebugId parses the MODULE record's id field, which is either a full
// Breakpad id (uuid + age, Windows mixed-endian form) or, as
// breakpad.TestParseModuleRecordShortId demonstrates, one nibble short of it when
// the age was truncated away upstream.
func (o *BreakpadObject) DebugId() debugid.DebugId {
	id, err := debugid.ParseBreakpad(o.file.Module.Id)
	if err != nil {
		return debugid.Nil
	}
	return id
}

func (o *BreakpadObject) CodeId() (codeid.CodeId, bool) {
	return "", false
}

func (o *BreakpadObject) Arch() arch.Architecture {
	switch o.file.Module.Arch {
	case "ppc_64":
		return arch.Ppc64
	default:
		return arch.Parse(o.file.Module.Arch)
	}
}

func (o *BreakpadObject) Kind() Kind {
	return KindDebug
}

func (o *BreakpadObject) LoadAddress() uint64 {
	return 0
}

func (o *BreakpadObject) HasSymbols() bool {
	return len(o.file.Funcs) > 0 || len(o.file.Publics) > 0
}

func (o *BreakpadObject) HasDebugInfo() bool {
	for _, fn := range o.file.Funcs {
		if len(fn.Lines) > 0 {
			return true
		}
	}
	return false
}

func (o *BreakpadObject) HasUnwindInfo() bool {
	// unwind programs live in STACK CFI / STACK WIN records, which this
	// module does not parse: CFI unwinding is a separate concern from the
	// symbol and line lookups a SymCache serves.
	return false
}

func (o *BreakpadObject) HasSources() bool {
	return false
}

func (o *BreakpadObject) Symbols() ([]Symbol, error) {
	out := make([]Symbol, 0, len(o.file.Funcs)+len(o.file.Publics))
	for _, fn := range o.file.Funcs {
		out = append(out, Symbol{
			Address: fn.Address,
			Size:    fn.Size,
			HasSize: true,
			Name:    fn.Name,
			HasName: fn.Name != "",
		})
	}
	for _, pub := range o.file.Publics {
		out = append(out, Symbol{
			Address: pub.Address,
			Name:    pub.Name,
			HasName: pub.Name != "",
		})
	}
	return out, nil
}

func (o *BreakpadObject) SymbolMap() (SymbolMap, error) {
	syms, err := o.Symbols()
	if err != nil {
		return nil, err
	}
	return NewSymbolMap(syms), nil
}

func (o *BreakpadObject) DebugSession() (debugsession.Session, error) {
	return newBreakpadSession(o.file), nil
}

// breakpadSession adapts a parsed Breakpad file to debugsession.Session.
// Breakpad has no concept of inlining nested more than one level deep in
// the way DWARF does; each FUNC record becomes one top-level Function with
// a flat line table.
type breakpadSession struct {
	file  *breakpad.File
	files map[uint64]breakpad.FileRecord
}

func newBreakpadSession(f *breakpad.File) *breakpadSession {
	s := &breakpadSession{file: f, files: make(map[uint64]breakpad.FileRecord, len(f.Files))}
	for _, fr := range f.Files {
		s.files[fr.Id] = fr
	}
	return s
}

func (s *breakpadSession) Files() ([]debugsession.FileEntry, error) {
	out := make([]debugsession.FileEntry, 0, len(s.file.Files))
	for _, fr := range s.file.Files {
		out = append(out, debugsession.FileEntry{Name: fr.Name})
	}
	return out, nil
}

func (s *breakpadSession) Functions() ([]debugsession.Function, error) {
	out := make([]debugsession.Function, 0, len(s.file.Funcs))
	for _, fn := range s.file.Funcs {
		lines := make([]debugsession.LineInfo, 0, len(fn.Lines))
		for _, ln := range fn.Lines {
			lines = append(lines, debugsession.LineInfo{
				Address: ln.Address,
				Size:    ln.Size,
				HasSize: true,
				Line:    ln.Line,
				File:    debugsession.FileEntry{Name: s.files[ln.FileId].Name},
			})
		}
		out = append(out, debugsession.Function{
			Address: fn.Address,
			Size:    fn.Size,
			HasSize: true,
			Name:    objname.New(fn.Name, objname.Unmangled, 0),
			Lines:   lines,
		})
	}
	return out, nil
}
