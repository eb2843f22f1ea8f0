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

// Package debugsession defines the per-object source-level view that every
// debug-information backend (DWARF, PDB, Breakpad, Portable PDB) produces:
// a stream of files and a tree of functions, each carrying line records and
// nested inlinees. A SymCache writer consumes exactly this shape regardless
// of which object format it came from.
package debugsession

import (
	"github.com/jetsetilly/gosymbolic/lang"
	"github.com/jetsetilly/gosymbolic/objname"
)

// FileEntry names a single source file exactly as the originating format
// recorded it. Resolving it to a full path is the caller's job, using
// paths.CleanPath(paths.JoinPath(compDir, paths.JoinPath(directory, name))).
type FileEntry struct {
	CompDir   string
	Directory string
	Name      string

	// Source holds the file's embedded source text, when the format
	// carries one (Breakpad INLINE_ORIGIN, source bundles). Empty when
	// not embedded; HasSource distinguishes "no source" from "empty file".
	Source    string
	HasSource bool
}

// LineInfo maps a range of addresses to a single source line.
type LineInfo struct {
	Address uint64

	// Size is the number of bytes this line covers. Unknown for formats
	// that don't record it (Breakpad partially); HasSize distinguishes
	// "extends until the next record" from a genuine zero-length range.
	Size    uint64
	HasSize bool

	File FileEntry
	Line uint32
}

// End returns Address+Size. Only meaningful when HasSize is true.
func (l LineInfo) End() uint64 {
	return l.Address + l.Size
}

// Function is a recursive record describing a source-level function and,
// when it was inlined, the chain of inlinees nested within it.
type Function struct {
	Address uint64

	// Size is the function's length in bytes. Unknown for formats that
	// don't record it (PE/COFF public symbols); HasSize distinguishes.
	Size    uint64
	HasSize bool

	Name           objname.Name
	CompilationDir string
	Language       lang.Language

	// Lines is sorted by ascending Address once a debug session has
	// finished normalizing it; violations of that order are logged by the
	// session, not rejected.
	Lines []LineInfo

	// Inlinees is sorted by ascending Address after the function-tree
	// assembler has folded a flat depth-tagged stream into this shape.
	Inlinees []Function

	// Inline is true iff this Function value is an inlined copy nested
	// inside a parent rather than a top-level function.
	Inline bool
}

// EndAddress returns Address+Size. Only meaningful when HasSize is true.
func (f Function) EndAddress() uint64 {
	return f.Address + f.Size
}

// Session is implemented by every per-format backend (DWARF, PDB,
// Breakpad, Portable PDB) to expose the source-level view of an object.
type Session interface {
	// Files iterates every source file referenced by the object.
	Files() ([]FileEntry, error)

	// Functions iterates the object's top-level functions, each already
	// carrying its fully assembled inlinee tree.
	Functions() ([]Function, error)
}
