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

// Package object is a polymorphic handle over the object-file formats this
// module understands: ELF, Mach-O, PE, Breakpad text symbols, WASM,
// classic (MSF-container) PDB and Portable PDB. Every format is dispatched
// through the same closed set of accessors, so a SymCache writer never
// needs to know which concrete format it is looking at.
package object

import (
	"github.com/jetsetilly/gosymbolic/arch"
	"github.com/jetsetilly/gosymbolic/codeid"
	"github.com/jetsetilly/gosymbolic/debugid"
	"github.com/jetsetilly/gosymbolic/debugsession"
	"github.com/jetsetilly/gosymbolic/objname"
)

// FileFormat identifies the concrete object-file format a parser produced.
type FileFormat int

const (
	FormatUnknown FileFormat = iota
	FormatBreakpad
	FormatElf
	FormatMachO
	FormatPdb
	FormatPe
	FormatWasm
	FormatPortablePdb
	FormatSourceBundle
)

func (f FileFormat) String() string {
	switch f {
	case FormatBreakpad:
		return "breakpad"
	case FormatElf:
		return "elf"
	case FormatMachO:
		return "macho"
	case FormatPdb:
		return "pdb"
	case FormatPe:
		return "pe"
	case FormatWasm:
		return "wasm"
	case FormatPortablePdb:
		return "portablepdb"
	case FormatSourceBundle:
		return "sourcebundle"
	default:
		return "unknown"
	}
}

// Kind classifies what an object file is for, independent of its format.
type Kind int

const (
	KindOther Kind = iota
	KindExecutable
	KindLibrary
	KindDebug
	KindRelocatable
	KindDump
)

// Symbol is a single entry from an object's symbol table: an address, an
// optional size, and an optional name.
type Symbol struct {
	Address uint64
	Size    uint64
	HasSize bool
	Name    string
	HasName bool
}

// SymbolMap is an ordered-by-address collection of Symbol with gaps filled
// in: a symbol with no recorded size is given one inferred from the
// address of the symbol immediately following it.
type SymbolMap []Symbol

// NewSymbolMap resolves raw, possibly-overlapping symbols into an
// ordered-by-address SymbolMap. When two symbols share an address the
// earliest one (by input order) is kept; when a symbol's size is unknown
// it is inferred from the next symbol's address.
func NewSymbolMap(symbols []Symbol) SymbolMap {
	seen := make(map[uint64]bool, len(symbols))
	deduped := make([]Symbol, 0, len(symbols))
	for _, s := range symbols {
		if seen[s.Address] {
			continue
		}
		seen[s.Address] = true
		deduped = append(deduped, s)
	}

	sortSymbolsByAddress(deduped)

	for i := range deduped {
		if deduped[i].HasSize {
			continue
		}
		if i+1 < len(deduped) {
			deduped[i].Size = deduped[i+1].Address - deduped[i].Address
			deduped[i].HasSize = true
		}
	}

	return SymbolMap(deduped)
}

func sortSymbolsByAddress(s []Symbol) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j].Address < s[j-1].Address; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}

// Lookup returns the symbol covering addr, if any.
func (m SymbolMap) Lookup(addr uint64) (Symbol, bool) {
	lo, hi := 0, len(m)
	for lo < hi {
		mid := (lo + hi) / 2
		if m[mid].Address <= addr {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo == 0 {
		return Symbol{}, false
	}
	s := m[lo-1]
	if s.HasSize && addr >= s.Address+s.Size {
		return Symbol{}, false
	}
	return s, true
}

// Object is the uniform façade over every supported object-file format.
type Object interface {
	FileFormat() FileFormat
	DebugId() debugid.DebugId
	CodeId() (codeid.CodeId, bool)
	Arch() arch.Architecture
	Kind() Kind
	LoadAddress() uint64

	HasSymbols() bool
	HasDebugInfo() bool
	HasUnwindInfo() bool
	HasSources() bool

	Symbols() ([]Symbol, error)
	SymbolMap() (SymbolMap, error)

	// DebugSession returns the per-format source-level view, or an error
	// if the object carries no usable debug information.
	DebugSession() (debugsession.Session, error)
}

// nameFromRaw is a convenience constructor used by per-format parsers when they
// have not yet determined a symbol's mangling state.
func nameFromRaw(raw string) objname.Name {
	return objname.New(raw, objname.Unknown, 0)
}
