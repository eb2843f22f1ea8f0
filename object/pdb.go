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
	"fmt"

	"github.com/jetsetilly/gosymbolic/arch"
	"github.com/jetsetilly/gosymbolic/codeid"
	"github.com/jetsetilly/gosymbolic/debugid"
	"github.com/jetsetilly/gosymbolic/debugsession"
	gosymerrors "github.com/jetsetilly/gosymbolic/errors"
	"github.com/jetsetilly/gosymbolic/objname"
	"github.com/jetsetilly/gosymbolic/pdb"
)

// PdbObject wraps a parsed classic (MSF-container) PDB. A PDB carries no
// code of its own; its DebugId and load address are only meaningful
// alongside the PE executable it was generated for, so this module treats
// it purely as a companion debug session lookup.
type PdbObject struct {
	file *pdb.File
}

// TestPdb performs a cheap probe for the MSF container magic every classic
// PDB begins with.
func TestPdb(data []byte) bool {
	return pdb.Test(data)
}

// ParsePdb parses data as a classic PDB.
func ParsePdb(data []byte) (*PdbObject, error) {
	f, err := pdb.Parse(data)
	if err != nil {
		return nil, fmt.Errorf(gosymerrors.ObjectParseError, err)
	}
	return &PdbObject{file: f}, nil
}

func (o *PdbObject) FileFormat() FileFormat { return FormatPdb }

// DebugId combines the PDB Info Stream's GUID and age; this is the same
// identifier the companion PE's CodeView debug directory entry carries, so
// the two can be matched up without opening the executable.
func (o *PdbObject) DebugId() debugid.DebugId {
	id, err := debugid.FromMixedEndianBytes(o.file.Guid[:], o.file.Age)
	if err != nil {
		return debugid.Nil
	}
	return id
}

func (o *PdbObject) CodeId() (codeid.CodeId, bool) {
	return "", false
}

// Arch reports the architecture named by the DBI stream's COFF machine
// constant. A PDB with no DBI stream (or an unrecognised machine value)
// reports arch.Unknown; the companion PE is the authoritative source.
func (o *PdbObject) Arch() arch.Architecture {
	switch o.file.Machine {
	case 0x014c: // IMAGE_FILE_MACHINE_I386
		return arch.X86
	case 0x8664: // IMAGE_FILE_MACHINE_AMD64
		return arch.X86_64
	case 0xaa64: // IMAGE_FILE_MACHINE_ARM64
		return arch.Arm64
	case 0x01c0, 0x01c4: // IMAGE_FILE_MACHINE_ARM, ARMNT
		return arch.ArmV7
	default:
		return arch.Unknown
	}
}

func (o *PdbObject) Kind() Kind {
	return KindDebug
}

func (o *PdbObject) LoadAddress() uint64 {
	return 0
}

func (o *PdbObject) HasSymbols() bool {
	return len(o.file.Publics) > 0
}

// HasDebugInfo always reports false: this module does not parse a PDB's
// private symbol substreams (module line programs, type records), only its
// public symbol table, so it never has source-level line information to
// offer.
func (o *PdbObject) HasDebugInfo() bool {
	return false
}

func (o *PdbObject) HasUnwindInfo() bool {
	return false
}

func (o *PdbObject) HasSources() bool {
	return false
}

func (o *PdbObject) Symbols() ([]Symbol, error) {
	out := make([]Symbol, 0, len(o.file.Publics))
	for _, pub := range o.file.Publics {
		if !pub.HasAddress {
			continue
		}
		out = append(out, Symbol{
			Address: pub.Address,
			Name:    pub.Name,
			HasName: pub.Name != "",
		})
	}
	return out, nil
}

func (o *PdbObject) SymbolMap() (SymbolMap, error) {
	syms, err := o.Symbols()
	if err != nil {
		return nil, err
	}
	return NewSymbolMap(syms), nil
}

// DebugSession always succeeds, even when the PDB carries no public
// symbols: an empty session is a legitimate (if useless) debug session,
// whereas no debug session at all is reserved for formats that cannot
// carry one (see PE.DebugSession).
func (o *PdbObject) DebugSession() (debugsession.Session, error) {
	return &pdbSession{file: o.file}, nil
}

// pdbSession adapts a classic PDB's public symbol table to
// debugsession.Session. Public symbols carry no line information and no
// nested inlining, so every Function is a single flat leaf with no lines.
type pdbSession struct {
	file *pdb.File
}

func (s *pdbSession) Files() ([]debugsession.FileEntry, error) {
	return nil, nil
}

func (s *pdbSession) Functions() ([]debugsession.Function, error) {
	out := make([]debugsession.Function, 0, len(s.file.Publics))
	for _, pub := range s.file.Publics {
		if !pub.HasAddress {
			continue
		}
		out = append(out, debugsession.Function{
			Address: pub.Address,
			Name:    objname.New(pub.Name, objname.Unknown, 0),
		})
	}
	return out, nil
}
