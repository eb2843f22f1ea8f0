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
	"github.com/jetsetilly/gosymbolic/ppdb"
)

// PortablePdbObject wraps a parsed Portable PDB metadata root. Like the
// classic PDB, it carries no executable code of its own and is only
// meaningful paired with the .NET assembly it was generated for.
type PortablePdbObject struct {
	file *ppdb.File
}

// TestPortablePdb performs a cheap probe for the ECMA-335 metadata root
// signature ("BSJB") every Portable PDB begins with.
func TestPortablePdb(data []byte) bool {
	return ppdb.Test(data)
}

// ParsePortablePdb parses data as a Portable PDB metadata root.
func ParsePortablePdb(data []byte) (*PortablePdbObject, error) {
	f, err := ppdb.Parse(data)
	if err != nil {
		return nil, fmt.Errorf(gosymerrors.ObjectParseError, err)
	}
	return &PortablePdbObject{file: f}, nil
}

func (o *PortablePdbObject) FileFormat() FileFormat { return FormatPortablePdb }

// DebugId is built from the "#Pdb" stream's GUID and age. A Portable PDB
// with no such stream (malformed, or not actually a PDB) has no identity
// to report.
func (o *PortablePdbObject) DebugId() debugid.DebugId {
	guid, age, ok := o.file.Id()
	if !ok {
		return debugid.Nil
	}
	id, err := debugid.FromMixedEndianBytes(guid[:], age)
	if err != nil {
		return debugid.Nil
	}
	return id
}

func (o *PortablePdbObject) CodeId() (codeid.CodeId, bool) {
	return "", false
}

// Arch is always Unknown: a Portable PDB's metadata root carries no machine
// field of its own, only the method tables and type system of the .NET
// assembly it accompanies.
func (o *PortablePdbObject) Arch() arch.Architecture {
	return arch.Unknown
}

func (o *PortablePdbObject) Kind() Kind {
	return KindDebug
}

func (o *PortablePdbObject) LoadAddress() uint64 {
	return 0
}

func (o *PortablePdbObject) HasSymbols() bool {
	return false
}

func (o *PortablePdbObject) HasDebugInfo() bool {
	_, ok := o.file.Stream("#~")
	return ok
}

func (o *PortablePdbObject) HasUnwindInfo() bool {
	return false
}

// HasSources reports whether an embedded-source stream (as produced by
// Source Link / EmbeddedSource) is present in the metadata root.
func (o *PortablePdbObject) HasSources() bool {
	_, ok := o.file.Stream("#EmbeddedSource")
	return ok
}

func (o *PortablePdbObject) Symbols() ([]Symbol, error) {
	return nil, nil
}

func (o *PortablePdbObject) SymbolMap() (SymbolMap, error) {
	return NewSymbolMap(nil), nil
}

// DebugSession always fails: resolving a Portable PDB's MethodDebugInformation
// table into source lines requires decoding the #~ compressed metadata
// tables stream and walking its per-method sequence-point blobs, a full
// .NET metadata reader this module does not implement. The metadata root
// (and therefore DebugId) is still available without one.
func (o *PortablePdbObject) DebugSession() (debugsession.Session, error) {
	return nil, fmt.Errorf(gosymerrors.NoDebugSession, "portablepdb (method tables are not parsed)")
}
