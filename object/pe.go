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
	"debug/pe"
	"fmt"

	"github.com/jetsetilly/gosymbolic/arch"
	"github.com/jetsetilly/gosymbolic/codeid"
	"github.com/jetsetilly/gosymbolic/debugid"
	"github.com/jetsetilly/gosymbolic/debugsession"
	gosymerrors "github.com/jetsetilly/gosymbolic/errors"
)

// PeObject parses a PE/COFF image via the standard library's debug/pe.
// PE files carry their DebugId and source-level debug information in a
// companion PDB, which this module's pdb package reads separately; PeObject
// itself only exposes the image's own symbol table and headers.
type PeObject struct {
	file *pe.File
}

// TestPe performs a cheap magic probe for the PE format: the "MZ" DOS stub
// header followed, at the offset it records, by the "PE\0\0" signature.
func TestPe(data []byte) bool {
	if len(data) < 0x40 || data[0] != 'M' || data[1] != 'Z' {
		return false
	}
	peOffset := int(uint32(data[0x3c]) | uint32(data[0x3d])<<8 | uint32(data[0x3e])<<16 | uint32(data[0x3f])<<24)
	if peOffset < 0 || peOffset+4 > len(data) {
		return false
	}
	return bytes.Equal(data[peOffset:peOffset+4], []byte("PE\x00\x00"))
}

// ParsePe parses data as a PE/COFF image.
func ParsePe(data []byte) (*PeObject, error) {
	f, err := pe.NewFile(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf(gosymerrors.ObjectParseError, err)
	}
	return &PeObject{file: f}, nil
}

func (o *PeObject) FileFormat() FileFormat { return FormatPe }

// DebugId is not synthesized from the image itself: the CodeView record
// naming the associated PDB's GUID+age lives in the IMAGE_DEBUG_DIRECTORY,
// which debug/pe does not parse. Callers that need the id should read the
// companion PDB via the pdb package and use its DebugId instead.
func (o *PeObject) DebugId() debugid.DebugId {
	return debugid.Nil
}

func (o *PeObject) CodeId() (codeid.CodeId, bool) {
	if oh, ok := o.file.OptionalHeader.(*pe.OptionalHeader64); ok {
		return codeid.New(fmt.Sprintf("%x%x", o.file.FileHeader.TimeDateStamp, oh.SizeOfImage)), true
	}
	if oh, ok := o.file.OptionalHeader.(*pe.OptionalHeader32); ok {
		return codeid.New(fmt.Sprintf("%x%x", o.file.FileHeader.TimeDateStamp, oh.SizeOfImage)), true
	}
	return "", false
}

func (o *PeObject) Arch() arch.Architecture {
	switch o.file.Machine {
	case pe.IMAGE_FILE_MACHINE_I386:
		return arch.X86
	case pe.IMAGE_FILE_MACHINE_AMD64:
		return arch.X86_64
	case pe.IMAGE_FILE_MACHINE_ARM:
		return arch.Arm
	case pe.IMAGE_FILE_MACHINE_ARM64:
		return arch.Arm64
	default:
		return arch.Unknown
	}
}

func (o *PeObject) Kind() Kind {
	const characteristicsDLL = 0x2000
	if o.file.FileHeader.Characteristics&characteristicsDLL != 0 {
		return KindLibrary
	}
	return KindExecutable
}

func (o *PeObject) LoadAddress() uint64 {
	if oh, ok := o.file.OptionalHeader.(*pe.OptionalHeader64); ok {
		return oh.ImageBase
	}
	if oh, ok := o.file.OptionalHeader.(*pe.OptionalHeader32); ok {
		return uint64(oh.ImageBase)
	}
	return 0
}

func (o *PeObject) HasSymbols() bool {
	return len(o.file.COFFSymbols) > 0
}

func (o *PeObject) HasDebugInfo() bool {
	// resolving this precisely requires walking IMAGE_DEBUG_DIRECTORY,
	// which is the companion pdb package's responsibility
	return false
}

func (o *PeObject) HasUnwindInfo() bool {
	return o.file.Section(".pdata") != nil
}

func (o *PeObject) HasSources() bool {
	return false
}

func (o *PeObject) Symbols() ([]Symbol, error) {
	out := make([]Symbol, 0, len(o.file.COFFSymbols))
	for _, s := range o.file.COFFSymbols {
		const classExternal = 2
		const classStatic = 0x6b
		name, err := s.FullName(o.file.StringTable)
		if err != nil {
			continue
		}
		if s.StorageClass != classExternal && s.StorageClass != classStatic {
			continue
		}
		if int(s.SectionNumber) <= 0 || int(s.SectionNumber) > len(o.file.Sections) {
			continue
		}
		sec := o.file.Sections[s.SectionNumber-1]
		out = append(out, Symbol{
			Address: uint64(sec.VirtualAddress + s.Value),
			Name:    name,
			HasName: name != "",
		})
	}
	return out, nil
}

func (o *PeObject) SymbolMap() (SymbolMap, error) {
	syms, err := o.Symbols()
	if err != nil {
		return nil, err
	}
	return NewSymbolMap(syms), nil
}

func (o *PeObject) DebugSession() (debugsession.Session, error) {
	return nil, fmt.Errorf(gosymerrors.NoDebugSession, "pe (use the pdb package against the companion file)")
}
