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
	"debug/macho"
	"fmt"

	"github.com/jetsetilly/gosymbolic/arch"
	"github.com/jetsetilly/gosymbolic/codeid"
	"github.com/jetsetilly/gosymbolic/debugid"
	"github.com/jetsetilly/gosymbolic/debugsession"
	gosymerrors "github.com/jetsetilly/gosymbolic/errors"
)

// MachOObject parses a Mach-O file via the standard library's debug/macho
// and debug/dwarf packages.
type MachOObject struct {
	file *macho.File
}

var machoMagics = [][]byte{
	{0xfe, 0xed, 0xfa, 0xce}, // 32-bit big endian
	{0xce, 0xfa, 0xed, 0xfe}, // 32-bit little endian
	{0xfe, 0xed, 0xfa, 0xcf}, // 64-bit big endian
	{0xcf, 0xfa, 0xed, 0xfe}, // 64-bit little endian
	{0xca, 0xfe, 0xba, 0xbe}, // fat binary, big endian
	{0xbe, 0xba, 0xfe, 0xca}, // fat binary, little endian
}

// TestMachO performs a cheap magic probe for the Mach-O format, including
// the fat-binary wrapper.
func TestMachO(data []byte) bool {
	if len(data) < 4 {
		return false
	}
	for _, m := range machoMagics {
		if bytes.Equal(data[:4], m) {
			return true
		}
	}
	return false
}

// ParseMachO parses data as a (non-fat) Mach-O object.
func ParseMachO(data []byte) (*MachOObject, error) {
	f, err := macho.NewFile(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf(gosymerrors.ObjectParseError, err)
	}
	return &MachOObject{file: f}, nil
}

func (o *MachOObject) FileFormat() FileFormat { return FormatMachO }

// DebugId reads the LC_UUID load command. debug/macho does not expose it
// directly, so this scans the raw load-command bytes for the
// uuid_command layout (cmd=0x1b, cmdsize=24, followed by 16 bytes of
// UUID).
func (o *MachOObject) DebugId() debugid.DebugId {
	for _, l := range o.file.Loads {
		raw := l.Raw()
		if len(raw) >= 24 {
			cmd := o.file.ByteOrder.Uint32(raw[0:4])
			const lcUUID = 0x1b
			if cmd == lcUUID {
				id, err := debugid.FromBytes(raw[8:24], 0)
				if err == nil {
					return id
				}
			}
		}
	}
	return debugid.Nil
}

func (o *MachOObject) CodeId() (codeid.CodeId, bool) {
	return "", false
}

func (o *MachOObject) Arch() arch.Architecture {
	switch o.file.Cpu {
	case macho.Cpu386:
		return arch.X86
	case macho.CpuAmd64:
		return arch.X86_64
	case macho.CpuArm:
		return arch.Arm
	case macho.CpuArm64:
		return arch.Arm64
	case macho.CpuPpc:
		return arch.Ppc
	case macho.CpuPpc64:
		return arch.Ppc64
	default:
		return arch.Unknown
	}
}

func (o *MachOObject) Kind() Kind {
	switch o.file.Type {
	case macho.TypeExec:
		return KindExecutable
	case macho.TypeDylib:
		return KindLibrary
	case macho.TypeObj:
		return KindRelocatable
	case macho.TypeCore:
		return KindDump
	default:
		return KindOther
	}
}

func (o *MachOObject) LoadAddress() uint64 {
	if seg := o.file.Segment("__TEXT"); seg != nil {
		return seg.Addr
	}
	return 0
}

func (o *MachOObject) HasSymbols() bool {
	return o.file.Symtab != nil && len(o.file.Symtab.Syms) > 0
}

func (o *MachOObject) HasDebugInfo() bool {
	return o.file.Section("__debug_info") != nil
}

func (o *MachOObject) HasUnwindInfo() bool {
	return o.file.Section("__unwind_info") != nil || o.file.Section("__eh_frame") != nil
}

func (o *MachOObject) HasSources() bool {
	return o.HasDebugInfo()
}

func (o *MachOObject) Symbols() ([]Symbol, error) {
	if o.file.Symtab == nil {
		return nil, nil
	}
	out := make([]Symbol, 0, len(o.file.Symtab.Syms))
	for _, s := range o.file.Symtab.Syms {
		const nType = 0x0e
		const nSect = 0x0e // symbol is defined in a section when (Type & N_TYPE) == N_SECT(0x0e)
		if s.Type&nType != nSect {
			continue
		}
		out = append(out, Symbol{
			Address: s.Value,
			Name:    s.Name,
			HasName: s.Name != "",
		})
	}
	return out, nil
}

func (o *MachOObject) SymbolMap() (SymbolMap, error) {
	syms, err := o.Symbols()
	if err != nil {
		return nil, err
	}
	return NewSymbolMap(syms), nil
}

func (o *MachOObject) DebugSession() (debugsession.Session, error) {
	d, err := o.file.DWARF()
	if err != nil {
		return nil, fmt.Errorf(gosymerrors.DebugSessionError, err)
	}
	return newDwarfSession(d)
}
