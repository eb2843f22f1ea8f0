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
	"crypto/sha1" //nolint:gosec // used only as a non-cryptographic fallback identifier, not for security
	"debug/elf"
	"encoding/binary"
	"fmt"

	"github.com/jetsetilly/gosymbolic/arch"
	"github.com/jetsetilly/gosymbolic/codeid"
	"github.com/jetsetilly/gosymbolic/debugid"
	"github.com/jetsetilly/gosymbolic/debugsession"
	gosymerrors "github.com/jetsetilly/gosymbolic/errors"
	"github.com/jetsetilly/gosymbolic/logger"
)

// ElfObject parses an ELF file via the standard library's debug/elf and
// debug/dwarf packages — the same collaborators the teacher repo uses
// directly for its own coprocessor ELF/DWARF inspection.
type ElfObject struct {
	file *elf.File
	raw  []byte
}

// TestElf performs a cheap magic probe for the ELF format.
func TestElf(data []byte) bool {
	return len(data) >= 4 && bytes.Equal(data[:4], []byte(elf.ELFMAG))
}

// ParseElf parses data as an ELF object.
func ParseElf(data []byte) (*ElfObject, error) {
	f, err := elf.NewFile(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf(gosymerrors.ObjectParseError, err)
	}
	return &ElfObject{file: f, raw: data}, nil
}

func (o *ElfObject) FileFormat() FileFormat { return FormatElf }

// buildIDNote scans .note.gnu.build-id (or any NOTE section, as a
// fallback) for a GNU build-id note and returns its descriptor bytes.
func (o *ElfObject) buildIDNote() []byte {
	for _, sec := range o.file.Sections {
		if sec.Type != elf.SHT_NOTE {
			continue
		}
		data, err := sec.Data()
		if err != nil {
			continue
		}
		if desc, ok := parseGNUBuildIDNote(data); ok {
			return desc
		}
	}
	return nil
}

// parseGNUBuildIDNote walks an ELF note section's entries looking for a
// GNU "GNU\0" build-id note (NT_GNU_BUILD_ID = 3). Note entries are
// namesz, descsz, type, name (padded to 4 bytes), desc (padded to 4
// bytes).
func parseGNUBuildIDNote(data []byte) ([]byte, bool) {
	const ntGNUBuildID = 3

	for len(data) >= 12 {
		namesz := binary.LittleEndian.Uint32(data[0:4])
		descsz := binary.LittleEndian.Uint32(data[4:8])
		typ := binary.LittleEndian.Uint32(data[8:12])
		data = data[12:]

		namePadded := align4(namesz)
		descPadded := align4(descsz)
		if uint64(namePadded)+uint64(descPadded) > uint64(len(data)) {
			return nil, false
		}

		name := data[:namesz]
		desc := data[namePadded : namePadded+descsz]
		data = data[namePadded+descPadded:]

		if typ == ntGNUBuildID && bytes.Equal(bytes.TrimRight(name, "\x00"), []byte("GNU")) {
			return desc, true
		}
	}
	return nil, false
}

func align4(n uint32) uint32 {
	return (n + 3) &^ 3
}

// DebugId synthesizes a DebugId from the GNU build-id note when present,
// falling back to a hash of the first 4 KiB of .text.
func (o *ElfObject) DebugId() debugid.DebugId {
	if desc := o.buildIDNote(); len(desc) >= 16 {
		id, err := debugid.FromBytes(desc[:16], 0)
		if err == nil {
			return id
		}
	}

	if sec := o.file.Section(".text"); sec != nil {
		data, err := sec.Data()
		if err == nil {
			if len(data) > 4096 {
				data = data[:4096]
			}
			sum := sha1.Sum(data) //nolint:gosec // fallback identifier only, collision resistance is not required
			id, err := debugid.FromBytes(sum[:16], 0)
			if err == nil {
				logger.Logf(logger.Allow, "object", "elf: no build-id note, falling back to .text hash")
				return id
			}
		}
	}

	return debugid.Nil
}

func (o *ElfObject) CodeId() (codeid.CodeId, bool) {
	if desc := o.buildIDNote(); len(desc) > 0 {
		return codeid.New(fmt.Sprintf("%x", desc)), true
	}
	return "", false
}

func (o *ElfObject) Arch() arch.Architecture {
	switch o.file.Machine {
	case elf.EM_386:
		return arch.X86
	case elf.EM_X86_64:
		return arch.X86_64
	case elf.EM_ARM:
		return arch.Arm
	case elf.EM_AARCH64:
		return arch.Arm64
	case elf.EM_PPC:
		return arch.Ppc
	case elf.EM_PPC64:
		return arch.Ppc64
	case elf.EM_MIPS:
		if o.file.Class == elf.ELFCLASS64 {
			return arch.Mips64
		}
		return arch.Mips
	default:
		return arch.Unknown
	}
}

func (o *ElfObject) Kind() Kind {
	switch o.file.Type {
	case elf.ET_EXEC:
		return KindExecutable
	case elf.ET_DYN:
		return KindLibrary
	case elf.ET_REL:
		return KindRelocatable
	case elf.ET_CORE:
		return KindDump
	default:
		return KindOther
	}
}

func (o *ElfObject) LoadAddress() uint64 {
	for _, p := range o.file.Progs {
		if p.Type == elf.PT_LOAD {
			return p.Vaddr
		}
	}
	return 0
}

func (o *ElfObject) HasSymbols() bool {
	syms, err := o.file.Symbols()
	return err == nil && len(syms) > 0
}

func (o *ElfObject) HasDebugInfo() bool {
	return o.file.Section(".debug_info") != nil
}

func (o *ElfObject) HasUnwindInfo() bool {
	return o.file.Section(".eh_frame") != nil || o.file.Section(".debug_frame") != nil
}

func (o *ElfObject) HasSources() bool {
	return o.HasDebugInfo()
}

func (o *ElfObject) Symbols() ([]Symbol, error) {
	syms, err := o.file.Symbols()
	if err != nil {
		return nil, fmt.Errorf(gosymerrors.ObjectParseError, err)
	}

	out := make([]Symbol, 0, len(syms))
	for _, s := range syms {
		if elf.ST_TYPE(s.Info) != elf.STT_FUNC {
			continue
		}
		out = append(out, Symbol{
			Address: s.Value,
			Size:    s.Size,
			HasSize: s.Size > 0,
			Name:    s.Name,
			HasName: s.Name != "",
		})
	}
	return out, nil
}

func (o *ElfObject) SymbolMap() (SymbolMap, error) {
	syms, err := o.Symbols()
	if err != nil {
		return nil, err
	}
	return NewSymbolMap(syms), nil
}

func (o *ElfObject) DebugSession() (debugsession.Session, error) {
	d, err := o.file.DWARF()
	if err != nil {
		return nil, fmt.Errorf(gosymerrors.DebugSessionError, err)
	}
	return newDwarfSession(d)
}
