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

// Package arch identifies the CPU architecture and family targeted by an
// object file, and carries the handful of per-architecture facts (pointer
// size, instruction-pointer register, instruction alignment) that the rest
// of the module needs without re-deriving them from raw machine/cputype
// values at every call site.
package arch

// CpuFamily groups architectures that share calling convention and
// instruction-pointer heuristics.
type CpuFamily int

const (
	FamilyUnknown CpuFamily = iota
	FamilyX86
	FamilyX86_64
	FamilyArm
	FamilyArm64
	FamilyPpc
	FamilyMips
	FamilyWasm
)

// Architecture enumerates the instruction set architectures this module
// knows how to name, normalize and align addresses for.
type Architecture int

const (
	Unknown Architecture = iota
	X86
	X86_64
	X86_64h
	Arm
	ArmV5
	ArmV6
	ArmV6m
	ArmV7
	ArmV7f
	ArmV7s
	ArmV7k
	ArmV7m
	ArmV7em
	Arm64
	Arm64e
	Arm64_32
	Ppc
	Ppc64
	Mips
	Mips64
	Wasm32
	Wasm64
)

type info struct {
	name        string
	family      CpuFamily
	pointerSize int
	ipRegister  string
	alignment   int // 0 means "no fixed alignment" (variable-length ISA)
}

var table = map[Architecture]info{
	Unknown:  {"unknown", FamilyUnknown, 0, "", 0},
	X86:      {"x86", FamilyX86, 4, "eip", 0},
	X86_64:   {"x86_64", FamilyX86_64, 8, "rip", 0},
	X86_64h:  {"x86_64h", FamilyX86_64, 8, "rip", 0},
	Arm:      {"arm", FamilyArm, 4, "pc", 2},
	ArmV5:    {"armv5", FamilyArm, 4, "pc", 2},
	ArmV6:    {"armv6", FamilyArm, 4, "pc", 2},
	ArmV6m:   {"armv6m", FamilyArm, 4, "pc", 2},
	ArmV7:    {"armv7", FamilyArm, 4, "pc", 2},
	ArmV7f:   {"armv7f", FamilyArm, 4, "pc", 2},
	ArmV7s:   {"armv7s", FamilyArm, 4, "pc", 2},
	ArmV7k:   {"armv7k", FamilyArm, 4, "pc", 2},
	ArmV7m:   {"armv7m", FamilyArm, 4, "pc", 2},
	ArmV7em:  {"armv7em", FamilyArm, 4, "pc", 2},
	Arm64:    {"arm64", FamilyArm64, 8, "pc", 4},
	Arm64e:   {"arm64e", FamilyArm64, 8, "pc", 4},
	Arm64_32: {"arm64_32", FamilyArm64, 4, "pc", 4},
	Ppc:      {"ppc", FamilyPpc, 4, "pc", 4},
	Ppc64:    {"ppc64", FamilyPpc, 8, "pc", 4},
	Mips:     {"mips", FamilyMips, 4, "pc", 4},
	Mips64:   {"mips64", FamilyMips, 8, "pc", 4},
	Wasm32:   {"wasm32", FamilyWasm, 4, "pc", 0},
	Wasm64:   {"wasm64", FamilyWasm, 8, "pc", 0},
}

// String returns the canonical architecture name, e.g. "x86_64" or "arm64e".
func (a Architecture) String() string {
	if i, ok := table[a]; ok {
		return i.name
	}
	return "unknown"
}

// Family returns the CPU family this architecture belongs to.
func (a Architecture) Family() CpuFamily {
	return table[a].family
}

// PointerSize returns the architecture's pointer width in bytes, or 0 if
// unknown.
func (a Architecture) PointerSize() int {
	return table[a].pointerSize
}

// InstructionPointerRegister names the register that holds the instruction
// pointer on this architecture.
func (a Architecture) InstructionPointerRegister() string {
	return table[a].ipRegister
}

// InstructionAlignment returns the architecture's minimum instruction
// alignment in bytes, or 0 for variable-length instruction sets (x86,
// x86_64, WASM) where no fixed alignment applies.
func (a Architecture) InstructionAlignment() int {
	return table[a].alignment
}

// Parse maps a canonical architecture name to an Architecture, returning
// Unknown if the name is not recognised.
func Parse(name string) Architecture {
	for a, i := range table {
		if i.name == name {
			return a
		}
	}
	return Unknown
}
