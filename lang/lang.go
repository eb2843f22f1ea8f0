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

// Package lang names the source language a function or symbol was compiled
// from, as recorded by DWARF DW_AT_language codes, PDB compiland records,
// or a format-specific default.
package lang

// Language identifies the source language of a function, as far as the
// debug format is willing to say.
type Language int

const (
	Unknown Language = iota
	C
	Cpp
	D
	Go
	ObjC
	ObjCpp
	Rust
	Swift
	CSharp
	FSharp
	VisualBasic
)

var names = map[Language]string{
	Unknown:     "unknown",
	C:           "c",
	Cpp:         "cpp",
	D:           "d",
	Go:          "go",
	ObjC:        "objc",
	ObjCpp:      "objcpp",
	Rust:        "rust",
	Swift:       "swift",
	CSharp:      "csharp",
	FSharp:      "fsharp",
	VisualBasic: "visualbasic",
}

// String returns the canonical lowercase language name.
func (l Language) String() string {
	if s, ok := names[l]; ok {
		return s
	}
	return "unknown"
}

// Parse maps a canonical language name to a Language, returning Unknown for
// anything it does not recognise.
func Parse(name string) Language {
	for l, s := range names {
		if s == name {
			return l
		}
	}
	return Unknown
}

// FromDwarf maps a DWARF DW_AT_language constant to a Language. Only the
// codes this module's debug-session implementations actually emit are
// covered; anything else maps to Unknown.
func FromDwarf(code uint64) Language {
	switch code {
	case 0x0001, 0x0002: // DW_LANG_C, DW_LANG_C89
		return C
	case 0x0004, 0x0021, 0x002e: // DW_LANG_C_plus_plus and revisions
		return Cpp
	case 0x0013: // DW_LANG_D
		return D
	case 0x0016: // DW_LANG_Go
		return Go
	case 0x0010: // DW_LANG_ObjC
		return ObjC
	case 0x0011: // DW_LANG_ObjC_plus_plus
		return ObjCpp
	case 0x001c: // DW_LANG_Rust
		return Rust
	case 0x001e: // DW_LANG_Swift
		return Swift
	default:
		return Unknown
	}
}
