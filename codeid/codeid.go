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

// Package codeid carries the code identifier some object formats expose
// alongside their debug id: an opaque value (a COFF timestamp+size pair
// for PE, an ELF build-id note, a Mach-O LC_UUID) that identifies the
// executable code itself rather than the debug information describing it.
// Not every format supplies one.
package codeid

import "strings"

// CodeId is an opaque, lowercase-hex identifier. The zero value represents
// "absent": not every object format supplies a code id.
type CodeId string

// New normalizes raw hex digits (which may come from the parser in mixed
// case) into a CodeId.
func New(hexDigits string) CodeId {
	return CodeId(strings.ToLower(hexDigits))
}

// IsNil reports whether the CodeId is absent.
func (c CodeId) IsNil() bool {
	return c == ""
}

// String returns the lowercase hex representation.
func (c CodeId) String() string {
	return string(c)
}
