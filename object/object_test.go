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

package object_test

import (
	"testing"

	"github.com/jetsetilly/gosymbolic/object"
	"github.com/jetsetilly/gosymbolic/test"
)

func TestNewSymbolMapInfersSizeFromNextSymbol(t *testing.T) {
	m := object.NewSymbolMap([]object.Symbol{
		{Address: 0x2000, Name: "b", HasName: true},
		{Address: 0x1000, Name: "a", HasName: true},
		{Address: 0x3000, Name: "c", HasName: true, Size: 0x10, HasSize: true},
	})

	test.Equate(t, len(m), 3)
	test.Equate(t, m[0].Name, "a")
	test.Equate(t, m[0].Size, uint64(0x1000))
	test.Equate(t, m[1].Name, "b")
	test.Equate(t, m[1].Size, uint64(0x1000))
	test.Equate(t, m[2].Name, "c")
	test.Equate(t, m[2].Size, uint64(0x10))
}

func TestNewSymbolMapDedupesByAddress(t *testing.T) {
	m := object.NewSymbolMap([]object.Symbol{
		{Address: 0x1000, Name: "first", HasName: true},
		{Address: 0x1000, Name: "second", HasName: true},
	})

	test.Equate(t, len(m), 1)
	test.Equate(t, m[0].Name, "first")
}

func TestSymbolMapLookup(t *testing.T) {
	m := object.NewSymbolMap([]object.Symbol{
		{Address: 0x1000, Size: 0x10, HasSize: true, Name: "a", HasName: true},
		{Address: 0x1020, Size: 0x10, HasSize: true, Name: "b", HasName: true},
	})

	sym, ok := m.Lookup(0x1008)
	test.Equate(t, ok, true)
	test.Equate(t, sym.Name, "a")

	_, ok = m.Lookup(0x1018)
	test.Equate(t, ok, false)

	sym, ok = m.Lookup(0x1020)
	test.Equate(t, ok, true)
	test.Equate(t, sym.Name, "b")

	_, ok = m.Lookup(0x500)
	test.Equate(t, ok, false)
}

func TestFileFormatString(t *testing.T) {
	test.Equate(t, object.FormatPdb.String(), "pdb")
	test.Equate(t, object.FormatPortablePdb.String(), "portablepdb")
	test.Equate(t, object.FileFormat(99).String(), "unknown")
}
