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

package cell_test

import (
	"strconv"
	"testing"

	"github.com/jetsetilly/gosymbolic/cell"
	"github.com/jetsetilly/gosymbolic/test"
)

func TestNew(t *testing.T) {
	c := cell.New("hello world", func(s string) string { return s })
	test.Equate(t, c.Get(), "hello world")
	test.Equate(t, c.Owner(), "hello world")
}

func TestTryNew(t *testing.T) {
	c, err := cell.TryNew("42", func(s string) (int, error) { return strconv.Atoi(s) })
	test.ExpectSuccess(t, err)
	test.Equate(t, c.Get(), 42)

	_, err = cell.TryNew("hello world", func(s string) (int, error) { return strconv.Atoi(s) })
	test.ExpectFailure(t, err)
}

func TestFromParts(t *testing.T) {
	c := cell.FromParts([]byte("owner"), "derived")
	test.Equate(t, c.Get(), "derived")
	test.Equate(t, string(c.Owner()), "owner")
}
