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

package objname_test

import (
	"testing"

	"github.com/jetsetilly/gosymbolic/lang"
	"github.com/jetsetilly/gosymbolic/objname"
	"github.com/jetsetilly/gosymbolic/test"
)

func TestName(t *testing.T) {
	n := objname.New("_ZN3foo3barEv", objname.Mangled, lang.Cpp)
	test.Equate(t, n.String(), "_ZN3foo3barEv")
	test.Equate(t, n.Mangling(), objname.Mangled)
	test.Equate(t, n.Language(), lang.Cpp)
}

func TestUnknownMangling(t *testing.T) {
	n := objname.New("malloc", objname.Unknown, lang.C)
	test.Equate(t, n.Mangling(), objname.Unknown)
}
