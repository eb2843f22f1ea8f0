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

package lang_test

import (
	"testing"

	"github.com/jetsetilly/gosymbolic/lang"
	"github.com/jetsetilly/gosymbolic/test"
)

func TestParseRoundTrip(t *testing.T) {
	for _, l := range []lang.Language{lang.C, lang.Cpp, lang.Go, lang.Rust, lang.Swift} {
		test.Equate(t, lang.Parse(l.String()), l)
	}
}

func TestUnknown(t *testing.T) {
	test.Equate(t, lang.Parse("cobol"), lang.Unknown)
	test.Equate(t, lang.Unknown.String(), "unknown")
}

func TestFromDwarf(t *testing.T) {
	test.Equate(t, lang.FromDwarf(0x0016), lang.Go)
	test.Equate(t, lang.FromDwarf(0x001c), lang.Rust)
	test.Equate(t, lang.FromDwarf(0xffff), lang.Unknown)
}
