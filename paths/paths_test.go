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

package paths_test

import (
	"testing"

	"github.com/jetsetilly/gosymbolic/paths"
	"github.com/jetsetilly/gosymbolic/test"
)

func TestJoinPath(t *testing.T) {
	test.Equate(t, paths.JoinPath("/a/b", "c"), "/a/b/c")
	test.Equate(t, paths.JoinPath(`C:\a\b`, "c"), `C:\a\b\c`)
	test.Equate(t, paths.JoinPath(`C:\a\b`, `c\d`), `C:\a\b\c\d`)
	test.Equate(t, paths.JoinPath("/a/b", "/c/d"), "/c/d")
	test.Equate(t, paths.JoinPath(`C:\a\b`, `D:\c\d`), `D:\c\d`)
	test.Equate(t, paths.JoinPath(`C:\a\b`, `\c\d`), `C:\c\d`)
	test.Equate(t, paths.JoinPath("", "c"), "c")
	test.Equate(t, paths.JoinPath("/a/b", ""), "/a/b")
	test.Equate(t, paths.JoinPath("/a/b", "<stdin>"), "<stdin>")
}

func TestCleanPath(t *testing.T) {
	test.Equate(t, paths.CleanPath("/a/./b/../c"), "/a/c")
	test.Equate(t, paths.CleanPath("a/b/../../c"), "c")
	test.Equate(t, paths.CleanPath("../a/b"), "../a/b")
	test.Equate(t, paths.CleanPath(`C:\a\.\b\..\c`), `C:\a\c`)
	test.Equate(t, paths.CleanPath("a/../../b"), "../b")
	test.Equate(t, paths.CleanPath("./a/b"), "a/b")
}

func TestSplitPath(t *testing.T) {
	dir, name := paths.SplitPath("/a/b/c.rs")
	test.Equate(t, dir, "/a/b")
	test.Equate(t, name, "c.rs")

	dir, name = paths.SplitPath(`C:\a\b\c.rs`)
	test.Equate(t, dir, `C:\a\b`)
	test.Equate(t, name, "c.rs")

	dir, name = paths.SplitPath("/c.rs")
	test.Equate(t, dir, "/")
	test.Equate(t, name, "c.rs")

	dir, name = paths.SplitPath("c.rs")
	test.Equate(t, dir, "")
	test.Equate(t, name, "c.rs")
}

func TestShortenPath(t *testing.T) {
	full := "/very/long/path/to/some/deeply/nested/source/file.rs"

	short := paths.ShortenPath(full, 20)
	if len(short) > 20 {
		t.Errorf("shortened path exceeds requested length: %q (%d)", short, len(short))
	}

	// a path already within the limit is returned unchanged
	test.Equate(t, paths.ShortenPath("/a/b.rs", 20), "/a/b.rs")
}
