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

package functree_test

import (
	"testing"

	"github.com/jetsetilly/gosymbolic/debugsession"
	"github.com/jetsetilly/gosymbolic/functree"
	"github.com/jetsetilly/gosymbolic/lang"
	"github.com/jetsetilly/gosymbolic/objname"
	"github.com/jetsetilly/gosymbolic/test"
)

func line(addr, size uint64, file string, lineNo uint32) debugsession.LineInfo {
	return debugsession.LineInfo{
		Address: addr,
		Size:    size,
		HasSize: true,
		File:    debugsession.FileEntry{Name: file},
		Line:    lineNo,
	}
}

func name(n string) objname.Name {
	return objname.New(n, objname.Unknown, lang.Unknown)
}

func TestInlineeSimple(t *testing.T) {
	// 0x10 - 0x20: foo in foo.c on line 1
	// 0x20 - 0x40: bar in bar.c on line 1
	// - inlined into: foo in foo.c on line 2
	stack := functree.NewStack()
	stack.Push(0, debugsession.Function{
		Address: 0x10, Size: 0x30, HasSize: true,
		Name: name("foo"),
		Lines: []debugsession.LineInfo{
			line(0x10, 0x10, "foo.c", 1),
			line(0x20, 0x20, "foo.c", 2),
		},
	})
	stack.Push(1, debugsession.Function{
		Address: 0x20, Size: 0x20, HasSize: true,
		Name:   name("bar"),
		Lines:  []debugsession.LineInfo{line(0x20, 0x20, "bar.c", 1)},
		Inline: true,
	})

	var functions []debugsession.Function
	stack.Flush(0, &functions)

	test.Equate(t, len(functions), 1)
	f := functions[0]
	test.Equate(t, f.Name.String(), "foo")
	test.Equate(t, f.Lines, []debugsession.LineInfo{
		line(0x10, 0x10, "foo.c", 1),
		line(0x20, 0x20, "foo.c", 2),
	})

	test.Equate(t, len(f.Inlinees), 1)
	test.Equate(t, f.Inlinees[0].Name.String(), "bar")
	test.Equate(t, f.Inlinees[0].Lines, []debugsession.LineInfo{line(0x20, 0x20, "bar.c", 1)})
}

func TestNormalizeLinesSplit(t *testing.T) {
	// 0x10 - 0x20: foo in foo.c on line 1
	// 0x20 - 0x30: bar in bar.c on line 1, inlined into foo.c line 1
	// 0x30 - 0x40: foo in foo.c on line 1
	stack := functree.NewStack()
	stack.Push(0, debugsession.Function{
		Address: 0x10, Size: 0x30, HasSize: true,
		Name:  name("foo"),
		Lines: []debugsession.LineInfo{line(0x10, 0x30, "foo.c", 1)},
	})
	stack.Push(1, debugsession.Function{
		Address: 0x20, Size: 0x20, HasSize: true,
		Name:   name("bar"),
		Lines:  []debugsession.LineInfo{line(0x20, 0x10, "bar.c", 1)},
		Inline: true,
	})

	var functions []debugsession.Function
	stack.Flush(0, &functions)

	test.Equate(t, len(functions), 1)
	f := functions[0]
	test.Equate(t, f.Name.String(), "foo")
	test.Equate(t, f.Lines, []debugsession.LineInfo{
		line(0x10, 0x10, "foo.c", 1),
		line(0x20, 0x10, "foo.c", 1),
		line(0x30, 0x10, "foo.c", 1),
	})

	test.Equate(t, len(f.Inlinees), 1)
	test.Equate(t, f.Inlinees[0].Name.String(), "bar")
	test.Equate(t, f.Inlinees[0].Lines, []debugsession.LineInfo{line(0x20, 0x10, "bar.c", 1)})
}

func TestInlineeComplex(t *testing.T) {
	// addr:    0x10 0x20 0x30 0x40 0x50 0x60
	//          v    v    v    v    v    v
	// parent:  |------------------------| (parent.c line 1)
	// child1:       |--------------|      (child1.c line 1)
	// child2:            |----|           (child2.c line 1)
	//                         |----|      (child2.c line 2)
	stack := functree.NewStack()
	stack.Push(0, debugsession.Function{
		Address: 0x10, Size: 0x50, HasSize: true,
		Name:  name("parent"),
		Lines: []debugsession.LineInfo{line(0x10, 0x50, "parent.c", 1)},
	})
	stack.Push(1, debugsession.Function{
		Address: 0x20, Size: 0x30, HasSize: true,
		Name:   name("child1"),
		Lines:  []debugsession.LineInfo{line(0x20, 0x30, "child1.c", 1)},
		Inline: true,
	})
	stack.Push(2, debugsession.Function{
		Address: 0x30, Size: 0x20, HasSize: true,
		Name: name("child2"),
		Lines: []debugsession.LineInfo{
			line(0x30, 0x10, "child2.c", 1),
			line(0x40, 0x10, "child2.c", 2),
		},
		Inline: true,
	})

	var functions []debugsession.Function
	stack.Flush(0, &functions)

	test.Equate(t, len(functions), 1)
	f := functions[0]
	test.Equate(t, f.Name.String(), "parent")
	test.Equate(t, f.Lines, []debugsession.LineInfo{
		line(0x10, 0x10, "parent.c", 1),
		line(0x20, 0x10, "parent.c", 1),
		line(0x30, 0x10, "parent.c", 1),
		line(0x40, 0x10, "parent.c", 1),
		line(0x50, 0x10, "parent.c", 1),
	})

	test.Equate(t, len(f.Inlinees), 1)
	child1 := f.Inlinees[0]
	test.Equate(t, child1.Name.String(), "child1")
	test.Equate(t, child1.Lines, []debugsession.LineInfo{
		line(0x20, 0x10, "child1.c", 1),
		line(0x30, 0x10, "child1.c", 1),
		line(0x40, 0x10, "child1.c", 1),
	})

	test.Equate(t, len(child1.Inlinees), 1)
	child2 := child1.Inlinees[0]
	test.Equate(t, child2.Name.String(), "child2")
	test.Equate(t, child2.Lines, []debugsession.LineInfo{
		line(0x30, 0x10, "child2.c", 1),
		line(0x40, 0x10, "child2.c", 2),
	})
}
