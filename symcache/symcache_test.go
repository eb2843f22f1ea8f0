package symcache_test

import (
	"bytes"
	"testing"

	"github.com/jetsetilly/gosymbolic/arch"
	"github.com/jetsetilly/gosymbolic/debugid"
	"github.com/jetsetilly/gosymbolic/debugsession"
	"github.com/jetsetilly/gosymbolic/functree"
	"github.com/jetsetilly/gosymbolic/objname"
	"github.com/jetsetilly/gosymbolic/symcache"
	"github.com/jetsetilly/gosymbolic/test"
	"github.com/jetsetilly/gosymbolic/transform"
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
	return objname.New(n, objname.Unmangled, 0)
}

func buildCache(t *testing.T, functions []debugsession.Function) *symcache.Cache {
	w := symcache.NewWriter()
	w.SetArch(arch.X86_64)
	w.SetDebugID(debugid.New(debugid.Nil.UUID(), 1))

	for _, f := range functions {
		w.ProcessSymbolicFunction(f)
	}

	var buf bytes.Buffer
	err := w.Serialize(&buf)
	test.ExpectSuccess(t, err)

	c, err := symcache.Parse(buf.Bytes())
	test.ExpectSuccess(t, err)
	return c
}

func chainNames(c *symcache.Cache, addr uint64) []string {
	var names []string
	it := c.Lookup(addr)
	for {
		loc, ok := it.Next()
		if !ok {
			break
		}
		fn, _ := loc.Function()
		names = append(names, fn.Name)
	}
	return names
}

// TestOverlappingSiblingInlinees ports scenario S3: a synthetic function
// "outer" covering [0x1000, 0x1030) with a single line at parent.c:5,
// inlinee "inlineeA" covering [0x1010, 0x1020) at line 20, inlinee
// "inlineeB" covering [0x1000, 0x1030) with two sub-lines.
func TestOverlappingSiblingInlinees(t *testing.T) {
	outer := debugsession.Function{
		Address: 0x1000, Size: 0x30, HasSize: true,
		Name:  name("outer"),
		Lines: []debugsession.LineInfo{line(0x1000, 0x30, "parent.c", 5)},
	}
	inlineeA := debugsession.Function{
		Address: 0x1010, Size: 0x10, HasSize: true,
		Name:   name("inlineeA"),
		Inline: true,
		Lines:  []debugsession.LineInfo{line(0x1010, 0x10, "parent.c", 20)},
	}
	inlineeB := debugsession.Function{
		Address: 0x1000, Size: 0x30, HasSize: true,
		Name:   name("inlineeB"),
		Inline: true,
		Lines: []debugsession.LineInfo{
			line(0x1000, 0x10, "main.rs", 40),
			line(0x1020, 0x10, "main.rs", 42),
		},
	}

	// feed the assembler a flat depth-tagged stream, as a debug session
	// would, to get the same nesting the writer expects. Flushing depth 1
	// before the second push makes inlineeA and inlineeB siblings.
	stack := functree.NewStack()
	var top []debugsession.Function
	stack.Push(0, outer)
	stack.Push(1, inlineeA)
	stack.Flush(1, &top)
	stack.Push(1, inlineeB)
	stack.Flush(0, &top)

	c := buildCache(t, top)

	test.Equate(t, chainNames(c, 0x1010), []string{"inlineeA", "outer"})
	test.Equate(t, chainNames(c, 0x1000), []string{"inlineeB", "outer"})
}

func TestSingleFunctionLookup(t *testing.T) {
	fn := debugsession.Function{
		Address: 0x2000, Size: 0x10, HasSize: true,
		Name:  name("main"),
		Lines: []debugsession.LineInfo{line(0x2000, 0x10, "crash.c", 42)},
	}

	c := buildCache(t, []debugsession.Function{fn})

	names := chainNames(c, 0x2004)
	test.Equate(t, len(names), 1)
	test.Equate(t, names[0], "main")

	it := c.Lookup(0x5000)
	_, ok := it.Next()
	test.Equate(t, ok, false)
}

func TestDebugIDAndArchRoundTrip(t *testing.T) {
	fn := debugsession.Function{
		Address: 0x100, Size: 0x10, HasSize: true,
		Name:  name("f"),
		Lines: []debugsession.LineInfo{line(0x100, 0x10, "f.c", 1)},
	}
	c := buildCache(t, []debugsession.Function{fn})
	test.Equate(t, c.DebugID(), debugid.New(debugid.Nil.UUID(), 1))
	test.Equate(t, c.Arch(), arch.X86_64)
	test.Equate(t, c.Version(), symcache.CurrentVersion)
}

func TestBadMagicRejected(t *testing.T) {
	_, err := symcache.Parse([]byte("not a symcache file at all, way too short"))
	test.ExpectFailure(t, err)
}

func TestTransformAppliedBeforeInterning(t *testing.T) {
	bc, err := transform.ParseBCSymbolMap([]byte("BCSymbolMap Version: 2.0\nrealName\n"))
	test.ExpectSuccess(t, err)

	w := symcache.NewWriter()
	w.SetArch(arch.X86_64)
	w.AddTransform(bc)

	fn := debugsession.Function{
		Address: 0x3000, Size: 0x10, HasSize: true,
		Name:  name("__hidden#0_"),
		Lines: []debugsession.LineInfo{line(0x3000, 0x10, "obfuscated.c", 1)},
	}
	w.ProcessSymbolicFunction(fn)

	var buf bytes.Buffer
	test.ExpectSuccess(t, w.Serialize(&buf))

	c, err := symcache.Parse(buf.Bytes())
	test.ExpectSuccess(t, err)

	names := chainNames(c, 0x3004)
	test.Equate(t, len(names), 1)
	test.Equate(t, names[0], "realName")
}
