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

package transform_test

import (
	"testing"

	"github.com/jetsetilly/gosymbolic/debugsession"
	"github.com/jetsetilly/gosymbolic/objname"
	"github.com/jetsetilly/gosymbolic/test"
	"github.com/jetsetilly/gosymbolic/transform"
)

func TestBCSymbolMapTest(t *testing.T) {
	test.Equate(t, transform.TestBCSymbolMap([]byte("BCSymbolMap Vers")), true)
	test.Equate(t, transform.TestBCSymbolMap([]byte("oops")), false)
}

func TestBCSymbolMapParseAndResolve(t *testing.T) {
	data := "BCSymbolMap Version: 2.0\n" +
		"-[SentryMessage initWithFormatted:]\n" +
		"-[SentryMessage setMessage:]\n" +
		"-[SentryMessage serialize]\n"

	m, err := transform.ParseBCSymbolMap([]byte(data))
	test.ExpectSuccess(t, err)

	name, ok := m.Get(2)
	test.Equate(t, ok, true)
	test.Equate(t, name, "-[SentryMessage serialize]")

	test.Equate(t, m.Resolve("normal_name"), "normal_name")
	test.Equate(t, m.Resolve("__hidden#2_"), "-[SentryMessage serialize]")
	test.Equate(t, m.Resolve("__hidden#99_"), "__hidden#99_")
}

func TestBCSymbolMapRejectsBadHeader(t *testing.T) {
	_, err := transform.ParseBCSymbolMap([]byte("not a symbol map\nfoo\n"))
	test.ExpectFailure(t, err)
}

func TestBCSymbolMapTransformFunction(t *testing.T) {
	data := "BCSymbolMap Version: 2.0\n-[SentryMessage serialize]\n"
	m, err := transform.ParseBCSymbolMap([]byte(data))
	test.ExpectSuccess(t, err)

	fn := debugsession.Function{Name: objname.New("__hidden#0_", objname.Mangled, 0)}
	fn = m.TransformFunction(fn)
	test.Equate(t, fn.Name.String(), "-[SentryMessage serialize]")
}

func TestIl2CppLookup(t *testing.T) {
	data := `{
		"Assembly-CSharp.cpp": [
			{"cppLineStart": 100, "cppLineEnd": 110, "sourceFile": "Foo.cs", "sourceLine": 10}
		]
	}`

	m, err := transform.ParseIl2CppMappings([]byte(data))
	test.ExpectSuccess(t, err)

	file, line := m.TransformSourceLocation(debugsession.FileEntry{Name: "Assembly-CSharp.cpp"}, 105)
	test.Equate(t, file.Name, "Foo.cs")
	test.Equate(t, line, uint32(15))

	file, line = m.TransformSourceLocation(debugsession.FileEntry{Name: "Assembly-CSharp.cpp"}, 200)
	test.Equate(t, file.Name, "Assembly-CSharp.cpp")
	test.Equate(t, line, uint32(200))
}

func TestPerforceRejectsNonPerforceSrcsrv(t *testing.T) {
	data := "SRCSRV: variables\nVERCTRL=TFS\nSRCSRV: end\n"
	_, err := transform.ParsePerforceSrcsrv(data)
	test.ExpectFailure(t, err)
}

func TestPerforceRemapsPath(t *testing.T) {
	data := "SRCSRV: variables\n" +
		"VERCTRL=Perforce\n" +
		"SRCSRV: source files\n" +
		`C:\build\game\src\main.cpp*P4_CUSTOM_EDGE*depot/game/src/main.cpp*42` + "\n" +
		"SRCSRV: end\n"

	p, err := transform.ParsePerforceSrcsrv(data)
	test.ExpectSuccess(t, err)

	file := debugsession.FileEntry{
		CompDir:   `C:\build`,
		Directory: `game\src`,
		Name:      "main.cpp",
	}
	file, _ = p.TransformSourceLocation(file, 0)
	test.Equate(t, file.Name, "main.cpp@42")
	test.Equate(t, file.Directory, "depot/game/src")
	test.Equate(t, file.CompDir, "")
}

func TestPerforceLeavesUnmatchedPathUnchanged(t *testing.T) {
	data := "SRCSRV: variables\n" +
		"VERCTRL=Perforce\n" +
		"SRCSRV: source files\n" +
		`C:\build\game\src\main.cpp*P4_CUSTOM_EDGE*depot/game/src/main.cpp*42` + "\n" +
		"SRCSRV: end\n"

	p, err := transform.ParsePerforceSrcsrv(data)
	test.ExpectSuccess(t, err)

	file := debugsession.FileEntry{Name: "unrelated.cpp"}
	got, _ := p.TransformSourceLocation(file, 7)
	test.Equate(t, got.Name, "unrelated.cpp")
}

func TestChainAppliesInOrder(t *testing.T) {
	data := "BCSymbolMap Version: 2.0\n-[SentryMessage serialize]\n"
	bc, err := transform.ParseBCSymbolMap([]byte(data))
	test.ExpectSuccess(t, err)

	il2cppData := `{"a.cpp": [{"cppLineStart": 1, "cppLineEnd": 1, "sourceFile": "a.cs", "sourceLine": 1}]}`
	il2cpp, err := transform.ParseIl2CppMappings([]byte(il2cppData))
	test.ExpectSuccess(t, err)

	chain := transform.Chain{bc, il2cpp}

	fn := chain.TransformFunction(debugsession.Function{Name: objname.New("__hidden#0_", objname.Mangled, 0)})
	test.Equate(t, fn.Name.String(), "-[SentryMessage serialize]")

	file, line := chain.TransformSourceLocation(debugsession.FileEntry{Name: "a.cpp"}, 1)
	test.Equate(t, file.Name, "a.cs")
	test.Equate(t, line, uint32(1))
}
