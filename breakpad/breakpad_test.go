package breakpad_test

import (
	"strings"
	"testing"

	"github.com/jetsetilly/gosymbolic/breakpad"
	"github.com/jetsetilly/gosymbolic/test"
)

func TestParseModuleRecord(t *testing.T) {
	f, err := breakpad.Parse(strings.NewReader(
		"MODULE Linux x86_64 492E2DD23CC306CA9C494EEF1533A3810 crash\n"))
	test.ExpectSuccess(t, err)
	test.Equate(t, f.Module.OS, "Linux")
	test.Equate(t, f.Module.Arch, "x86_64")
	test.Equate(t, f.Module.Id, "492E2DD23CC306CA9C494EEF1533A3810")
	test.Equate(t, f.Module.Name, "crash")
}

func TestParseModuleRecordShortId(t *testing.T) {
	f, err := breakpad.Parse(strings.NewReader(
		"MODULE Linux x86_64 6216C672A8D33EC9CF4A1BAB8B29D00E libdispatch.so\n"))
	test.ExpectSuccess(t, err)
	test.Equate(t, f.Module.Id, "6216C672A8D33EC9CF4A1BAB8B29D00E")
	test.Equate(t, f.Module.Name, "libdispatch.so")
}

func TestParseFileRecord(t *testing.T) {
	f, err := breakpad.Parse(strings.NewReader(
		"MODULE Linux x86_64 492E2DD23CC306CA9C494EEF1533A3810 crash\n" +
			"FILE 37 /usr/include/libkern/i386/_OSByteOrder.h\n"))
	test.ExpectSuccess(t, err)
	test.Equate(t, len(f.Files), 1)
	test.Equate(t, f.Files[0].Id, uint64(37))
	test.Equate(t, f.Files[0].Name, "/usr/include/libkern/i386/_OSByteOrder.h")
}

func TestParseFileRecordSpace(t *testing.T) {
	f, err := breakpad.Parse(strings.NewReader(
		"MODULE Linux x86_64 492E2DD23CC306CA9C494EEF1533A3810 crash\n" +
			"FILE 38 /usr/local/src/filename with spaces.c\n"))
	test.ExpectSuccess(t, err)
	test.Equate(t, f.Files[0].Name, "/usr/local/src/filename with spaces.c")
}

func TestParseFuncRecord(t *testing.T) {
	f, err := breakpad.Parse(strings.NewReader(
		"MODULE Linux x86_64 492E2DD23CC306CA9C494EEF1533A3810 crash\n" +
			"FUNC 1730 1a 0 <name omitted>\n"))
	test.ExpectSuccess(t, err)
	test.Equate(t, len(f.Funcs), 1)
	fn := f.Funcs[0]
	test.Equate(t, fn.Multiple, false)
	test.Equate(t, fn.Address, uint64(5936))
	test.Equate(t, fn.Size, uint64(26))
	test.Equate(t, fn.ParameterSize, uint64(0))
	test.Equate(t, fn.Name, "<name omitted>")
}

func TestParseFuncRecordMultiple(t *testing.T) {
	f, err := breakpad.Parse(strings.NewReader(
		"MODULE Linux x86_64 492E2DD23CC306CA9C494EEF1533A3810 crash\n" +
			"FUNC m 1730 1a 0 <name omitted>\n"))
	test.ExpectSuccess(t, err)
	fn := f.Funcs[0]
	test.Equate(t, fn.Multiple, true)
	test.Equate(t, fn.Address, uint64(5936))
	test.Equate(t, fn.Size, uint64(26))
}

func TestParseFuncRecordWithLines(t *testing.T) {
	f, err := breakpad.Parse(strings.NewReader(
		"MODULE Linux x86_64 492E2DD23CC306CA9C494EEF1533A3810 crash\n" +
			"FILE 0 main.c\n" +
			"FUNC 1000 20 0 main\n" +
			"1000 10 10 0\n" +
			"1010 10 11 0\n"))
	test.ExpectSuccess(t, err)
	fn := f.Funcs[0]
	test.Equate(t, len(fn.Lines), 2)
	test.Equate(t, fn.Lines[0].Address, uint64(0x1000))
	test.Equate(t, fn.Lines[0].Line, uint32(10))
	test.Equate(t, fn.Lines[1].Address, uint64(0x1010))
	test.Equate(t, fn.Lines[1].Line, uint32(11))
}

func TestParsePublicRecord(t *testing.T) {
	f, err := breakpad.Parse(strings.NewReader(
		"MODULE Linux x86_64 492E2DD23CC306CA9C494EEF1533A3810 crash\n" +
			"PUBLIC 1730 0 exported_symbol\n"))
	test.ExpectSuccess(t, err)
	test.Equate(t, len(f.Publics), 1)
	test.Equate(t, f.Publics[0].Address, uint64(5936))
	test.Equate(t, f.Publics[0].Name, "exported_symbol")
}

func TestModuleRecordInvalidOS(t *testing.T) {
	_, err := breakpad.Parse(strings.NewReader(
		"MODULE Solaris x86_64 492E2DD23CC306CA9C494EEF1533A3810 crash\n"))
	test.ExpectFailure(t, err)
}

func TestTestProbe(t *testing.T) {
	test.Equate(t, breakpad.Test([]byte("MODULE Linux x86_64 0 a\n")), true)
	test.Equate(t, breakpad.Test([]byte("\x7fELF")), false)
}
