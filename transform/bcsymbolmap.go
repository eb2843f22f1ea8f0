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

package transform

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/jetsetilly/gosymbolic/debugsession"
	gosymerrors "github.com/jetsetilly/gosymbolic/errors"
	"github.com/jetsetilly/gosymbolic/objname"
)

const bcSymbolMapHeader = "BCSymbolMap Version: 2.0"

// swiftHiddenPrefix is the obfuscated-name pattern Apple's bitcode
// recompilation step substitutes for every symbol: "__hidden#NNN_", where
// NNN is a 0-based index into the accompanying .bcsymbolmap file.
const swiftHiddenPrefix = "__hidden#"

// BCSymbolMap de-obfuscates Apple bitcode symbol names: a bitcode
// recompilation replaces every symbol with "__hidden#NNN_" and ships a
// side-car .bcsymbolmap file listing the Nth original name.
type BCSymbolMap struct {
	names []string
}

// TestBCSymbolMap reports whether data could be a .bcsymbolmap file, by
// checking as much of its header as data is long enough to contain.
func TestBCSymbolMap(data []byte) bool {
	pattern := []byte(bcSymbolMapHeader)
	if len(pattern) > len(data) {
		pattern = pattern[:len(data)]
	}
	return bytes.HasPrefix(data, pattern)
}

// ParseBCSymbolMap parses data as a .bcsymbolmap file: an exact header
// line followed by one original name per line.
func ParseBCSymbolMap(data []byte) (*BCSymbolMap, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf(gosymerrors.BCSymbolMapScan, "not valid UTF-8")
	}

	lines := strings.Split(string(data), "\n")
	if len(lines) == 0 {
		return nil, fmt.Errorf(gosymerrors.BCSymbolMapScan, "empty file")
	}

	header := strings.TrimRight(lines[0], "\r")
	if header != bcSymbolMapHeader {
		return nil, fmt.Errorf(gosymerrors.BCSymbolMapScan, "no valid BCSymbolMap header found")
	}

	names := make([]string, 0, len(lines)-1)
	for _, line := range lines[1:] {
		names = append(names, strings.TrimRight(line, "\r"))
	}
	// a trailing newline in the source file produces one spurious empty
	// trailing entry; drop it rather than let it shift every later index
	if len(names) > 0 && names[len(names)-1] == "" {
		names = names[:len(names)-1]
	}

	return &BCSymbolMap{names: names}, nil
}

// Get returns the index'th original name, if any.
func (m *BCSymbolMap) Get(index int) (string, bool) {
	if index < 0 || index >= len(m.names) {
		return "", false
	}
	return m.names[index], true
}

// Resolve returns name's original form if it matches the "__hidden#NNN_"
// pattern and NNN is a valid index into this map; otherwise it returns
// name unchanged.
func (m *BCSymbolMap) Resolve(name string) string {
	tail, ok := strings.CutPrefix(name, swiftHiddenPrefix)
	if !ok {
		return name
	}
	indexStr, ok := strings.CutSuffix(tail, "_")
	if !ok {
		return name
	}
	index, err := strconv.Atoi(indexStr)
	if err != nil {
		return name
	}
	if resolved, ok := m.Get(index); ok {
		return resolved
	}
	return name
}

// TransformFunction resolves f's obfuscated name, if any.
func (m *BCSymbolMap) TransformFunction(f debugsession.Function) debugsession.Function {
	resolved := m.Resolve(f.Name.String())
	if resolved != f.Name.String() {
		f.Name = objname.New(resolved, f.Name.Mangling(), f.Name.Language())
	}
	return f
}

// TransformSourceLocation is a no-op: a bitcode symbol map carries no
// source-file information, only de-obfuscated symbol names.
func (m *BCSymbolMap) TransformSourceLocation(file debugsession.FileEntry, line uint32) (debugsession.FileEntry, uint32) {
	return file, line
}
