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
	"encoding/json"
	"fmt"

	"github.com/jetsetilly/gosymbolic/debugsession"
	gosymerrors "github.com/jetsetilly/gosymbolic/errors"
)

// il2cppLineEntry is one row of a Unity IL2CPP LineNumberMappings.json
// file: a span of lines in the generated C++ file, and the managed
// source position that span was transpiled from. The exact field names
// Unity's toolchain emits are not available in this module's reference
// material, so this mirrors the widely-documented shape of the format
// rather than a verified schema.
type il2cppLineEntry struct {
	CppLineStart uint32 `json:"cppLineStart"`
	CppLineEnd   uint32 `json:"cppLineEnd"`
	SourceFile   string `json:"sourceFile"`
	SourceLine   uint32 `json:"sourceLine"`
}

// il2cppMappingsFile is LineNumberMappings.json: per generated C++ file,
// the list of managed-line spans found in it.
type il2cppMappingsFile map[string][]il2cppLineEntry

// Il2Cpp rewrites (file, line) pairs emitted against IL2CPP-generated C++
// back to the managed C# source they were transpiled from.
type Il2Cpp struct {
	byCppFile map[string][]il2cppLineEntry
}

// ParseIl2CppMappings parses a LineNumberMappings.json document.
func ParseIl2CppMappings(data []byte) (*Il2Cpp, error) {
	var raw il2cppMappingsFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf(gosymerrors.Il2CppMapError, err)
	}
	return &Il2Cpp{byCppFile: raw}, nil
}

// lookup returns the managed (file, line) that cppLine in cppFile maps
// to, if any entry's span covers it.
func (t *Il2Cpp) lookup(cppFile string, cppLine uint32) (string, uint32, bool) {
	entries, ok := t.byCppFile[cppFile]
	if !ok {
		return "", 0, false
	}
	for _, e := range entries {
		if cppLine < e.CppLineStart || cppLine > e.CppLineEnd {
			continue
		}
		offset := cppLine - e.CppLineStart
		return e.SourceFile, e.SourceLine + offset, true
	}
	return "", 0, false
}

// TransformFunction is a no-op: IL2CPP's line mapping only concerns
// individual line records, not the enclosing function.
func (t *Il2Cpp) TransformFunction(f debugsession.Function) debugsession.Function {
	return f
}

// TransformSourceLocation rewrites file and line to their managed-source
// equivalent, if the generated C++ file has a recorded mapping covering
// line. Only the file's name is rewritten; directory and comp_dir, which
// describe the C++ build tree, no longer apply to the managed source and
// are cleared.
func (t *Il2Cpp) TransformSourceLocation(file debugsession.FileEntry, line uint32) (debugsession.FileEntry, uint32) {
	sourceFile, sourceLine, ok := t.lookup(file.Name, line)
	if !ok {
		return file, line
	}
	file.Name = sourceFile
	file.Directory = ""
	file.CompDir = ""
	return file, sourceLine
}
