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
	"fmt"
	"strings"

	"github.com/jetsetilly/gosymbolic/debugsession"
	gosymerrors "github.com/jetsetilly/gosymbolic/errors"
	"github.com/jetsetilly/gosymbolic/paths"
)

// perforceEntry is one source-file mapping recovered from a PDB's SRCSRV
// stream.
type perforceEntry struct {
	depotPath string
	revision  string
}

// Perforce rewrites local build paths recorded in a PDB's debug session to
// the Perforce depot path and revision the build was checked out at,
// using the path table embedded in the PDB's SRCSRV stream.
type Perforce struct {
	pathMap map[string]perforceEntry
}

// ParsePerforceSrcsrv parses the text of a PDB SRCSRV stream. It returns
// an error if the stream's VERCTRL variable is not "Perforce", or if no
// source file entries could be recovered.
//
// SRCSRV format: a "SRCSRV: variables" section (VERCTRL=... among others)
// followed by a "SRCSRV: source files" section of
// "local_path*server_var*depot_path*revision" lines, terminated by
// "SRCSRV: end".
func ParsePerforceSrcsrv(data string) (*Perforce, error) {
	if !isPerforceSrcsrv(data) {
		return nil, fmt.Errorf(gosymerrors.SrcsrvError, "VERCTRL is not Perforce")
	}

	pathMap := make(map[string]perforceEntry)
	inFiles := false

	for _, line := range strings.Split(data, "\n") {
		line = strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(line, "SRCSRV: source files"):
			inFiles = true
			continue
		case strings.HasPrefix(line, "SRCSRV: end"):
			inFiles = false
			continue
		case strings.HasPrefix(line, "SRCSRV:"):
			inFiles = false
			continue
		}

		if !inFiles || line == "" {
			continue
		}

		parts := strings.Split(line, "*")
		if len(parts) < 4 {
			continue
		}

		localPath := parts[0]
		depotPath := parts[2]
		revision := parts[3]

		if !strings.HasPrefix(depotPath, "//") {
			depotPath = "//" + depotPath
		}

		pathMap[normalizePerforcePath(localPath)] = perforceEntry{depotPath: depotPath, revision: revision}
	}

	if len(pathMap) == 0 {
		return nil, fmt.Errorf(gosymerrors.SrcsrvError, "no source file entries found")
	}

	return &Perforce{pathMap: pathMap}, nil
}

func isPerforceSrcsrv(data string) bool {
	for _, line := range strings.Split(data, "\n") {
		line = strings.TrimSpace(line)
		if value, ok := strings.CutPrefix(line, "VERCTRL="); ok {
			return strings.EqualFold(strings.TrimSpace(value), "Perforce")
		}
	}
	return false
}

func normalizePerforcePath(p string) string {
	return strings.ToLower(strings.ReplaceAll(p, `\`, "/"))
}

// remap tries the full comp_dir+directory+name path, then the path
// without comp_dir, then the bare file name, returning the first match.
func (t *Perforce) remap(file debugsession.FileEntry) (perforceEntry, bool) {
	full := paths.JoinPath(file.CompDir, paths.JoinPath(file.Directory, file.Name))
	if e, ok := t.pathMap[normalizePerforcePath(paths.CleanPath(full))]; ok {
		return e, true
	}

	withoutCompDir := paths.JoinPath(file.Directory, file.Name)
	if e, ok := t.pathMap[normalizePerforcePath(paths.CleanPath(withoutCompDir))]; ok {
		return e, true
	}

	if e, ok := t.pathMap[normalizePerforcePath(file.Name)]; ok {
		return e, true
	}

	return perforceEntry{}, false
}

// TransformFunction is a no-op: Perforce path rewriting only concerns
// source locations.
func (t *Perforce) TransformFunction(f debugsession.Function) debugsession.Function {
	return f
}

// TransformSourceLocation rewrites file's name to "basename@revision" and
// its directory to the depot directory (without the leading "//"), if a
// mapping for it was found. comp_dir is cleared either way it matched,
// since the depot path is now self-contained.
func (t *Perforce) TransformSourceLocation(file debugsession.FileEntry, line uint32) (debugsession.FileEntry, uint32) {
	entry, ok := t.remap(file)
	if !ok {
		return file, line
	}

	idx := strings.LastIndex(entry.depotPath, "/")
	if idx < 0 {
		file.Name = fmt.Sprintf("%s@%s", strings.TrimPrefix(entry.depotPath, "//"), entry.revision)
		file.Directory = ""
		file.CompDir = ""
		return file, line
	}

	directory := strings.TrimPrefix(entry.depotPath[:idx], "//")
	filename := strings.TrimPrefix(entry.depotPath[idx:], "/")

	file.Name = fmt.Sprintf("%s@%s", filename, entry.revision)
	file.Directory = directory
	file.CompDir = ""
	return file, line
}
