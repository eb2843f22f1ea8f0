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

package sourcemapcache

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/go-sourcemap/sourcemap"

	gosymerrors "github.com/jetsetilly/gosymbolic/errors"
	"github.com/jetsetilly/gosymbolic/logger"
)

// rawSourceMapJSON is the handful of top-level source map fields this
// package reads directly, alongside what go-sourcemap/sourcemap parses: the
// source and name lists (for building the file table) and the raw
// "mappings" field (to enumerate which minified positions have a mapping
// at all, since the library's public Consumer only resolves a position you
// already know to ask about).
type rawSourceMapJSON struct {
	Sources        []string `json:"sources"`
	SourcesContent []string `json:"sourcesContent"`
	Mappings       string   `json:"mappings"`
}

type mapping struct {
	Min  rawMinifiedPosition
	Orig rawOriginalLocation
}

// Writer builds a SourceMapCache from a minified file and its source map.
type Writer struct {
	hermes bool

	stringBytes []byte
	strings     map[string]uint32

	files       []rawFile
	lineOffsets []lineOffset

	mappings []mapping
}

// NewWriter creates an empty Writer.
func NewWriter() *Writer {
	return &Writer{strings: make(map[string]uint32)}
}

func (w *Writer) insertString(s string) uint32 {
	if s == "" {
		return sentinel
	}
	if offset, ok := w.strings[s]; ok {
		return offset
	}
	offset := uint32(len(w.stringBytes))
	var lenBuf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(lenBuf[:], uint64(len(s)))
	w.stringBytes = append(w.stringBytes, lenBuf[:n]...)
	w.stringBytes = append(w.stringBytes, s...)
	w.strings[s] = offset
	return offset
}

func (w *Writer) insertFile(name, source string) uint32 {
	start := uint32(len(w.lineOffsets))
	w.lineOffsets = appendLineOffsets(source, w.lineOffsets)
	end := uint32(len(w.lineOffsets))

	idx := uint32(len(w.files))
	w.files = append(w.files, rawFile{
		NameOffset:       w.insertString(name),
		SourceOffset:     w.insertString(source),
		LineOffsetsStart: start,
		LineOffsetsEnd:   end,
	})
	return idx
}

// Build parses sourceMapJSON and indexes every mapping it carries against
// minifiedSource, ready for Serialize. minifiedSource may be empty when the
// source map is a Hermes/Metro bundle map, which carries scope information
// of its own and ships no parseable JavaScript (Hermes ships bytecode).
func (w *Writer) Build(minifiedSource string, sourceMapJSON []byte) error {
	var rsm rawSourceMapJSON
	if err := json.Unmarshal(sourceMapJSON, &rsm); err != nil {
		return fmt.Errorf(gosymerrors.SourceMapDecodeError, err)
	}

	consumer, err := sourcemap.Parse("", sourceMapJSON)
	if err != nil {
		return fmt.Errorf(gosymerrors.SourceMapDecodeError, err)
	}

	w.hermes = isHermesSourceMap(sourceMapJSON)
	scopeSource := minifiedSource
	if w.hermes {
		scopeSource = ""
	}

	ranges, err := extractScopeNames(scopeSource)
	if err != nil {
		logger.Logf(logger.Allow, "sourcemapcache", "failed parsing minified source: %v", err)
		ranges = nil
	}
	ctx := newSourceContext(scopeSource)
	scopeIndex := buildScopeIndex(ranges, ctx)

	fileIdxByName := make(map[string]uint32, len(rsm.Sources))
	for i, name := range rsm.Sources {
		content := ""
		if i < len(rsm.SourcesContent) {
			content = rsm.SourcesContent[i]
		}
		fileIdxByName[name] = w.insertFile(name, content)
	}

	positions, err := decodeGeneratedPositions(rsm.Mappings)
	if err != nil {
		return fmt.Errorf(gosymerrors.SourceMapDecodeError, err)
	}

	seen := make(map[rawMinifiedPosition]bool, len(positions))
	for _, gp := range positions {
		min := rawMinifiedPosition{Line: uint32(gp.Line), Column: uint32(gp.Column)}
		if seen[min] {
			continue
		}

		// go-sourcemap/sourcemap's generated line is 1-based, matching the
		// convention browser devtools and V8 stack traces use; the
		// "mappings" field itself is 0-based per line, hence the +1 here.
		source, name, line, col, ok := consumer.Source(gp.Line+1, gp.Column)
		if !ok {
			continue
		}
		seen[min] = true

		fileIdx := sentinel
		if idx, known := fileIdxByName[source]; known {
			fileIdx = idx
		}

		nameIdx := w.insertString(name)

		scopeIdx := globalScopeSentinel
		switch scope := lookupScope(scopeIndex, min); scope.Kind {
		case scopeAnonymous:
			scopeIdx = anonymousScopeSentinel
		case scopeNamed:
			scopeIdx = w.insertString(scope.Name)
		}

		w.mappings = append(w.mappings, mapping{
			Min: min,
			Orig: rawOriginalLocation{
				FileIdx:  fileIdx,
				Line:     uint32(line),
				Column:   uint32(col),
				NameIdx:  nameIdx,
				ScopeIdx: scopeIdx,
			},
		})
	}

	sort.Slice(w.mappings, func(i, j int) bool { return w.mappings[i].Min.less(w.mappings[j].Min) })

	return nil
}

// Serialize writes the accumulated data as a SourceMapCache image.
func (w *Writer) Serialize(out io.Writer) error {
	flags := uint32(0)
	if w.hermes {
		flags |= flagHermes
	}

	ww := &byteCounter{w: out}

	if err := writeHeader(ww, flags, uint32(len(w.mappings)), uint32(len(w.files)), uint32(len(w.lineOffsets)), uint32(len(w.stringBytes))); err != nil {
		return err
	}
	if err := ww.pad(); err != nil {
		return err
	}

	for _, m := range w.mappings {
		if err := ww.writeUint32(m.Min.Line); err != nil {
			return err
		}
		if err := ww.writeUint32(m.Min.Column); err != nil {
			return err
		}
	}
	if err := ww.pad(); err != nil {
		return err
	}

	for _, m := range w.mappings {
		for _, v := range []uint32{m.Orig.FileIdx, m.Orig.Line, m.Orig.Column, m.Orig.NameIdx, m.Orig.ScopeIdx} {
			if err := ww.writeUint32(v); err != nil {
				return err
			}
		}
	}
	if err := ww.pad(); err != nil {
		return err
	}

	for _, f := range w.files {
		for _, v := range []uint32{f.NameOffset, f.SourceOffset, f.LineOffsetsStart, f.LineOffsetsEnd} {
			if err := ww.writeUint32(v); err != nil {
				return err
			}
		}
	}
	if err := ww.pad(); err != nil {
		return err
	}

	for _, lo := range w.lineOffsets {
		if err := ww.writeUint32(uint32(lo)); err != nil {
			return err
		}
	}
	if err := ww.pad(); err != nil {
		return err
	}

	return ww.writeBytes(w.stringBytes)
}

type byteCounter struct {
	w        io.Writer
	position int
}

func (b *byteCounter) writeBytes(p []byte) error {
	n, err := b.w.Write(p)
	b.position += n
	return err
}

func (b *byteCounter) writeUint32(v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	return b.writeBytes(buf[:])
}

func (b *byteCounter) pad() error {
	n := alignTo8(b.position)
	if n == 0 {
		return nil
	}
	return b.writeBytes(make([]byte, n))
}

func writeHeader(w *byteCounter, flags, numMappings, numFiles, numLineOffsets, stringBytesLen uint32) error {
	if err := w.writeUint32(Magic); err != nil {
		return err
	}
	if err := w.writeUint32(CurrentVersion); err != nil {
		return err
	}
	if err := w.writeUint32(flags); err != nil {
		return err
	}
	if err := w.writeUint32(numMappings); err != nil {
		return err
	}
	if err := w.writeUint32(numFiles); err != nil {
		return err
	}
	if err := w.writeUint32(numLineOffsets); err != nil {
		return err
	}
	if err := w.writeUint32(stringBytesLen); err != nil {
		return err
	}
	return w.writeBytes(make([]byte, 4)) // _reserved
}
