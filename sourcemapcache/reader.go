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
	"fmt"
	"os"
	"sort"

	"github.com/edsrzf/mmap-go"

	gosymerrors "github.com/jetsetilly/gosymbolic/errors"
)

// Cache is a parsed, read-only view over a SourceMapCache byte buffer.
type Cache struct {
	buf   []byte
	flags uint32

	mappingsOffset, numMappings   int
	locationsOffset               int
	filesOffset, numFiles         int
	lineOffsetsOffset, numOffsets int
	stringBytesOffset, stringLen  int
}

// Open memory-maps path and parses it as a SourceMapCache.
func Open(path string) (*Cache, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf(gosymerrors.SourceMapCacheReadError, err)
	}
	defer f.Close()

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf(gosymerrors.SourceMapCacheReadError, err)
	}

	return Parse([]byte(m))
}

// Parse reads buf as a SourceMapCache image.
func Parse(buf []byte) (*Cache, error) {
	if len(buf) < headerSize {
		return nil, fmt.Errorf(gosymerrors.SourceMapCacheReadError, "header too small")
	}

	magic := binary.LittleEndian.Uint32(buf[0:4])
	if magic == magicFlipped {
		return nil, fmt.Errorf(gosymerrors.SourceMapCacheReadError, "wrong endianness")
	}
	if magic != Magic {
		return nil, fmt.Errorf(gosymerrors.SourceMapCacheReadError, "bad file magic")
	}

	version := binary.LittleEndian.Uint32(buf[4:8])
	if version != CurrentVersion {
		return nil, fmt.Errorf(gosymerrors.SourceMapCacheReadError, fmt.Sprintf("unsupported version (%d)", version))
	}

	flags := binary.LittleEndian.Uint32(buf[8:12])
	numMappings := int(binary.LittleEndian.Uint32(buf[12:16]))
	numFiles := int(binary.LittleEndian.Uint32(buf[16:20]))
	numLineOffsets := int(binary.LittleEndian.Uint32(buf[20:24]))
	stringBytesLen := int(binary.LittleEndian.Uint32(buf[24:28]))

	offset := headerSize

	mappingsOffset := offset
	mappingsSize := minifiedPositionSize * numMappings
	offset += mappingsSize + alignTo8(mappingsSize)

	locationsOffset := offset
	locationsSize := originalLocationSize * numMappings
	offset += locationsSize + alignTo8(locationsSize)

	filesOffset := offset
	filesSize := fileRecordSize * numFiles
	offset += filesSize + alignTo8(filesSize)

	lineOffsetsOffset := offset
	lineOffsetsSize := lineOffsetSize * numLineOffsets
	offset += lineOffsetsSize + alignTo8(lineOffsetsSize)

	stringBytesOffset := offset
	expectedSize := stringBytesOffset + stringBytesLen
	if len(buf) < expectedSize {
		return nil, fmt.Errorf(gosymerrors.SourceMapCacheReadError, "buffer shorter than declared sections")
	}

	return &Cache{
		buf:   buf,
		flags: flags,

		mappingsOffset: mappingsOffset, numMappings: numMappings,
		locationsOffset: locationsOffset,
		filesOffset:     filesOffset, numFiles: numFiles,
		lineOffsetsOffset: lineOffsetsOffset, numOffsets: numLineOffsets,
		stringBytesOffset: stringBytesOffset, stringLen: stringBytesLen,
	}, nil
}

// IsHermes reports whether this cache was built from a Hermes/Metro bundle
// source map.
func (c *Cache) IsHermes() bool {
	return c.flags&flagHermes != 0
}

func (c *Cache) getString(offset uint32) (string, bool) {
	if offset == sentinel {
		return "", false
	}
	pos := int(offset)
	if pos < 0 || pos >= c.stringLen {
		return "", false
	}
	base := c.stringBytesOffset + pos

	length, n := binary.Uvarint(c.buf[base:])
	if n <= 0 {
		return "", false
	}
	dataStart := base + n
	if dataStart+int(length) > len(c.buf) {
		return "", false
	}
	return string(c.buf[dataStart : dataStart+int(length)]), true
}

func (c *Cache) readMinified(i int) rawMinifiedPosition {
	base := c.mappingsOffset + i*minifiedPositionSize
	return rawMinifiedPosition{
		Line:   binary.LittleEndian.Uint32(c.buf[base : base+4]),
		Column: binary.LittleEndian.Uint32(c.buf[base+4 : base+8]),
	}
}

func (c *Cache) readOriginal(i int) rawOriginalLocation {
	base := c.locationsOffset + i*originalLocationSize
	return rawOriginalLocation{
		FileIdx:  binary.LittleEndian.Uint32(c.buf[base : base+4]),
		Line:     binary.LittleEndian.Uint32(c.buf[base+4 : base+8]),
		Column:   binary.LittleEndian.Uint32(c.buf[base+8 : base+12]),
		NameIdx:  binary.LittleEndian.Uint32(c.buf[base+12 : base+16]),
		ScopeIdx: binary.LittleEndian.Uint32(c.buf[base+16 : base+20]),
	}
}

func (c *Cache) readFile(idx uint32) (rawFile, bool) {
	if int(idx) >= c.numFiles {
		return rawFile{}, false
	}
	base := c.filesOffset + int(idx)*fileRecordSize
	return rawFile{
		NameOffset:       binary.LittleEndian.Uint32(c.buf[base : base+4]),
		SourceOffset:     binary.LittleEndian.Uint32(c.buf[base+4 : base+8]),
		LineOffsetsStart: binary.LittleEndian.Uint32(c.buf[base+8 : base+12]),
		LineOffsetsEnd:   binary.LittleEndian.Uint32(c.buf[base+12 : base+16]),
	}, true
}

func (c *Cache) readLineOffset(idx uint32) (lineOffset, bool) {
	if int(idx) >= c.numOffsets {
		return 0, false
	}
	base := c.lineOffsetsOffset + int(idx)*lineOffsetSize
	return lineOffset(binary.LittleEndian.Uint32(c.buf[base : base+4])), true
}

// ScopeLookupResult classifies what scope a resolved location falls in.
type ScopeLookupResult int

const (
	// ScopeUnknown means no enclosing scope could be determined, including
	// genuinely top-level (global) code.
	ScopeUnknown ScopeLookupResult = iota
	// ScopeAnonymous means the location is inside a function expression
	// with no name this module could recover.
	ScopeAnonymous
	// ScopeNamed means the location is inside a function whose name is
	// available via SourceLocation.ScopeName.
	ScopeNamed
)

// File is a resolved original source file.
type File struct {
	Name      string
	Source    string
	HasSource bool

	cache       *Cache
	startOffset uint32
	endOffset   uint32
}

// Line returns the text of the given 0-based line number from this file's
// source, if the file's source was embedded in the cache.
func (f File) Line(n int) (string, bool) {
	if !f.HasSource {
		return "", false
	}
	from, ok := f.cache.readLineOffset(f.startOffset + uint32(n))
	if !ok {
		return "", false
	}
	to := uint32(len(f.Source))
	if next, ok := f.cache.readLineOffset(f.startOffset + uint32(n) + 1); ok && f.startOffset+uint32(n)+1 < f.endOffset {
		to = uint32(next)
	}
	if int(from) > int(to) || int(to) > len(f.Source) {
		return "", false
	}
	return f.Source[from:to], true
}

// SourceLocation is a resolved original position.
type SourceLocation struct {
	File      File
	HasFile   bool
	Line      uint32
	Column    uint32
	Name      string
	HasName   bool
	Scope     ScopeLookupResult
	ScopeName string
}

func (c *Cache) resolveFile(idx uint32) (File, bool) {
	rf, ok := c.readFile(idx)
	if !ok {
		return File{}, false
	}
	name, _ := c.getString(rf.NameOffset)
	source, hasSource := c.getString(rf.SourceOffset)
	return File{
		Name:        name,
		Source:      source,
		HasSource:   hasSource,
		cache:       c,
		startOffset: rf.LineOffsetsStart,
		endOffset:   rf.LineOffsetsEnd,
	}, true
}

// Lookup resolves a (line, column) position in the minified source to its
// original source location. line and column are 0-based, matching the
// convention every other accessor in this module uses.
func (c *Cache) Lookup(line, column uint32) (SourceLocation, bool) {
	if c.IsHermes() {
		column += hermesColumnAdjustment
	}
	sp := rawMinifiedPosition{Line: line, Column: column}

	i := sort.Search(c.numMappings, func(i int) bool { return !c.readMinified(i).less(sp) })
	if i == c.numMappings || c.readMinified(i) != sp {
		i--
	}
	if i < 0 {
		return SourceLocation{}, false
	}

	raw := c.readOriginal(i)

	loc := SourceLocation{Line: raw.Line, Column: raw.Column}
	if file, ok := c.resolveFile(raw.FileIdx); ok {
		loc.File = file
		loc.HasFile = true
	}
	if name, ok := c.getString(raw.NameIdx); ok {
		loc.Name = name
		loc.HasName = true
	}

	switch raw.ScopeIdx {
	case globalScopeSentinel:
		loc.Scope = ScopeUnknown
	case anonymousScopeSentinel:
		loc.Scope = ScopeAnonymous
	default:
		if name, ok := c.getString(raw.ScopeIdx); ok {
			loc.Scope = ScopeNamed
			loc.ScopeName = name
		}
	}

	return loc, true
}
