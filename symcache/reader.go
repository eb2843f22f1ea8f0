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

package symcache

import (
	"encoding/binary"
	"fmt"
	"os"
	"sort"

	"github.com/edsrzf/mmap-go"
	"github.com/jetsetilly/gosymbolic/arch"
	"github.com/jetsetilly/gosymbolic/debugid"
	gosymerrors "github.com/jetsetilly/gosymbolic/errors"
	"github.com/jetsetilly/gosymbolic/lang"
)

// Cache is a parsed, read-only view over a SymCache byte buffer. Every
// accessor slices directly into buf; the only copies made are of
// individual strings at lookup time.
type Cache struct {
	buf     []byte
	version uint32

	debugID debugid.DebugId
	arch    arch.Architecture

	filesOffset, numFiles             int
	functionsOffset, numFunctions     int
	sourceLocationsOffset, numSources int
	rangesOffset, numRanges           int
	stringBytesOffset, stringBytesLen int
}

// Open memory-maps path and parses it as a SymCache.
func Open(path string) (*Cache, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf(gosymerrors.SymCacheReadError, err)
	}
	defer f.Close()

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf(gosymerrors.SymCacheReadError, err)
	}

	return Parse([]byte(m))
}

// Parse reads buf as a SymCache image. It performs only arithmetic and
// bounds checks; no section is copied.
func Parse(buf []byte) (*Cache, error) {
	if len(buf) < headerSize {
		return nil, fmt.Errorf(gosymerrors.SymCacheReadError, "header too small")
	}

	magic := binary.LittleEndian.Uint32(buf[0:4])
	if magic == magicFlipped {
		return nil, fmt.Errorf(gosymerrors.SymCacheReadError, "wrong endianness")
	}
	if magic != Magic {
		return nil, fmt.Errorf(gosymerrors.SymCacheBadMagic)
	}

	version := binary.LittleEndian.Uint32(buf[4:8])
	if !isSupportedVersion(version) {
		return nil, fmt.Errorf(gosymerrors.SymCacheBadVersion, version)
	}

	var id debugid.DebugId
	var idBytes [16]byte
	copy(idBytes[:], buf[8:24])
	appendix := binary.LittleEndian.Uint32(buf[24:28])
	parsedID, err := debugid.FromBytes(idBytes[:], appendix)
	if err != nil {
		return nil, fmt.Errorf(gosymerrors.SymCacheReadError, err)
	}
	id = parsedID

	a := arch.Architecture(binary.LittleEndian.Uint32(buf[28:32]))

	numFiles := int(binary.LittleEndian.Uint32(buf[36:40]))
	numFunctions := int(binary.LittleEndian.Uint32(buf[40:44]))
	numSourceLocations := int(binary.LittleEndian.Uint32(buf[44:48]))
	numRanges := int(binary.LittleEndian.Uint32(buf[48:52]))
	stringBytesLen := int(binary.LittleEndian.Uint32(buf[52:56]))

	if numSourceLocations < numRanges {
		return nil, fmt.Errorf(gosymerrors.SymCacheReadError, "bad format length: fewer source locations than ranges")
	}

	offset := headerSize

	filesOffset := offset
	fileRecSize := fileRecordSize(version)
	filesSize := fileRecSize * numFiles
	offset += filesSize + alignTo8(filesSize)

	functionsOffset := offset
	functionsSize := functionRecordSize * numFunctions
	offset += functionsSize + alignTo8(functionsSize)

	sourceLocationsOffset := offset
	sourceLocationsSize := sourceLocationRecordSize * numSourceLocations
	offset += sourceLocationsSize + alignTo8(sourceLocationsSize)

	rangesOffset := offset
	rangesSize := rangeRecordSize * numRanges
	offset += rangesSize + alignTo8(rangesSize)

	stringBytesOffset := offset
	expectedSize := stringBytesOffset + stringBytesLen

	if len(buf) < expectedSize {
		return nil, fmt.Errorf(gosymerrors.SymCacheReadError, "buffer shorter than declared sections")
	}

	return &Cache{
		buf:     buf,
		version: version,
		debugID: id,
		arch:    a,

		filesOffset: filesOffset, numFiles: numFiles,
		functionsOffset: functionsOffset, numFunctions: numFunctions,
		sourceLocationsOffset: sourceLocationsOffset, numSources: numSourceLocations,
		rangesOffset: rangesOffset, numRanges: numRanges,
		stringBytesOffset: stringBytesOffset, stringBytesLen: stringBytesLen,
	}, nil
}

// Version returns the on-disk format version (7, 8 or 9).
func (c *Cache) Version() uint32 { return c.version }

// DebugID returns the cache's debug identifier.
func (c *Cache) DebugID() debugid.DebugId { return c.debugID }

// Arch returns the cache's architecture.
func (c *Cache) Arch() arch.Architecture { return c.arch }

func (c *Cache) getString(offset uint32) (string, bool) {
	if offset == sentinel {
		return "", false
	}
	pos := int(offset)
	if pos < 0 || pos >= c.stringBytesLen {
		return "", false
	}
	base := c.stringBytesOffset + pos

	var length int
	var dataStart int
	if lengthPrefixIsLEB128(c.version) {
		l, n := binary.Uvarint(c.buf[base:])
		if n <= 0 {
			return "", false
		}
		length = int(l)
		dataStart = base + n
	} else {
		if base+4 > len(c.buf) {
			return "", false
		}
		length = int(binary.LittleEndian.Uint32(c.buf[base : base+4]))
		dataStart = base + 4
	}

	if dataStart+length > len(c.buf) {
		return "", false
	}
	return string(c.buf[dataStart : dataStart+length]), true
}

func (c *Cache) readFile(idx uint32) (rawFile, bool) {
	if int(idx) >= c.numFiles {
		return rawFile{}, false
	}
	recSize := fileRecordSize(c.version)
	base := c.filesOffset + int(idx)*recSize
	f := rawFile{
		NameOffset:      binary.LittleEndian.Uint32(c.buf[base : base+4]),
		DirectoryOffset: binary.LittleEndian.Uint32(c.buf[base+4 : base+8]),
		CompDirOffset:   binary.LittleEndian.Uint32(c.buf[base+8 : base+12]),
		RevisionOffset:  sentinel,
	}
	if recSize >= 16 {
		f.RevisionOffset = binary.LittleEndian.Uint32(c.buf[base+12 : base+16])
	}
	return f, true
}

func (c *Cache) readFunction(idx uint32) (rawFunction, bool) {
	if int(idx) >= c.numFunctions {
		return rawFunction{}, false
	}
	base := c.functionsOffset + int(idx)*functionRecordSize
	return rawFunction{
		NameOffset:    binary.LittleEndian.Uint32(c.buf[base : base+4]),
		CompDirOffset: binary.LittleEndian.Uint32(c.buf[base+4 : base+8]),
		EntryPC:       binary.LittleEndian.Uint32(c.buf[base+8 : base+12]),
		Lang:          binary.LittleEndian.Uint32(c.buf[base+12 : base+16]),
	}, true
}

func (c *Cache) readSourceLocation(idx uint32) (rawSourceLocation, bool) {
	if int(idx) >= c.numSources {
		return rawSourceLocation{}, false
	}
	base := c.sourceLocationsOffset + int(idx)*sourceLocationRecordSize
	return rawSourceLocation{
		FileIdx:        binary.LittleEndian.Uint32(c.buf[base : base+4]),
		Line:           binary.LittleEndian.Uint32(c.buf[base+4 : base+8]),
		FunctionIdx:    binary.LittleEndian.Uint32(c.buf[base+8 : base+12]),
		InlinedIntoIdx: binary.LittleEndian.Uint32(c.buf[base+12 : base+16]),
	}, true
}

func (c *Cache) readRange(i int) uint32 {
	base := c.rangesOffset + i*rangeRecordSize
	return binary.LittleEndian.Uint32(c.buf[base : base+4])
}

// File is a source file resolved from the cache's string table.
type File struct {
	CompDir      string
	HasCompDir   bool
	Directory    string
	HasDirectory bool
	PathName     string
}

// Function is a function resolved from the cache's string table.
type Function struct {
	Name        string
	HasName     bool
	CompDir     string
	HasCompDir  bool
	EntryPC     uint32
	Language    lang.Language
	HasLanguage bool
}

// SourceLocation is one resolved entry from an inline chain.
type SourceLocation struct {
	Line         uint32
	fileIdx      uint32
	functionIdx  uint32
	cache        *Cache
}

// File resolves the source file this location points at.
func (s SourceLocation) File() (File, bool) {
	return s.cache.resolveFile(s.fileIdx)
}

// Function resolves the function this location points at.
func (s SourceLocation) Function() (Function, bool) {
	return s.cache.resolveFunction(s.functionIdx)
}

func (c *Cache) resolveFile(idx uint32) (File, bool) {
	rf, ok := c.readFile(idx)
	if !ok {
		return File{}, false
	}
	pathName, _ := c.getString(rf.NameOffset)
	directory, hasDirectory := c.getString(rf.DirectoryOffset)
	compDir, hasCompDir := c.getString(rf.CompDirOffset)
	return File{
		PathName:     pathName,
		Directory:    directory,
		HasDirectory: hasDirectory,
		CompDir:      compDir,
		HasCompDir:   hasCompDir,
	}, true
}

func (c *Cache) resolveFunction(idx uint32) (Function, bool) {
	rf, ok := c.readFunction(idx)
	if !ok {
		return Function{}, false
	}
	name, hasName := c.getString(rf.NameOffset)
	compDir, hasCompDir := c.getString(rf.CompDirOffset)
	fn := Function{
		Name:       name,
		HasName:    hasName,
		CompDir:    compDir,
		HasCompDir: hasCompDir,
		EntryPC:    rf.EntryPC,
	}
	if rf.Lang != sentinel {
		fn.Language = lang.Language(rf.Lang)
		fn.HasLanguage = true
	}
	return fn, true
}

// SourceLocationIter yields an inline chain from the primary entry found
// at a looked-up address down to its ultimate non-inlined ancestor.
type SourceLocationIter struct {
	cache *Cache
	idx   uint32
}

// Next advances the iterator. It returns false once the chain is
// exhausted.
func (it *SourceLocationIter) Next() (SourceLocation, bool) {
	if it.idx == sentinel {
		return SourceLocation{}, false
	}
	raw, ok := it.cache.readSourceLocation(it.idx)
	if !ok {
		it.idx = sentinel
		return SourceLocation{}, false
	}
	loc := SourceLocation{
		Line:        raw.Line,
		fileIdx:     raw.FileIdx,
		functionIdx: raw.FunctionIdx,
		cache:       it.cache,
	}
	it.idx = raw.InlinedIntoIdx
	return loc, true
}

// Lookup resolves addr to its inline chain. The returned iterator yields
// zero items when addr is not covered by any range.
func (c *Cache) Lookup(addr uint64) *SourceLocationIter {
	if addr > sentinel {
		return &SourceLocationIter{cache: c, idx: sentinel}
	}
	a := uint32(addr)

	sourceLocationStart := uint32(c.numSources - c.numRanges)

	i := sort.Search(c.numRanges, func(i int) bool { return c.readRange(i) > a }) - 1

	var idx uint32
	if i < 0 {
		idx = sentinel
	} else {
		idx = sourceLocationStart + uint32(i)
	}

	if idx != sentinel {
		if sl, ok := c.readSourceLocation(idx); ok && sl.isHole() {
			idx = sentinel
		}
	}

	return &SourceLocationIter{cache: c, idx: idx}
}
