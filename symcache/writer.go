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
	"io"
	"sort"

	"github.com/jetsetilly/gosymbolic/arch"
	"github.com/jetsetilly/gosymbolic/debugid"
	"github.com/jetsetilly/gosymbolic/debugsession"
	"github.com/jetsetilly/gosymbolic/lang"
	"github.com/jetsetilly/gosymbolic/logger"
	"github.com/jetsetilly/gosymbolic/object"
	"github.com/jetsetilly/gosymbolic/transform"
)

// indexSet is both a set (deduplication by value) and a vector (stable,
// insertion-ordered indices), mirroring the IndexSet the upstream writer
// relies on for deterministic, reproducible output.
type indexSet[T comparable] struct {
	items []T
	index map[T]uint32
}

func (s *indexSet[T]) insert(item T) uint32 {
	if s.index == nil {
		s.index = make(map[T]uint32)
	}
	if idx, ok := s.index[item]; ok {
		return idx
	}
	idx := uint32(len(s.items))
	s.items = append(s.items, item)
	s.index[item] = idx
	return idx
}

// Writer accumulates functions, files and symbols from one or more
// objects and serializes them into a single SymCache image.
type Writer struct {
	debugID debugid.DebugId
	arch    arch.Architecture

	stringBytes []byte
	strings     map[string]uint32

	files     indexSet[rawFile]
	functions indexSet[rawFunction]

	// sourceLocations holds every non-primary entry: the ones referenced
	// only as the target of an inlined_into_idx.
	sourceLocations indexSet[rawSourceLocation]

	// ranges maps a range's starting address to its primary source
	// location. Serialized in ascending-address order.
	ranges map[uint32]rawSourceLocation

	// lastAddr is the highest address known to lie outside any valid
	// function. hasLastAddr is cleared once a Symbol has been seen at or
	// past it, since symbol coverage is unbounded on the right.
	lastAddr    uint32
	hasLastAddr bool

	// transforms is applied, in order, to every function and every line
	// record before it is interned.
	transforms transform.Chain
}

// AddTransform appends t to the chain applied to every function and
// source location processed from this point on.
func (w *Writer) AddTransform(t transform.Transform) {
	w.transforms = append(w.transforms, t)
}

// NewWriter creates an empty Writer.
func NewWriter() *Writer {
	return &Writer{
		strings: make(map[string]uint32),
		ranges:  make(map[uint32]rawSourceLocation),
	}
}

// SetArch sets the cache's architecture.
func (w *Writer) SetArch(a arch.Architecture) { w.arch = a }

// SetDebugID sets the cache's debug identifier.
func (w *Writer) SetDebugID(id debugid.DebugId) { w.debugID = id }

// insertString interns s, returning its byte offset in string_bytes, or
// the sentinel for an empty string.
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

func (w *Writer) insertFile(pathName, directory, compDir string) uint32 {
	rf := rawFile{
		NameOffset:      w.insertString(pathName),
		DirectoryOffset: optionalString(directory, w),
		CompDirOffset:   optionalString(compDir, w),
		RevisionOffset:  sentinel,
	}
	return w.files.insert(rf)
}

func optionalString(s string, w *Writer) uint32 {
	if s == "" {
		return sentinel
	}
	return w.insertString(s)
}

func (w *Writer) insertFunction(name, compDir string, entryPC uint32, language lang.Language) uint32 {
	return w.functions.insert(rawFunction{
		NameOffset:    w.insertString(name),
		CompDirOffset: optionalString(compDir, w),
		EntryPC:       entryPC,
		Lang:          uint32(language),
	})
}

// ProcessObject iterates obj's debug session, recursively emitting every
// top-level function and its inlinees, then fills any address ranges the
// debug session left uncovered from obj's plain symbol table.
func (w *Writer) ProcessObject(obj object.Object) error {
	if session, err := obj.DebugSession(); err == nil {
		functions, ferr := session.Functions()
		if ferr != nil {
			return ferr
		}
		for _, f := range functions {
			w.ProcessSymbolicFunction(f)
		}
	}

	symbols, err := obj.Symbols()
	if err != nil {
		return err
	}
	for _, s := range symbols {
		w.ProcessSymbolicSymbol(s)
	}

	return nil
}

// ProcessSymbolicFunction inserts function and, recursively, every
// inlinee nested within it.
func (w *Writer) ProcessSymbolicFunction(function debugsession.Function) {
	if function.HasSize && function.Size == 0 {
		return
	}

	function = w.transforms.TransformFunction(function)

	compDir := function.CompilationDir

	entryPC := uint32(function.Address)
	if function.Inline {
		entryPC = sentinel
	}
	functionIdx := w.insertFunction(function.Name.String(), compDir, entryPC, function.Name.Language())

	for _, line := range function.Lines {
		file, lineNumber := w.transforms.TransformSourceLocation(line.File, line.Line)
		fileIdx := w.insertFile(file.Name, file.Directory, file.CompDir)

		sourceLocation := rawSourceLocation{
			FileIdx:        fileIdx,
			Line:           lineNumber,
			FunctionIdx:    functionIdx,
			InlinedIntoIdx: sentinel,
		}

		addr := uint32(line.Address)
		existing, occupied := w.ranges[addr]
		switch {
		case !occupied:
			w.ranges[addr] = sourceLocation
		case function.Inline:
			callerIdx := w.sourceLocations.insert(existing)
			sourceLocation.InlinedIntoIdx = callerIdx
			w.ranges[addr] = sourceLocation
		default:
			logger.Logf(logger.Allow, "symcache", "overlapping non-inline functions at address 0x%x", addr)
			w.ranges[addr] = sourceLocation
		}
	}

	if _, ok := w.ranges[entryPC]; !ok {
		w.ranges[entryPC] = rawSourceLocation{
			FileIdx:        sentinel,
			Line:           0,
			FunctionIdx:    functionIdx,
			InlinedIntoIdx: sentinel,
		}
	}

	for _, inlinee := range function.Inlinees {
		w.ProcessSymbolicFunction(inlinee)
	}

	functionEnd := uint32(function.EndAddress())
	if !w.hasLastAddr || functionEnd > w.lastAddr {
		w.lastAddr = functionEnd
		w.hasLastAddr = true
	}
}

// ProcessSymbolicSymbol inserts sym only if no range already exists at
// its address — the debug session, if any, always takes precedence.
func (w *Writer) ProcessSymbolicSymbol(sym object.Symbol) {
	if !sym.HasName || sym.Name == "" {
		return
	}

	addr := uint32(sym.Address)
	if _, occupied := w.ranges[addr]; !occupied {
		nameIdx := w.insertString(sym.Name)
		functionIdx := w.functions.insert(rawFunction{
			NameOffset:    nameIdx,
			CompDirOffset: sentinel,
			EntryPC:       addr,
			Lang:          sentinel,
		})
		w.ranges[addr] = rawSourceLocation{
			FileIdx:        sentinel,
			Line:           0,
			FunctionIdx:    functionIdx,
			InlinedIntoIdx: sentinel,
		}
	}

	if !w.hasLastAddr || addr >= w.lastAddr {
		w.hasLastAddr = false
	}
}

// Serialize writes the accumulated data as a v9 SymCache image.
func (w *Writer) Serialize(out io.Writer) error {
	if w.hasLastAddr {
		if _, occupied := w.ranges[w.lastAddr]; !occupied {
			w.ranges[w.lastAddr] = noSourceLocation
		}
	}

	addrs := make([]uint32, 0, len(w.ranges))
	for addr := range w.ranges {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })

	numFiles := uint32(len(w.files.items))
	numFunctions := uint32(len(w.functions.items))
	numSourceLocations := uint32(len(w.sourceLocations.items) + len(addrs))
	numRanges := uint32(len(addrs))
	stringBytesLen := uint32(len(w.stringBytes))

	ww := &byteCounter{w: out}

	if err := writeHeaderV9(ww, w.debugID, w.arch, numFiles, numFunctions, numSourceLocations, numRanges, stringBytesLen); err != nil {
		return err
	}
	if err := ww.pad(); err != nil {
		return err
	}

	for _, f := range w.files.items {
		if err := writeRawFile(ww, f); err != nil {
			return err
		}
	}
	if err := ww.pad(); err != nil {
		return err
	}

	for _, f := range w.functions.items {
		if err := writeRawFunction(ww, f); err != nil {
			return err
		}
	}
	if err := ww.pad(); err != nil {
		return err
	}

	for _, s := range w.sourceLocations.items {
		if err := writeRawSourceLocation(ww, s); err != nil {
			return err
		}
	}
	for _, addr := range addrs {
		if err := writeRawSourceLocation(ww, w.ranges[addr]); err != nil {
			return err
		}
	}
	if err := ww.pad(); err != nil {
		return err
	}

	for _, addr := range addrs {
		if err := ww.writeUint32(addr); err != nil {
			return err
		}
	}
	if err := ww.pad(); err != nil {
		return err
	}

	return ww.writeBytes(w.stringBytes)
}

// byteCounter tracks how many bytes have been written so alignment
// padding can be computed without buffering the whole output.
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

func writeHeaderV9(w *byteCounter, id debugid.DebugId, a arch.Architecture, numFiles, numFunctions, numSourceLocations, numRanges, stringBytes uint32) error {
	if err := w.writeUint32(Magic); err != nil {
		return err
	}
	if err := w.writeUint32(CurrentVersion); err != nil {
		return err
	}
	idBytes := id.UUID()
	if err := w.writeBytes(idBytes[:]); err != nil {
		return err
	}
	if err := w.writeUint32(id.Appendix()); err != nil {
		return err
	}
	if err := w.writeUint32(uint32(a)); err != nil {
		return err
	}
	if err := w.writeUint32(0); err != nil { // _pad
		return err
	}
	if err := w.writeUint32(numFiles); err != nil {
		return err
	}
	if err := w.writeUint32(numFunctions); err != nil {
		return err
	}
	if err := w.writeUint32(numSourceLocations); err != nil {
		return err
	}
	if err := w.writeUint32(numRanges); err != nil {
		return err
	}
	if err := w.writeUint32(stringBytes); err != nil {
		return err
	}
	return w.writeBytes(make([]byte, 16)) // _reserved
}

func writeRawFile(w *byteCounter, f rawFile) error {
	for _, v := range []uint32{f.NameOffset, f.DirectoryOffset, f.CompDirOffset, f.RevisionOffset} {
		if err := w.writeUint32(v); err != nil {
			return err
		}
	}
	return nil
}

func writeRawFunction(w *byteCounter, f rawFunction) error {
	for _, v := range []uint32{f.NameOffset, f.CompDirOffset, f.EntryPC, f.Lang} {
		if err := w.writeUint32(v); err != nil {
			return err
		}
	}
	return nil
}

func writeRawSourceLocation(w *byteCounter, s rawSourceLocation) error {
	for _, v := range []uint32{s.FileIdx, s.Line, s.FunctionIdx, s.InlinedIntoIdx} {
		if err := w.writeUint32(v); err != nil {
			return err
		}
	}
	return nil
}
