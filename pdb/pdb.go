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

// Package pdb reads just enough of the classic MSF-container PDB format to
// recover a module's identity and its public symbol table: the Multi-Stream
// File directory, the PDB Info Stream (signature, age, GUID) and the DBI
// stream's public symbol record stream, translated from segment:offset
// into an image-relative address via the optional section header
// substream. It does not parse type records, module-level line programs or
// any other part of a PDB's private debug information; those live behind
// the narrower surface this package exposes.
package pdb

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

var msfMagic = []byte("Microsoft C/C++ MSF 7.00\r\n\x1ADS\x00\x00\x00")

const (
	streamPdbInfo = 1
	streamDbi     = 3

	symPublic32 = 0x110e

	dbgHeaderSectionHdr = 5
)

// Test performs a cheap magic probe for the MSF container signature every
// classic PDB file begins with.
func Test(data []byte) bool {
	return len(data) >= len(msfMagic) && bytes.Equal(data[:len(msfMagic)], msfMagic)
}

// PublicSymbol is one S_PUB32 record from the DBI stream's symbol record
// stream.
type PublicSymbol struct {
	Name       string
	Segment    uint16
	Offset     uint32
	Address    uint64
	HasAddress bool
}

// File is a parsed classic PDB.
type File struct {
	Signature uint32
	Age       uint32
	// Guid is the PDB Info Stream's 16-byte identifier, still in the
	// on-disk mixed-endian order; callers needing a debugid.DebugId should
	// pass this to debugid.FromMixedEndianBytes alongside Age.
	Guid [16]byte

	// Machine is the DBI stream's COFF machine constant (IMAGE_FILE_MACHINE_*).
	Machine uint16

	Publics []PublicSymbol
}

type msf struct {
	data      []byte
	blockSize uint32
	streams   [][]uint32
	sizes     []uint32
}

func parseSuperBlock(data []byte) (blockSize, numDirectoryBytes, blockMapAddr uint32, err error) {
	if len(data) < 56 {
		return 0, 0, 0, fmt.Errorf("pdb: file too short for an MSF superblock")
	}
	blockSize = binary.LittleEndian.Uint32(data[32:36])
	numDirectoryBytes = binary.LittleEndian.Uint32(data[44:48])
	blockMapAddr = binary.LittleEndian.Uint32(data[52:56])
	if blockSize == 0 {
		return 0, 0, 0, fmt.Errorf("pdb: zero block size")
	}
	return blockSize, numDirectoryBytes, blockMapAddr, nil
}

func ceilDiv(a, b uint32) uint32 {
	if a == 0 {
		return 0
	}
	return (a + b - 1) / b
}

func block(data []byte, blockSize, index uint32) ([]byte, error) {
	start := uint64(index) * uint64(blockSize)
	end := start + uint64(blockSize)
	if end > uint64(len(data)) {
		return nil, fmt.Errorf("pdb: block %d out of range", index)
	}
	return data[start:end], nil
}

// readBlocks concatenates the contents of the given blocks, truncated to
// size bytes.
func readBlocks(data []byte, blockSize uint32, blocks []uint32, size uint32) ([]byte, error) {
	out := make([]byte, 0, size)
	for _, b := range blocks {
		buf, err := block(data, blockSize, b)
		if err != nil {
			return nil, err
		}
		out = append(out, buf...)
	}
	if uint32(len(out)) < size {
		return nil, fmt.Errorf("pdb: stream shorter than declared size")
	}
	return out[:size], nil
}

func parseMsf(data []byte) (*msf, error) {
	blockSize, numDirectoryBytes, blockMapAddr, err := parseSuperBlock(data)
	if err != nil {
		return nil, err
	}

	numDirectoryBlocks := ceilDiv(numDirectoryBytes, blockSize)
	blockMapBuf, err := block(data, blockSize, blockMapAddr)
	if err != nil {
		return nil, err
	}
	if uint64(numDirectoryBlocks)*4 > uint64(len(blockMapBuf)) {
		return nil, fmt.Errorf("pdb: directory block map does not fit in one block")
	}

	directoryBlocks := make([]uint32, numDirectoryBlocks)
	for i := range directoryBlocks {
		directoryBlocks[i] = binary.LittleEndian.Uint32(blockMapBuf[i*4 : i*4+4])
	}

	directory, err := readBlocks(data, blockSize, directoryBlocks, numDirectoryBytes)
	if err != nil {
		return nil, err
	}
	if len(directory) < 4 {
		return nil, fmt.Errorf("pdb: truncated stream directory")
	}

	numStreams := binary.LittleEndian.Uint32(directory[0:4])
	pos := 4
	sizes := make([]uint32, numStreams)
	for i := range sizes {
		if pos+4 > len(directory) {
			return nil, fmt.Errorf("pdb: truncated stream size table")
		}
		sizes[i] = binary.LittleEndian.Uint32(directory[pos : pos+4])
		pos += 4
	}

	streams := make([][]uint32, numStreams)
	for i, size := range sizes {
		// a stream size of all-ones marks a nonexistent stream
		if size == 0xFFFFFFFF {
			continue
		}
		n := ceilDiv(size, blockSize)
		blocks := make([]uint32, n)
		for j := range blocks {
			if pos+4 > len(directory) {
				return nil, fmt.Errorf("pdb: truncated stream block list")
			}
			blocks[j] = binary.LittleEndian.Uint32(directory[pos : pos+4])
			pos += 4
		}
		streams[i] = blocks
	}

	return &msf{data: data, blockSize: blockSize, streams: streams, sizes: sizes}, nil
}

func (m *msf) stream(index int) ([]byte, bool) {
	if index < 0 || index >= len(m.streams) || m.sizes[index] == 0xFFFFFFFF {
		return nil, false
	}
	buf, err := readBlocks(m.data, m.blockSize, m.streams[index], m.sizes[index])
	if err != nil {
		return nil, false
	}
	return buf, true
}

// Parse reads data as a classic PDB.
func Parse(data []byte) (*File, error) {
	m, err := parseMsf(data)
	if err != nil {
		return nil, err
	}

	f := &File{}

	infoBuf, ok := m.stream(streamPdbInfo)
	if !ok || len(infoBuf) < 28 {
		return nil, fmt.Errorf("pdb: missing or truncated PDB Info Stream")
	}
	f.Signature = binary.LittleEndian.Uint32(infoBuf[4:8])
	f.Age = binary.LittleEndian.Uint32(infoBuf[8:12])
	copy(f.Guid[:], infoBuf[12:28])

	dbiBuf, ok := m.stream(streamDbi)
	if !ok || len(dbiBuf) < 64 {
		// a PDB with no DBI stream (unusual, but not malformed) simply
		// carries no public symbols
		return f, nil
	}

	symRecordStream := int(binary.LittleEndian.Uint16(dbiBuf[20:22]))
	f.Machine = binary.LittleEndian.Uint16(dbiBuf[58:60])

	modInfoSize := binary.LittleEndian.Uint32(dbiBuf[24:28])
	sectionContributionSize := binary.LittleEndian.Uint32(dbiBuf[28:32])
	sectionMapSize := binary.LittleEndian.Uint32(dbiBuf[32:36])
	sourceInfoSize := binary.LittleEndian.Uint32(dbiBuf[36:40])
	typeServerMapSize := binary.LittleEndian.Uint32(dbiBuf[40:44])
	optionalDbgHeaderSize := binary.LittleEndian.Uint32(dbiBuf[48:52])
	ecSubstreamSize := binary.LittleEndian.Uint32(dbiBuf[52:56])

	dbgHeaderOffset := 64 + uint64(modInfoSize) + uint64(sectionContributionSize) +
		uint64(sectionMapSize) + uint64(sourceInfoSize) + uint64(typeServerMapSize) + uint64(ecSubstreamSize)

	var sectionAddrs []uint32
	if optionalDbgHeaderSize > 0 && dbgHeaderOffset+uint64(optionalDbgHeaderSize) <= uint64(len(dbiBuf)) {
		dbgHeader := dbiBuf[dbgHeaderOffset : dbgHeaderOffset+uint64(optionalDbgHeaderSize)]
		entries := len(dbgHeader) / 2
		if dbgHeaderSectionHdr < entries {
			sectionHdrStream := int(int16(binary.LittleEndian.Uint16(dbgHeader[dbgHeaderSectionHdr*2 : dbgHeaderSectionHdr*2+2])))
			if sectionHdrStream >= 0 {
				if secBuf, ok := m.stream(sectionHdrStream); ok {
					sectionAddrs = parseSectionHeaders(secBuf)
				}
			}
		}
	}

	if symRecordStream >= 0 {
		if symBuf, ok := m.stream(symRecordStream); ok {
			f.Publics = parsePublics(symBuf, sectionAddrs)
		}
	}

	return f, nil
}

// parseSectionHeaders extracts the VirtualAddress field (offset 12) from
// each 40-byte IMAGE_SECTION_HEADER entry.
func parseSectionHeaders(data []byte) []uint32 {
	const recordSize = 40
	n := len(data) / recordSize
	out := make([]uint32, 0, n)
	for i := 0; i < n; i++ {
		base := i * recordSize
		out = append(out, binary.LittleEndian.Uint32(data[base+12:base+16]))
	}
	return out
}

// parsePublics scans a CodeView symbol record stream for S_PUB32 entries.
// Each record is a u16 length (covering everything after the length field
// itself) followed by a u16 kind and kind-specific data.
func parsePublics(data []byte, sectionAddrs []uint32) []PublicSymbol {
	var out []PublicSymbol

	pos := 0
	for pos+4 <= len(data) {
		recordLen := int(binary.LittleEndian.Uint16(data[pos : pos+2]))
		if recordLen < 2 {
			break
		}
		end := pos + 2 + recordLen
		if end > len(data) {
			break
		}

		kind := binary.LittleEndian.Uint16(data[pos+2 : pos+4])
		if kind == symPublic32 && end-(pos+4) >= 10 {
			body := data[pos+4 : end]
			offset := binary.LittleEndian.Uint32(body[4:8])
			segment := binary.LittleEndian.Uint16(body[8:10])
			name := cString(body[10:])

			sym := PublicSymbol{Name: name, Segment: segment, Offset: offset}
			if idx := int(segment) - 1; idx >= 0 && idx < len(sectionAddrs) {
				sym.Address = uint64(sectionAddrs[idx]) + uint64(offset)
				sym.HasAddress = true
			}
			out = append(out, sym)
		}

		pos = end
	}

	return out
}

func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}
