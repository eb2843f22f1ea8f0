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

// Package ppdb reads the ECMA-335 metadata root that begins every Portable
// PDB: the "BSJB" signature, the version string, and the stream directory.
// Its only consumer in this module reads the "#Pdb" stream to recover a
// module's identity; the method-level debug tables (#~ / #Blob sequence
// points) a full .NET metadata reader would expose are out of scope, the
// same way this module's classic pdb package stops at public symbols
// rather than walking type records.
package ppdb

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

const metadataSignature = 0x424a5342 // "BSJB"

// Stream is one named region of a Portable PDB's metadata root.
type Stream struct {
	Name string
	Data []byte
}

// File is a parsed Portable PDB metadata root.
type File struct {
	Version string
	Streams []Stream
}

// Test performs a cheap probe for the ECMA-335 metadata root signature.
func Test(data []byte) bool {
	return len(data) >= 4 && binary.LittleEndian.Uint32(data[:4]) == metadataSignature
}

// Parse reads data as a Portable PDB metadata root.
func Parse(data []byte) (*File, error) {
	if len(data) < 16 {
		return nil, fmt.Errorf("ppdb: file too short for a metadata header")
	}
	if binary.LittleEndian.Uint32(data[0:4]) != metadataSignature {
		return nil, fmt.Errorf("ppdb: bad metadata signature")
	}

	versionLength := int(binary.LittleEndian.Uint32(data[12:16]))
	versionStart := 16
	versionEnd := versionStart + versionLength
	if versionEnd > len(data) {
		return nil, fmt.Errorf("ppdb: version string overruns buffer")
	}
	versionBuf := data[versionStart:versionEnd]
	if i := bytes.IndexByte(versionBuf, 0); i >= 0 {
		versionBuf = versionBuf[:i]
	}
	version := string(versionBuf)

	pos := versionEnd
	if pos+4 > len(data) {
		return nil, fmt.Errorf("ppdb: truncated stream count header")
	}
	// flags (u16) is reserved and always 0; streams count follows it
	numStreams := int(binary.LittleEndian.Uint16(data[pos+2 : pos+4]))
	pos += 4

	streams := make([]Stream, 0, numStreams)
	for i := 0; i < numStreams; i++ {
		if pos+8 > len(data) {
			return nil, fmt.Errorf("ppdb: truncated stream header")
		}
		offset := binary.LittleEndian.Uint32(data[pos : pos+4])
		size := binary.LittleEndian.Uint32(data[pos+4 : pos+8])
		pos += 8

		nameBuf := data[pos:]
		nameEnd := bytes.IndexByte(nameBuf, 0)
		if nameEnd < 0 {
			return nil, fmt.Errorf("ppdb: unterminated stream name")
		}
		name := string(nameBuf[:nameEnd])

		roundedNameLen := nameEnd + 1
		if r := roundedNameLen % 4; r != 0 {
			roundedNameLen += 4 - r
		}
		pos += roundedNameLen

		streamData, err := sliceAt(data, offset, size)
		if err != nil {
			return nil, err
		}
		streams = append(streams, Stream{Name: name, Data: streamData})
	}

	return &File{Version: version, Streams: streams}, nil
}

func sliceAt(data []byte, offset, size uint32) ([]byte, error) {
	start := uint64(offset)
	end := start + uint64(size)
	if end > uint64(len(data)) {
		return nil, fmt.Errorf("ppdb: stream out of range")
	}
	return data[start:end], nil
}

// Stream returns the named stream, if present.
func (f *File) Stream(name string) ([]byte, bool) {
	for _, s := range f.Streams {
		if s.Name == name {
			return s.Data, true
		}
	}
	return nil, false
}

// Id returns the "#Pdb" stream's 16-byte mixed-endian GUID and 4-byte age,
// the same identity pair a companion PE's CodeView record carries for a
// classic PDB.
func (f *File) Id() (guid [16]byte, age uint32, ok bool) {
	data, found := f.Stream("#Pdb")
	if !found || len(data) < 20 {
		return guid, 0, false
	}
	copy(guid[:], data[0:16])
	age = binary.LittleEndian.Uint32(data[16:20])
	return guid, age, true
}
