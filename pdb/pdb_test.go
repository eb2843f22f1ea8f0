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

package pdb_test

import (
	"encoding/binary"
	"testing"

	"github.com/jetsetilly/gosymbolic/pdb"
	"github.com/jetsetilly/gosymbolic/test"
)

const blockSize = 512

func putU32(buf []byte, offset int, v uint32) {
	binary.LittleEndian.PutUint32(buf[offset:offset+4], v)
}

func putU16(buf []byte, offset int, v uint16) {
	binary.LittleEndian.PutUint16(buf[offset:offset+2], v)
}

// buildPdb assembles a minimal, synthetic classic-PDB MSF container with
// one public symbol, laid out exactly as pdb.Parse expects:
//
//	block 0: MSF superblock
//	block 1: directory block map
//	block 2: stream directory
//	block 3: stream 1, the PDB Info Stream
//	block 4: stream 3, the DBI Stream (with an optional debug header
//	         substream pointing at the section header stream)
//	block 5: stream 4, the public symbol record stream (one S_PUB32)
//	block 6: stream 5, the section header stream (one IMAGE_SECTION_HEADER)
func buildPdb(t *testing.T, signature, age uint32, guid [16]byte, machine uint16) []byte {
	t.Helper()

	buf := make([]byte, 7*blockSize)
	block := func(n int) []byte { return buf[n*blockSize : (n+1)*blockSize] }

	magic := []byte("Microsoft C/C++ MSF 7.00\r\n\x1ADS\x00\x00\x00")
	copy(block(0), magic)
	putU32(block(0), 32, blockSize)
	putU32(block(0), 44, 44) // NumDirectoryBytes, filled in below
	putU32(block(0), 52, 1)  // BlockMapAddr

	// the DBI stream's optional debug header substream, index 5 =
	// section header stream (5, which is the stream index, not block 6)
	dbi := block(4)
	putU16(dbi, 20, 4)      // symRecordStream = stream 4
	putU16(dbi, 58, machine) // Machine
	putU32(dbi, 48, 22)      // optionalDbgHeaderSize
	for i := 0; i < 11; i++ {
		putU16(dbi, 64+i*2, 0xFFFF)
	}
	putU16(dbi, 64+5*2, 5) // dbgHeaderSectionHdr -> section header stream index

	info := block(3)
	putU32(info, 4, signature)
	putU32(info, 8, age)
	copy(info[12:28], guid[:])

	sym := block(5)
	const flags = 0
	putU16(sym, 0, 19) // record length (after the length field): kind(2)+body(17)
	putU16(sym, 2, 0x110e)
	putU32(sym, 4, flags)
	putU32(sym, 8, 0x10) // offset
	putU16(sym, 12, 1)   // segment
	copy(sym[14:], "myFunc\x00")

	sec := block(6)
	putU32(sec, 12, 0x1000) // VirtualAddress

	sizes := []uint32{0, 28, 0, 86, 21, 40}
	blocks := [][]uint32{nil, {3}, nil, {4}, {5}, {6}}

	var directory []byte
	var num [4]byte
	binary.LittleEndian.PutUint32(num[:], uint32(len(sizes)))
	directory = append(directory, num[:]...)
	for _, s := range sizes {
		binary.LittleEndian.PutUint32(num[:], s)
		directory = append(directory, num[:]...)
	}
	for _, bl := range blocks {
		for _, b := range bl {
			binary.LittleEndian.PutUint32(num[:], b)
			directory = append(directory, num[:]...)
		}
	}

	putU32(block(0), 44, uint32(len(directory)))
	copy(block(2), directory)

	putU32(block(1), 0, 2) // directory occupies block 2

	return buf
}

func TestTest(t *testing.T) {
	guid := [16]byte{}
	data := buildPdb(t, 1, 1, guid, 0x8664)
	test.Equate(t, pdb.Test(data), true)
	test.Equate(t, pdb.Test([]byte("not a pdb")), false)
}

func TestParse(t *testing.T) {
	guid := [16]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10}
	data := buildPdb(t, 0x12345678, 7, guid, 0x8664)

	f, err := pdb.Parse(data)
	test.ExpectSuccess(t, err)

	test.Equate(t, f.Signature, uint32(0x12345678))
	test.Equate(t, f.Age, uint32(7))
	test.Equate(t, f.Guid, guid)
	test.Equate(t, f.Machine, uint16(0x8664))

	test.Equate(t, len(f.Publics), 1)
	pub := f.Publics[0]
	test.Equate(t, pub.Name, "myFunc")
	test.Equate(t, pub.Segment, uint16(1))
	test.Equate(t, pub.Offset, uint32(0x10))
	test.Equate(t, pub.HasAddress, true)
	test.Equate(t, pub.Address, uint64(0x1010))
}

func TestParseRejectsShortBuffer(t *testing.T) {
	_, err := pdb.Parse([]byte("too short"))
	test.ExpectFailure(t, err)
}
