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

package ppdb_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/jetsetilly/gosymbolic/ppdb"
	"github.com/jetsetilly/gosymbolic/test"
)

// buildMetadataRoot assembles a synthetic ECMA-335 metadata root carrying
// the given named streams, in the on-disk layout ppdb.Parse expects.
func buildMetadataRoot(version string, streams map[string][]byte) []byte {
	var buf bytes.Buffer

	var u32 [4]byte
	binary.LittleEndian.PutUint32(u32[:], 0x424a5342)
	buf.Write(u32[:]) // signature

	buf.Write([]byte{1, 0})    // major
	buf.Write([]byte{1, 0})    // minor
	buf.Write([]byte{0, 0, 0, 0}) // reserved

	versionPadded := version + "\x00"
	for len(versionPadded)%4 != 0 {
		versionPadded += "\x00"
	}
	binary.LittleEndian.PutUint32(u32[:], uint32(len(versionPadded)))
	buf.Write(u32[:]) // version_length
	buf.WriteString(versionPadded)

	buf.Write([]byte{0, 0}) // flags
	var u16 [2]byte
	binary.LittleEndian.PutUint16(u16[:], uint16(len(streams)))
	buf.Write(u16[:]) // streams count

	// order names deterministically for test reproducibility
	names := make([]string, 0, len(streams))
	for name := range streams {
		names = append(names, name)
	}
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && names[j] < names[j-1]; j-- {
			names[j], names[j-1] = names[j-1], names[j]
		}
	}

	headerBuf := &bytes.Buffer{}
	for _, name := range names {
		nameBuf := name + "\x00"
		for len(nameBuf)%4 != 0 {
			nameBuf += "\x00"
		}
		headerBuf.WriteString(nameBuf)
	}

	streamDataStart := buf.Len() + 8*len(streams) + headerBuf.Len()
	dataBuf := &bytes.Buffer{}

	var written int
	for _, name := range names {
		data := streams[name]
		binary.LittleEndian.PutUint32(u32[:], uint32(streamDataStart+written))
		buf.Write(u32[:]) // offset
		binary.LittleEndian.PutUint32(u32[:], uint32(len(data)))
		buf.Write(u32[:]) // size

		nameBuf := name + "\x00"
		for len(nameBuf)%4 != 0 {
			nameBuf += "\x00"
		}
		buf.WriteString(nameBuf)

		dataBuf.Write(data)
		written += len(data)
	}

	buf.Write(dataBuf.Bytes())

	return buf.Bytes()
}

func TestTest(t *testing.T) {
	data := buildMetadataRoot("PDB v1.0", nil)
	test.Equate(t, ppdb.Test(data), true)
	test.Equate(t, ppdb.Test([]byte("not a metadata root")), false)
}

func TestParseVersionAndStreams(t *testing.T) {
	data := buildMetadataRoot("PDB v1.0", map[string][]byte{
		"#Strings": []byte("hello\x00"),
		"#~":       []byte{1, 2, 3, 4},
	})

	f, err := ppdb.Parse(data)
	test.ExpectSuccess(t, err)
	test.Equate(t, f.Version, "PDB v1.0")

	s, ok := f.Stream("#Strings")
	test.Equate(t, ok, true)
	test.Equate(t, string(s), "hello\x00")

	blob, ok := f.Stream("#~")
	test.Equate(t, ok, true)
	test.Equate(t, bytes.Equal(blob, []byte{1, 2, 3, 4}), true)

	_, ok = f.Stream("#EmbeddedSource")
	test.Equate(t, ok, false)
}

func TestId(t *testing.T) {
	guid := [16]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10}
	pdbStream := append(append([]byte{}, guid[:]...), 0x2a, 0x00, 0x00, 0x00) // age = 42

	data := buildMetadataRoot("PDB v1.0", map[string][]byte{
		"#Pdb": pdbStream,
	})

	f, err := ppdb.Parse(data)
	test.ExpectSuccess(t, err)

	gotGuid, age, ok := f.Id()
	test.Equate(t, ok, true)
	test.Equate(t, gotGuid, guid)
	test.Equate(t, age, uint32(42))
}

func TestIdMissingStream(t *testing.T) {
	data := buildMetadataRoot("PDB v1.0", nil)
	f, err := ppdb.Parse(data)
	test.ExpectSuccess(t, err)

	_, _, ok := f.Id()
	test.Equate(t, ok, false)
}

func TestParseRejectsBadSignature(t *testing.T) {
	_, err := ppdb.Parse([]byte("short"))
	test.ExpectFailure(t, err)

	data := buildMetadataRoot("PDB v1.0", nil)
	data[0] = 0
	_, err = ppdb.Parse(data)
	test.ExpectFailure(t, err)
}
