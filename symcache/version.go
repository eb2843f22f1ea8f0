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

// v7 and v8 differ from v9 only in string length encoding (fixed u32 vs
// LEB128) and in the absence of File.RevisionOffset; no functional reason
// for the v7→v8 change is documented upstream. This package reads all
// three but its Writer always emits v9.
const (
	versionMin = 7
	versionMax = CurrentVersion
)

func isSupportedVersion(v uint32) bool {
	return v >= versionMin && v <= versionMax
}

// fileRecordSize returns the on-disk size of one File record for the
// given version.
func fileRecordSize(version uint32) int {
	if version >= 9 {
		return fileRecordSizeV9
	}
	return fileRecordSizeV7V8
}

// lengthPrefixIsLEB128 reports whether a version's string table encodes
// each entry's length as LEB128 (v8+) rather than a fixed 4-byte
// little-endian u32 (v7).
func lengthPrefixIsLEB128(version uint32) bool {
	return version >= 8
}
