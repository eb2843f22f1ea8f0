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

// Package debugid identifies a single build of a single object file: a
// 16-byte UUID plus a 32-bit appendix (most often an "age" counter carried
// over from PDB debug directories). The same value must be recoverable
// from a PE CodeView record, a Mach-O LC_UUID, an ELF build-id note, a PDB
// stream header, a WASM build_id section or a Breakpad MODULE line, so its
// string form has to round-trip through the Breakpad convention as well as
// the ordinary hyphenated UUID one.
package debugid

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// DebugId uniquely identifies a build of an object file.
type DebugId struct {
	id       uuid.UUID
	appendix uint32
}

// Nil is the zero DebugId.
var Nil DebugId

// New builds a DebugId from a UUID and an appendix.
func New(id uuid.UUID, appendix uint32) DebugId {
	return DebugId{id: id, appendix: appendix}
}

// FromBytes builds a DebugId directly from 16 raw UUID bytes (as embedded
// in an ELF build-id note or a WASM build_id section) and an appendix.
func FromBytes(b []byte, appendix uint32) (DebugId, error) {
	id, err := uuid.FromBytes(b)
	if err != nil {
		return Nil, fmt.Errorf("debugid: %w", err)
	}
	return DebugId{id: id, appendix: appendix}, nil
}

// IsNil reports whether d is the zero DebugId.
func (d DebugId) IsNil() bool {
	return d == Nil
}

// UUID returns the identifier's 16-byte UUID component.
func (d DebugId) UUID() uuid.UUID {
	return d.id
}

// Appendix returns the identifier's 32-bit appendix (age).
func (d DebugId) Appendix() uint32 {
	return d.appendix
}

// String returns the canonical hyphenated representation, with the
// appendix appended as lowercase hex separated by a dash when non-zero.
func (d DebugId) String() string {
	if d.appendix == 0 {
		return d.id.String()
	}
	return fmt.Sprintf("%s-%x", d.id.String(), d.appendix)
}

// Parse accepts the canonical hyphenated representation, with or without a
// trailing "-appendix" suffix.
func Parse(s string) (DebugId, error) {
	if idx := strings.LastIndexByte(s, '-'); idx >= 0 && idx == 36 {
		uid, err := uuid.Parse(s[:idx])
		if err != nil {
			return Nil, fmt.Errorf("debugid: %w", err)
		}
		appendix, err := strconv.ParseUint(s[idx+1:], 16, 32)
		if err != nil {
			return Nil, fmt.Errorf("debugid: invalid appendix: %w", err)
		}
		return DebugId{id: uid, appendix: uint32(appendix)}, nil
	}

	uid, err := uuid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("debugid: %w", err)
	}
	return DebugId{id: uid}, nil
}

// swapMixedEndian reorders a UUID's first three fields to the mixed-endian
// layout used by Windows GUIDs (and therefore by PDB, PE CodeView records
// and the Breakpad text format): the first 4 bytes and the next two pairs
// of 2 bytes are each byte-reversed; the trailing 8 bytes are untouched.
func swapMixedEndian(b [16]byte) [16]byte {
	var out [16]byte
	out[0], out[1], out[2], out[3] = b[3], b[2], b[1], b[0]
	out[4], out[5] = b[5], b[4]
	out[6], out[7] = b[7], b[6]
	copy(out[8:], b[8:])
	return out
}

// Breakpad returns the Breakpad MODULE-line representation: the UUID in
// mixed-endian byte order, rendered as uppercase hex with no separators,
// followed by the appendix as lowercase hex with no leading zeros.
func (d DebugId) Breakpad() string {
	swapped := swapMixedEndian([16]byte(d.id))
	return fmt.Sprintf("%s%x", strings.ToUpper(hex.EncodeToString(swapped[:])), d.appendix)
}

// FromMixedEndianBytes builds a DebugId from 16 raw bytes stored in the
// mixed-endian order Windows GUIDs use on disk: a PDB Info Stream header, a
// PE CodeView debug directory entry, or Portable PDB's "#Pdb" stream. This
// is the same byte order ParseBreakpad decodes and Breakpad encodes, just
// taken directly from raw bytes instead of a hex string.
func FromMixedEndianBytes(b []byte, appendix uint32) (DebugId, error) {
	if len(b) != 16 {
		return Nil, fmt.Errorf("debugid: mixed-endian id must be 16 bytes, got %d", len(b))
	}
	var raw [16]byte
	copy(raw[:], b)
	raw = swapMixedEndian(raw)

	id, err := uuid.FromBytes(raw[:])
	if err != nil {
		return Nil, fmt.Errorf("debugid: %w", err)
	}
	return DebugId{id: id, appendix: appendix}, nil
}

// ParseBreakpad parses the Breakpad MODULE-line representation produced by
// Breakpad. The trailing appendix digits are optional: some modules (e.g.
// libdispatch.so in the wild) carry an id one character short of the full
// 33-character form, omitting the age entirely.
func ParseBreakpad(s string) (DebugId, error) {
	if len(s) < 32 {
		return Nil, fmt.Errorf("debugid: breakpad id too short: %q", s)
	}

	raw, err := hex.DecodeString(s[:32])
	if err != nil {
		return Nil, fmt.Errorf("debugid: invalid breakpad id: %w", err)
	}

	var b [16]byte
	copy(b[:], raw)
	b = swapMixedEndian(b)

	id, err := uuid.FromBytes(b[:])
	if err != nil {
		return Nil, fmt.Errorf("debugid: %w", err)
	}

	appendix := uint32(0)
	if rest := s[32:]; rest != "" {
		v, err := strconv.ParseUint(rest, 16, 32)
		if err != nil {
			return Nil, fmt.Errorf("debugid: invalid breakpad appendix: %w", err)
		}
		appendix = uint32(v)
	}

	return DebugId{id: id, appendix: appendix}, nil
}
