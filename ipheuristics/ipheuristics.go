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

// Package ipheuristics corrects instruction pointers recovered from a
// crash report into call-site addresses suitable for a SymCache lookup.
// A stack frame's recorded address is usually a return address, pointing
// just past the call instruction; the crashing frame is the exception,
// except when a signal handler has displaced it.
//
// See https://goo.gl/g17EAn for background on this topic.
package ipheuristics

import "github.com/jetsetilly/gosymbolic/arch"

const (
	sigill = 4
	sigbus = 10
	sigsegv = 11
)

// InstructionInfo carries everything needed to recover a call-site address
// from a single stack frame.
type InstructionInfo struct {
	// Addr is the address recorded for this frame.
	Addr uint64

	// Arch is the architecture the frame was captured on.
	Arch arch.Architecture

	// CrashingFrame is true if this frame is the one that caused the crash
	// (or, for a non-crashing thread, the one it was suspended at).
	CrashingFrame bool

	// Signal is the signal number that caused the crash, if known. Use
	// HasSignal to distinguish "no signal" from signal 0.
	Signal     uint32
	HasSignal  bool

	// IPReg is the value of the instruction-pointer register, if known.
	IPReg    uint64
	HasIPReg bool
}

// AlignedAddress truncates Addr to the architecture's instruction
// alignment. Architectures with variable-length instructions (x86, x86_64,
// WASM) have no fixed alignment and the address is returned unchanged.
func (i InstructionInfo) AlignedAddress() uint64 {
	alignment := uint64(i.Arch.InstructionAlignment())
	if alignment == 0 {
		return i.Addr
	}
	return i.Addr - (i.Addr % alignment)
}

// PreviousAddress returns the address of the instruction preceding this
// one, to the extent the architecture allows it to be determined exactly.
// On MIPS the return address typically points two instructions past the
// call, rather than one; everywhere else a single instruction is assumed.
// On architectures without fixed alignment, this returns some address
// within the preceding instruction rather than its exact start, and
// should be treated as an upper bound.
func (i InstructionInfo) PreviousAddress() uint64 {
	instructionSize := uint64(i.Arch.InstructionAlignment())
	if instructionSize == 0 {
		instructionSize = 1
	}

	pcOffset := instructionSize
	if i.Arch.Family() == arch.FamilyMips {
		pcOffset = 2 * instructionSize
	}

	return i.AlignedAddress() - pcOffset
}

// IsCrashSignal reports whether Signal names a signal that indicates the
// processor jumped to an invalid, privileged or misaligned address.
func (i InstructionInfo) IsCrashSignal() bool {
	if !i.HasSignal {
		return false
	}
	switch i.Signal {
	case sigill, sigbus, sigsegv:
		return true
	default:
		return false
	}
}

// ShouldAdjustCaller reports whether Addr should be treated as a return
// address (and therefore adjusted back to the call site) rather than as an
// exact instruction address.
//
// This is true for every frame except the crashing one. The crashing frame
// is itself adjusted when a signal handler has displaced the recorded
// instruction pointer away from the true faulting address — detected here
// by comparing IPReg against Addr.
func (i InstructionInfo) ShouldAdjustCaller() bool {
	if !i.CrashingFrame {
		return true
	}

	if i.HasIPReg && i.IPReg != i.Addr && i.IsCrashSignal() {
		return true
	}

	return false
}

// CallerAddress resolves the address of the call site responsible for this
// frame. It yields an address within the call instruction rather than
// necessarily its start.
func (i InstructionInfo) CallerAddress() uint64 {
	if i.ShouldAdjustCaller() {
		return i.PreviousAddress()
	}
	return i.AlignedAddress()
}
