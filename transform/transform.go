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

// Package transform rewrites functions and source locations a SymCache
// writer is about to intern, before interning happens. A build pipeline
// that obfuscates symbol names (Apple bitcode), transpiles one language
// into another (IL2CPP) or moves source under version control (Perforce
// via a PDB's SRCSRV stream) leaves the debug session carrying the
// obfuscated or transpiled data; a Transform repairs it without the
// per-format backend needing to know any of this happened.
package transform

import "github.com/jetsetilly/gosymbolic/debugsession"

// Transform rewrites a function and, independently, a source location on
// its way into a SymCache writer.
type Transform interface {
	// TransformFunction returns a possibly-rewritten copy of f. Called
	// once per function, before its lines are processed.
	TransformFunction(f debugsession.Function) debugsession.Function

	// TransformSourceLocation returns a possibly-rewritten (file, line)
	// pair. Called once per line record.
	TransformSourceLocation(file debugsession.FileEntry, line uint32) (debugsession.FileEntry, uint32)
}

// Chain applies a sequence of transforms in order.
type Chain []Transform

func (c Chain) TransformFunction(f debugsession.Function) debugsession.Function {
	for _, t := range c {
		f = t.TransformFunction(f)
	}
	return f
}

func (c Chain) TransformSourceLocation(file debugsession.FileEntry, line uint32) (debugsession.FileEntry, uint32) {
	for _, t := range c {
		file, line = t.TransformSourceLocation(file, line)
	}
	return file, line
}
