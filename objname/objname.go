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

// Package objname carries a symbol or function name alongside its
// mangling state and source language, as recorded by the object format
// that produced it. Demangling itself is out of scope here: callers that
// need readable names are expected to pass Name.String() through an
// external demangler.
package objname

import "github.com/jetsetilly/gosymbolic/lang"

// Mangling describes whether a Name is known to be mangled.
type Mangling int

const (
	// Unknown means the producing format did not say.
	Unknown Mangling = iota
	Mangled
	Unmangled
)

// Name pairs a raw symbol string with what is known about its mangling
// and source language.
type Name struct {
	name     string
	mangling Mangling
	language lang.Language
}

// New builds a Name.
func New(name string, mangling Mangling, language lang.Language) Name {
	return Name{name: name, mangling: mangling, language: language}
}

// String returns the raw, possibly-mangled name.
func (n Name) String() string {
	return n.name
}

// Mangling reports what is known about n's mangling state.
func (n Name) Mangling() Mangling {
	return n.mangling
}

// Language returns the name's source language.
func (n Name) Language() lang.Language {
	return n.language
}
