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

package errors

// error messages, grouped by the package that raises them
const (
	// object
	UnrecognisedObjectFormat = "object error: unrecognised file format"
	ObjectParseError         = "object error: %v"
	MissingDebugID           = "object error: could not determine debug id"

	// debug session
	DebugSessionError        = "debug session error: %v"
	MalformedLineTable       = "debug session error: malformed line table: %v"
	NoDebugSession           = "debug session error: %s carries no usable debug session"

	// symcache
	SymCacheWriteError = "symcache error: %v"
	SymCacheReadError  = "symcache error: %v"
	SymCacheBadMagic   = "symcache error: bad file magic"
	SymCacheBadVersion = "symcache error: unsupported version (%d)"

	// sourcemapcache
	SourceMapCacheWriteError = "sourcemapcache error: %v"
	SourceMapCacheReadError  = "sourcemapcache error: %v"
	SourceMapDecodeError     = "sourcemapcache error: failed to decode source map: %v"

	// transform
	TransformError  = "transform error: %v"
	BCSymbolMapScan = "transform error: bcsymbolmap: %v"
	Il2CppMapError  = "transform error: il2cpp: %v"
	SrcsrvError     = "transform error: srcsrv: %v"
)
