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

package sourcemapcache

import "encoding/json"

// hermesMarkerField is the top-level key the Metro/Hermes bundler adds to
// a source map to carry its bytecode function offsets; its presence is
// this package's only signal that a map came from a React Native bundle
// rather than an ordinary minifier.
const hermesMarkerField = "x_facebook_sources"

// isHermesSourceMap reports whether raw carries the Hermes/Metro marker
// field. A malformed document reports false rather than an error: callers
// already run the document through json.Unmarshal for the fields they
// need and will surface any real parse failure there.
func isHermesSourceMap(raw []byte) bool {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return false
	}
	_, ok := probe[hermesMarkerField]
	return ok
}

// hermesColumnAdjustment is added to the minified column passed to Lookup
// when a cache was built from a Hermes/Metro source map, before the search.
// The line and every resolved field are unaffected.
const hermesColumnAdjustment = 1
