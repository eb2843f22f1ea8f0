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

import (
	"sort"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/parser"
)

// scopeRange is one named (or anonymous) function scope found in a piece
// of minified source, given as a byte-offset range.
type scopeRange struct {
	Start, End int
	Name       string // empty means anonymous, not unknown
}

// extractScopeNames parses source as JavaScript and returns the byte-offset
// range of every function scope it can find along with the best name it
// can recover for it: a function declaration's own name, or the name of
// the variable or property a function expression was assigned to.
//
// This only walks the statement and expression shapes minifiers commonly
// emit (function declarations, function expressions bound to a variable or
// object property, arrow functions, nested blocks) rather than the full
// grammar; anything else is simply not reported as a scope, the same way
// objname's mangling detection is a heuristic rather than a full demangler.
func extractScopeNames(source string) ([]scopeRange, error) {
	if source == "" {
		return nil, nil
	}

	program, err := parser.ParseFile(nil, "", source, 0)
	if err != nil {
		return nil, err
	}

	var scopes []scopeRange
	walkStatements(program.Body, "", &scopes)
	return scopes, nil
}

func offsetOf(idx ast.Idx) int {
	return int(idx) - 1
}

func walkStatements(list []ast.Statement, enclosingName string, out *[]scopeRange) {
	for _, stmt := range list {
		walkStatement(stmt, out)
	}
}

func walkStatement(stmt ast.Statement, out *[]scopeRange) {
	switch s := stmt.(type) {
	case *ast.FunctionDeclaration:
		walkFunctionLiteral(s.Function, nameOf(s.Function.Name), out)
	case *ast.ExpressionStatement:
		walkExpression(s.Expression, "", out)
	case *ast.VariableStatement:
		for _, binding := range s.List {
			name := targetName(binding.Target)
			walkExpression(binding.Initializer, name, out)
		}
	case *ast.BlockStatement:
		walkStatements(s.List, "", out)
	case *ast.IfStatement:
		walkStatement(s.Consequent, out)
		if s.Alternate != nil {
			walkStatement(s.Alternate, out)
		}
	case *ast.ForStatement:
		walkStatement(s.Body, out)
	case *ast.ForInStatement:
		walkStatement(s.Body, out)
	case *ast.WhileStatement:
		walkStatement(s.Body, out)
	case *ast.ReturnStatement:
		walkExpression(s.Argument, "", out)
	case *ast.TryStatement:
		if s.Body != nil {
			walkStatements(s.Body.List, "", out)
		}
		if s.Catch != nil && s.Catch.Body != nil {
			walkStatements(s.Catch.Body.List, "", out)
		}
		if s.Finally != nil {
			walkStatements(s.Finally.List, "", out)
		}
	}
}

func walkExpression(expr ast.Expression, assignedName string, out *[]scopeRange) {
	switch e := expr.(type) {
	case nil:
		return
	case *ast.FunctionLiteral:
		name := nameOf(e.Name)
		if name == "" {
			name = assignedName
		}
		walkFunctionLiteral(e, name, out)
	case *ast.ArrowFunctionLiteral:
		walkArrowFunctionLiteral(e, assignedName, out)
	case *ast.CallExpression:
		walkExpression(e.Callee, "", out)
		for _, a := range e.ArgumentList {
			walkExpression(a, "", out)
		}
	case *ast.AssignExpression:
		walkExpression(e.Right, identifierName(e.Left), out)
	case *ast.ObjectLiteral:
		for _, prop := range e.Value {
			if kv, ok := prop.(*ast.PropertyKeyed); ok {
				walkExpression(kv.Value, propertyName(kv.Key), out)
			}
		}
	case *ast.SequenceExpression:
		for _, sub := range e.Sequence {
			walkExpression(sub, "", out)
		}
	}
}

func walkFunctionLiteral(fn *ast.FunctionLiteral, name string, out *[]scopeRange) {
	if fn == nil {
		return
	}
	*out = append(*out, scopeRange{
		Start: offsetOf(fn.Idx0()),
		End:   offsetOf(fn.Idx1()),
		Name:  name,
	})
	if fn.Body != nil {
		walkStatements(fn.Body.List, "", out)
	}
}

func walkArrowFunctionLiteral(fn *ast.ArrowFunctionLiteral, name string, out *[]scopeRange) {
	if fn == nil {
		return
	}
	*out = append(*out, scopeRange{
		Start: offsetOf(fn.Idx0()),
		End:   offsetOf(fn.Idx1()),
		Name:  name,
	})
	switch body := fn.Body.(type) {
	case *ast.BlockStatement:
		walkStatements(body.List, "", out)
	case ast.Expression:
		walkExpression(body, "", out)
	}
}

func nameOf(id *ast.Identifier) string {
	if id == nil {
		return ""
	}
	return string(id.Name)
}

func identifierName(expr ast.Expression) string {
	if id, ok := expr.(*ast.Identifier); ok {
		return string(id.Name)
	}
	return ""
}

func targetName(target ast.BindingTarget) string {
	if id, ok := target.(*ast.Identifier); ok {
		return string(id.Name)
	}
	return ""
}

func propertyName(key ast.Expression) string {
	switch k := key.(type) {
	case *ast.Identifier:
		return string(k.Name)
	case *ast.StringLiteral:
		return string(k.Value)
	}
	return ""
}

const (
	scopeGlobal int = iota
	scopeAnonymous
	scopeNamed
)

// scopeResult is what a minified position resolves to: no enclosing
// function (global), an unnamed function expression (anonymous), or a
// function whose name could be recovered (named).
type scopeResult struct {
	Kind int
	Name string
}

type scopeIndexEntry struct {
	Pos    rawMinifiedPosition
	Result scopeResult
}

// buildScopeIndex turns a set of (possibly nested) function byte ranges
// into a flat, position-sorted index: a sweep over each range's start and
// end, tracking the current innermost enclosing scope with a stack, so
// that a lookup at any position sees the scope actually enclosing it
// rather than just the nearest scope that happens to start before it.
func buildScopeIndex(ranges []scopeRange, ctx *sourceContext) []scopeIndexEntry {
	type event struct {
		offset int
		start  bool
		name   string
	}

	events := make([]event, 0, len(ranges)*2)
	for _, r := range ranges {
		events = append(events, event{offset: r.Start, start: true, name: r.Name})
		events = append(events, event{offset: r.End, start: false, name: r.Name})
	}
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].offset != events[j].offset {
			return events[i].offset < events[j].offset
		}
		// close out a scope ending exactly where the next one begins
		// before opening the next, so the boundary offset reports the
		// narrower (inner) scope rather than the wider (outer) one
		return !events[i].start && events[j].start
	})

	var stack []string
	var out []scopeIndexEntry
	lastOffset := -1

	current := func() scopeResult {
		if len(stack) == 0 {
			return scopeResult{Kind: scopeGlobal}
		}
		name := stack[len(stack)-1]
		if name == "" {
			return scopeResult{Kind: scopeAnonymous}
		}
		return scopeResult{Kind: scopeNamed, Name: name}
	}

	entryAt := func(offset int) scopeIndexEntry {
		line, col, ok := ctx.offsetToPosition(offset)
		if !ok {
			line, col = 0, 0
		}
		return scopeIndexEntry{Pos: rawMinifiedPosition{Line: line, Column: col}, Result: current()}
	}

	for _, ev := range events {
		if ev.start {
			stack = append(stack, ev.name)
		} else if len(stack) > 0 {
			stack = stack[:len(stack)-1]
		}

		if ev.offset == lastOffset && len(out) > 0 {
			out[len(out)-1] = entryAt(ev.offset)
			continue
		}
		lastOffset = ev.offset
		out = append(out, entryAt(ev.offset))
	}

	return out
}

// lookupScope returns the scope enclosing sp: the result of the last index
// entry at or before sp, or global if sp precedes every recorded scope.
func lookupScope(index []scopeIndexEntry, sp rawMinifiedPosition) scopeResult {
	lo, hi := 0, len(index)
	for lo < hi {
		mid := (lo + hi) / 2
		if index[mid].Pos.less(sp) || index[mid].Pos == sp {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo == 0 {
		return scopeResult{Kind: scopeGlobal}
	}
	return index[lo-1].Result
}
