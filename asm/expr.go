// Copyright 2016 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package asm

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// maxExpansionDepth bounds expression-macro recursion. asm.rs's expander has
// no equivalent guard and relies on macro declarations never forming a
// cycle; we'd rather fail loudly than spin forever on one that does.
const maxExpansionDepth = 128

var errMacroExpansionTooDeep = errors.New("expression macro expansion exceeded the recursion limit")

// BinOp is one of the binary arithmetic/bitwise operators an expression
// tree can carry.
type BinOp int

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpAnd
	OpOr
	OpXor
)

var binOpSymbols = map[BinOp]string{
	OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/",
	OpMod: "%", OpAnd: "&", OpOr: "|", OpXor: "^",
}

type exprKind int

const (
	exprNumber exprKind = iota
	exprLabel
	exprVariable
	exprMacroCall
	exprNeg
	exprBinOp
)

// Expr is an arithmetic expression tree (C3): a signed-integer AST whose
// leaves may reference a label address, a macro parameter, or an
// expression-macro invocation, evaluated against an assembler's label/macro
// context. Nodes are mutated in place by ReplaceLabel/FillVariable, so a
// tree must be Clone()d before it is shared across more than one
// macro-expansion site.
type Expr struct {
	kind exprKind

	number *big.Int // exprNumber
	label  string   // exprLabel
	variable string // exprVariable

	macroName string  // exprMacroCall
	macroArgs []*Expr // exprMacroCall

	op   BinOp // exprBinOp
	x, y *Expr // exprNeg uses x only; exprBinOp uses both
}

// NumberExpr returns a leaf holding the literal value v.
func NumberExpr(v *big.Int) *Expr { return &Expr{kind: exprNumber, number: new(big.Int).Set(v)} }

// IntExpr is a convenience wrapper around NumberExpr for small literals.
func IntExpr(v int64) *Expr { return NumberExpr(big.NewInt(v)) }

// LabelExpr returns a leaf referencing a label's eventual address.
func LabelExpr(name string) *Expr { return &Expr{kind: exprLabel, label: name} }

// VariableExpr returns a leaf referencing a macro parameter, to be resolved
// by FillVariable during macro expansion.
func VariableExpr(name string) *Expr { return &Expr{kind: exprVariable, variable: name} }

// MacroCallExpr returns a node invoking a declared expression macro.
func MacroCallExpr(name string, args []*Expr) *Expr {
	return &Expr{kind: exprMacroCall, macroName: name, macroArgs: args}
}

// NegExpr returns the arithmetic negation of x.
func NegExpr(x *Expr) *Expr { return &Expr{kind: exprNeg, x: x} }

// BinExpr returns a binary operator node.
func BinExpr(op BinOp, x, y *Expr) *Expr { return &Expr{kind: exprBinOp, op: op, x: x, y: y} }

// Eval evaluates e against labels (a declared-label table, nil address
// meaning "declared but not yet resolved") and macros. It returns a
// *contextIncompleteError-wrapping error when the expression references a
// label that has no address yet, an expression macro that was never
// declared, or a variable that was never substituted.
func (e *Expr) Eval(labels map[string]*uint64, macros MacroStore) (*big.Int, error) {
	return e.eval(labels, macros, 0)
}

func (e *Expr) eval(labels map[string]*uint64, macros MacroStore, depth int) (*big.Int, error) {
	if depth > maxExpansionDepth {
		return nil, errMacroExpansionTooDeep
	}
	switch e.kind {
	case exprNumber:
		return new(big.Int).Set(e.number), nil

	case exprLabel:
		addr, ok := labels[e.label]
		if !ok || addr == nil {
			return nil, incompleteLabel(e.label)
		}
		return new(big.Int).SetUint64(*addr), nil

	case exprVariable:
		return nil, incompleteVariable(e.variable)

	case exprMacroCall:
		def, ok := macros[e.macroName]
		if !ok || def.Kind != MacroExpression {
			return nil, incompleteExprMacro(e.macroName)
		}
		if len(def.Params) != len(e.macroArgs) {
			return nil, fmt.Errorf("expression macro %q expects %d argument(s), got %d", e.macroName, len(def.Params), len(e.macroArgs))
		}
		body := def.ExpressionBody.Clone()
		for i, param := range def.Params {
			body.FillVariable(param, e.macroArgs[i])
		}
		return body.eval(labels, macros, depth+1)

	case exprNeg:
		v, err := e.x.eval(labels, macros, depth)
		if err != nil {
			return nil, err
		}
		return new(big.Int).Neg(v), nil

	case exprBinOp:
		l, err := e.x.eval(labels, macros, depth)
		if err != nil {
			return nil, err
		}
		r, err := e.y.eval(labels, macros, depth)
		if err != nil {
			return nil, err
		}
		res := new(big.Int)
		switch e.op {
		case OpAdd:
			res.Add(l, r)
		case OpSub:
			res.Sub(l, r)
		case OpMul:
			res.Mul(l, r)
		case OpDiv:
			if r.Sign() == 0 {
				return nil, errors.New("division by zero")
			}
			res.Quo(l, r)
		case OpMod:
			if r.Sign() == 0 {
				return nil, errors.New("division by zero")
			}
			res.Rem(l, r)
		case OpAnd:
			res.And(l, r)
		case OpOr:
			res.Or(l, r)
		case OpXor:
			res.Xor(l, r)
		default:
			return nil, fmt.Errorf("unknown binary operator %d", e.op)
		}
		return res, nil
	}
	return nil, fmt.Errorf("unknown expression kind %d", e.kind)
}

// Labels returns the set of label names e (transitively, through any
// expression-macro invocations it makes) depends on. An unknown macro is
// reported as an error; callers that just want a best-effort partial set
// (e.g. while still declaring content) should ignore that error, matching
// the deferred-resolution design.
func (e *Expr) Labels(macros MacroStore) (mapset.Set[string], error) {
	set := mapset.NewSet[string]()
	switch e.kind {
	case exprLabel:
		set.Add(e.label)

	case exprNeg:
		s, err := e.x.Labels(macros)
		if err != nil {
			return nil, err
		}
		set = set.Union(s)

	case exprBinOp:
		sx, err := e.x.Labels(macros)
		if err != nil {
			return nil, err
		}
		sy, err := e.y.Labels(macros)
		if err != nil {
			return nil, err
		}
		set = set.Union(sx).Union(sy)

	case exprMacroCall:
		for _, a := range e.macroArgs {
			s, err := a.Labels(macros)
			if err != nil {
				return nil, err
			}
			set = set.Union(s)
		}
		def, ok := macros[e.macroName]
		if !ok {
			return nil, incompleteExprMacro(e.macroName)
		}
		if def.Kind == MacroExpression {
			s, err := def.ExpressionBody.Labels(macros)
			if err != nil {
				return nil, err
			}
			set = set.Union(s)
		}
	}
	return set, nil
}

// Variables returns the set of macro-parameter names e references directly
// (not reaching into the bodies of any macros it calls, which resolve their
// own parameters at their own call site).
func (e *Expr) Variables() mapset.Set[string] {
	set := mapset.NewSet[string]()
	switch e.kind {
	case exprVariable:
		set.Add(e.variable)
	case exprNeg:
		set = set.Union(e.x.Variables())
	case exprBinOp:
		set = set.Union(e.x.Variables()).Union(e.y.Variables())
	case exprMacroCall:
		for _, a := range e.macroArgs {
			set = set.Union(a.Variables())
		}
	}
	return set
}

// ReplaceLabel renames every occurrence of label old to new, in place.
func (e *Expr) ReplaceLabel(old, new string) {
	switch e.kind {
	case exprLabel:
		if e.label == old {
			e.label = new
		}
	case exprNeg:
		e.x.ReplaceLabel(old, new)
	case exprBinOp:
		e.x.ReplaceLabel(old, new)
		e.y.ReplaceLabel(old, new)
	case exprMacroCall:
		for _, a := range e.macroArgs {
			a.ReplaceLabel(old, new)
		}
	}
}

// FillVariable substitutes every leaf referencing the macro parameter name
// with a clone of value, in place.
func (e *Expr) FillVariable(name string, value *Expr) {
	switch e.kind {
	case exprVariable:
		if e.variable == name {
			*e = *value.Clone()
		}
	case exprNeg:
		e.x.FillVariable(name, value)
	case exprBinOp:
		e.x.FillVariable(name, value)
		e.y.FillVariable(name, value)
	case exprMacroCall:
		for _, a := range e.macroArgs {
			a.FillVariable(name, value)
		}
	}
}

// Clone returns a deep copy of e, safe to mutate independently (in
// particular via ReplaceLabel/FillVariable during macro expansion).
func (e *Expr) Clone() *Expr {
	if e == nil {
		return nil
	}
	clone := &Expr{
		kind:      e.kind,
		label:     e.label,
		variable:  e.variable,
		macroName: e.macroName,
		op:        e.op,
	}
	if e.number != nil {
		clone.number = new(big.Int).Set(e.number)
	}
	clone.x = e.x.Clone()
	clone.y = e.y.Clone()
	if e.macroArgs != nil {
		clone.macroArgs = make([]*Expr, len(e.macroArgs))
		for i, a := range e.macroArgs {
			clone.macroArgs[i] = a.Clone()
		}
	}
	return clone
}

// String renders e for use in error messages.
func (e *Expr) String() string {
	switch e.kind {
	case exprNumber:
		return e.number.String()
	case exprLabel:
		return "@" + e.label
	case exprVariable:
		return "$" + e.variable
	case exprMacroCall:
		parts := make([]string, len(e.macroArgs))
		for i, a := range e.macroArgs {
			parts[i] = a.String()
		}
		return fmt.Sprintf("%%%s(%s)", e.macroName, strings.Join(parts, ", "))
	case exprNeg:
		return fmt.Sprintf("-(%s)", e.x.String())
	case exprBinOp:
		return fmt.Sprintf("(%s %s %s)", e.x.String(), binOpSymbols[e.op], e.y.String())
	}
	return "?"
}
