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

// MacroKind distinguishes the two macro flavors a MacroDef can declare.
type MacroKind int

const (
	// MacroInstruction macros expand to a sequence of abstract ops.
	MacroInstruction MacroKind = iota
	// MacroExpression macros expand to a single expression, substituted
	// inline wherever they're invoked.
	MacroExpression
)

// MacroDef is C5's macro definition: a name, its formal parameters, and
// either an instruction-macro body or an expression-macro body.
type MacroDef struct {
	Kind   MacroKind
	Name   string
	Params []string

	InstructionBody []AbstractOp // MacroInstruction
	ExpressionBody  *Expr        // MacroExpression
}

// NewInstructionMacro returns an instruction-macro definition.
func NewInstructionMacro(name string, params []string, body []AbstractOp) *MacroDef {
	return &MacroDef{Kind: MacroInstruction, Name: name, Params: params, InstructionBody: body}
}

// NewExpressionMacro returns an expression-macro definition.
func NewExpressionMacro(name string, params []string, body *Expr) *MacroDef {
	return &MacroDef{Kind: MacroExpression, Name: name, Params: params, ExpressionBody: body}
}

// MacroStore is the named registry of declared macros (C5), keyed by name.
// Lookups span both macro kinds; callers that need one specific kind check
// def.Kind themselves (as Expr.Eval and Assembler.expandMacro both do).
type MacroStore map[string]*MacroDef
