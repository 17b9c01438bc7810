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
	"fmt"
	"math/big"

	"github.com/gzanitti/etk-go/opcodes"
)

// Sentinel errors for use with errors.Is. Each has a concrete *XxxError type
// (below) carrying the offending names/values, usable with errors.As.
var (
	ErrDuplicateLabel             = fmt.Errorf("label declared multiple times")
	ErrDuplicateMacro             = fmt.Errorf("macro declared multiple times")
	ErrExpressionTooLarge         = fmt.Errorf("expression value too large for its specifier")
	ErrExpressionNegative         = fmt.Errorf("expression evaluated to a negative value")
	ErrUnsizedPushTooLarge        = fmt.Errorf("unsized push value too large for any push")
	ErrUndeclaredLabels           = fmt.Errorf("one or more labels were never declared")
	ErrUndeclaredInstructionMacro = fmt.Errorf("instruction macro was never declared")
	ErrUndeclaredExpressionMacro  = fmt.Errorf("expression macro was never declared")
)

// DuplicateLabelError is returned when a label is declared more than once.
type DuplicateLabelError struct {
	Label string
}

func (e *DuplicateLabelError) Error() string {
	return fmt.Sprintf("label %q declared multiple times", e.Label)
}

func (e *DuplicateLabelError) Unwrap() error { return ErrDuplicateLabel }

// DuplicateMacroError is returned when a macro is declared more than once.
type DuplicateMacroError struct {
	Name string
}

func (e *DuplicateMacroError) Error() string {
	return fmt.Sprintf("macro %q declared multiple times", e.Name)
}

func (e *DuplicateMacroError) Unwrap() error { return ErrDuplicateMacro }

// ExpressionTooLargeError is returned when a fully-resolved value doesn't
// fit the immediate length of its specifier.
type ExpressionTooLargeError struct {
	Source string
	Value  *big.Int
	Spec   opcodes.Specifier
}

func (e *ExpressionTooLargeError) Error() string {
	return fmt.Sprintf("the expression `%s=%s` is too large for %s", e.Source, e.Value, e.Spec)
}

func (e *ExpressionTooLargeError) Unwrap() error { return ErrExpressionTooLarge }

// ExpressionNegativeError is returned when a fully-resolved value is
// negative, which cannot be represented as a push operand.
type ExpressionNegativeError struct {
	Source string
	Value  *big.Int
}

func (e *ExpressionNegativeError) Error() string {
	return fmt.Sprintf("the expression `%s=%s` is negative and can't be represented as a push operand", e.Source, e.Value)
}

func (e *ExpressionNegativeError) Unwrap() error { return ErrExpressionNegative }

// UnsizedPushTooLargeError is returned when an unsized push's value needs
// more than opcodes.MaxPushWidth bytes.
type UnsizedPushTooLargeError struct{}

func (e *UnsizedPushTooLargeError) Error() string {
	return "value was too large for any push"
}

func (e *UnsizedPushTooLargeError) Unwrap() error { return ErrUnsizedPushTooLarge }

// UndeclaredLabelsError is returned by Finish (or, for an internal resolve
// attempt, surfaced the same way) when labels remain referenced but never
// declared.
type UndeclaredLabelsError struct {
	Labels []string
}

func (e *UndeclaredLabelsError) Error() string {
	return fmt.Sprintf("labels %v were never defined", e.Labels)
}

func (e *UndeclaredLabelsError) Unwrap() error { return ErrUndeclaredLabels }

// UndeclaredInstructionMacroError is returned when an instruction macro
// invocation never gets a matching definition.
type UndeclaredInstructionMacroError struct {
	Name string
}

func (e *UndeclaredInstructionMacroError) Error() string {
	return fmt.Sprintf("instruction macro %q was never defined", e.Name)
}

func (e *UndeclaredInstructionMacroError) Unwrap() error { return ErrUndeclaredInstructionMacro }

// UndeclaredExpressionMacroError is returned when an expression references
// an expression-macro invocation that never gets a matching definition.
type UndeclaredExpressionMacroError struct {
	Name string
}

func (e *UndeclaredExpressionMacroError) Error() string {
	return fmt.Sprintf("expression macro %q was never defined", e.Name)
}

func (e *UndeclaredExpressionMacroError) Unwrap() error { return ErrUndeclaredExpressionMacro }

// contextIncompleteError is what Expr.Eval and AbstractOp.Concretize return
// when a name can't be resolved yet. It tells the admission/drain logic in
// assembler.go *why* concretization couldn't complete, so it can decide
// between deferring (unknown label) and failing immediately (unknown
// macro). kind is one of "label", "exprMacro", "instrMacro", "variable"; a
// "variable" one has no sentinel and is returned from Assembler.Push as is.
type contextIncompleteError struct {
	kind string
	name string
}

func (e *contextIncompleteError) Error() string {
	return fmt.Sprintf("context incomplete: unknown %s %q", e.kind, e.name)
}

func incompleteLabel(name string) error    { return &contextIncompleteError{kind: "label", name: name} }
func incompleteExprMacro(name string) error { return &contextIncompleteError{kind: "exprMacro", name: name} }
func incompleteInstrMacro(name string) error {
	return &contextIncompleteError{kind: "instrMacro", name: name}
}
func incompleteVariable(name string) error {
	return &contextIncompleteError{kind: "variable", name: name}
}
