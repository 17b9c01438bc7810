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

	mapset "github.com/deckarep/golang-set/v2"
)

type immKind int

const (
	immConstant immKind = iota
	immLabel
	immExpression
)

// Imm is the tagged immediate operand of an abstract op (C2): a fixed byte
// string already known at push time, a label reference resolved once the
// label is declared, or an arithmetic expression resolved once every name it
// mentions is.
type Imm struct {
	kind     immKind
	constant []byte
	label    string
	expr     *Expr
}

// ConstantImm wraps an already-known byte string (big-endian, already sized
// to the carrying specifier's immediate length where one applies).
func ConstantImm(b []byte) Imm {
	return Imm{kind: immConstant, constant: append([]byte(nil), b...)}
}

// LabelImm references a label's eventual address.
func LabelImm(name string) Imm { return Imm{kind: immLabel, label: name} }

// ExpressionImm wraps an arithmetic expression.
func ExpressionImm(e *Expr) Imm { return Imm{kind: immExpression, expr: e} }

// Labels returns the set of label names this immediate depends on.
func (im Imm) Labels(macros MacroStore) (mapset.Set[string], error) {
	switch im.kind {
	case immLabel:
		return mapset.NewSet(im.label), nil
	case immExpression:
		return im.expr.Labels(macros)
	default:
		return mapset.NewSet[string](), nil
	}
}

// Variables returns the set of macro-parameter names this immediate
// references directly.
func (im Imm) Variables() mapset.Set[string] {
	if im.kind == immExpression {
		return im.expr.Variables()
	}
	return mapset.NewSet[string]()
}

// ReplaceLabel renames every occurrence of label old to new, in place.
func (im *Imm) ReplaceLabel(old, new string) {
	switch im.kind {
	case immLabel:
		if im.label == old {
			im.label = new
		}
	case immExpression:
		im.expr.ReplaceLabel(old, new)
	}
}

// FillVariable substitutes every leaf referencing the macro parameter name
// with value, in place.
func (im *Imm) FillVariable(name string, value *Expr) {
	if im.kind == immExpression {
		im.expr.FillVariable(name, value)
	}
}

// Clone returns a deep copy of im, safe to mutate independently.
func (im Imm) Clone() Imm {
	switch im.kind {
	case immConstant:
		return ConstantImm(im.constant)
	case immExpression:
		return Imm{kind: immExpression, expr: im.expr.Clone()}
	default:
		return im
	}
}

// evalAsValue resolves im to a signed integer value against the given
// context, uniformly across all three immediate kinds: a Constant decodes
// as an unsigned big-endian number, a Label resolves to its address, and an
// Expression is evaluated. Errors from an unresolved label/macro/variable
// are *contextIncompleteError, letting callers decide between deferring and
// failing.
func (im Imm) evalAsValue(labels map[string]*uint64, macros MacroStore) (*big.Int, error) {
	switch im.kind {
	case immConstant:
		return new(big.Int).SetBytes(im.constant), nil
	case immLabel:
		addr, ok := labels[im.label]
		if !ok || addr == nil {
			return nil, incompleteLabel(im.label)
		}
		return new(big.Int).SetUint64(*addr), nil
	case immExpression:
		return im.expr.Eval(labels, macros)
	}
	return nil, errors.New("unknown immediate kind")
}

// sourceString renders im for use in error messages.
func (im Imm) sourceString() string {
	switch im.kind {
	case immConstant:
		return fmt.Sprintf("0x%x", im.constant)
	case immLabel:
		return "@" + im.label
	case immExpression:
		return im.expr.String()
	}
	return "?"
}
