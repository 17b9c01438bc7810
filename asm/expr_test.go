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
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExprEvalArithmetic(t *testing.T) {
	// (2 + 3) * 4 - 1 = 19
	e := BinExpr(OpSub,
		BinExpr(OpMul, BinExpr(OpAdd, IntExpr(2), IntExpr(3)), IntExpr(4)),
		IntExpr(1),
	)
	v, err := e.Eval(nil, nil)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(19), v)
}

func TestExprEvalNegation(t *testing.T) {
	e := NegExpr(IntExpr(7))
	v, err := e.Eval(nil, nil)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(-7), v)
}

func TestExprEvalBitwise(t *testing.T) {
	e := BinExpr(OpXor, BinExpr(OpAnd, IntExpr(0xff), IntExpr(0x0f)), BinExpr(OpOr, IntExpr(0x10), IntExpr(0x01)))
	v, err := e.Eval(nil, nil)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(0x0f^0x11), v)
}

func TestExprEvalUnresolvedLabel(t *testing.T) {
	e := LabelExpr("dest")
	_, err := e.Eval(map[string]*uint64{}, nil)
	require.Error(t, err)
	var ci *contextIncompleteError
	require.ErrorAs(t, err, &ci)
	require.Equal(t, "label", ci.kind)
	require.Equal(t, "dest", ci.name)
}

func TestExprEvalResolvedLabel(t *testing.T) {
	addr := uint64(42)
	e := BinExpr(OpAdd, LabelExpr("dest"), IntExpr(1))
	v, err := e.Eval(map[string]*uint64{"dest": &addr}, nil)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(43), v)
}

func TestExprEvalUndeclaredExpressionMacro(t *testing.T) {
	e := MacroCallExpr("double", []*Expr{IntExpr(21)})
	_, err := e.Eval(nil, MacroStore{})
	var ci *contextIncompleteError
	require.ErrorAs(t, err, &ci)
	require.Equal(t, "exprMacro", ci.kind)
	require.Equal(t, "double", ci.name)
}

func TestExprEvalExpressionMacro(t *testing.T) {
	macros := MacroStore{
		"double": NewExpressionMacro("double", []string{"x"}, BinExpr(OpMul, VariableExpr("x"), IntExpr(2))),
	}
	e := MacroCallExpr("double", []*Expr{IntExpr(21)})
	v, err := e.Eval(nil, macros)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(42), v)
}

func TestExprEvalNestedExpressionMacro(t *testing.T) {
	macros := MacroStore{
		"inc":    NewExpressionMacro("inc", []string{"x"}, BinExpr(OpAdd, VariableExpr("x"), IntExpr(1))),
		"double": NewExpressionMacro("double", []string{"x"}, BinExpr(OpMul, MacroCallExpr("inc", []*Expr{VariableExpr("x")}), IntExpr(2))),
	}
	e := MacroCallExpr("double", []*Expr{IntExpr(9)})
	v, err := e.Eval(nil, macros)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(20), v) // (9+1)*2
}

func TestExprDivisionByZero(t *testing.T) {
	e := BinExpr(OpDiv, IntExpr(1), IntExpr(0))
	_, err := e.Eval(nil, nil)
	require.Error(t, err)
}

func TestExprLabelsCollectsFromMacroArgsAndBody(t *testing.T) {
	macros := MacroStore{
		"foo": NewExpressionMacro("foo", []string{"x"}, BinExpr(OpAdd, VariableExpr("x"), LabelExpr("inner"))),
	}
	e := MacroCallExpr("foo", []*Expr{LabelExpr("outer")})
	set, err := e.Labels(macros)
	require.NoError(t, err)
	require.True(t, set.Contains("outer"))
	require.True(t, set.Contains("inner"))
	require.Equal(t, 2, set.Cardinality())
}

func TestExprReplaceLabel(t *testing.T) {
	e := BinExpr(OpAdd, LabelExpr("a"), LabelExpr("b"))
	e.ReplaceLabel("a", "a.mangled")
	set, err := e.Labels(nil)
	require.NoError(t, err)
	require.True(t, set.Contains("a.mangled"))
	require.True(t, set.Contains("b"))
	require.False(t, set.Contains("a"))
}

func TestExprFillVariableClonesValue(t *testing.T) {
	shared := IntExpr(5)
	e1 := VariableExpr("x")
	e2 := VariableExpr("x")
	e1.FillVariable("x", shared)
	e2.FillVariable("x", shared)

	e1.ReplaceLabel("unused", "unused") // no-op, just exercising the mutated node
	v1, err := e1.Eval(nil, nil)
	require.NoError(t, err)
	v2, err := e2.Eval(nil, nil)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(5), v1)
	require.Equal(t, big.NewInt(5), v2)

	// Mutating shared afterwards must not affect either already-filled copy.
	shared.number.SetInt64(99)
	v1Again, err := e1.Eval(nil, nil)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(5), v1Again)
}

func TestExprCloneIsIndependent(t *testing.T) {
	orig := BinExpr(OpAdd, LabelExpr("a"), IntExpr(1))
	clone := orig.Clone()
	clone.ReplaceLabel("a", "renamed")

	origSet, err := orig.Labels(nil)
	require.NoError(t, err)
	require.True(t, origSet.Contains("a"))

	cloneSet, err := clone.Labels(nil)
	require.NoError(t, err)
	require.True(t, cloneSet.Contains("renamed"))
}

func TestExprEvalVariableUndefined(t *testing.T) {
	e := VariableExpr("unbound")
	_, err := e.Eval(nil, nil)
	var ci *contextIncompleteError
	require.ErrorAs(t, err, &ci)
	require.Equal(t, "variable", ci.kind)
}

func TestExprString(t *testing.T) {
	e := BinExpr(OpAdd, LabelExpr("a"), IntExpr(1))
	require.Equal(t, "(@a + 1)", e.String())
}
