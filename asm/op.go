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
	"math/big"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/holiman/uint256"

	"github.com/gzanitti/etk-go/opcodes"
)

type opKind int

const (
	kindInstruction opKind = iota
	kindLabelDecl
	kindUnsizedPush
	kindMacroInvocation
	kindMacroDefinition
)

// AbstractOp is C4's abstract operation: a typed instruction with an
// immediate that may still be unresolved, a label declaration, an unsized
// push awaiting the resolver's width choice, a macro invocation awaiting
// expansion, or a macro definition.
type AbstractOp struct {
	kind opKind

	spec opcodes.Specifier // kindInstruction
	imm  Imm               // kindInstruction, kindUnsizedPush

	label string // kindLabelDecl

	macroName string  // kindMacroInvocation
	macroArgs []*Expr // kindMacroInvocation

	macroDef *MacroDef // kindMacroDefinition
}

// NewOp returns a typed instruction. imm should be the zero Imm for
// specifiers with no immediate.
func NewOp(spec opcodes.Specifier, imm Imm) AbstractOp {
	return AbstractOp{kind: kindInstruction, spec: spec, imm: imm}
}

// NewLabel returns a label declaration.
func NewLabel(name string) AbstractOp { return AbstractOp{kind: kindLabelDecl, label: name} }

// NewPush returns an unsized push; the resolver picks its width once imm is
// resolvable.
func NewPush(imm Imm) AbstractOp { return AbstractOp{kind: kindUnsizedPush, imm: imm} }

// NewMacroInvocation returns an instruction-macro call.
func NewMacroInvocation(name string, args []*Expr) AbstractOp {
	return AbstractOp{kind: kindMacroInvocation, macroName: name, macroArgs: args}
}

// NewMacroDefinition returns a macro declaration.
func NewMacroDefinition(def *MacroDef) AbstractOp {
	return AbstractOp{kind: kindMacroDefinition, macroDef: def}
}

// Specifier returns op's specifier, if op is a typed instruction.
func (op AbstractOp) Specifier() (opcodes.Specifier, bool) {
	if op.kind == kindInstruction {
		return op.spec, true
	}
	return 0, false
}

// Size returns op's concrete byte size, if known without resolving any
// label or macro (instructions and label/macro declarations always know
// their size up front; unsized pushes and macro invocations don't).
func (op AbstractOp) Size() (int, bool) {
	switch op.kind {
	case kindInstruction:
		return 1 + op.spec.ImmediateLen(), true
	case kindLabelDecl, kindMacroDefinition:
		return 0, true
	default:
		return 0, false
	}
}

// ImmediateLabel returns the label name op's immediate references, if op
// carries one (a push-family instruction or an unsized push with a Label
// immediate).
func (op AbstractOp) ImmediateLabel() (string, bool) {
	switch op.kind {
	case kindInstruction:
		if op.spec.IsPush() && op.imm.kind == immLabel {
			return op.imm.label, true
		}
	case kindUnsizedPush:
		if op.imm.kind == immLabel {
			return op.imm.label, true
		}
	}
	return "", false
}

// Labels returns the set of label names op depends on.
func (op AbstractOp) Labels(macros MacroStore) (mapset.Set[string], error) {
	switch op.kind {
	case kindInstruction, kindUnsizedPush:
		return op.imm.Labels(macros)
	case kindMacroInvocation:
		set := mapset.NewSet[string]()
		for _, a := range op.macroArgs {
			s, err := a.Labels(macros)
			if err != nil {
				return nil, err
			}
			set = set.Union(s)
		}
		return set, nil
	default:
		return mapset.NewSet[string](), nil
	}
}

// ReplaceLabel renames every occurrence of label old to new, in place.
func (op *AbstractOp) ReplaceLabel(old, new string) {
	switch op.kind {
	case kindInstruction, kindUnsizedPush:
		op.imm.ReplaceLabel(old, new)
	case kindLabelDecl:
		if op.label == old {
			op.label = new
		}
	case kindMacroInvocation:
		for _, a := range op.macroArgs {
			a.ReplaceLabel(old, new)
		}
	}
}

// FillVariable substitutes every leaf referencing the macro parameter name
// with value, in place.
func (op *AbstractOp) FillVariable(name string, value *Expr) {
	switch op.kind {
	case kindInstruction, kindUnsizedPush:
		op.imm.FillVariable(name, value)
	case kindMacroInvocation:
		for _, a := range op.macroArgs {
			a.FillVariable(name, value)
		}
	}
}

// Clone returns a deep copy of op, safe to mutate independently. Used when
// expanding a macro body: each invocation gets its own clone so label
// mangling and parameter substitution never touch the stored definition.
func (op AbstractOp) Clone() AbstractOp {
	clone := op
	clone.imm = op.imm.Clone()
	if op.macroArgs != nil {
		clone.macroArgs = make([]*Expr, len(op.macroArgs))
		for i, a := range op.macroArgs {
			clone.macroArgs[i] = a.Clone()
		}
	}
	return clone
}

// Realize converts an unsized push, or a typed instruction carrying a Label
// immediate, into a typed instruction with a Constant immediate sized for
// address. For an unsized push the specifier itself is chosen via
// opcodes.PushFor; for an already-typed instruction, address must fit
// within the specifier's fixed immediate length, and is left-padded to it.
func (op AbstractOp) Realize(address uint64) (AbstractOp, error) {
	switch op.kind {
	case kindUnsizedPush:
		if op.imm.kind != immLabel {
			return AbstractOp{}, errors.New("only unsized pushes with a label immediate can be realized")
		}
		v := new(uint256.Int).SetUint64(address)
		spec, ok := opcodes.PushFor(v)
		if !ok {
			return AbstractOp{}, &UnsizedPushTooLargeError{}
		}
		return NewOp(spec, ConstantImm(encodeBigEndian(v, spec.ImmediateLen()))), nil

	case kindInstruction:
		if op.imm.kind != immLabel {
			return AbstractOp{}, errors.New("only instructions with a label immediate can be realized")
		}
		v := new(uint256.Int).SetUint64(address)
		if v.ByteLen() > op.spec.ImmediateLen() {
			return AbstractOp{}, &ExpressionTooLargeError{
				Source: op.imm.label,
				Value:  new(big.Int).SetUint64(address),
				Spec:   op.spec,
			}
		}
		return NewOp(op.spec, ConstantImm(encodeBigEndian(v, op.spec.ImmediateLen()))), nil

	default:
		return AbstractOp{}, errors.New("only push ops with a label immediate can be realized")
	}
}

// Concretize evaluates op's immediate against labels/macros and returns the
// fully-resolved ConcreteOp. It handles Constant, Label, and Expression
// immediates uniformly (see Imm.evalAsValue): a Label immediate is resolved
// to its address the same way Realize would, so the assembler's admission
// loop doesn't need to call Realize as a separate step.
func (op AbstractOp) Concretize(labels map[string]*uint64, macros MacroStore) (ConcreteOp, error) {
	switch op.kind {
	case kindInstruction:
		if op.spec.ImmediateLen() == 0 {
			return ConcreteOp{Spec: op.spec}, nil
		}
		val, err := op.imm.evalAsValue(labels, macros)
		if err != nil {
			return ConcreteOp{}, err
		}
		return concretizeValue(op.spec, op.imm.sourceString(), val)

	case kindUnsizedPush:
		val, err := op.imm.evalAsValue(labels, macros)
		if err != nil {
			return ConcreteOp{}, err
		}
		if val.Sign() < 0 {
			return ConcreteOp{}, &ExpressionNegativeError{Source: op.imm.sourceString(), Value: val}
		}
		u, overflow := uint256.FromBig(val)
		if overflow {
			return ConcreteOp{}, &UnsizedPushTooLargeError{}
		}
		spec, ok := opcodes.PushFor(u)
		if !ok {
			return ConcreteOp{}, &UnsizedPushTooLargeError{}
		}
		return ConcreteOp{Spec: spec, Immediate: encodeBigEndian(u, spec.ImmediateLen())}, nil

	case kindLabelDecl, kindMacroDefinition:
		return ConcreteOp{}, errors.New("labels and macro definitions carry no bytes and cannot be concretized")

	case kindMacroInvocation:
		return ConcreteOp{}, incompleteInstrMacro(op.macroName)
	}
	return ConcreteOp{}, errors.New("unknown abstract op kind")
}

func concretizeValue(spec opcodes.Specifier, source string, val *big.Int) (ConcreteOp, error) {
	if val.Sign() < 0 {
		return ConcreteOp{}, &ExpressionNegativeError{Source: source, Value: val}
	}
	u, overflow := uint256.FromBig(val)
	width := spec.ImmediateLen()
	if overflow || u.ByteLen() > width {
		return ConcreteOp{}, &ExpressionTooLargeError{Source: source, Value: val, Spec: spec}
	}
	return ConcreteOp{Spec: spec, Immediate: encodeBigEndian(u, width)}, nil
}

func encodeBigEndian(v *uint256.Int, width int) []byte {
	b32 := v.Bytes32()
	return append([]byte(nil), b32[32-width:]...)
}

// ConcreteOp is a fully-resolved operation (C4/C7): a specifier plus its
// already-sized immediate bytes, ready for Assemble.
type ConcreteOp struct {
	Spec      opcodes.Specifier
	Immediate []byte
}

func (c ConcreteOp) size() int { return 1 + len(c.Immediate) }
