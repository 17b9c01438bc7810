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

// Package asm implements an incremental EVM bytecode assembler: push
// abstract operations (typed instructions, raw bytes, label declarations,
// macro definitions and invocations) one at a time or in batches, and the
// Assembler resolves labels and macros as soon as it can, deferring what it
// can't yet, so Take can be called to drain whatever's concrete so far at
// any point in the stream.
package asm

import (
	"fmt"
)

// pendingPushSlack is the byte count the resolver reserves for an unsized
// push whose value isn't known yet (a typed instruction's size is always
// known from its specifier, so it never needs slack). It's the same value
// etk's Rust assembler uses (Op::size().unwrap_or(2)): the size of a push1,
// rather than a full push32's worth of slack for every deferred op.
const pendingPushSlack = 2

// RawOp is one item pushed onto an Assembler: either an abstract op or a
// span of already-concrete bytes (e.g. embedded data) to copy through
// untouched.
type RawOp struct {
	op    AbstractOp
	raw   []byte
	isRaw bool
}

// OpItem wraps an abstract op as a RawOp.
func OpItem(op AbstractOp) RawOp { return RawOp{op: op} }

// RawBytes wraps a literal byte span as a RawOp.
func RawBytes(b []byte) RawOp { return RawOp{raw: append([]byte(nil), b...), isRaw: true} }

func (r RawOp) size() (int, bool) {
	if r.isRaw {
		return len(r.raw), true
	}
	return r.op.Size()
}

type pendingLabel struct {
	label    string
	position int
}

type pendingMacro struct {
	name     string
	args     []*Expr
	position int
}

// Assembler is C6: the incremental admission/resolution engine. Zero value
// is not usable; construct with New.
type Assembler struct {
	ready       []RawOp
	concreteLen int

	declaredLabels map[string]*uint64 // nil value: declared, address not yet known
	declaredMacros MacroStore

	pendingLabels []pendingLabel
	pendingMacros []pendingMacro

	hygieneCounter uint64
}

// New returns an empty Assembler.
func New() *Assembler {
	return &Assembler{
		declaredLabels: make(map[string]*uint64),
		declaredMacros: make(MacroStore),
	}
}

// Push admits one item, returning the assembler's total concrete length so
// far (including items still pending resolution, sized conservatively).
func (a *Assembler) Push(item RawOp) (int, error) {
	return a.pushAt(item, -1)
}

// PushAll admits items in order, stopping at the first error.
func (a *Assembler) PushAll(items []RawOp) (int, error) {
	for _, it := range items {
		if _, err := a.Push(it); err != nil {
			return a.concreteLen, err
		}
	}
	return a.concreteLen, nil
}

// pushAt admits item, inserting it into the ready buffer at pos (-1 meaning
// append). pos is only ever non-negative when re-pushing an instruction
// macro's expanded body at the position a still-pending invocation of it
// was recorded at.
func (a *Assembler) pushAt(item RawOp, pos int) (int, error) {
	if err := a.declareContent(item); err != nil {
		return a.concreteLen, err
	}

	if !item.isRaw && item.op.kind == kindMacroInvocation {
		if err := a.expandMacro(item.op.macroName, item.op.macroArgs, pos); err != nil {
			return a.concreteLen, err
		}
		return a.concreteLen, nil
	}

	if err := a.pushRawOp(item, pos); err != nil {
		return a.concreteLen, err
	}
	return a.concreteLen, nil
}

// declareContent records item's label/macro declarations (failing on a
// duplicate) and, for any label it references that isn't declared yet,
// appends a pendingLabels entry recording where in the ready buffer the
// reference sits.
func (a *Assembler) declareContent(item RawOp) error {
	if item.isRaw {
		return nil
	}

	switch item.op.kind {
	case kindLabelDecl:
		if _, exists := a.declaredLabels[item.op.label]; exists {
			return &DuplicateLabelError{Label: item.op.label}
		}
		a.declaredLabels[item.op.label] = nil

	case kindMacroDefinition:
		def := item.op.macroDef
		if _, exists := a.declaredMacros[def.Name]; exists {
			return &DuplicateMacroError{Name: def.Name}
		}
		a.declaredMacros[def.Name] = def
	}

	if labels, err := item.op.Labels(a.declaredMacros); err == nil {
		for _, l := range labels.ToSlice() {
			if _, declared := a.declaredLabels[l]; !declared {
				a.pendingLabels = append(a.pendingLabels, pendingLabel{label: l, position: len(a.ready)})
			}
		}
	}
	return nil
}

// pushRawOp resolves item as far as it can and appends (or inserts, at pos)
// it to the ready buffer, or defers it. It assumes item is not a macro
// invocation (those are handled by expandMacro before reaching here).
func (a *Assembler) pushRawOp(item RawOp, pos int) error {
	if item.isRaw {
		a.concreteLen += len(item.raw)
		a.insertReady(item, pos)
		return nil
	}

	switch item.op.kind {
	case kindLabelDecl:
		return a.resolveLabel(item.op.label)

	case kindMacroDefinition:
		return a.resolvePendingMacros(item.op.macroDef)

	default: // kindInstruction, kindUnsizedPush
		cop, err := item.op.Concretize(a.declaredLabels, a.declaredMacros)
		if err == nil {
			a.concreteLen += cop.size()
			a.insertReady(item, pos)
			return nil
		}

		if ci, ok := err.(*contextIncompleteError); ok {
			switch ci.kind {
			case "label":
				size, ok := item.op.Size()
				if !ok {
					size = pendingPushSlack
				}
				a.concreteLen += size
				a.insertReady(item, pos)
				return nil
			case "exprMacro":
				return &UndeclaredExpressionMacroError{Name: ci.name}
			case "instrMacro":
				return &UndeclaredInstructionMacroError{Name: ci.name}
			}
		}
		return err
	}
}

// resolveLabel assigns label's address, applying the width-correction
// heuristic: every still-pending reference to this label may have been
// sized assuming a 1-byte push, so if the distance from that reference to
// here needs a wider push, bump this label's own address up by that much.
// This is etk's actual heuristic (a bound, not a fixed point): it can over-
// correct by reserving width a label doesn't end up needing. The correction
// is the largest single reference's, not a sum over references, so when
// several references to one label each widen, the label's address can fall
// short of where it lands. No second assembler pass is made.
func (a *Assembler) resolveLabel(label string) error {
	dst := 0
	for _, pl := range a.pendingLabels {
		if pl.label != label {
			continue
		}
		if tmp := (a.concreteLen - pl.position) / 256; tmp > dst {
			dst = tmp
		}
	}

	kept := a.pendingLabels[:0]
	for _, pl := range a.pendingLabels {
		if pl.label != label {
			kept = append(kept, pl)
		}
	}
	a.pendingLabels = kept

	addr := uint64(a.concreteLen + dst)
	a.declaredLabels[label] = &addr
	return nil
}

// resolvePendingMacros expands every previously-deferred invocation of the
// macro just defined, at the position each invocation was recorded.
func (a *Assembler) resolvePendingMacros(def *MacroDef) error {
	var toExpand, kept []pendingMacro
	for _, pm := range a.pendingMacros {
		if pm.name == def.Name {
			toExpand = append(toExpand, pm)
		} else {
			kept = append(kept, pm)
		}
	}
	a.pendingMacros = kept

	for _, pm := range toExpand {
		if err := a.expandMacro(pm.name, pm.args, pm.position); err != nil {
			return err
		}
	}
	return nil
}

// insertReady appends item to the ready buffer, or inserts it at pos if
// pos is non-negative.
func (a *Assembler) insertReady(item RawOp, pos int) {
	if pos < 0 {
		a.ready = append(a.ready, item)
		return
	}
	a.ready = append(a.ready, RawOp{})
	copy(a.ready[pos+1:], a.ready[pos:])
	a.ready[pos] = item
}

// expandMacro expands an instruction-macro invocation: if the macro isn't
// declared yet, the invocation is deferred (recorded against the macro
// name, to be expanded once declared); otherwise its body is cloned, its
// locally-declared labels are mangled for hygiene, its parameters are
// substituted, and the resulting ops are pushed in order (at pos, if this
// expansion is itself satisfying a deferred invocation).
func (a *Assembler) expandMacro(name string, args []*Expr, position int) error {
	def, ok := a.declaredMacros[name]
	if !ok || def.Kind != MacroInstruction {
		a.pendingMacros = append(a.pendingMacros, pendingMacro{name: name, args: args, position: len(a.ready)})
		return nil
	}

	if len(def.Params) != len(args) {
		return fmt.Errorf("instruction macro %q expects %d argument(s), got %d", name, len(def.Params), len(args))
	}

	body := make([]AbstractOp, len(def.InstructionBody))
	for i, op := range def.InstructionBody {
		body[i] = op.Clone()
	}

	labelMap := make(map[string]string, len(body))
	for i := range body {
		if body[i].kind != kindLabelDecl {
			continue
		}
		old := body[i].label
		if _, dup := labelMap[old]; dup {
			return &DuplicateLabelError{Label: old}
		}
		a.hygieneCounter++
		mangled := fmt.Sprintf("%s.%s.%d", name, old, a.hygieneCounter)
		labelMap[old] = mangled
		body[i].label = mangled
	}

	for i := range body {
		if labels, err := body[i].Labels(a.declaredMacros); err == nil {
			for _, l := range labels.ToSlice() {
				if mangled, local := labelMap[l]; local {
					body[i].ReplaceLabel(l, mangled)
				}
			}
		}
		for j, param := range def.Params {
			body[i].FillVariable(param, args[j])
		}
	}

	if position < 0 {
		for _, op := range body {
			if _, err := a.pushAt(OpItem(op), -1); err != nil {
				return err
			}
		}
		return nil
	}

	base := len(a.ready)
	for _, op := range body {
		offset := len(a.ready) - base + position
		if _, err := a.pushAt(OpItem(op), offset); err != nil {
			return err
		}
	}
	return nil
}

// Take concretizes and returns every ready byte accumulated so far,
// clearing the ready buffer. If resolution can't complete yet (a pending
// label or macro still blocks the front of the buffer), it returns the
// bytes that *could* be concretized as an empty slice: partial drains would
// let bytes preceding an unresolved reference slip out of order relative to
// what Finish later reports as missing, so Take is all-or-nothing per spec.
func (a *Assembler) Take() []byte {
	if len(a.pendingMacros) > 0 {
		return []byte{}
	}
	out, err := a.concretizeReady()
	if err != nil {
		return []byte{}
	}
	a.ready = nil
	return out
}

// Finish validates that nothing remains pending, returning
// UndeclaredLabelsError or UndeclaredInstructionMacroError if something
// does. It does not drain the ready buffer; call Take first (or after) to
// get the bytes.
func (a *Assembler) Finish() error {
	if len(a.pendingLabels) > 0 {
		seen := make(map[string]bool, len(a.pendingLabels))
		var names []string
		for _, pl := range a.pendingLabels {
			if !seen[pl.label] {
				seen[pl.label] = true
				names = append(names, pl.label)
			}
		}
		return &UndeclaredLabelsError{Labels: names}
	}
	if len(a.pendingMacros) > 0 {
		return &UndeclaredInstructionMacroError{Name: a.pendingMacros[0].name}
	}
	return nil
}

func (a *Assembler) concretizeReady() ([]byte, error) {
	var out []byte
	for _, item := range a.ready {
		if item.isRaw {
			out = append(out, item.raw...)
			continue
		}
		cop, err := item.op.Concretize(a.declaredLabels, a.declaredMacros)
		if err != nil {
			if ci, ok := err.(*contextIncompleteError); ok {
				switch ci.kind {
				case "label":
					return nil, &UndeclaredLabelsError{Labels: a.pendingLabelNames()}
				case "exprMacro":
					return nil, &UndeclaredExpressionMacroError{Name: ci.name}
				case "instrMacro":
					return nil, &UndeclaredInstructionMacroError{Name: ci.name}
				}
			}
			return nil, err
		}
		Assemble(cop, &out)
	}
	return out, nil
}

func (a *Assembler) pendingLabelNames() []string {
	seen := make(map[string]bool, len(a.pendingLabels))
	var names []string
	for _, pl := range a.pendingLabels {
		if !seen[pl.label] {
			seen[pl.label] = true
			names = append(names, pl.label)
		}
	}
	return names
}

// Len reports the assembler's total concrete length so far, including
// items still pending resolution (sized conservatively per
// pendingPushSlack).
func (a *Assembler) Len() int { return a.concreteLen }
