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

	"github.com/gzanitti/etk-go/opcodes"
)

// Assemble appends the wire encoding of op (one opcode byte followed by its
// immediate, if any, left-padded with zeros to the specifier's immediate
// length) to *out.
func Assemble(op ConcreteOp, out *[]byte) {
	*out = append(*out, op.Spec.Byte())
	if pad := op.Spec.ImmediateLen() - len(op.Immediate); pad > 0 {
		*out = append(*out, make([]byte, pad)...)
	}
	*out = append(*out, op.Immediate...)
}

// Decode reads one ConcreteOp from the front of b, returning the op and the
// number of bytes consumed. It isn't exercised by the assembler itself
// (which only ever encodes), but round-tripping Assemble/Decode is the most
// direct way to test byte-exactness, and a disassembler downstream of this
// package needs exactly this primitive.
func Decode(b []byte) (ConcreteOp, int, error) {
	if len(b) == 0 {
		return ConcreteOp{}, 0, fmt.Errorf("cannot decode an empty byte slice")
	}
	spec := opcodes.FromByte(b[0])
	n := spec.ImmediateLen()
	if len(b) < 1+n {
		return ConcreteOp{}, 0, fmt.Errorf("truncated immediate for %s: need %d byte(s), have %d", spec, n, len(b)-1)
	}
	imm := append([]byte(nil), b[1:1+n]...)
	return ConcreteOp{Spec: spec, Immediate: imm}, 1 + n, nil
}
