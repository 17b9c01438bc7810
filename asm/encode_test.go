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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAssembleAppendsOpcodeAndImmediate(t *testing.T) {
	cop := ConcreteOp{Spec: mustSpec(t, "push2"), Immediate: []byte{0x01, 0x02}}
	var out []byte
	Assemble(cop, &out)
	require.Equal(t, []byte{0x61, 0x01, 0x02}, out)
}

func TestAssembleNoImmediate(t *testing.T) {
	cop := ConcreteOp{Spec: mustSpec(t, "add")}
	var out []byte
	Assemble(cop, &out)
	require.Equal(t, []byte{0x01}, out)
}

func TestDecodeRoundTrip(t *testing.T) {
	cop := ConcreteOp{Spec: mustSpec(t, "push4"), Immediate: []byte{0xde, 0xad, 0xbe, 0xef}}
	var buf []byte
	Assemble(cop, &buf)

	decoded, n, err := Decode(buf)
	require.NoError(t, err)
	require.Equal(t, len(buf), n)
	require.Equal(t, cop.Spec, decoded.Spec)
	require.Equal(t, cop.Immediate, decoded.Immediate)
}

func TestDecodeTruncatedImmediate(t *testing.T) {
	_, _, err := Decode([]byte{0x61, 0x01}) // push2 needs 2 immediate bytes, only has 1
	require.Error(t, err)
}

func TestDecodeEmpty(t *testing.T) {
	_, _, err := Decode(nil)
	require.Error(t, err)
}

func TestDecodeMultipleOps(t *testing.T) {
	var buf []byte
	Assemble(ConcreteOp{Spec: mustSpec(t, "push1"), Immediate: []byte{0x2a}}, &buf)
	Assemble(ConcreteOp{Spec: mustSpec(t, "stop")}, &buf)

	first, n1, err := Decode(buf)
	require.NoError(t, err)
	require.Equal(t, "push1", first.Spec.Mnemonic())

	second, n2, err := Decode(buf[n1:])
	require.NoError(t, err)
	require.Equal(t, "stop", second.Spec.Mnemonic())
	require.Equal(t, len(buf), n1+n2)
}
