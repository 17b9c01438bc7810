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

// Package opcodes defines the static, 256-entry EVM opcode table: the byte
// value of every mnemonic, its immediate length, and the jump/exit metadata
// the assembler needs to resolve pushes and validate control-flow opcodes.
package opcodes

import (
	"fmt"

	"github.com/holiman/uint256"
)

// Specifier identifies one of the 256 possible single-byte EVM opcodes.
// The mapping between Specifier and byte is a total bijection: every byte
// value decodes to some Specifier, and every Specifier has exactly one byte
// encoding.
type Specifier byte

const (
	// MaxPushWidth is the widest immediate a push instruction can carry.
	MaxPushWidth = 32
)

type info struct {
	mnemonic     string
	immediateLen int
	isJump       bool
	isJumpTarget bool
	isExit       bool
}

var table [256]info

var byMnemonic = make(map[string]Specifier, 256)

// assignment is one row of the canonical opcode layout, in byte order
// starting at 0x00. This is the data-driven replacement for etk's
// macro-generated lookup table (see DESIGN.md): each row still owns exactly
// one byte, but the byte is this slice's index rather than something a
// macro counts out at compile time.
type assignment struct {
	mnemonic     string
	immediateLen int
	isJump       bool
	isJumpTarget bool
	isExit       bool
}

func op(mnemonic string) assignment { return assignment{mnemonic: mnemonic} }

func exit(mnemonic string) assignment { return assignment{mnemonic: mnemonic, isExit: true} }

func jump(mnemonic string) assignment { return assignment{mnemonic: mnemonic, isJump: true} }

func jumpTarget(mnemonic string) assignment {
	return assignment{mnemonic: mnemonic, isJumpTarget: true}
}

func invalid(b int) assignment {
	return assignment{mnemonic: fmt.Sprintf("invalid_%02x", b), isExit: true}
}

func pushOp(n int) assignment {
	return assignment{mnemonic: fmt.Sprintf("push%d", n), immediateLen: n}
}

// layout lists all 256 opcodes in canonical byte order. Ported from the
// `ops!{...}` table in etk's ops.rs (arithmetic/stack/memory/storage/call
// opcodes through the 0xb0-0xba "unlimited jumps" extension etk carries),
// reproduced here as plain data per spec.md's design note against
// re-encoding the macro machinery.
var layout = buildLayout()

func buildLayout() []assignment {
	l := make([]assignment, 0, 256)
	app := func(a ...assignment) { l = append(l, a...) }

	app(
		exit("stop"), op("add"), op("mul"), op("sub"), op("div"), op("sdiv"),
		op("mod"), op("smod"), op("addmod"), op("mulmod"), op("exp"), op("signextend"),
	)
	for b := 0x0c; b <= 0x0f; b++ {
		app(invalid(b))
	}
	app(
		op("lt"), op("gt"), op("slt"), op("sgt"), op("eq"), op("iszero"),
		op("and"), op("or"), op("xor"), op("not"), op("byte"), op("shl"), op("shr"), op("sar"),
	)
	app(invalid(0x1e), invalid(0x1f))
	app(op("keccak256"))
	for b := 0x21; b <= 0x2f; b++ {
		app(invalid(b))
	}
	app(
		op("address"), op("balance"), op("origin"), op("caller"), op("callvalue"),
		op("calldataload"), op("calldatasize"), op("calldatacopy"), op("codesize"),
		op("codecopy"), op("gasprice"), op("extcodesize"), op("extcodecopy"),
		op("returndatasize"), op("returndatacopy"), op("extcodehash"),
		op("blockhash"), op("coinbase"), op("timestamp"), op("number"),
		op("difficulty"), op("gaslimit"), op("chainid"),
	)
	for b := 0x47; b <= 0x4f; b++ {
		app(invalid(b))
	}
	app(
		op("pop"), op("mload"), op("mstore"), op("mstore8"), op("sload"), op("sstore"),
		jump("jump"), jump("jumpi"), op("pc"), op("msize"), op("gas"), jumpTarget("jumpdest"),
	)
	for b := 0x5c; b <= 0x5f; b++ {
		app(invalid(b))
	}
	for n := 1; n <= 32; n++ {
		app(pushOp(n))
	}
	for n := 1; n <= 16; n++ {
		app(op(fmt.Sprintf("dup%d", n)))
	}
	for n := 1; n <= 16; n++ {
		app(op(fmt.Sprintf("swap%d", n)))
	}
	for n := 0; n <= 4; n++ {
		app(op(fmt.Sprintf("log%d", n)))
	}
	for b := 0xa5; b <= 0xaf; b++ {
		app(invalid(b))
	}
	app(jump("jumpto"), jump("jumpif"), jump("jumpsub"))
	app(invalid(0xb3))
	app(jump("jumpsubv"), jumpTarget("beginsub"), op("begindata"))
	app(invalid(0xb7))
	app(jump("returnsub"), op("putlocal"), op("getlocal"))
	for b := 0xbb; b <= 0xe0; b++ {
		app(invalid(b))
	}
	app(op("sloadbytes"), op("sstorebytes"), op("ssize"))
	for b := 0xe4; b <= 0xef; b++ {
		app(invalid(b))
	}
	app(
		op("create"), op("call"), op("callcode"), exit("return"),
		op("delegatecall"), op("create2"),
	)
	for b := 0xf6; b <= 0xf9; b++ {
		app(invalid(b))
	}
	app(op("staticcall"))
	app(invalid(0xfb))
	app(op("txexecgas"), exit("revert"), exit("invalid"), exit("selfdestruct"))

	if len(l) != 256 {
		panic(fmt.Sprintf("opcodes: layout has %d entries, want 256", len(l)))
	}
	return l
}

func init() {
	for b, a := range layout {
		table[b] = info{
			mnemonic:     a.mnemonic,
			immediateLen: a.immediateLen,
			isJump:       a.isJump,
			isJumpTarget: a.isJumpTarget,
			isExit:       a.isExit,
		}
		byMnemonic[a.mnemonic] = Specifier(b)
	}
}

// FromByte returns the Specifier for b. It is total: every byte value maps
// to some Specifier, unassigned bytes becoming a distinguishable
// InvalidXX placeholder.
func FromByte(b byte) Specifier {
	return Specifier(b)
}

// Byte returns the single-byte encoding of s.
func (s Specifier) Byte() byte {
	return byte(s)
}

// FromMnemonic looks up a Specifier by its lowercase mnemonic.
func FromMnemonic(mnemonic string) (Specifier, bool) {
	s, ok := byMnemonic[mnemonic]
	return s, ok
}

// Mnemonic returns the lowercase ASCII mnemonic for s.
func (s Specifier) Mnemonic() string {
	return table[s].mnemonic
}

// String implements fmt.Stringer, returning the mnemonic.
func (s Specifier) String() string {
	return s.Mnemonic()
}

// ImmediateLen returns the number of immediate bytes s carries, 0 for
// anything but Push1..Push32.
func (s Specifier) ImmediateLen() int {
	return table[s].immediateLen
}

// IsPush reports whether s is one of Push1..Push32.
func (s Specifier) IsPush() bool {
	return table[s].immediateLen > 0
}

// IsJump reports whether s is a control-flow transfer (jump/jumpi and the
// etk-carried unlimited-jump extension).
func (s Specifier) IsJump() bool {
	return table[s].isJump
}

// IsJumpTarget reports whether s may be the target of a jump (jumpdest,
// beginsub).
func (s Specifier) IsJumpTarget() bool {
	return table[s].isJumpTarget
}

// IsExit reports whether executing s always ends the current call frame
// (stop/return/revert/selfdestruct/invalid and all InvalidXX placeholders).
func (s Specifier) IsExit() bool {
	return table[s].isExit
}

// PushFor returns the smallest PushN specifier whose immediate can hold v,
// or false if v needs more than MaxPushWidth bytes.
func PushFor(v *uint256.Int) (Specifier, bool) {
	n := v.ByteLen()
	if n == 0 {
		n = 1
	}
	return Push(n)
}

// Push returns the PushN specifier for an immediate of exactly n bytes, or
// false if n exceeds MaxPushWidth. An n below 1 is treated as 1 (push1).
func Push(n int) (Specifier, bool) {
	if n < 1 {
		n = 1
	}
	if n > MaxPushWidth {
		return 0, false
	}
	s, ok := FromMnemonic(fmt.Sprintf("push%d", n))
	return s, ok
}

// Upsize returns the next larger push specifier, or false if s is already
// Push32 or is not a push specifier at all.
func (s Specifier) Upsize() (Specifier, bool) {
	n := s.ImmediateLen()
	if n == 0 {
		return 0, false
	}
	return Push(n + 1)
}
