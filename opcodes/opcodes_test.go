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

package opcodes

import (
	"testing"

	"github.com/holiman/uint256"
)

func TestByteBijection(t *testing.T) {
	for b := 0; b < 256; b++ {
		s := FromByte(byte(b))
		if got := s.Byte(); got != byte(b) {
			t.Errorf("FromByte(%#x).Byte() = %#x, want %#x", b, got, b)
		}
	}
}

func TestMnemonicRoundTrip(t *testing.T) {
	for b := 0; b < 256; b++ {
		s := FromByte(byte(b))
		parsed, ok := FromMnemonic(s.Mnemonic())
		if !ok {
			t.Errorf("FromMnemonic(%q) not found for byte %#x", s.Mnemonic(), b)
			continue
		}
		if parsed != s {
			t.Errorf("FromMnemonic(%q) = %#x, want %#x", s.Mnemonic(), parsed.Byte(), b)
		}
	}
}

func TestUnassignedBytesAreExit(t *testing.T) {
	tests := []struct {
		b    byte
		want string
	}{
		{0x0c, "invalid_0c"},
		{0x1e, "invalid_1e"},
		{0xa5, "invalid_a5"},
		{0xfb, "invalid_fb"},
	}
	for _, test := range tests {
		s := FromByte(test.b)
		if s.Mnemonic() != test.want {
			t.Errorf("FromByte(%#x).Mnemonic() = %q, want %q", test.b, s.Mnemonic(), test.want)
		}
		if !s.IsExit() {
			t.Errorf("FromByte(%#x).IsExit() = false, want true", test.b)
		}
	}
}

func TestKnownOpcodes(t *testing.T) {
	tests := []struct {
		mnemonic string
		b        byte
	}{
		{"stop", 0x00},
		{"add", 0x01},
		{"keccak256", 0x20},
		{"jumpdest", 0x5b},
		{"push1", 0x60},
		{"push32", 0x7f},
		{"dup1", 0x80},
		{"swap16", 0x9f},
		{"log4", 0xa4},
		{"invalid", 0xfe},
		{"selfdestruct", 0xff},
	}
	for _, test := range tests {
		s, ok := FromMnemonic(test.mnemonic)
		if !ok {
			t.Errorf("FromMnemonic(%q) not found", test.mnemonic)
			continue
		}
		if s.Byte() != test.b {
			t.Errorf("FromMnemonic(%q).Byte() = %#x, want %#x", test.mnemonic, s.Byte(), test.b)
		}
	}
}

func TestMetadataFlags(t *testing.T) {
	jumpdest, _ := FromMnemonic("jumpdest")
	if !jumpdest.IsJumpTarget() {
		t.Error("jumpdest should be a jump target")
	}
	jump, _ := FromMnemonic("jump")
	if !jump.IsJump() {
		t.Error("jump should be IsJump")
	}
	stop, _ := FromMnemonic("stop")
	if !stop.IsExit() {
		t.Error("stop should be IsExit")
	}
	add, _ := FromMnemonic("add")
	if add.IsJump() || add.IsJumpTarget() || add.IsExit() {
		t.Error("add should have no flags set")
	}
}

func TestPushForWidths(t *testing.T) {
	tests := []struct {
		value uint64
		want  string
	}{
		{0, "push1"},
		{1, "push1"},
		{255, "push1"},
		{256, "push2"},
		{65535, "push2"},
		{65536, "push3"},
		{16777215, "push3"},
		{16777216, "push4"},
		{4294967295, "push4"},
	}
	for _, test := range tests {
		v := uint256.NewInt(test.value)
		s, ok := PushFor(v)
		if !ok {
			t.Errorf("PushFor(%d): not ok", test.value)
			continue
		}
		if s.Mnemonic() != test.want {
			t.Errorf("PushFor(%d) = %s, want %s", test.value, s.Mnemonic(), test.want)
		}
	}
}

func TestPushForOverflow(t *testing.T) {
	max := new(uint256.Int).Not(uint256.NewInt(0)) // all-ones, 2^256-1, fits in 32 bytes
	if _, ok := PushFor(max); !ok {
		t.Error("PushFor(2^256-1) should fit in push32")
	}
}

func TestPushOutOfRange(t *testing.T) {
	if _, ok := Push(0); !ok {
		t.Error("Push(0) should round up to push1")
	}
	if _, ok := Push(33); ok {
		t.Error("Push(33) should fail, no opcode carries a 33-byte immediate")
	}
}

func TestUpsize(t *testing.T) {
	push1, _ := FromMnemonic("push1")
	push2, ok := push1.Upsize()
	if !ok || push2.Mnemonic() != "push2" {
		t.Errorf("push1.Upsize() = %v, %v; want push2, true", push2, ok)
	}

	push32, _ := FromMnemonic("push32")
	if _, ok := push32.Upsize(); ok {
		t.Error("push32.Upsize() should fail, there is no push33")
	}

	add, _ := FromMnemonic("add")
	if _, ok := add.Upsize(); ok {
		t.Error("add.Upsize() should fail, add is not a push")
	}
}
