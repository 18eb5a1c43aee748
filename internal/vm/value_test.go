package vm

import (
	"math/big"
	"testing"
)

func TestValueInspect(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"unit", MakeUnit(), "()"},
		{"u32", MakeU32(42), "u32:42"},
		{"u1 true", MakeU1(true), "u1:1"},
		{"s8 negative", MakeSBits(8, -1), "s8:-1"},
		{"s32 positive", MakeSBits(32, 7), "s32:7"},
		{"wide", MakeBits(128, false, new(big.Int).Lsh(big.NewInt(1), 100)), "u128:1267650600228229401496703205376"},
		{"tuple", MakeTuple(MakeU32(3), MakeU64(4)), "(u32:3, u64:4)"},
		{"nested tuple", MakeTuple(MakeU32(1), MakeTuple(MakeU1(false))), "(u32:1, (u1:0))"},
		{"array", MakeArray(MakeUBits(8, 1), MakeUBits(8, 2)), "[u8:1, u8:2]"},
		{"empty tuple", MakeTuple(), "()"},
		{"builtin", MakeBuiltinFunction(BuiltinAssertEq), "builtin:assert_eq"},
		{"user fn", MakeUserFunction(&UserFunction{Name: "f"}), "fn:f"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.Inspect(); got != tt.want {
				t.Errorf("Inspect() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValueEquals(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"unit", MakeUnit(), MakeUnit(), true},
		{"same bits", MakeU32(5), MakeU32(5), true},
		{"different value", MakeU32(5), MakeU32(6), false},
		{"different width", MakeUBits(16, 5), MakeUBits(32, 5), false},
		{"different sign", MakeUBits(8, 5), MakeSBits(8, 5), false},
		{"signed same pattern", MakeSBits(8, -1), MakeBits(8, true, big.NewInt(255)), true},
		{"unit vs bits", MakeUnit(), MakeU32(0), false},
		{"tuples equal", MakeTuple(MakeU32(1), MakeU1(true)), MakeTuple(MakeU32(1), MakeU1(true)), true},
		{"tuples length", MakeTuple(MakeU32(1)), MakeTuple(MakeU32(1), MakeU32(2)), false},
		{"tuple vs array", MakeTuple(MakeU32(1)), MakeArray(MakeU32(1)), false},
		{"arrays differ deep", MakeArray(MakeTuple(MakeU32(1))), MakeArray(MakeTuple(MakeU32(2))), false},
		{"builtins equal", MakeBuiltinFunction(BuiltinAssertEq), MakeBuiltinFunction(BuiltinAssertEq), true},
		{"builtins differ", MakeBuiltinFunction(BuiltinAssertEq), MakeBuiltinFunction(BuiltinAssertLt), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equals(tt.b); got != tt.want {
				t.Errorf("Equals(%s, %s) = %t, want %t", tt.a.Inspect(), tt.b.Inspect(), got, tt.want)
			}
		})
	}
}

func TestMakeBitsNormalizes(t *testing.T) {
	// Negative inputs land on their two's-complement pattern.
	v := MakeBits(8, true, big.NewInt(-1))
	if v.Pattern().Cmp(big.NewInt(255)) != 0 {
		t.Errorf("pattern = %s, want 255", v.Pattern())
	}
	// Oversized inputs are reduced modulo 2^width.
	v = MakeBits(8, false, big.NewInt(0x1ff))
	if v.Pattern().Cmp(big.NewInt(0xff)) != 0 {
		t.Errorf("pattern = %s, want 255", v.Pattern())
	}
	// Zero width holds only the empty pattern.
	v = MakeBits(0, false, big.NewInt(12))
	if v.Pattern().Sign() != 0 {
		t.Errorf("zero-width pattern = %s, want 0", v.Pattern())
	}
}

func TestShapeAccessors(t *testing.T) {
	if _, err := MakeU32(1).GetBits(); err != nil {
		t.Errorf("GetBits on Bits failed: %s", err)
	}
	if _, err := MakeTuple().GetBits(); !IsInternalError(err) {
		t.Errorf("GetBits on Tuple should be an internal error, got %v", err)
	}
	if _, err := MakeArray(MakeU32(1)).GetArray(); err != nil {
		t.Errorf("GetArray on Array failed: %s", err)
	}
	if _, err := MakeU32(1).GetTuple(); !IsInternalError(err) {
		t.Errorf("GetTuple on Bits should be an internal error, got %v", err)
	}
	if _, err := MakeBuiltinFunction(BuiltinAssertEq).GetFunction(); err != nil {
		t.Errorf("GetFunction on Function failed: %s", err)
	}
	if _, err := MakeUnit().GetFunction(); !IsInternalError(err) {
		t.Errorf("GetFunction on Unit should be an internal error, got %v", err)
	}
}

func TestZeroValueIsUnit(t *testing.T) {
	var v Value
	if !v.IsUnit() || v.Inspect() != "()" {
		t.Errorf("zero Value should be Unit, got %s", v.Inspect())
	}
	if !NewEnvironment(2).slots[1].IsUnit() {
		t.Errorf("environment slots must be pre-filled with Unit")
	}
}
