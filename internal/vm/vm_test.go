package vm

import (
	"strings"
	"testing"
)

func runCode(t *testing.T, code []Instruction, slotCount int) Value {
	t.Helper()
	result, err := Interpret(code, NewEnvironment(slotCount))
	if err != nil {
		t.Fatalf("runtime error: %s", err)
	}
	return result
}

func runCodeExpectError(t *testing.T, code []Instruction, slotCount int) error {
	t.Helper()
	_, err := Interpret(code, NewEnvironment(slotCount))
	if err == nil {
		t.Fatalf("expected an error, but the program ran successfully")
	}
	return err
}

func testBitsValue(t *testing.T, v Value, want Value) {
	t.Helper()
	if !v.IsBits() {
		t.Fatalf("value is not Bits. got=%s (%s)", v.Kind, v.Inspect())
	}
	if !v.Equals(want) {
		t.Errorf("value has wrong contents. got=%s, want=%s", v.Inspect(), want.Inspect())
	}
}

func TestPositiveSmoke(t *testing.T) {
	code := []Instruction{
		Literal(MakeU32(1)),
		Store(0),
		Load(0),
		Literal(MakeU32(2)),
		Plain(OP_ADD),
	}
	result := runCode(t, code, 1)
	testBitsValue(t, result, MakeU32(3))
}

func TestAssertEqFail(t *testing.T) {
	code := []Instruction{
		Literal(MakeU32(3)),
		Store(0),
		Load(0),
		Literal(MakeU32(2)),
		CallBuiltin(BuiltinAssertEq),
		Store(1),
		Load(0),
	}
	err := runCodeExpectError(t, code, 2)
	if !IsAssertionFailure(err) {
		t.Fatalf("expected an assertion failure, got %s: %s", ClassifyError(err), err)
	}
	if !strings.Contains(err.Error(), "were not equal") {
		t.Errorf("error %q should contain %q", err.Error(), "were not equal")
	}
	if !strings.Contains(err.Error(), "u32:3") || !strings.Contains(err.Error(), "u32:2") {
		t.Errorf("error %q should render both operands", err.Error())
	}
}

func ternaryProgram(cond bool) []Instruction {
	return []Instruction{
		Literal(MakeU1(cond)),
		JumpRelIf(3),
		Literal(MakeU32(64)),
		JumpRel(3),
		JumpDest(),
		Literal(MakeU32(42)),
		JumpDest(),
	}
}

func TestTernaryConsequent(t *testing.T) {
	result := runCode(t, ternaryProgram(true), 0)
	testBitsValue(t, result, MakeU32(42))
}

func TestTernaryAlternate(t *testing.T) {
	result := runCode(t, ternaryProgram(false), 0)
	testBitsValue(t, result, MakeU32(64))
}

func TestBinaryOps(t *testing.T) {
	tests := []struct {
		name string
		lhs  Value
		rhs  Value
		op   Opcode
		want Value
	}{
		{"and", MakeU32(0xa5a5a5a5), MakeU32(0xffffffff), OP_AND, MakeU32(0xa5a5a5a5)},
		{"or", MakeU32(0xa5a5a5a5), MakeU32(0x5a5a5a5a), OP_OR, MakeU32(0xffffffff)},
		{"xor", MakeU32(0xa5a5ffff), MakeU32(0x5a5affff), OP_XOR, MakeU32(0xffff0000)},
		{"add", MakeU32(1), MakeU32(2), OP_ADD, MakeU32(3)},
		{"add wraps", MakeU32(0xffffffff), MakeU32(1), OP_ADD, MakeU32(0)},
		{"sub", MakeU32(0xa5a5a5a5), MakeU32(0x5a5a5a5a), OP_SUB, MakeU32(0x4b4b4b4b)},
		{"sub wraps", MakeU32(0), MakeU32(1), OP_SUB, MakeU32(0xffffffff)},
		{"mul", MakeU32(0x21082108), MakeU32(4), OP_MUL, MakeU32(0x84208420)},
		{"div", MakeU32(0x84208420), MakeU32(4), OP_DIV, MakeU32(0x21082108)},
		{"signed div", MakeSBits(32, -7), MakeSBits(32, 2), OP_DIV, MakeSBits(32, -3)},
		{"concat", MakeU32(0xa5a5a5a5), MakeU32(0xffffffff), OP_CONCAT, MakeU64(0xa5a5a5a5ffffffff)},
		{"concat widths", MakeUBits(4, 0xa), MakeUBits(8, 0xff), OP_CONCAT, MakeUBits(12, 0xaff)},
		{"shll", MakeU32(0x21082108), MakeU32(2), OP_SHLL, MakeU32(0x84208420)},
		{"shrl", MakeU32(0x84208420), MakeU32(2), OP_SHRL, MakeU32(0x21082108)},
		{"shll out of range", MakeU32(0xffffffff), MakeU32(32), OP_SHLL, MakeU32(0)},
		{"shrl out of range", MakeU32(0xffffffff), MakeU32(33), OP_SHRL, MakeU32(0)},
		{"shift amount wider than subject", MakeUBits(8, 0xff), MakeU64(1), OP_SHLL, MakeUBits(8, 0xfe)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code := []Instruction{
				Literal(tt.lhs),
				Literal(tt.rhs),
				Plain(tt.op),
			}
			result := runCode(t, code, 0)
			testBitsValue(t, result, tt.want)
		})
	}
}

func TestUnaryOps(t *testing.T) {
	tests := []struct {
		name string
		in   Value
		op   Opcode
		want Value
	}{
		{"not", MakeU32(0xa5a5a5a5), OP_NOT, MakeU32(0x5a5a5a5a)},
		{"not s32", MakeSBits(32, 1), OP_NOT, MakeSBits(32, -2)},
		{"negate", MakeSBits(32, -2), OP_NEGATE, MakeSBits(32, 2)},
		{"negate unsigned wraps", MakeUBits(8, 1), OP_NEGATE, MakeUBits(8, 0xff)},
		{"negate zero", MakeU32(0), OP_NEGATE, MakeU32(0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code := []Instruction{Literal(tt.in), Plain(tt.op)}
			result := runCode(t, code, 0)
			testBitsValue(t, result, tt.want)
		})
	}
}

// Add then Sub must round-trip modulo 2^w.
func TestAddSubRoundTrip(t *testing.T) {
	operands := []struct{ a, b uint64 }{
		{0, 0},
		{1, 2},
		{0xffffffff, 0xffffffff},
		{0x80000000, 0x7fffffff},
		{42, 0xdeadbeef},
	}
	for _, pair := range operands {
		code := []Instruction{
			Literal(MakeU32(uint32(pair.a))),
			Literal(MakeU32(uint32(pair.b))),
			Plain(OP_ADD),
			Literal(MakeU32(uint32(pair.b))),
			Plain(OP_SUB),
		}
		result := runCode(t, code, 0)
		testBitsValue(t, result, MakeU32(uint32(pair.a)))
	}
}

func TestStoreLoadRoundTrip(t *testing.T) {
	code := []Instruction{
		Literal(MakeTuple(MakeU32(7), MakeU1(true))),
		Store(2),
		Load(2),
	}
	result := runCode(t, code, 3)
	if !result.Equals(MakeTuple(MakeU32(7), MakeU1(true))) {
		t.Errorf("tuple did not survive store/load. got=%s", result.Inspect())
	}
}

func TestUserFunctionCall(t *testing.T) {
	addFn := &UserFunction{
		Name:      "add2",
		Arity:     2,
		SlotCount: 2,
		Code: []Instruction{
			Load(0),
			Load(1),
			Plain(OP_ADD),
		},
	}
	code := []Instruction{
		Literal(MakeU32(40)),
		Literal(MakeU32(2)),
		Call(MakeUserFunction(addFn)),
	}
	result := runCode(t, code, 0)
	testBitsValue(t, result, MakeU32(42))
}

func TestUserFunctionFailurePropagates(t *testing.T) {
	failFn := &UserFunction{
		Name:      "always_fails",
		Arity:     1,
		SlotCount: 1,
		Code: []Instruction{
			Load(0),
			Literal(MakeU32(999)),
			CallBuiltin(BuiltinAssertEq),
		},
	}
	code := []Instruction{
		Literal(MakeU32(1)),
		Call(MakeUserFunction(failFn)),
		Store(0),
		Load(0),
	}
	err := runCodeExpectError(t, code, 1)
	if !IsAssertionFailure(err) {
		t.Fatalf("nested assertion failure lost its class: %s (%s)", err, ClassifyError(err))
	}
}

func TestNestedUserFunctionCalls(t *testing.T) {
	inc := &UserFunction{
		Name:      "inc",
		Arity:     1,
		SlotCount: 1,
		Code: []Instruction{
			Load(0),
			Literal(MakeU32(1)),
			Plain(OP_ADD),
		},
	}
	code := []Instruction{
		Literal(MakeU32(0)),
		Call(MakeUserFunction(inc)),
		Call(MakeUserFunction(inc)),
		Call(MakeUserFunction(inc)),
	}
	result := runCode(t, code, 0)
	testBitsValue(t, result, MakeU32(3))
}

func TestJumpBackward(t *testing.T) {
	// Two passes over the loop head: the first pass takes the conditional
	// branch, clears the flag and jumps back; the second pass falls through,
	// produces the result and exits past the back edge.
	loop := []Instruction{
		Literal(MakeU1(true)),  // 000
		Store(0),               // 001
		JumpDest(),             // 002: loop head
		Load(0),                // 003
		JumpRelIf(3),           // 004: flag set -> 007
		Literal(MakeU32(7)),    // 005: flag clear: produce result
		JumpRel(7),             // 006: -> 013 (end)
		JumpDest(),             // 007
		Literal(MakeU1(false)), // 008
		Store(0),               // 009
		JumpRel(-8),            // 010: -> 002
		JumpDest(),             // 011 (unreachable)
		JumpDest(),             // 012 (unreachable)
		JumpDest(),             // 013: end
	}
	result := runCode(t, loop, 1)
	testBitsValue(t, result, MakeU32(7))
}
