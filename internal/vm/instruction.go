package vm

import "fmt"

// Instruction is one immutable element of a linear instruction sequence. Its
// address is its position in that sequence; jumps reference other
// instructions only through signed relative offsets.
//
// Exactly one operand field is meaningful per opcode: Val for OP_LITERAL and
// OP_CALL, Slot for OP_LOAD/OP_STORE, Offset for the relative jumps. All
// other opcodes carry no operand.
type Instruction struct {
	Op     Opcode
	Val    Value
	Slot   int
	Offset int
}

// Literal pushes v.
func Literal(v Value) Instruction {
	return Instruction{Op: OP_LITERAL, Val: v}
}

// Store pops into environment slot.
func Store(slot int) Instruction {
	return Instruction{Op: OP_STORE, Slot: slot}
}

// Load pushes a copy of environment slot.
func Load(slot int) Instruction {
	return Instruction{Op: OP_LOAD, Slot: slot}
}

// Call invokes the given function value.
func Call(callee Value) Instruction {
	return Instruction{Op: OP_CALL, Val: callee}
}

// CallBuiltin is shorthand for Call on a builtin tag.
func CallBuiltin(b Builtin) Instruction {
	return Call(MakeBuiltinFunction(b))
}

// JumpRelIf pops a u1 condition and jumps by offset when it is nonzero.
func JumpRelIf(offset int) Instruction {
	return Instruction{Op: OP_JUMP_REL_IF, Offset: offset}
}

// JumpRel jumps by offset unconditionally.
func JumpRel(offset int) Instruction {
	return Instruction{Op: OP_JUMP_REL, Offset: offset}
}

// JumpDest is a resolvable label target with no effect.
func JumpDest() Instruction {
	return Instruction{Op: OP_JUMP_DEST}
}

// Plain builds an operand-less instruction (the arithmetic, bitwise and unary
// opcodes).
func Plain(op Opcode) Instruction {
	return Instruction{Op: op}
}

// String renders the instruction in textual assembly form, without its
// address prefix: "literal u32:42", "store 0", "jump_rel_if +3", "add".
func (in Instruction) String() string {
	switch in.Op {
	case OP_LITERAL:
		return fmt.Sprintf("%s %s", in.Op.Mnemonic(), in.Val.Inspect())
	case OP_STORE, OP_LOAD:
		return fmt.Sprintf("%s %d", in.Op.Mnemonic(), in.Slot)
	case OP_CALL:
		if in.Val.Fn != nil {
			return fmt.Sprintf("%s %s", in.Op.Mnemonic(), in.Val.Fn.Name)
		}
		return fmt.Sprintf("%s %s", in.Op.Mnemonic(), in.Val.Builtin.Name())
	case OP_JUMP_REL_IF, OP_JUMP_REL:
		return fmt.Sprintf("%s %+d", in.Op.Mnemonic(), in.Offset)
	default:
		return in.Op.Mnemonic()
	}
}
