// Package vm implements the reference bytecode interpreter for wirevm.
//
// The interpreter executes linear instruction sequences produced by the
// bytecode emitter (or the textual assembly reader in internal/asm) against an
// environment of local slots, and returns either a single result value or a
// classified failure. It is the engine the fuzz harness trusts as ground truth
// when comparing backends, so it trades speed for being straightforwardly
// correct.
package vm

// Opcode identifies a single interpreter instruction.
type Opcode byte

const (
	// Stack and slots
	OP_LITERAL Opcode = iota // Push the instruction's literal value
	OP_STORE                 // Pop one value into environment slot
	OP_LOAD                  // Push a copy of environment slot

	// Binary arithmetic (equal operand widths, result width preserved)
	OP_ADD // Modulo-2^w addition
	OP_SUB // Modulo-2^w subtraction
	OP_MUL // Modulo-2^w multiplication
	OP_DIV // Integer division, signedness taken from the left operand

	// Bitwise
	OP_AND    // &
	OP_OR     // |
	OP_XOR    // ^
	OP_CONCAT // Width-sum concatenation, left operand in the high bits
	OP_SHLL   // Logical shift left
	OP_SHRL   // Logical shift right

	// Unary
	OP_NOT    // Bitwise complement
	OP_NEGATE // Two's-complement negation

	// Calls and control flow
	OP_CALL        // Call the function value carried by the instruction
	OP_JUMP_REL_IF // Pop a u1; jump by the relative offset when nonzero
	OP_JUMP_REL    // Unconditional relative jump
	OP_JUMP_DEST   // Label target; no effect
)

// opMnemonics maps opcodes to the textual assembly mnemonics. The table must
// stay bit-exact with the emitter's output so hand-written and emitted
// programs are interchangeable in tests.
var opMnemonics = [...]string{
	OP_LITERAL:     "literal",
	OP_STORE:       "store",
	OP_LOAD:        "load",
	OP_ADD:         "add",
	OP_SUB:         "sub",
	OP_MUL:         "mul",
	OP_DIV:         "div",
	OP_AND:         "and",
	OP_OR:          "or",
	OP_XOR:         "xor",
	OP_CONCAT:      "concat",
	OP_SHLL:        "shll",
	OP_SHRL:        "shrl",
	OP_NOT:         "not",
	OP_NEGATE:      "negate",
	OP_CALL:        "call",
	OP_JUMP_REL_IF: "jump_rel_if",
	OP_JUMP_REL:    "jump_rel",
	OP_JUMP_DEST:   "jump_dest",
}

var mnemonicToOp = func() map[string]Opcode {
	m := make(map[string]Opcode, len(opMnemonics))
	for op, name := range opMnemonics {
		m[name] = Opcode(op)
	}
	return m
}()

// Mnemonic returns the assembly mnemonic for the opcode.
func (op Opcode) Mnemonic() string {
	if int(op) < len(opMnemonics) {
		return opMnemonics[op]
	}
	return "<?>"
}

// OpcodeFromMnemonic resolves an assembly mnemonic to its opcode.
func OpcodeFromMnemonic(name string) (Opcode, bool) {
	op, ok := mnemonicToOp[name]
	return op, ok
}
