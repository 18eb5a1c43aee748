// Package mutator applies small random mutations to instruction sequences
// while keeping them well-formed, so mutated programs still interpret without
// tripping contract checks.
package mutator

import (
	"math/big"
	"math/rand"

	"github.com/funvibe/wirevm/internal/vm"
)

// ProgramMutator applies random mutations to a program in place.
type ProgramMutator struct {
	rnd *rand.Rand
}

// New creates a mutator with the given seed.
func New(seed int64) *ProgramMutator {
	return &ProgramMutator{rnd: rand.New(rand.NewSource(seed))}
}

var binarySwaps = []vm.Opcode{
	vm.OP_ADD, vm.OP_SUB, vm.OP_MUL,
	vm.OP_AND, vm.OP_OR, vm.OP_XOR,
	vm.OP_SHLL, vm.OP_SHRL,
}

func isBinary(op vm.Opcode) bool {
	for _, b := range binarySwaps {
		if op == b {
			return true
		}
	}
	return false
}

// Mutate rewrites one randomly chosen instruction. Literal patterns are
// replaced at the same width, binary operators swap within the binary group,
// and not/negate flip into each other. Slots and jump offsets are left alone
// since changing them can break the program's shape.
func (m *ProgramMutator) Mutate(code []vm.Instruction) {
	if len(code) == 0 {
		return
	}
	// A few attempts, since not every instruction is mutable.
	for try := 0; try < 8; try++ {
		idx := m.rnd.Intn(len(code))
		if m.mutateAt(code, idx) {
			return
		}
	}
}

func (m *ProgramMutator) mutateAt(code []vm.Instruction, idx int) bool {
	in := code[idx]
	switch {
	case in.Op == vm.OP_LITERAL && in.Val.IsBits():
		code[idx] = vm.Literal(m.randomBits(in.Val.Width, in.Val.Signed))
		return true
	case isBinary(in.Op):
		code[idx] = vm.Plain(binarySwaps[m.rnd.Intn(len(binarySwaps))])
		return true
	case in.Op == vm.OP_NOT:
		code[idx] = vm.Plain(vm.OP_NEGATE)
		return true
	case in.Op == vm.OP_NEGATE:
		code[idx] = vm.Plain(vm.OP_NOT)
		return true
	}
	return false
}

func (m *ProgramMutator) randomBits(width int, signed bool) vm.Value {
	pattern := new(big.Int)
	for i := 0; i < (width+7)/8; i++ {
		pattern.Lsh(pattern, 8)
		pattern.Or(pattern, big.NewInt(int64(m.rnd.Intn(256))))
	}
	return vm.MakeBits(width, signed, pattern)
}
