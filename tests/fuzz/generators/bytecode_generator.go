package generators

import (
	"fmt"
	"math/big"
	"math/rand"
	"strings"

	"github.com/funvibe/wirevm/internal/vm"
)

// BytecodeGenerator produces random, well-formed instruction sequences: every
// generated program leaves exactly one value on the stack and never trips an
// interpreter contract check. Division is left out (a random divisor is zero
// too often to be useful) and all bit operands share one width per program so
// binary operators always agree.
type BytecodeGenerator struct {
	src       RandomSource
	width     int
	slotCount int
	depth     int
	code      []vm.Instruction
}

var programWidths = []int{1, 4, 8, 16, 32, 64}

// New creates a generator seeded from a PRNG.
func New(seed int64) *BytecodeGenerator {
	return &BytecodeGenerator{
		src: &RandSource{rand.New(rand.NewSource(seed))},
	}
}

// NewFromData creates a generator driven by fuzzer-provided bytes.
func NewFromData(data []byte) *BytecodeGenerator {
	return &BytecodeGenerator{
		src: &ByteSource{data: data},
	}
}

// SlotCount reports how many slots the last generated program needs.
func (g *BytecodeGenerator) SlotCount() int {
	return g.slotCount
}

// Width reports the bit width the last generated program was built around.
func (g *BytecodeGenerator) Width() int {
	return g.width
}

// GenerateProgram builds a fresh random program.
func (g *BytecodeGenerator) GenerateProgram() []vm.Instruction {
	g.code = g.code[:0]
	g.depth = 0
	g.width = programWidths[g.src.Intn(len(programWidths))]
	g.slotCount = g.src.Intn(4) + 1

	steps := g.src.Intn(20) + 1
	for i := 0; i < steps; i++ {
		g.step()
	}

	// Settle the stack to exactly one value.
	if g.depth == 0 {
		g.emitLiteral()
	}
	for g.depth > 1 {
		g.emitBinary()
	}
	return append([]vm.Instruction(nil), g.code...)
}

func (g *BytecodeGenerator) step() {
	switch g.src.Intn(10) {
	case 0, 1, 2:
		g.emitLiteral()
	case 3, 4:
		if g.depth >= 2 {
			g.emitBinary()
		} else {
			g.emitLiteral()
		}
	case 5:
		if g.depth >= 1 {
			g.emitUnary()
		} else {
			g.emitLiteral()
		}
	case 6, 7:
		if g.depth >= 1 {
			g.emitStoreLoad()
		} else {
			g.emitLiteral()
		}
	default:
		g.emitTernary()
	}
}

func (g *BytecodeGenerator) randomBits() vm.Value {
	pattern := new(big.Int)
	for i := 0; i < (g.width+7)/8; i++ {
		pattern.Lsh(pattern, 8)
		pattern.Or(pattern, big.NewInt(int64(g.src.Intn(256))))
	}
	return vm.MakeBits(g.width, false, pattern)
}

func (g *BytecodeGenerator) emit(in vm.Instruction) {
	g.code = append(g.code, in)
}

func (g *BytecodeGenerator) emitLiteral() {
	g.emit(vm.Literal(g.randomBits()))
	g.depth++
}

var binaryOps = []vm.Opcode{
	vm.OP_ADD, vm.OP_SUB, vm.OP_MUL,
	vm.OP_AND, vm.OP_OR, vm.OP_XOR,
	vm.OP_SHLL, vm.OP_SHRL,
}

func (g *BytecodeGenerator) emitBinary() {
	g.emit(vm.Plain(binaryOps[g.src.Intn(len(binaryOps))]))
	g.depth--
}

func (g *BytecodeGenerator) emitUnary() {
	if g.src.Intn(2) == 0 {
		g.emit(vm.Plain(vm.OP_NOT))
	} else {
		g.emit(vm.Plain(vm.OP_NEGATE))
	}
}

// emitStoreLoad spills the stack top into a slot and loads it straight back,
// leaving the stack depth unchanged.
func (g *BytecodeGenerator) emitStoreLoad() {
	slot := g.src.Intn(g.slotCount)
	g.emit(vm.Store(slot))
	g.emit(vm.Load(slot))
}

// emitTernary lays out a complete conditional block that pushes one value:
//
//	literal u1:c
//	jump_rel_if +3
//	literal <alternate>
//	jump_rel +3
//	jump_dest
//	literal <consequent>
//	jump_dest
func (g *BytecodeGenerator) emitTernary() {
	g.emit(vm.Literal(vm.MakeU1(g.src.Intn(2) == 0)))
	g.emit(vm.JumpRelIf(+3))
	g.emit(vm.Literal(g.randomBits()))
	g.emit(vm.JumpRel(+3))
	g.emit(vm.JumpDest())
	g.emit(vm.Literal(g.randomBits()))
	g.emit(vm.JumpDest())
	g.depth++
}

// RenderAssembly formats a program in the textual form the assembler reads.
func RenderAssembly(code []vm.Instruction) string {
	var sb strings.Builder
	for i, in := range code {
		fmt.Fprintf(&sb, "%03d %s\n", i, in.String())
	}
	return sb.String()
}
