// Package asm reads the textual bytecode assembly form, one instruction per
// line: `<address> <mnemonic> [<operand>]`. It exists so test suites and
// tools can construct instruction sequences without the compiler front end;
// its grammar is bit-exact with the emitter's mnemonics and operand formats,
// and with the listing produced by vm.Disassemble.
package asm

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/funvibe/wirevm/internal/vm"
)

// Grammar nodes, parsed from one line of assembly.

// Addresses and slots are captured as strings: the emitter zero-pads
// addresses (%03d), and an int capture would read "008" as malformed octal.
// Conversion is explicit base-10 below.

type asmLine struct {
	Addr     string      `parser:"@Number"`
	Mnemonic string      `parser:"@Ident"`
	Operand  *asmOperand `parser:"@@?"`
}

type asmOperand struct {
	Typed  *string `parser:"  @TypedLit"`
	Offset *string `parser:"| @Offset"`
	Slot   *string `parser:"| @Number"`
	Name   *string `parser:"| @Ident"`
}

var asmLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `[ \t]+`},
	// Typed literal must win over Ident: u32:42, s8:-1, u64:0xdeadbeef.
	{Name: "TypedLit", Pattern: `[us][0-9]+:(0x[0-9a-fA-F]+|-?[0-9]+)`},
	{Name: "Offset", Pattern: `[+-][0-9]+`},
	{Name: "Number", Pattern: `[0-9]+`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
})

var lineParser = participle.MustBuild[asmLine](
	participle.Lexer(asmLexer),
	participle.Elide("Whitespace"),
)

// Parse reads a whole assembly listing into the instruction sequence the
// interpreter consumes. Blank lines are skipped; addresses must ascend from
// zero.
func Parse(text string) ([]vm.Instruction, error) {
	var code []vm.Instruction
	for lineno, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		parsed, err := lineParser.ParseString("", line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineno+1, err)
		}
		addr, err := strconv.Atoi(parsed.Addr)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad address %q: %w", lineno+1, parsed.Addr, err)
		}
		if addr != len(code) {
			return nil, fmt.Errorf("line %d: address %d out of sequence, want %d", lineno+1, addr, len(code))
		}
		in, err := parsed.instruction()
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineno+1, err)
		}
		code = append(code, in)
	}
	return code, nil
}

func (l *asmLine) instruction() (vm.Instruction, error) {
	op, ok := vm.OpcodeFromMnemonic(l.Mnemonic)
	if !ok {
		return vm.Instruction{}, fmt.Errorf("unknown mnemonic %q", l.Mnemonic)
	}

	switch op {
	case vm.OP_LITERAL:
		if l.Operand == nil || l.Operand.Typed == nil {
			return vm.Instruction{}, fmt.Errorf("%s needs a typed literal operand", l.Mnemonic)
		}
		v, err := parseTypedLiteral(*l.Operand.Typed)
		if err != nil {
			return vm.Instruction{}, err
		}
		return vm.Literal(v), nil

	case vm.OP_STORE, vm.OP_LOAD:
		if l.Operand == nil || l.Operand.Slot == nil {
			return vm.Instruction{}, fmt.Errorf("%s needs a slot operand", l.Mnemonic)
		}
		slot, err := strconv.Atoi(*l.Operand.Slot)
		if err != nil {
			return vm.Instruction{}, fmt.Errorf("bad slot %q: %w", *l.Operand.Slot, err)
		}
		if op == vm.OP_STORE {
			return vm.Store(slot), nil
		}
		return vm.Load(slot), nil

	case vm.OP_CALL:
		if l.Operand == nil || l.Operand.Name == nil {
			return vm.Instruction{}, fmt.Errorf("%s needs a builtin name operand", l.Mnemonic)
		}
		b, ok := vm.BuiltinByName(*l.Operand.Name)
		if !ok {
			return vm.Instruction{}, fmt.Errorf("unknown builtin %q", *l.Operand.Name)
		}
		return vm.CallBuiltin(b), nil

	case vm.OP_JUMP_REL_IF, vm.OP_JUMP_REL:
		if l.Operand == nil || l.Operand.Offset == nil {
			return vm.Instruction{}, fmt.Errorf("%s needs a signed offset operand", l.Mnemonic)
		}
		offset, err := strconv.Atoi(*l.Operand.Offset)
		if err != nil {
			return vm.Instruction{}, fmt.Errorf("bad offset %q: %w", *l.Operand.Offset, err)
		}
		if op == vm.OP_JUMP_REL_IF {
			return vm.JumpRelIf(offset), nil
		}
		return vm.JumpRel(offset), nil

	default:
		if l.Operand != nil {
			return vm.Instruction{}, fmt.Errorf("%s takes no operand", l.Mnemonic)
		}
		return vm.Plain(op), nil
	}
}

// parseTypedLiteral reads a `<tag>:<value>` Bits literal, e.g. u32:42,
// s8:-1, u64:0xdeadbeef. The tag carries signedness and width; the value is
// reduced to the width's two's-complement pattern.
func parseTypedLiteral(lit string) (vm.Value, error) {
	tag, num, ok := strings.Cut(lit, ":")
	if !ok || len(tag) < 2 {
		return vm.Value{}, fmt.Errorf("malformed literal %q", lit)
	}
	signed := tag[0] == 's'
	width, err := strconv.Atoi(tag[1:])
	if err != nil {
		return vm.Value{}, fmt.Errorf("malformed width in literal %q: %w", lit, err)
	}

	base := 10
	digits := num
	neg := strings.HasPrefix(digits, "-")
	if neg {
		digits = digits[1:]
	}
	if strings.HasPrefix(digits, "0x") {
		base = 16
		digits = digits[2:]
	}
	pattern, ok := new(big.Int).SetString(digits, base)
	if !ok {
		return vm.Value{}, fmt.Errorf("malformed value in literal %q", lit)
	}
	if neg {
		pattern.Neg(pattern)
	}
	return vm.MakeBits(width, signed, pattern), nil
}
