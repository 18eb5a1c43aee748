package generators

import (
	"testing"

	"github.com/funvibe/wirevm/internal/asm"
	"github.com/funvibe/wirevm/internal/vm"
)

func TestGenerateProgramNonEmpty(t *testing.T) {
	gen := New(12345)
	code := gen.GenerateProgram()
	if len(code) == 0 {
		t.Fatal("generated program is empty")
	}
}

func TestGeneratorDeterminism(t *testing.T) {
	code1 := RenderAssembly(New(12345).GenerateProgram())
	code2 := RenderAssembly(New(12345).GenerateProgram())
	if code1 != code2 {
		t.Error("generator is not deterministic with the same seed")
	}
}

func TestGeneratedProgramsInterpretCleanly(t *testing.T) {
	for seed := int64(0); seed < 200; seed++ {
		gen := New(seed)
		code := gen.GenerateProgram()
		result, err := vm.Interpret(code, vm.NewEnvironment(gen.SlotCount()))
		if err != nil {
			t.Fatalf("seed %d: interpret error: %v\nprogram:\n%s", seed, err, RenderAssembly(code))
		}
		if !result.IsBits() {
			t.Fatalf("seed %d: expected a bits result, got %s", seed, result.Inspect())
		}
		if result.Width != gen.Width() {
			t.Errorf("seed %d: expected width %d, got %d", seed, gen.Width(), result.Width)
		}
	}
}

func TestRenderedProgramsParseBack(t *testing.T) {
	for seed := int64(0); seed < 50; seed++ {
		code := New(seed).GenerateProgram()
		text := RenderAssembly(code)
		parsed, err := asm.Parse(text)
		if err != nil {
			t.Fatalf("seed %d: parse error: %v\ntext:\n%s", seed, err, text)
		}
		if len(parsed) != len(code) {
			t.Fatalf("seed %d: parsed %d instructions, generated %d", seed, len(parsed), len(code))
		}
		if got := RenderAssembly(parsed); got != text {
			t.Errorf("seed %d: round-trip mismatch\nwant:\n%s\ngot:\n%s", seed, text, got)
		}
	}
}

func TestByteSourceExhaustionIsStable(t *testing.T) {
	// An empty byte source must still produce a valid program.
	gen := NewFromData(nil)
	code := gen.GenerateProgram()
	if _, err := vm.Interpret(code, vm.NewEnvironment(gen.SlotCount())); err != nil {
		t.Fatalf("interpret error: %v", err)
	}
}
