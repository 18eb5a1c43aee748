package mutator

import (
	"testing"

	"github.com/funvibe/wirevm/internal/vm"
	"github.com/funvibe/wirevm/tests/fuzz/generators"
)

func TestMutatedProgramsStayValid(t *testing.T) {
	m := New(99)
	for seed := int64(0); seed < 100; seed++ {
		gen := generators.New(seed)
		code := gen.GenerateProgram()
		for round := 0; round < 5; round++ {
			m.Mutate(code)
		}
		if _, err := vm.Interpret(code, vm.NewEnvironment(gen.SlotCount())); err != nil {
			t.Fatalf("seed %d: mutated program failed: %v\nprogram:\n%s",
				seed, err, generators.RenderAssembly(code))
		}
	}
}

func TestMutateEmptyProgramIsNoop(t *testing.T) {
	New(1).Mutate(nil)
}

func TestMutateChangesSomething(t *testing.T) {
	gen := generators.New(7)
	code := gen.GenerateProgram()
	before := generators.RenderAssembly(code)

	m := New(7)
	changed := false
	for round := 0; round < 20 && !changed; round++ {
		m.Mutate(code)
		changed = generators.RenderAssembly(code) != before
	}
	if !changed {
		t.Error("20 mutation rounds left the program untouched")
	}
}
