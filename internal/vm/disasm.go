package vm

import (
	"fmt"
	"strings"
)

// Disassemble returns a human-readable listing of the instruction sequence.
// Each body line is valid textual assembly, so the output (minus the header)
// round-trips through the assembly reader.
func Disassemble(code []Instruction, name string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("== %s ==\n", name))
	for addr, in := range code {
		sb.WriteString(fmt.Sprintf("%03d %s\n", addr, in.String()))
	}
	return sb.String()
}
