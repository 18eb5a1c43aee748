package vm

import (
	"fmt"
	"math/big"
	"strings"
)

// Kind identifies the shape of a runtime value.
type Kind uint8

const (
	KindUnit Kind = iota
	KindBits
	KindTuple
	KindArray
	KindFunction
)

func (k Kind) String() string {
	switch k {
	case KindUnit:
		return "Unit"
	case KindBits:
		return "Bits"
	case KindTuple:
		return "Tuple"
	case KindArray:
		return "Array"
	case KindFunction:
		return "Function"
	default:
		return "<?>"
	}
}

// Value is the closed tagged variant the interpreter computes over. The zero
// value is Unit. Values are immutable once constructed: operations always
// build fresh payloads, so sharing the pattern pointer across copies is safe.
type Value struct {
	Kind Kind

	// Bits payload. The pattern is the raw two's-complement bit pattern held
	// as a non-negative integer < 2^Width; Signed only changes how division,
	// comparison and rendering interpret it, not how it is stored.
	Width   int
	Signed  bool
	pattern *big.Int

	// Tuple/Array payload.
	Elems []Value

	// Function payload: either a builtin tag or a user function reference.
	Builtin Builtin
	Fn      *UserFunction
}

// UserFunction is an already-emitted function body a Call instruction can
// re-enter the interpreter with. Arguments occupy slots 0..Arity-1 of a fresh
// environment of SlotCount slots.
type UserFunction struct {
	Name      string
	Arity     int
	SlotCount int
	Code      []Instruction
}

// Constructors

func MakeUnit() Value {
	return Value{Kind: KindUnit}
}

// MakeBits builds a Bits value of the given width and signedness from an
// arbitrary-precision pattern. The pattern is reduced modulo 2^width, so
// negative inputs land on their two's-complement encoding.
func MakeBits(width int, signed bool, pattern *big.Int) Value {
	return Value{Kind: KindBits, Width: width, Signed: signed, pattern: truncate(pattern, width)}
}

func MakeUBits(width int, v uint64) Value {
	return MakeBits(width, false, new(big.Int).SetUint64(v))
}

func MakeSBits(width int, v int64) Value {
	return MakeBits(width, true, big.NewInt(v))
}

func MakeU1(v bool) Value {
	if v {
		return MakeUBits(1, 1)
	}
	return MakeUBits(1, 0)
}

func MakeU32(v uint32) Value {
	return MakeUBits(32, uint64(v))
}

func MakeU64(v uint64) Value {
	return MakeUBits(64, v)
}

func MakeTuple(elems ...Value) Value {
	return Value{Kind: KindTuple, Elems: elems}
}

func MakeArray(elems ...Value) Value {
	return Value{Kind: KindArray, Elems: elems}
}

func MakeBuiltinFunction(b Builtin) Value {
	return Value{Kind: KindFunction, Builtin: b}
}

func MakeUserFunction(fn *UserFunction) Value {
	return Value{Kind: KindFunction, Fn: fn}
}

// Shape helpers

func (v Value) IsUnit() bool     { return v.Kind == KindUnit }
func (v Value) IsBits() bool     { return v.Kind == KindBits }
func (v Value) IsTuple() bool    { return v.Kind == KindTuple }
func (v Value) IsArray() bool    { return v.Kind == KindArray }
func (v Value) IsFunction() bool { return v.Kind == KindFunction }

// Pattern returns the raw bit pattern of a Bits value. Callers must treat the
// result as read-only.
func (v Value) Pattern() *big.Int {
	if v.pattern == nil {
		return big.NewInt(0)
	}
	return v.pattern
}

// GetBits returns the value if it is Bits, or a shape-mismatch internal error.
func (v Value) GetBits() (Value, error) {
	if v.Kind != KindBits {
		return Value{}, internalErrorf("expected Bits, got %s", v.Kind)
	}
	return v, nil
}

// GetTuple returns the tuple elements, or a shape-mismatch internal error.
func (v Value) GetTuple() ([]Value, error) {
	if v.Kind != KindTuple {
		return nil, internalErrorf("expected Tuple, got %s", v.Kind)
	}
	return v.Elems, nil
}

// GetArray returns the array elements, or a shape-mismatch internal error.
func (v Value) GetArray() ([]Value, error) {
	if v.Kind != KindArray {
		return nil, internalErrorf("expected Array, got %s", v.Kind)
	}
	return v.Elems, nil
}

// GetFunction returns the value if it is a function, or a shape-mismatch
// internal error.
func (v Value) GetFunction() (Value, error) {
	if v.Kind != KindFunction {
		return Value{}, internalErrorf("expected Function, got %s", v.Kind)
	}
	return v, nil
}

// Equals reports deep structural equality. Bits compare width, signedness and
// pattern; aggregates compare element-wise.
func (v Value) Equals(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KindUnit:
		return true
	case KindBits:
		return v.Width == other.Width && v.Signed == other.Signed &&
			v.Pattern().Cmp(other.Pattern()) == 0
	case KindTuple, KindArray:
		if len(v.Elems) != len(other.Elems) {
			return false
		}
		for i := range v.Elems {
			if !v.Elems[i].Equals(other.Elems[i]) {
				return false
			}
		}
		return true
	case KindFunction:
		return v.Builtin == other.Builtin && v.Fn == other.Fn
	default:
		return false
	}
}

// Inspect renders the value for failure messages and tool output:
// (), u32:42, s8:-1, (u32:1, u1:0), [u8:1, u8:2], builtin:assert_eq, fn:name.
func (v Value) Inspect() string {
	switch v.Kind {
	case KindUnit:
		return "()"
	case KindBits:
		tag := "u"
		num := v.Pattern()
		if v.Signed {
			tag = "s"
			num = toSigned(num, v.Width)
		}
		return fmt.Sprintf("%s%d:%s", tag, v.Width, num.String())
	case KindTuple:
		return "(" + inspectElems(v.Elems) + ")"
	case KindArray:
		return "[" + inspectElems(v.Elems) + "]"
	case KindFunction:
		if v.Fn != nil {
			return "fn:" + v.Fn.Name
		}
		return "builtin:" + v.Builtin.Name()
	default:
		return "<?>"
	}
}

func inspectElems(elems []Value) string {
	parts := make([]string, len(elems))
	for i, e := range elems {
		parts[i] = e.Inspect()
	}
	return strings.Join(parts, ", ")
}
