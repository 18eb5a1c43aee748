package vm

import "math/big"

// Builtin tags the primitive functions reachable through OP_CALL. The
// catalogue is fixed; arity is intrinsic to the tag.
type Builtin uint8

const (
	BuiltinNone Builtin = iota
	BuiltinAssertEq
	BuiltinAssertLt
	BuiltinBitSlice
	BuiltinSignex
	BuiltinArrayIndex
	BuiltinTupleIndex
)

type builtinInfo struct {
	name  string
	arity int
}

var builtinCatalogue = map[Builtin]builtinInfo{
	BuiltinAssertEq:   {"assert_eq", 2},
	BuiltinAssertLt:   {"assert_lt", 2},
	BuiltinBitSlice:   {"bit_slice", 3},
	BuiltinSignex:     {"signex", 2},
	BuiltinArrayIndex: {"array_index", 2},
	BuiltinTupleIndex: {"tuple_index", 2},
}

var builtinsByName = func() map[string]Builtin {
	m := make(map[string]Builtin, len(builtinCatalogue))
	for b, info := range builtinCatalogue {
		m[info.name] = b
	}
	return m
}()

// Name returns the callable name of the builtin.
func (b Builtin) Name() string {
	if info, ok := builtinCatalogue[b]; ok {
		return info.name
	}
	return "<?>"
}

// Arity returns the number of operands the builtin pops.
func (b Builtin) Arity() int {
	if info, ok := builtinCatalogue[b]; ok {
		return info.arity
	}
	return 0
}

// BuiltinByName resolves a builtin name as used in textual assembly.
func BuiltinByName(name string) (Builtin, bool) {
	b, ok := builtinsByName[name]
	return b, ok
}

func (f *frame) callBuiltin(b Builtin) error {
	info, ok := builtinCatalogue[b]
	if !ok {
		return internalErrorf("call of unknown builtin %d", b)
	}
	args, err := f.popArgs(info.arity)
	if err != nil {
		return err
	}
	result, err := invokeBuiltin(b, args)
	if err != nil {
		return err
	}
	f.push(result)
	return nil
}

func invokeBuiltin(b Builtin, args []Value) (Value, error) {
	switch b {
	case BuiltinAssertEq:
		return builtinAssertEq(args[0], args[1])
	case BuiltinAssertLt:
		return builtinAssertLt(args[0], args[1])
	case BuiltinBitSlice:
		return builtinBitSlice(args[0], args[1], args[2])
	case BuiltinSignex:
		return builtinSignex(args[0], args[1])
	case BuiltinArrayIndex:
		return builtinArrayIndex(args[0], args[1])
	case BuiltinTupleIndex:
		return builtinTupleIndex(args[0], args[1])
	default:
		return Value{}, internalErrorf("call of unknown builtin %d", b)
	}
}

// assert_eq(lhs, rhs): structural equality check; mismatch is a user-level
// assertion failure carrying both renderings.
func builtinAssertEq(lhs, rhs Value) (Value, error) {
	if !lhs.Equals(rhs) {
		return Value{}, assertionFailedf("were not equal: lhs=%s rhs=%s", lhs.Inspect(), rhs.Inspect())
	}
	return MakeUnit(), nil
}

// assert_lt(lhs, rhs): strict less-than over equal-width Bits, signedness
// taken from the left operand.
func builtinAssertLt(lhsVal, rhsVal Value) (Value, error) {
	lhs, err := lhsVal.GetBits()
	if err != nil {
		return Value{}, err
	}
	rhs, err := rhsVal.GetBits()
	if err != nil {
		return Value{}, err
	}
	if lhs.Width != rhs.Width {
		return Value{}, internalErrorf("width mismatch for assert_lt: lhs=%d rhs=%d", lhs.Width, rhs.Width)
	}
	a, b := lhs.Pattern(), rhs.Pattern()
	if lhs.Signed {
		a = toSigned(a, lhs.Width)
		b = toSigned(b, rhs.Width)
	}
	if a.Cmp(b) >= 0 {
		return Value{}, assertionFailedf("was not less than: lhs=%s rhs=%s", lhs.Inspect(), rhs.Inspect())
	}
	return MakeUnit(), nil
}

// bit_slice(subject, start, width): unsigned slice of the subject's bits,
// starting at the given least-significant position. Bits sliced beyond the
// subject's width read as zero.
func builtinBitSlice(subjectVal, startVal, widthVal Value) (Value, error) {
	subject, err := subjectVal.GetBits()
	if err != nil {
		return Value{}, err
	}
	start, err := startVal.GetBits()
	if err != nil {
		return Value{}, err
	}
	width, err := widthVal.GetBits()
	if err != nil {
		return Value{}, err
	}
	if !width.Pattern().IsInt64() {
		return Value{}, internalErrorf("bit_slice width %s too large", width.Inspect())
	}
	w := int(width.Pattern().Int64())

	pattern := big.NewInt(0)
	if s := start.Pattern(); s.IsUint64() && s.Uint64() < uint64(subject.Width) {
		pattern = new(big.Int).Rsh(subject.Pattern(), uint(s.Uint64()))
	}
	return MakeBits(w, false, pattern), nil
}

// signex(subject, target): resize subject to the target's width, filling new
// high bits with the subject's sign bit; the result takes the target's type.
func builtinSignex(subjectVal, targetVal Value) (Value, error) {
	subject, err := subjectVal.GetBits()
	if err != nil {
		return Value{}, err
	}
	target, err := targetVal.GetBits()
	if err != nil {
		return Value{}, err
	}
	pattern := new(big.Int).Set(subject.Pattern())
	if target.Width > subject.Width && subject.Width > 0 && pattern.Bit(subject.Width-1) == 1 {
		fill := new(big.Int).Xor(mask(target.Width), mask(subject.Width))
		pattern.Or(pattern, fill)
	}
	return MakeBits(target.Width, target.Signed, pattern), nil
}

// array_index(subject, index): element lookup with a user-visible failure on
// out-of-range indices, since the index may come from running data.
func builtinArrayIndex(subjectVal, indexVal Value) (Value, error) {
	elems, err := subjectVal.GetArray()
	if err != nil {
		return Value{}, err
	}
	return indexElements(elems, indexVal)
}

// tuple_index(subject, index): as array_index, over a tuple.
func builtinTupleIndex(subjectVal, indexVal Value) (Value, error) {
	elems, err := subjectVal.GetTuple()
	if err != nil {
		return Value{}, err
	}
	return indexElements(elems, indexVal)
}

func indexElements(elems []Value, indexVal Value) (Value, error) {
	index, err := indexVal.GetBits()
	if err != nil {
		return Value{}, err
	}
	idx := index.Pattern()
	if !idx.IsUint64() || idx.Uint64() >= uint64(len(elems)) {
		return Value{}, indexFailedf("index out of bounds: index %s, size %d", idx.String(), len(elems))
	}
	return elems[idx.Uint64()], nil
}
