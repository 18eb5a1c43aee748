package vm

import "math/big"

// binaryOp pops the right operand, then the left (the emitter pushes left
// before right), and pushes the result. Both operands must be Bits.
func (f *frame) binaryOp(op Opcode) error {
	rhs, err := f.popBits()
	if err != nil {
		return err
	}
	lhs, err := f.popBits()
	if err != nil {
		return err
	}

	switch op {
	case OP_ADD, OP_SUB, OP_MUL, OP_DIV, OP_AND, OP_OR, OP_XOR:
		if lhs.Width != rhs.Width {
			return internalErrorf("width mismatch for %s: lhs=%d rhs=%d",
				op.Mnemonic(), lhs.Width, rhs.Width)
		}
	}

	var result Value
	switch op {
	case OP_ADD:
		sum := new(big.Int).Add(lhs.Pattern(), rhs.Pattern())
		result = MakeBits(lhs.Width, lhs.Signed, sum)
	case OP_SUB:
		diff := new(big.Int).Sub(lhs.Pattern(), rhs.Pattern())
		result = MakeBits(lhs.Width, lhs.Signed, diff)
	case OP_MUL:
		prod := new(big.Int).Mul(lhs.Pattern(), rhs.Pattern())
		result = MakeBits(lhs.Width, lhs.Signed, prod)
	case OP_DIV:
		quot, err := divide(lhs, rhs)
		if err != nil {
			return err
		}
		result = quot
	case OP_AND:
		result = MakeBits(lhs.Width, lhs.Signed, new(big.Int).And(lhs.Pattern(), rhs.Pattern()))
	case OP_OR:
		result = MakeBits(lhs.Width, lhs.Signed, new(big.Int).Or(lhs.Pattern(), rhs.Pattern()))
	case OP_XOR:
		result = MakeBits(lhs.Width, lhs.Signed, new(big.Int).Xor(lhs.Pattern(), rhs.Pattern()))
	case OP_CONCAT:
		// Left operand in the most-significant bits; result always unsigned.
		cat := new(big.Int).Lsh(lhs.Pattern(), uint(rhs.Width))
		cat.Or(cat, rhs.Pattern())
		result = MakeBits(lhs.Width+rhs.Width, false, cat)
	case OP_SHLL:
		result = shiftLeft(lhs, rhs)
	case OP_SHRL:
		result = shiftRight(lhs, rhs)
	}

	f.push(result)
	return nil
}

// divide implements integer division with signedness taken from the left
// operand. Division by zero, and signed min/-1 overflow, are contract
// violations the emitter is expected to guard upstream.
func divide(lhs, rhs Value) (Value, error) {
	if rhs.Pattern().Sign() == 0 {
		return Value{}, internalErrorf("division by zero: %s / %s", lhs.Inspect(), rhs.Inspect())
	}
	if !lhs.Signed {
		return MakeBits(lhs.Width, false, new(big.Int).Quo(lhs.Pattern(), rhs.Pattern())), nil
	}
	a := toSigned(lhs.Pattern(), lhs.Width)
	b := toSigned(rhs.Pattern(), rhs.Width)
	if a.Cmp(minSigned(lhs.Width)) == 0 && b.Cmp(big.NewInt(-1)) == 0 {
		return Value{}, internalErrorf("signed division overflow: %s / %s", lhs.Inspect(), rhs.Inspect())
	}
	// Quo truncates toward zero.
	return MakeBits(lhs.Width, true, new(big.Int).Quo(a, b)), nil
}

// shiftAmount interprets the right operand as an unsigned shift count.
// Returns ok=false when the count is at least the subject width, which shifts
// every bit out regardless of direction.
func shiftAmount(subject, amount Value) (uint, bool) {
	amt := amount.Pattern()
	if !amt.IsUint64() || amt.Uint64() >= uint64(subject.Width) {
		return 0, false
	}
	return uint(amt.Uint64()), true
}

func shiftLeft(lhs, rhs Value) Value {
	amt, ok := shiftAmount(lhs, rhs)
	if !ok {
		return MakeBits(lhs.Width, lhs.Signed, big.NewInt(0))
	}
	return MakeBits(lhs.Width, lhs.Signed, new(big.Int).Lsh(lhs.Pattern(), amt))
}

func shiftRight(lhs, rhs Value) Value {
	amt, ok := shiftAmount(lhs, rhs)
	if !ok {
		return MakeBits(lhs.Width, lhs.Signed, big.NewInt(0))
	}
	// Patterns are non-negative, so Rsh is a logical shift.
	return MakeBits(lhs.Width, lhs.Signed, new(big.Int).Rsh(lhs.Pattern(), amt))
}

// unaryOp pops one Bits value and pushes the transformed value of the same
// width and signedness.
func (f *frame) unaryOp(op Opcode) error {
	v, err := f.popBits()
	if err != nil {
		return err
	}
	switch op {
	case OP_NOT:
		f.push(MakeBits(v.Width, v.Signed, new(big.Int).Xor(v.Pattern(), mask(v.Width))))
	case OP_NEGATE:
		f.push(MakeBits(v.Width, v.Signed, new(big.Int).Neg(v.Pattern())))
	}
	return nil
}
