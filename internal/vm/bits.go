package vm

import "math/big"

// Helpers for the two's-complement bit patterns carried by Bits values.
// Patterns are stored as non-negative big.Ints strictly below 2^width; widths
// are unbounded, so none of these may fall back to a host integer type.

var bigOne = big.NewInt(1)

// mask returns 2^width - 1.
func mask(width int) *big.Int {
	m := new(big.Int).Lsh(bigOne, uint(width))
	return m.Sub(m, bigOne)
}

// truncate reduces x modulo 2^width into the canonical non-negative pattern.
// big.Int bitwise ops treat negative numbers as infinitely sign-extended
// two's complement, so And with the mask encodes negatives correctly.
func truncate(x *big.Int, width int) *big.Int {
	if x == nil {
		return big.NewInt(0)
	}
	return new(big.Int).And(x, mask(width))
}

// toSigned reinterprets a pattern as a signed integer: patterns with the high
// bit set map to pattern - 2^width.
func toSigned(pattern *big.Int, width int) *big.Int {
	if width == 0 || pattern.Bit(width-1) == 0 {
		return new(big.Int).Set(pattern)
	}
	modulus := new(big.Int).Lsh(bigOne, uint(width))
	return new(big.Int).Sub(pattern, modulus)
}

// minSigned returns -2^(width-1), the most negative value of the width.
func minSigned(width int) *big.Int {
	return new(big.Int).Neg(new(big.Int).Lsh(bigOne, uint(width-1)))
}
