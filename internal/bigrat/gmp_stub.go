//go:build !gmp

package bigrat

import "math/big"

// acceleratedMul without the "gmp" build tag falls back to math/big's own
// Karatsuba/Toom-Cook multiplication, which is already sub-quadratic for
// the operand sizes FastMulBitThreshold gates on.
func acceleratedMul(a, b *big.Int) *big.Int {
	return new(big.Int).Mul(a, b)
}
