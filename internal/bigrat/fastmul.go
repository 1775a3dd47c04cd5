package bigrat

import "math/big"

// FastMulBitThreshold is the operand bit-length above which Mul routes
// multiplication through the accelerated backend instead of a plain
// big.Int.Mul call.
//
// The modulus product this package builds up is bounded by
// len(Primes)*63 bits (~19k bits at most), two to three orders of
// magnitude below the range where an FFT-based multiplier would pay off
// over GMP or schoolbook math/big, so the threshold here is set high
// enough that the accelerated path only fires for pathological inputs
// (e.g. a caller combining far more primes than the built-in table
// provides).
const FastMulBitThreshold = 1 << 16

// Mul multiplies a and b, routing through the accelerated backend
// (currently the GMP backend when built with the "gmp" tag; see
// gmp_backend.go and gmp_stub.go) once both operands exceed
// FastMulBitThreshold, and through math/big otherwise. Combined.Fold uses
// Mul for its m1*k term and its modulus product; the remaining products in
// this package (Fold's k, the Wang/MQRR extended-Euclidean steps) call
// big.Int.Mul directly.
func Mul(a, b *big.Int) *big.Int {
	if a.BitLen() > FastMulBitThreshold && b.BitLen() > FastMulBitThreshold {
		return acceleratedMul(a, b)
	}
	return new(big.Int).Mul(a, b)
}
