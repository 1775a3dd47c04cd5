//go:build gmp

package bigrat

import (
	"math/big"

	"github.com/ncw/gmp"
)

// acceleratedMul is selected when the module is built with `-tags gmp`: a
// GMP-backed implementation registered alongside the pure-Go one, chosen
// at build time rather than at runtime so the default build carries no
// cgo dependency.
func acceleratedMul(a, b *big.Int) *big.Int {
	ga := new(gmp.Int).SetBytes(a.Bytes())
	if a.Sign() < 0 {
		ga.Neg(ga)
	}
	gb := new(gmp.Int).SetBytes(b.Bytes())
	if b.Sign() < 0 {
		gb.Neg(gb)
	}
	product := new(gmp.Int).Mul(ga, gb)
	result := new(big.Int).SetBytes(product.Bytes())
	if product.Sign() < 0 {
		result.Neg(result)
	}
	return result
}
