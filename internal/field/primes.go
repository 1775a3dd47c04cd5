package field

import "math/big"

// Primes is the fixed sequence of word-sized primes just under 2^63 that
// the engine walks through as it lifts a reconstruction across successive
// finite fields. The table holds 300 entries, generated by starting from
// the largest prime below 2^63 and repeatedly taking the largest prime
// strictly below the previous one.
var Primes = generatePrimes(300)

// generatePrimes returns the n largest primes below 2^63 in descending
// order. big.Int.ProbablyPrime(20) runs a Baillie-PSW test plus 20 extra
// Miller-Rabin rounds, which has no known false positive below 2^64.
func generatePrimes(n int) []uint64 {
	const start uint64 = (1 << 63) - 1 // largest odd number below 2^63
	primes := make([]uint64, 0, n)
	candidate := new(big.Int)
	for c := start; len(primes) < n; c -= 2 {
		candidate.SetUint64(c)
		if candidate.ProbablyPrime(20) {
			primes = append(primes, c)
		}
	}
	return primes
}
