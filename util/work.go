package util

import (
	"github.com/holiman/uint256"
)

// CalcWork returns the expected number of hashes needed to find a block at
// target, floor(2^256 / (target + 1)).  A lower target means more work.
//
// 2^256 does not fit in 256 bits, so the value is computed as
// (~target / (target + 1)) + 1, which is equal.
func CalcWork(target *uint256.Int) *uint256.Int {
	if target.IsZero() {
		return uint256.NewInt(0)
	}

	denominator := new(uint256.Int).AddUint64(target, 1)
	if denominator.IsZero() {
		// target was 2^256 - 1
		return uint256.NewInt(1)
	}

	work := new(uint256.Int).Not(target)
	work.Div(work, denominator)

	return work.AddUint64(work, 1)
}

// SumWork adds the work of every target, saturating at 2^256 - 1.
func SumWork(targets ...*uint256.Int) *uint256.Int {
	total := new(uint256.Int)

	for _, target := range targets {
		if _, overflow := total.AddOverflow(total, CalcWork(target)); overflow {
			return new(uint256.Int).SetAllOne()
		}
	}

	return total
}
