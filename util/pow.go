package util

import (
	"github.com/bsv-blockchain/go-bt/v2"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/holiman/uint256"
)

// HashToUint256 interprets a block hash as a 256-bit number.  Hashes are stored
// little-endian, the reverse of the order they are displayed in.
func HashToUint256(hash *chainhash.Hash) *uint256.Int {
	return new(uint256.Int).SetBytes32(bt.ReverseBytes(hash.CloneBytes()))
}

// CheckProofOfWork reports whether hash, read as a number, is at or below threshold.
func CheckProofOfWork(hash *chainhash.Hash, threshold *uint256.Int) bool {
	return !HashToUint256(hash).Gt(threshold)
}
