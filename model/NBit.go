package model

import (
	"encoding/binary"
	"encoding/hex"
	"math/big"

	"github.com/bsv-blockchain/go-bt/v2"
	"github.com/bsv-blockchain/headerproof/errors"
	"github.com/bsv-blockchain/headerproof/util"
	"github.com/holiman/uint256"
)

// genesisTarget is the mainnet proof of work limit in compact form 0x1d00ffff, difficulty 1.
var genesisTarget = new(big.Int).Lsh(big.NewInt(0xffff), 208)

// NBit is the compact difficulty target as stored in a block header, little-endian.
type NBit [4]byte

// NewNBitFromString parses the big-endian hex form used by RPC and explorers, e.g. "1d00ffff".
func NewNBitFromString(s string) (*NBit, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.NewInvalidArgumentError("error decoding nBits hex %q", s, err)
	}

	return NewNBitFromSlice(bt.ReverseBytes(b))
}

// NewNBitFromSlice copies 4 little-endian bytes, the header wire order.
func NewNBitFromSlice(b []byte) (*NBit, error) {
	if len(b) != 4 {
		return nil, errors.NewInvalidArgumentError("nBits should be 4 bytes long, got %d", len(b))
	}

	var n NBit
	copy(n[:], b)

	return &n, nil
}

// NewNBitFromUint32 returns the NBit for a compact value such as 0x1d00ffff.
func NewNBitFromUint32(bits uint32) NBit {
	var n NBit
	binary.LittleEndian.PutUint32(n[:], bits)

	return n
}

func (b NBit) Uint32() uint32 {
	return binary.LittleEndian.Uint32(b[:])
}

func (b NBit) String() string {
	return hex.EncodeToString(bt.ReverseBytes(b.CloneBytes()))
}

func (b NBit) CloneBytes() []byte {
	c := make([]byte, 4)
	copy(c, b[:])

	return c
}

// Target decodes the compact value into the full threshold.
func (b NBit) Target() (*uint256.Int, error) {
	return util.DecodeCompact(b.Uint32())
}

// CalculateTarget returns the threshold as a big.Int, zero when the encoding is malformed.
func (b NBit) CalculateTarget() *big.Int {
	target, err := b.Target()
	if err != nil {
		return new(big.Int)
	}

	return target.ToBig()
}

// CalculateDifficulty returns how many times harder the target is than the genesis target.
func (b NBit) CalculateDifficulty() *big.Float {
	target := b.CalculateTarget()
	if target.Sign() == 0 {
		return new(big.Float)
	}

	return new(big.Float).Quo(new(big.Float).SetInt(genesisTarget), new(big.Float).SetInt(target))
}
