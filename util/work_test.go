package util

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalcWork(t *testing.T) {
	t.Run("mainnet pow limit", func(t *testing.T) {
		target, err := DecodeCompact(0x1d00ffff)
		require.NoError(t, err)

		// 2^256 / (0xffff * 2^208 + 1)
		assert.Equal(t, uint64(0x100010001), CalcWork(target).Uint64())
	})

	t.Run("regtest pow limit", func(t *testing.T) {
		target, err := DecodeCompact(0x207fffff)
		require.NoError(t, err)
		assert.Equal(t, uint64(2), CalcWork(target).Uint64())
	})

	t.Run("one", func(t *testing.T) {
		// 2^256 / 2 = 2^255
		expected := new(uint256.Int).Lsh(uint256.NewInt(1), 255)
		assert.True(t, expected.Eq(CalcWork(uint256.NewInt(1))))
	})

	t.Run("max", func(t *testing.T) {
		assert.Equal(t, uint64(1), CalcWork(new(uint256.Int).SetAllOne()).Uint64())
	})

	t.Run("zero", func(t *testing.T) {
		assert.True(t, CalcWork(uint256.NewInt(0)).IsZero())
	})
}

func TestSumWork(t *testing.T) {
	target, err := DecodeCompact(0x1d00ffff)
	require.NoError(t, err)

	targets := make([]*uint256.Int, 10)
	for i := range targets {
		targets[i] = target
	}

	assert.Equal(t, uint64(10*0x100010001), SumWork(targets...).Uint64())
	assert.True(t, SumWork().IsZero())

	saturated := SumWork(uint256.NewInt(1), uint256.NewInt(1), uint256.NewInt(1))
	assert.True(t, saturated.Eq(new(uint256.Int).SetAllOne()))
}
