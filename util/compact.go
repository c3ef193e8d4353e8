package util

import (
	"github.com/bsv-blockchain/headerproof/errors"
	"github.com/holiman/uint256"
)

// DecodeCompact converts the compact "bits" representation of a target into the
// full 256-bit value.
//
// The most significant byte is the exponent e, the number of bytes of the target.
// The remaining three bytes are the mantissa, taken verbatim without any sign
// handling, and occupy bytes [32-e, 32-e+3) of the big-endian target.  Mantissa
// bytes that fall below the least significant byte (e < 3) are dropped, which is
// the same as shifting the mantissa right.  A non-zero mantissa byte that would
// land above the most significant byte (e > 32) cannot be represented.
func DecodeCompact(bits uint32) (*uint256.Int, error) {
	exponent := int(bits >> 24)
	mantissa := [3]byte{byte(bits >> 16), byte(bits >> 8), byte(bits)}

	var target [32]byte

	for i, b := range mantissa {
		pos := 32 - exponent + i

		switch {
		case pos > 31:
			// below the least significant byte
		case pos < 0:
			if b != 0 {
				return nil, errors.NewMalformedMantissaError("compact target %08x overflows 256 bits", bits)
			}
		default:
			target[pos] = b
		}
	}

	return new(uint256.Int).SetBytes32(target[:]), nil
}

// EncodeCompact converts a 256-bit target into its compact representation, the
// inverse of DecodeCompact for canonical values.  The compact form only carries
// 23 bits of precision so lower bits of larger values are truncated.  When the
// top bit of the mantissa would be set the mantissa is shifted down a byte and
// the exponent increased, so the encoding never looks negative to nodes that
// read the sign bit.
func EncodeCompact(target *uint256.Int) uint32 {
	if target.IsZero() {
		return 0
	}

	exponent := uint((target.BitLen() + 7) / 8)

	var mantissa uint32

	if exponent <= 3 {
		//nolint:gosec // at most 24 bits
		mantissa = uint32(target.Uint64()) << (8 * (3 - exponent))
	} else {
		//nolint:gosec // at most 24 bits after the shift
		mantissa = uint32(new(uint256.Int).Rsh(target, 8*(exponent-3)).Uint64())
	}

	if mantissa&0x00800000 != 0 {
		mantissa >>= 8
		exponent++
	}

	//nolint:gosec // exponent is at most 33
	return uint32(exponent<<24) | mantissa
}

// NormalizeCompact returns target rounded to the precision a compact encoding can carry,
// the value a header committing to target has in its bits field.
func NormalizeCompact(target *uint256.Int) (*uint256.Int, error) {
	return DecodeCompact(EncodeCompact(target))
}
