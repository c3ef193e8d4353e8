package headerverifier

import (
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/headerproof/errors"
	"github.com/bsv-blockchain/headerproof/model"
	"github.com/bsv-blockchain/headerproof/util"
	"github.com/holiman/uint256"
)

// ThresholdFunc returns the threshold the header at index i of a batch must commit to.
type ThresholdFunc func(i int) *uint256.Int

// LinkAndValidate walks a batch in order and checks, for every header, that it
// points at the hash of the header before it (priorHash for the first one), that
// its bits decode to thresholdForIndex(i) and that its hash meets that threshold.
//
// hashes[i] must be the hash of headers[i]. The first failure aborts the walk and
// the returned error carries the offending index, see errors.IndexOf.
func LinkAndValidate(headers []*model.BlockHeader, hashes []chainhash.Hash, priorHash *chainhash.Hash, thresholdForIndex ThresholdFunc) error {
	if len(headers) != len(hashes) {
		return errors.NewInvalidArgumentError("[LinkAndValidate] got %d headers and %d hashes", len(headers), len(hashes))
	}

	if priorHash == nil {
		return errors.NewInvalidArgumentError("[LinkAndValidate] prior hash is required")
	}

	expectedParent := priorHash

	for i, header := range headers {
		if !header.HashPrevBlock.IsEqual(expectedParent) {
			return errors.NewParentHashMismatchError(i, "[LinkAndValidate] header %d has parent %s, expected %s", i, header.HashPrevBlock, expectedParent)
		}

		threshold := thresholdForIndex(i)

		target, err := header.Bits.Target()
		if err != nil {
			// bits that do not decode cannot equal the threshold, the decode error is kept as the cause
			return errors.NewThresholdMismatchError(i, "[LinkAndValidate] header %d has invalid bits %s", i, header.Bits.String(), err)
		}

		if !target.Eq(threshold) {
			return errors.NewThresholdMismatchError(i, "[LinkAndValidate] header %d has bits %s, expected threshold %s", i, header.Bits.String(), threshold.Hex())
		}

		if !util.CheckProofOfWork(&hashes[i], threshold) {
			return errors.NewProofOfWorkError(i, "[LinkAndValidate] header %d hash %s is above threshold %s", i, hashes[i].String(), threshold.Hex())
		}

		expectedParent = &hashes[i]
	}

	return nil
}
