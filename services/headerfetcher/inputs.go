package headerfetcher

import (
	"context"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	safeconversion "github.com/bsv-blockchain/go-safe-conversion"
	"github.com/bsv-blockchain/headerproof/errors"
	"github.com/bsv-blockchain/headerproof/model"
	"github.com/bsv-blockchain/headerproof/services/headerverifier"
)

// RetargetInputs holds everything needed to verify count headers after PriorHeight
// across a period boundary.
type RetargetInputs struct {
	PriorHeight uint32
	PriorHash   *chainhash.Hash

	PeriodStartHeight uint32
	PeriodStartHash   *chainhash.Hash
	PeriodStartHeader []byte
	PeriodEndHeader   []byte

	// NextPeriodHeader is the first header of the next period, its bits are the claimed next threshold.
	NextPeriodHeader []byte

	Headers [][]byte
}

// GetRetargetInputs fetches the anchors of the period the prior header belongs to together
// with the count headers that follow it.
func (c *Client) GetRetargetInputs(ctx context.Context, priorHeight uint32, count int) (*RetargetInputs, error) {
	interval := c.settings.ChainCfgParams.RetargetInterval
	periodStartHeight := priorHeight - priorHeight%interval
	periodEndHeight := periodStartHeight + interval - 1

	if _, err := safeconversion.IntToUint32(count); err != nil {
		return nil, errors.NewInvalidArgumentError("invalid count %d", count, err)
	}

	c.logger.Infof("[GetRetargetInputs] period %d to %d, %d headers after %d", periodStartHeight, periodEndHeight, count, priorHeight)

	priorHash, err := c.GetBlockHash(ctx, priorHeight)
	if err != nil {
		return nil, err
	}

	periodStartHash, err := c.GetBlockHash(ctx, periodStartHeight)
	if err != nil {
		return nil, err
	}

	periodStartHeader, err := c.GetHeaderByHash(ctx, periodStartHash)
	if err != nil {
		return nil, err
	}

	periodEndHeader, err := c.GetHeaderByHeight(ctx, periodEndHeight)
	if err != nil {
		return nil, err
	}

	nextPeriodHeader, err := c.GetHeaderByHeight(ctx, periodEndHeight+1)
	if err != nil {
		return nil, err
	}

	headers, err := c.GetHeaders(ctx, priorHeight+1, count)
	if err != nil {
		return nil, err
	}

	return &RetargetInputs{
		PriorHeight:       priorHeight,
		PriorHash:         priorHash,
		PeriodStartHeight: periodStartHeight,
		PeriodStartHash:   periodStartHash,
		PeriodStartHeader: periodStartHeader,
		PeriodEndHeader:   periodEndHeader,
		NextPeriodHeader:  nextPeriodHeader,
		Headers:           headers,
	}, nil
}

// Request converts the inputs into a verifier request, taking the current threshold from
// the period start header and the claimed next threshold from the first header of the next period.
func (r *RetargetInputs) Request() (headerverifier.RetargetRequest, error) {
	periodStart, err := model.NewBlockHeaderFromBytes(r.PeriodStartHeader)
	if err != nil {
		return headerverifier.RetargetRequest{}, err
	}

	nextPeriod, err := model.NewBlockHeaderFromBytes(r.NextPeriodHeader)
	if err != nil {
		return headerverifier.RetargetRequest{}, err
	}

	currentThreshold, err := periodStart.Bits.Target()
	if err != nil {
		return headerverifier.RetargetRequest{}, err
	}

	nextThreshold, err := nextPeriod.Bits.Target()
	if err != nil {
		return headerverifier.RetargetRequest{}, err
	}

	return headerverifier.RetargetRequest{
		PriorHeight:       r.PriorHeight,
		PriorHash:         r.PriorHash,
		PeriodStartHash:   r.PeriodStartHash,
		CurrentThreshold:  currentThreshold,
		NextThreshold:     nextThreshold,
		PeriodStartHeader: r.PeriodStartHeader,
		PeriodEndHeader:   r.PeriodEndHeader,
		Headers:           r.Headers,
	}, nil
}
