// Package headerverifier validates contiguous batches of raw block headers against
// a trusted chain tip.
//
// A batch is accepted only if every header links to the one before it, commits to
// the threshold in force at its height and meets that threshold. Batches that cross
// a difficulty period boundary are verified together with the retarget that produced
// the new threshold. Verification is all-or-nothing: a rejected batch returns no hashes.
package headerverifier

import (
	"context"
	"time"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/headerproof/errors"
	"github.com/bsv-blockchain/headerproof/model"
	"github.com/bsv-blockchain/headerproof/services/blockchain"
	"github.com/bsv-blockchain/headerproof/settings"
	"github.com/bsv-blockchain/headerproof/ulogger"
	"github.com/bsv-blockchain/headerproof/util"
	"github.com/holiman/uint256"
	"golang.org/x/sync/errgroup"
)

// ChainTip is a trusted header the verification of a batch is anchored on.
type ChainTip struct {
	Height    uint32
	Hash      *chainhash.Hash
	Threshold *uint256.Int
}

// Result is returned for an accepted batch.
type Result struct {
	// Hashes of the batch headers in order.
	Hashes []chainhash.Hash

	// NextThreshold is the threshold derived by the retarget, nil for single period batches.
	NextThreshold *uint256.Int

	// TipThreshold is the threshold of the last header in the batch.
	TipThreshold *uint256.Int

	// TotalWork is the sum of the work of every header in the batch.
	TotalWork *uint256.Int
}

// Tip returns the chain tip after the batch, given the height of the header the batch was verified against.
func (r *Result) Tip(priorHeight uint32) ChainTip {
	//nolint:gosec // batch size is bounded by settings
	return ChainTip{
		Height:    priorHeight + uint32(len(r.Hashes)),
		Hash:      &r.Hashes[len(r.Hashes)-1],
		Threshold: r.TipThreshold,
	}
}

// RetargetRequest holds the inputs for verifying a batch that may cross a period boundary.
type RetargetRequest struct {
	// PriorHeight and PriorHash identify the trusted header preceding the batch.
	PriorHeight uint32
	PriorHash   *chainhash.Hash

	// PeriodStartHash is the trusted hash of the first header of the period PriorHeight belongs to,
	// the period whose retarget is checked.
	PeriodStartHash *chainhash.Hash

	CurrentThreshold *uint256.Int
	NextThreshold    *uint256.Int

	// PeriodStartHeader and PeriodEndHeader are the raw first and last headers of the current period.
	PeriodStartHeader []byte
	PeriodEndHeader   []byte

	Headers [][]byte
}

type Verifier struct {
	logger     ulogger.Logger
	settings   *settings.Settings
	difficulty *blockchain.Difficulty
}

func New(logger ulogger.Logger, tSettings *settings.Settings) (*Verifier, error) {
	initPrometheusMetrics()

	if tSettings == nil {
		return nil, errors.NewConfigurationError("settings are required")
	}

	difficulty, err := blockchain.NewDifficulty(logger, tSettings.ChainCfgParams)
	if err != nil {
		return nil, errors.NewConfigurationError("error creating difficulty calculator", err)
	}

	return &Verifier{
		logger:     logger,
		settings:   tSettings,
		difficulty: difficulty,
	}, nil
}

// Difficulty returns the retarget calculator for the configured network.
func (v *Verifier) Difficulty() *blockchain.Difficulty {
	return v.difficulty
}

// Verify checks a batch that lies entirely within one difficulty period: every header
// must commit to threshold. It does not check whether the batch crosses a boundary.
func (v *Verifier) Verify(ctx context.Context, priorHash *chainhash.Hash, threshold *uint256.Int, batch [][]byte) (result *Result, err error) {
	start := time.Now()

	prometheusVerifyTotal.WithLabelValues(modeSinglePeriod).Inc()

	defer func() {
		v.observe(modeSinglePeriod, start, result, err)
	}()

	if priorHash == nil {
		return nil, errors.NewInvalidArgumentError("[Verify] prior hash is required")
	}

	v.logger.Debugf("[Verify][%s] verifying %d headers", priorHash.String(), len(batch))

	if err = v.checkBatchSize(batch); err != nil {
		return nil, err
	}

	if err = v.difficulty.ValidateThreshold(threshold); err != nil {
		return nil, err
	}

	headers, hashes, err := v.parseAndHash(ctx, batch)
	if err != nil {
		return nil, err
	}

	thresholdForIndex := func(int) *uint256.Int {
		return threshold
	}

	if err = LinkAndValidate(headers, hashes, priorHash, thresholdForIndex); err != nil {
		return nil, err
	}

	return &Result{
		Hashes:       hashes,
		TipThreshold: threshold,
		TotalWork:    totalWork(len(hashes), thresholdForIndex),
	}, nil
}

// VerifyWithRetarget checks a batch that may cross one period boundary. Headers up to the
// end of the current period must commit to CurrentThreshold and the rest to NextThreshold,
// which must be what the retarget of the current period produces.
func (v *Verifier) VerifyWithRetarget(ctx context.Context, req RetargetRequest) (result *Result, err error) {
	start := time.Now()

	prometheusVerifyTotal.WithLabelValues(modeRetarget).Inc()

	defer func() {
		v.observe(modeRetarget, start, result, err)
	}()

	if req.PriorHash == nil || req.PeriodStartHash == nil {
		return nil, errors.NewInvalidArgumentError("[VerifyWithRetarget] prior hash and period start hash are required")
	}

	v.logger.Debugf("[VerifyWithRetarget][%s] verifying %d headers after height %d", req.PriorHash.String(), len(req.Headers), req.PriorHeight)

	if err = v.checkBatchSize(req.Headers); err != nil {
		return nil, err
	}

	if err = v.difficulty.ValidateThreshold(req.CurrentThreshold); err != nil {
		return nil, err
	}

	if err = v.difficulty.ValidateThreshold(req.NextThreshold); err != nil {
		return nil, err
	}

	n := len(req.Headers)
	periodEndOffset := int(v.difficulty.PeriodEndOffset(req.PriorHeight))
	boundaryIndex := min(n, periodEndOffset)

	if n-boundaryIndex > int(v.difficulty.RetargetInterval()) {
		return nil, errors.NewUnsupportedSpanError("[VerifyWithRetarget] %d headers after height %d span more than one period boundary", n, req.PriorHeight)
	}

	periodEnd, err := v.checkPeriodAnchors(req, boundaryIndex)
	if err != nil {
		return nil, err
	}

	headers, hashes, err := v.parseAndHash(ctx, req.Headers)
	if err != nil {
		return nil, err
	}

	thresholdForIndex := func(i int) *uint256.Int {
		if i < boundaryIndex {
			return req.CurrentThreshold
		}

		return req.NextThreshold
	}

	if err = LinkAndValidate(headers, hashes, req.PriorHash, thresholdForIndex); err != nil {
		return nil, err
	}

	// the period end header also appears in the batch, both copies must be the same header
	if periodEndOffset >= 1 && periodEndOffset <= n {
		idx := periodEndOffset - 1
		if !hashes[idx].IsEqual(periodEnd.Hash()) {
			return nil, errors.NewWithIndex(errors.ERR_PERIOD_ANCHOR_MISMATCH, idx, "[VerifyWithRetarget] header %d is %s but the period end header is %s", idx, hashes[idx].String(), periodEnd.Hash().String())
		}
	}

	return &Result{
		Hashes:        hashes,
		NextThreshold: req.NextThreshold,
		TipThreshold:  thresholdForIndex(n - 1),
		TotalWork:     totalWork(n, thresholdForIndex),
	}, nil
}

// checkPeriodAnchors validates the period start and end headers and the retarget they
// produce, returning the decoded period end header.
func (v *Verifier) checkPeriodAnchors(req RetargetRequest, boundaryIndex int) (*model.BlockHeader, error) {
	periodStart, err := model.NewBlockHeaderFromBytes(req.PeriodStartHeader)
	if err != nil {
		return nil, errors.NewPeriodAnchorMismatchError("[VerifyWithRetarget] invalid period start header", err)
	}

	if !periodStart.Hash().IsEqual(req.PeriodStartHash) {
		return nil, errors.NewPeriodAnchorMismatchError("[VerifyWithRetarget] period start header hashes to %s, expected %s", periodStart.Hash().String(), req.PeriodStartHash.String())
	}

	if err = checkAnchorThreshold("period start", periodStart, req.CurrentThreshold); err != nil {
		return nil, err
	}

	periodEnd, err := model.NewBlockHeaderFromBytes(req.PeriodEndHeader)
	if err != nil {
		return nil, errors.NewPeriodAnchorMismatchError("[VerifyWithRetarget] invalid period end header", err)
	}

	if err = checkAnchorThreshold("period end", periodEnd, req.CurrentThreshold); err != nil {
		return nil, err
	}

	// batch starts on a boundary so the prior header closes the period
	if boundaryIndex == 0 && !periodEnd.Hash().IsEqual(req.PriorHash) {
		return nil, errors.NewPeriodAnchorMismatchError("[VerifyWithRetarget] period end header %s is not the prior header %s", periodEnd.Hash().String(), req.PriorHash.String())
	}

	computed, err := v.difficulty.NormalizeThreshold(v.difficulty.CalcNextThreshold(req.CurrentThreshold, periodStart.Timestamp, periodEnd.Timestamp))
	if err != nil {
		return nil, errors.NewProcessingError("[VerifyWithRetarget] error normalizing next threshold", err)
	}

	if !computed.Eq(req.NextThreshold) {
		return nil, errors.NewRetargetMismatchError("[VerifyWithRetarget] retarget gives %s, claimed %s", computed.Hex(), req.NextThreshold.Hex())
	}

	return periodEnd, nil
}

func checkAnchorThreshold(name string, header *model.BlockHeader, threshold *uint256.Int) error {
	target, err := header.Bits.Target()
	if err != nil {
		return errors.NewPeriodAnchorMismatchError("[VerifyWithRetarget] %s header has invalid bits %s", name, header.Bits.String(), err)
	}

	if !target.Eq(threshold) {
		return errors.NewPeriodAnchorMismatchError("[VerifyWithRetarget] %s header has bits %s, expected threshold %s", name, header.Bits.String(), threshold.Hex())
	}

	return nil
}

func (v *Verifier) checkBatchSize(batch [][]byte) error {
	prometheusVerifyBatchSize.Observe(float64(len(batch)))

	if len(batch) == 0 {
		return errors.NewInvalidArgumentError("batch is empty")
	}

	if v.settings.Verifier.MaxBatchSize > 0 && len(batch) > v.settings.Verifier.MaxBatchSize {
		return errors.NewInvalidArgumentError("batch of %d headers exceeds the maximum of %d", len(batch), v.settings.Verifier.MaxBatchSize)
	}

	return nil
}

// parseAndHash decodes and hashes every header of the batch. Hashing has no dependency
// between headers so it runs on up to HashConcurrency goroutines.
func (v *Verifier) parseAndHash(ctx context.Context, batch [][]byte) ([]*model.BlockHeader, []chainhash.Hash, error) {
	start := time.Now()

	headers := make([]*model.BlockHeader, len(batch))
	hashes := make([]chainhash.Hash, len(batch))

	g := errgroup.Group{}
	util.SafeSetLimit(&g, v.settings.Verifier.HashConcurrency)

	for i, headerBytes := range batch {
		g.Go(func() error {
			header, err := model.NewBlockHeaderFromBytes(headerBytes)
			if err != nil {
				return errors.NewWithIndex(errors.ERR_HEADER_INVALID, i, "header %d could not be decoded", i, err)
			}

			headers[i] = header
			hashes[i] = *header.Hash()

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	prometheusVerifyHashDuration.Observe(time.Since(start).Seconds())

	if err := ctx.Err(); err != nil {
		return nil, nil, errors.NewContextCanceledError("verification canceled", err)
	}

	return headers, hashes, nil
}

func (v *Verifier) observe(mode string, start time.Time, result *Result, err error) {
	prometheusVerifyDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())

	if err != nil {
		prometheusVerifyErrors.WithLabelValues(errors.GetErrorCategory(err)).Inc()
		v.logger.Warnf("[%s] batch rejected: %v", mode, err)

		return
	}

	prometheusVerifyHeadersVerified.Add(float64(len(result.Hashes)))
	v.logger.Infof("[%s] accepted %d headers, tip %s in %s", mode, len(result.Hashes), result.Hashes[len(result.Hashes)-1].String(), time.Since(start))
}

func totalWork(n int, thresholdForIndex ThresholdFunc) *uint256.Int {
	targets := make([]*uint256.Int, n)
	for i := range targets {
		targets[i] = thresholdForIndex(i)
	}

	return util.SumWork(targets...)
}
