package blockchain

import (
	"github.com/bsv-blockchain/headerproof/chaincfg"
	"github.com/bsv-blockchain/headerproof/errors"
	"github.com/bsv-blockchain/headerproof/model"
	"github.com/bsv-blockchain/headerproof/ulogger"
	"github.com/bsv-blockchain/headerproof/util"
	"github.com/holiman/uint256"
)

// Difficulty implements the fixed-window retarget rule: every RetargetInterval
// blocks the threshold is scaled by the time the previous period actually took.
type Difficulty struct {
	logger         ulogger.Logger
	chainParams    *chaincfg.Params
	powLimit       *uint256.Int
	targetTimespan int64
	minTimespan    int64
	maxTimespan    int64
}

func NewDifficulty(logger ulogger.Logger, params *chaincfg.Params) (*Difficulty, error) {
	if params == nil {
		return nil, errors.NewConfigurationError("chain params are required")
	}

	if params.RetargetInterval == 0 || params.TargetTimePerBlock <= 0 || params.RetargetAdjustmentFactor <= 0 {
		return nil, errors.NewConfigurationError("invalid retarget parameters for %s", params.Name)
	}

	powLimit, overflow := uint256.FromBig(params.PowLimit)
	if overflow || powLimit.IsZero() {
		return nil, errors.NewConfigurationError("invalid pow limit for %s", params.Name)
	}

	targetTimespan := params.TargetTimespanSeconds()

	return &Difficulty{
		logger:         logger,
		chainParams:    params,
		powLimit:       powLimit,
		targetTimespan: targetTimespan,
		minTimespan:    targetTimespan / params.RetargetAdjustmentFactor,
		maxTimespan:    targetTimespan * params.RetargetAdjustmentFactor,
	}, nil
}

// PowLimit returns a copy of the highest threshold the network allows.
func (d *Difficulty) PowLimit() *uint256.Int {
	return new(uint256.Int).Set(d.powLimit)
}

// RetargetInterval returns the number of blocks in a period.
func (d *Difficulty) RetargetInterval() uint32 {
	return d.chainParams.RetargetInterval
}

// CalcNextThreshold computes the threshold of the period that follows a period
// mined at oldThreshold, whose first block has timestamp startTimestamp and whose
// last block has timestamp endTimestamp.
//
// The measured timespan is clamped to [T/factor, T*factor] where T is the target
// timespan, then new = old * timespan / T with a single truncating division and a
// 512-bit intermediate product.  The result never exceeds the pow limit.
// The timespan is a signed difference, so an end before the start clamps to the minimum.
func (d *Difficulty) CalcNextThreshold(oldThreshold *uint256.Int, startTimestamp, endTimestamp uint32) *uint256.Int {
	// signed, an end before the start clamps to the minimum
	timespan := int64(endTimestamp) - int64(startTimestamp)

	if timespan < d.minTimespan {
		d.logger.Debugf("timespan %d is less than the minimum %d - setting to the minimum", timespan, d.minTimespan)
		timespan = d.minTimespan
	} else if timespan > d.maxTimespan {
		d.logger.Debugf("timespan %d is greater than the maximum %d - setting to the maximum", timespan, d.maxTimespan)
		timespan = d.maxTimespan
	}

	//nolint:gosec // timespan is clamped to a positive range
	newThreshold, overflow := new(uint256.Int).MulDivOverflow(oldThreshold, uint256.NewInt(uint64(timespan)), uint256.NewInt(uint64(d.targetTimespan)))
	if overflow || newThreshold.Gt(d.powLimit) {
		d.logger.Debugf("new threshold would be above pow limit, set to pow limit")
		return d.PowLimit()
	}

	return newThreshold
}

// NormalizeThreshold rounds a threshold to the precision of the compact encoding,
// which is the value a header committing to it carries in its bits.
func (d *Difficulty) NormalizeThreshold(threshold *uint256.Int) (*uint256.Int, error) {
	return util.NormalizeCompact(threshold)
}

// CalcNextWorkRequired returns the bits the first block of the next period must carry,
// given the first and last header of the current period.
func (d *Difficulty) CalcNextWorkRequired(periodStart, periodEnd *model.BlockHeader) (*model.NBit, error) {
	oldThreshold, err := periodEnd.Bits.Target()
	if err != nil {
		return nil, errors.NewProcessingError("error decoding bits of the period end header", err)
	}

	newThreshold := d.CalcNextThreshold(oldThreshold, periodStart.Timestamp, periodEnd.Timestamp)
	nBits := model.NewNBitFromUint32(util.EncodeCompact(newThreshold))

	d.logger.Debugf("retarget from %s to %s over %d seconds", periodEnd.Bits.String(), nBits.String(), int64(periodEnd.Timestamp)-int64(periodStart.Timestamp))

	return &nBits, nil
}

// ValidateThreshold checks a caller supplied threshold lies in (0, powLimit].
func (d *Difficulty) ValidateThreshold(threshold *uint256.Int) error {
	if threshold == nil || threshold.IsZero() {
		return errors.NewInvalidArgumentError("threshold must be greater than zero")
	}

	if threshold.Gt(d.powLimit) {
		return errors.NewInvalidArgumentError("threshold %s is above the pow limit %s", threshold.Hex(), d.powLimit.Hex())
	}

	return nil
}

// PeriodEndOffset returns how many headers after priorHeight the last block of the current period is.
// It is 0 when priorHeight itself closes a period.
func (d *Difficulty) PeriodEndOffset(priorHeight uint32) uint32 {
	interval := d.chainParams.RetargetInterval

	return interval - 1 - priorHeight%interval
}
