package headerverifier

import (
	"encoding/hex"
	"testing"
	"time"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/headerproof/chaincfg"
	"github.com/bsv-blockchain/headerproof/model"
	"github.com/bsv-blockchain/headerproof/services/blockchain"
	"github.com/bsv-blockchain/headerproof/settings"
	"github.com/bsv-blockchain/headerproof/ulogger"
	"github.com/bsv-blockchain/headerproof/util"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

const genesisHeaderHex = "0100000000000000000000000000000000000000000000000000000000000000000000003ba3edfd7a7b12b27ac72c3e67768f617fc81bc3888a51323a9fb8aa4b1e5e4a29ab5f49ffff001d1dac2b7c"

// mainnet blocks 1 to 10
var mainnetHeadersHex = []string{
	"010000006fe28c0ab6f1b372c1a6a246ae63f74f931e8365e15a089c68d6190000000000982051fd1e4ba744bbbe680e1fee14677ba1a3c3540bf7b1cdb606e857233e0e61bc6649ffff001d01e36299",
	"010000004860eb18bf1b1620e37e9490fc8a427514416fd75159ab86688e9a8300000000d5fdcc541e25de1c7a5addedf24858b8bb665c9f36ef744ee42c316022c90f9bb0bc6649ffff001d08d2bd61",
	"01000000bddd99ccfda39da1b108ce1a5d70038d0a967bacb68b6b63065f626a0000000044f672226090d85db9a9f2fbfe5f0f9609b387af7be5b7fbb7a1767c831c9e995dbe6649ffff001d05e0ed6d",
	"010000004944469562ae1c2c74d9a535e00b6f3e40ffbad4f2fda3895501b582000000007a06ea98cd40ba2e3288262b28638cec5337c1456aaf5eedc8e9e5a20f062bdf8cc16649ffff001d2bfee0a9",
	"0100000085144a84488ea88d221c8bd6c059da090e88f8a2c99690ee55dbba4e00000000e11c48fecdd9e72510ca84f023370c9a38bf91ac5cae88019bee94d24528526344c36649ffff001d1d03e477",
	"01000000fc33f596f822a0a1951ffdbf2a897b095636ad871707bf5d3162729b00000000379dfb96a5ea8c81700ea4ac6b97ae9a9312b2d4301a29580e924ee6761a2520adc46649ffff001d189c4c97",
	"010000008d778fdc15a2d3fb76b7122a3b5582bea4f21f5a0c693537e7a03130000000003f674005103b42f984169c7d008370967e91920a6a5d64fd51282f75bc73a68af1c66649ffff001d39a59c86",
	"010000004494c8cf4154bdcc0720cd4a59d9c9b285e4b146d45f061d2b6c967100000000e3855ed886605b6d4a99d5fa2ef2e9b0b164e63df3c4136bebf2d0dac0f1f7a667c86649ffff001d1c4b5666",
	"01000000c60ddef1b7618ca2348a46e868afc26e3efc68226c78aa47f8488c4000000000c997a5e56e104102fa209c6a852dd90660a20b2d9c352423edce25857fcd37047fca6649ffff001d28404f53",
	"010000000508085c47cc849eb80ea905cc7800a3be674ffc57263cf210c59d8d00000000112ba175a1e04b14ba9e7ea5f76ab640affeef5ec98173ac9799a852fa39add320cd6649ffff001d1e2de565",
}

const block10Hash = "000000002c05cc2e78923c34df87fd108b22221ac6076c18f3ade378a4d915e9"

func mainnetBatch(t *testing.T) [][]byte {
	t.Helper()

	batch := make([][]byte, len(mainnetHeadersHex))

	for i, headerHex := range mainnetHeadersHex {
		b, err := hex.DecodeString(headerHex)
		require.NoError(t, err)

		batch[i] = b
	}

	return batch
}

func genesisHeader(t *testing.T) *model.BlockHeader {
	t.Helper()

	header, err := model.NewBlockHeaderFromString(genesisHeaderHex)
	require.NoError(t, err)

	return header
}

func newTestSettings(params *chaincfg.Params) *settings.Settings {
	return &settings.Settings{
		ClientName:     "test",
		LogLevel:       "DEBUG",
		Network:        params.Name,
		ChainCfgParams: params,
		Verifier: settings.VerifierSettings{
			HashConcurrency: 4,
			MaxBatchSize:    64,
		},
	}
}

func newTestVerifier(t *testing.T, params *chaincfg.Params) *Verifier {
	t.Helper()

	v, err := New(ulogger.TestLogger{}, newTestSettings(params))
	require.NoError(t, err)

	return v
}

// shortPeriodParams is regtest with 8 block periods so boundaries are cheap to reach.
func shortPeriodParams() *chaincfg.Params {
	params := chaincfg.RegressionNetParams
	params.Name = "shortperiod"
	params.RetargetInterval = 8
	params.TargetTimePerBlock = 10 * time.Minute
	params.TargetTimespan = 80 * time.Minute

	return &params
}

// testChain is a chain of headers mined at regtest difficulty, with a real retarget
// at every period boundary. Even periods are mined fast and odd periods slow so the
// threshold changes at every boundary.
type testChain struct {
	params  *chaincfg.Params
	headers []*model.BlockHeader
}

func newTestChain(t *testing.T, params *chaincfg.Params, length int) *testChain {
	t.Helper()

	difficulty, err := blockchain.NewDifficulty(ulogger.TestLogger{}, params)
	require.NoError(t, err)

	interval := int(params.RetargetInterval)
	bits := model.NewNBitFromUint32(params.PowLimitBits)
	prevHash := &chainhash.Hash{}
	timestamp := uint32(1700000000)

	chain := &testChain{params: params}

	for height := 0; height < length; height++ {
		if height > 0 && height%interval == 0 {
			nextBits, err := difficulty.CalcNextWorkRequired(chain.headers[height-interval], chain.headers[height-1])
			require.NoError(t, err)

			bits = *nextBits
		}

		spacing := uint32(400)
		if (height/interval)%2 == 1 {
			spacing = 1600
		}

		header := mineHeader(t, &model.BlockHeader{
			Version:        0x20000000,
			HashPrevBlock:  prevHash,
			HashMerkleRoot: &chainhash.Hash{byte(height), byte(height >> 8)},
			Timestamp:      timestamp,
			Bits:           bits,
		})

		chain.headers = append(chain.headers, header)
		prevHash = header.Hash()
		timestamp += spacing
	}

	return chain
}

// mineHeader increments the nonce until the header meets the threshold in its bits.
func mineHeader(t *testing.T, header *model.BlockHeader) *model.BlockHeader {
	t.Helper()

	target, err := header.Bits.Target()
	require.NoError(t, err)

	for {
		if util.CheckProofOfWork(header.Hash(), target) {
			return header
		}

		header.Nonce++
	}
}

// remine returns a different valid header with the same fields as header apart from the nonce.
func remine(t *testing.T, header *model.BlockHeader) *model.BlockHeader {
	t.Helper()

	clone := *header
	clone.Nonce++

	return mineHeader(t, &clone)
}

func (c *testChain) threshold(t *testing.T, height int) *uint256.Int {
	t.Helper()

	target, err := c.headers[height].Bits.Target()
	require.NoError(t, err)

	return target
}

func (c *testChain) batch(from, count int) [][]byte {
	batch := make([][]byte, count)
	for i := range batch {
		batch[i] = c.headers[from+i].Bytes()
	}

	return batch
}

// retargetRequest builds a valid request for the count headers following priorHeight.
func (c *testChain) retargetRequest(t *testing.T, priorHeight, count int) RetargetRequest {
	t.Helper()

	// the current period is the one the prior header belongs to, even when the prior header closes it
	interval := int(c.params.RetargetInterval)
	periodStart := priorHeight / interval * interval
	periodEnd := periodStart + interval - 1

	return RetargetRequest{
		//nolint:gosec // test heights are small
		PriorHeight:       uint32(priorHeight),
		PriorHash:         c.headers[priorHeight].Hash(),
		PeriodStartHash:   c.headers[periodStart].Hash(),
		CurrentThreshold:  c.threshold(t, periodStart),
		NextThreshold:     c.threshold(t, periodEnd+1),
		PeriodStartHeader: c.headers[periodStart].Bytes(),
		PeriodEndHeader:   c.headers[periodEnd].Bytes(),
		Headers:           c.batch(priorHeight+1, count),
	}
}
