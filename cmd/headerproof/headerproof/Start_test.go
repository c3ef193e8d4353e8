package headerproof

import (
	"bytes"
	"encoding/hex"
	"flag"
	"io"
	"net/http"
	"testing"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/headerproof/errors"
	"github.com/bsv-blockchain/headerproof/settings"
	"github.com/bsv-blockchain/headerproof/ulogger"
	"github.com/jarcoal/httpmock"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

// mainnet blocks 0 to 10
var mainnetHeadersHex = []string{
	"0100000000000000000000000000000000000000000000000000000000000000000000003ba3edfd7a7b12b27ac72c3e67768f617fc81bc3888a51323a9fb8aa4b1e5e4a29ab5f49ffff001d1dac2b7c",
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

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var stdout bytes.Buffer

	err := NewApp(&stdout, io.Discard).Run(append([]string{progname}, args...))

	return stdout.String(), err
}

// registerNode answers getblockhash and getblockheader for mainnet blocks 0 to 10.
func registerNode(t *testing.T, rpcURL string) {
	t.Helper()

	byHash := map[string]string{}
	byHeight := make([]string, len(mainnetHeadersHex))

	for i, headerHex := range mainnetHeadersHex {
		b, err := hex.DecodeString(headerHex)
		require.NoError(t, err)

		byHeight[i] = chainhash.DoubleHashH(b).String()
		byHash[byHeight[i]] = headerHex
	}

	httpmock.RegisterResponder("POST", rpcURL, func(req *http.Request) (*http.Response, error) {
		var rpcReq struct {
			Method string        `json:"method"`
			Params []interface{} `json:"params"`
		}

		if err := jsoniter.NewDecoder(req.Body).Decode(&rpcReq); err != nil {
			return nil, err
		}

		var result string

		switch rpcReq.Method {
		case "getblockhash":
			height := int(rpcReq.Params[0].(float64))
			if height >= len(byHeight) {
				return httpmock.NewJsonResponse(http.StatusInternalServerError, map[string]interface{}{
					"result": nil,
					"error":  map[string]interface{}{"code": -8, "message": "Block height out of range"},
				})
			}

			result = byHeight[height]
		case "getblockheader":
			result = byHash[rpcReq.Params[0].(string)]
		}

		return httpmock.NewJsonResponse(http.StatusOK, map[string]interface{}{"result": result, "error": nil})
	})
}

func TestDecodeCommand(t *testing.T) {
	out, err := runApp(t, "decode", "--bits", "1d00ffff")
	require.NoError(t, err)

	assert.Contains(t, out, "target:     0xffff0000000000000000000000000000000000000000000000000000\n")
	assert.Contains(t, out, "difficulty: 1.00000000\n")
	assert.Contains(t, out, "work:       4295032833\n")

	_, err = runApp(t, "decode", "--bits", "ff123456")
	require.ErrorIs(t, err, errors.ErrMalformedMantissa)

	_, err = runApp(t, "decode", "--bits", "zz")
	require.ErrorIs(t, err, errors.ErrInvalidArgument)
}

func TestAdjustCommand(t *testing.T) {
	out, err := runApp(t, "adjust",
		"--threshold", "8825801199382903987726989797449454220615414953524072026210304",
		"--start", "1349226660",
		"--end", "1350429295",
	)
	require.NoError(t, err)

	assert.Contains(t, out, "threshold:  8774981337152660993121733114298631263731662998207194412401974\n")
	assert.Contains(t, out, "bits:       1a0575ef\n")
	assert.Contains(t, out, "normalized: 8774971387283464186072960143252932765613148614319486309236736\n")

	out, err = runApp(t, "adjust", "--threshold", "0xffffffffffffffffffffffffffffffffffffffffffffffffffffffff", "--start", "0", "--end", "2419200")
	require.NoError(t, err)
	assert.Contains(t, out, "threshold:  26959946667150639794667015087019630673637144422540572481103610249215\n")
	assert.Contains(t, out, "bits:       1d00ffff\n")

	_, err = runApp(t, "adjust", "--threshold", "lots", "--start", "0", "--end", "1")
	require.ErrorIs(t, err, errors.ErrInvalidArgument)

	_, err = runApp(t, "--network", "nonet", "adjust", "--threshold", "1", "--start", "0", "--end", "1")
	require.ErrorIs(t, err, errors.ErrConfiguration)
}

func TestVerifyCommand(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	registerNode(t, "http://localhost:18332/")

	out, err := runApp(t, "--rpc-url", "http://localhost:18332/", "--rpc-user", "alice", "--rpc-pass", "secret",
		"verify", "--prior-height", "0", "--count", "10")
	require.NoError(t, err)

	assert.Contains(t, out, "1 00000000839a8e6886ab5951d76f411475428afc90947ee320161bbf18eb6048\n")
	assert.Contains(t, out, "10 000000002c05cc2e78923c34df87fd108b22221ac6076c18f3ade378a4d915e9\n")
	assert.Contains(t, out, "tip: 10 000000002c05cc2e78923c34df87fd108b22221ac6076c18f3ade378a4d915e9 work 42950328330\n")

	_, err = runApp(t, "--rpc-url", "http://localhost:18332/", "verify", "--prior-height", "5", "--count", "6")
	require.ErrorIs(t, err, errors.ErrNotFound)
}

func TestVerifyCommandRejectsBoundary(t *testing.T) {
	_, err := runApp(t, "--rpc-url", "http://localhost:18332/", "verify", "--prior-height", "2015", "--count", "2")
	require.ErrorIs(t, err, errors.ErrInvalidArgument)

	_, err = runApp(t, "--rpc-url", "http://localhost:18332/", "verify", "--prior-height", "2010", "--count", "6")
	require.ErrorIs(t, err, errors.ErrInvalidArgument)
}

func TestNewLoggerType(t *testing.T) {
	c := cli.NewContext(NewApp(io.Discard, io.Discard), flag.NewFlagSet(progname, flag.ContinueOnError), nil)

	logger := newLogger(c, &settings.Settings{LogLevel: "DEBUG", LoggerType: "gocore"})
	_, ok := logger.(*ulogger.GoCoreLogger)
	assert.True(t, ok, "logger=gocore should select the gocore logger")

	logger = newLogger(c, &settings.Settings{LogLevel: "INFO", LoggerType: "zerolog"})
	_, ok = logger.(*ulogger.ZLoggerWrapper)
	assert.True(t, ok, "logger=zerolog should select the zerolog logger")
}

func TestVerifyCommandWithGoCoreLogger(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	registerNode(t, "http://localhost:18332/")

	out, err := runApp(t, "--logger", "gocore", "--rpc-url", "http://localhost:18332/",
		"verify", "--prior-height", "0", "--count", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "3 0000000082b5015589a3fdf2d4baff403e6f0be035a5d9742c1cae6295464449\n")
}
