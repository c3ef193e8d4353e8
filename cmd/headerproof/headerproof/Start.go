// Package headerproof implements the headerproof command line: fetching headers from a node
// and verifying them, and running the retarget and compact target calculations on their own.
package headerproof

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	safeconversion "github.com/bsv-blockchain/go-safe-conversion"
	"github.com/bsv-blockchain/headerproof/chaincfg"
	"github.com/bsv-blockchain/headerproof/errors"
	"github.com/bsv-blockchain/headerproof/model"
	"github.com/bsv-blockchain/headerproof/services/blockchain"
	"github.com/bsv-blockchain/headerproof/services/headerfetcher"
	"github.com/bsv-blockchain/headerproof/services/headerverifier"
	"github.com/bsv-blockchain/headerproof/settings"
	"github.com/bsv-blockchain/headerproof/ulogger"
	"github.com/bsv-blockchain/headerproof/util"
	"github.com/holiman/uint256"
	"github.com/joho/godotenv"
	"github.com/ordishs/go-utils"
	"github.com/urfave/cli/v2"
)

const progname = "headerproof"

// Start loads .env from the working directory, if there is one, and runs the command line.
func Start(args []string) error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return errors.NewConfigurationError("failed to load .env", err)
	}

	return NewApp(os.Stdout, os.Stderr).Run(args)
}

func NewApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      progname,
		Usage:     "verify bitcoin block header chains",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "network",
				Usage: "mainnet, testnet or regtest",
				Value: "mainnet",
			},
			&cli.StringFlag{
				Name:    "rpc-url",
				Usage:   "URL of the node RPC interface",
				EnvVars: []string{"BITCOIN_RPC_URL"},
			},
			&cli.StringFlag{
				Name:    "rpc-user",
				Usage:   "RPC user name",
				EnvVars: []string{"BITCOIN_RPC_USER"},
			},
			&cli.StringFlag{
				Name:    "rpc-pass",
				Usage:   "RPC password",
				EnvVars: []string{"BITCOIN_RPC_PASS"},
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "DEBUG, INFO, WARN or ERROR",
				Value: "INFO",
			},
			&cli.StringFlag{
				Name:  "logger",
				Usage: "zerolog or gocore, overrides the logger setting",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "verify",
				Usage:  "fetch and verify headers that lie within one difficulty period",
				Action: verifyAction,
				Flags: []cli.Flag{
					&cli.Uint64Flag{Name: "prior-height", Usage: "height of the trusted header before the batch", Required: true},
					&cli.IntFlag{Name: "count", Usage: "number of headers to verify", Value: 10},
				},
			},
			{
				Name:   "retarget",
				Usage:  "fetch and verify headers that may cross a difficulty period boundary",
				Action: retargetAction,
				Flags: []cli.Flag{
					&cli.Uint64Flag{Name: "prior-height", Usage: "height of the trusted header before the batch", Required: true},
					&cli.IntFlag{Name: "count", Usage: "number of headers to verify", Value: 10},
				},
			},
			{
				Name:   "adjust",
				Usage:  "compute the threshold of the next period",
				Action: adjustAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "threshold", Usage: "current threshold, decimal or 0x prefixed hex", Required: true},
					&cli.Uint64Flag{Name: "start", Usage: "timestamp of the first header of the period", Required: true},
					&cli.Uint64Flag{Name: "end", Usage: "timestamp of the last header of the period", Required: true},
				},
			},
			{
				Name:   "decode",
				Usage:  "decode a compact target",
				Action: decodeAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "bits", Usage: "compact target as big-endian hex, e.g. 1d00ffff", Required: true},
				},
			},
		},
	}
}

// newSettings applies the global flags on top of the configured settings.
func newSettings(c *cli.Context) (*settings.Settings, error) {
	tSettings := settings.NewSettings()

	params, err := chaincfg.GetChainParams(c.String("network"))
	if err != nil {
		return nil, err
	}

	tSettings.Network = params.Name
	tSettings.ChainCfgParams = params
	tSettings.LogLevel = c.String("log-level")

	if loggerType := c.String("logger"); loggerType != "" {
		tSettings.LoggerType = loggerType
	}

	if rpcURL := c.String("rpc-url"); rpcURL != "" {
		u, err := url.Parse(rpcURL)
		if err != nil {
			return nil, errors.NewConfigurationError("invalid rpc url %q", rpcURL, err)
		}

		tSettings.RPC.URL = u
	}

	if user := c.String("rpc-user"); user != "" {
		tSettings.RPC.User = user
		tSettings.RPC.Pass = c.String("rpc-pass")
	}

	return tSettings, nil
}

func newLogger(c *cli.Context, tSettings *settings.Settings) ulogger.Logger {
	return ulogger.New(progname,
		ulogger.WithLevel(tSettings.LogLevel),
		ulogger.WithLoggerType(tSettings.LoggerType),
		ulogger.WithWriter(c.App.ErrWriter),
	)
}

func uint32Flag(c *cli.Context, name string) (uint32, error) {
	height, err := safeconversion.Uint64ToUint32(c.Uint64(name))
	if err != nil {
		return 0, errors.NewInvalidArgumentError("invalid --%s", name, err)
	}

	return height, nil
}

func verifyAction(c *cli.Context) error {
	tSettings, err := newSettings(c)
	if err != nil {
		return err
	}

	logger := newLogger(c, tSettings)

	priorHeight, err := uint32Flag(c, "prior-height")
	if err != nil {
		return err
	}

	count := c.Int("count")

	verifier, err := headerverifier.New(logger, tSettings)
	if err != nil {
		return err
	}

	if periodEndOffset := int(verifier.Difficulty().PeriodEndOffset(priorHeight)); periodEndOffset < count {
		return errors.NewInvalidArgumentError("%d headers after height %d cross a difficulty period boundary, use retarget", count, priorHeight)
	}

	fetcher, err := headerfetcher.New(logger, tSettings)
	if err != nil {
		return err
	}

	ctx := c.Context

	priorHeader, err := fetcher.GetHeaderByHeight(ctx, priorHeight)
	if err != nil {
		return err
	}

	prior, err := model.NewBlockHeaderFromBytes(priorHeader)
	if err != nil {
		return err
	}

	threshold, err := prior.Bits.Target()
	if err != nil {
		return err
	}

	headers, err := fetcher.GetHeaders(ctx, priorHeight+1, count)
	if err != nil {
		return err
	}

	result, err := verifier.Verify(ctx, prior.Hash(), threshold, headers)
	if err != nil {
		return err
	}

	printResult(c.App.Writer, priorHeight, result)

	return nil
}

func retargetAction(c *cli.Context) error {
	tSettings, err := newSettings(c)
	if err != nil {
		return err
	}

	logger := newLogger(c, tSettings)

	priorHeight, err := uint32Flag(c, "prior-height")
	if err != nil {
		return err
	}

	verifier, err := headerverifier.New(logger, tSettings)
	if err != nil {
		return err
	}

	fetcher, err := headerfetcher.New(logger, tSettings)
	if err != nil {
		return err
	}

	inputs, err := fetcher.GetRetargetInputs(c.Context, priorHeight, c.Int("count"))
	if err != nil {
		return err
	}

	req, err := inputs.Request()
	if err != nil {
		return err
	}

	result, err := verifier.VerifyWithRetarget(c.Context, req)
	if err != nil {
		return err
	}

	printResult(c.App.Writer, priorHeight, result)
	fmt.Fprintf(c.App.Writer, "next threshold: %s (%s)\n", result.NextThreshold.Hex(), compactString(result.NextThreshold))

	return nil
}

func adjustAction(c *cli.Context) error {
	tSettings, err := newSettings(c)
	if err != nil {
		return err
	}

	threshold, err := parseThreshold(c.String("threshold"))
	if err != nil {
		return err
	}

	start, err := uint32Flag(c, "start")
	if err != nil {
		return err
	}

	end, err := uint32Flag(c, "end")
	if err != nil {
		return err
	}

	difficulty, err := blockchain.NewDifficulty(newLogger(c, tSettings), tSettings.ChainCfgParams)
	if err != nil {
		return err
	}

	next := difficulty.CalcNextThreshold(threshold, start, end)

	normalized, err := difficulty.NormalizeThreshold(next)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "threshold:  %s\n", next.Dec())
	fmt.Fprintf(c.App.Writer, "bits:       %s\n", compactString(next))
	fmt.Fprintf(c.App.Writer, "normalized: %s\n", normalized.Dec())

	return nil
}

func decodeAction(c *cli.Context) error {
	nBits, err := model.NewNBitFromString(strings.TrimPrefix(c.String("bits"), "0x"))
	if err != nil {
		return err
	}

	target, err := nBits.Target()
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "target:     %s\n", target.Hex())
	fmt.Fprintf(c.App.Writer, "decimal:    %s\n", target.Dec())
	fmt.Fprintf(c.App.Writer, "difficulty: %s\n", nBits.CalculateDifficulty().Text('f', 8))
	fmt.Fprintf(c.App.Writer, "work:       %s\n", util.CalcWork(target).Dec())

	return nil
}

func parseThreshold(s string) (*uint256.Int, error) {
	var (
		threshold *uint256.Int
		err       error
	)

	if strings.HasPrefix(s, "0x") {
		threshold, err = uint256.FromHex(s)
	} else {
		threshold, err = uint256.FromDecimal(s)
	}

	if err != nil {
		return nil, errors.NewInvalidArgumentError("invalid threshold %q", s, err)
	}

	return threshold, nil
}

func compactString(threshold *uint256.Int) string {
	return model.NewNBitFromUint32(util.EncodeCompact(threshold)).String()
}

func printResult(w io.Writer, priorHeight uint32, result *headerverifier.Result) {
	for i := range result.Hashes {
		fmt.Fprintf(w, "%d %s\n", priorHeight+uint32(i)+1, utils.ReverseAndHexEncodeSlice(result.Hashes[i][:])) //nolint:gosec // bounded by the batch size
	}

	tip := result.Tip(priorHeight)
	fmt.Fprintf(w, "tip: %d %s work %s\n", tip.Height, utils.ReverseAndHexEncodeSlice(tip.Hash[:]), result.TotalWork.Dec())
}
