// Package headerfetcher reads raw block headers from a bitcoind compatible node over JSON-RPC.
//
// It supplies the inputs of header verification and is never called by the verifier itself.
package headerfetcher

import (
	"context"
	"encoding/hex"
	"net/http"
	"sync/atomic"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	safeconversion "github.com/bsv-blockchain/go-safe-conversion"
	"github.com/bsv-blockchain/headerproof/errors"
	"github.com/bsv-blockchain/headerproof/model"
	"github.com/bsv-blockchain/headerproof/settings"
	"github.com/bsv-blockchain/headerproof/ulogger"
	"github.com/bsv-blockchain/headerproof/util"
	"github.com/bsv-blockchain/headerproof/util/retry"
	"golang.org/x/sync/errgroup"
)

type Client struct {
	logger     ulogger.Logger
	settings   *settings.Settings
	url        string
	user       string
	pass       string
	httpClient *http.Client
	requestID  atomic.Uint64
}

// New returns a client for the node at tSettings.RPC.URL. Credentials in the URL are used
// when RPC.User is not set.
func New(logger ulogger.Logger, tSettings *settings.Settings) (*Client, error) {
	if tSettings == nil || tSettings.RPC.URL == nil {
		return nil, errors.NewConfigurationError("rpc url is required")
	}

	rpcURL := *tSettings.RPC.URL

	user, pass := tSettings.RPC.User, tSettings.RPC.Pass
	if user == "" && rpcURL.User != nil {
		user = rpcURL.User.Username()
		pass, _ = rpcURL.User.Password()
	}

	rpcURL.User = nil

	return &Client{
		logger:   logger,
		settings: tSettings,
		url:      rpcURL.String(),
		user:     user,
		pass:     pass,
		httpClient: &http.Client{
			Timeout: tSettings.RPC.Timeout,
		},
	}, nil
}

// callWithRetry retries transient failures: timeouts, refused connections and a node that is warming up.
func callWithRetry[T any](ctx context.Context, c *Client, method string, f func() (T, error)) (T, error) {
	return retry.Retry(ctx, c.logger, f,
		retry.WithRetryCount(c.settings.RPC.MaxRetries),
		retry.WithBackoffDurationType(c.settings.RPC.RetryBackoff),
		retry.WithMessage(method),
		retry.WithShouldRetry(errors.IsRetryableError),
	)
}

// GetBlockHash returns the hash of the block at height on the node's active chain.
func (c *Client) GetBlockHash(ctx context.Context, height uint32) (*chainhash.Hash, error) {
	return callWithRetry(ctx, c, "getblockhash", func() (*chainhash.Hash, error) {
		result, err := c.call(ctx, "getblockhash", height)
		if err != nil {
			return nil, err
		}

		var hashStr string
		if err = json.Unmarshal(result, &hashStr); err != nil {
			return nil, errors.NewNetworkInvalidResponseError("[getblockhash] failed to unmarshal block hash", err)
		}

		hash, err := chainhash.NewHashFromStr(hashStr)
		if err != nil {
			return nil, errors.NewNetworkInvalidResponseError("[getblockhash] invalid block hash %q", hashStr, err)
		}

		return hash, nil
	})
}

// GetHeaderByHash returns the raw 80 byte header of the block with the given hash.
func (c *Client) GetHeaderByHash(ctx context.Context, hash *chainhash.Hash) ([]byte, error) {
	headerBytes, err := callWithRetry(ctx, c, "getblockheader", func() ([]byte, error) {
		result, err := c.call(ctx, "getblockheader", hash.String(), false)
		if err != nil {
			return nil, err
		}

		var headerHex string
		if err = json.Unmarshal(result, &headerHex); err != nil {
			return nil, errors.NewNetworkInvalidResponseError("[getblockheader] failed to unmarshal raw block header", err)
		}

		b, err := hex.DecodeString(headerHex)
		if err != nil {
			return nil, errors.NewNetworkInvalidResponseError("[getblockheader] raw block header is not hex", err)
		}

		if len(b) != model.BlockHeaderSize {
			return nil, errors.NewNetworkInvalidResponseError("[getblockheader] raw block header is %d bytes", len(b))
		}

		return b, nil
	})
	if err != nil {
		return nil, err
	}

	// a node answering for a different block is as bad as no answer
	if got := chainhash.DoubleHashH(headerBytes); !got.IsEqual(hash) {
		return nil, errors.NewNetworkInvalidResponseError("[getblockheader] requested %s, got header %s", hash.String(), got.String())
	}

	return headerBytes, nil
}

// GetHeaderByHeight returns the raw header at height on the node's active chain.
func (c *Client) GetHeaderByHeight(ctx context.Context, height uint32) ([]byte, error) {
	hash, err := c.GetBlockHash(ctx, height)
	if err != nil {
		return nil, err
	}

	return c.GetHeaderByHash(ctx, hash)
}

// GetHeaders returns count consecutive raw headers starting at startHeight, in ascending height order.
func (c *Client) GetHeaders(ctx context.Context, startHeight uint32, count int) ([][]byte, error) {
	if count <= 0 {
		return nil, errors.NewInvalidArgumentError("count must be positive, got %d", count)
	}

	count32, err := safeconversion.IntToUint32(count)
	if err != nil {
		return nil, errors.NewInvalidArgumentError("invalid count %d", count, err)
	}

	if startHeight > ^uint32(0)-count32+1 {
		return nil, errors.NewInvalidArgumentError("%d headers from height %d overflow the height range", count, startHeight)
	}

	c.logger.Debugf("[GetHeaders] fetching %d headers from height %d", count, startHeight)

	headers := make([][]byte, count)

	g, gCtx := errgroup.WithContext(ctx)
	util.SafeSetLimit(g, c.settings.RPC.Concurrency)

	for i := range headers {
		g.Go(func() error {
			//nolint:gosec // i < count which fits in a uint32
			header, err := c.GetHeaderByHeight(gCtx, startHeight+uint32(i))
			if err != nil {
				return err
			}

			headers[i] = header

			return nil
		})
	}

	if err = g.Wait(); err != nil {
		return nil, err
	}

	return headers, nil
}
