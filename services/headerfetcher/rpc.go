package headerfetcher

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"strconv"

	"github.com/bsv-blockchain/headerproof/errors"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// bitcoind RPC error codes that change how a failure is reported
const (
	rpcInvalidParameter    = -8
	rpcInvalidAddressOrKey = -5
	rpcInWarmup            = -28
)

// RPCRequest is a JSON-RPC 1.0 request as understood by bitcoind
type RPCRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      string        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

// RPCResponse represents the structure of the RPC response
type RPCResponse struct {
	Result jsoniter.RawMessage `json:"result"`
	Error  *RPCError           `json:"error"`
	ID     string              `json:"id"`
}

// RPCError represents the structure of the RPC error
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// call makes a single RPC round trip, mapping transport and node failures onto error codes
// so the caller can decide what to retry.
func (c *Client) call(ctx context.Context, method string, params ...interface{}) (jsoniter.RawMessage, error) {
	if params == nil {
		params = []interface{}{}
	}

	payload, err := json.Marshal(RPCRequest{
		JSONRPC: "1.0",
		ID:      strconv.FormatUint(c.requestID.Add(1), 10),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return nil, errors.NewProcessingError("[%s] failed to marshal request", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.NewInvalidArgumentError("[%s] failed to create request", method, err)
	}

	req.Header.Set("Content-Type", "application/json")

	if c.user != "" {
		req.SetBasicAuth(c.user, c.pass)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(ctx, method, err)
	}

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewNetworkError("[%s] failed to read response body", method, err)
	}

	// bitcoind answers RPC errors with a non 200 status and the error in the body
	var rpcResponse RPCResponse
	if err = json.Unmarshal(body, &rpcResponse); err != nil {
		switch {
		case resp.StatusCode == http.StatusUnauthorized:
			return nil, errors.NewServiceError("[%s] rpc authentication failed", method)
		case resp.StatusCode == http.StatusServiceUnavailable:
			return nil, errors.NewServiceUnavailableError("[%s] rpc service unavailable", method)
		case resp.StatusCode != http.StatusOK:
			return nil, errors.NewNetworkInvalidResponseError("[%s] unexpected status %d", method, resp.StatusCode)
		default:
			return nil, errors.NewNetworkInvalidResponseError("[%s] failed to unmarshal response", method, err)
		}
	}

	if rpcResponse.Error != nil {
		return nil, rpcError(method, rpcResponse.Error)
	}

	if len(rpcResponse.Result) == 0 || string(rpcResponse.Result) == "null" {
		return nil, errors.NewNetworkInvalidResponseError("[%s] empty result", method)
	}

	return rpcResponse.Result, nil
}

func transportError(ctx context.Context, method string, err error) error {
	if ctx.Err() != nil {
		return errors.NewContextCanceledError("[%s] request canceled", method, ctx.Err())
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return errors.NewNetworkTimeoutError("[%s] request timed out", method, err)
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return errors.NewNetworkConnectionRefusedError("[%s] could not connect to node", method, err)
	}

	return errors.NewNetworkError("[%s] request failed", method, err)
}

func rpcError(method string, rpcErr *RPCError) error {
	switch rpcErr.Code {
	case rpcInvalidParameter, rpcInvalidAddressOrKey:
		return errors.NewNotFoundError("[%s] rpc error %d: %s", method, rpcErr.Code, rpcErr.Message)
	case rpcInWarmup:
		return errors.NewServiceUnavailableError("[%s] rpc error %d: %s", method, rpcErr.Code, rpcErr.Message)
	default:
		return errors.NewServiceError("[%s] rpc error %d: %s", method, rpcErr.Code, rpcErr.Message)
	}
}
