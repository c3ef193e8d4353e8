package settings

import (
	"time"

	"github.com/bsv-blockchain/headerproof/chaincfg"
)

func NewSettings() *Settings {
	network := getString("network", "mainnet")

	params, err := chaincfg.GetChainParams(network)
	if err != nil {
		panic(err)
	}

	return &Settings{
		ClientName:     getString("clientName", "headerproof"),
		LogLevel:       getString("logLevel", "INFO"),
		LoggerType:     getString("logger", "zerolog"),
		Network:        network,
		ChainCfgParams: params,
		Verifier: VerifierSettings{
			HashConcurrency: getInt("verifier_hashConcurrency", 8),
			MaxBatchSize:    getInt("verifier_maxBatchSize", 2016),
		},
		RPC: RPCSettings{
			URL:          getURL("rpc_url", "http://localhost:8332"),
			User:         getString("rpc_user", ""),
			Pass:         getString("rpc_pass", ""),
			MaxRetries:   getInt("rpc_maxRetries", 3),
			RetryBackoff: time.Duration(getInt("rpc_retryBackoffMs", 500)) * time.Millisecond,
			Timeout:      time.Duration(getInt("rpc_timeoutSeconds", 30)) * time.Second,
			Concurrency:  getInt("rpc_concurrency", 4),
		},
	}
}
