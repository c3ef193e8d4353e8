package settings

import (
	"net/url"
	"time"

	"github.com/bsv-blockchain/headerproof/chaincfg"
)

type VerifierSettings struct {
	// HashConcurrency bounds the goroutines hashing a batch, 1 hashes sequentially
	HashConcurrency int
	MaxBatchSize    int
}

type RPCSettings struct {
	URL          *url.URL
	User         string
	Pass         string
	MaxRetries   int
	RetryBackoff time.Duration
	Timeout      time.Duration
	// Concurrency bounds the requests in flight when fetching a range of headers
	Concurrency  int
}

type Settings struct {
	ClientName     string
	LogLevel       string
	LoggerType     string
	Network        string
	ChainCfgParams *chaincfg.Params
	Verifier       VerifierSettings
	RPC            RPCSettings
}
