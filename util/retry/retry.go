package retry

import (
	"context"
	"time"

	"github.com/bsv-blockchain/headerproof/errors"
	"github.com/bsv-blockchain/headerproof/ulogger"
)

type Options struct {
	RetryCount          int
	BackoffMultiplier   int
	BackoffDurationType time.Duration
	Message             string
	ShouldRetry         func(error) bool
}

type Option func(*Options)

func WithRetryCount(retryCount int) Option {
	return func(o *Options) {
		o.RetryCount = retryCount
	}
}

func WithBackoffMultiplier(backoffMultiplier int) Option {
	return func(o *Options) {
		o.BackoffMultiplier = backoffMultiplier
	}
}

func WithBackoffDurationType(backoffDurationType time.Duration) Option {
	return func(o *Options) {
		o.BackoffDurationType = backoffDurationType
	}
}

func WithMessage(message string) Option {
	return func(o *Options) {
		o.Message = message
	}
}

// WithShouldRetry stops retrying as soon as fn returns false for an error.
func WithShouldRetry(fn func(error) bool) Option {
	return func(o *Options) {
		o.ShouldRetry = fn
	}
}

// Retry calls f until it succeeds, the attempts are used up, the error is not retryable or ctx is done.
// Parameters:
// ctx: The context that will be used to control the retry operation
// logger: The logger that will be used to log messages
// f: The function that will be retried
// opts: retry count (default 3), backoff multiplier (default 2), backoff duration type (default 1s), message and retry filter
// Returns:
// T: The result of the last call to f
// error: The error returned by the last call to f, or a context canceled error
func Retry[T any](ctx context.Context, logger ulogger.Logger, f func() (T, error), opts ...Option) (T, error) {
	options := &Options{
		RetryCount:          3,
		BackoffMultiplier:   2,
		BackoffDurationType: time.Second,
		Message:             "retrying",
	}

	for _, opt := range opts {
		opt(options)
	}

	if options.RetryCount < 1 {
		options.RetryCount = 1
	}

	var (
		result T
		err    error
	)

	for i := 0; i < options.RetryCount; i++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, errors.NewContextCanceledError("[Retry] %s: context done", options.Message, ctxErr)
		}

		result, err = f()
		if err == nil {
			return result, nil
		}

		if options.ShouldRetry != nil && !options.ShouldRetry(err) {
			return result, err
		}

		if i == options.RetryCount-1 {
			break
		}

		logger.Warnf("[Retry] %s (attempt %d of %d): %v", options.Message, i+1, options.RetryCount, err)

		if sleepErr := BackoffAndSleep(ctx, i, options.BackoffMultiplier, options.BackoffDurationType); sleepErr != nil {
			return result, errors.NewContextCanceledError("[Retry] %s: context done during backoff", options.Message, sleepErr)
		}
	}

	return result, err
}
