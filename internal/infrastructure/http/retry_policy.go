package httpinfra

import (
	"net/http"
	"time"

	httpports "prinsight.ai/cli/internal/core/ports/http"
)

// BackoffRetry retries transport errors, 429 and 5xx responses with
// exponential backoff. Other statuses, including 404, are final.
type BackoffRetry struct {
	MaxAttempts int
	Base        time.Duration
	Max         time.Duration
}

// DefaultRetryPolicy makes up to three attempts
func DefaultRetryPolicy() BackoffRetry {
	return BackoffRetry{MaxAttempts: 3, Base: 200 * time.Millisecond, Max: 2 * time.Second}
}

func (p BackoffRetry) ShouldRetry(status int, err error, attempt int) (bool, time.Duration) {
	if attempt+1 >= p.MaxAttempts {
		return false, 0
	}
	if err == nil && status != http.StatusTooManyRequests && status < 500 {
		return false, 0
	}
	backoff := p.Base << attempt
	if p.Max > 0 && backoff > p.Max {
		backoff = p.Max
	}
	return true, backoff
}

var _ httpports.RetryPolicy = BackoffRetry{}
