package httpports

import (
	"context"
	"time"

	httpdomain "prinsight.ai/cli/internal/core/domain/http"
)

type HttpRequester interface {
	Do(ctx context.Context, endpoint httpdomain.BackendEndpoint, req httpdomain.RequestContext) (httpdomain.Response, error)
}

type AuthHeaderProvider interface {
	Headers(ctx context.Context) (map[string]string, error)
}

// RetryPolicy decides whether attempt (zero based) is retried and how long
// to wait first. status is 0 when err is a transport error.
type RetryPolicy interface {
	ShouldRetry(status int, err error, attempt int) (bool, time.Duration)
}
