package llm

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/joseph-ayodele/certificates-processor/internal/certificate"
	"github.com/joseph-ayodele/certificates-processor/internal/common"
)

// Throttled spaces calls to the wrapped inference by at least the configured interval.
type Throttled struct {
	next    CertificateInference
	limiter *rate.Limiter
}

func NewThrottled(next CertificateInference, minInterval time.Duration) *Throttled {
	limit := rate.Inf
	if minInterval > 0 {
		limit = rate.Every(minInterval)
	}
	return &Throttled{next: next, limiter: rate.NewLimiter(limit, 1)}
}

func (t *Throttled) Infer(ctx context.Context, req ExtractRequest) (certificate.Record, []byte, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return certificate.Record{}, nil, common.InferenceError("wait for inference slot", err)
	}
	return t.next.Infer(ctx, req)
}
