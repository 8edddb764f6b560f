package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/certificates-processor/internal/certificate"
	"github.com/joseph-ayodele/certificates-processor/internal/common"
)

// Link is one named provider in a FallbackChain.
type Link struct {
	Name      string
	Inference CertificateInference
}

// Accept decides whether a successful record ends the chain.
type Accept func(certificate.Record) bool

// HasIssueDate accepts records with a non-empty issue date.
func HasIssueDate(rec certificate.Record) bool {
	return certificate.Str(rec.IssueDate) != ""
}

// FallbackChain tries providers in order. The first record accepted by Accept wins; when none is
// accepted the first successful record is returned; when every provider fails the errors are
// joined into one INFERENCE_ERROR.
type FallbackChain struct {
	links  []Link
	accept Accept
	logger *slog.Logger
}

func NewFallbackChain(links []Link, accept Accept, logger *slog.Logger) *FallbackChain {
	if accept == nil {
		accept = HasIssueDate
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FallbackChain{links: links, accept: accept, logger: logger}
}

func (c *FallbackChain) Infer(ctx context.Context, req ExtractRequest) (certificate.Record, []byte, error) {
	if len(c.links) == 0 {
		return certificate.Record{}, nil, common.InferenceError("no inference provider configured", nil)
	}

	var (
		first    *certificate.Record
		firstRaw []byte
		errs     []error
	)
	for i, link := range c.links {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		start := time.Now()
		rec, raw, err := link.Inference.Infer(ctx, req)
		if err == nil && rec.Failed() {
			err = errors.New(certificate.Str(rec.MessageError))
		}
		if err != nil {
			c.logger.Warn("llm.chain.provider_failed",
				"provider", link.Name, "position", i, "file", req.FilenameHint,
				"error", err, "elapsed_ms", time.Since(start).Milliseconds())
			errs = append(errs, fmt.Errorf("%s: %w", link.Name, err))
			continue
		}
		if c.accept(rec) {
			if i > 0 {
				c.logger.Info("llm.chain.fallback_used", "provider", link.Name, "position", i, "file", req.FilenameHint)
			}
			return rec, raw, nil
		}
		c.logger.Info("llm.chain.not_accepted", "provider", link.Name, "position", i, "file", req.FilenameHint)
		if first == nil {
			r := rec
			first, firstRaw = &r, raw
		}
	}

	if first != nil {
		return *first, firstRaw, nil
	}
	return certificate.Record{}, nil, common.InferenceError("all inference providers failed", errors.Join(errs...))
}
