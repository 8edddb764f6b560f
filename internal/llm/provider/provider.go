// Package provider builds the configured inference stack: one provider per name, a fallback
// chain across them and a rate limit in front.
package provider

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/certificates-processor/internal/common"
	"github.com/joseph-ayodele/certificates-processor/internal/llm"
	"github.com/joseph-ayodele/certificates-processor/internal/llm/anthropic"
	"github.com/joseph-ayodele/certificates-processor/internal/llm/gemini"
	"github.com/joseph-ayodele/certificates-processor/internal/llm/openai"
)

// New returns the provider registered under name.
func New(name string, cfg common.LLMConfig, logger *slog.Logger) (llm.CertificateInference, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "openai":
		return openai.NewClient(openai.Config{
			APIKey:      cfg.OpenAI.APIKey,
			BaseURL:     cfg.OpenAI.BaseURL,
			Model:       cfg.OpenAI.Model,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		}, logger), nil
	case "anthropic":
		return anthropic.NewClient(anthropic.Config{
			APIKey:      cfg.Anthropic.APIKey,
			BaseURL:     cfg.Anthropic.BaseURL,
			Model:       cfg.Anthropic.Model,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		}, logger), nil
	case "gemini":
		return gemini.NewClient(gemini.Config{
			Project:     cfg.Gemini.Project,
			Location:    cfg.Gemini.Location,
			Model:       cfg.Gemini.Model,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		}, logger), nil
	default:
		return nil, common.NewAppError(common.CodeConfig, fmt.Sprintf("unknown inference provider %q", name), common.ErrInvalidInput)
	}
}

// Stack is the assembled inference plus the providers that hold resources.
type Stack struct {
	llm.CertificateInference
	Names   []string
	closers []io.Closer
}

// Close releases provider clients.
func (s *Stack) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Build assembles cfg.Provider followed by cfg.Fallbacks (duplicates dropped) into a fallback
// chain that accepts the first record with an issue date, throttled by cfg.MinInterval.
func Build(cfg common.LLMConfig, logger *slog.Logger) (*Stack, error) {
	if logger == nil {
		logger = slog.Default()
	}
	seen := map[string]struct{}{}
	var (
		names   []string
		links   []llm.Link
		closers []io.Closer
	)
	for _, n := range append([]string{cfg.Provider}, cfg.Fallbacks...) {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		inf, err := New(n, cfg, logger)
		if err != nil {
			return nil, err
		}
		if c, ok := inf.(io.Closer); ok {
			closers = append(closers, c)
		}
		names = append(names, n)
		links = append(links, llm.Link{Name: n, Inference: inf})
	}
	if len(links) == 0 {
		return nil, common.NewAppError(common.CodeConfig, "no inference provider configured", common.ErrInvalidInput)
	}

	var inf llm.CertificateInference = links[0].Inference
	if len(links) > 1 {
		inf = llm.NewFallbackChain(links, llm.HasIssueDate, logger)
	}
	logger.Info("llm.stack.ready", "providers", names, "min_interval", cfg.MinInterval.String())
	return &Stack{
		CertificateInference: llm.NewThrottled(inf, cfg.MinInterval),
		Names:                names,
		closers:              closers,
	}, nil
}
