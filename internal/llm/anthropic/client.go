// Package anthropic calls the Claude Messages API through the shared llm.PostJSON helper.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/certificates-processor/constants"
	"github.com/joseph-ayodele/certificates-processor/internal/certificate"
	"github.com/joseph-ayodele/certificates-processor/internal/common"
	"github.com/joseph-ayodele/certificates-processor/internal/llm"
)

const (
	apiVersion     = "2023-06-01"
	defaultBaseURL = "https://api.anthropic.com/v1"
	maxTokens      = 2048
)

type Config struct {
	APIKey      string // if empty, falls back to env ANTHROPIC_API_KEY
	BaseURL     string // default https://api.anthropic.com/v1
	Model       string
	Temperature float32
	Timeout     time.Duration
}

type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = "claude-3-5-sonnet-20241022"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}, logger: logger}
}

type request struct {
	Model       string    `json:"model"`
	System      string    `json:"system,omitempty"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature *float32  `json:"temperature,omitempty"`
}

type message struct {
	Role    string  `json:"role"`
	Content []block `json:"content"`
}

type block struct {
	Type   string  `json:"type"`
	Text   string  `json:"text,omitempty"`
	Source *source `json:"source,omitempty"`
}

type source struct {
	Type      string `json:"type"` // "base64"
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type response struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Infer implements llm.CertificateInference. PDFs go as document blocks and images as image
// blocks when attaching is enabled.
func (c *Client) Infer(ctx context.Context, req llm.ExtractRequest) (certificate.Record, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	att, err := llm.LoadAttachment(req, constants.PDF, constants.IMAGE)
	if err != nil {
		c.logger.Warn("llm.infer.attach_failed", "req_id", rid, "provider", "anthropic", "error", err)
		att = nil
	}
	c.logger.Info("llm.infer.start",
		"req_id", rid,
		"provider", "anthropic",
		"model", c.cfg.Model,
		"file", req.FilenameHint,
		"text_len", len(req.Text),
		"attached", att != nil,
	)

	var content []block
	if att != nil {
		kind := "image"
		if att.Format == constants.PDF {
			kind = "document"
		}
		content = append(content, block{Type: kind, Source: &source{Type: "base64", MediaType: att.MIMEType, Data: att.Base64()}})
	}
	content = append(content, block{Type: "text", Text: llm.BuildUserPrompt(req, att != nil)})

	body := request{
		Model:     c.cfg.Model,
		System:    llm.BuildSystemPrompt(),
		Messages:  []message{{Role: "user", Content: content}},
		MaxTokens: maxTokens,
	}
	if c.cfg.Temperature > 0 {
		t := c.cfg.Temperature
		body.Temperature = &t
	}
	headers := map[string]string{
		"x-api-key":         c.cfg.APIKey,
		"anthropic-version": apiVersion,
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/messages"
	raw, status, err := llm.PostJSON(ctx, c.http, llm.JSONCall{
		Provider: "anthropic",
		URL:      url,
		Headers:  headers,
		Body:     body,
	}, c.logger)
	if err != nil {
		c.logger.Error("llm.infer.http_error",
			"req_id", rid, "provider", "anthropic", "status", status, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return certificate.Record{}, raw, common.InferenceError("anthropic messages", err)
	}

	var resp response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return certificate.Record{}, raw, common.InferenceError("decode anthropic response", err)
	}
	if resp.Error != nil {
		return certificate.Record{}, raw, common.InferenceError("anthropic error", fmt.Errorf("%s: %s", resp.Error.Type, resp.Error.Message))
	}
	var text strings.Builder
	for _, b := range resp.Content {
		if b.Type == "text" {
			text.WriteString(b.Text)
		}
	}
	if text.Len() == 0 {
		return certificate.Record{}, raw, common.InferenceError("anthropic returned no text", nil)
	}

	rec, cleaned, err := llm.ParseRecord(text.String(), c.logger)
	if err != nil {
		c.logger.Error("llm.infer.parse_failed",
			"req_id", rid, "provider", "anthropic", "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return certificate.Record{}, cleaned, err
	}
	c.logger.Info("llm.infer.ok",
		"req_id", rid,
		"provider", "anthropic",
		"identification", certificate.Str(rec.Identification),
		"issue_date", certificate.Str(rec.IssueDate),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return rec, cleaned, nil
}
