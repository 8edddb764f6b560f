// Package gemini runs certificate inference on Vertex AI Gemini models.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/vertexai/genai"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/certificates-processor/constants"
	"github.com/joseph-ayodele/certificates-processor/internal/certificate"
	"github.com/joseph-ayodele/certificates-processor/internal/common"
	"github.com/joseph-ayodele/certificates-processor/internal/llm"
)

type Config struct {
	Project     string
	Location    string // default us-central1
	Model       string // default gemini-1.5-flash
	Temperature float32
	Timeout     time.Duration
}

// Client connects lazily on the first call so that building a provider chain needs no
// credentials.
type Client struct {
	cfg    Config
	logger *slog.Logger

	once    sync.Once
	initErr error
	base    *genai.Client
	model   *genai.GenerativeModel
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Location == "" {
		cfg.Location = "us-central1"
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-flash"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{cfg: cfg, logger: logger}
}

func (c *Client) connect(ctx context.Context) error {
	c.once.Do(func() {
		if c.cfg.Project == "" {
			c.initErr = errors.New("gemini project is not configured")
			return
		}
		base, err := genai.NewClient(context.WithoutCancel(ctx), c.cfg.Project, c.cfg.Location)
		if err != nil {
			c.initErr = fmt.Errorf("genai.NewClient: %w", err)
			return
		}
		model := base.GenerativeModel(c.cfg.Model)
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(llm.BuildSystemPrompt())},
		}
		model.GenerationConfig = genai.GenerationConfig{
			ResponseMIMEType: "application/json",
			Temperature:      genai.Ptr(c.cfg.Temperature),
		}
		c.base, c.model = base, model
	})
	return c.initErr
}

// Infer implements llm.CertificateInference. Images and PDFs are sent as inline blobs when
// attaching is enabled.
func (c *Client) Infer(ctx context.Context, req llm.ExtractRequest) (certificate.Record, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	if err := c.connect(ctx); err != nil {
		return certificate.Record{}, nil, common.InferenceError("gemini client", err)
	}

	att, err := llm.LoadAttachment(req, constants.PDF, constants.IMAGE)
	if err != nil {
		c.logger.Warn("llm.infer.attach_failed", "req_id", rid, "provider", "gemini", "error", err)
		att = nil
	}
	c.logger.Info("llm.infer.start",
		"req_id", rid,
		"provider", "gemini",
		"model", c.cfg.Model,
		"file", req.FilenameHint,
		"text_len", len(req.Text),
		"attached", att != nil,
	)

	var parts []genai.Part
	if att != nil {
		parts = append(parts, genai.Blob{MIMEType: att.MIMEType, Data: att.Data})
	}
	parts = append(parts, genai.Text(llm.BuildUserPrompt(req, att != nil)))

	callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()
	resp, err := c.model.GenerateContent(callCtx, parts...)
	if err != nil {
		c.logger.Error("llm.infer.http_error",
			"req_id", rid, "provider", "gemini", "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return certificate.Record{}, nil, common.InferenceError("gemini generate content", err)
	}

	text := responseText(resp)
	if text == "" {
		return certificate.Record{}, nil, common.InferenceError("gemini returned no text", nil)
	}
	rec, raw, err := llm.ParseRecord(text, c.logger)
	if err != nil {
		c.logger.Error("llm.infer.parse_failed", "req_id", rid, "provider", "gemini", "error", err)
		return certificate.Record{}, raw, err
	}
	c.logger.Info("llm.infer.ok",
		"req_id", rid,
		"provider", "gemini",
		"identification", certificate.Str(rec.Identification),
		"issue_date", certificate.Str(rec.IssueDate),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return rec, raw, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return b.String()
}

// Close releases the underlying Vertex AI client, if one was opened.
func (c *Client) Close() error {
	if c.base != nil {
		return c.base.Close()
	}
	return nil
}
