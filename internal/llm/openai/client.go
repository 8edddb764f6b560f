package openai

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	goopenai "github.com/sashabaranov/go-openai"

	"github.com/joseph-ayodele/certificates-processor/constants"
	"github.com/joseph-ayodele/certificates-processor/internal/certificate"
	"github.com/joseph-ayodele/certificates-processor/internal/common"
	"github.com/joseph-ayodele/certificates-processor/internal/llm"
)

// Infer implements llm.CertificateInference with chat completions in JSON mode. Images are
// attached as data URLs; other formats go as text only.
func (c *Client) Infer(ctx context.Context, req llm.ExtractRequest) (certificate.Record, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	att, err := llm.LoadAttachment(req, constants.IMAGE)
	if err != nil {
		c.logger.Warn("llm.infer.attach_failed", "req_id", rid, "provider", "openai", "error", err)
		att = nil
	}

	c.logger.Info("llm.infer.start",
		"req_id", rid,
		"provider", "openai",
		"model", c.cfg.Model,
		"file", req.FilenameHint,
		"text_len", len(req.Text),
		"attached", att != nil,
	)

	user := goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleUser}
	prompt := llm.BuildUserPrompt(req, att != nil)
	if att != nil {
		user.MultiContent = []goopenai.ChatMessagePart{
			{Type: goopenai.ChatMessagePartTypeText, Text: prompt},
			{Type: goopenai.ChatMessagePartTypeImageURL, ImageURL: &goopenai.ChatMessageImageURL{
				URL:    att.DataURL(),
				Detail: goopenai.ImageURLDetailHigh,
			}},
		}
	} else {
		user.Content = prompt
	}

	resp, err := c.api.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		Temperature: c.cfg.Temperature,
		ResponseFormat: &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: llm.BuildSystemPrompt()},
			user,
		},
	})
	if err != nil {
		c.logger.Error("llm.infer.http_error",
			"req_id", rid, "provider", "openai", "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return certificate.Record{}, nil, common.InferenceError("openai chat completion", err)
	}
	if len(resp.Choices) == 0 {
		c.logger.Error("llm.infer.no_choices", "req_id", rid, "provider", "openai")
		return certificate.Record{}, nil, common.InferenceError("openai returned no choices", nil)
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	rec, raw, err := llm.ParseRecord(content, c.logger)
	if err != nil {
		c.logger.Error("llm.infer.parse_failed",
			"req_id", rid, "provider", "openai", "error", err, "content", content,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return certificate.Record{}, raw, err
	}

	c.logger.Info("llm.infer.ok",
		"req_id", rid,
		"provider", "openai",
		"identification", certificate.Str(rec.Identification),
		"issue_date", certificate.Str(rec.IssueDate),
		"expiration_date", certificate.Str(rec.ExpirationDate),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return rec, raw, nil
}
