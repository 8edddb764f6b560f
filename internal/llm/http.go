package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/certificates-processor/internal/common"
)

const (
	// maxResponseBytes caps how much of a provider response is read.
	maxResponseBytes  = 8 << 20
	errorSnippetRunes = 512
)

// JSONCall is one POST of a JSON body to a model provider.
type JSONCall struct {
	Provider string
	URL      string
	Headers  map[string]string
	Body     any
}

// StatusError is a non-2xx provider response.
type StatusError struct {
	Provider string
	Status   int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Provider, e.Status, e.Body)
}

// PostJSON sends call and returns the raw response body and status. Requests are logged with the
// provider, host and the batch run and folder found in ctx; headers are never logged.
func PostJSON(ctx context.Context, client *http.Client, call JSONCall, logger *slog.Logger) ([]byte, int, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if client == nil {
		client = &http.Client{Timeout: 45 * time.Second}
	}

	reqID := uuid.New().String()
	log := logger.With(
		"req_id", reqID,
		"provider", call.Provider,
		"run_id", common.RunIDFromContext(ctx),
		"folder", common.FolderFromContext(ctx),
	)
	start := time.Now()

	bs, err := json.Marshal(call.Body)
	if err != nil {
		log.Error("llm.http.encode_error", "error", err)
		return nil, 0, fmt.Errorf("encode json: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, call.URL, bytes.NewReader(bs))
	if err != nil {
		log.Error("llm.http.build_request_error", "error", err)
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", reqID)
	for k, v := range call.Headers {
		req.Header.Set(k, v)
	}

	log.Info("llm.http.request", "host", hostOf(call.URL), "content_length", len(bs))

	resp, err := client.Do(req)
	if err != nil {
		log.Error("llm.http.send_error", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, 0, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Warn("llm.http.response_body_close_error", "error", err)
		}
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		log.Error("llm.http.read_error", "status", resp.StatusCode, "error", err)
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	log.Info("llm.http.response",
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		return raw, resp.StatusCode, &StatusError{
			Provider: call.Provider,
			Status:   resp.StatusCode,
			Body:     common.Truncate(string(raw), errorSnippetRunes),
		}
	}
	return raw, resp.StatusCode, nil
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Host
}
