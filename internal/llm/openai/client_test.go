package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/certificates-processor/internal/certificate"
	"github.com/joseph-ayodele/certificates-processor/internal/common"
	"github.com/joseph-ayodele/certificates-processor/internal/llm"
)

func chatServer(t *testing.T, content string, status int, seen *map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if seen != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "gpt-5-mini",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		})
	}))
}

func TestInfer_Text(t *testing.T) {
	var body map[string]any
	srv := chatServer(t, `{"identification":"52030365","issue_date":"2018-07-28T00:00:00.000Z","hours":16}`, http.StatusOK, &body)
	defer srv.Close()

	c := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL + "/v1"}, nil)
	rec, raw, err := c.Infer(context.Background(), llm.ExtractRequest{Text: "CERTIFICA QUE", FilenameHint: "a.pdf"})
	require.NoError(t, err)
	assert.Equal(t, "52030365", certificate.Str(rec.Identification))
	assert.Equal(t, "2018-07-28T00:00:00.000Z", certificate.Str(rec.IssueDate))
	require.NotNil(t, rec.Hours)
	assert.Equal(t, 16.0, *rec.Hours)
	assert.NotEmpty(t, raw)

	assert.Equal(t, "gpt-5-mini", body["model"])
	assert.Equal(t, map[string]any{"type": "json_object"}, body["response_format"])
	msgs := body["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Contains(t, msgs[1].(map[string]any)["content"], "CERTIFICA QUE")
}

func TestInfer_AttachesImage(t *testing.T) {
	img := filepath.Join(t.TempDir(), "c.jpg")
	require.NoError(t, os.WriteFile(img, []byte("jpg"), 0o644))

	var body map[string]any
	srv := chatServer(t, `{"identification":"1"}`, http.StatusOK, &body)
	defer srv.Close()

	c := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL + "/v1"}, nil)
	_, _, err := c.Infer(context.Background(), llm.ExtractRequest{FilePath: img, AttachDocument: true})
	require.NoError(t, err)

	user := body["messages"].([]any)[1].(map[string]any)
	parts := user["content"].([]any)
	require.Len(t, parts, 2)
	assert.Equal(t, "image_url", parts[1].(map[string]any)["type"])
	url := parts[1].(map[string]any)["image_url"].(map[string]any)["url"].(string)
	assert.Equal(t, "data:image/jpeg;base64,anBn", url)
}

func TestInfer_Errors(t *testing.T) {
	t.Run("http error", func(t *testing.T) {
		srv := chatServer(t, "", http.StatusInternalServerError, nil)
		defer srv.Close()
		c := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL + "/v1"}, nil)
		_, _, err := c.Infer(context.Background(), llm.ExtractRequest{Text: "x"})
		assert.ErrorIs(t, err, common.ErrInference)
	})
	t.Run("no json in reply", func(t *testing.T) {
		srv := chatServer(t, "lo siento", http.StatusOK, nil)
		defer srv.Close()
		c := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL + "/v1"}, nil)
		_, _, err := c.Infer(context.Background(), llm.ExtractRequest{Text: "x"})
		assert.ErrorIs(t, err, common.ErrInference)
	})
}
