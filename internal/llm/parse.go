package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/certificates-processor/internal/certificate"
	"github.com/joseph-ayodele/certificates-processor/internal/common"
)

var ErrNoJSONObject = errors.New("no JSON object in model response")

// ExtractJSONObject returns the text between the first '{' and the last '}'.
func ExtractJSONObject(content string) ([]byte, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end < start {
		return nil, ErrNoJSONObject
	}
	return []byte(content[start : end+1]), nil
}

// ParseRecord turns a model reply into a certificate record: locate the JSON object, sanitize
// it, validate it against the certificate schema and decode it. It returns the sanitized JSON.
// All failures are INFERENCE_ERROR.
func ParseRecord(content string, logger *slog.Logger) (certificate.Record, []byte, error) {
	raw, err := ExtractJSONObject(content)
	if err != nil {
		return certificate.Record{}, nil, common.InferenceError("parse model response", err)
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return certificate.Record{}, raw, common.InferenceError("decode model json", err)
	}

	cleaned, _, err := NormalizeAndSanitizeJSON(raw, logger)
	if err != nil {
		return certificate.Record{}, raw, common.InferenceError("sanitize model json", err)
	}
	if err := ValidateRecordJSON(cleaned); err != nil {
		return certificate.Record{}, cleaned, common.InferenceError("validate model json", err)
	}

	var rec certificate.Record
	if err := json.Unmarshal(cleaned, &rec); err != nil {
		return certificate.Record{}, cleaned, common.InferenceError("decode certificate record", fmt.Errorf("unmarshal: %w", err))
	}
	return rec, cleaned, nil
}
