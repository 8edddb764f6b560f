package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/certificates-processor/internal/certificate"
	"github.com/joseph-ayodele/certificates-processor/internal/common"
)

func TestExtractJSONObject(t *testing.T) {
	got, err := ExtractJSONObject("Aquí está:\n```json\n{\"a\": {\"b\": 1}}\n```\nfin")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":{"b":1}}`, string(got))

	_, err = ExtractJSONObject("sin json")
	assert.ErrorIs(t, err, ErrNoJSONObject)
	_, err = ExtractJSONObject("} al revés {")
	assert.ErrorIs(t, err, ErrNoJSONObject)
}

func TestParseRecord(t *testing.T) {
	content := "```json\n" + `{
		"certificate_name": "SOPORTE VITAL BÁSICO",
		"name": "JUAN PÉREZ",
		"identification": "C.C. 52.030.365",
		"institution": "  ",
		"city": "None",
		"issue_date": "2021-12-03T00:00:00.000Z",
		"expiration_date": "03/12/2023",
		"hours": "48 horas",
		"institution_nit": 900123456,
		"confidence": 0.9
	}` + "\n```"

	rec, raw, err := ParseRecord(content, nil)
	require.NoError(t, err)

	assert.Equal(t, "SOPORTE VITAL BÁSICO", certificate.Str(rec.CertificateName))
	assert.Equal(t, "JUAN PÉREZ", certificate.Str(rec.ParticipantName))
	assert.Equal(t, "52030365", certificate.Str(rec.Identification))
	assert.Nil(t, rec.Institution)
	assert.Nil(t, rec.City)
	assert.Equal(t, "2021-12-03T00:00:00.000Z", certificate.Str(rec.IssueDate))
	assert.Equal(t, "2023-12-03T00:00:00.000Z", certificate.Str(rec.ExpirationDate))
	require.NotNil(t, rec.Hours)
	assert.Equal(t, 48.0, *rec.Hours)
	assert.Equal(t, "900123456", certificate.Str(rec.InstitutionNIT))
	assert.False(t, rec.Failed())

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Len(t, m, len(RecordFields), "every field present, unknown keys dropped")
	assert.NotContains(t, m, "confidence")
}

func TestParseRecord_Failures(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"no json", "I could not read the certificate"},
		{"broken json", `{"identification": "123",}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseRecord(tt.content, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrInference)
			assert.Equal(t, common.CodeInference, common.ErrorCode(err))
		})
	}
}

func TestNormalizeAndSanitizeJSON(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		field   string
		want    any
		dropped string
	}{
		{"identification without digits", `{"identification":"N/A C.C."}`, "identification", nil, "identification(invalid)"},
		{"identification as number", `{"identification":1234567}`, "identification", "1234567", ""},
		{"hours with comma", `{"hours":"12,5 h"}`, "hours", 12.5, ""},
		{"negative hours", `{"hours":-3}`, "hours", nil, "hours(invalid)"},
		{"unparseable date", `{"issue_date":"diciembre de 2021"}`, "issue_date", nil, "issue_date(invalid)"},
		{"iso date kept", `{"issue_date":"2021-12-03"}`, "issue_date", "2021-12-03", ""},
		{"bool text dropped", `{"level":true}`, "level", nil, "level(invalid)"},
		{"null word", `{"guidelines":"null"}`, "guidelines", nil, ""},
		{"unknown key", `{"foo":"bar"}`, "certificate_name", nil, "foo(unknown)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, dropped, err := NormalizeAndSanitizeJSON([]byte(tt.in), nil)
			require.NoError(t, err)
			var m map[string]any
			require.NoError(t, json.Unmarshal(out, &m))
			assert.Equal(t, tt.want, m[tt.field])
			if tt.dropped != "" {
				assert.Contains(t, dropped, tt.dropped)
			}
			require.NoError(t, ValidateRecordJSON(out))
		})
	}
}

func TestValidateRecordJSON_RejectsBadShapes(t *testing.T) {
	assert.Error(t, ValidateRecordJSON([]byte(`{"identification":"12a"}`)))
	assert.Error(t, ValidateRecordJSON([]byte(`{"hours":"ten"}`)))
	assert.Error(t, ValidateRecordJSON([]byte(`{"extra":1}`)))
	assert.NoError(t, ValidateRecordJSON([]byte(`{"identification":null,"hours":null}`)))
}
