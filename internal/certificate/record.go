package certificate

import "strings"

// Record is the structured certificate the inference step returns. Every field is optional;
// a nil pointer means the model could not determine it.
type Record struct {
	CertificateName    *string  `json:"certificate_name"`
	ParticipantName    *string  `json:"participant_name"`
	Identification     *string  `json:"identification"`
	Institution        *string  `json:"institution"`
	City               *string  `json:"city"`
	IssueDate          *string  `json:"issue_date"`
	ExpirationDate     *string  `json:"expiration_date"`
	Hours              *float64 `json:"hours"`
	TargetAudience     *string  `json:"target_audience"`
	SpecializationArea *string  `json:"specialization_area"`
	Level              *string  `json:"level"`
	Guidelines         *string  `json:"guidelines"`
	Instructor         *string  `json:"instructor"`
	InstitutionNIT     *string  `json:"institution_nit"`
	MessageError       *string  `json:"message_error"`

	// Transcription is the extracted text the record was inferred from. Never sent by the model.
	Transcription string `json:"-"`
}

// Failed reports whether the inference step flagged this record as an error.
func (r Record) Failed() bool {
	return r.MessageError != nil && strings.TrimSpace(*r.MessageError) != ""
}

// Str dereferences an optional field, returning "" for nil.
func Str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// Ptr returns a pointer to s, or nil when s is blank.
func Ptr(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}
