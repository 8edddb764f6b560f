package certificate

import "strings"

// Placeholders stand in for missing dates so that two records lacking a date still collide.
const (
	NoIssueDate      = "no-issue-date"
	NoExpirationDate = "no-expiration-date"
)

// IdentityKey is the dedup fingerprint of a certificate. Dates are compared as the raw strings
// the model returned; "2024-01-01" and "2024-01-01T00:00:00Z" are different keys.
type IdentityKey struct {
	Identification string
	IssueDate      string
	ExpirationDate string
}

// NewIdentityKey builds the key for rec. It returns false when rec carries an error or has no
// identification after trimming.
func NewIdentityKey(rec Record) (IdentityKey, bool) {
	if rec.Failed() || rec.Identification == nil {
		return IdentityKey{}, false
	}
	id := strings.TrimSpace(*rec.Identification)
	if id == "" {
		return IdentityKey{}, false
	}
	key := IdentityKey{
		Identification: id,
		IssueDate:      NoIssueDate,
		ExpirationDate: NoExpirationDate,
	}
	if rec.IssueDate != nil {
		key.IssueDate = *rec.IssueDate
	}
	if rec.ExpirationDate != nil {
		key.ExpirationDate = *rec.ExpirationDate
	}
	return key, true
}

func (k IdentityKey) String() string {
	return k.Identification + "|" + k.IssueDate + "|" + k.ExpirationDate
}

// NormalizeIdentification keeps only the digits of raw.
func NormalizeIdentification(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
