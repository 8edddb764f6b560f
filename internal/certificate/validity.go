package certificate

import (
	"strings"
	"time"

	"github.com/joseph-ayodele/certificates-processor/constants"
)

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseDate parses the ISO-8601 shapes models return.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Validity classifies an expiration date relative to now.
func Validity(expiration *string, now time.Time) constants.ValidityStatus {
	if expiration == nil || strings.TrimSpace(*expiration) == "" {
		return constants.ValidityNoDate
	}
	exp, ok := ParseDate(*expiration)
	if !ok {
		return constants.ValidityInvalidDate
	}
	if exp.Before(now) {
		return constants.ValidityExpired
	}
	if exp.Sub(now) < (constants.ExpiringSoonWindowDays+1)*24*time.Hour {
		return constants.ValidityExpiringSoon
	}
	return constants.ValidityValid
}

// DisplayDate renders an ISO date as dd/mm/yyyy, or returns it unchanged when unparseable.
func DisplayDate(iso *string) string {
	if iso == nil {
		return ""
	}
	t, ok := ParseDate(*iso)
	if !ok {
		return *iso
	}
	return t.Format("02/01/2006")
}
