package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joseph-ayodele/certificates-processor/internal/certificate"
)

var (
	reNumber = regexp.MustCompile(`\d+(?:[.,]\d+)?`)

	// day-first layouts seen on Colombian certificates
	looseDateLayouts = []string{"02/01/2006", "2/1/2006", "02-01-2006", "2-1-2006", "2006/01/02", "02.01.2006"}

	nullWords = map[string]struct{}{"null": {}, "none": {}, "n/a": {}, "na": {}, "nil": {}, "-": {}}
)

// NormalizeAndSanitizeJSON
// - Renames known synonyms (name -> participant_name)
// - Removes unknown keys and fills absent ones with null
// - Turns empty and placeholder strings into null
// - Keeps only digits in identification
// - Coerces hours to a number and dates to ISO-8601
func NormalizeAndSanitizeJSON(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	dropped := make([]string, 0, 4)
	renamed := func(from, to string) {
		if v, ok := m[from]; ok {
			if cur, exists := m[to]; !exists || cur == nil {
				m[to] = v
			}
			delete(m, from)
			dropped = append(dropped, from+"->"+to)
		}
	}
	renamed("name", "participant_name")
	renamed("nit", "institution_nit")

	allowed := map[string]struct{}{}
	for _, k := range RecordFields {
		allowed[k] = struct{}{}
	}
	for k := range maps.Clone(m) {
		if _, ok := allowed[k]; !ok {
			delete(m, k)
			dropped = append(dropped, k+"(unknown)")
		}
	}

	for _, k := range RecordFields {
		v, present := m[k]
		if !present || v == nil {
			m[k] = nil
			continue
		}
		var (
			out any
			ok  bool
		)
		switch k {
		case "identification":
			out, ok = sanitizeIdentification(v)
		case "hours":
			out, ok = sanitizeHours(v)
		case "issue_date", "expiration_date":
			out, ok = sanitizeDate(v)
		default:
			out, ok = sanitizeText(v)
		}
		if !ok {
			dropped = append(dropped, k+"(invalid)")
		}
		m[k] = out
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(dropped) > 0 {
		logger.Debug("llm.infer.sanitize", "dropped", dropped)
	}
	return out, dropped, nil
}

// sanitizeText returns the cleaned value and false when a non-empty value had to be discarded.
func sanitizeText(v any) (any, bool) {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil, true
		}
		if _, isNull := nullWords[strings.ToLower(s)]; isNull {
			return nil, true
		}
		return s, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	default:
		return nil, false
	}
}

func sanitizeIdentification(v any) (any, bool) {
	s, ok := sanitizeText(v)
	if s == nil {
		return nil, ok
	}
	digits := certificate.NormalizeIdentification(s.(string))
	if digits == "" {
		return nil, false
	}
	return digits, true
}

func sanitizeHours(v any) (any, bool) {
	switch t := v.(type) {
	case float64:
		if t < 0 {
			return nil, false
		}
		return t, true
	case string:
		if _, isNull := nullWords[strings.ToLower(strings.TrimSpace(t))]; isNull || strings.TrimSpace(t) == "" {
			return nil, true
		}
		n := reNumber.FindString(t)
		if n == "" {
			return nil, false
		}
		f, err := strconv.ParseFloat(strings.Replace(n, ",", ".", 1), 64)
		if err != nil {
			return nil, false
		}
		return f, true
	default:
		return nil, false
	}
}

func sanitizeDate(v any) (any, bool) {
	s, ok := sanitizeText(v)
	if s == nil {
		return nil, ok
	}
	str := s.(string)
	if _, ok := certificate.ParseDate(str); ok {
		return str, true
	}
	for _, layout := range looseDateLayouts {
		if t, err := time.Parse(layout, str); err == nil {
			return t.Format("2006-01-02T15:04:05.000Z"), true
		}
	}
	return nil, false
}
