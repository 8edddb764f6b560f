package common

// Truncate cuts s to at most max runes and appends "..." when anything was dropped.
func Truncate(s string, max int) string {
	if max < 0 {
		max = 0
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i] + "..."
		}
		n++
	}
	return s
}
