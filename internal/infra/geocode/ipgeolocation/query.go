package ipgeolocation

import (
	"regexp"
	"strings"
)

var (
	zipPattern       = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
	cityStatePattern = regexp.MustCompile(`^[a-zA-Z\s]+,\s*[a-zA-Z]{2}$`)
	cityNamePattern  = regexp.MustCompile(`^[a-zA-Z\s]+,\s*[a-zA-Z\s]+$`)
)

var usSuffixes = map[string]struct{}{
	"us":            {},
	"usa":           {},
	"united states": {},
}

// FormatQuery biases ambiguous US-style inputs towards the United States: ZIP codes,
// "City, ST" and "City, State" get ", US" appended. Anything else is passed through.
func FormatQuery(input string) string {
	q := strings.Join(strings.Fields(input), " ")
	switch {
	case q == "":
		return ""
	case zipPattern.MatchString(q):
		return q + ", US"
	case strings.Contains(q, ",") && endsWithUS(q):
		return q
	case cityStatePattern.MatchString(q):
		return q + ", US"
	case cityNamePattern.MatchString(q):
		return q + ", US"
	}
	return q
}

func endsWithUS(q string) bool {
	parts := strings.Split(q, ",")
	last := strings.ToLower(strings.TrimSpace(parts[len(parts)-1]))
	_, ok := usSuffixes[last]
	return ok
}
