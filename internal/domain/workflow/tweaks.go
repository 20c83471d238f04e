package workflow

import (
	"strings"
	"unicode"
)

// Variables holds the per-request values substituted into a tweaks template.
type Variables struct {
	OrganizationID string
	UserID         string
	SessionID      string
}

// SubstituteVariables returns a deep copy of the tweaks template with the
// placeholders {{organizationId}}, {{userId}} and {{sessionId}} replaced in
// every string value. The template itself is never mutated.
func SubstituteVariables(tweaks map[string]any, vars Variables) map[string]any {
	if tweaks == nil {
		return nil
	}
	out := make(map[string]any, len(tweaks))
	for key, value := range tweaks {
		out[key] = substituteValue(value, vars)
	}
	return out
}

func substituteValue(value any, vars Variables) any {
	switch v := value.(type) {
	case string:
		s := strings.ReplaceAll(v, "{{organizationId}}", vars.OrganizationID)
		s = strings.ReplaceAll(s, "{{userId}}", vars.UserID)
		s = strings.ReplaceAll(s, "{{sessionId}}", vars.SessionID)
		return s
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, nested := range v {
			out[key] = substituteValue(nested, vars)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, nested := range v {
			out[i] = substituteValue(nested, vars)
		}
		return out
	default:
		return value
	}
}

// Slugify normalizes a workflow name into a URL-safe slug.
func Slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteRune('-')
			lastDash = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}
