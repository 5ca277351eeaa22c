package service

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	auditDomain "github.com/allisson/billvault/internal/audit/domain"
)

// DefaultSensitiveNames are the field names whose values are always masked.
// A name also matches with any prefix, so "key" covers "api_key" and "wrapped_key".
var DefaultSensitiveNames = []string{
	"password",
	"passwd",
	"pwd",
	"token",
	"secret",
	"key",
	"authorization",
	"credential",
}

type patternRedactor struct {
	pattern *regexp.Regexp
	names   []string
}

// NewRedactor builds a Redactor for the given field names. With no names it
// uses DefaultSensitiveNames.
func NewRedactor(names ...string) Redactor {
	if len(names) == 0 {
		names = DefaultSensitiveNames
	}

	quoted := make([]string, 0, len(names))
	lower := make([]string, 0, len(names))
	for _, name := range names {
		quoted = append(quoted, regexp.QuoteMeta(name))
		lower = append(lower, strings.ToLower(name))
	}

	// name, then an optional quote, ':' or '=' and an optional auth scheme.
	// A quoted value runs to its closing quote, or to the end when unclosed.
	// An unquoted value runs to the next whitespace or quote.
	pattern := regexp.MustCompile(
		`(?i)([\w-]*(?:` + strings.Join(quoted, "|") + `))` +
			`(["']?\s*[:=]\s*(?:(?:bearer|basic)\s+)?)` +
			`("[^"]*"?|'[^']*'?|[^"'\s]+)`,
	)

	return &patternRedactor{pattern: pattern, names: lower}
}

// Redact masks every sensitive value in detail. Input that is not valid UTF-8,
// or any panic while matching, yields the redaction-failed placeholder.
func (r *patternRedactor) Redact(detail string) (out string) {
	if detail == "" {
		return ""
	}
	if !utf8.ValidString(detail) {
		return auditDomain.RedactionFailedPlaceholder
	}

	defer func() {
		if recover() != nil {
			out = auditDomain.RedactionFailedPlaceholder
		}
	}()

	var b strings.Builder
	last := 0
	for _, m := range r.pattern.FindAllStringSubmatchIndex(detail, -1) {
		valueStart, valueEnd := m[6], m[7]
		b.WriteString(detail[last:valueStart])
		b.WriteString(maskValue(detail[valueStart:valueEnd]))
		last = valueEnd
	}
	b.WriteString(detail[last:])
	return b.String()
}

// maskValue replaces value with the mask, keeping its quotes.
func maskValue(value string) string {
	quote := value[0]
	if quote != '"' && quote != '\'' {
		return auditDomain.Mask
	}
	if len(value) > 1 && value[len(value)-1] == quote {
		return string(quote) + auditDomain.Mask + string(quote)
	}
	return string(quote) + auditDomain.Mask
}

// RedactMetadata masks values under sensitive keys and redacts string values.
// Nested maps and slices are walked.
func (r *patternRedactor) RedactMetadata(metadata map[string]any) map[string]any {
	if metadata == nil {
		return nil
	}

	out := make(map[string]any, len(metadata))
	for k, v := range metadata {
		if r.isSensitive(k) {
			out[k] = auditDomain.Mask
			continue
		}
		out[k] = r.redactValue(v)
	}
	return out
}

func (r *patternRedactor) redactValue(v any) any {
	switch value := v.(type) {
	case string:
		return r.Redact(value)
	case map[string]any:
		return r.RedactMetadata(value)
	case []any:
		items := make([]any, len(value))
		for i, item := range value {
			items[i] = r.redactValue(item)
		}
		return items
	case []string:
		items := make([]any, len(value))
		for i, item := range value {
			items[i] = r.Redact(item)
		}
		return items
	case fmt.Stringer:
		return r.Redact(value.String())
	default:
		return value
	}
}

func (r *patternRedactor) isSensitive(key string) bool {
	key = strings.ToLower(key)
	for _, name := range r.names {
		if strings.HasSuffix(key, name) {
			return true
		}
	}
	return false
}
