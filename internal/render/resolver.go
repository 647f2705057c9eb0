package render

import (
	"strings"
	"time"
	"unicode"
)

// Resolve produces the substitution value for one placeholder of one
// recipient. Resolution is total: an unknown placeholder resolves to the
// empty string rather than failing the render.
//
// Order, first match wins:
//  1. an explicit field mapping pointing at a non-empty recipient column
//  2. the recipient name, case-transformed by the token's own casing
//  3. a batch constant (date, course, instructor, organization)
func Resolve(r Recipient, placeholder string, opts BatchOptions) string {
	if column, ok := opts.FieldMappings[placeholder]; ok {
		if v := strings.TrimSpace(r.Field(column)); v != "" {
			return v
		}
	}

	if strings.EqualFold(placeholder, "name") {
		return transformName(r.Name, placeholder)
	}

	if v, ok := opts.constant(placeholder); ok {
		if strings.EqualFold(placeholder, "date") && v == "" {
			return time.Now().Format("2006-01-02")
		}
		return v
	}

	return ""
}

// Values resolves every placeholder in the set against one recipient.
func Values(r Recipient, placeholders []string, opts BatchOptions) map[string]string {
	values := make(map[string]string, len(placeholders))
	for _, p := range placeholders {
		values[p] = Resolve(r, p, opts)
	}
	return values
}

// transformName applies the token's casing to the recipient name:
// NAME upper-cases, Name capitalizes the first letter, name passes through.
func transformName(name, token string) string {
	switch {
	case token == strings.ToUpper(token):
		return strings.ToUpper(name)
	case isTitleToken(token):
		return capitalizeFirst(name)
	default:
		return name
	}
}

func isTitleToken(token string) bool {
	if token == "" {
		return false
	}
	runes := []rune(token)
	return unicode.IsUpper(runes[0]) && strings.ToLower(string(runes[1:])) == string(runes[1:])
}

func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
