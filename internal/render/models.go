package render

import "strings"

// Recipient is one spreadsheet row: the raw column values plus the
// designated name and email fields. Immutable after parsing.
type Recipient struct {
	Name   string            `json:"name"`
	Email  string            `json:"email,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Field returns the recipient's value for a column, empty if absent.
func (r Recipient) Field(column string) string {
	return r.Fields[column]
}

// BatchOptions are the constants applied identically to every recipient in
// a batch, plus the caller-supplied placeholder-to-column mappings.
type BatchOptions struct {
	Date          string            `json:"date,omitempty"`
	Course        string            `json:"course,omitempty"`
	Instructor    string            `json:"instructor,omitempty"`
	Organization  string            `json:"organization,omitempty"`
	FieldMappings map[string]string `json:"fieldMappings,omitempty"`
}

func (o BatchOptions) constant(key string) (string, bool) {
	switch strings.ToLower(key) {
	case "date":
		return o.Date, true
	case "course":
		return o.Course, true
	case "instructor":
		return o.Instructor, true
	case "organization":
		return o.Organization, true
	default:
		return "", false
	}
}
