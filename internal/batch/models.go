package batch

import (
	"github.com/google/uuid"

	"certhub/certificate-portal/certificate-portal-backend/internal/render"
)

// GeneratedFile describes one successfully rendered certificate.
type GeneratedFile struct {
	Name     string `json:"name"`
	Filename string `json:"filename"`
	Path     string `json:"path"`
}

// GenerateRequest is one batch: one template, one recipient list, one
// options set.
type GenerateRequest struct {
	TemplatePath string
	Recipients   []render.Recipient
	Options      render.BatchOptions

	// ConvertToPDF runs rendered decks through the external converter.
	ConvertToPDF bool
	// Overlay styles the PDF overlay renderer; zero value uses defaults.
	Overlay render.OverlayOptions
}

// Result reports every attempted recipient: the generated files plus the
// per-recipient error detail, never a bare partial success.
type Result struct {
	BatchID      uuid.UUID       `json:"batchId"`
	TemplateName string          `json:"templateName"`
	Placeholders []string        `json:"placeholders"`
	Files        []GeneratedFile `json:"files"`
	Errors       []ItemError     `json:"errors"`
	Succeeded    int             `json:"succeeded"`
	Failed       int             `json:"failed"`
}

// EmailItem is one certificate delivery.
type EmailItem struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	AttachmentPath string `json:"attachmentPath"`
}

// EmailRequest asks for generated certificates to be mailed out.
type EmailRequest struct {
	Subject string      `json:"subject"`
	Course  string      `json:"course"`
	Items   []EmailItem `json:"items"`
}

// DeliveryReport summarizes an email run.
type DeliveryReport struct {
	Sent   int         `json:"sent"`
	Failed int         `json:"failed"`
	Errors []ItemError `json:"errors"`
}
