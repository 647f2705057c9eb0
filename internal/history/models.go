package history

import (
	"time"

	"github.com/google/uuid"
)

// BatchRecord is the persisted summary of one generation batch.
type BatchRecord struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	TemplateName string    `json:"template_name"`
	TemplateKind string    `json:"template_kind"`
	Succeeded    int       `json:"succeeded"`
	Failed       int       `json:"failed"`
	CreatedAt    time.Time `json:"created_at"`

	Files []GeneratedFileRecord `json:"files,omitempty" gorm:"foreignKey:BatchID;constraint:OnDelete:CASCADE"`
}

// GeneratedFileRecord is one rendered certificate within a batch.
type GeneratedFileRecord struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	BatchID       uuid.UUID `json:"batch_id" gorm:"type:uuid;index"`
	RecipientName string    `json:"recipient_name"`
	Filename      string    `json:"filename"`
	Path          string    `json:"path"`
}
