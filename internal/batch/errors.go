package batch

import "errors"

// Batch-level precondition failures. These abort the batch before any
// recipient is rendered.
var (
	ErrNoRecipients       = errors.New("batch has no recipients")
	ErrTemplateUnreadable = errors.New("template cannot be read")
)

// ItemError records one recipient's failure. Item errors are collected,
// never propagated — a failing recipient does not stop the batch.
type ItemError struct {
	RecipientName string `json:"recipientName"`
	Message       string `json:"message"`
}
