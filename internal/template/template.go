package template

import (
	"errors"
	"path/filepath"
	"strings"
)

// Kind discriminates how a template is rendered
type Kind string

const (
	// KindDeck is a slide deck whose text runs carry placeholder tokens
	KindDeck Kind = "deck"
	// KindPDF is a fixed-layout document rendered by text overlay
	KindPDF Kind = "pdf"
)

var ErrUnsupportedFormat = errors.New("unsupported template format")

// Template is a read-only rendering input
type Template struct {
	Path string `json:"path"`
	Kind Kind   `json:"kind"`
}

// New builds a Template from a file path, inferring the kind from
// the extension.
func New(path string) (Template, error) {
	kind, err := DetectKind(path)
	if err != nil {
		return Template{}, err
	}
	return Template{Path: path, Kind: kind}, nil
}

// DetectKind maps a file extension to a template kind.
func DetectKind(path string) (Kind, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pptx":
		return KindDeck, nil
	case ".pdf":
		return KindPDF, nil
	default:
		return "", ErrUnsupportedFormat
	}
}

// Name returns the template's base file name.
func (t Template) Name() string {
	return filepath.Base(t.Path)
}
