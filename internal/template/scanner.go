package template

import (
	"archive/zip"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
)

var (
	tokenPattern   = regexp.MustCompile(`\{\{([^}]+)\}\}`)
	slidePartName  = regexp.MustCompile(`^ppt/(slides|notesSlides)/[^/]+\.xml$`)
	textRunPattern = regexp.MustCompile(`(?s)<a:t(?: [^>]*)?>(.*?)</a:t>`)
)

// FallbackPlaceholders is the assumed placeholder set for fixed-layout
// documents whose text cannot be tokenized.
func FallbackPlaceholders() []string {
	return []string{"name", "course", "date", "instructor", "organization"}
}

// ScanText returns the distinct placeholder names found in the given text
// containers. Names are trimmed of inner whitespace, case is preserved, and
// empty bodies are dropped.
func ScanText(texts ...string) []string {
	seen := make(map[string]struct{})
	for _, text := range texts {
		for _, m := range tokenPattern.FindAllStringSubmatch(text, -1) {
			name := strings.TrimSpace(m[1])
			if name == "" {
				continue
			}
			seen[name] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Scan discovers the placeholders of a template. Decks are opened and their
// slide text inspected; fixed-layout documents get the fallback set.
func Scan(t Template) ([]string, error) {
	switch t.Kind {
	case KindDeck:
		texts, err := DeckTexts(t.Path)
		if err != nil {
			return nil, err
		}
		return ScanText(texts...), nil
	case KindPDF:
		return FallbackPlaceholders(), nil
	default:
		return nil, ErrUnsupportedFormat
	}
}

// DeckTexts extracts the raw text run contents of every slide part in a
// pptx archive.
func DeckTexts(path string) ([]string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open deck %s: %w", path, err)
	}
	defer r.Close()

	var texts []string
	for _, f := range r.File {
		if !slidePartName.MatchString(f.Name) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open slide part %s: %w", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read slide part %s: %w", f.Name, err)
		}
		for _, m := range textRunPattern.FindAllStringSubmatch(string(data), -1) {
			texts = append(texts, m[1])
		}
	}
	return texts, nil
}
