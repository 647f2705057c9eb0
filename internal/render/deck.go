package render

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

var (
	deckSlidePart = regexp.MustCompile(`^ppt/(slides|notesSlides)/[^/]+\.xml$`)
	deckTextRun   = regexp.MustCompile(`(?s)(<a:t(?: [^>]*)?>)(.*?)(</a:t>)`)
)

// DeckRenderer substitutes placeholder tokens inside the text runs of a
// pptx template and writes the result as a new deck. Only textual content
// is touched; styling, positioning and non-text parts are copied through
// byte-identical.
type DeckRenderer struct {
	logger *zap.Logger
}

func NewDeckRenderer(logger *zap.Logger) *DeckRenderer {
	return &DeckRenderer{logger: logger}
}

// Render writes a copy of templatePath to outputPath with every occurrence
// of {{token}} replaced by values[token]. Tokens resolved to nothing are
// replaced with the empty string. The template file is never mutated.
func (d *DeckRenderer) Render(ctx context.Context, templatePath, outputPath string, values map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	reader, err := zip.OpenReader(templatePath)
	if err != nil {
		return fmt.Errorf("failed to open deck template: %w", err)
	}
	defer reader.Close()

	subs := compileSubstitutions(values)

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output deck: %w", err)
	}
	writer := zip.NewWriter(out)

	replaced := 0
	for _, part := range reader.File {
		if err := func() error {
			rc, err := part.Open()
			if err != nil {
				return fmt.Errorf("failed to open part %s: %w", part.Name, err)
			}
			defer rc.Close()

			header := part.FileHeader
			w, err := writer.CreateHeader(&header)
			if err != nil {
				return fmt.Errorf("failed to write part %s: %w", part.Name, err)
			}

			if !deckSlidePart.MatchString(part.Name) {
				_, err = io.Copy(w, rc)
				return err
			}

			data, err := io.ReadAll(rc)
			if err != nil {
				return fmt.Errorf("failed to read slide part %s: %w", part.Name, err)
			}
			rewritten, n := substituteTextRuns(string(data), subs)
			replaced += n
			_, err = io.WriteString(w, rewritten)
			return err
		}(); err != nil {
			writer.Close()
			out.Close()
			os.Remove(outputPath)
			return err
		}
	}

	if err := writer.Close(); err != nil {
		out.Close()
		os.Remove(outputPath)
		return fmt.Errorf("failed to finalize output deck: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(outputPath)
		return fmt.Errorf("failed to write output deck: %w", err)
	}

	d.logger.Debug("deck rendered",
		zap.String("template", templatePath),
		zap.String("output", outputPath),
		zap.Int("replacements", replaced))
	return nil
}

type substitution struct {
	pattern *regexp.Regexp
	value   string
}

// compileSubstitutions builds one matcher per token. Tokens are matched
// with optional whitespace inside the braces, the same forms the scanner
// trims and reports.
func compileSubstitutions(values map[string]string) []substitution {
	subs := make([]substitution, 0, len(values))
	for token, value := range values {
		subs = append(subs, substitution{
			pattern: regexp.MustCompile(`\{\{\s*` + regexp.QuoteMeta(token) + `\s*\}\}`),
			value:   escapeXML(value),
		})
	}
	return subs
}

// substituteTextRuns rewrites the <a:t> runs of a slide part, leaving the
// surrounding markup untouched. Returns the rewritten XML and the number
// of token occurrences replaced.
func substituteTextRuns(slideXML string, subs []substitution) (string, int) {
	replaced := 0
	out := deckTextRun.ReplaceAllStringFunc(slideXML, func(run string) string {
		m := deckTextRun.FindStringSubmatch(run)
		text := m[2]
		for _, sub := range subs {
			if n := len(sub.pattern.FindAllStringIndex(text, -1)); n > 0 {
				text = sub.pattern.ReplaceAllLiteralString(text, sub.value)
				replaced += n
			}
		}
		return m[1] + text + m[3]
	})
	return out, replaced
}

func escapeXML(s string) string {
	var b strings.Builder
	if err := xml.EscapeText(&b, []byte(s)); err != nil {
		return s
	}
	return b.String()
}
