package render

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jung-kurt/gofpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeTestPDF(t *testing.T, path string) {
	t.Helper()
	doc := gofpdf.New("L", "pt", "A4", "")
	doc.AddPage()
	doc.SetFont("Helvetica", "", 24)
	doc.Text(200, 200, "Certificate of Completion")
	require.NoError(t, doc.OutputFileAndClose(path))
}

func TestDefaultLayoutPolicy(t *testing.T) {
	layout := DefaultLayoutPolicy(842, 595)

	p := layout.Primary
	// Horizontally centered.
	assert.InDelta(t, 842.0/2, p.X+p.W/2, 0.01)
	// Offset below the vertical center.
	assert.Greater(t, p.Y+p.H/2, 595.0/2)
	// Primary region is among the masked regions.
	assert.Contains(t, layout.Masks, p)
	assert.Len(t, layout.Masks, 3)
}

func TestFontSizeForPage(t *testing.T) {
	assert.InDelta(t, 842.0/18, FontSizeForPage(842), 0.01)
	assert.Equal(t, 48.0, FontSizeForPage(5000))
	assert.Equal(t, 12.0, FontSizeForPage(10))
}

func TestOverlayRender(t *testing.T) {
	dir := t.TempDir()
	templatePath := filepath.Join(dir, "template.pdf")
	writeTestPDF(t, templatePath)

	outPath := filepath.Join(dir, "out.pdf")
	o := NewOverlayRenderer(zap.NewNop())
	err := o.Render(context.Background(), templatePath, outPath, "Ann Lee", DefaultOverlayOptions())
	require.NoError(t, err)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.True(t, len(data) > 0)
	assert.Equal(t, "%PDF", string(data[:4]))

	// Template untouched.
	original, err := os.ReadFile(templatePath)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(original[:4]))
}

func TestOverlayRenderCustomPolicy(t *testing.T) {
	dir := t.TempDir()
	templatePath := filepath.Join(dir, "template.pdf")
	writeTestPDF(t, templatePath)

	var gotW, gotH float64
	opts := DefaultOverlayOptions()
	opts.Policy = func(pageW, pageH float64) Layout {
		gotW, gotH = pageW, pageH
		return DefaultLayoutPolicy(pageW, pageH)
	}

	o := NewOverlayRenderer(zap.NewNop())
	outPath := filepath.Join(dir, "out.pdf")
	require.NoError(t, o.Render(context.Background(), templatePath, outPath, "Bo Kim", opts))

	assert.Greater(t, gotW, gotH, "landscape page expected")
}

func TestOverlayRenderUnreadableTemplate(t *testing.T) {
	dir := t.TempDir()
	templatePath := filepath.Join(dir, "broken.pdf")
	require.NoError(t, os.WriteFile(templatePath, []byte("not a pdf"), 0o644))

	o := NewOverlayRenderer(zap.NewNop())
	err := o.Render(context.Background(), templatePath, filepath.Join(dir, "out.pdf"), "Ann", DefaultOverlayOptions())
	assert.Error(t, err)
}
