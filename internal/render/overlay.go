package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"
	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"go.uber.org/zap"
)

// Region is a rectangle on the page, in points, top-left origin.
type Region struct {
	X, Y, W, H float64
}

// Layout is one placement decision: regions to mask out plus the region
// the recipient name is drawn into.
type Layout struct {
	Primary Region
	Masks   []Region
}

// LayoutPolicy computes where placeholder text is assumed to live on a
// page of the given dimensions. It is a heuristic guess, not derived from
// the template's actual content, and is injected so alternative policies
// can be swapped in without touching the renderer.
type LayoutPolicy func(pageW, pageH float64) Layout

// DefaultLayoutPolicy guesses a name line slightly below the vertical
// center, with secondary candidate bands above and below it that are
// masked as well.
func DefaultLayoutPolicy(pageW, pageH float64) Layout {
	w := pageW * 0.62
	h := pageH * 0.09
	x := (pageW - w) / 2
	center := pageH/2 + pageH*0.04

	primary := Region{X: x, Y: center - h/2, W: w, H: h}
	return Layout{
		Primary: primary,
		Masks: []Region{
			primary,
			{X: x, Y: center - h/2 - pageH*0.13, W: w, H: h * 0.7},
			{X: x, Y: center + h/2 + pageH*0.04, W: w, H: h * 0.7},
		},
	}
}

// RGB is an opaque fill color.
type RGB struct {
	R, G, B int
}

// OverlayOptions style the painted-over region and the drawn name.
type OverlayOptions struct {
	// FontSize in points; 0 means proportional to page width, capped.
	FontSize   float64
	FontFamily string
	Background RGB
	Policy     LayoutPolicy
}

// DefaultOverlayOptions paints white masks and draws Helvetica bold.
func DefaultOverlayOptions() OverlayOptions {
	return OverlayOptions{
		FontFamily: "Helvetica",
		Background: RGB{R: 255, G: 255, B: 255},
		Policy:     DefaultLayoutPolicy,
	}
}

// OverlayRenderer personalizes fixed-layout PDF templates. The format
// exposes no placeholder locations, so the renderer paints opaque
// rectangles over heuristically chosen regions of the first page and
// draws the resolved recipient name on top. The result is an
// approximation of the template design, not a true substitution.
type OverlayRenderer struct {
	logger *zap.Logger
}

func NewOverlayRenderer(logger *zap.Logger) *OverlayRenderer {
	return &OverlayRenderer{logger: logger}
}

// Render stamps the overlay onto page 1 of templatePath and writes the
// combined document to outputPath. The template file is never mutated.
func (o *OverlayRenderer) Render(ctx context.Context, templatePath, outputPath, name string, opts OverlayOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if opts.Policy == nil {
		opts.Policy = DefaultLayoutPolicy
	}
	if opts.FontFamily == "" {
		opts.FontFamily = "Helvetica"
	}

	dims, err := pdfapi.PageDimsFile(templatePath)
	if err != nil {
		return fmt.Errorf("failed to read template pages: %w", err)
	}
	if len(dims) == 0 {
		return fmt.Errorf("template %s has no pages", templatePath)
	}
	pageW, pageH := dims[0].Width, dims[0].Height

	overlayFile, err := os.CreateTemp(filepath.Dir(outputPath), "overlay-*.pdf")
	if err != nil {
		return fmt.Errorf("failed to create overlay file: %w", err)
	}
	overlayPath := overlayFile.Name()
	overlayFile.Close()
	defer os.Remove(overlayPath)

	if err := o.drawOverlay(overlayPath, pageW, pageH, name, opts); err != nil {
		return err
	}

	wm, err := pdfcpu.ParsePDFWatermarkDetails(overlayPath, "scale:1 abs, pos:c, rot:0, op:1", true, types.POINTS)
	if err != nil {
		return fmt.Errorf("failed to build overlay stamp: %w", err)
	}
	conf := model.NewDefaultConfiguration()
	if err := pdfapi.AddWatermarksFile(templatePath, outputPath, []string{"1"}, wm, conf); err != nil {
		os.Remove(outputPath)
		return fmt.Errorf("failed to stamp overlay: %w", err)
	}

	o.logger.Debug("overlay rendered",
		zap.String("template", templatePath),
		zap.String("output", outputPath),
		zap.Float64("page_width", pageW))
	return nil
}

// drawOverlay produces a single page matching the template's dimensions:
// background-colored masks over every candidate region and the name
// centered in the primary one.
func (o *OverlayRenderer) drawOverlay(path string, pageW, pageH float64, name string, opts OverlayOptions) error {
	layout := opts.Policy(pageW, pageH)
	size := opts.FontSize
	if size <= 0 {
		size = FontSizeForPage(pageW)
	}

	doc := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: pageW, Ht: pageH},
	})
	doc.SetMargins(0, 0, 0)
	doc.SetAutoPageBreak(false, 0)
	doc.AddPage()

	doc.SetFillColor(opts.Background.R, opts.Background.G, opts.Background.B)
	for _, r := range layout.Masks {
		doc.Rect(r.X, r.Y, r.W, r.H, "F")
	}

	doc.SetFont(opts.FontFamily, "B", size)
	doc.SetTextColor(0, 0, 0)
	textW := doc.GetStringWidth(name)
	p := layout.Primary
	x := p.X + (p.W-textW)/2
	baseline := p.Y + p.H/2 + size*0.35
	doc.Text(x, baseline, name)

	if err := doc.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("failed to draw overlay page: %w", err)
	}
	return nil
}

// FontSizeForPage scales the name text with page width so wider pages get
// larger text, capped to keep it on the page.
func FontSizeForPage(pageW float64) float64 {
	size := pageW / 18
	if size > 48 {
		size = 48
	}
	if size < 12 {
		size = 12
	}
	return size
}
