package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// StaticCatalog is the built-in fallback used when no remote catalog is
// configured. Its designs are drawn on demand with gofpdf, placeholder
// tokens included, so the rest of the pipeline treats them like any other
// fixed-layout template.
type StaticCatalog struct {
	destDir string
	designs []TemplateInfo
}

func NewStaticCatalog(destDir string) *StaticCatalog {
	return &StaticCatalog{
		destDir: destDir,
		designs: []TemplateInfo{
			{ID: "classic-completion", Name: "Classic Completion Certificate", Category: "completion", Format: "PDF"},
			{ID: "modern-achievement", Name: "Modern Achievement Award", Category: "achievement", Format: "PDF"},
			{ID: "workshop-attendance", Name: "Workshop Attendance Certificate", Category: "attendance", Format: "PDF"},
		},
	}
}

func (c *StaticCatalog) List(_ context.Context, filter string) ([]TemplateInfo, error) {
	if filter == "" {
		return c.designs, nil
	}
	var matched []TemplateInfo
	needle := strings.ToLower(filter)
	for _, d := range c.designs {
		if strings.Contains(strings.ToLower(d.Name), needle) ||
			strings.Contains(strings.ToLower(d.Category), needle) {
			matched = append(matched, d)
		}
	}
	return matched, nil
}

func (c *StaticCatalog) Download(_ context.Context, id string) (string, error) {
	var info *TemplateInfo
	for i := range c.designs {
		if c.designs[i].ID == id {
			info = &c.designs[i]
			break
		}
	}
	if info == nil {
		return "", fmt.Errorf("template %s not found in catalog", id)
	}

	path := filepath.Join(c.destDir, id+".pdf")
	if err := drawDesign(path, info.Name); err != nil {
		return "", err
	}
	return path, nil
}

// drawDesign renders a landscape A4 certificate page: double border,
// title, and a centered {{name}} placeholder line below the middle.
func drawDesign(path, title string) error {
	doc := gofpdf.New("L", "pt", "A4", "")
	doc.SetAutoPageBreak(false, 0)
	doc.AddPage()
	pageW, pageH := doc.GetPageSize()

	doc.SetLineWidth(3)
	doc.SetDrawColor(30, 60, 120)
	doc.Rect(24, 24, pageW-48, pageH-48, "D")
	doc.SetLineWidth(1)
	doc.Rect(34, 34, pageW-68, pageH-68, "D")

	doc.SetFont("Times", "B", 34)
	doc.SetTextColor(30, 60, 120)
	doc.SetY(pageH * 0.22)
	doc.CellFormat(0, 40, title, "", 1, "C", false, 0, "")

	doc.SetFont("Times", "", 16)
	doc.SetTextColor(80, 80, 80)
	doc.SetY(pageH * 0.38)
	doc.CellFormat(0, 24, "This certificate is proudly presented to", "", 1, "C", false, 0, "")

	doc.SetFont("Helvetica", "B", 28)
	doc.SetTextColor(0, 0, 0)
	doc.SetY(pageH * 0.5)
	doc.CellFormat(0, 36, "{{name}}", "", 1, "C", false, 0, "")

	doc.SetFont("Times", "", 14)
	doc.SetTextColor(80, 80, 80)
	doc.SetY(pageH * 0.66)
	doc.CellFormat(0, 20, "for completing {{course}} on {{date}}", "", 1, "C", false, 0, "")
	doc.SetY(pageH * 0.78)
	doc.CellFormat(0, 20, "{{instructor}}  |  {{organization}}", "", 1, "C", false, 0, "")

	if err := doc.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("failed to write catalog template: %w", err)
	}
	return nil
}
