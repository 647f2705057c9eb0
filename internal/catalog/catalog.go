package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// TemplateInfo describes one template offered by a catalog.
type TemplateInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Format   string `json:"format"`
	URL      string `json:"url,omitempty"`
}

// Catalog lists remote certificate templates and fetches them locally.
type Catalog interface {
	List(ctx context.Context, filter string) ([]TemplateInfo, error)
	Download(ctx context.Context, id string) (string, error)
}

// HTTPCatalog talks to a remote catalog service.
type HTTPCatalog struct {
	baseURL string
	destDir string
	client  *http.Client
	logger  *zap.Logger
}

func NewHTTPCatalog(baseURL, destDir string, logger *zap.Logger) *HTTPCatalog {
	return &HTTPCatalog{
		baseURL: strings.TrimRight(baseURL, "/"),
		destDir: destDir,
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
}

func (c *HTTPCatalog) List(ctx context.Context, filter string) ([]TemplateInfo, error) {
	u := c.baseURL + "/templates"
	if filter != "" {
		u += "?q=" + url.QueryEscape(filter)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog returned status %d", resp.StatusCode)
	}

	var templates []TemplateInfo
	if err := json.NewDecoder(resp.Body).Decode(&templates); err != nil {
		return nil, fmt.Errorf("failed to decode catalog response: %w", err)
	}
	return templates, nil
}

func (c *HTTPCatalog) Download(ctx context.Context, id string) (string, error) {
	templates, err := c.List(ctx, "")
	if err != nil {
		return "", err
	}
	var info *TemplateInfo
	for i := range templates {
		if templates[i].ID == id {
			info = &templates[i]
			break
		}
	}
	if info == nil || info.URL == "" {
		return "", fmt.Errorf("template %s not found in catalog", id)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, info.URL, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("template download failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("template download returned status %d", resp.StatusCode)
	}

	ext := filepath.Ext(info.URL)
	if ext == "" {
		ext = "." + strings.ToLower(info.Format)
	}
	path := filepath.Join(c.destDir, fmt.Sprintf("%s%s", id, ext))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to store template: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to store template: %w", err)
	}

	c.logger.Info("template downloaded", zap.String("id", id), zap.String("path", path))
	return path, nil
}
