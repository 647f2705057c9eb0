package storage

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Manager owns the local directory layout:
//
//	<root>/uploads/    spreadsheets
//	<root>/templates/  uploaded and downloaded templates
//	<root>/generated/  one subdirectory per batch
type Manager struct {
	root   string
	logger *zap.Logger
}

func NewManager(root string, logger *zap.Logger) (*Manager, error) {
	m := &Manager{root: root, logger: logger}
	for _, dir := range []string{m.UploadsDir(), m.TemplatesDir(), m.GeneratedDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create storage dir %s: %w", dir, err)
		}
	}
	return m, nil
}

func (m *Manager) UploadsDir() string   { return filepath.Join(m.root, "uploads") }
func (m *Manager) TemplatesDir() string { return filepath.Join(m.root, "templates") }
func (m *Manager) GeneratedDir() string { return filepath.Join(m.root, "generated") }

// BatchDir creates and returns the output directory for one batch.
func (m *Manager) BatchDir(batchID string) (string, error) {
	dir := filepath.Join(m.GeneratedDir(), batchID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create batch dir: %w", err)
	}
	return dir, nil
}

// SaveUpload writes an uploaded file into dir under a sanitized name and
// returns the stored path.
func (m *Manager) SaveUpload(dir, filename string, r io.Reader) (string, error) {
	name := SafeName(strings.TrimSuffix(filename, filepath.Ext(filename))) + strings.ToLower(filepath.Ext(filename))
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to store upload: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to store upload: %w", err)
	}
	return path, nil
}

// ArchiveBatch streams the batch directory as a zip archive.
func (m *Manager) ArchiveBatch(batchID string, w io.Writer) error {
	dir := filepath.Join(m.GeneratedDir(), batchID)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read batch dir: %w", err)
	}

	zw := zip.NewWriter(w)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		f, err := os.Open(filepath.Join(dir, entry.Name()))
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", entry.Name(), err)
		}
		dst, err := zw.Create(entry.Name())
		if err == nil {
			_, err = io.Copy(dst, f)
		}
		f.Close()
		if err != nil {
			return fmt.Errorf("failed to archive %s: %w", entry.Name(), err)
		}
	}
	return zw.Close()
}

// Sweep removes generated batch directories older than maxAge. Used by the
// scheduled retention job.
func (m *Manager) Sweep(maxAge time.Duration) error {
	entries, err := os.ReadDir(m.GeneratedDir())
	if err != nil {
		return fmt.Errorf("failed to read generated dir: %w", err)
	}
	cutoff := time.Now().Add(-maxAge)
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		path := filepath.Join(m.GeneratedDir(), entry.Name())
		if err := os.RemoveAll(path); err != nil {
			m.logger.Warn("retention sweep failed", zap.String("path", path), zap.Error(err))
			continue
		}
		m.logger.Info("removed expired batch", zap.String("batch", entry.Name()))
	}
	return nil
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9 ]`)

// SafeName strips characters outside [A-Za-z0-9 ] and collapses
// whitespace to underscores, e.g. "O'Brien, Jr." -> "OBrien_Jr".
func SafeName(name string) string {
	cleaned := unsafeChars.ReplaceAllString(name, "")
	cleaned = strings.TrimSpace(cleaned)
	return strings.Join(strings.Fields(cleaned), "_")
}
