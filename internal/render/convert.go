package render

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Converter turns rendered decks into PDFs by shelling out to an external
// converter binary (soffice). Conversions run on a bounded worker pool so
// a slow conversion suspends only the recipient waiting on it.
type Converter struct {
	binary string
	logger *zap.Logger

	jobs chan convertJob
	wg   sync.WaitGroup
	once sync.Once
}

type convertJob struct {
	ctx      context.Context
	deckPath string
	outDir   string
	result   chan convertResult
}

type convertResult struct {
	pdfPath string
	err     error
}

// NewConverter starts a converter with the given number of workers.
// Callers must Close it when done.
func NewConverter(binary string, workers int, logger *zap.Logger) *Converter {
	if binary == "" {
		binary = "soffice"
	}
	if workers < 1 {
		workers = 1
	}
	c := &Converter{
		binary: binary,
		logger: logger,
		jobs:   make(chan convertJob),
	}
	for i := 0; i < workers; i++ {
		c.wg.Add(1)
		go c.worker()
	}
	return c
}

// ConvertToPDF converts deckPath into a PDF in outDir and returns the
// produced file's path. Blocks the calling recipient until the external
// process finishes or ctx is cancelled.
func (c *Converter) ConvertToPDF(ctx context.Context, deckPath, outDir string) (string, error) {
	job := convertJob{
		ctx:      ctx,
		deckPath: deckPath,
		outDir:   outDir,
		result:   make(chan convertResult, 1),
	}
	select {
	case c.jobs <- job:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	select {
	case res := <-job.result:
		return res.pdfPath, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Close stops accepting jobs and waits for in-flight conversions.
func (c *Converter) Close() {
	c.once.Do(func() {
		close(c.jobs)
	})
	c.wg.Wait()
}

func (c *Converter) worker() {
	defer c.wg.Done()
	for job := range c.jobs {
		pdfPath, err := c.convert(job.ctx, job.deckPath, job.outDir)
		job.result <- convertResult{pdfPath: pdfPath, err: err}
	}
}

func (c *Converter) convert(ctx context.Context, deckPath, outDir string) (string, error) {
	cmd := exec.CommandContext(ctx, c.binary,
		"--headless", "--convert-to", "pdf", "--outdir", outDir, deckPath)
	output, err := cmd.CombinedOutput()
	if err != nil {
		c.logger.Warn("deck conversion failed",
			zap.String("deck", deckPath),
			zap.ByteString("output", output),
			zap.Error(err))
		return "", fmt.Errorf("pdf conversion failed: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(deckPath), filepath.Ext(deckPath))
	pdfPath := filepath.Join(outDir, base+".pdf")
	if _, err := os.Stat(pdfPath); err != nil {
		return "", fmt.Errorf("converter produced no output for %s: %w", deckPath, err)
	}
	return pdfPath, nil
}
