package documents

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"
)

// PopplerRasterizer renders PDF pages with the pdftoppm binary
type PopplerRasterizer struct {
	binary string
	dpi    int
	logger arbor.ILogger
}

// NewPopplerRasterizer locates pdftoppm (explicit path first, then PATH)
func NewPopplerRasterizer(path string, dpi int, logger arbor.ILogger) (*PopplerRasterizer, error) {
	if path == "" {
		path = "pdftoppm"
	}
	binary, err := exec.LookPath(path)
	if err != nil {
		return nil, fmt.Errorf("%w: pdftoppm not found: %v", ErrRasterizerUnavailable, err)
	}
	if dpi <= 0 {
		dpi = 150
	}
	return &PopplerRasterizer{
		binary: binary,
		dpi:    dpi,
		logger: logger,
	}, nil
}

func (r *PopplerRasterizer) Name() string {
	return RasterizerPoppler
}

// Rasterize renders every page to PNG in a temp dir and decodes them in page order
func (r *PopplerRasterizer) Rasterize(ctx context.Context, pdf []byte) ([]image.Image, error) {
	tmpDir, err := os.MkdirTemp("", "qbank-pages-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	pdfPath := filepath.Join(tmpDir, "input.pdf")
	if err := os.WriteFile(pdfPath, pdf, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write temp PDF: %w", err)
	}

	prefix := filepath.Join(tmpDir, "page")
	cmd := exec.CommandContext(ctx, r.binary, "-png", "-r", strconv.Itoa(r.dpi), "-q", pdfPath, prefix)
	cmd.Env = append(os.Environ(), "LANG=C.UTF-8", "LC_ALL=C.UTF-8")
	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("pdftoppm failed: %w: %s", err, strings.TrimSpace(string(out)))
	}

	paths, err := filepath.Glob(prefix + "-*.png")
	if err != nil {
		return nil, fmt.Errorf("failed to list rendered pages: %w", err)
	}
	sort.Slice(paths, func(i, j int) bool {
		return pageNumber(paths[i]) < pageNumber(paths[j])
	})

	pages := make([]image.Image, 0, len(paths))
	for _, p := range paths {
		img, err := decodePNG(p)
		if err != nil {
			return nil, err
		}
		pages = append(pages, img)
	}

	r.logger.Debug().Int("pages", len(pages)).Int("dpi", r.dpi).Msg("Rendered PDF with pdftoppm")
	return pages, nil
}

// pageNumber parses "<prefix>-<n>.png"; pdftoppm zero-pads n to the page count width
func pageNumber(path string) int {
	base := strings.TrimSuffix(filepath.Base(path), ".png")
	idx := strings.LastIndex(base, "-")
	if idx < 0 {
		return 0
	}
	n, err := strconv.Atoi(base[idx+1:])
	if err != nil {
		return 0
	}
	return n
}

func decodePNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open page image: %w", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	return img, nil
}
