package extraction

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"testing"

	"github.com/go-pdf/fpdf"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/qbank/internal/interfaces"
	"github.com/ternarybob/qbank/internal/services/classifier"
)

func testLogger() arbor.ILogger {
	return arbor.NewLogger()
}

func testClassifier() *classifier.Classifier {
	return classifier.New(classifier.MustDefaultTable())
}

func testImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 90, 255})
		}
	}
	return img
}

// testPDF renders n text pages with fpdf
func testPDF(t *testing.T, n int) []byte {
	t.Helper()
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Helvetica", "", 12)
	for i := 0; i < n; i++ {
		pdf.AddPage()
		pdf.Cell(40, 10, fmt.Sprintf("page %d", i+1))
	}
	var buf bytes.Buffer
	require.NoError(t, pdf.Output(&buf))
	return buf.Bytes()
}

// testDocx writes a .docx with one paragraph per text and one image paragraph per png
func testDocx(t *testing.T, texts []string, images int) []byte {
	t.Helper()

	var body, rels strings.Builder
	for _, text := range texts {
		fmt.Fprintf(&body, `<w:p><w:r><w:t>%s</w:t></w:r></w:p>`, text)
	}
	for i := 0; i < images; i++ {
		fmt.Fprintf(&body, `<w:p><w:r><w:drawing><a:blip r:embed="rId%d"/></w:drawing></w:r></w:p>`, i+1)
		fmt.Fprintf(&rels, `<Relationship Id="rId%d" Target="media/image%d.png"/>`, i+1, i+1)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	write := func(name string, data []byte) {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}
	write("word/document.xml", []byte(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"><w:body>`+body.String()+`</w:body></w:document>`))
	write("word/_rels/document.xml.rels", []byte(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`+rels.String()+`</Relationships>`))
	for i := 0; i < images; i++ {
		var img bytes.Buffer
		require.NoError(t, png.Encode(&img, testImage(20+i, 10)))
		write(fmt.Sprintf("word/media/image%d.png", i+1), img.Bytes())
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

type fakeRasterizer struct {
	pages int
}

func (r *fakeRasterizer) Name() string { return "fake" }

func (r *fakeRasterizer) Rasterize(ctx context.Context, pdf []byte) ([]image.Image, error) {
	out := make([]image.Image, r.pages)
	for i := range out {
		out[i] = testImage(100, 200)
	}
	return out, nil
}

func rasterizerFor(pages int) RasterizerFactory {
	return func() (interfaces.Rasterizer, error) {
		return &fakeRasterizer{pages: pages}, nil
	}
}

type reply struct {
	text string
	err  error
}

// scriptedModel answers the nth call with replies[n]
type scriptedModel struct {
	mu       sync.Mutex
	replies  []reply
	requests []*interfaces.VisionRequest
}

func (m *scriptedModel) Name() string { return "scripted" }

func (m *scriptedModel) Generate(ctx context.Context, req *interfaces.VisionRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.requests)
	m.requests = append(m.requests, req)
	if n >= len(m.replies) {
		return "[]", nil
	}
	return m.replies[n].text, m.replies[n].err
}

func modelFactory(m interfaces.VisionModel) ModelFactory {
	return func(ctx context.Context, apiKey string) (interfaces.VisionModel, error) {
		return m, nil
	}
}

type fakeOCR struct {
	texts []string
	calls int
}

func (o *fakeOCR) Recognize(ctx context.Context, image []byte) (string, error) {
	if o.calls >= len(o.texts) {
		return "", fmt.Errorf("unexpected page")
	}
	text := o.texts[o.calls]
	o.calls++
	return text, nil
}

func (o *fakeOCR) Close() error { return nil }
