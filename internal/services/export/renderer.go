package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/ternarybob/arbor"
	"github.com/yuin/goldmark/ast"
	extast "github.com/yuin/goldmark/extension/ast"

	"github.com/ternarybob/qbank/internal/services/imaging"
)

const (
	pageWidth    = 190.0 // A4 minus 10mm margins
	pageBottom   = 287.0
	lineHeight   = 6.0
	maxImageWide = 120.0
)

// pdfRenderer walks a goldmark AST and draws it with fpdf
type pdfRenderer struct {
	pdf       *fpdf.Fpdf
	source    []byte
	images    map[string][]byte
	logger    arbor.ILogger
	font      string
	size      float64
	bold      bool
	translate func(string) string
	imageSeq  int
}

func (r *pdfRenderer) render(node ast.Node) error {
	if err := ast.Walk(node, r.walk); err != nil {
		return err
	}
	return r.pdf.Error()
}

func (r *pdfRenderer) updateFont() {
	style := ""
	if r.bold {
		style = "B"
	}
	r.pdf.SetFont(r.font, style, r.size)
}

func (r *pdfRenderer) write(s string) {
	r.pdf.Write(lineHeight, r.translate(s))
}

func (r *pdfRenderer) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch n.Kind() {
	case ast.KindHeading:
		return r.handleHeading(n.(*ast.Heading), entering)
	case ast.KindParagraph:
		if !entering {
			r.pdf.Ln(lineHeight + 2)
		}
	case ast.KindText:
		return r.handleText(n.(*ast.Text), entering)
	case ast.KindEmphasis:
		r.bold = entering
		r.updateFont()
	case ast.KindImage:
		return r.handleImage(n.(*ast.Image), entering)
	case ast.KindThematicBreak:
		if entering {
			y := r.pdf.GetY()
			r.pdf.Line(10, y, 10+pageWidth, y)
			r.pdf.Ln(4)
		}
	case extast.KindTable:
		return r.handleTable(n.(*extast.Table), entering)
	}
	return ast.WalkContinue, nil
}

func (r *pdfRenderer) handleHeading(n *ast.Heading, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	size := 16.0
	if n.Level > 1 {
		size = 13
	}
	r.pdf.SetFont(r.font, "B", size)
	r.pdf.CellFormat(pageWidth, size*0.6, r.translate(r.plainText(n)), "", 1, "C", false, 0, "")
	r.pdf.Ln(4)
	r.updateFont()
	return ast.WalkSkipChildren, nil
}

func (r *pdfRenderer) handleText(n *ast.Text, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	r.write(string(n.Segment.Value(r.source)))
	if n.HardLineBreak() {
		r.pdf.Ln(lineHeight)
	} else if n.SoftLineBreak() {
		r.write(" ")
	}
	return ast.WalkContinue, nil
}

// handleImage draws qimg: references on their own line, scaled to fit
func (r *pdfRenderer) handleImage(n *ast.Image, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	dest := string(n.Destination)
	data, ok := r.images[strings.TrimPrefix(dest, imageScheme)]
	if !strings.HasPrefix(dest, imageScheme) || !ok {
		return ast.WalkSkipChildren, nil
	}

	imageType, payload, err := pdfImage(data)
	if err != nil {
		r.logger.Warn().Err(err).Str("image", dest).Msg("Skipping question image")
		return ast.WalkSkipChildren, nil
	}

	r.imageSeq++
	name := fmt.Sprintf("qimg-%d", r.imageSeq)
	opts := fpdf.ImageOptions{ImageType: imageType, ReadDpi: true}
	info := r.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(payload))
	if info == nil || r.pdf.Err() {
		return ast.WalkStop, r.pdf.Error()
	}

	w, h := info.Extent()
	if w > maxImageWide {
		h = h * maxImageWide / w
		w = maxImageWide
	}
	if r.pdf.GetY()+h > pageBottom {
		r.pdf.AddPage()
	}
	r.pdf.ImageOptions(name, 10, r.pdf.GetY(), w, h, true, opts, 0, "")
	return ast.WalkSkipChildren, nil
}

// pdfImage returns bytes fpdf can embed; formats it cannot read are converted to JPEG
func pdfImage(data []byte) (string, []byte, error) {
	img, format, err := imaging.Decode(data)
	if err != nil {
		return "", nil, err
	}
	switch format {
	case "jpeg":
		return "JPG", data, nil
	case "png":
		return "PNG", data, nil
	case "gif":
		return "GIF", data, nil
	}
	encoded, err := imaging.EncodeJPEG(img, 0)
	if err != nil {
		return "", nil, err
	}
	return "JPG", encoded, nil
}

func (r *pdfRenderer) handleTable(n *extast.Table, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}

	var rows [][]string
	var collect func(node ast.Node)
	collect = func(node ast.Node) {
		for child := node.FirstChild(); child != nil; child = child.NextSibling() {
			switch row := child.(type) {
			case *extast.TableHeader:
				rows = append(rows, r.cells(row))
			case *extast.TableRow:
				rows = append(rows, r.cells(row))
			}
		}
	}
	collect(n)

	r.renderTable(rows)
	return ast.WalkSkipChildren, nil
}

func (r *pdfRenderer) cells(row ast.Node) []string {
	var out []string
	for c := row.FirstChild(); c != nil; c = c.NextSibling() {
		if _, ok := c.(*extast.TableCell); ok {
			out = append(out, r.plainText(c))
		}
	}
	return out
}

// plainText concatenates the text segments under n
func (r *pdfRenderer) plainText(n ast.Node) string {
	var b strings.Builder
	_ = ast.Walk(n, func(child ast.Node, entering bool) (ast.WalkStatus, error) {
		if t, ok := child.(*ast.Text); ok && entering {
			b.Write(t.Segment.Value(r.source))
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}

func (r *pdfRenderer) renderTable(rows [][]string) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return
	}
	widths := r.columnWidths(rows)
	rowHeight := lineHeight + 1

	for i, row := range rows {
		if r.pdf.GetY()+rowHeight > pageBottom {
			r.pdf.AddPage()
		}
		style, fill := "", false
		if i == 0 {
			style, fill = "B", true
			r.pdf.SetFillColor(230, 230, 230)
		}
		r.pdf.SetFont(r.font, style, r.size)
		for j := range widths {
			text := ""
			if j < len(row) {
				text = row[j]
			}
			r.pdf.CellFormat(widths[j], rowHeight, r.translate(text), "1", 0, "C", fill, 0, "")
		}
		r.pdf.Ln(-1)
	}

	r.pdf.Ln(3)
	r.updateFont()
}

// columnWidths sizes columns to content, then stretches them to the page width
func (r *pdfRenderer) columnWidths(rows [][]string) []float64 {
	cols := len(rows[0])
	widths := make([]float64, cols)
	r.pdf.SetFont(r.font, "B", r.size)
	for _, row := range rows {
		for j := 0; j < cols && j < len(row); j++ {
			if w := r.pdf.GetStringWidth(r.translate(row[j])) + 6; w > widths[j] {
				widths[j] = w
			}
		}
	}

	total := 0.0
	for j := range widths {
		widths[j] = max(widths[j], 15)
		total += widths[j]
	}
	scale := pageWidth / total
	for j := range widths {
		widths[j] *= scale
	}
	return widths
}
