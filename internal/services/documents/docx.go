package documents

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/ternarybob/qbank/internal/services/imaging"
)

const (
	docxDocumentPath = "word/document.xml"
	docxRelsPath     = "word/_rels/document.xml.rels"
)

// DocxParagraph is one w:p element: its text and the relationship ids of images it embeds
type DocxParagraph struct {
	Text     string
	ImageIDs []string
}

// DocxDocument is the body of a .docx in reading order
type DocxDocument struct {
	Paragraphs []DocxParagraph
	media      map[string][]byte // relationship id -> bytes
}

type relationshipsXML struct {
	Relationships []struct {
		ID     string `xml:"Id,attr"`
		Target string `xml:"Target,attr"`
		Mode   string `xml:"TargetMode,attr"`
	} `xml:"Relationship"`
}

// ReadDocx parses paragraphs and embedded images from a .docx archive
func ReadDocx(data []byte) (*DocxDocument, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotDocx, err)
	}

	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}

	docFile, ok := files[docxDocumentPath]
	if !ok {
		return nil, fmt.Errorf("%w: missing %s", ErrNotDocx, docxDocumentPath)
	}

	doc := &DocxDocument{media: make(map[string][]byte)}
	if err := doc.loadMedia(files); err != nil {
		return nil, err
	}

	rc, err := docFile.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", docxDocumentPath, err)
	}
	defer rc.Close()

	if err := doc.parseBody(rc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", docxDocumentPath, err)
	}
	return doc, nil
}

// loadMedia resolves image relationships to their bytes; external links are ignored
func (d *DocxDocument) loadMedia(files map[string]*zip.File) error {
	relsFile, ok := files[docxRelsPath]
	if !ok {
		return nil
	}
	content, err := readZipFile(relsFile)
	if err != nil {
		return err
	}

	var rels relationshipsXML
	if err := xml.Unmarshal(content, &rels); err != nil {
		return fmt.Errorf("parsing relationships: %w", err)
	}

	for _, rel := range rels.Relationships {
		if strings.EqualFold(rel.Mode, "External") {
			continue
		}
		target := strings.TrimPrefix(rel.Target, "/")
		if !strings.HasPrefix(target, "word/") {
			target = path.Clean(path.Join("word", target))
		}
		f, ok := files[target]
		if !ok || !strings.Contains(target, "media/") {
			continue
		}
		data, err := readZipFile(f)
		if err != nil {
			return err
		}
		d.media[rel.ID] = data
	}
	return nil
}

// openParagraph collects one w:p while it is being decoded
type openParagraph struct {
	text   strings.Builder
	images []string
}

// parseBody streams document.xml, matching elements by local name so that
// namespace prefixes do not matter. Paragraphs nested in text boxes are
// emitted when they close, ahead of the paragraph that contains them.
func (d *DocxDocument) parseBody(r io.Reader) error {
	dec := xml.NewDecoder(r)

	var (
		open   []*openParagraph
		inText bool
	)
	current := func() *openParagraph {
		if len(open) == 0 {
			return nil
		}
		return open[len(open)-1]
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			p := current()
			switch t.Name.Local {
			case "p":
				open = append(open, &openParagraph{})
			case "t":
				inText = true
			case "tab":
				if p != nil {
					p.text.WriteByte('\t')
				}
			case "br", "cr":
				if p != nil {
					p.text.WriteByte('\n')
				}
			case "blip":
				if id := attr(t, "embed"); id != "" && p != nil {
					p.images = append(p.images, id)
				}
			case "imagedata":
				if id := attr(t, "id"); id != "" && p != nil {
					p.images = append(p.images, id)
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if p := current(); p != nil {
					open = open[:len(open)-1]
					d.Paragraphs = append(d.Paragraphs, DocxParagraph{
						Text:     p.text.String(),
						ImageIDs: p.images,
					})
				}
			}
		case xml.CharData:
			if p := current(); inText && p != nil {
				p.text.Write(t)
			}
		}
	}
}

// Image returns the bytes behind a relationship id
func (d *DocxDocument) Image(id string) ([]byte, bool) {
	data, ok := d.media[id]
	return data, ok
}

// Images returns embedded images in document order, each once
func (d *DocxDocument) Images() [][]byte {
	seen := make(map[string]bool)
	var out [][]byte
	for _, p := range d.Paragraphs {
		for _, id := range p.ImageIDs {
			if seen[id] {
				continue
			}
			seen[id] = true
			if data, ok := d.media[id]; ok {
				out = append(out, data)
			}
		}
	}
	return out
}

// JPEGImages re-encodes the embedded images as JPEG in document order.
// Formats the decoders do not know (EMF, WMF) are skipped and counted.
func (d *DocxDocument) JPEGImages(quality int) (images [][]byte, skipped int) {
	for _, data := range d.Images() {
		img, _, err := imaging.Decode(data)
		if err != nil {
			skipped++
			continue
		}
		encoded, err := imaging.EncodeJPEG(img, quality)
		if err != nil {
			skipped++
			continue
		}
		images = append(images, encoded)
	}
	return images, skipped
}

// Text joins paragraph text with newlines
func (d *DocxDocument) Text() string {
	lines := make([]string, len(d.Paragraphs))
	for i, p := range d.Paragraphs {
		lines[i] = p.Text
	}
	return strings.Join(lines, "\n")
}

func attr(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", f.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", f.Name, err)
	}
	return data, nil
}
