package documents

import (
	"archive/zip"
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/qbank/internal/models"
)

// testPara is a paragraph for buildDocx; Image names a media file under word/media
type testPara struct {
	Text  string
	Image string
	Raw   string
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	img.Set(0, 0, color.Black)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// buildDocx writes a minimal .docx archive with one run per paragraph
func buildDocx(t *testing.T, paras []testPara, media map[string][]byte) []byte {
	t.Helper()

	var body strings.Builder
	ids := map[string]string{}
	for name := range media {
		ids[name] = "rId" + fmt.Sprint(len(ids)+10)
	}
	for _, p := range paras {
		if p.Raw != "" {
			body.WriteString(p.Raw)
			continue
		}
		body.WriteString("<w:p><w:r>")
		if p.Text != "" {
			fmt.Fprintf(&body, `<w:t xml:space="preserve">%s</w:t>`, p.Text)
		}
		if p.Image != "" {
			fmt.Fprintf(&body, `<w:drawing><wp:inline><a:graphic><a:graphicData><pic:pic><pic:blipFill><a:blip r:embed="%s"/></pic:blipFill></pic:pic></a:graphicData></a:graphic></wp:inline></w:drawing>`, ids[p.Image])
		}
		body.WriteString("</w:r></w:p>")
	}

	document := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:wp="http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing" xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:pic="http://schemas.openxmlformats.org/drawingml/2006/picture" xmlns:v="urn:schemas-microsoft-com:vml"><w:body>` +
		body.String() + `</w:body></w:document>`

	var rels strings.Builder
	rels.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	for name, id := range ids {
		fmt.Fprintf(&rels, `<Relationship Id="%s" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="media/%s"/>`, id, name)
	}
	rels.WriteString(`<Relationship Id="rIdX" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink" Target="https://example.com" TargetMode="External"/>`)
	rels.WriteString(`</Relationships>`)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	write := func(name string, data []byte) {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}
	write("[Content_Types].xml", []byte(`<?xml version="1.0"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`))
	write(docxDocumentPath, []byte(document))
	write(docxRelsPath, []byte(rels.String()))
	for name, data := range media {
		write("word/media/"+name, data)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestReadDocx_TextAndImages(t *testing.T) {
	img1 := pngBytes(t, 8, 4)
	img2 := pngBytes(t, 3, 3)
	data := buildDocx(t, []testPara{
		{Text: "1. 第一題"},
		{Image: "image2.png"},
		{Text: "2. 第二題", Image: "image1.png"},
		{Image: "image2.png"},
	}, map[string][]byte{"image1.png": img1, "image2.png": img2})

	doc, err := ReadDocx(data)
	require.NoError(t, err)

	require.Len(t, doc.Paragraphs, 4)
	assert.Equal(t, "1. 第一題\n\n2. 第二題\n", doc.Text())

	images := doc.Images()
	require.Len(t, images, 2, "repeated references are returned once")
	assert.Equal(t, img2, images[0], "document order")
	assert.Equal(t, img1, images[1])

	jpegs, skipped := doc.JPEGImages(80)
	assert.Len(t, jpegs, 2)
	assert.Zero(t, skipped)
}

func TestReadDocx_TextBoxKeepsOuterParagraph(t *testing.T) {
	textBox := `<w:p><w:r><w:t>3. 如圖，</w:t></w:r>` +
		`<w:r><w:pict><v:shape><v:textbox><w:txbxContent>` +
		`<w:p><w:r><w:t>圖一</w:t></w:r></w:p>` +
		`</w:txbxContent></v:textbox></v:shape></w:pict></w:r>` +
		`<w:r><w:t>求加速度。</w:t></w:r></w:p>`
	data := buildDocx(t, []testPara{
		{Text: "2. 前一題"},
		{Raw: textBox},
		{Text: "4. 下一題"},
	}, nil)

	doc, err := ReadDocx(data)
	require.NoError(t, err)

	require.Len(t, doc.Paragraphs, 4)
	assert.Equal(t, "2. 前一題", doc.Paragraphs[0].Text)
	assert.Equal(t, "圖一", doc.Paragraphs[1].Text)
	assert.Equal(t, "3. 如圖，求加速度。", doc.Paragraphs[2].Text)
	assert.Equal(t, "4. 下一題", doc.Paragraphs[3].Text)
}

func TestReadDocx_SkipsUndecodableMedia(t *testing.T) {
	data := buildDocx(t, []testPara{{Text: "x", Image: "image1.emf"}}, map[string][]byte{
		"image1.emf": []byte("not a raster image"),
	})

	doc, err := ReadDocx(data)
	require.NoError(t, err)

	jpegs, skipped := doc.JPEGImages(0)
	assert.Empty(t, jpegs)
	assert.Equal(t, 1, skipped)
}

func TestReadDocx_Invalid(t *testing.T) {
	_, err := ReadDocx([]byte("plain text"))
	assert.ErrorIs(t, err, ErrNotDocx)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	_, err = zw.Create("other.txt")
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	_, err = ReadDocx(buf.Bytes())
	assert.ErrorIs(t, err, ErrNotDocx)
}

func TestParseTaggedDocx(t *testing.T) {
	diagram := pngBytes(t, 5, 5)
	data := buildDocx(t, []testPara{
		{Text: "stray text before any question"},
		{Text: "[Src:112學測]"},
		{Text: "[Chap:第二章.物體的運動]"},
		{Text: "[Unit:直線運動]"},
		{Text: "[Type:Single]"},
		{Text: "[Q]"},
		{Text: "一物體由靜止開始等加速運動，"},
		{Image: "d.png"},
		{Text: "求 2 秒末的速度。"},
		{Text: "[Opt]"},
		{Text: "(A) 1 m/s"},
		{Text: "B. 2 m/s"},
		{Text: "C、4 m/s"},
		{Text: "[Ans] C"},
		{Text: "[Type:題組]"},
		{Text: "[Cat:電磁感應]"},
		{Text: "[Q]"},
		{Text: "閱讀下文回答問題"},
		{Text: "[Ans]"},
		{Text: "A"},
		{Text: "D"},
		{Text: "[Src:]"},
		{Text: "[Chap:第九章]"},
		{Text: "[Type:essay]"},
		{Text: "[Q]"},
		{Text: "Acceleration of gravity?"},
	}, map[string][]byte{"d.png": diagram})

	questions, err := ParseTaggedDocx(data)
	require.NoError(t, err)
	require.Len(t, questions, 3)

	q := questions[0]
	assert.True(t, strings.HasPrefix(q.ID, "q_"))
	assert.Equal(t, models.AnswerSingle, q.Type)
	assert.Equal(t, "112學測", q.Source)
	assert.Equal(t, models.ChapterMotion, q.Chapter)
	assert.Equal(t, "直線運動", q.Unit)
	assert.Equal(t, "一物體由靜止開始等加速運動，\n求 2 秒末的速度。", q.Content)
	assert.Equal(t, []string{"1 m/s", "2 m/s", "4 m/s"}, q.Options)
	assert.Equal(t, "C", q.Answer)
	assert.Equal(t, diagram, q.ImageData)
	assert.True(t, q.HasImage)

	q = questions[1]
	assert.Equal(t, models.AnswerGroup, q.Type)
	assert.Equal(t, "112學測", q.Source, "source carries over")
	assert.Equal(t, "直線運動", q.Unit, "unit tag after [Type] applies to the next question")
	assert.Equal(t, "AD", q.Answer)
	assert.Empty(t, q.Options)
	assert.False(t, q.HasImage)

	q = questions[2]
	assert.Equal(t, models.AnswerSingle, q.Type, "unknown types fall back to single choice")
	assert.Equal(t, models.DefaultSource, q.Source)
	assert.Equal(t, models.ChapterUnclassified, q.Chapter)
	assert.Equal(t, "電磁感應", q.Unit)
	assert.Equal(t, "Acceleration of gravity?", q.Content)
}
