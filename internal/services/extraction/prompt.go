package extraction

import (
	"fmt"
	"strings"

	"github.com/ternarybob/qbank/internal/models"
)

const promptRules = `分析考卷圖片，只擷取【高中物理】試題，其他科目的題目請略過。

【判題規則】
1. 題目含「應選X項」時，type 設為 "Multi"（多選）。
2. 題目沒有 (A)(B)(C)... 選項時，type 設為 "Fill"（填充／計算）。
3. 題組（一段共用敘述加多個小題）：type 設為 "Group"，共用敘述放在 "content"，
   小題放在 "sub_questions"，格式與一般題目相同，小題不可再有 sub_questions。
4. "chapter" 只能從下列章節中擇一，無法判斷時填 "未分類"：
%s

只輸出 JSON 陣列，不要加任何說明文字。格式範例：
[
  {
    "number": 1,
    "type": "Single",
    "content": "題目文字...",
    "options": ["(A)...", "(B)..."],
    "answer": "A",
    "chapter": "%s"%s
  }
]
`

const promptBoxRules = `

【座標要求】座標一律使用 0-1000 的相對比例 [ymin, xmin, ymax, xmax]。
1. "full_question_box_2d"：框選整題（含題號、文字、選項）的垂直範圍，x 軸必須是全寬 [ymin, 0, ymax, 1000]。
2. "box_2d"：若題目附圖，標示圖片範圍；沒有圖就省略此欄位。
3. "page_index"：該題位於本批圖片中的第幾張（從 0 開始）。
`

const promptBoxExample = `,
    "full_question_box_2d": [120, 0, 310, 1000],
    "box_2d": [180, 550, 300, 950],
    "page_index": 0`

// BuildPrompt renders the extraction instructions for one batch.
// PDF batches also ask for crop boxes and the batch-local page index.
func BuildPrompt(docType DocumentType) string {
	chapters := models.ClassifiedChapters()
	lines := make([]string, len(chapters))
	for i, ch := range chapters {
		lines[i] = "   - " + ch.String()
	}

	example := ""
	if docType == DocumentPDF {
		example = promptBoxExample
	}

	prompt := fmt.Sprintf(promptRules, strings.Join(lines, "\n"), chapters[0], example)
	if docType == DocumentPDF {
		prompt += promptBoxRules
	}
	return prompt
}
