package export

import (
	"fmt"
	"strings"

	"github.com/ternarybob/qbank/internal/models"
)

// imageScheme prefixes image destinations that refer to question images
const imageScheme = "qimg:"

var optionLetters = []string{"A", "B", "C", "D", "E", "F", "G", "H"}

// ExamMarkdown lays out questions as an exam sheet numbered from 1.
// Question images are referenced as qimg:<key> and returned keyed the same way.
func ExamMarkdown(title string, questions []*models.Question) (string, map[string][]byte) {
	var b strings.Builder
	images := make(map[string][]byte)

	fmt.Fprintf(&b, "# %s\n\n", escape(title))

	for i, q := range questions {
		n := i + 1
		writeQuestion(&b, images, fmt.Sprintf("%d.", n), fmt.Sprint(n), q)

		for j := range q.SubQuestions {
			sub := &q.SubQuestions[j]
			writeQuestion(&b, images, fmt.Sprintf("(%d)", j+1), fmt.Sprintf("%d-%d", n, j+1), sub)
		}
		b.WriteString("---\n\n")
	}
	return b.String(), images
}

func writeQuestion(b *strings.Builder, images map[string][]byte, label, key string, q *models.Question) {
	lines := strings.Split(strings.TrimSpace(q.Content), "\n")
	fmt.Fprintf(b, "**%s** %s", label, escape(strings.TrimSpace(lines[0])))
	for _, line := range lines[1:] {
		if line = strings.TrimSpace(line); line != "" {
			b.WriteString("  \n" + escapeLine(line))
		}
	}
	b.WriteString("\n\n")

	if len(q.ImageData) > 0 {
		images[key] = q.ImageData
		fmt.Fprintf(b, "![](%s%s)\n\n", imageScheme, key)
	}

	if len(q.Options) > 0 {
		for i, opt := range q.Options {
			if i > 0 {
				b.WriteString("  \n")
			}
			fmt.Fprintf(b, "(%s) %s", optionLetter(i), escape(opt))
		}
		b.WriteString("\n\n")
	}
}

// AnswerMarkdown renders a number → answer table; group members appear as n-m
func AnswerMarkdown(title string, questions []*models.Question) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", escape(title))
	b.WriteString("| 題號 | 答案 | 章節 |\n|---|---|---|\n")

	for i, q := range questions {
		n := i + 1
		fmt.Fprintf(&b, "| %d | %s | %s |\n", n, cell(q.Answer), cell(q.Chapter.String()))
		for j, sub := range q.SubQuestions {
			fmt.Fprintf(&b, "| %d-%d | %s | |\n", n, j+1, cell(sub.Answer))
		}
	}
	return b.String()
}

func optionLetter(i int) string {
	if i < len(optionLetters) {
		return optionLetters[i]
	}
	return fmt.Sprint(i + 1)
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "*", `\*`, "_", `\_`, "`", "\\`", "#", `\#`,
	"[", `\[`, "]", `\]`, "<", `\<`, ">", `\>`, "|", `\|`, "!", `\!`,
)

// escape keeps question text literal when parsed as markdown
func escape(s string) string {
	return markdownEscaper.Replace(s)
}

// escapeLine also neutralises block markers at the start of a continuation line
func escapeLine(s string) string {
	s = escape(s)
	if s == "" {
		return s
	}
	switch s[0] {
	case '-', '+', '=':
		return `\` + s
	}
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i > 0 && i < len(s) && (s[i] == '.' || s[i] == ')') {
		return s[:i] + `\` + s[i:]
	}
	return s
}

func cell(s string) string {
	s = strings.ReplaceAll(strings.TrimSpace(s), "\n", " ")
	if s == "" {
		return "-"
	}
	return escape(s)
}
