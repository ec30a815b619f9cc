// Package segmenter recovers question boundaries from noisy extracted text
// by selecting the longest numerically consistent chain of numbered lines.
package segmenter

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const (
	// MaxQuestionNumber bounds plausible anchors (exclusive)
	MaxQuestionNumber = 200
	// MaxGap is the largest allowed step between consecutive chain anchors
	MaxGap = 5
)

// anchorPattern matches an optional bracket, the number, then a closing bracket,
// a separator or whitespace. Lines are NFKC-normalised before matching, so
// full-width digits, "．" and "（" arrive as ASCII.
var anchorPattern = regexp.MustCompile(`^[\s(\[【]*(\d{1,3})\s*([)\]】]\s*[.、]?|[.、]|\s|$)`)

// Anchor is a line that looks like the start of a numbered question
type Anchor struct {
	LineIndex int
	Number    int
	RawLine   string
}

// Chunk is the raw text of one question, starting at a selected anchor
type Chunk struct {
	Number int
	Text   string // Leading number and separator stripped
	Anchor Anchor
}

// Segment splits text into question chunks. No anchors yields an empty result.
func Segment(text string) []Chunk {
	lines := splitLines(text)
	chain := LongestChain(FindAnchors(lines))
	if len(chain) == 0 {
		return nil
	}

	chunks := make([]Chunk, 0, len(chain))
	for i, a := range chain {
		end := len(lines)
		if i+1 < len(chain) {
			end = chain[i+1].LineIndex
		}

		body := make([]string, 0, end-a.LineIndex)
		body = append(body, stripAnchor(lines[a.LineIndex]))
		body = append(body, lines[a.LineIndex+1:end]...)

		chunks = append(chunks, Chunk{
			Number: a.Number,
			Text:   strings.TrimSpace(strings.Join(body, "\n")),
			Anchor: a,
		})
	}
	return chunks
}

// FindAnchors returns every line that looks like a numbered start, in line order
func FindAnchors(lines []string) []Anchor {
	var anchors []Anchor
	for i, line := range lines {
		if n, ok := anchorNumber(line); ok {
			anchors = append(anchors, Anchor{LineIndex: i, Number: n, RawLine: line})
		}
	}
	return anchors
}

// LongestChain selects the longest subsequence of anchors in which each step
// increases the number by 1..MaxGap. Ties resolve to the earliest anchors.
func LongestChain(anchors []Anchor) []Anchor {
	n := len(anchors)
	if n == 0 {
		return nil
	}

	dp := make([]int, n)
	prev := make([]int, n)
	best := 0
	for i := range anchors {
		dp[i] = 1
		prev[i] = -1
		for j := 0; j < i; j++ {
			gap := anchors[i].Number - anchors[j].Number
			if gap < 1 || gap > MaxGap {
				continue
			}
			if dp[j]+1 > dp[i] {
				dp[i] = dp[j] + 1
				prev[i] = j
			}
		}
		if dp[i] > dp[best] {
			best = i
		}
	}

	chain := make([]Anchor, dp[best])
	for i, k := best, dp[best]-1; i >= 0; i, k = prev[i], k-1 {
		chain[k] = anchors[i]
	}
	return chain
}

func anchorNumber(line string) (int, bool) {
	normalized := norm.NFKC.String(line)
	m := anchorPattern.FindStringSubmatchIndex(normalized)
	if m == nil {
		return 0, false
	}
	// "1.5 m/s" is a decimal, not an anchor
	if normalized[m[4]:m[5]] == "." && m[5] < len(normalized) && isDigit(normalized[m[5]]) {
		return 0, false
	}
	n, err := strconv.Atoi(normalized[m[2]:m[3]])
	if err != nil || n <= 0 || n >= MaxQuestionNumber {
		return 0, false
	}
	return n, true
}

// stripAnchor removes the leading number and separator from an anchor line.
// Prefix characters map one rune to one rune under NFKC, so the prefix length
// measured on the normalised line is skipped on the raw line.
func stripAnchor(line string) string {
	normalized := norm.NFKC.String(line)
	m := anchorPattern.FindStringIndex(normalized)
	if m == nil {
		return strings.TrimSpace(line)
	}

	skip := utf8.RuneCountInString(normalized[:m[1]])
	i := 0
	for ; skip > 0 && i < len(line); skip-- {
		_, size := utf8.DecodeRuneInString(line[i:])
		i += size
	}
	return strings.TrimSpace(line[i:])
}

// isPunctuatedAnchorLine accepts anchor lines whose number is closed by a
// bracket or a "." / "、" separator, not by bare whitespace
func isPunctuatedAnchorLine(line string) bool {
	if _, ok := anchorNumber(line); !ok {
		return false
	}
	normalized := norm.NFKC.String(line)
	m := anchorPattern.FindStringSubmatchIndex(normalized)
	return strings.TrimSpace(normalized[m[4]:m[5]]) != ""
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n")
}
