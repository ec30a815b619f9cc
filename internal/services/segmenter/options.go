package segmenter

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// optionMarker matches "(A)" through "(E)" in half- or full-width form
var optionMarker = regexp.MustCompile(`[(（]\s*([A-EＡ-Ｅ])\s*[)）]`)

// SplitOptions separates "(A) ... (B) ..." choices from the stem.
// At least two markers in A, B, C order are required, otherwise the whole
// text is returned as the stem with no options. The last option ends at the
// first following line numbered with explicit punctuation, such as "21." or
// "(21)"; a wrapped line like "10 m/s" stays part of the option.
func SplitOptions(raw string) (string, []string) {
	text := strings.TrimSpace(raw)

	start := -1
	for _, loc := range optionMarker.FindAllStringSubmatchIndex(text, -1) {
		if markerLetter(text[loc[2]:loc[3]]) == 'A' {
			start = loc[0]
			break
		}
	}
	if start < 0 {
		return text, nil
	}

	stem := strings.TrimSpace(text[:start])
	region := text[start:]

	var picks [][]int
	want := 'A'
	for _, loc := range optionMarker.FindAllStringSubmatchIndex(region, -1) {
		if markerLetter(region[loc[2]:loc[3]]) == want {
			picks = append(picks, loc)
			want++
		}
	}
	if len(picks) < 2 {
		return text, nil
	}

	region = region[:numberedLineAfter(region, picks[len(picks)-1][1])]

	options := make([]string, len(picks))
	for i, loc := range picks {
		end := len(region)
		if i+1 < len(picks) {
			end = picks[i+1][0]
		}
		options[i] = strings.Join(strings.Fields(region[loc[1]:end]), " ")
	}
	return stem, options
}

// numberedLineAfter returns the offset of the first line starting after from
// that is numbered with explicit punctuation, or len(region)
func numberedLineAfter(region string, from int) int {
	offset := 0
	for _, line := range strings.SplitAfter(region, "\n") {
		if offset > from && isPunctuatedAnchorLine(line) {
			return offset
		}
		offset += len(line)
	}
	return len(region)
}

// markerLetter folds a full-width option letter to ASCII
func markerLetter(s string) rune {
	r, _ := utf8.DecodeRuneInString(norm.NFKC.String(s))
	return r
}

// leadingMarker matches "(A)", "（Ａ）", "A." or "A、" at the start of an option
var leadingMarker = regexp.MustCompile(`^\s*(?:[(（]\s*[A-Ea-eＡ-Ｅ]\s*[)）]|[A-Ea-e]\s*[.、．])\s*`)

// StripOptionMarker removes a leading choice label from option text
func StripOptionMarker(s string) string {
	return strings.TrimSpace(leadingMarker.ReplaceAllString(s, ""))
}
