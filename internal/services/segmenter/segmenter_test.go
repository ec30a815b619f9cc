package segmenter

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegment_StrayAnchorExcluded(t *testing.T) {
	text := "1. What is velocity?\n(A) m/s\n(B) m\n21. Unrelated noise line\n2. Newton's second law states...\n(A) F=ma\n(B) F=m/a"

	chunks := Segment(text)
	require.Len(t, chunks, 2)

	assert.Equal(t, 1, chunks[0].Number)
	assert.Equal(t, 2, chunks[1].Number)

	stem, opts := SplitOptions(chunks[0].Text)
	assert.Equal(t, "What is velocity?", stem)
	assert.Equal(t, []string{"m/s", "m"}, opts)

	stem, opts = SplitOptions(chunks[1].Text)
	assert.Equal(t, "Newton's second law states...", stem)
	assert.Equal(t, []string{"F=ma", "F=m/a"}, opts)
}

func TestSegment_WrappedNumericOptionLine(t *testing.T) {
	text := "1. 一物體的末速度為何？\n(A) 末速度為\n10 m/s\n(B) 20 m/s\n(C) 30 m/s\n2. 質量為何？\n(A) 5 kg\n(B) 10 kg"

	chunks := Segment(text)
	require.Len(t, chunks, 2)

	stem, opts := SplitOptions(chunks[0].Text)
	assert.Equal(t, "一物體的末速度為何？", stem)
	assert.Equal(t, []string{"末速度為 10 m/s", "20 m/s", "30 m/s"}, opts)

	_, opts = SplitOptions(chunks[1].Text)
	assert.Equal(t, []string{"5 kg", "10 kg"}, opts)
}

func TestIsPunctuatedAnchorLine(t *testing.T) {
	assert.True(t, isPunctuatedAnchorLine("21. next"))
	assert.True(t, isPunctuatedAnchorLine("3、next"))
	assert.True(t, isPunctuatedAnchorLine("(7) next"))
	assert.True(t, isPunctuatedAnchorLine("【8】next"))
	assert.False(t, isPunctuatedAnchorLine("10 m/s"))
	assert.False(t, isPunctuatedAnchorLine("5 kg"))
	assert.False(t, isPunctuatedAnchorLine("1.5 m/s"))
	assert.False(t, isPunctuatedAnchorLine("plain"))
}

func TestSegment_NoAnchors(t *testing.T) {
	assert.Empty(t, Segment(""))
	assert.Empty(t, Segment("no numbers here\njust prose"))
}

func TestSegment_FullWidthAndBrackets(t *testing.T) {
	text := "說明文字\n１．第一題\n內容續行\n（２）第二題\n【3】第三題"

	chunks := Segment(text)
	require.Len(t, chunks, 3)
	assert.Equal(t, "第一題\n內容續行", chunks[0].Text)
	assert.Equal(t, "第二題", chunks[1].Text)
	assert.Equal(t, 3, chunks[2].Number)
	assert.Equal(t, "第三題", chunks[2].Text)
}

func TestFindAnchors(t *testing.T) {
	lines := []string{
		"1. a",
		"2、b",
		"3 c",
		"1.5 m/s is not an anchor",
		"0. zero is out of range",
		"200. too large",
		"199. largest allowed",
		"2024年 not an anchor",
		"(7) bracketed",
	}

	anchors := FindAnchors(lines)
	var numbers []int
	for _, a := range anchors {
		numbers = append(numbers, a.Number)
	}
	assert.Equal(t, []int{1, 2, 3, 199, 7}, numbers)
	assert.Equal(t, 8, anchors[4].LineIndex)
	assert.Equal(t, "(7) bracketed", anchors[4].RawLine)
}

func TestLongestChain_TiesPreferEarliest(t *testing.T) {
	anchors := []Anchor{
		{LineIndex: 0, Number: 1},
		{LineIndex: 1, Number: 1},
		{LineIndex: 2, Number: 2},
	}
	chain := LongestChain(anchors)
	require.Len(t, chain, 2)
	assert.Equal(t, 0, chain[0].LineIndex)
	assert.Equal(t, 2, chain[1].LineIndex)

	assert.Nil(t, LongestChain(nil))
}

func TestLongestChain_GapTolerance(t *testing.T) {
	anchors := []Anchor{
		{LineIndex: 0, Number: 1},
		{LineIndex: 1, Number: 6},
		{LineIndex: 2, Number: 12},
		{LineIndex: 3, Number: 7},
	}
	chain := LongestChain(anchors)
	assert.Equal(t, []int{1, 6, 7}, chainNumbers(chain))
}

func chainNumbers(chain []Anchor) []int {
	out := make([]int, len(chain))
	for i, a := range chain {
		out[i] = a.Number
	}
	return out
}

func validChain(chain []Anchor) bool {
	for i := 1; i < len(chain); i++ {
		gap := chain[i].Number - chain[i-1].Number
		if gap < 1 || gap > MaxGap || chain[i].LineIndex <= chain[i-1].LineIndex {
			return false
		}
	}
	return true
}

// bruteForceLongest enumerates every subsequence
func bruteForceLongest(anchors []Anchor) int {
	best := 0
	for mask := 1; mask < 1<<len(anchors); mask++ {
		var sub []Anchor
		for i := range anchors {
			if mask&(1<<i) != 0 {
				sub = append(sub, anchors[i])
			}
		}
		if validChain(sub) && len(sub) > best {
			best = len(sub)
		}
	}
	return best
}

func TestLongestChain_MatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 300; trial++ {
		n := rng.Intn(11)
		anchors := make([]Anchor, n)
		for i := range anchors {
			anchors[i] = Anchor{LineIndex: i, Number: 1 + rng.Intn(15)}
		}

		chain := LongestChain(anchors)
		assert.True(t, validChain(chain), "trial %d: %v", trial, chainNumbers(chain))
		assert.Equal(t, bruteForceLongest(anchors), len(chain), "trial %d", trial)
	}
}

func TestSplitOptions(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantStem string
		wantOpts []string
	}{
		{
			name:     "inline markers",
			raw:      "下列何者正確？(A)甲 (B)乙 (C)丙",
			wantStem: "下列何者正確？",
			wantOpts: []string{"甲", "乙", "丙"},
		},
		{
			name:     "full-width parentheses",
			raw:      "速度單位為何？\n（Ａ）m/s\n（Ｂ）m",
			wantStem: "速度單位為何？",
			wantOpts: []string{"m/s", "m"},
		},
		{
			name:     "single marker is not an option list",
			raw:      "如圖(A)所示，求電流。",
			wantStem: "如圖(A)所示，求電流。",
		},
		{
			name:     "no markers",
			raw:      "  填充題：g = ____ m/s²  ",
			wantStem: "填充題：g = ____ m/s²",
		},
		{
			name:     "out of order letters stay in the option text",
			raw:      "Q (A) one (C) x (B) two",
			wantStem: "Q",
			wantOpts: []string{"one (C) x", "two"},
		},
		{
			name:     "multi-line option text is joined",
			raw:      "stem\n(A) first\nline\n(B) second",
			wantStem: "stem",
			wantOpts: []string{"first line", "second"},
		},
		{
			name:     "wrapped option line starting with a number",
			raw:      "一物體由靜止以等加速度運動，求末速度？\n(A) 末速度為\n10 m/s\n(B) 20 m/s\n(C) 30 m/s",
			wantStem: "一物體由靜止以等加速度運動，求末速度？",
			wantOpts: []string{"末速度為 10 m/s", "20 m/s", "30 m/s"},
		},
		{
			name:     "numbered line after the last option ends it",
			raw:      "stem\n(A) 5 kg\n(B) 10 kg\n21. 下一題的殘留",
			wantStem: "stem",
			wantOpts: []string{"5 kg", "10 kg"},
		},
		{
			name:     "bracketed number after the last option ends it",
			raw:      "stem\n(A) one\n(B) two\n（21）stray",
			wantStem: "stem",
			wantOpts: []string{"one", "two"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stem, opts := SplitOptions(tt.raw)
			assert.Equal(t, tt.wantStem, stem)
			assert.Equal(t, tt.wantOpts, opts)
		})
	}
}

func TestStripOptionMarker(t *testing.T) {
	tests := map[string]string{
		"(A) 10 m/s":    "10 m/s",
		"（Ｂ）向東":        "向東",
		"C. 3 J":        "3 J",
		"d、無法判斷":       "無法判斷",
		"Acceleration":  "Acceleration",
		"  plain text ": "plain text",
	}
	for in, want := range tests {
		assert.Equal(t, want, StripOptionMarker(in), in)
	}
}
