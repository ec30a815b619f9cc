package models

import (
	"strings"
	"unicode"
)

// Chapter is one entry of the fixed physics chapter vocabulary
type Chapter string

// Chapter vocabulary. Order is significant: classifier ties resolve to the earlier chapter.
const (
	ChapterUnclassified Chapter = "未分類"
	ChapterScience      Chapter = "第一章.科學的態度與方法"
	ChapterMotion       Chapter = "第二章.物體的運動"
	ChapterMatter       Chapter = "第三章. 物質的組成與交互作用"
	ChapterElectromag   Chapter = "第四章.電與磁的統一"
	ChapterEnergy       Chapter = "第五章. 能　量"
	ChapterQuantum      Chapter = "第六章.量子現象"
)

var chapters = []Chapter{
	ChapterUnclassified,
	ChapterScience,
	ChapterMotion,
	ChapterMatter,
	ChapterElectromag,
	ChapterEnergy,
	ChapterQuantum,
}

// Chapters returns the vocabulary in order, Unclassified first
func Chapters() []Chapter {
	out := make([]Chapter, len(chapters))
	copy(out, chapters)
	return out
}

// ClassifiedChapters returns the vocabulary without Unclassified
func ClassifiedChapters() []Chapter {
	return Chapters()[1:]
}

// IsValid reports whether c is an exact vocabulary member
func (c Chapter) IsValid() bool {
	for _, v := range chapters {
		if v == c {
			return true
		}
	}
	return false
}

func (c Chapter) String() string {
	return string(c)
}

// NormalizeChapter coerces free text (model output, tagged import headers) onto the vocabulary.
// Exact members pass through; otherwise whitespace-insensitive equality, then the
// leading 第N章 token is matched. Anything else becomes Unclassified.
func NormalizeChapter(s string) Chapter {
	if c := Chapter(s); c.IsValid() {
		return c
	}

	squashed := stripSpace(s)
	if squashed == "" {
		return ChapterUnclassified
	}
	for _, c := range chapters {
		if stripSpace(string(c)) == squashed {
			return c
		}
	}

	token := chapterToken(squashed)
	if token == "" {
		return ChapterUnclassified
	}
	for _, c := range chapters[1:] {
		if chapterToken(stripSpace(string(c))) == token {
			return c
		}
	}
	return ChapterUnclassified
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// chapterToken returns the "第N章" prefix or ""
func chapterToken(s string) string {
	if !strings.HasPrefix(s, "第") {
		return ""
	}
	end := strings.Index(s, "章")
	if end < 0 {
		return ""
	}
	return s[:end+len("章")]
}
