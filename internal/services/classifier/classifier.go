// Package classifier assigns a chapter and a physics-likelihood flag to
// question text by keyword matching against a static table.
package classifier

import (
	"fmt"
	"strings"

	"github.com/ternarybob/qbank/internal/models"
)

// Classification is the classifier's verdict for one question
type Classification struct {
	Chapter         models.Chapter
	IsPhysicsLikely bool
	Reason          string
	Score           int // Distinct keyword hits for Chapter
}

type chapterTerms struct {
	chapter models.Chapter
	terms   []string
}

// Classifier matches lower-cased text against a lower-cased private copy of a KeywordTable
type Classifier struct {
	chapters []chapterTerms
	generic  []string
	exclude  []string
	rescue   []string
}

// New builds a Classifier. The table is copied; later changes to it have no effect.
func New(table *KeywordTable) *Classifier {
	c := &Classifier{
		generic: lowerAll(table.Generic),
		exclude: lowerAll(table.Exclude),
		rescue:  lowerAll(table.Rescue),
	}
	for _, ch := range table.Chapters {
		c.chapters = append(c.chapters, chapterTerms{chapter: ch.Chapter, terms: lowerAll(ch.Keywords)})
	}
	return c
}

// Classify scores the stem and options. The result chapter is always in the vocabulary.
func (c *Classifier) Classify(stem string, options []string) Classification {
	text := combine(stem, options)

	if hit, excluded := c.excluded(text); excluded {
		return Classification{
			Chapter: models.ChapterUnclassified,
			Reason:  fmt.Sprintf("non-physics keyword %q", hit),
		}
	}

	best, bestScore := -1, 0
	for i, ch := range c.chapters {
		if score := countHits(text, ch.terms); score > bestScore {
			best, bestScore = i, score
		}
	}
	if best >= 0 {
		return Classification{
			Chapter:         c.chapters[best].chapter,
			IsPhysicsLikely: true,
			Reason:          fmt.Sprintf("%d keyword match(es)", bestScore),
			Score:           bestScore,
		}
	}

	if firstHit(text, c.generic) != "" || firstHit(text, c.rescue) != "" {
		return Classification{
			Chapter:         models.ChapterUnclassified,
			IsPhysicsLikely: true,
			Reason:          "physics vocabulary without chapter match, needs confirmation",
		}
	}

	return Classification{
		Chapter: models.ChapterUnclassified,
		Reason:  "no physics keywords",
	}
}

// Excluded reports the first non-physics keyword in text unless a rescue keyword is also present
func (c *Classifier) Excluded(text string) (string, bool) {
	return c.excluded(strings.ToLower(text))
}

func (c *Classifier) excluded(lowered string) (string, bool) {
	hit := firstHit(lowered, c.exclude)
	if hit == "" {
		return "", false
	}
	if firstHit(lowered, c.rescue) != "" {
		return "", false
	}
	return hit, true
}

// CombineText joins stem and options the way Classify sees them
func CombineText(stem string, options []string) string {
	return combine(stem, options)
}

func combine(stem string, options []string) string {
	if len(options) == 0 {
		return strings.ToLower(stem)
	}
	return strings.ToLower(stem + " " + strings.Join(options, " "))
}

func countHits(text string, terms []string) int {
	n := 0
	for _, t := range terms {
		if strings.Contains(text, t) {
			n++
		}
	}
	return n
}

func firstHit(text string, terms []string) string {
	for _, t := range terms {
		if strings.Contains(text, t) {
			return t
		}
	}
	return ""
}

func lowerAll(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		out = append(out, strings.ToLower(strings.TrimSpace(t)))
	}
	return out
}
