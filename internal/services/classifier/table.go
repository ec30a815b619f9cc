package classifier

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ternarybob/qbank/internal/models"
)

//go:embed keywords.yaml
var defaultKeywords []byte

// ChapterKeywords lists the terms that vote for one chapter
type ChapterKeywords struct {
	Chapter  models.Chapter `yaml:"chapter"`
	Keywords []string       `yaml:"keywords"`
}

// KeywordTable is the classifier's static data. Chapter order is the tie-break order.
type KeywordTable struct {
	Chapters []ChapterKeywords `yaml:"chapters"`
	Generic  []string          `yaml:"generic"`
	Exclude  []string          `yaml:"exclude"`
	Rescue   []string          `yaml:"rescue"`
}

// ParseTable decodes and validates a YAML keyword table
func ParseTable(data []byte) (*KeywordTable, error) {
	var table KeywordTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to parse keyword table: %w", err)
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return &table, nil
}

// LoadTable reads a keyword table from disk
func LoadTable(path string) (*KeywordTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keyword table %s: %w", path, err)
	}
	return ParseTable(data)
}

// DefaultTable returns the embedded keyword table
func DefaultTable() (*KeywordTable, error) {
	return ParseTable(defaultKeywords)
}

// MustDefaultTable panics if the embedded table is invalid
func MustDefaultTable() *KeywordTable {
	table, err := DefaultTable()
	if err != nil {
		panic(err)
	}
	return table
}

// Validate checks every chapter belongs to the vocabulary and appears once
func (t *KeywordTable) Validate() error {
	if len(t.Chapters) == 0 {
		return fmt.Errorf("keyword table has no chapters")
	}
	seen := make(map[models.Chapter]bool)
	for i, ch := range t.Chapters {
		if !ch.Chapter.IsValid() || ch.Chapter == models.ChapterUnclassified {
			return fmt.Errorf("keyword table entry %d: %q is not a classifiable chapter", i, ch.Chapter)
		}
		if seen[ch.Chapter] {
			return fmt.Errorf("keyword table entry %d: duplicate chapter %q", i, ch.Chapter)
		}
		seen[ch.Chapter] = true
		if err := checkTerms(string(ch.Chapter), ch.Keywords); err != nil {
			return err
		}
	}
	for name, terms := range map[string][]string{"generic": t.Generic, "exclude": t.Exclude, "rescue": t.Rescue} {
		if err := checkTerms(name, terms); err != nil {
			return err
		}
	}
	return nil
}

func checkTerms(name string, terms []string) error {
	for i, term := range terms {
		if strings.TrimSpace(term) == "" {
			return fmt.Errorf("keyword table %s: term %d is empty", name, i)
		}
	}
	return nil
}
