package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/qbank/internal/models"
	"github.com/ternarybob/qbank/internal/services/extraction"
)

var optionLetters = "ABCDEFGH"

func writeOptions(sb *strings.Builder, options []string) {
	for i, opt := range options {
		letter := fmt.Sprint(i + 1)
		if i < len(optionLetters) {
			letter = optionLetters[i : i+1]
		}
		sb.WriteString(fmt.Sprintf("- (%s) %s\n", letter, opt))
	}
}

// formatCandidates formats candidates as markdown; images are summarised, not embedded
func formatCandidates(title string, candidates []models.QuestionCandidate) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## %s (%d)\n\n", title, len(candidates)))

	if len(candidates) == 0 {
		sb.WriteString("No questions found.\n")
		return sb.String()
	}

	for _, c := range candidates {
		sb.WriteString(fmt.Sprintf("### %d. [%s] %s\n", c.Number, c.AnswerType, c.PredictedChapter))
		if !c.IsPhysicsLikely {
			sb.WriteString(fmt.Sprintf("**Not physics:** %s\n", c.StatusReason))
		}
		sb.WriteString(c.Content)
		sb.WriteString("\n\n")
		writeOptions(&sb, c.Options)
		if c.Answer != "" {
			sb.WriteString(fmt.Sprintf("**Answer:** %s\n", c.Answer))
		}
		if len(c.DiagramImage) > 0 || len(c.ReferenceImage) > 0 {
			sb.WriteString(fmt.Sprintf("**Images:** diagram %d bytes, reference %d bytes (page %d)\n",
				len(c.DiagramImage), len(c.ReferenceImage), c.PageIndex+1))
		}
		for _, sub := range c.SubQuestions {
			sb.WriteString(fmt.Sprintf("- (%d) [%s] %s\n", sub.Number, sub.AnswerType, sub.Content))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func formatClassification(chapter models.Chapter, physics bool, score int, reason string) string {
	var sb strings.Builder
	sb.WriteString("## Classification\n\n")
	sb.WriteString(fmt.Sprintf("**Chapter:** %s\n", chapter))
	sb.WriteString(fmt.Sprintf("**Physics:** %t\n", physics))
	sb.WriteString(fmt.Sprintf("**Score:** %d\n", score))
	if reason != "" {
		sb.WriteString(fmt.Sprintf("**Reason:** %s\n", reason))
	}
	return sb.String()
}

func formatExtraction(path string, result *extraction.Result) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("**File:** %s\n**Pages:** %d\n", path, result.Pages))
	for _, be := range result.BatchErrors {
		sb.WriteString(fmt.Sprintf("**Failed:** %s\n", be.Error()))
	}
	if len(result.Discards) > 0 {
		sb.WriteString(fmt.Sprintf("**Discarded:** %d items\n", len(result.Discards)))
	}
	sb.WriteString("\n")
	sb.WriteString(formatCandidates("Extracted questions", result.Candidates))
	return sb.String()
}

func formatQuestionList(questions []*models.Question) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Questions (%d)\n\n", len(questions)))

	if len(questions) == 0 {
		sb.WriteString("No questions found.\n")
		return sb.String()
	}

	for _, q := range questions {
		content := q.Content
		if r := []rune(content); len(r) > 80 {
			content = string(r[:80]) + "..."
		}
		sb.WriteString(fmt.Sprintf("- `%s` %s #%d [%s] %s: %s\n", q.ID, q.Source, q.Number, q.Type, q.Chapter, strings.ReplaceAll(content, "\n", " ")))
	}
	return sb.String()
}

func formatQuestion(q *models.Question) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s #%d\n\n", q.Source, q.Number))
	sb.WriteString(fmt.Sprintf("**ID:** %s\n", q.ID))
	sb.WriteString(fmt.Sprintf("**Chapter:** %s\n", q.Chapter))
	sb.WriteString(fmt.Sprintf("**Type:** %s\n", q.Type))
	if q.Unit != "" {
		sb.WriteString(fmt.Sprintf("**Unit:** %s\n", q.Unit))
	}
	sb.WriteString(fmt.Sprintf("**Updated:** %s\n\n", q.UpdatedAt.Format(time.RFC3339)))

	sb.WriteString(q.Content)
	sb.WriteString("\n\n")
	writeOptions(&sb, q.Options)
	if q.Answer != "" {
		sb.WriteString(fmt.Sprintf("\n**Answer:** %s\n", q.Answer))
	}
	if q.HasImage {
		sb.WriteString(fmt.Sprintf("**Image:** %d bytes\n", len(q.ImageData)))
	}

	for i, sub := range q.SubQuestions {
		sb.WriteString(fmt.Sprintf("\n### (%d)\n%s\n", i+1, sub.Content))
		writeOptions(&sb, sub.Options)
		if sub.Answer != "" {
			sb.WriteString(fmt.Sprintf("**Answer:** %s\n", sub.Answer))
		}
	}
	return sb.String()
}
