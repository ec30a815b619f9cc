package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/qbank/internal/app"
	"github.com/ternarybob/qbank/internal/common"
	"github.com/ternarybob/qbank/internal/interfaces"
	"github.com/ternarybob/qbank/internal/models"
	"github.com/ternarybob/qbank/internal/services/extraction"
	"github.com/ternarybob/qbank/internal/storage/badger"
)

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

// handleSegmentText implements the segment_text tool
func handleSegmentText(a *app.App, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := request.RequireString("text")
		if err != nil || strings.TrimSpace(text) == "" {
			return textResult("Error: text parameter is required"), nil
		}

		candidates := a.Offline.Candidates(text)
		logger.Debug().Int("candidates", len(candidates)).Msg("segment_text")
		return textResult(formatCandidates("Segmented questions", candidates)), nil
	}
}

// handleClassifyQuestion implements the classify_question tool
func handleClassifyQuestion(a *app.App) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		stem, err := request.RequireString("stem")
		if err != nil {
			return textResult("Error: stem parameter is required"), nil
		}
		options := request.GetStringSlice("options", nil)

		c := a.Classifier.Classify(stem, options)
		return textResult(formatClassification(c.Chapter, c.IsPhysicsLikely, c.Score, c.Reason)), nil
	}
}

// handleExtractQuestions implements the extract_questions tool
func handleExtractQuestions(a *app.App, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path, err := request.RequireString("path")
		if err != nil || path == "" {
			return textResult("Error: path parameter is required"), nil
		}

		docType, err := extraction.DetectDocumentType(path)
		if err != nil {
			return textResult(fmt.Sprintf("Error: %v", err)), nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return textResult(fmt.Sprintf("Error: failed to read %s: %v", path, err)), nil
		}

		var result *extraction.Result
		if request.GetBool("offline", false) {
			result, err = a.Offline.Extract(ctx, data, docType)
		} else {
			key := common.ResolveGeminiAPIKey(request.GetString("api_key", ""), a.Config)
			result, err = a.Extraction.Extract(ctx, extraction.Request{Document: data, Type: docType, APIKey: key})
		}
		if err != nil {
			logger.Error().Err(err).Str("path", path).Msg("Extraction failed")
			return textResult(fmt.Sprintf("Extraction error: %v", err)), nil
		}

		return textResult(formatExtraction(path, result)), nil
	}
}

// handleListQuestions implements the list_questions tool
func handleListQuestions(a *app.App, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		limit := request.GetInt("limit", 20)
		if limit <= 0 || limit > 200 {
			limit = 200
		}

		filter := &interfaces.QuestionFilter{
			Source: request.GetString("source", ""),
			Limit:  limit,
		}
		if chapter := strings.TrimSpace(request.GetString("chapter", "")); chapter != "" {
			filter.Chapter = models.NormalizeChapter(chapter)
		}

		questions, err := a.Questions().ListQuestions(ctx, filter)
		if err != nil {
			logger.Error().Err(err).Msg("List questions failed")
			return textResult(fmt.Sprintf("List error: %v", err)), nil
		}

		return textResult(formatQuestionList(questions)), nil
	}
}

// handleGetQuestion implements the get_question tool
func handleGetQuestion(a *app.App, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("question_id")
		if err != nil || id == "" {
			return textResult("Error: question_id parameter is required"), nil
		}

		q, err := a.Questions().GetQuestion(ctx, id)
		if errors.Is(err, badger.ErrQuestionNotFound) {
			return textResult(fmt.Sprintf("Question not found: %s", id)), nil
		}
		if err != nil {
			logger.Error().Err(err).Str("question_id", id).Msg("GetQuestion failed")
			return textResult(fmt.Sprintf("Error: %v", err)), nil
		}

		return textResult(formatQuestion(q)), nil
	}
}
