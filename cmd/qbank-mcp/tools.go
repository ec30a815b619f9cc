package main

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// createSegmentTextTool returns the segment_text tool definition
func createSegmentTextTool() mcp.Tool {
	return mcp.NewTool("segment_text",
		mcp.WithDescription("Split exam text into numbered questions, parse (A)-(D) options and classify each by physics chapter"),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Plain text of an exam, one question per numbered line (1. 2、 (3) ...)"),
		),
	)
}

// createClassifyQuestionTool returns the classify_question tool definition
func createClassifyQuestionTool() mcp.Tool {
	return mcp.NewTool("classify_question",
		mcp.WithDescription("Predict the physics chapter of a question and whether it is physics at all"),
		mcp.WithString("stem",
			mcp.Required(),
			mcp.Description("Question stem"),
		),
		mcp.WithArray("options",
			mcp.WithStringItems(),
			mcp.Description("Option texts without (A) markers"),
		),
	)
}

// createExtractQuestionsTool returns the extract_questions tool definition
func createExtractQuestionsTool() mcp.Tool {
	return mcp.NewTool("extract_questions",
		mcp.WithDescription("Extract question candidates from a local PDF or DOCX exam file"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Absolute path to a .pdf or .docx file"),
		),
		mcp.WithBoolean("offline",
			mcp.Description("Use keyword segmentation of DOCX/OCR text instead of the vision model (default: false)"),
		),
		mcp.WithString("api_key",
			mcp.Description("Gemini API key (default: environment, then config)"),
		),
	)
}

// createListQuestionsTool returns the list_questions tool definition
func createListQuestionsTool() mcp.Tool {
	return mcp.NewTool("list_questions",
		mcp.WithDescription("List stored questions, optionally filtered by chapter or source"),
		mcp.WithString("chapter",
			mcp.Description("Chapter name or prefix, e.g. 第二章"),
		),
		mcp.WithString("source",
			mcp.Description("Source label"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max results (default: 20, max: 200)"),
		),
	)
}

// createGetQuestionTool returns the get_question tool definition
func createGetQuestionTool() mcp.Tool {
	return mcp.NewTool("get_question",
		mcp.WithDescription("Retrieve a stored question by ID"),
		mcp.WithString("question_id",
			mcp.Required(),
			mcp.Description("Question ID (format: q_{uuid})"),
		),
	)
}
