package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	arbor_models "github.com/ternarybob/arbor/models"

	"github.com/ternarybob/qbank/internal/app"
	"github.com/ternarybob/qbank/internal/common"
)

func main() {
	var paths []string
	if configPath := os.Getenv("QBANK_CONFIG"); configPath != "" {
		paths = append(paths, configPath)
	} else if _, err := os.Stat("qbank.toml"); err == nil {
		paths = append(paths, "qbank.toml")
	}

	config, err := common.LoadFromFiles(paths...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := config.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	// Console only at warn, stdout carries the MCP protocol
	logger := arbor.NewLogger().WithConsoleWriter(arbor_models.WriterConfiguration{
		Type:             arbor_models.LogWriterTypeConsole,
		TimeFormat:       "15:04:05",
		DisableTimestamp: false,
	}).WithLevelFromString("warn")

	application, err := app.New(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer application.Close()

	mcpServer := server.NewMCPServer(
		"qbank",
		common.Version,
		server.WithToolCapabilities(true),
	)

	// Text tools
	mcpServer.AddTool(createSegmentTextTool(), handleSegmentText(application, logger))
	mcpServer.AddTool(createClassifyQuestionTool(), handleClassifyQuestion(application))

	// Document extraction
	mcpServer.AddTool(createExtractQuestionsTool(), handleExtractQuestions(application, logger))

	// Question bank
	mcpServer.AddTool(createListQuestionsTool(), handleListQuestions(application, logger))
	mcpServer.AddTool(createGetQuestionTool(), handleGetQuestion(application, logger))

	// Start server (blocks on stdio)
	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Error().Err(err).Msg("MCP server failed")
		application.Close()
		os.Exit(1)
	}
}
