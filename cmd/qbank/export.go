package main

import (
	"fmt"
	"os"

	"github.com/ternarybob/qbank/internal/app"
)

func runExport(args []string) error {
	fs, g := newFlagSet("export", "[flags] -o exam.pdf")
	chapter, source, limit, offset := filterFlags(fs)
	output := fs.String("o", "", "Exam sheet PDF path (required)")
	answers := fs.String("answers", "", "Also write the answer sheet PDF here")
	title := fs.String("title", "", "Sheet title (overrides config)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *output == "" {
		fs.Usage()
		return fmt.Errorf("-o is required")
	}
	filter, err := buildFilter(*chapter, *source, *limit, *offset)
	if err != nil {
		return err
	}

	config, logger, err := g.setup(false)
	if err != nil {
		return err
	}
	if *title != "" {
		config.Export.Title = *title
	}

	application, err := app.New(config, logger)
	if err != nil {
		return err
	}
	defer application.Close()

	ctx, cancel := signalContext()
	defer cancel()

	questions, err := application.Questions().ListQuestions(ctx, filter)
	if err != nil {
		return err
	}
	if len(questions) == 0 {
		return fmt.Errorf("no questions match the filter")
	}

	exam, err := application.Export.ExamSheet(questions)
	if err != nil {
		return err
	}
	if err := os.WriteFile(*output, exam, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", *output, err)
	}
	logger.Info().Str("output", *output).Int("questions", len(questions)).Msg("Exam sheet written")

	if *answers != "" {
		sheet, err := application.Export.AnswerSheet(questions)
		if err != nil {
			return err
		}
		if err := os.WriteFile(*answers, sheet, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", *answers, err)
		}
		logger.Info().Str("output", *answers).Msg("Answer sheet written")
	}
	return nil
}
