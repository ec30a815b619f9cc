package main

import (
	"fmt"

	"github.com/ternarybob/qbank/internal/app"
	"github.com/ternarybob/qbank/internal/services/extraction"
)

func runSegment(args []string) error {
	fs, g := newFlagSet("segment", "[flags] <text-file|->")
	output := fs.String("o", "", "Write the candidates JSON to this file (default: stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("expected one text file, or - for stdin")
	}

	text, err := readInput(fs.Arg(0))
	if err != nil {
		return err
	}

	config, logger, err := g.setup(*output == "")
	if err != nil {
		return err
	}
	application, err := app.New(config, logger, app.WithoutStorage())
	if err != nil {
		return err
	}
	defer application.Close()

	candidates := application.Offline.Candidates(string(text))
	logger.Info().Int("candidates", len(candidates)).Msg("Text segmented")

	return writeJSON(*output, newExtractOutput("", &extraction.Result{Candidates: candidates}))
}
