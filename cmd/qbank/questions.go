package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/ternarybob/qbank/internal/app"
	"github.com/ternarybob/qbank/internal/interfaces"
	"github.com/ternarybob/qbank/internal/models"
	"github.com/ternarybob/qbank/internal/services/documents"
	"github.com/ternarybob/qbank/internal/storage/badger"
)

func runImport(args []string) error {
	fs, g := newFlagSet("import", "[flags] <tagged.docx>")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("expected one .docx path")
	}

	data, err := readInput(fs.Arg(0))
	if err != nil {
		return err
	}

	config, logger, err := g.setup(false)
	if err != nil {
		return err
	}

	questions, err := documents.ParseTaggedDocx(data)
	if err != nil {
		return err
	}

	application, err := app.New(config, logger)
	if err != nil {
		return err
	}
	defer application.Close()

	ctx, cancel := signalContext()
	defer cancel()

	store := application.Questions()
	for i := range questions {
		if err := store.SaveQuestion(ctx, &questions[i]); err != nil {
			return fmt.Errorf("failed to save question %d: %w", i+1, err)
		}
	}

	logger.Info().Str("file", fs.Arg(0)).Int("questions", len(questions)).Msg("Tagged document imported")
	return nil
}

func runSave(args []string) error {
	fs, g := newFlagSet("save", "[flags] <candidates.json|->")
	source := fs.String("source", "", "Source label (default: the file recorded by extract)")
	all := fs.Bool("all", false, "Also store candidates not flagged as physics")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("expected one JSON path")
	}

	data, err := readInput(fs.Arg(0))
	if err != nil {
		return err
	}
	reviewed, err := parseCandidates(data)
	if err != nil {
		return err
	}

	config, logger, err := g.setup(false)
	if err != nil {
		return err
	}
	application, err := app.New(config, logger)
	if err != nil {
		return err
	}
	defer application.Close()

	ctx, cancel := signalContext()
	defer cancel()

	label := *source
	if label == "" {
		label = strings.TrimSuffix(reviewed.File, filepath.Ext(reviewed.File))
	}
	saved, err := saveCandidates(ctx, application.Questions(), reviewed.Candidates, label, *all, logger)
	if err != nil {
		return err
	}

	logger.Info().Int("saved", saved).Int("candidates", len(reviewed.Candidates)).Msg("Candidates stored")
	return nil
}

// parseCandidates accepts extract output or a bare candidate array
func parseCandidates(data []byte) (*extractOutput, error) {
	var out extractOutput
	if err := json.Unmarshal(data, &out); err == nil {
		return &out, nil
	}

	var list []models.QuestionCandidate
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to parse candidates: %w", err)
	}
	return &extractOutput{Candidates: list}, nil
}

// filterFlags registers the flags shared by list and export
func filterFlags(fs *flag.FlagSet) (*string, *string, *int, *int) {
	var chapter, source string
	var limit, offset int
	fs.StringVar(&chapter, "chapter", "", "Only questions in this chapter (e.g. 第二章)")
	fs.StringVar(&source, "source", "", "Only questions from this source")
	fs.IntVar(&limit, "limit", 0, "Maximum questions (0 = all)")
	fs.IntVar(&offset, "offset", 0, "Skip this many questions")
	return &chapter, &source, &limit, &offset
}

func buildFilter(chapter, source string, limit, offset int) (*interfaces.QuestionFilter, error) {
	filter := &interfaces.QuestionFilter{Source: source, Limit: limit, Offset: offset}
	if chapter = strings.TrimSpace(chapter); chapter != "" {
		ch := models.NormalizeChapter(chapter)
		if ch == models.ChapterUnclassified && chapter != string(models.ChapterUnclassified) {
			return nil, fmt.Errorf("unknown chapter %q", chapter)
		}
		filter.Chapter = ch
	}
	return filter, nil
}

func runList(args []string) error {
	fs, g := newFlagSet("list", "[flags]")
	chapter, source, limit, offset := filterFlags(fs)
	asJSON := fs.Bool("json", false, "Print JSON instead of a table")
	if err := fs.Parse(args); err != nil {
		return err
	}
	filter, err := buildFilter(*chapter, *source, *limit, *offset)
	if err != nil {
		return err
	}

	config, logger, err := g.setup(true)
	if err != nil {
		return err
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

	if *asJSON {
		return writeJSON("", questions)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSOURCE\tNO\tTYPE\tCHAPTER\tCONTENT")
	for _, q := range questions {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\n", q.ID, q.Source, q.Number, q.Type, q.Chapter, preview(q.Content, 30))
	}
	return tw.Flush()
}

func runDelete(args []string) error {
	fs, g := newFlagSet("delete", "[flags] <id>...")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return fmt.Errorf("expected at least one question ID")
	}

	config, logger, err := g.setup(true)
	if err != nil {
		return err
	}
	application, err := app.New(config, logger)
	if err != nil {
		return err
	}
	defer application.Close()

	ctx, cancel := signalContext()
	defer cancel()

	var missing []string
	for _, id := range fs.Args() {
		err := application.Questions().DeleteQuestion(ctx, id)
		switch {
		case errors.Is(err, badger.ErrQuestionNotFound):
			missing = append(missing, id)
		case err != nil:
			return err
		default:
			fmt.Printf("deleted %s\n", id)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("questions not found: %s", strings.Join(missing, ", "))
	}
	return nil
}

// preview returns the first line of s cut to n runes
func preview(s string, n int) string {
	s, _, _ = strings.Cut(strings.TrimSpace(s), "\n")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "…"
}
