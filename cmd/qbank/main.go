package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/qbank/internal/common"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

type command struct {
	name  string
	usage string
	run   func(args []string) error
}

var commands = []command{
	{"extract", "Extract question candidates from a PDF or DOCX exam", runExtract},
	{"segment", "Split plain text into classified question candidates", runSegment},
	{"import", "Import a tagged Word document into the question bank", runImport},
	{"save", "Store reviewed candidates from an extract JSON file", runSave},
	{"list", "List stored questions", runList},
	{"delete", "Delete stored questions by ID", runDelete},
	{"export", "Render stored questions as exam and answer sheet PDFs", runExport},
	{"version", "Print version information", runVersion},
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	name := os.Args[1]
	for _, cmd := range commands {
		if cmd.name != name {
			continue
		}
		err := cmd.run(os.Args[2:])
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "qbank %s: %v\n", name, err)
			os.Exit(1)
		}
		return
	}

	if name != "-h" && name != "-help" && name != "help" {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", name)
	}
	usage()
	os.Exit(2)
}

func usage() {
	var b strings.Builder
	b.WriteString("Usage: qbank <command> [flags]\n\nCommands:\n")
	for _, cmd := range commands {
		fmt.Fprintf(&b, "  %-9s %s\n", cmd.name, cmd.usage)
	}
	b.WriteString("\nRun 'qbank <command> -h' for command flags.\n")
	fmt.Fprint(os.Stderr, b.String())
}

// globalFlags are registered on every sub-command
type globalFlags struct {
	configFiles configPaths
	logLevel    string
	batchSize   int
	rasterizer  string
}

func newFlagSet(name, args string) (*flag.FlagSet, *globalFlags) {
	g := &globalFlags{}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Var(&g.configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	fs.Var(&g.configFiles, "c", "Configuration file path (shorthand)")
	fs.StringVar(&g.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: qbank %s %s\n\n", name, args)
		fs.PrintDefaults()
	}
	return fs, g
}

// setup loads config (defaults -> files -> env -> flags) and builds the logger.
// quiet suppresses the banner and drops the default level to warn, for
// commands whose result goes to stdout.
func (g *globalFlags) setup(quiet bool) (*common.Config, arbor.ILogger, error) {
	if len(g.configFiles) == 0 {
		if _, err := os.Stat("qbank.toml"); err == nil {
			g.configFiles = append(g.configFiles, "qbank.toml")
		} else if _, err := os.Stat("deployments/local/qbank.toml"); err == nil {
			g.configFiles = append(g.configFiles, "deployments/local/qbank.toml")
		}
	}

	config, err := common.LoadFromFiles(g.configFiles...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logLevel := g.logLevel
	if quiet && logLevel == "" {
		logLevel = "warn"
	}
	common.ApplyFlagOverrides(config, logLevel, g.batchSize, g.rasterizer)

	if err := config.Validate(); err != nil {
		return nil, nil, err
	}

	logger := common.InitLogger(config)
	if !quiet {
		common.PrintBanner(common.Version)
	}

	logger.Debug().
		Strs("config_files", g.configFiles).
		Str("log_level", config.Logging.Level).
		Int("batch_size", config.Extraction.BatchSize).
		Str("rasterizer", config.Extraction.Rasterizer).
		Str("badger_path", config.Storage.Badger.Path).
		Msg("Resolved configuration (sanitized)")

	return config, logger, nil
}
