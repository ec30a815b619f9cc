package app

import (
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/qbank/internal/common"
	"github.com/ternarybob/qbank/internal/interfaces"
	"github.com/ternarybob/qbank/internal/services/classifier"
	"github.com/ternarybob/qbank/internal/services/documents"
	"github.com/ternarybob/qbank/internal/services/export"
	"github.com/ternarybob/qbank/internal/services/extraction"
	"github.com/ternarybob/qbank/internal/services/llm"
	"github.com/ternarybob/qbank/internal/services/ocr"
	"github.com/ternarybob/qbank/internal/storage"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	Classifier *classifier.Classifier
	Providers  *llm.ProviderFactory
	Extraction *extraction.Service
	Offline    *extraction.OfflineService
	Export     *export.Service

	ocr interfaces.OCREngine
}

// Option customises App construction
type Option func(*options)

type options struct {
	withoutStorage bool
}

// WithoutStorage skips opening the question store, for commands that never touch it
func WithoutStorage() Option {
	return func(o *options) { o.withoutStorage = true }
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if !o.withoutStorage {
		if err := app.initDatabase(); err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
	}

	if err := app.initServices(); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	logger.Debug().
		Bool("storage", app.StorageManager != nil).
		Bool("ocr", app.ocr != nil).
		Str("rasterizer", cfg.Extraction.Rasterizer).
		Msg("Application initialization complete")

	return app, nil
}

// initDatabase initializes the storage layer (Badger)
func (a *App) initDatabase() error {
	storageManager, err := storage.NewStorageManager(a.Logger, a.Config)
	if err != nil {
		return fmt.Errorf("failed to create storage manager: %w", err)
	}

	a.StorageManager = storageManager
	a.Logger.Debug().
		Str("storage", "badger").
		Str("path", a.Config.Storage.Badger.Path).
		Msg("Storage layer initialized")
	return nil
}

// initServices initializes services in dependency order
func (a *App) initServices() error {
	table, err := a.keywordTable()
	if err != nil {
		return err
	}
	a.Classifier = classifier.New(table)

	extractionConfig, err := extraction.NewConfig(a.Config)
	if err != nil {
		return err
	}

	rasterizer := func() (interfaces.Rasterizer, error) {
		return documents.NewRasterizer(&a.Config.Extraction, a.Logger)
	}

	a.Providers = llm.NewProviderFactory(&a.Config.Gemini, &a.Config.Claude, a.Logger)
	a.Extraction = extraction.NewService(extractionConfig, a.Providers.VisionModel, rasterizer, a.Classifier, a.Logger)

	// OCR is optional; without it the offline path only reads DOCX
	if client, err := ocr.New(&a.Config.OCR, a.Logger); err != nil {
		a.Logger.Debug().Err(err).Msg("OCR engine not available")
	} else {
		a.ocr = client
	}
	a.Offline = extraction.NewOfflineService(rasterizer, a.ocr, a.Classifier, a.Logger)

	a.Export = export.NewService(&a.Config.Export, a.Logger)
	return nil
}

func (a *App) keywordTable() (*classifier.KeywordTable, error) {
	if path := a.Config.Classifier.KeywordsFile; path != "" {
		table, err := classifier.LoadTable(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load keyword table: %w", err)
		}
		a.Logger.Info().Str("path", path).Msg("Loaded keyword table")
		return table, nil
	}
	return classifier.DefaultTable()
}

// Questions returns the question store, or nil when storage was skipped
func (a *App) Questions() interfaces.QuestionStorage {
	if a.StorageManager == nil {
		return nil
	}
	return a.StorageManager.QuestionStorage()
}

// Close closes all application resources
func (a *App) Close() error {
	if a.ocr != nil {
		if err := a.ocr.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close OCR engine")
		}
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.Logger.Debug().Msg("Storage closed")
	}
	return nil
}
