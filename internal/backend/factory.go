package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"teamfin/internal/amqp"
	"teamfin/internal/sheets"
	gsheet "teamfin/internal/sheets/google"
	ledgermem "teamfin/internal/sheets/memory"
	"teamfin/internal/storage"
	"teamfin/internal/storage/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		result *BackendResult
		err    error
	)
	switch config.Type {
	case SQLiteBackend:
		result, err = f.createSQLiteBackend(config)
	case MemoryBackend:
		result = f.createMemoryBackend()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	f.attachPublisher(ctx, config, result)
	return result, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	sqliteRepo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Store:   sqliteRepo,
		Cleanup: sqliteRepo.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend() *BackendResult {
	f.logger.Info("Initialized memory backend")
	return &BackendResult{
		Store:   memory.New(),
		Cleanup: func() error { return nil },
	}
}

// attachPublisher connects the event publisher. The API keeps working without
// one, so connection failures only disable events.
func (f *DefaultFactory) attachPublisher(ctx context.Context, config Config, result *BackendResult) {
	if config.AMQPURL == "" {
		f.logger.InfoContext(ctx, "AMQP not configured, domain events will not be published")
		return
	}
	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without events", "error", err)
		return
	}
	f.logger.InfoContext(ctx, "Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)

	result.Publisher = client
	storeCleanup := result.Cleanup
	result.Cleanup = func() error {
		return errors.Join(client.Close(), storeCleanup())
	}
}

// CreateLedger implements Factory.CreateLedger
func (f *DefaultFactory) CreateLedger(ctx context.Context, config Config) (sheets.LedgerWriter, error) {
	if config.GoogleSpreadsheetID == "" {
		f.logger.WarnContext(ctx, "GOOGLE_SPREADSHEET_ID not set, ledger rows are kept in memory only")
		return ledgermem.New(), nil
	}
	cli, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   config.GoogleSpreadsheetID,
		SheetName:       config.GoogleSheetName,
		CredentialsJSON: config.GoogleServiceAccountJSON,
		CredentialsFile: config.GoogleServiceAccountFile,
		OAuthClientJSON: config.GoogleOAuthClientJSON,
		OAuthClientFile: config.GoogleOAuthClientFile,
		OAuthTokenFile:  config.GoogleOAuthTokenFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	f.logger.InfoContext(ctx, "Initialized Google Sheets ledger", "sheet", config.GoogleSheetName)
	return cli, nil
}
