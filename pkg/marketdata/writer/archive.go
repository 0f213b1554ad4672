package writer

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-insight/internal/logger"
	"github.com/rxtech-lab/argo-insight/internal/types"
	"github.com/rxtech-lab/argo-insight/pkg/errors"
	"go.uber.org/zap"
)

// ArchiveWriter keeps one parquet file per symbol and interval and merges
// every download into it. A bar that already exists for the same symbol and
// time is replaced.
type ArchiveWriter struct {
	db         *sql.DB
	outputPath string
	logger     *logger.Logger
	mu         sync.Mutex
}

// ArchiveFileName is SYMBOL_INTERVAL.parquet.
func ArchiveFileName(symbol, interval string) string {
	return fmt.Sprintf("%s_%s.parquet", symbol, interval)
}

// NewArchiveWriter creates a writer for the archive of symbol at interval in dataDir.
func NewArchiveWriter(dataDir, symbol, interval string, log *logger.Logger) *ArchiveWriter {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &ArchiveWriter{
		outputPath: filepath.Join(dataDir, ArchiveFileName(symbol, interval)),
		logger:     log,
	}
}

// Initialize opens DuckDB and loads the existing archive if there is one.
func (w *ArchiveWriter) Initialize() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(w.outputPath), 0755); err != nil {
		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to create data directory", err)
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to open DuckDB connection", err)
	}

	_, err = db.Exec(`
		CREATE TABLE market_data (
			id TEXT,
			time TIMESTAMP,
			symbol TEXT,
			open DOUBLE,
			high DOUBLE,
			low DOUBLE,
			close DOUBLE,
			volume DOUBLE,
			amount DOUBLE,
			open_interest DOUBLE,
			settle DOUBLE,
			PRIMARY KEY (symbol, time)
		)
	`)
	if err != nil {
		db.Close()

		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to create table", err)
	}

	if _, statErr := os.Stat(w.outputPath); statErr == nil {
		_, err = db.Exec(fmt.Sprintf(`
			INSERT INTO market_data
			SELECT * FROM read_parquet('%s')
			ON CONFLICT (symbol, time) DO NOTHING
		`, quote(w.outputPath)))
		if err != nil {
			// an unreadable archive is rebuilt from the new bars
			w.logger.Warn("Failed to load existing archive", zap.String("path", w.outputPath), zap.Error(err))
		}
	}

	w.db = db

	return nil
}

// Write upserts one bar.
func (w *ArchiveWriter) Write(bar types.Bar) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.db == nil {
		return errors.New(errors.ErrCodeMarketDataWriteFailed, "writer not initialized")
	}

	_, err := w.db.Exec(`
		INSERT INTO market_data (id, time, symbol, open, high, low, close, volume, amount, open_interest, settle)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (symbol, time) DO UPDATE SET
			id = excluded.id,
			open = excluded.open,
			high = excluded.high,
			low = excluded.low,
			close = excluded.close,
			volume = excluded.volume,
			amount = excluded.amount,
			open_interest = excluded.open_interest,
			settle = excluded.settle
	`, uuid.New().String(), bar.Time, bar.Symbol, bar.Open, bar.High, bar.Low, bar.Close, bar.Volume,
		nullable(bar.Amount), nullable(bar.OpenInterest), nullable(bar.Settle))
	if err != nil {
		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to upsert bar", err)
	}

	return nil
}

// Finalize rewrites the archive file with the merged table.
func (w *ArchiveWriter) Finalize() (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.db == nil {
		return "", errors.New(errors.ErrCodeMarketDataWriteFailed, "writer not initialized")
	}

	_, err := w.db.Exec(fmt.Sprintf(`COPY (SELECT * FROM market_data ORDER BY time) TO '%s' (FORMAT PARQUET)`, quote(w.outputPath)))
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to export archive", err)
	}

	var count int
	if err := w.db.QueryRow(`SELECT count(*) FROM market_data`).Scan(&count); err == nil {
		w.logger.Info("Archive updated", zap.String("path", w.outputPath), zap.Int("bars", count))
	}

	return w.outputPath, nil
}

// GetOutputPath returns the parquet file path.
func (w *ArchiveWriter) GetOutputPath() string {
	return w.outputPath
}

// Close releases database resources.
func (w *ArchiveWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.db == nil {
		return nil
	}

	err := w.db.Close()
	w.db = nil

	if err != nil {
		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to close database", err)
	}

	return nil
}

func quote(path string) string {
	return strings.ReplaceAll(path, "'", "''")
}

var _ MarketDataWriter = (*ArchiveWriter)(nil)
