package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rxtech-lab/argo-insight/internal/logger"
	"github.com/rxtech-lab/argo-insight/internal/types"
	"github.com/rxtech-lab/argo-insight/pkg/errors"
	"go.uber.org/zap"
)

// SQLiteStore indexes artifacts in a SQLite table. The full artifact is kept
// as a JSON payload next to the indexed columns.
type SQLiteStore struct {
	db     *sql.DB
	sq     squirrel.StatementBuilderType
	logger *logger.Logger
}

// NewSQLiteStore opens (or creates) the database at path.
func NewSQLiteStore(path string, log *logger.Logger) (*SQLiteStore, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open sqlite", err)
	}

	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS analyses (
			id         TEXT PRIMARY KEY,
			symbol     TEXT NOT NULL,
			data_type  TEXT NOT NULL,
			start_date TEXT NOT NULL,
			end_date   TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			advice     TEXT NOT NULL,
			payload    TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_analyses_symbol ON analyses (symbol, created_at);
	`)
	if err != nil {
		db.Close()

		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to create analyses table", err)
	}

	log.Info("Opened analysis index", zap.String("path", path))

	return &SQLiteStore{
		db:     db,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
		logger: log,
	}, nil
}

// Save inserts or replaces the artifact and returns sqlite://<id>.
func (s *SQLiteStore) Save(ctx context.Context, analysis types.Analysis) (string, error) {
	payload, err := json.Marshal(analysis)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeArtifactWriteFailed, "failed to encode analysis", err)
	}

	_, err = s.sq.Insert("analyses").
		Options("OR REPLACE").
		Columns("id", "symbol", "data_type", "start_date", "end_date", "created_at", "advice", "payload").
		Values(analysis.ID, strings.ToUpper(analysis.Symbol), string(analysis.DataType), analysis.StartDate,
			analysis.EndDate, analysis.CreatedAt.UnixNano(), analysis.Advice, string(payload)).
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeArtifactWriteFailed, "failed to insert analysis", err)
	}

	return "sqlite://" + analysis.ID, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (types.Analysis, error) {
	var payload string

	err := s.sq.Select("payload").
		From("analyses").
		Where(squirrel.Eq{"id": id}).
		RunWith(s.db).
		QueryRowContext(ctx).
		Scan(&payload)
	if err == sql.ErrNoRows {
		return types.Analysis{}, notFound(id)
	}

	if err != nil {
		return types.Analysis{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query analysis", err)
	}

	var analysis types.Analysis
	if err := json.Unmarshal([]byte(payload), &analysis); err != nil {
		return types.Analysis{}, errors.Wrapf(errors.ErrCodeQueryFailed, err, "corrupt analysis %s", id)
	}

	if err := checkCompatible(analysis); err != nil {
		return types.Analysis{}, err
	}

	return analysis, nil
}

func (s *SQLiteStore) List(ctx context.Context, symbol string) ([]types.Analysis, error) {
	query := s.sq.Select("payload").From("analyses").OrderBy("created_at DESC")
	if symbol != "" {
		query = query.Where(squirrel.Eq{"symbol": strings.ToUpper(symbol)})
	}

	rows, err := query.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to list analyses", err)
	}
	defer rows.Close()

	analyses := []types.Analysis{}

	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan analysis", err)
		}

		var analysis types.Analysis
		if err := json.Unmarshal([]byte(payload), &analysis); err != nil {
			s.logger.Warn("Skipping corrupt analysis row", zap.Error(err))

			continue
		}

		analyses = append(analyses, analysis)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to read analyses", err)
	}

	return analyses, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
