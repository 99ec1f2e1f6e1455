// File: internal/history/store.go
// Description: Optional PostgreSQL persistence of finished workflow runs.
// Failures here are logged by the caller and never abort automation; the
// screen work is done by the time a report reaches the store.
package history

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/screenpilot/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DBPool abstracts pgxpool.Pool so the store can be exercised against a
// mock in tests.
type DBPool interface {
	Ping(ctx context.Context) error
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
	Close()
}

// Store writes run reports to PostgreSQL.
type Store struct {
	pool DBPool
	log  *zap.Logger
}

// Connect opens a pool for the given URL and wraps it in a Store.
func Connect(ctx context.Context, url string, logger *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	return New(ctx, pool, logger)
}

// New creates a store over an existing pool and verifies the connection.
func New(ctx context.Context, pool DBPool, logger *zap.Logger) (*Store, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Store{
		pool: pool,
		log:  logger.Named("history"),
	}, nil
}

// Close releases the underlying pool.
func (s *Store) Close() {
	s.pool.Close()
}

// SaveReport persists one run row plus a row per objective outcome in a
// single transaction.
func (s *Store) SaveReport(ctx context.Context, report *schemas.WorkflowReport) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		// Rollback after Commit returns ErrTxClosed, which is not an error
		// worth reporting.
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			s.log.Error("Failed to rollback transaction", zap.Error(rollbackErr))
		}
	}()

	_, err = tx.Exec(ctx, `
		INSERT INTO runs (id, workflow, started_at, finished_at, succeeded, failed, skipped, success)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`, report.RunID, report.Workflow, report.StartedAt.UTC(), report.FinishedAt.UTC(),
		report.Succeeded, report.Failed, report.Skipped, report.Success)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	if err := s.persistObjectives(ctx, tx, report); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Store) persistObjectives(ctx context.Context, tx pgx.Tx, report *schemas.WorkflowReport) error {
	if len(report.Objectives) == 0 {
		return nil
	}

	rows := make([][]interface{}, len(report.Objectives))
	for i, obj := range report.Objectives {
		attempts, err := json.Marshal(obj.Attempts)
		if err != nil {
			return fmt.Errorf("failed to marshal attempts for objective %s: %w", obj.ObjectiveID, err)
		}
		if len(obj.Attempts) == 0 {
			attempts = []byte("[]")
		}
		rows[i] = []interface{}{
			report.RunID, i, obj.ObjectiveID, obj.Name,
			string(obj.Type), string(obj.Status), obj.Message, attempts,
		}
	}

	copyCount, err := tx.CopyFrom(
		ctx,
		pgx.Identifier{"run_objectives"},
		[]string{"run_id", "position", "objective_id", "name", "type", "status", "message", "attempts"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("failed to copy objective outcomes: %w", err)
	}
	if int(copyCount) != len(report.Objectives) {
		return fmt.Errorf("mismatch in copied objective count: expected %d, got %d", len(report.Objectives), copyCount)
	}
	return nil
}
