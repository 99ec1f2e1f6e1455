// File: internal/history/store_test.go
package history

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/screenpilot/api/schemas"
)

// flexibleSQLMatcher builds a whitespace-insensitive regex for SQL matching.
func flexibleSQLMatcher(sql string) string {
	trimmed := strings.TrimSpace(sql)
	return regexp.MustCompile(`\s+`).ReplaceAllString(regexp.QuoteMeta(trimmed), `\s+`)
}

var objectiveColumns = []string{"run_id", "position", "objective_id", "name", "type", "status", "message", "attempts"}

func sampleReport() *schemas.WorkflowReport {
	started := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	return &schemas.WorkflowReport{
		RunID:      uuid.NewString(),
		Workflow:   "smoke",
		StartedAt:  started,
		FinishedAt: started.Add(42 * time.Second),
		Objectives: []schemas.ObjectiveResult{
			{
				ObjectiveID: "o1", Name: "Open", Type: schemas.ActionLaunchApplication,
				Status: schemas.OutcomeSuccess, Message: "process is running",
				Attempts: []schemas.AttemptOutcome{
					{ActionType: schemas.ActionLaunchApplication, Attempt: 1, Success: true, Message: "ok"},
				},
			},
			{
				ObjectiveID: "o2", Name: "Click", Type: schemas.ActionClickTemplate,
				Status: schemas.OutcomeFailed, Message: "template never appeared",
			},
		},
		Succeeded: 1,
		Failed:    1,
		Success:   false,
	}
}

func TestNewStorePingFailure(t *testing.T) {
	mockPool, err := pgxmock.NewPool(pgxmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer mockPool.Close()

	pingErr := errors.New("database unavailable")
	mockPool.ExpectPing().WillReturnError(pingErr)

	_, err = New(context.Background(), mockPool, zap.NewNop())
	require.Error(t, err)
	assert.ErrorIs(t, err, pingErr)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestSaveReportSuccess(t *testing.T) {
	mockPool, err := pgxmock.NewPool(pgxmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer mockPool.Close()

	mockPool.ExpectPing()
	store, err := New(context.Background(), mockPool, zap.NewNop())
	require.NoError(t, err)

	report := sampleReport()

	mockPool.ExpectBegin()
	mockPool.ExpectExec(flexibleSQLMatcher(`INSERT INTO runs`)).
		WithArgs(report.RunID, report.Workflow, report.StartedAt.UTC(), report.FinishedAt.UTC(),
			report.Succeeded, report.Failed, report.Skipped, report.Success).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mockPool.ExpectCopyFrom(pgx.Identifier{"run_objectives"}, objectiveColumns).
		WillReturnResult(2)
	// Commit, then the deferred rollback that closes as a no-op.
	mockPool.ExpectCommit()
	mockPool.ExpectRollback().WillReturnError(pgx.ErrTxClosed)

	require.NoError(t, store.SaveReport(context.Background(), report))
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestSaveReportEmptyObjectivesSkipsCopy(t *testing.T) {
	mockPool, err := pgxmock.NewPool(pgxmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer mockPool.Close()

	mockPool.ExpectPing()
	store, err := New(context.Background(), mockPool, zap.NewNop())
	require.NoError(t, err)

	report := sampleReport()
	report.Objectives = nil

	mockPool.ExpectBegin()
	mockPool.ExpectExec(flexibleSQLMatcher(`INSERT INTO runs`)).
		WithArgs(report.RunID, report.Workflow, report.StartedAt.UTC(), report.FinishedAt.UTC(),
			report.Succeeded, report.Failed, report.Skipped, report.Success).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mockPool.ExpectCommit()
	mockPool.ExpectRollback().WillReturnError(pgx.ErrTxClosed)

	require.NoError(t, store.SaveReport(context.Background(), report))
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestSaveReportInsertFailureRollsBack(t *testing.T) {
	mockPool, err := pgxmock.NewPool(pgxmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer mockPool.Close()

	mockPool.ExpectPing()
	store, err := New(context.Background(), mockPool, zap.NewNop())
	require.NoError(t, err)

	report := sampleReport()

	mockPool.ExpectBegin()
	mockPool.ExpectExec(flexibleSQLMatcher(`INSERT INTO runs`)).
		WithArgs(report.RunID, report.Workflow, report.StartedAt.UTC(), report.FinishedAt.UTC(),
			report.Succeeded, report.Failed, report.Skipped, report.Success).
		WillReturnError(errors.New("constraint violation"))
	mockPool.ExpectRollback()

	err = store.SaveReport(context.Background(), report)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to insert run")
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestSaveReportCopyCountMismatch(t *testing.T) {
	mockPool, err := pgxmock.NewPool(pgxmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer mockPool.Close()

	mockPool.ExpectPing()
	store, err := New(context.Background(), mockPool, zap.NewNop())
	require.NoError(t, err)

	report := sampleReport()

	mockPool.ExpectBegin()
	mockPool.ExpectExec(flexibleSQLMatcher(`INSERT INTO runs`)).
		WithArgs(report.RunID, report.Workflow, report.StartedAt.UTC(), report.FinishedAt.UTC(),
			report.Succeeded, report.Failed, report.Skipped, report.Success).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mockPool.ExpectCopyFrom(pgx.Identifier{"run_objectives"}, objectiveColumns).
		WillReturnResult(1)
	mockPool.ExpectRollback()

	err = store.SaveReport(context.Background(), report)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mismatch in copied objective count")
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestSaveReportBeginFailure(t *testing.T) {
	mockPool, err := pgxmock.NewPool(pgxmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer mockPool.Close()

	mockPool.ExpectPing()
	store, err := New(context.Background(), mockPool, zap.NewNop())
	require.NoError(t, err)

	mockPool.ExpectBegin().WillReturnError(errors.New("too many connections"))

	err = store.SaveReport(context.Background(), sampleReport())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to begin transaction")
}
