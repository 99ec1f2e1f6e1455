// File: internal/reporting/reporter_test.go
package reporting

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/screenpilot/api/schemas"
)

func sampleReport() *schemas.WorkflowReport {
	started := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	return &schemas.WorkflowReport{
		RunID:      "run-123",
		Workflow:   "smoke",
		StartedAt:  started,
		FinishedAt: started.Add(3 * time.Second),
		Objectives: []schemas.ObjectiveResult{
			{ObjectiveID: "open", Type: schemas.ActionLaunchApplication, Status: schemas.OutcomeSuccess, Message: "process is running"},
			{ObjectiveID: "click", Type: schemas.ActionClickTemplate, Status: schemas.OutcomeFailed, Message: "template never appeared"},
			{ObjectiveID: "future", Type: "teleport", Status: schemas.OutcomeSkipped, Message: "unsupported objective type"},
		},
		Succeeded: 1,
		Failed:    1,
		Skipped:   1,
		Success:   false,
	}
}

func TestJSONReporter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	r, err := New("json", path)
	require.NoError(t, err)

	require.NoError(t, r.Write(sampleReport()))
	require.NoError(t, r.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded schemas.WorkflowReport
	require.NoError(t, jsoniter.Unmarshal(data, &decoded))
	assert.Equal(t, "run-123", decoded.RunID)
	assert.Len(t, decoded.Objectives, 3)
	assert.False(t, decoded.Success)
}

func TestTextReporterDistinguishesOutcomes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.txt")
	r, err := New("text", path)
	require.NoError(t, err)

	require.NoError(t, r.Write(sampleReport()))
	require.NoError(t, r.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)

	assert.Contains(t, out, "Workflow: smoke (run run-123)")
	assert.Contains(t, out, "Duration: 3s")
	assert.Contains(t, out, "[+] success")
	assert.Contains(t, out, "[x] failed")
	assert.Contains(t, out, "[-] skipped")
	assert.Contains(t, out, "template never appeared")
	assert.Contains(t, out, "Succeeded: 1  Failed: 1  Skipped: 1")
	assert.Contains(t, out, "Overall: FAILURE")
}

func TestTextReporterSuccessSummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.txt")
	r, err := New("text", path)
	require.NoError(t, err)

	report := sampleReport()
	report.Objectives = report.Objectives[:1]
	report.Failed, report.Skipped = 0, 0
	report.Success = true
	require.NoError(t, r.Write(report))
	require.NoError(t, r.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Overall: SUCCESS")
}

func TestNewStdoutReporter(t *testing.T) {
	r, err := New("text", "stdout")
	require.NoError(t, err)
	assert.NoError(t, r.Close(), "stdout is never really closed")

	r, err = New("json", "")
	require.NoError(t, err)
	assert.NoError(t, r.Close())
}

func TestNewUnsupportedFormat(t *testing.T) {
	_, err := New("xml", "stdout")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}
