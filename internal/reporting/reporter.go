// File: internal/reporting/reporter.go
package reporting

import (
	"fmt"
	"io"
	"os"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/screenpilot/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Reporter writes a finished workflow report to an output.
type Reporter interface {
	// Write renders the report.
	Write(report *schemas.WorkflowReport) error
	// Close finalizes the report and closes any underlying resources.
	Close() error
}

// nopWriteCloser wraps an io.Writer and provides a no-op Close method.
type nopWriteCloser struct {
	io.Writer
}

func (nwc *nopWriteCloser) Close() error {
	return nil
}

// New creates a reporter for the given format and output path. An empty or
// "stdout" path writes to standard output.
func New(format, outputPath string) (Reporter, error) {
	var writer io.WriteCloser
	isStdOut := outputPath == "" || outputPath == "stdout"

	if isStdOut {
		writer = &nopWriteCloser{os.Stdout}
	} else {
		f, err := os.Create(outputPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create output file %s: %w", outputPath, err)
		}
		writer = f
	}

	switch format {
	case "json":
		return &jsonReporter{out: writer}, nil
	case "text":
		return &textReporter{out: writer}, nil
	default:
		if !isStdOut {
			writer.Close()
		}
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// jsonReporter emits the report as indented JSON, suitable for further
// automation.
type jsonReporter struct {
	out io.WriteCloser
}

func (r *jsonReporter) Write(report *schemas.WorkflowReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	data = append(data, '\n')
	_, err = r.out.Write(data)
	return err
}

func (r *jsonReporter) Close() error {
	return r.out.Close()
}

// textReporter emits a human readable summary. Every objective appears with
// an explicit outcome so "failed after retries", "skipped as unsupported"
// and "succeeded" are distinguishable without reading logs.
type textReporter struct {
	out io.WriteCloser
}

func (r *textReporter) Write(report *schemas.WorkflowReport) error {
	w := r.out
	if _, err := fmt.Fprintf(w, "Workflow: %s (run %s)\n", report.Workflow, report.RunID); err != nil {
		return err
	}
	fmt.Fprintf(w, "Duration: %s\n\n", report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond))

	for _, obj := range report.Objectives {
		marker := " "
		switch obj.Status {
		case schemas.OutcomeSuccess:
			marker = "+"
		case schemas.OutcomeFailed:
			marker = "x"
		case schemas.OutcomeSkipped:
			marker = "-"
		}
		fmt.Fprintf(w, "  [%s] %-10s %s (%s)", marker, obj.Status, obj.ObjectiveID, obj.Type)
		if obj.Message != "" {
			fmt.Fprintf(w, ": %s", obj.Message)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "\nSucceeded: %d  Failed: %d  Skipped: %d\n", report.Succeeded, report.Failed, report.Skipped)
	if report.Success {
		fmt.Fprintln(w, "Overall: SUCCESS")
	} else {
		fmt.Fprintln(w, "Overall: FAILURE")
	}
	return nil
}

func (r *textReporter) Close() error {
	return r.out.Close()
}
