package plugin

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// FailureMessage is sent to the sink when any test failed or errored.
const FailureMessage = "Tests have failed, see below for more information."

// Sink receives the output of a Reporter.
type Sink interface {
	Warn(msg string)
	Fail(msg string)
	Markdown(msg string)
}

// ReporterOptions configures a Reporter.
type ReporterOptions struct {
	ShowSkipped    bool
	Headers        []string
	SkippedHeaders []string
	Link           Linker
}

// Reporter turns a parsed Report into warnings, failures and markdown tables.
type Reporter struct {
	sink Sink
	opts ReporterOptions
}

// NewReporter returns a Reporter writing to sink.
func NewReporter(sink Sink, opts ReporterOptions) *Reporter {
	return &Reporter{sink: sink, opts: opts}
}

// Report emits the skipped table when enabled, then fails the build and
// emits the tests table when anything failed or errored. The two tables are
// independent: a header error on one does not suppress the other. The first
// render error is returned.
func (r *Reporter) Report(report *Report) error {
	var firstErr error

	if r.opts.ShowSkipped && len(report.Skipped) > 0 {
		r.sink.Warn(fmt.Sprintf("Skipped %d tests.", len(report.Skipped)))
		table, err := Render(report.Skipped, r.opts.SkippedHeaders, r.opts.Link)
		if err != nil {
			logrus.WithError(err).WithField("Skipped", len(report.Skipped)).Error("Failed to render skipped tests")
			firstErr = err
		} else {
			r.sink.Markdown("### Skipped:\n\n" + table)
		}
	}

	if len(report.Failures) > 0 || len(report.Errors) > 0 {
		r.sink.Fail(FailureMessage)
		tests := make([]TestCase, 0, len(report.Failures)+len(report.Errors))
		tests = append(tests, report.Failures...)
		tests = append(tests, report.Errors...)
		table, err := Render(tests, r.opts.Headers, r.opts.Link)
		if err != nil {
			logger := logrus.WithError(err).WithFields(logrus.Fields{
				"Failures": len(report.Failures),
				"Errors":   len(report.Errors),
			})
			logger.Error("Failed to render failed tests")
			if firstErr == nil {
				firstErr = err
			}
		} else {
			r.sink.Markdown("### Tests:\n\n" + table)
		}
	}

	return firstErr
}
