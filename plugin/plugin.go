package plugin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// Args represents the plugin's configurable arguments.
type Args struct {
	ReportFilenamePattern    string   `envconfig:"PLUGIN_REPORT_FILENAME_PATTERN"`
	ShowSkippedTests         bool     `envconfig:"PLUGIN_SHOW_SKIPPED_TESTS"`
	ReportHeaders            []string `envconfig:"PLUGIN_REPORT_HEADERS"`
	SkippedTestReportHeaders []string `envconfig:"PLUGIN_SKIPPED_TEST_REPORT_HEADERS"`
	FailIfNoResults          bool     `envconfig:"PLUGIN_FAIL_IF_NO_RESULTS"`
	OutputFile               string   `envconfig:"PLUGIN_OUTPUT_FILE"`
	Level                    string   `envconfig:"PLUGIN_LOG_LEVEL"`

	RepoLink  string `envconfig:"DRONE_REPO_LINK"`
	CommitSHA string `envconfig:"DRONE_COMMIT_SHA"`
}

// ValidateInputs ensures the user inputs meet the plugin requirements.
func ValidateInputs(args Args) error {
	if strings.TrimSpace(args.ReportFilenamePattern) == "" {
		return errors.New("missing required parameter: ReportFilenamePattern. Please specify the pattern to locate the JUnit report files")
	}
	for _, h := range append(append([]string{}, args.ReportHeaders...), args.SkippedTestReportHeaders...) {
		if strings.TrimSpace(h) == "" {
			return errors.New("report headers must not be empty. Check the configured ReportHeaders and SkippedTestReportHeaders")
		}
	}
	switch strings.ToLower(args.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return errors.New("invalid LogLevel value. It must be one of debug, info, warn or error")
	}
	return nil
}

// createOutput opens the markdown output file.
var createOutput = func(name string) (io.WriteCloser, error) {
	return os.Create(name)
}

// Exec parses the JUnit reports, writes the markdown summary and fails when
// any test failed or errored.
func Exec(ctx context.Context, args Args) (err error) {
	files, err := locateFiles(args.ReportFilenamePattern)
	if err != nil {
		logger := logrus.WithError(err)
		logger.Error("Error locating files")
		return errors.New("failed to locate files: " + err.Error())
	}

	if len(files) == 0 {
		if args.FailIfNoResults {
			return errors.New("no JUnit XML report files found. Check the report file pattern")
		}
		logrus.Warn("No JUnit XML report files found, continuing execution as FailIfNoResults is false")
		return nil
	}

	report, err := ParseFiles(files)
	if err != nil {
		return fmt.Errorf("failed to process reports: %w", err)
	}

	results := report.Results()
	logrus.Infof("\n===============================================")
	logrus.Infof("\nTotal Tests Results: %d | Passes: %d | Failures: %d | Errors: %d | Skips: %d", results.Total, results.Passes, results.Failures, results.Errors, results.Skipped)
	logrus.Infof("\n===============================================")

	sink := &LogSink{}
	if args.OutputFile != "" {
		out, createErr := createOutput(args.OutputFile)
		if createErr != nil {
			logger := logrus.WithError(createErr).WithField("File", args.OutputFile)
			logger.Error("Failed to create output file")
			return errors.New("failed to create output file: " + createErr.Error())
		}
		defer func() {
			if closeErr := out.Close(); closeErr != nil {
				logger := logrus.WithError(closeErr).WithField("File", args.OutputFile)
				logger.Error("Failed to close output file")
				err = errors.Join(err, fmt.Errorf("failed to close output file: %w", closeErr))
			}
		}()
		sink.Out = out
	}

	reporter := NewReporter(sink, ReporterOptions{
		ShowSkipped:    args.ShowSkippedTests,
		Headers:        trimHeaders(args.ReportHeaders),
		SkippedHeaders: trimHeaders(args.SkippedTestReportHeaders),
		Link:           FileLinker(args.RepoLink, args.CommitSHA),
	})
	renderErr := reporter.Report(report)

	if err := sink.Err(); err != nil {
		if sink.Failed() {
			logger := logrus.WithFields(logrus.Fields{
				"Total Tests": results.Total,
				"Failures":    results.Failures,
				"Errors":      results.Errors,
			})
			logger.Error("Build marked as failed")
		}
		return errors.Join(err, renderErr)
	}
	return renderErr
}

// locateFiles resolves a comma-separated list of glob patterns and literal
// paths. Literal paths are kept even when they do not exist so the parser can
// report them.
func locateFiles(patterns string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)
	for _, pattern := range strings.Split(patterns, ",") {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		if !hasMeta(pattern) {
			if !seen[pattern] {
				seen[pattern] = true
				files = append(files, pattern)
			}
			continue
		}
		matches, err := filepath.Glob(pattern)
		if err != nil {
			logger := logrus.WithError(err).WithField("Pattern", pattern)
			logger.Error("Error occurred while searching for files")
			return nil, errors.New("failed to search for files: " + err.Error())
		}
		if len(matches) == 0 {
			logrus.WithField("Pattern", pattern).Warn("No files found matching the report filename pattern")
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	return files, nil
}

// trimHeaders strips the blanks envconfig leaves around list items.
func trimHeaders(headers []string) []string {
	if len(headers) == 0 {
		return nil
	}
	out := make([]string, len(headers))
	for i, h := range headers {
		out[i] = strings.TrimSpace(h)
	}
	return out
}

func hasMeta(path string) bool {
	return strings.ContainsAny(path, `*?[\`)
}
