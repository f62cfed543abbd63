package plugin

import (
	"errors"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// LogSink writes Reporter output to the build log and, when Out is set, the
// markdown blocks to Out. Failures are latched and surfaced by Err.
type LogSink struct {
	Out io.Writer

	failures []string
	writeErr error
}

// Warn logs a warning.
func (s *LogSink) Warn(msg string) {
	logrus.Warn(msg)
}

// Fail logs and records a build failure.
func (s *LogSink) Fail(msg string) {
	logrus.Error(msg)
	s.failures = append(s.failures, msg)
}

// Markdown logs a markdown block and appends it to Out.
func (s *LogSink) Markdown(msg string) {
	logrus.Info("\n" + msg)
	if s.Out == nil || s.writeErr != nil {
		return
	}
	if _, err := io.WriteString(s.Out, msg+"\n"); err != nil {
		logrus.WithError(err).Error("Failed to write markdown output")
		s.writeErr = err
	}
}

// Failed reports whether Fail was called.
func (s *LogSink) Failed() bool {
	return len(s.failures) > 0
}

// Err returns the recorded failures and any output write error.
func (s *LogSink) Err() error {
	var errs []error
	if len(s.failures) > 0 {
		errs = append(errs, errors.New(strings.Join(s.failures, "\n")))
	}
	if s.writeErr != nil {
		errs = append(errs, errors.New("failed to write markdown output: "+s.writeErr.Error()))
	}
	return errors.Join(errs...)
}
