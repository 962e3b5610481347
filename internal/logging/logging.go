// Package logging builds the logrus logger used across histmigrate and
// provides helpers that attach component and phase fields to entries.
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// Field keys attached to every entry written through the helpers.
const (
	FieldComponent = "component"
	FieldPhase     = "phase"
	FieldError     = "error"
)

// New returns a text logger writing to w at level.
func New(w io.Writer, level logrus.Level) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)
	log.SetLevel(level)
	log.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
		DisableQuote:     true,
	})
	return log
}

// Discard returns a logger that drops everything.
func Discard() *logrus.Logger {
	return New(io.Discard, logrus.PanicLevel)
}

// LevelFor maps the verbosity flags to a level. Quiet wins over verbose.
func LevelFor(verbose, quiet bool) logrus.Level {
	switch {
	case quiet:
		return logrus.ErrorLevel
	case verbose:
		return logrus.DebugLevel
	default:
		return logrus.WarnLevel
	}
}

// ParseLevel parses a level name; an empty name means warn.
func ParseLevel(s string) (logrus.Level, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return logrus.WarnLevel, nil
	}
	level, err := logrus.ParseLevel(s)
	if err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

// Phase returns an entry tagged with component and phase.
func Phase(log logrus.FieldLogger, component, phase string) *logrus.Entry {
	return log.WithFields(logrus.Fields{
		FieldComponent: component,
		FieldPhase:     phase,
	})
}

// Error logs err at error level.
func Error(log logrus.FieldLogger, err error, component, phase, msg string) {
	Phase(log, component, phase).WithField(FieldError, err).Error(msg)
}

// Warn logs err at warn level.
func Warn(log logrus.FieldLogger, err error, component, phase, msg string) {
	Phase(log, component, phase).WithField(FieldError, err).Warn(msg)
}

// Info logs msg at info level.
func Info(log logrus.FieldLogger, component, phase, msg string) {
	Phase(log, component, phase).Info(msg)
}
