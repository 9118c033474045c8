package logger

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/rizkirmdhn/vistopia/internal/common/config"
	"github.com/sirupsen/logrus"
)

// ComponentLogger wraps logrus.Logger to provide consistent component logging
type ComponentLogger struct {
	*logrus.Logger
	component string
	fields    logrus.Fields
}

// New creates a new logrus logger with standard configuration
func New(cfg *config.Config) *logrus.Logger {
	return NewWithWriter(cfg, os.Stderr)
}

// NewWithWriter creates a logger writing to out; colours are only forced on a terminal
func NewWithWriter(cfg *config.Config, out io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(out)

	level := logrus.Level(cfg.App.LogLevel)
	if level > logrus.TraceLevel {
		level = logrus.TraceLevel
	}
	log.SetLevel(level)
	log.SetFormatter(&logrus.TextFormatter{
		ForceColors:   isTerminal(out),
		FullTimestamp: true,
	})

	return log
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// NewComponentLogger creates a logger with a component field
func NewComponentLogger(log *logrus.Logger, component string) *ComponentLogger {
	return &ComponentLogger{
		Logger:    log,
		component: component,
		fields:    logrus.Fields{},
	}
}

// With returns a copy that adds fields to every entry, such as a run id
func (c *ComponentLogger) With(fields logrus.Fields) *ComponentLogger {
	merged := make(logrus.Fields, len(c.fields)+len(fields))
	for k, v := range c.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &ComponentLogger{
		Logger:    c.Logger,
		component: c.component,
		fields:    merged,
	}
}

// Component returns the component name
func (c *ComponentLogger) Component() string {
	return c.component
}

func (c *ComponentLogger) base() logrus.Fields {
	fields := make(logrus.Fields, len(c.fields)+1)
	for k, v := range c.fields {
		fields[k] = v
	}
	fields["component"] = c.component
	return fields
}

// WithField adds a field to the log entry
func (c *ComponentLogger) WithField(key string, value interface{}) *logrus.Entry {
	fields := c.base()
	fields[key] = value
	return c.Logger.WithFields(fields)
}

// WithFields adds multiple fields to the log entry, always including component
func (c *ComponentLogger) WithFields(fields logrus.Fields) *logrus.Entry {
	merged := c.base()
	for k, v := range fields {
		merged[k] = v
	}
	return c.Logger.WithFields(merged)
}

// WithError adds an error field to the log entry
func (c *ComponentLogger) WithError(err error) *logrus.Entry {
	fields := c.base()
	fields[logrus.ErrorKey] = err
	return c.Logger.WithFields(fields)
}

// Entry returns an entry carrying only the component and the bound fields
func (c *ComponentLogger) Entry() *logrus.Entry {
	return c.Logger.WithFields(c.base())
}
