// Package logging configures the process-wide logrus logger used by the command line and
// the mock service.
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/petstore-harness/petstore-contract-tests/framework"

	"github.com/sirupsen/logrus"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

// New returns a logger writing to out at the given level ("debug", "info", ...) in the
// given format.
func New(level, format string, out io.Writer) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(out)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	logger.SetLevel(lvl)

	switch strings.ToLower(format) {
	case FormatJSON:
		logger.SetFormatter(&logrus.JSONFormatter{})
	case FormatText, "":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}
	return logger, nil
}

// ForComponent returns a framework.Logger that tags every message with a component name.
func ForComponent(logger *logrus.Logger, component string) framework.Logger {
	return logger.WithField("component", component)
}
