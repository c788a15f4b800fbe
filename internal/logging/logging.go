package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"scandium/internal/config"
)

// New builds a logger from the log configuration. Output goes to stdout,
// which the Lambda runtime forwards to CloudWatch.
func New(cfg config.LogConfig) (*logrus.Logger, error) {
	logger := logrus.New()
	if err := apply(logger, cfg, os.Stdout); err != nil {
		return nil, err
	}
	return logger, nil
}

// ConfigureStandard applies the configuration to the logrus standard logger,
// which the HTTP middleware logs through.
func ConfigureStandard(cfg config.LogConfig) error {
	return apply(logrus.StandardLogger(), cfg, os.Stdout)
}

func apply(logger *logrus.Logger, cfg config.LogConfig, out io.Writer) error {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	formatter, err := newFormatter(cfg.Format)
	if err != nil {
		return err
	}

	logger.SetOutput(out)
	logger.SetLevel(level)
	logger.SetFormatter(formatter)
	return nil
}

func newFormatter(format string) (logrus.Formatter, error) {
	switch format {
	case "", "json":
		return &logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyMsg: "message",
			},
		}, nil
	case "text":
		return &logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported log format %q", format)
	}
}
