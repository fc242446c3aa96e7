package logging

import (
	"io"
	"os"

	hclog "github.com/hashicorp/go-hclog"

	"studyhub/internal/platform/config"
)

// New builds the root logger. Every interactor receives a Named child.
func New(cfg config.LogConfig, out io.Writer) hclog.Logger {
	if out == nil {
		out = os.Stderr
	}
	level := hclog.LevelFromString(cfg.Level)
	if level == hclog.NoLevel {
		level = hclog.Info
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:       "studyhub",
		Level:      level,
		Output:     out,
		JSONFormat: cfg.JSON,
	})
}

// OrNull returns l, or a discarding logger when l is nil.
func OrNull(l hclog.Logger) hclog.Logger {
	if l == nil {
		return hclog.NewNullLogger()
	}
	return l
}
