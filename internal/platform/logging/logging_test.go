package logging_test

import (
	"bytes"
	"strings"
	"testing"

	"studyhub/internal/platform/config"
	"studyhub/internal/platform/logging"
)

func TestNewHonoursLevelAndFormat(t *testing.T) {
	t.Parallel()
	buf := &bytes.Buffer{}
	logger := logging.New(config.LogConfig{Level: "warn", JSON: true}, buf)
	logger.Info("hidden")
	logger.Warn("shown", "user_id", "u-1")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info must be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, `"user_id":"u-1"`) {
		t.Fatalf("expected json key/value pair, got %s", out)
	}
}

func TestNewFallsBackToInfo(t *testing.T) {
	t.Parallel()
	buf := &bytes.Buffer{}
	logger := logging.New(config.LogConfig{Level: "bogus"}, buf)
	logger.Debug("quiet")
	logger.Info("loud")
	if strings.Contains(buf.String(), "quiet") || !strings.Contains(buf.String(), "loud") {
		t.Fatalf("expected info level fallback, got %s", buf.String())
	}
	if logging.OrNull(nil) == nil {
		t.Fatalf("null logger expected")
	}
}
