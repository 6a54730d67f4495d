package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestNewWritesToFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	logger, err := New(dir, "info")
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	logger.Info("turn played", zap.Int("turn", 3))
	logger.Debug("hidden")
	_ = logger.Sync()

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, `"msg":"turn played"`) || !strings.Contains(out, `"turn":3`) {
		t.Errorf("unexpected log contents: %s", out)
	}
	if strings.Contains(out, "hidden") {
		t.Errorf("debug line written at info level")
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New(t.TempDir(), "chatty"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatalf("expected a usable logger")
	}
}
