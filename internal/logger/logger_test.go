package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hamersu9t/alerting-dashboards-plugin/internal/config"

	"go.uber.org/zap"
)

func TestInitFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alerting.log")
	if err := Init(config.LoggerConfig{Level: "warn", Output: path}); err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	t.Cleanup(func() { Replace(zap.NewNop()) })

	Info("dropped below level")
	Warn("breaker opened", zap.String("name", "elasticsearch"))
	Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), data)
	}

	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["level"] != "warn" || entry["msg"] != "breaker opened" || entry["name"] != "elasticsearch" {
		t.Errorf("entry = %v", entry)
	}
}

func TestInitBadPath(t *testing.T) {
	if err := Init(config.LoggerConfig{Output: filepath.Join(t.TempDir(), "missing", "x.log")}); err == nil {
		t.Error("Init() with unwritable path: want error")
	}
}
