package selftest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joss/calc/internal/config"
	_ "github.com/joss/calc/internal/plugin/arith"
)

func testEnv(t *testing.T) *config.Env {
	t.Helper()
	dir := t.TempDir()
	env := config.Default()
	env.LogDir = filepath.Join(dir, "logs")
	env.DataDir = filepath.Join(dir, "data")
	env.PluginDir = filepath.Join(dir, "plugins")
	env.HistoryFile = filepath.Join(env.DataDir, config.DefaultHistoryName)
	return env
}

func TestCheckHealth(t *testing.T) {
	env := testEnv(t)

	status := CheckHealth(context.Background(), env)

	if status.Status != "healthy" {
		t.Errorf("expected healthy, got %s: %+v", status.Status, status.Components)
	}
	for _, name := range []string{"log_dir", "data_dir", "history_file", "plugins"} {
		if _, ok := status.Components[name]; !ok {
			t.Errorf("missing component %s", name)
		}
	}
	if got := status.Components["history_file"].Detail; got != "not created yet" {
		t.Errorf("unexpected history detail %q", got)
	}
	if !status.Healthy() {
		t.Error("Healthy() should be true")
	}
}

func TestCheckHealthCorruptHistory(t *testing.T) {
	env := testEnv(t)
	if err := os.MkdirAll(env.DataDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(env.HistoryFile, []byte("nonsense\n"), 0644); err != nil {
		t.Fatal(err)
	}

	status := CheckHealth(context.Background(), env)

	if status.Status != "unhealthy" {
		t.Errorf("expected unhealthy, got %s", status.Status)
	}
	if c := status.Components["history_file"]; c.Status != StatusError || c.Error == "" {
		t.Errorf("expected history error, got %+v", c)
	}
	if status.Healthy() {
		t.Error("Healthy() should be false")
	}
}

func TestCheckHealthBrokenPlugin(t *testing.T) {
	env := testEnv(t)
	if err := os.MkdirAll(env.PluginDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(env.PluginDir, "bad.go"), []byte("package plugin\nimport \"os\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	status := CheckHealth(context.Background(), env)

	if status.Status != "degraded" {
		t.Errorf("expected degraded, got %s", status.Status)
	}
	c := status.Components["plugins"]
	if c.Status != StatusDegraded || !strings.Contains(c.Detail, "1 skipped") {
		t.Errorf("unexpected plugins status %+v", c)
	}
	if !status.Healthy() {
		t.Error("degraded should still count as healthy")
	}
}

func TestCheckHealthUnwritableDir(t *testing.T) {
	env := testEnv(t)
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	env.LogDir = filepath.Join(blocker, "logs")

	status := CheckHealth(context.Background(), env)

	if c := status.Components["log_dir"]; c.Status != StatusError {
		t.Errorf("expected log_dir error, got %+v", c)
	}
}

func TestSummary(t *testing.T) {
	h := &HealthStatus{
		Status: "degraded",
		Components: map[string]ComponentStatus{
			"plugins":  {Status: StatusDegraded, Detail: "9 loaded, 1 skipped", Error: "bad: boom"},
			"data_dir": {Status: StatusOK, Detail: "data"},
		},
	}

	want := "Status: degraded\n" +
		"  data_dir      ok        data\n" +
		"  plugins       degraded  9 loaded, 1 skipped (bad: boom)\n"
	if got := h.Summary(); got != want {
		t.Errorf("Summary() =\n%q\nwant\n%q", got, want)
	}
}
