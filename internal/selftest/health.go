// Package selftest checks that the calculator's environment is usable:
// writable directories, a readable history file and loadable plugins.
package selftest

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/joss/calc/internal/config"
	"github.com/joss/calc/internal/history"
	"github.com/joss/calc/internal/operation"
	"github.com/joss/calc/internal/plugin"
)

// Component states.
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
	StatusError    = "error"
)

// ComponentStatus represents health of a single component
type ComponentStatus struct {
	Status  string `json:"status"`
	Detail  string `json:"detail,omitempty"`
	Latency int64  `json:"latency_ms,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HealthStatus represents overall health: healthy, degraded or unhealthy.
type HealthStatus struct {
	Status     string                     `json:"status"`
	Components map[string]ComponentStatus `json:"components"`
	Timestamp  string                     `json:"timestamp"`
}

type check struct {
	name string
	run  func(context.Context, *config.Env) ComponentStatus
}

var checks = []check{
	{"log_dir", checkLogDir},
	{"data_dir", checkDataDir},
	{"history_file", checkHistory},
	{"plugins", checkPlugins},
}

// CheckHealth runs every check concurrently.
func CheckHealth(ctx context.Context, env *config.Env) *HealthStatus {
	status := &HealthStatus{
		Status:     "healthy",
		Components: make(map[string]ComponentStatus),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}

	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, c := range checks {
		wg.Add(1)
		go func(c check) {
			defer wg.Done()
			start := time.Now()
			result := c.run(ctx, env)
			result.Latency = time.Since(start).Milliseconds()

			mu.Lock()
			defer mu.Unlock()
			status.Components[c.name] = result
			if result.Status == StatusError {
				status.Status = "unhealthy"
			} else if result.Status == StatusDegraded && status.Status == "healthy" {
				status.Status = "degraded"
			}
		}(c)
	}

	wg.Wait()
	return status
}

// Healthy reports whether no component failed.
func (h *HealthStatus) Healthy() bool {
	return h.Status != "unhealthy"
}

// Summary formats one line per component, sorted by name.
func (h *HealthStatus) Summary() string {
	names := make([]string, 0, len(h.Components))
	for name := range h.Components {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Status: %s\n", h.Status)
	for _, name := range names {
		c := h.Components[name]
		fmt.Fprintf(&sb, "  %-13s %-9s", name, c.Status)
		if c.Detail != "" {
			sb.WriteString(" " + c.Detail)
		}
		if c.Error != "" {
			sb.WriteString(" (" + c.Error + ")")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func checkLogDir(_ context.Context, env *config.Env) ComponentStatus {
	return checkWritable(env.LogDir)
}

func checkDataDir(_ context.Context, env *config.Env) ComponentStatus {
	return checkWritable(env.DataDir)
}

// checkWritable creates dir if needed and writes a probe file into it.
func checkWritable(dir string) ComponentStatus {
	if err := config.EnsureDir(dir); err != nil {
		return ComponentStatus{Status: StatusError, Detail: dir, Error: err.Error()}
	}
	f, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return ComponentStatus{Status: StatusError, Detail: dir, Error: err.Error()}
	}
	f.Close()
	os.Remove(f.Name())
	return ComponentStatus{Status: StatusOK, Detail: dir}
}

func checkHistory(_ context.Context, env *config.Env) ComponentStatus {
	if _, err := os.Stat(env.HistoryFile); os.IsNotExist(err) {
		return ComponentStatus{Status: StatusOK, Detail: "not created yet"}
	}
	records, err := history.NewStore(env.HistoryFile).Load()
	if err != nil {
		return ComponentStatus{Status: StatusError, Detail: env.HistoryFile, Error: err.Error()}
	}
	return ComponentStatus{Status: StatusOK, Detail: fmt.Sprintf("%d record(s)", len(records))}
}

func checkPlugins(ctx context.Context, env *config.Env) ComponentStatus {
	report := plugin.Discover(ctx, operation.NewRegistry(), plugin.Options{Dir: env.PluginDir})
	if err := report.Err(); err != nil {
		return ComponentStatus{Status: StatusError, Error: err.Error()}
	}

	detail := fmt.Sprintf("%d loaded", len(report.Loaded()))
	failed := report.Failed()
	if len(failed) == 0 {
		return ComponentStatus{Status: StatusOK, Detail: detail}
	}

	var errs []string
	for _, f := range failed {
		errs = append(errs, fmt.Sprintf("%s: %v", f.Name, f.Err))
	}
	return ComponentStatus{
		Status: StatusDegraded,
		Detail: fmt.Sprintf("%s, %d skipped", detail, len(failed)),
		Error:  strings.Join(errs, "; "),
	}
}
