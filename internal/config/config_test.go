package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shelfworks/shelfengine/internal/logging"
)

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
}

func TestLoadMergesDefaultsForOmittedFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.yaml")
	writeConfig(t, path, "seed_path: seed.yaml\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	defaults := Defaults()
	if cfg.DedupWindowSeconds != defaults.DedupWindowSeconds {
		t.Errorf("expected default dedup_window_seconds %d, got %d", defaults.DedupWindowSeconds, cfg.DedupWindowSeconds)
	}
	if cfg.PresenceTTLSeconds != defaults.PresenceTTLSeconds {
		t.Errorf("expected default presence_ttl_seconds %d, got %d", defaults.PresenceTTLSeconds, cfg.PresenceTTLSeconds)
	}
	if cfg.AutoSweepIntervalSecs != defaults.AutoSweepIntervalSecs {
		t.Errorf("expected default auto_sweep_interval_seconds %d, got %d", defaults.AutoSweepIntervalSecs, cfg.AutoSweepIntervalSecs)
	}
	if cfg.Logger.Level != defaults.Logger.Level || cfg.Logger.Format != defaults.Logger.Format {
		t.Errorf("expected default logger config %+v, got %+v", defaults.Logger, cfg.Logger)
	}
	if cfg.SeedPath != "seed.yaml" {
		t.Errorf("expected the file's own seed_path to win over the default, got %q", cfg.SeedPath)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.yaml")
	writeConfig(t, path, `
dedup_window_seconds: 20
presence_ttl_seconds: 600
auto_sweep_interval_seconds: 45
seed_path: custom-seed.yaml
logger:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DedupWindow() != 20*time.Second {
		t.Errorf("expected dedup window 20s, got %v", cfg.DedupWindow())
	}
	if cfg.PresenceTTL() != 600*time.Second {
		t.Errorf("expected presence TTL 600s, got %v", cfg.PresenceTTL())
	}
	if cfg.AutoSweepInterval() != 45*time.Second {
		t.Errorf("expected sweep interval 45s, got %v", cfg.AutoSweepInterval())
	}
	if cfg.Logger.Level != "debug" || cfg.Logger.Format != "json" {
		t.Errorf("expected overridden logger config, got %+v", cfg.Logger)
	}
}

func TestLoadNonexistentFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected an error loading a nonexistent config file")
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "dedup window below minimum",
			content: "dedup_window_seconds: 0\nseed_path: seed.yaml\n",
		},
		{
			name:    "presence TTL below minimum",
			content: "presence_ttl_seconds: 0\nseed_path: seed.yaml\n",
		},
		{
			name:    "auto sweep interval below minimum",
			content: "auto_sweep_interval_seconds: 0\nseed_path: seed.yaml\n",
		},
		{
			name:    "seed path empty",
			content: "seed_path: \"\"\n",
		},
		{
			name:    "logger level not one of the allowed values",
			content: "seed_path: seed.yaml\nlogger:\n  level: verbose\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "engine.yaml")
			writeConfig(t, path, tt.content)

			if _, err := Load(path); err == nil {
				t.Fatalf("expected Load to reject an invalid configuration, got nil error")
			}
		})
	}
}

// TestWatchKeepsPreviousConfigOnReloadError grounds Watch's "reload failed,
// keep previous configuration" branch: an on-disk edit that fails
// validation must not invoke onChange, and a subsequent valid edit must.
func TestWatchKeepsPreviousConfigOnReloadError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.yaml")
	writeConfig(t, path, "seed_path: seed.yaml\ndedup_window_seconds: 15\n")

	var mu sync.Mutex
	var seen []EngineConfig
	onChange := func(c EngineConfig) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, c)
	}

	if err := Watch(path, logging.NewNop(), onChange); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	snapshot := func() []EngineConfig {
		mu.Lock()
		defer mu.Unlock()
		return append([]EngineConfig(nil), seen...)
	}
	waitUntil := func(deadline time.Duration, ok func() bool) bool {
		end := time.Now().Add(deadline)
		for time.Now().Before(end) {
			if ok() {
				return true
			}
			time.Sleep(20 * time.Millisecond)
		}
		return ok()
	}

	// An invalid rewrite must fail Load inside the OnConfigChange callback
	// and never reach onChange.
	writeConfig(t, path, "seed_path: seed.yaml\ndedup_window_seconds: 0\n")
	time.Sleep(200 * time.Millisecond)
	if len(snapshot()) != 0 {
		t.Fatalf("expected an invalid reload to be ignored, got %d onChange calls", len(snapshot()))
	}

	// A valid rewrite must still reach onChange with the new values.
	writeConfig(t, path, "seed_path: seed.yaml\ndedup_window_seconds: 25\n")
	if !waitUntil(2*time.Second, func() bool { return len(snapshot()) > 0 }) {
		t.Fatalf("expected a valid reload to invoke onChange")
	}
	got := snapshot()
	if got[len(got)-1].DedupWindowSeconds != 25 {
		t.Fatalf("expected the reloaded config to carry dedup_window_seconds=25, got %d", got[len(got)-1].DedupWindowSeconds)
	}
}
