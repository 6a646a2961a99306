package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestLoadFrontendConfig_MissingFile 测试文件不存在时返回默认配置
func TestLoadFrontendConfig_MissingFile(t *testing.T) {
	cfg, err := LoadFrontendConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadFrontendConfig failed: %v", err)
	}
	if cfg.Window.Width != DefaultWindowWidth || cfg.Window.Height != DefaultWindowHeight {
		t.Errorf("window = %dx%d, want defaults", cfg.Window.Width, cfg.Window.Height)
	}
	if cfg.Timing.RepeatDelay() != 400*time.Millisecond {
		t.Errorf("RepeatDelay = %v, want 400ms", cfg.Timing.RepeatDelay())
	}
}

// TestLoadFrontendConfig_Merge 测试已设置的字段覆盖默认值，未设置的保持默认
func TestLoadFrontendConfig_Merge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frontend.yaml")
	data := []byte(`
window:
  width: 640
  height: 480
timing:
  repeatIntervalMs: 100
  screensaverTimeoutSec: -1
paths:
  gamedb: /tmp/x.db
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrontendConfig(path)
	if err != nil {
		t.Fatalf("LoadFrontendConfig failed: %v", err)
	}
	if cfg.Window.Width != 640 || cfg.Window.Height != 480 {
		t.Errorf("window = %dx%d, want 640x480", cfg.Window.Width, cfg.Window.Height)
	}
	if cfg.Timing.RepeatInterval() != 100*time.Millisecond {
		t.Errorf("RepeatInterval = %v, want 100ms", cfg.Timing.RepeatInterval())
	}
	if cfg.Timing.TransitionTimeoutMs != 8000 {
		t.Errorf("TransitionTimeoutMs = %d, want default 8000", cfg.Timing.TransitionTimeoutMs)
	}
	if cfg.Timing.ScreensaverTimeout() != 0 {
		t.Errorf("negative screensaver timeout should disable, got %v", cfg.Timing.ScreensaverTimeout())
	}
	if cfg.Paths.GameDB != "/tmp/x.db" {
		t.Errorf("GameDB = %q", cfg.Paths.GameDB)
	}
}

// TestLoadFrontendConfig_Invalid 测试校验错误与解析错误
func TestLoadFrontendConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bad yaml", "window: [1, 2"},
		{"delay shorter than interval", "timing:\n  repeatDelayMs: 10\n  repeatIntervalMs: 50\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "frontend.yaml")
			if err := os.WriteFile(path, []byte(tt.data), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadFrontendConfig(path); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
