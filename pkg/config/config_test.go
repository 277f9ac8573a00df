package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/ritzau/patchc/pkg/logging"
	"github.com/ritzau/patchc/pkg/settings"
)

func TestLoadPriority(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, FileName)
	content := "target = \"systems\"\nport = 9000\nbit-depth = 32\n"
	if err := os.WriteFile(cfgFile, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	t.Setenv("PATCHC_PORT", "9100")
	t.Setenv("PATCHC_BIT_DEPTH", "64")

	f := Flags("patchc")
	if err := f.Parse([]string{"--port", "9200", "-vv"}); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	cfg, err := load(f, cfgFile)
	if err != nil {
		t.Fatalf("load() error = %v", err)
	}
	if cfg.Target != "systems" {
		t.Errorf("Expected target from file, got %q", cfg.Target)
	}
	if cfg.BitDepth != 64 {
		t.Errorf("Expected bit depth from env, got %d", cfg.BitDepth)
	}
	if cfg.Port != 9200 {
		t.Errorf("Expected port from flags, got %d", cfg.Port)
	}
	if cfg.VerboseCnt != 2 {
		t.Errorf("Expected verbose count 2, got %d", cfg.VerboseCnt)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(nil, filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("load() error = %v", err)
	}
	if cfg.Port != 8080 || cfg.Target != "" || cfg.Watch {
		t.Errorf("Unexpected defaults %+v", cfg)
	}
}

func TestApply(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		in       settings.Settings
		wantTgt  string
		wantBits int
		wantDbg  bool
	}{
		{name: "empty", wantTgt: settings.TargetScripting},
		{name: "patch wins without override", in: settings.Settings{Target: settings.TargetSystems, Audio: settings.Audio{BitDepth: 32}}, wantTgt: settings.TargetSystems, wantBits: 32},
		{name: "override", cfg: Config{Target: settings.TargetScripting, BitDepth: 64, Debug: true}, in: settings.Settings{Target: settings.TargetSystems, Audio: settings.Audio{BitDepth: 32}}, wantTgt: settings.TargetScripting, wantBits: 64, wantDbg: true},
		{name: "debug from patch kept", in: settings.Settings{Debug: true}, wantTgt: settings.TargetScripting, wantDbg: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.cfg.Apply(tt.in)
			if got.Target != tt.wantTgt || got.Audio.BitDepth != tt.wantBits || got.Debug != tt.wantDbg {
				t.Errorf("Expected %s/%d/%v, got %s/%d/%v", tt.wantTgt, tt.wantBits, tt.wantDbg, got.Target, got.Audio.BitDepth, got.Debug)
			}
		})
	}
}

func TestLogLevel(t *testing.T) {
	tests := []struct {
		cfg     Config
		want    slog.Level
		wantErr bool
	}{
		{cfg: Config{}, want: slog.LevelWarn},
		{cfg: Config{VerboseCnt: 1}, want: slog.LevelDebug},
		{cfg: Config{VerboseCnt: 3}, want: logging.LevelTrace},
		{cfg: Config{Verbosity: "INFO", VerboseCnt: 2}, want: slog.LevelInfo},
		{cfg: Config{Verbosity: "loud"}, wantErr: true},
	}
	for _, tt := range tests {
		got, err := tt.cfg.LogLevel()
		if (err != nil) != tt.wantErr {
			t.Errorf("LogLevel(%+v) error = %v, wantErr %v", tt.cfg, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("Expected level %v, got %v", tt.want, got)
		}
	}
}
