package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/ritzau/patchc/pkg/logging"
	"github.com/ritzau/patchc/pkg/settings"
	"github.com/spf13/pflag"
)

// FileName is the optional configuration file read from the working
// directory.
const FileName = "patchc.toml"

// EnvPrefix prefixes environment overrides, e.g. PATCHC_BIT_DEPTH=32.
const EnvPrefix = "PATCHC_"

// Config holds all configuration for the application
type Config struct {
	Target     string `koanf:"target"`
	BitDepth   int    `koanf:"bit-depth"`
	Out        string `koanf:"out"`
	Debug      bool   `koanf:"debug"`
	Watch      bool   `koanf:"watch"`
	Serve      bool   `koanf:"serve"`
	Port       int    `koanf:"port"`
	JSONLogs   bool   `koanf:"json-logs"`
	ListNodes  bool   `koanf:"list-nodes"`
	Verbosity  string `koanf:"verbosity"`
	VerboseCnt int    `koanf:"verbose"`
}

// Flags defines the command line flags understood by Load.
func Flags(name string) *pflag.FlagSet {
	f := pflag.NewFlagSet(name, pflag.ContinueOnError)
	f.String("target", "", "Output target: scripting or systems (default from the patch, else scripting)")
	f.Int("bit-depth", 0, "Float bit depth of the generated code: 32 or 64")
	f.StringP("out", "o", "", "Write generated code to this file instead of stdout")
	f.Bool("debug", false, "Add debug reminders to generated message receivers")
	f.BoolP("watch", "w", false, "Recompile when the patch file changes")
	f.Bool("serve", false, "Start the HTTP compile service")
	f.Int("port", 8080, "Port of the HTTP compile service")
	f.Bool("json-logs", false, "Log as JSON")
	f.Bool("list-nodes", false, "List the built-in node types and exit")
	f.String("verbosity", "", "Log level: trace, debug, info, warn or error")
	f.CountP("verbose", "v", "Increase log verbosity (-v debug, -vv trace)")
	return f
}

// Load loads configuration from defaults, config file, environment variables, and flags.
// Priority: Flags > Env > Config File > Defaults
func Load(f *pflag.FlagSet) (*Config, error) {
	return load(f, FileName)
}

func load(f *pflag.FlagSet, configFile string) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	defaults := map[string]interface{}{
		"target":     "",
		"bit-depth":  0,
		"out":        "",
		"debug":      false,
		"watch":      false,
		"serve":      false,
		"port":       8080,
		"json-logs":  false,
		"list-nodes": false,
		"verbosity":  "",
		"verbose":    0,
	}
	if err := k.Load(makeMapProvider(defaults), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file (optional), missing files are ignored
	_ = k.Load(file.Provider(configFile), toml.Parser())

	// 3. Environment variables: PATCHC_BIT_DEPTH -> bit-depth
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(
			strings.TrimPrefix(s, EnvPrefix)), "_", "-")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if f != nil {
		if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Apply overlays the configured overrides on the settings stored with a
// patch. Without any target the scripting target is used.
func (c *Config) Apply(s settings.Settings) settings.Settings {
	out := s
	if c.Target != "" {
		out.Target = c.Target
	}
	if out.Target == "" {
		out.Target = settings.TargetScripting
	}
	if c.BitDepth != 0 {
		out.Audio.BitDepth = c.BitDepth
	}
	if c.Debug {
		out.Debug = true
	}
	return out
}

// LogLevel resolves the log level from --verbosity, falling back to the
// -v count.
func (c *Config) LogLevel() (slog.Level, error) {
	switch strings.ToLower(c.Verbosity) {
	case "trace":
		return logging.LevelTrace, nil
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	case "":
	default:
		return slog.LevelInfo, fmt.Errorf("unknown verbosity %q", c.Verbosity)
	}

	switch {
	case c.VerboseCnt >= 2:
		return logging.LevelTrace, nil
	case c.VerboseCnt == 1:
		return slog.LevelDebug, nil
	}
	return slog.LevelWarn, nil
}

// Helper to use map as a provider
type mapProvider struct {
	m map[string]interface{}
}

func makeMapProvider(m map[string]interface{}) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]interface{}, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
