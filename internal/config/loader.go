package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"

	"github.com/Dicklesworthstone/parabank-qa/internal/util"
)

// LoadOptions controls configuration loading.
type LoadOptions struct {
	// ConfigPath overrides DefaultFile. An explicit path must exist.
	ConfigPath string
	// FlagOverrides are highest-priority overrides from CLI flags (dot-notated keys).
	FlagOverrides map[string]any
}

// Load returns the effective configuration after applying precedence:
// defaults (CI-aware) < config file < env < flags.
func Load(opts LoadOptions) (*Config, error) {
	v := viper.New()
	def := Default()
	if IsCI() {
		def = CIDefault()
	}
	setDefaults(v, def)

	sources := map[string]string{}
	if IsCI() {
		sources["browser.headless"] = "ci"
		sources["run.retries"] = "ci"
	}

	path := opts.ConfigPath
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
	} else {
		path = DefaultFile
	}
	if err := mergeConfigFile(v, path); err != nil {
		return nil, err
	}
	for _, f := range fields {
		if v.InConfig(f.key) {
			sources[f.key] = "file"
		}
	}

	if err := applyEnvOverrides(v, sources); err != nil {
		return nil, err
	}
	applyFlagOverrides(v, opts.FlagOverrides, sources)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.sources = sources
	util.ExpandPaths(&cfg.Browser.ExecPath, &cfg.Run.OutputDir, &cfg.Run.ResultsFile,
		&cfg.Report.ResultsPath, &cfg.Report.OutputPath)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ReportDefaults returns the default report settings with the report path
// and GitHub run env vars applied. It never fails, so the report command can
// still name the run when the full configuration does not load.
func ReportDefaults() ReportConfig {
	rc := Default().Report
	for _, b := range []struct {
		env string
		dst *string
	}{
		{"RESULTS_PATH", &rc.ResultsPath},
		{"EMAIL_BODY_PATH", &rc.OutputPath},
		{"GITHUB_SERVER_URL", &rc.GitHubServerURL},
		{"GITHUB_REPOSITORY", &rc.GitHubRepository},
		{"GITHUB_RUN_ID", &rc.GitHubRunID},
	} {
		if v := strings.TrimSpace(os.Getenv(b.env)); v != "" {
			*b.dst = v
		}
	}
	util.ExpandPaths(&rc.ResultsPath, &rc.OutputPath)
	return rc
}

// IsCI reports whether the process runs under a CI system.
func IsCI() bool {
	v := strings.TrimSpace(os.Getenv("CI"))
	if v == "" {
		return false
	}
	b, err := strconv.ParseBool(v)
	return err != nil || b
}

// setDefaults seeds viper with built-in defaults.
func setDefaults(v *viper.Viper, def *Config) {
	for _, f := range fields {
		v.SetDefault(f.key, f.get(def))
	}
}

// mergeConfigFile merges the TOML config file if it exists.
func mergeConfigFile(v *viper.Viper, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat config %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("config path %s is a directory", path)
	}
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.MergeInConfig(); err != nil {
		return fmt.Errorf("merge config %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides reads the bound env vars and applies them.
func applyEnvOverrides(v *viper.Viper, sources map[string]string) error {
	for _, binding := range envBindings {
		val := os.Getenv(binding.Env)
		if val == "" {
			continue
		}
		kind, _ := kindOf(binding.Key)
		parsed, err := parseValueByKind(val, kind)
		if err != nil {
			return fmt.Errorf("env %s: %w", binding.Env, err)
		}
		v.Set(binding.Key, parsed)
		sources[binding.Key] = "env"
	}
	return nil
}

// applyFlagOverrides applies CLI overrides as highest-precedence values.
func applyFlagOverrides(v *viper.Viper, overrides map[string]any, sources map[string]string) {
	for k, val := range overrides {
		v.Set(k, val)
		sources[k] = "flag"
	}
}

// ParseValue parses a raw string into the expected type for a given config key.
func ParseValue(key, raw string) (any, error) {
	kind, ok := kindOf(key)
	if !ok {
		return nil, fmt.Errorf("unsupported key %q", key)
	}
	return parseValueByKind(raw, kind)
}

func parseValueByKind(raw string, kind valueKind) (any, error) {
	raw = strings.TrimSpace(raw)
	switch kind {
	case kindString:
		return raw, nil
	case kindBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("expected bool, got %q", raw)
		}
		return b, nil
	case kindInt:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("expected int, got %q", raw)
		}
		return n, nil
	case kindDuration:
		// Bare integers are milliseconds.
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return time.Duration(n) * time.Millisecond, nil
		}
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("expected duration, got %q", raw)
		}
		return d, nil
	case kindStringSlice:
		var out []string
		for _, part := range strings.Split(raw, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown kind")
	}
}

// Nested returns the configuration as nested maps keyed like the TOML file.
// Durations are rendered as strings and secrets are masked when mask is set.
func (c *Config) Nested(mask bool) map[string]any {
	root := map[string]any{}
	for _, f := range fields {
		val := f.get(c)
		if mask {
			val = displayValue(f.key, val)
		} else if d, ok := val.(time.Duration); ok {
			val = d.String()
		}
		if s, ok := val.([]string); ok && s == nil {
			val = []string{}
		}
		parts := strings.Split(f.key, ".")
		m := root
		for _, p := range parts[:len(parts)-1] {
			child, ok := m[p].(map[string]any)
			if !ok {
				child = map[string]any{}
				m[p] = child
			}
			m = child
		}
		m[parts[len(parts)-1]] = val
	}
	return root
}

// EncodeTOML renders the configuration as a TOML document.
func (c *Config) EncodeTOML() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c.Nested(false)); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteDefault writes the default configuration to path. It refuses to
// overwrite an existing file unless force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	data, err := Default().EncodeTOML()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
