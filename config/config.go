// Package config loads the settings of the command line and the server.
// Values cascade: built-in defaults, then settings files, then a .env file,
// then the process environment. Command-line flags are applied last by the
// caller.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Settings are the user-configurable defaults of a session.
type Settings struct {
	// Files are the journals read when no --file is given.
	Files []string `yaml:"files"`

	Columns    int    `yaml:"columns"`
	DateFormat string `yaml:"date_format"`
	Color      bool   `yaml:"color"`

	// Extension names the provider serving "import" and "eval", e.g. "js".
	Extension string `yaml:"extension"`

	LogLevel string `yaml:"log_level"`
	LogJSON  bool   `yaml:"log_json"`

	// Options are report options applied to every command, keyed by name
	// without dashes, e.g. {"payee_width": "30"}.
	Options map[string]string `yaml:"options"`
}

// Default returns the built-in settings.
func Default() *Settings {
	return &Settings{
		LogLevel: "warn",
		Options:  map[string]string{},
	}
}

type loader struct {
	settingsFiles []string
	envFile       string
	environ       []string
	optional      map[string]bool
}

// Option configures Load.
type Option func(*loader)

// WithSettingsFile adds a YAML settings file. Later files override earlier
// ones. A missing file is an error.
func WithSettingsFile(path string) Option {
	return func(l *loader) {
		l.settingsFiles = append(l.settingsFiles, path)
	}
}

// WithEnvFile reads variables from a .env file before the environment.
func WithEnvFile(path string) Option {
	return func(l *loader) {
		l.envFile = path
	}
}

// WithEnviron replaces os.Environ() as the source of variables.
func WithEnviron(environ []string) Option {
	return func(l *loader) {
		l.environ = environ
	}
}

// UserSettingsFile is $XDG_CONFIG_HOME/ledger/settings.yaml, falling back
// to ~/.config.
func UserSettingsFile() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "ledger", "settings.yaml")
}

// WithUserSettings adds the user settings file when it exists.
func WithUserSettings() Option {
	return func(l *loader) {
		path := UserSettingsFile()
		if path == "" {
			return
		}
		l.settingsFiles = append(l.settingsFiles, path)
		l.optional[path] = true
	}
}

// Load builds the settings.
func Load(opts ...Option) (*Settings, error) {
	l := &loader{optional: make(map[string]bool)}
	for _, opt := range opts {
		opt(l)
	}
	if l.environ == nil {
		l.environ = os.Environ()
	}

	s := Default()
	for _, path := range l.settingsFiles {
		if err := s.mergeFile(path); err != nil {
			if l.optional[path] && os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
	}

	env := make(map[string]string)
	if l.envFile != "" {
		vars, err := godotenv.Read(l.envFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load env file %s: %w", l.envFile, err)
		}
		for k, v := range vars {
			env[k] = v
		}
	}
	for _, kv := range l.environ {
		// an empty variable does not unset a value from the .env file
		if k, v, ok := strings.Cut(kv, "="); ok && v != "" {
			env[k] = v
		}
	}
	if err := s.applyEnv(env); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Settings) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var file Settings
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse settings %s: %w", path, err)
	}

	if len(file.Files) > 0 {
		s.Files = file.Files
	}
	if file.Columns != 0 {
		s.Columns = file.Columns
	}
	if file.DateFormat != "" {
		s.DateFormat = file.DateFormat
	}
	if file.Color {
		s.Color = true
	}
	if file.Extension != "" {
		s.Extension = file.Extension
	}
	if file.LogLevel != "" {
		s.LogLevel = file.LogLevel
	}
	if file.LogJSON {
		s.LogJSON = true
	}
	for k, v := range file.Options {
		s.Options[k] = v
	}
	return nil
}

func (s *Settings) applyEnv(env map[string]string) error {
	if v := env["LEDGER_FILE"]; v != "" {
		s.Files = filepath.SplitList(v)
	}
	for _, key := range []string{"COLUMNS", "LEDGER_COLUMNS"} {
		v := env[key]
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, v, err)
		}
		s.Columns = n
	}
	if v := env["LEDGER_DATE_FORMAT"]; v != "" {
		s.DateFormat = v
	}
	if v := env["LEDGER_COLOR"]; v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid LEDGER_COLOR %q: %w", v, err)
		}
		s.Color = b
	}
	if v := env["LEDGER_EXTENSION"]; v != "" {
		s.Extension = v
	}
	if v := env["LEDGER_LOG_LEVEL"]; v != "" {
		s.LogLevel = v
	}
	return nil
}
