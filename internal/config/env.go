// Package config resolves the calculator's process-scoped configuration.
// Load is called once by the composition root; the resulting *Env is passed
// explicitly to every component that needs it.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Default file names.
const (
	DefaultConfigFile  = "calc.yaml"
	DefaultEnvFile     = ".env"
	DefaultHistoryName = "calculator_history.csv"
	LogFileName        = "calculator.log"
)

// Env holds the resolved configuration.
type Env struct {
	// LogDir is the directory of the log file (CALC_LOG_DIR)
	LogDir string `yaml:"log_dir" validate:"required"`

	// LogLevel is debug, info, warn, error or critical (CALC_LOG_LEVEL)
	LogLevel string `yaml:"log_level" validate:"required,oneof=debug info warn warning error critical"`

	// DataDir is the base for relative history paths (CALC_DATA_DIR)
	DataDir string `yaml:"data_dir" validate:"required"`

	// HistoryFile is the CSV history path (CALC_HISTORY_FILE)
	HistoryFile string `yaml:"history_file" validate:"required"`

	// AutoSave persists history on exit (CALC_HISTORY_AUTOSAVE)
	AutoSave bool `yaml:"history_autosave"`

	// MaxHistorySize bounds the ledger (CALC_MAX_HISTORY_SIZE)
	MaxHistorySize int `yaml:"max_history_size" validate:"gt=0"`

	// PluginDir holds script plugins (CALC_PLUGIN_DIR)
	PluginDir string `yaml:"plugin_dir"`

	// Precision is the number of significant digits shown; 0 shows the
	// shortest exact form (CALC_PRECISION)
	Precision int `yaml:"precision" validate:"gte=0,lte=17"`
}

// Default returns the built-in configuration.
func Default() *Env {
	return &Env{
		LogDir:         "logs",
		LogLevel:       "info",
		DataDir:        "data",
		AutoSave:       true,
		MaxHistorySize: 100,
		PluginDir:      "plugins",
		Precision:      10,
	}
}

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

type loadOptions struct {
	lookup     LookupFunc
	configFile string
	envFile    string
}

// Option configures Load.
type Option func(*loadOptions)

// WithLookup replaces os.LookupEnv, for tests.
func WithLookup(fn LookupFunc) Option {
	return func(o *loadOptions) {
		o.lookup = fn
	}
}

// WithConfigFile sets the YAML config path. Without it, CALC_CONFIG or
// calc.yaml in the working directory is used when present.
func WithConfigFile(path string) Option {
	return func(o *loadOptions) {
		o.configFile = path
	}
}

// WithEnvFile sets the .env path.
func WithEnvFile(path string) Option {
	return func(o *loadOptions) {
		o.envFile = path
	}
}

// Load resolves configuration from, in increasing precedence: defaults,
// the YAML file, the .env file, and the process environment. The result
// is validated.
func Load(opts ...Option) (*Env, error) {
	o := loadOptions{
		lookup:  os.LookupEnv,
		envFile: DefaultEnvFile,
	}
	for _, opt := range opts {
		opt(&o)
	}

	env := Default()

	configFile, explicit := o.configFile, o.configFile != ""
	if !explicit {
		configFile, explicit = first(o.lookup, "CALC_CONFIG")
		if !explicit {
			configFile = DefaultConfigFile
		}
	}
	if err := env.loadYAML(configFile, explicit); err != nil {
		return nil, err
	}

	dotenv, err := readEnvFile(o.envFile)
	if err != nil {
		return nil, err
	}
	lookup := chain(o.lookup, dotenv)

	if err := env.applyOverrides(lookup); err != nil {
		return nil, err
	}

	env.resolveHistoryFile()

	if err := env.Validate(); err != nil {
		return nil, err
	}
	return env, nil
}

func (e *Env) loadYAML(path string, required bool) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) && !required {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, e); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// applyOverrides reads each setting from its CALC_ variable, falling back
// to the variable names used by earlier releases.
func (e *Env) applyOverrides(lookup LookupFunc) error {
	str := func(dst *string, keys ...string) {
		if v, ok := first(lookup, keys...); ok {
			*dst = v
		}
	}
	str(&e.LogDir, "CALC_LOG_DIR")
	str(&e.LogLevel, "CALC_LOG_LEVEL", "LOG_LEVEL")
	str(&e.DataDir, "CALC_DATA_DIR", "DATA_DIRECTORY")
	str(&e.HistoryFile, "CALC_HISTORY_FILE", "CSV_HISTORY_FILE")
	str(&e.PluginDir, "CALC_PLUGIN_DIR")
	e.LogLevel = strings.ToLower(e.LogLevel)

	if v, ok := first(lookup, "CALC_HISTORY_AUTOSAVE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("CALC_HISTORY_AUTOSAVE: %w", err)
		}
		e.AutoSave = b
	}
	if v, ok := first(lookup, "CALC_MAX_HISTORY_SIZE", "MAX_HISTORY_SIZE"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CALC_MAX_HISTORY_SIZE: %w", err)
		}
		e.MaxHistorySize = n
	}
	if v, ok := first(lookup, "CALC_PRECISION", "DECIMAL_PRECISION"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CALC_PRECISION: %w", err)
		}
		e.Precision = n
	}
	return nil
}

// resolveHistoryFile places an unset or bare history file name in DataDir.
func (e *Env) resolveHistoryFile() {
	if e.HistoryFile == "" {
		e.HistoryFile = DefaultHistoryName
	}
	if filepath.Base(e.HistoryFile) == e.HistoryFile {
		e.HistoryFile = filepath.Join(e.DataDir, e.HistoryFile)
	}
}

// Validate checks the struct constraints.
func (e *Env) Validate() error {
	if err := validator.New().Struct(e); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// LogFile returns the log file path.
func (e *Env) LogFile() string {
	return filepath.Join(e.LogDir, LogFileName)
}

// DataPath resolves p against DataDir unless it is absolute. An empty p
// yields the history file.
func (e *Env) DataPath(p string) string {
	if p == "" {
		return e.HistoryFile
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(e.DataDir, p)
}

// EnsureDir creates a directory if it doesn't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

func first(lookup LookupFunc, keys ...string) (string, bool) {
	for _, key := range keys {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), true
		}
	}
	return "", false
}

// chain consults the process environment before the .env values, so the
// file never overrides variables that are already set.
func chain(lookup LookupFunc, dotenv map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		if v, ok := lookup(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
}

// readEnvFile parses KEY=VALUE lines. A missing file yields no values.
func readEnvFile(path string) (map[string]string, error) {
	values := make(map[string]string)
	if path == "" {
		return values, nil
	}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return values, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read env file %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.Trim(strings.TrimSpace(parts[1]), `"'`)
		values[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read env file %s: %w", path, err)
	}
	return values, nil
}
