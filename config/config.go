// Package config loads onuwatch settings from a TOML file, a .env file and
// ONUWATCH_* environment variables, in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/nanoncore/onuwatch/dashboard"
	"github.com/nanoncore/onuwatch/logger"
	"github.com/nanoncore/onuwatch/types"
)

// FileName is the config file looked for in every search path
const FileName = "onuwatch.toml"

// EnvPrefix prefixes every environment override
const EnvPrefix = "ONUWATCH_"

// Config is the complete onuwatch configuration
type Config struct {
	Directory DirectoryConfig `toml:"directory"`
	Dashboard DashboardConfig `toml:"dashboard"`
	Log       logger.Config   `toml:"log"`
}

// DirectoryConfig selects and configures the device directory backend
type DirectoryConfig struct {
	Backend       string            `toml:"backend"`
	BaseURL       string            `toml:"base_url"`
	Address       string            `toml:"address"`
	Port          int               `toml:"port"`
	Username      string            `toml:"username"`
	Password      string            `toml:"password"`
	Timeout       time.Duration     `toml:"timeout"`
	TLS           bool              `toml:"tls"`
	TLSSkipVerify bool              `toml:"tls_skip_verify"`
	Metadata      map[string]string `toml:"metadata"`

	// CommandTimeout bounds register, reboot and remove
	CommandTimeout time.Duration `toml:"command_timeout"`
}

// DashboardConfig controls the slot view
type DashboardConfig struct {
	Board        int           `toml:"board"`
	PON          int           `toml:"pon"`
	BoardCount   int           `toml:"board_count"`
	PONCount     int           `toml:"pon_count"`
	Capacity     int           `toml:"capacity"`
	PollInterval time.Duration `toml:"poll_interval"`
}

// Default returns the configuration used when no file is found
func Default() *Config {
	opts := dashboard.DefaultOptions()
	return &Config{
		Directory: DirectoryConfig{
			Backend:        string(types.ProtocolREST),
			BaseURL:        "http://127.0.0.1:8081",
			Timeout:        10 * time.Second,
			CommandTimeout: 60 * time.Second,
			Metadata:       map[string]string{},
		},
		Dashboard: DashboardConfig{
			Board:        opts.Board,
			PON:          opts.PON,
			BoardCount:   opts.BoardCount,
			PONCount:     opts.PONCount,
			Capacity:     opts.Capacity,
			PollInterval: 10 * time.Second,
		},
		Log: logger.DefaultConfig(),
	}
}

// GetConfigSearchPaths returns the ordered list of places a config file is looked for
func GetConfigSearchPaths() []string {
	paths := []string{filepath.Join(".", FileName)}

	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		if home, err := os.UserHomeDir(); err == nil {
			configHome = filepath.Join(home, ".config")
		}
	}
	if configHome != "" {
		paths = append(paths, filepath.Join(configHome, "onuwatch", FileName))
	}

	return append(paths, filepath.Join("/etc/onuwatch", FileName))
}

// FindConfigFile returns the first existing config file in the search paths
func FindConfigFile() (string, error) {
	for _, path := range GetConfigSearchPaths() {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", fmt.Errorf("%s not found in any search path", FileName)
}

// LoadOptions controls where Load reads from
type LoadOptions struct {
	// Path is an explicit config file; it must exist when set
	Path string

	// EnvFile is a dotenv file; a missing file is ignored. Defaults to ".env".
	EnvFile string
}

// Load reads the config file (explicit or searched), then the dotenv file, then
// environment overrides. It returns the file actually used, empty if none.
func Load(opts LoadOptions) (*Config, string, error) {
	cfg := Default()

	path := opts.Path
	if path == "" {
		path, _ = FindConfigFile()
	}
	if path != "" {
		if err := LoadTOML(path, cfg); err != nil {
			return nil, "", err
		}
	}

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, "", fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	if err := ApplyEnvOverrides(cfg); err != nil {
		return nil, "", err
	}

	return cfg, path, nil
}

// LoadTOML decodes a TOML file over cfg
func LoadTOML(path string, cfg *Config) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("config file not found: %w", err)
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("unknown config key %q in %s", undecoded[0].String(), path)
	}
	if cfg.Directory.Metadata == nil {
		cfg.Directory.Metadata = map[string]string{}
	}
	return nil
}

// WriteDefaultTOML writes the default configuration to path
func WriteDefaultTOML(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer func() { _ = file.Close() }()

	if err := toml.NewEncoder(file).Encode(Default()); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ApplyEnvOverrides applies ONUWATCH_* environment variables. Variables named
// ONUWATCH_METADATA_<KEY> set directory metadata <key> (lower-cased).
func ApplyEnvOverrides(cfg *Config) error {
	d := &cfg.Directory
	s := &cfg.Dashboard

	setString(&d.Backend, "BACKEND")
	setString(&d.BaseURL, "BASE_URL")
	setString(&d.Address, "ADDRESS")
	setString(&d.Username, "USERNAME")
	setString(&d.Password, "PASSWORD")
	setString(&cfg.Log.Level, "LOG_LEVEL")
	setString(&cfg.Log.Output, "LOG_OUTPUT")

	var errs []error
	errs = append(errs,
		setInt(&d.Port, "PORT"),
		setDuration(&d.Timeout, "TIMEOUT"),
		setDuration(&d.CommandTimeout, "COMMAND_TIMEOUT"),
		setBool(&d.TLS, "TLS"),
		setBool(&d.TLSSkipVerify, "TLS_SKIP_VERIFY"),
		setInt(&s.Board, "BOARD"),
		setInt(&s.PON, "PON"),
		setInt(&s.BoardCount, "BOARD_COUNT"),
		setInt(&s.PONCount, "PON_COUNT"),
		setDuration(&s.PollInterval, "POLL_INTERVAL"),
		setBool(&cfg.Log.Debug, "LOG_DEBUG"),
	)

	for _, kv := range os.Environ() {
		key, value, _ := strings.Cut(kv, "=")
		if name, ok := strings.CutPrefix(key, EnvPrefix+"METADATA_"); ok && name != "" {
			if d.Metadata == nil {
				d.Metadata = map[string]string{}
			}
			d.Metadata[strings.ToLower(name)] = value
		}
	}

	return errors.Join(errs...)
}

func setString(dst *string, name string) {
	if v, ok := os.LookupEnv(EnvPrefix + name); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, name string) error {
	v, ok := os.LookupEnv(EnvPrefix + name)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, name string) error {
	v, ok := os.LookupEnv(EnvPrefix + name)
	if !ok || v == "" {
		return nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
	}
	*dst = b
	return nil
}

func setDuration(dst *time.Duration, name string) error {
	v, ok := os.LookupEnv(EnvPrefix + name)
	if !ok || v == "" {
		return nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
	}
	*dst = d
	return nil
}

var backends = map[string][]string{
	string(types.ProtocolREST):    {"base_url"},
	string(types.ProtocolSNMP):    {"address"},
	string(types.ProtocolCLI):     {"address", "username"},
	string(types.ProtocolGNMI):    {"address"},
	string(types.ProtocolNETCONF): {"address", "username"},
	string(types.ProtocolMock):    nil,
}

// Validate reports the first invalid field
func (c *Config) Validate() error {
	d := c.Directory
	required, ok := backends[d.Backend]
	if !ok {
		return fmt.Errorf("directory.backend: unknown backend %q", d.Backend)
	}
	for _, field := range required {
		value := map[string]string{"base_url": d.BaseURL, "address": d.Address, "username": d.Username}[field]
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("directory.%s: required for backend %s", field, d.Backend)
		}
	}
	if d.Port < 0 || d.Port > 65535 {
		return fmt.Errorf("directory.port: %d out of range", d.Port)
	}
	if d.Timeout <= 0 {
		return errors.New("directory.timeout: must be positive")
	}
	if d.CommandTimeout <= 0 {
		return errors.New("directory.command_timeout: must be positive")
	}

	if err := c.DashboardOptions().Validate(); err != nil {
		return fmt.Errorf("dashboard: %w", err)
	}
	if c.Dashboard.PollInterval < time.Second {
		return errors.New("dashboard.poll_interval: must be at least 1s")
	}

	if c.Log.Level != "" {
		if _, err := zerolog.ParseLevel(strings.ToLower(c.Log.Level)); err != nil {
			return fmt.Errorf("log.level: %w", err)
		}
	}
	return nil
}

// DirectoryConfig converts the directory section into a backend config
func (c *Config) DirectoryConfig(name string) *types.DirectoryConfig {
	md := make(map[string]string, len(c.Directory.Metadata))
	for k, v := range c.Directory.Metadata {
		md[k] = v
	}
	return &types.DirectoryConfig{
		Name:          name,
		Protocol:      types.Protocol(c.Directory.Backend),
		BaseURL:       c.Directory.BaseURL,
		Address:       c.Directory.Address,
		Port:          c.Directory.Port,
		Username:      c.Directory.Username,
		Password:      c.Directory.Password,
		TLSEnabled:    c.Directory.TLS,
		TLSSkipVerify: c.Directory.TLSSkipVerify,
		Timeout:       c.Directory.Timeout,
		Metadata:      md,
	}
}

// DashboardOptions converts the dashboard section into view options
func (c *Config) DashboardOptions() dashboard.Options {
	return dashboard.Options{
		BoardCount: c.Dashboard.BoardCount,
		PONCount:   c.Dashboard.PONCount,
		Capacity:   c.Dashboard.Capacity,
		Board:      c.Dashboard.Board,
		PON:        c.Dashboard.PON,
	}
}
