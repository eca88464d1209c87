package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Environment variables that override values from the configuration file.
const (
	EnvToken       = "READWISE_TOKEN"
	EnvLegacyToken = "API_KEY"
	EnvPrinter     = "PRINTER_NAME"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Reader    ReaderConfig    `toml:"reader"`
	Printer   PrinterConfig   `toml:"printer"`
	Converter ConverterConfig `toml:"converter"`
	State     StateConfig     `toml:"state"`
	Database  DatabaseConfig  `toml:"database"`
}

// ReaderConfig contains Readwise Reader API settings.
type ReaderConfig struct {
	Token             string `toml:"token"`
	BaseURL           string `toml:"base_url"`
	Location          string `toml:"location"`
	Category          string `toml:"category"`
	WithHTMLContent   bool   `toml:"with_html_content"`
	RequestsPerMinute int    `toml:"requests_per_minute"`
}

// PrinterConfig contains print queue settings.
//
// Options are passed to lp as -o key=value; empty values are left to the device default.
type PrinterConfig struct {
	Name        string            `toml:"name"`
	SettleDelay Duration          `toml:"settle_delay"`
	Options     map[string]string `toml:"options"`
}

// ConverterConfig selects and configures the webpage-to-PDF renderer.
type ConverterConfig struct {
	Renderer  string   `toml:"renderer"` // percollate or chrome
	Command   []string `toml:"command"`
	PageSize  string   `toml:"page_size"`
	ChromeURL string   `toml:"chrome_url"`
	Timeout   Duration `toml:"timeout"`
}

// StateConfig contains the sync state file location and temp directory for PDFs.
type StateConfig struct {
	Path    string `toml:"path"`
	TempDir string `toml:"temp_dir"`
}

// DatabaseConfig contains print history database settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// Duration wraps [time.Duration] so it can be written as "5s" in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("%w: duration %q: %v", ErrInvalidConfig, text, err)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the defaults from the embedded example config.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides credentials and the printer name from the environment.
//
// getenv is usually [os.Getenv].
func (c *Config) ApplyEnv(getenv func(string) string) {
	if token := getenv(EnvToken); token != "" {
		c.Reader.Token = token
	} else if token := getenv(EnvLegacyToken); token != "" {
		c.Reader.Token = token
	}
	if printer := getenv(EnvPrinter); printer != "" {
		c.Printer.Name = printer
	}
}

// Validate checks the settings every sync needs before any side effect happens.
func (c *Config) Validate() error {
	if c.Reader.Token == "" {
		return fmt.Errorf("%w: %w: reader token (set %s or reader.token)", ErrMissingConfig, ErrMissingCredentials, EnvToken)
	}
	if c.Reader.BaseURL == "" {
		return fmt.Errorf("%w: reader.base_url is empty", ErrInvalidConfig)
	}
	switch c.Converter.Renderer {
	case "percollate", "chrome":
	default:
		return fmt.Errorf("%w: unknown renderer %q", ErrInvalidConfig, c.Converter.Renderer)
	}
	if c.Converter.Renderer == "percollate" && len(c.Converter.Command) == 0 {
		return fmt.Errorf("%w: converter.command is empty", ErrInvalidConfig)
	}
	return nil
}
