// Package config loads runtime settings.
//
// Precedence, lowest first: built-in defaults, the YAML file named by
// --config, a .env file in the working directory, SLUICEWATCH_* environment
// variables, then command-line flags (applied by the CLI).
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full runtime configuration.
type Config struct {
	DB     DBConfig     `yaml:"db"`
	Server ServerConfig `yaml:"server"`
	Client ClientConfig `yaml:"client"`
	Worker WorkerConfig `yaml:"worker"`
	Feed   FeedConfig   `yaml:"feed"`
	Influx InfluxConfig `yaml:"influx"`
}

// DBConfig locates the SQLite file.
type DBConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedHeaders []string `yaml:"allowed_headers"`
	Metrics        bool     `yaml:"metrics"`
}

// ClientConfig configures how the feed and a remote worker reach the API.
type ClientConfig struct {
	BaseURL string   `yaml:"base_url"`
	Timeout Duration `yaml:"timeout"`
}

// WorkerConfig configures the decision worker.
type WorkerConfig struct {
	Interval     Duration `yaml:"interval"`
	CODThreshold float64  `yaml:"cod_threshold"`
	PHThreshold  float64  `yaml:"ph_threshold"`
}

// FeedConfig configures the sensor simulator.
type FeedConfig struct {
	Interval            Duration `yaml:"interval"`
	DeviceID            string   `yaml:"device_id"`
	PollutedProbability float64  `yaml:"polluted_probability"`
}

// InfluxConfig configures the optional InfluxDB mirror. The mirror is off
// while URL is empty.
type InfluxConfig struct {
	URL    string `yaml:"url"`
	Token  string `yaml:"token"`
	Org    string `yaml:"org"`
	Bucket string `yaml:"bucket"`
}

// Enabled reports whether the mirror should run.
func (c InfluxConfig) Enabled() bool {
	return c.URL != ""
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DB: DBConfig{Path: "water_system.db"},
		Server: ServerConfig{
			Addr:           "127.0.0.1:8000",
			AllowedOrigins: []string{"*"},
			AllowedHeaders: []string{"*"},
			Metrics:        true,
		},
		Client: ClientConfig{
			BaseURL: "http://127.0.0.1:8000",
			Timeout: Duration(5 * time.Second),
		},
		Worker: WorkerConfig{
			Interval:     Duration(time.Second),
			CODThreshold: 100,
			PHThreshold:  4.0,
		},
		Feed: FeedConfig{
			Interval:            Duration(5 * time.Second),
			DeviceID:            "Station_A",
			PollutedProbability: 0.2,
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file at
// path, .env and the environment, then validates it.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return Config{}, err
		}
	}

	if err := LoadDotEnv(".env"); err != nil {
		return Config{}, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile overlays the YAML file at path onto c. Unknown keys are rejected.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	var errs []error

	if c.DB.Path == "" {
		errs = append(errs, errors.New("db.path must not be empty"))
	}
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr must not be empty"))
	}
	if _, err := url.ParseRequestURI(c.Client.BaseURL); err != nil {
		errs = append(errs, fmt.Errorf("client.base_url is not a valid URL: %q", c.Client.BaseURL))
	}
	if c.Client.Timeout <= 0 {
		errs = append(errs, errors.New("client.timeout must be positive"))
	}
	if c.Worker.Interval <= 0 {
		errs = append(errs, errors.New("worker.interval must be positive"))
	}
	if c.Feed.Interval <= 0 {
		errs = append(errs, errors.New("feed.interval must be positive"))
	}
	if c.Feed.PollutedProbability < 0 || c.Feed.PollutedProbability > 1 {
		errs = append(errs, fmt.Errorf("feed.polluted_probability must be within [0,1], got %v", c.Feed.PollutedProbability))
	}
	if c.Influx.Enabled() && (c.Influx.Org == "" || c.Influx.Bucket == "") {
		errs = append(errs, errors.New("influx.org and influx.bucket are required when influx.url is set"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Duration is a time.Duration written as a Go duration string in YAML
// ("1s", "250ms").
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// String implements fmt.Stringer.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("line %d: duration must be a string like \"1s\"", value.Line)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}
