// Package config loads tra2kml settings from defaults, an optional YAML file
// and TRA2KML_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/pspoerri/tra2kml/internal/coord"
	"github.com/pspoerri/tra2kml/internal/encode"
	"github.com/pspoerri/tra2kml/internal/export"
	"github.com/pspoerri/tra2kml/internal/track"
)

// Config holds all application configuration.
type Config struct {
	Convert ConvertConfig `mapstructure:"convert"`
	Export  ExportConfig  `mapstructure:"export"`
	Preview PreviewConfig `mapstructure:"preview"`
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
}

type ConvertConfig struct {
	System      string `mapstructure:"system"`
	Concurrency int    `mapstructure:"concurrency"` // 0 = one worker per CPU
	OnError     string `mapstructure:"on_error"`
}

type ExportConfig struct {
	Format       string `mapstructure:"format"`
	DocumentName string `mapstructure:"document_name"`
}

type PreviewConfig struct {
	Format  string `mapstructure:"format"`
	Width   int    `mapstructure:"width"`
	Height  int    `mapstructure:"height"`
	Quality int    `mapstructure:"quality"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`  // seconds
	WriteTimeout int `mapstructure:"write_timeout"` // seconds
	MaxBodyMB    int `mapstructure:"max_body_mb"`
}

// Addr is the listen address for the configured port.
func (s ServerConfig) Addr() string { return fmt.Sprintf(":%d", s.Port) }

func (s ServerConfig) ReadTimeoutDuration() time.Duration {
	return time.Duration(s.ReadTimeout) * time.Second
}

func (s ServerConfig) WriteTimeoutDuration() time.Duration {
	return time.Duration(s.WriteTimeout) * time.Second
}

// MaxBodyBytes is the request body limit in bytes.
func (s ServerConfig) MaxBodyBytes() int64 { return int64(s.MaxBodyMB) << 20 }

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// FailurePolicy returns the parsed convert.on_error setting.
func (c ConvertConfig) FailurePolicy() track.FailurePolicy {
	p, _ := track.ParseFailurePolicy(c.OnError)
	return p
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("convert.system", "gk4")
	v.SetDefault("convert.concurrency", 0)
	v.SetDefault("convert.on_error", "fail")
	v.SetDefault("export.format", "kml")
	v.SetDefault("export.document_name", "")
	v.SetDefault("preview.format", "png")
	v.SetDefault("preview.width", 1200)
	v.SetDefault("preview.height", 800)
	v.SetDefault("preview.quality", 85)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 30)
	v.SetDefault("server.max_body_mb", 32)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Load reads configuration. When path is empty, tra2kml.yaml is looked up in
// "." and "./configs" and may be absent; an explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("tra2kml")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		_ = v.ReadInConfig() // OK if missing
	}

	// Environment variables: TRA2KML_CONVERT_SYSTEM → convert.system
	v.SetEnvPrefix("TRA2KML")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that every setting is usable.
func (c *Config) Validate() error {
	var errs []string

	if _, err := coord.Lookup(c.Convert.System); err != nil {
		errs = append(errs, fmt.Sprintf("convert.system: %v", err))
	}
	if c.Convert.Concurrency < 0 {
		errs = append(errs, fmt.Sprintf("convert.concurrency must be >= 0, got %d", c.Convert.Concurrency))
	}
	if _, err := track.ParseFailurePolicy(c.Convert.OnError); err != nil {
		errs = append(errs, fmt.Sprintf("convert.on_error: %v", err))
	}
	if _, err := export.NewExporter(c.Export.Format, export.Options{}); err != nil {
		errs = append(errs, fmt.Sprintf("export.format: %v", err))
	}
	if _, err := encode.NewEncoder(c.Preview.Format, c.Preview.Quality); err != nil {
		errs = append(errs, fmt.Sprintf("preview.format: %v", err))
	}
	if c.Preview.Width <= 0 || c.Preview.Height <= 0 {
		errs = append(errs, fmt.Sprintf("preview size must be positive, got %dx%d", c.Preview.Width, c.Preview.Height))
	}
	if c.Preview.Quality < 1 || c.Preview.Quality > 100 {
		errs = append(errs, fmt.Sprintf("preview.quality must be 1-100, got %d", c.Preview.Quality))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Server.MaxBodyMB <= 0 {
		errs = append(errs, "server.max_body_mb must be positive")
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Sprintf("log.format must be json or text, got %q", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
