// Package config provides configuration management for DevKit using Viper
// for flexible loading from files, environment variables, and command-line
// flags.
//
// The configuration system supports a .devkit.yml file, environment variable
// overrides with the DEVKIT_ prefix, and validation. It covers the HTTP
// server, logging, the regex and formatter engines, the boilerplate
// generator, cheat sheet loading, the GitHub star counter and syntax
// highlighting.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/devkitlanka/devkit/internal/errors"
)

type Config struct {
	Server      ServerConfig      `mapstructure:"server" yaml:"server"`
	Logging     LoggingConfig     `mapstructure:"logging" yaml:"logging"`
	Regex       RegexConfig       `mapstructure:"regex" yaml:"regex"`
	Formatter   FormatterConfig   `mapstructure:"formatter" yaml:"formatter"`
	Generator   GeneratorConfig   `mapstructure:"generator" yaml:"generator"`
	Cheatsheets CheatsheetsConfig `mapstructure:"cheatsheets" yaml:"cheatsheets"`
	GitHub      GitHubConfig      `mapstructure:"github" yaml:"github"`
	Highlight   HighlightConfig   `mapstructure:"highlight" yaml:"highlight"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port" yaml:"port"`
	Host           string   `mapstructure:"host" yaml:"host"`
	Environment    string   `mapstructure:"environment" yaml:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	// RateLimit is the number of outbound-fetch requests a client may make per minute.
	RateLimit int `mapstructure:"rate_limit" yaml:"rate_limit"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

type RegexConfig struct {
	MaxMatches    int `mapstructure:"max_matches" yaml:"max_matches"`
	MaxSubjectLen int `mapstructure:"max_subject_bytes" yaml:"max_subject_bytes"`
}

type FormatterConfig struct {
	DefaultIndent int           `mapstructure:"default_indent" yaml:"default_indent"`
	MaxInputBytes int64         `mapstructure:"max_input_bytes" yaml:"max_input_bytes"`
	FetchTimeout  time.Duration `mapstructure:"fetch_timeout" yaml:"fetch_timeout"`
	MaxFetchBytes int64         `mapstructure:"max_fetch_bytes" yaml:"max_fetch_bytes"`
}

type GeneratorConfig struct {
	DefaultName        string `mapstructure:"default_name" yaml:"default_name"`
	DefaultDescription string `mapstructure:"default_description" yaml:"default_description"`
}

type CheatsheetsConfig struct {
	Dir      string `mapstructure:"dir" yaml:"dir"`
	Watch    bool   `mapstructure:"watch" yaml:"watch"`
	Language string `mapstructure:"language" yaml:"language"`
}

type GitHubConfig struct {
	Owner    string        `mapstructure:"owner" yaml:"owner"`
	Repo     string        `mapstructure:"repo" yaml:"repo"`
	Token    string        `mapstructure:"token" yaml:"token"`
	APIURL   string        `mapstructure:"api_url" yaml:"api_url"`
	CacheTTL time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

type HighlightConfig struct {
	Style string `mapstructure:"style" yaml:"style"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)

	return cfg
}

func Load() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, errors.WrapConfig(err, errors.ErrCodeConfigInvalid, "failed to decode configuration")
	}

	// Handle slices set via viper (workaround for viper slice handling)
	if viper.IsSet("server.allowed_origins") && len(config.Server.AllowedOrigins) == 0 {
		config.Server.AllowedOrigins = viper.GetStringSlice("server.allowed_origins")
	}

	// Handle bools set via viper (workaround for env values like "true")
	if viper.IsSet("cheatsheets.watch") {
		config.Cheatsheets.Watch = viper.GetBool("cheatsheets.watch")
	}

	// The global --log-level flag wins over logging.level
	if viper.IsSet("log-level") && viper.GetString("log-level") != "" {
		config.Logging.Level = viper.GetString("log-level")
	}

	applyDefaults(&config)

	if err := validateConfig(&config); err != nil {
		return nil, errors.WrapWithContext(err, errors.ErrorTypeConfig, errors.ErrCodeConfigInvalid,
			"invalid configuration", map[string]interface{}{"file": viper.ConfigFileUsed()})
	}

	return &config, nil
}

func applyDefaults(config *Config) {
	if config.Server.Port == 0 {
		config.Server.Port = 8080
	}
	if config.Server.Host == "" {
		config.Server.Host = "localhost"
	}
	if config.Server.Environment == "" {
		config.Server.Environment = "development"
	}
	if config.Server.RateLimit == 0 {
		config.Server.RateLimit = 30
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}
	if config.Logging.Format == "" {
		config.Logging.Format = "text"
	}

	if config.Regex.MaxMatches == 0 {
		config.Regex.MaxMatches = 10000
	}
	if config.Regex.MaxSubjectLen == 0 {
		config.Regex.MaxSubjectLen = 1 << 20
	}

	if config.Formatter.DefaultIndent == 0 {
		config.Formatter.DefaultIndent = 2
	}
	if config.Formatter.MaxInputBytes == 0 {
		config.Formatter.MaxInputBytes = 5 << 20
	}
	if config.Formatter.FetchTimeout == 0 {
		config.Formatter.FetchTimeout = 10 * time.Second
	}
	if config.Formatter.MaxFetchBytes == 0 {
		config.Formatter.MaxFetchBytes = 5 << 20
	}

	if config.Generator.DefaultName == "" {
		config.Generator.DefaultName = "my-awesome-project"
	}
	if config.Generator.DefaultDescription == "" {
		config.Generator.DefaultDescription = "A new project"
	}

	if config.Cheatsheets.Language == "" {
		config.Cheatsheets.Language = "en"
	}

	if config.GitHub.Owner == "" {
		config.GitHub.Owner = "senulahesara"
	}
	if config.GitHub.Repo == "" {
		config.GitHub.Repo = "lms"
	}
	if config.GitHub.Token == "" {
		config.GitHub.Token = os.Getenv("GITHUB_TOKEN")
	}
	if config.GitHub.APIURL == "" {
		config.GitHub.APIURL = "https://api.github.com"
	}
	config.GitHub.APIURL = strings.TrimRight(config.GitHub.APIURL, "/")
	if config.GitHub.CacheTTL == 0 {
		config.GitHub.CacheTTL = 60 * time.Second
	}
	if config.GitHub.Timeout == 0 {
		config.GitHub.Timeout = 5 * time.Second
	}

	if config.Highlight.Style == "" {
		config.Highlight.Style = "monokai"
	}
}

// validateConfig validates configuration values for security and correctness
func validateConfig(config *Config) error {
	result := ValidateConfigWithDetails(config)
	if result.HasErrors() {
		first := result.Errors[0]

		return fmt.Errorf("%s: %s", first.Field, first.Message)
	}

	return nil
}
