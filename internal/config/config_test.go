package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devkitlanka/devkit/internal/errors"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		setup       func()
		expectError bool
		check       func(t *testing.T, cfg *Config)
	}{
		{
			name: "defaults",
			setup: func() {
				viper.Reset()
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, "localhost", cfg.Server.Host)
				assert.Equal(t, 2, cfg.Formatter.DefaultIndent)
				assert.Equal(t, 10000, cfg.Regex.MaxMatches)
				assert.Equal(t, "my-awesome-project", cfg.Generator.DefaultName)
				assert.Equal(t, "A new project", cfg.Generator.DefaultDescription)
				assert.Equal(t, "senulahesara", cfg.GitHub.Owner)
				assert.Equal(t, "lms", cfg.GitHub.Repo)
				assert.Equal(t, 60*time.Second, cfg.GitHub.CacheTTL)
				assert.Equal(t, "monokai", cfg.Highlight.Style)
				assert.Equal(t, "en", cfg.Cheatsheets.Language)
			},
		},
		{
			name: "custom values",
			setup: func() {
				viper.Reset()
				viper.Set("server.port", 3000)
				viper.Set("server.host", "0.0.0.0")
				viper.Set("server.allowed_origins", []string{"https://devkit.example.com"})
				viper.Set("formatter.default_indent", 4)
				viper.Set("github.cache_ttl", "2m")
				viper.Set("github.api_url", "https://ghe.example.com/api/v3/")
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 3000, cfg.Server.Port)
				assert.Equal(t, "0.0.0.0", cfg.Server.Host)
				assert.Equal(t, []string{"https://devkit.example.com"}, cfg.Server.AllowedOrigins)
				assert.Equal(t, 4, cfg.Formatter.DefaultIndent)
				assert.Equal(t, 2*time.Minute, cfg.GitHub.CacheTTL)
				assert.Equal(t, "https://ghe.example.com/api/v3", cfg.GitHub.APIURL)
			},
		},
		{
			name: "log-level flag overrides config",
			setup: func() {
				viper.Reset()
				viper.Set("logging.level", "info")
				viper.Set("log-level", "debug")
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "debug", cfg.Logging.Level)
			},
		},
		{
			name: "invalid port type",
			setup: func() {
				viper.Reset()
				viper.Set("server.port", "invalid_port")
			},
			expectError: true,
		},
		{
			name: "indent out of range",
			setup: func() {
				viper.Reset()
				viper.Set("formatter.default_indent", 12)
			},
			expectError: true,
		},
		{
			name: "unsupported language",
			setup: func() {
				viper.Reset()
				viper.Set("cheatsheets.language", "fr")
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("GITHUB_TOKEN", "")
			tt.setup()
			defer viper.Reset()

			cfg, err := Load()
			if tt.expectError {
				assert.Error(t, err)

				return
			}

			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	dir := t.TempDir()
	path := filepath.Join(dir, ".devkit.yml")
	content := `server:
  port: 9090
regex:
  max_matches: 50
cheatsheets:
  watch: true
  dir: ` + dir + `
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	viper.SetConfigFile(path)
	require.NoError(t, viper.ReadInConfig())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 50, cfg.Regex.MaxMatches)
	assert.True(t, cfg.Cheatsheets.Watch)
	assert.Equal(t, dir, cfg.Cheatsheets.Dir)
}

func TestLoad_ErrorsAreTyped(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	viper.Set("formatter.default_indent", 12)
	_, err := Load()
	require.Error(t, err)
	assert.True(t, errors.HasErrorType(err, errors.ErrorTypeConfig))
	assert.True(t, errors.HasErrorCode(err, errors.ErrCodeConfigInvalid))
	assert.Contains(t, err.Error(), "formatter.default_indent")
	assert.Contains(t, errors.GetErrorContext(err), "file")

	viper.Reset()
	viper.Set("server.port", "invalid_port")
	_, err = Load()
	require.Error(t, err)
	assert.True(t, errors.HasErrorCode(err, errors.ErrCodeConfigInvalid))
	assert.Contains(t, err.Error(), "failed to decode configuration")
}

func TestGitHubTokenFallback(t *testing.T) {
	viper.Reset()
	defer viper.Reset()
	t.Setenv("GITHUB_TOKEN", "ghp_fromenv")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "ghp_fromenv", cfg.GitHub.Token)

	viper.Set("github.token", "ghp_fromconfig")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "ghp_fromconfig", cfg.GitHub.Token)
}

func TestValidateConfigWithDetails(t *testing.T) {
	cfg := Default()
	result := ValidateConfigWithDetails(cfg)
	assert.True(t, result.Valid)
	assert.False(t, result.HasErrors())

	cfg.Server.Port = 70000
	cfg.Server.Host = "bad;host"
	cfg.Logging.Format = "xml"
	cfg.GitHub.Owner = "a/b"
	cfg.GitHub.APIURL = "ftp://example.com"
	result = ValidateConfigWithDetails(cfg)

	assert.False(t, result.Valid)
	fields := map[string]bool{}
	for _, e := range result.Errors {
		fields[e.Field] = true
	}
	assert.True(t, fields["server.port"])
	assert.True(t, fields["server.host"])
	assert.True(t, fields["logging.format"])
	assert.True(t, fields["github.owner"])
	assert.True(t, fields["github.api_url"])
	assert.Contains(t, result.String(), "Validation Errors")
}

func TestValidationWarnings(t *testing.T) {
	cfg := Default()
	cfg.Server.Port = 80
	cfg.Server.Environment = "staging"
	cfg.Cheatsheets.Watch = true

	result := ValidateConfigWithDetails(cfg)
	assert.True(t, result.Valid)
	assert.True(t, result.HasWarnings())
	assert.Len(t, result.Warnings, 3)
	assert.Contains(t, result.String(), "Validation Warnings")
}
