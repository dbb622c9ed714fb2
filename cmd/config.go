package cmd

import (
	"bufio"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/devkitlanka/devkit/internal/config"
	"github.com/devkitlanka/devkit/internal/errors"
	"github.com/devkitlanka/devkit/internal/logging"
)

const defaultConfigFile = ".devkit.yml"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage DevKit configuration",
	Long: `Manage DevKit configuration files and settings.

Examples:
  devkit config init                   # Write the defaults to .devkit.yml
  devkit config init --prompt-token    # Also store a GitHub token
  devkit config validate               # Validate .devkit.yml
  devkit config show --format json     # Show the resolved configuration`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with every default",
	RunE:  runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate a DevKit configuration file for correctness.

This command checks for:
- Valid port ranges and hostnames
- Known log levels and formats
- Sensible regex and formatter limits
- Readable cheat-sheet directories
- GitHub star counter settings

Examples:
  devkit config validate                      # Validate .devkit.yml
  devkit config validate --file config.yml    # Validate specific file
  devkit config validate --strict             # Treat warnings as errors`,
	RunE: runConfigValidate,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Display the configuration after loading the file, applying DEVKIT_
environment overrides, command-line flags and defaults.`,
	RunE: runConfigShow,
}

var (
	configOutput string
	configFile   string
	configFormat string
	configStrict bool
	configForce  bool
	configToken  bool
)

func init() {
	rootCmd.AddCommand(configCmd)

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configShowCmd)

	configInitCmd.Flags().StringVarP(&configOutput, "output", "o", defaultConfigFile, "Output configuration file")
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing file")
	configInitCmd.Flags().BoolVar(&configToken, "prompt-token", false, "Ask for a GitHub token to store in the file")

	configValidateCmd.Flags().
		StringVarP(&configFile, "file", "f", "", "Configuration file to validate (default: .devkit.yml)")
	configValidateCmd.Flags().BoolVar(&configStrict, "strict", false, "Treat warnings as errors")

	configShowCmd.Flags().StringVar(&configFormat, "format", "yaml", "Output format (yaml, json)")
}

// loadConfig resolves the configuration and attaches suggestions to
// failures.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		path := viper.ConfigFileUsed()
		if path == "" {
			path = defaultConfigFile
		}
		ctx := &errors.SuggestionContext{ConfigPath: path}

		return nil, errors.NewEnhancedError(
			"Failed to load configuration",
			err,
			errors.ConfigurationError(err.Error(), path, ctx),
		)
	}

	return cfg, nil
}

// newLogger builds the process logger from the logging section. Logs go to
// stderr so they never mix with command output.
func newLogger(cfg *config.Config) logging.Logger {
	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logging.LevelInfo
	}

	return logging.NewLogger(&logging.LoggerConfig{
		Level:     level,
		Format:    cfg.Logging.Format,
		Output:    os.Stderr,
		Component: "devkit",
	})
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(configOutput); err == nil && !configForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", configOutput)
	}

	cfg := config.Default()
	perm := os.FileMode(0o644)
	if configToken {
		token, err := promptSecret(cmd, "GitHub token: ")
		if err != nil {
			return fmt.Errorf("failed to read token: %w", err)
		}
		cfg.GitHub.Token = token
		// the file now holds a credential
		perm = 0o600
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	if err := os.WriteFile(configOutput, data, perm); err != nil {
		return errors.NewIOError(errors.ErrCodeInvalidPath, "failed to write "+configOutput, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", configOutput)

	return nil
}

// promptSecret reads one line from the command's input. Echo is turned off
// when the input is a terminal.
func promptSecret(cmd *cobra.Command, prompt string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), prompt)

	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", err
		}

		return strings.TrimSpace(string(secret)), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !stderrors.Is(err, io.EOF) {
		return "", err
	}

	return strings.TrimSpace(line), nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	targetFile := configFile
	if targetFile == "" {
		if _, err := os.Stat(defaultConfigFile); err != nil {
			return stderrors.New("no configuration file found. Use --file to specify a config file " +
				"or run 'devkit config init' to create one")
		}
		targetFile = defaultConfigFile
	}

	if _, err := os.Stat(targetFile); os.IsNotExist(err) {
		return fmt.Errorf("configuration file %s does not exist", targetFile)
	}

	fmt.Fprintf(out, "Validating configuration file: %s\n", targetFile)

	v := viper.New()
	v.SetConfigFile(targetFile)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read configuration file: %w", err)
	}

	var cfg config.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to parse configuration: %w", err)
	}

	result := config.ValidateConfigWithDetails(&cfg)

	if result.Valid && !result.HasWarnings() {
		fmt.Fprintln(out, "✅ Configuration is valid!")

		return nil
	}

	fmt.Fprint(out, result.String())

	if result.HasErrors() {
		return fmt.Errorf("configuration validation failed with %d errors", len(result.Errors))
	}
	if configStrict {
		return fmt.Errorf("configuration validation failed in strict mode with %d warnings", len(result.Warnings))
	}

	fmt.Fprintf(out, "Configuration is valid with %d warnings. Use --strict to treat warnings as errors.\n",
		len(result.Warnings))

	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// never print the token
	if cfg.GitHub.Token != "" {
		cfg.GitHub.Token = "********"
	}

	switch configFormat {
	case "yaml", "yml", "json":
		p := newPrinter(cmd.OutOrStdout(), &StandardFlags{OutputFormat: configFormat})
		if configFormat == "yml" {
			p.format = "yaml"
		}
		return p.encode(cfg)
	default:
		return fmt.Errorf("unsupported format: %s (supported: yaml, json)", configFormat)
	}
}
