// Package cmd provides the command-line interface for DevKit with
// configuration management supporting multiple configuration sources.
//
// Configuration System:
//
//	The CLI reads configuration from several sources with clear precedence:
//	1. Command-line flags (--config, --port, etc.) - highest priority
//	2. DEVKIT_CONFIG_FILE environment variable - custom config file path
//	3. Individual environment variables (DEVKIT_SERVER_PORT, etc.)
//	4. Configuration files (.devkit.yml) - lowest priority
//
// Environment Variables:
//
//	DEVKIT_CONFIG_FILE: Path to custom configuration file
//	DEVKIT_SERVER_PORT: Override server port
//	DEVKIT_GITHUB_TOKEN: Token for the star counter
//	And the rest following the DEVKIT_<SECTION>_<OPTION> pattern
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "devkit",
	Short: "Developer toolkit: regex tester, JSON/YAML formatter, boilerplates and cheat sheets",
	Long: `DevKit bundles the everyday tools of a developer in one binary.

Key Features:
  • Regex playground with match highlighting and substitution preview
  • JSON and YAML formatting, minifying and conversion
  • Project boilerplates with add-ons, written to disk or zipped
  • Bilingual (English / Sinhala) command cheat sheets

Quick Start:
  devkit serve                        Start the web interface
  devkit regex '\d+' 'a1b22'          Test a pattern
  devkit format config.yaml --op convert
  devkit generate nextjs --name my-app --addon tailwind
  devkit cheatsheet git --tui         Browse the git sheet interactively

Command Aliases (for faster typing):
  serve (s), regex (re), format (fmt), generate (gen), cheatsheet (cs)`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .devkit.yml, can also use DEVKIT_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "", "log level (debug, info, warn, error)")
	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// initConfig points viper at the config file.
//
// Loading priority (highest to lowest):
//  1. --config flag
//  2. DEVKIT_CONFIG_FILE environment variable
//  3. .devkit.yml in the current directory
//
// Every key can also be overridden with a DEVKIT_ variable, e.g.
// DEVKIT_SERVER_PORT=9000. A missing config file is not an error.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("DEVKIT_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".devkit")
	}

	viper.SetEnvPrefix("DEVKIT")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
