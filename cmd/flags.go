package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/devkitlanka/devkit/internal/errors"
	"github.com/devkitlanka/devkit/internal/i18n"
)

// StandardFlags provides consistent flag definitions across commands
type StandardFlags struct {
	// Server flags
	Port int    `flag:"port,p" desc:"Port to serve on" default:"8080"`
	Host string `flag:"host" desc:"Host to bind to" default:"localhost"`

	// Input flags
	File string `flag:"file,f" desc:"Read input from a file (- for stdin)" default:""`

	// Output flags
	OutputFormat string `flag:"output,o" desc:"Output format (table|json|yaml)" default:"table"`
	Quiet        bool   `flag:"quiet,q" desc:"Suppress decorations" default:"false"`

	// Language flags
	Lang string `flag:"lang" desc:"Interface language (en|si)" default:""`
}

var outputFormats = []string{"table", "json", "yaml"}

// AddStandardFlags adds standard flags to a command
func AddStandardFlags(cmd *cobra.Command, flagTypes ...string) *StandardFlags {
	flags := &StandardFlags{}

	for _, flagType := range flagTypes {
		switch flagType {
		case "server":
			addServerFlags(cmd, flags)
		case "input":
			addInputFlags(cmd, flags)
		case "output":
			addOutputFlags(cmd, flags)
		case "language":
			addLanguageFlags(cmd, flags)
		}
	}

	return flags
}

func addServerFlags(cmd *cobra.Command, flags *StandardFlags) {
	cmd.Flags().IntVarP(&flags.Port, "port", "p", 8080, "Port to serve on")
	cmd.Flags().StringVar(&flags.Host, "host", "localhost", "Host to bind to")
	AddFlagValidation(cmd, "port", ValidatePort)
}

func addInputFlags(cmd *cobra.Command, flags *StandardFlags) {
	cmd.Flags().StringVarP(&flags.File, "file", "f", "", "Read input from a file (- for stdin)")
}

func addOutputFlags(cmd *cobra.Command, flags *StandardFlags) {
	cmd.Flags().StringVarP(&flags.OutputFormat, "output", "o", "table", "Output format (table|json|yaml)")
	cmd.Flags().BoolVarP(&flags.Quiet, "quiet", "q", false, "Suppress decorations")
	AddFlagValidation(cmd, "output", ValidateOutputFormat)
}

func addLanguageFlags(cmd *cobra.Command, flags *StandardFlags) {
	cmd.Flags().StringVar(&flags.Lang, "lang", "", "Interface language (en|si)")
	AddFlagValidation(cmd, "lang", ValidateLanguage)
}

// ValidateFlags validates flag combinations and values
func (f *StandardFlags) ValidateFlags() error {
	if f.Port != 0 {
		if err := ValidatePort(strconv.Itoa(f.Port)); err != nil {
			return err
		}
	}

	if f.OutputFormat != "" {
		if err := ValidateOutputFormat(f.OutputFormat); err != nil {
			return err
		}
	}

	if f.Lang != "" {
		if err := ValidateLanguage(f.Lang); err != nil {
			return err
		}
	}

	if err := ValidateFileExists(f.File); err != nil {
		return err
	}

	return nil
}

// ReadInput returns the command input: the file named by --file, stdin for
// "-", or the first positional argument.
func (f *StandardFlags) ReadInput(cmd *cobra.Command, args []string) (string, error) {
	switch {
	case f.File == "-":
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", errors.NewIOError(errors.ErrCodeInvalidPath, "failed to read stdin", err)
		}
		return string(data), nil
	case f.File != "":
		data, err := os.ReadFile(f.File)
		if err != nil {
			return "", errors.NewIOError(errors.ErrCodeInvalidPath, "failed to read "+f.File, err)
		}
		return string(data), nil
	case len(args) > 0:
		return args[0], nil
	}

	return "", fmt.Errorf("no input: pass it as an argument or use --file")
}

// AddFlagValidation adds validation for a specific flag
func AddFlagValidation(cmd *cobra.Command, flagName string, validator func(string) error) {
	flag := cmd.Flags().Lookup(flagName)
	if flag == nil {
		return
	}

	originalSet := flag.Value.Set

	flag.Value = &validatingValue{
		Value:       flag.Value,
		validator:   validator,
		originalSet: originalSet,
	}
}

type validatingValue struct {
	pflag.Value
	validator   func(string) error
	originalSet func(string) error
}

func (v *validatingValue) Set(val string) error {
	if v.validator != nil {
		if err := v.validator(val); err != nil {
			return err
		}
	}
	return v.originalSet(val)
}

// Port validation helper
func ValidatePort(portStr string) error {
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("invalid port number: %s", portStr)
	}

	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}

	return nil
}

// ValidateOutputFormat accepts table, json and yaml.
func ValidateOutputFormat(format string) error {
	for _, f := range outputFormats {
		if format == f {
			return nil
		}
	}

	return fmt.Errorf("invalid output format %s, must be one of: %s",
		format, strings.Join(outputFormats, ", "))
}

// ValidateLanguage accepts the supported interface languages.
func ValidateLanguage(lang string) error {
	if lang == "" || i18n.IsSupported(lang) {
		return nil
	}

	return fmt.Errorf("unsupported language %s, must be one of: %s",
		lang, strings.Join(i18n.Supported(), ", "))
}

// ValidateFileExists accepts "", "-" (stdin) and existing regular files.
func ValidateFileExists(filename string) error {
	if filename == "" || filename == "-" {
		return nil
	}

	info, err := os.Stat(filename)
	switch {
	case os.IsNotExist(err):
		return errors.ErrInvalidPath(filename).WithHints("the file does not exist; use --file - to read stdin")
	case err != nil:
		return errors.NewIOError(errors.ErrCodeInvalidPath, "cannot read "+filename, err)
	case info.IsDir():
		return errors.ErrInvalidPath(filename).WithHints("--file needs a file, not a directory")
	}

	return nil
}
