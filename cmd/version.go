package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/devkitlanka/devkit/internal/version"
)

var (
	versionFormat string
	versionShort  bool
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `Display version information for devkit including:

- Semantic version number
- Git commit hash
- Build timestamp
- Go version used for compilation
- Target platform (OS/architecture)

Examples:
  devkit version               # Show version
  devkit version --short       # Version and commit only
  devkit version --format json # Output as JSON`,
	RunE: runVersionCommand,
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().StringVarP(&versionFormat, "format", "f", "text", "Output format (text, json, yaml)")
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Show short version only")
}

func runVersionCommand(cmd *cobra.Command, args []string) error {
	info := version.Get()
	out := cmd.OutOrStdout()

	switch versionFormat {
	case "json", "yaml":
		return newPrinter(out, &StandardFlags{OutputFormat: versionFormat}).encode(info)
	case "text":
		if versionShort {
			fmt.Fprintln(out, info.Short())
			return nil
		}
		return outputVersionDefault(cmd, info)
	default:
		return fmt.Errorf("unsupported format: %s (supported: text, json, yaml)", versionFormat)
	}
}

func outputVersionDefault(cmd *cobra.Command, info *version.BuildInfo) error {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "devkit %s", info.Short())
	if info.Dirty {
		fmt.Fprint(out, " (dirty)")
	}
	fmt.Fprintln(out)

	if !info.BuildTime.IsZero() {
		fmt.Fprintf(out, "Built: %s\n", info.BuildTime.UTC().Format("2006-01-02 15:04:05 UTC"))
	}
	fmt.Fprintf(out, "Go: %s\n", info.GoVersion)
	fmt.Fprintf(out, "Platform: %s\n", info.Platform)

	return nil
}
