package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/devkitlanka/devkit/internal/errors"
	"github.com/devkitlanka/devkit/internal/formatter"
	"github.com/devkitlanka/devkit/internal/highlight"
)

var formatCmd = &cobra.Command{
	Use:     "format [file|url]",
	Aliases: []string{"fmt"},
	Short:   "Format, minify or convert JSON and YAML",
	Long: `Re-serialise a JSON or YAML document. The input is a file, an http(s)
URL, or stdin when the argument is "-" or missing.

Operations:
  format    pretty-print in the input format (default)
  minify    compact output (YAML uses flow style)
  convert   JSON to YAML or YAML to JSON
  indent    pretty-print with --indent

Examples:
  devkit format package.json --indent 4
  devkit format compose.yml --op convert
  cat data.json | devkit format --op minify
  devkit format https://example.com/openapi.yaml --diff`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFormat,
}

var (
	formatFlags     *StandardFlags
	formatFrom      string
	formatOp        string
	formatIndent    int
	formatDialect   string
	formatDiff      bool
	formatHighlight bool
	formatWrite     string
)

func init() {
	rootCmd.AddCommand(formatCmd)

	formatFlags = AddStandardFlags(formatCmd, "output")
	formatCmd.Flags().StringVar(&formatFrom, "from", "", "Input format (json|yaml); detected when omitted")
	formatCmd.Flags().StringVar(&formatOp, "op", string(formatter.OpFormat), "Operation (format|minify|convert|indent)")
	formatCmd.Flags().IntVar(&formatIndent, "indent", 0, "Indent width (json 1-8, yaml 2-8)")
	formatCmd.Flags().StringVar(&formatDialect, "dialect", string(formatter.YAML12), "YAML dialect (1.2|1.1)")
	formatCmd.Flags().BoolVar(&formatDiff, "diff", false, "Show what the operation changed")
	formatCmd.Flags().BoolVar(&formatHighlight, "color", false, "Syntax-highlight the output")
	formatCmd.Flags().StringVarP(&formatWrite, "write", "w", "", "Write the output to a file")

	AddFlagValidation(formatCmd, "op", func(s string) error {
		_, err := formatter.ParseOperation(s)
		return err
	})
	AddFlagValidation(formatCmd, "from", func(s string) error {
		_, err := formatter.ParseFormat(s)
		return err
	})
}

type formatOutput struct {
	*formatter.Result `yaml:",inline"`
	Source            string              `json:"source,omitempty" yaml:"source,omitempty"`
	Diff              *formatter.LineDiff `json:"diff,omitempty" yaml:"diff,omitempty"`
}

func runFormat(cmd *cobra.Command, args []string) error {
	if err := formatFlags.ValidateFlags(); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	source := "-"
	if len(args) > 0 {
		source = args[0]
	}

	fromFlag := formatFrom
	var input string
	switch {
	case strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://"):
		fetcher := formatter.NewFetcher(formatter.FetchOptions{
			Timeout:  cfg.Formatter.FetchTimeout,
			MaxBytes: cfg.Formatter.MaxFetchBytes,
			Logger:   logger,
		})
		res, err := fetcher.Fetch(cmd.Context(), source)
		if err != nil {
			return err
		}
		input = res.Body
		if fromFlag == "" {
			fromFlag = string(res.Format)
		}
	default:
		in := StandardFlags{File: source}
		if input, err = in.ReadInput(cmd, nil); err != nil {
			return err
		}
	}

	from := formatter.DetectFile(source, input)
	if fromFlag != "" {
		if from, err = formatter.ParseFormat(fromFlag); err != nil {
			return err
		}
	}
	op, err := formatter.ParseOperation(formatOp)
	if err != nil {
		return err
	}

	conv := formatter.NewConverter(formatter.Options{
		DefaultIndent: cfg.Formatter.DefaultIndent,
		MaxInputBytes: cfg.Formatter.MaxInputBytes,
		Logger:        logger,
	})
	res, err := conv.Process(cmd.Context(), formatter.Request{
		Input:     input,
		From:      from,
		Operation: op,
		Indent:    formatIndent,
		Dialect:   formatter.Dialect(formatDialect),
	})
	if err != nil {
		return err
	}

	out := formatOutput{Result: res, Source: source}
	if formatDiff && op != formatter.OpConvert {
		out.Diff = formatter.Diff(input, res.Output)
	}

	if formatWrite != "" {
		if err := os.WriteFile(formatWrite, []byte(res.Output), 0o644); err != nil {
			return errors.NewIOError(errors.ErrCodeInvalidPath, "failed to write "+formatWrite, err)
		}
	}

	p := newPrinter(cmd.OutOrStdout(), formatFlags)
	if p.structured() {
		return p.encode(out)
	}

	if out.Diff != nil {
		p.heading(fmt.Sprintf("%d added, %d removed", out.Diff.Added, out.Diff.Removed))
		p.printf("%s", out.Diff.Unified())
		return nil
	}
	if formatWrite != "" {
		p.printf("Wrote %s (%s, %d document(s))\n", formatWrite, res.Format, res.Documents)
		return nil
	}

	text := res.Output
	if formatHighlight {
		colored, err := highlight.New(cfg.Highlight.Style).Terminal(formatter.DownloadName(res.Format), text)
		if err == nil {
			text = colored
		}
	}
	p.printf("%s", text)
	if !strings.HasSuffix(text, "\n") {
		p.println()
	}

	return nil
}
