package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/devkitlanka/devkit/internal/regex"
)

var regexCmd = &cobra.Command{
	Use:     "regex <pattern> [text]",
	Aliases: []string{"re"},
	Short:   "Test a regular expression",
	Long: `Evaluate a pattern against a test string and show every match with its
capture groups. Patterns use RE2 syntax.

Flags are given as letters: g (global), i (ignore case), m (multiline),
s (dot matches newline), u (unicode, always on) and y (sticky).

Examples:
  devkit regex '\d+' 'a1b22c333'
  devkit regex '(?P<user>\w+)@(\w+)\.com' --file emails.txt -o json
  devkit regex 'colou?r' 'color colour' --flags gi --replace 'hue'
  devkit regex --patterns                  # list common patterns`,
	Args: func(cmd *cobra.Command, args []string) error {
		if regexPatterns {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.RangeArgs(1, 2)(cmd, args)
	},
	RunE: runRegex,
}

var (
	regexFlags    *StandardFlags
	regexFlagSet  string
	regexReplace  string
	regexPatterns bool
)

func init() {
	rootCmd.AddCommand(regexCmd)

	regexFlags = AddStandardFlags(regexCmd, "input", "output")
	regexCmd.Flags().StringVarP(&regexFlagSet, "flags", "F", regex.DefaultFlags.String(), "Flag letters (gimsuy)")
	regexCmd.Flags().StringVarP(&regexReplace, "replace", "r", "", "Preview substituting this replacement ($1, ${name}, $&)")
	regexCmd.Flags().BoolVar(&regexPatterns, "patterns", false, "List the common patterns")
	AddFlagValidation(regexCmd, "flags", func(s string) error {
		_, err := regex.ParseFlags(s)
		return err
	})
}

type regexOutput struct {
	*regex.Result `yaml:",inline"`
	Count         int                 `json:"count" yaml:"count"`
	Substitution  *regex.Substitution `json:"substitution,omitempty" yaml:"substitution,omitempty"`
}

func runRegex(cmd *cobra.Command, args []string) error {
	if err := regexFlags.ValidateFlags(); err != nil {
		return err
	}
	p := newPrinter(cmd.OutOrStdout(), regexFlags)

	if regexPatterns {
		return printCommonPatterns(p)
	}

	flags, err := regex.ParseFlags(regexFlagSet)
	if err != nil {
		return err
	}

	pattern := args[0]
	subject, err := regexFlags.ReadInput(cmd, args[1:])
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	eval := regex.NewEvaluator(regex.Options{
		MaxMatches:      cfg.Regex.MaxMatches,
		MaxSubjectBytes: cfg.Regex.MaxSubjectLen,
		Logger:          newLogger(cfg),
	})

	res, err := eval.Evaluate(cmd.Context(), pattern, subject, flags)
	if err != nil {
		return err
	}
	out := regexOutput{Result: res, Count: res.Count()}

	if cmd.Flags().Changed("replace") {
		sub, err := eval.Replace(cmd.Context(), pattern, subject, regexReplace, flags)
		if err != nil {
			return err
		}
		out.Substitution = sub
	}

	if p.structured() {
		return p.encode(out)
	}

	return printRegexResult(p, subject, out)
}

func printRegexResult(p *printer, subject string, out regexOutput) error {
	p.heading(out.Describe())

	marked, err := regex.ComposeFunc(subject, out.Matches,
		func(s string) string { return s },
		func(_ int, text string) string { return p.style.match.Render(text) },
	)
	if err != nil {
		return err
	}
	p.println(marked)

	if out.Count > 0 {
		p.println()
		rows := make([][]string, 0, len(out.Matches))
		for i, m := range out.Matches {
			rows = append(rows, []string{
				strconv.Itoa(i + 1),
				fmt.Sprintf("%d-%d", m.Index, m.End),
				strconv.Quote(m.Text),
				describeGroups(m.Groups),
			})
		}
		p.table([]string{"#", "RANGE", "MATCH", "GROUPS"}, rows)
	}

	if out.Substitution != nil {
		p.println()
		p.heading(fmt.Sprintf("Substitution (%d replaced)", out.Substitution.Replaced))
		p.println(out.Substitution.Output)
	}

	return nil
}

func describeGroups(groups []regex.Group) string {
	parts := make([]string, 0, len(groups))
	for i, g := range groups {
		name := strconv.Itoa(i + 1)
		if g.Name != "" {
			name = g.Name
		}
		if !g.Matched {
			parts = append(parts, name+"=undefined")
			continue
		}
		parts = append(parts, name+"="+strconv.Quote(g.Text))
	}

	return strings.Join(parts, " ")
}

func printCommonPatterns(p *printer) error {
	patterns := regex.CommonPatterns()
	if p.structured() {
		return p.encode(patterns)
	}

	rows := make([][]string, 0, len(patterns))
	for _, cp := range patterns {
		rows = append(rows, []string{cp.Name, cp.Pattern})
	}
	p.table([]string{"NAME", "PATTERN"}, rows)

	return nil
}
