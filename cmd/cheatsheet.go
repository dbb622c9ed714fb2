package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/devkitlanka/devkit/internal/cheatsheet"
	"github.com/devkitlanka/devkit/internal/errors"
	"github.com/devkitlanka/devkit/internal/i18n"
	"github.com/devkitlanka/devkit/internal/tui"
)

var cheatsheetCmd = &cobra.Command{
	Use:     "cheatsheet [sheet]",
	Aliases: []string{"cs", "sheet"},
	Short:   "Show bilingual command cheat sheets",
	Long: `Show the git, linux, docker and npm cheat sheets in English and Sinhala,
plus any sheets found in cheatsheets.dir.

Examples:
  devkit cheatsheet --list
  devkit cheatsheet git --category Branching
  devkit cheatsheet docker --search logs --lang en
  devkit cheatsheet git --search stash --copy 1
  devkit cheatsheet --tui`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheatsheet,
}

var (
	cheatsheetFlags    *StandardFlags
	cheatsheetList     bool
	cheatsheetCategory string
	cheatsheetSearch   string
	cheatsheetTUI      bool
	cheatsheetCopy     int

	clipboardWrite = clipboard.WriteAll
)

func init() {
	rootCmd.AddCommand(cheatsheetCmd)

	cheatsheetFlags = AddStandardFlags(cheatsheetCmd, "output", "language")
	cheatsheetCmd.Flags().BoolVar(&cheatsheetList, "list", false, "List the available sheets")
	cheatsheetCmd.Flags().StringVarP(&cheatsheetCategory, "category", "c", cheatsheet.AllCategories, "Only show one category")
	cheatsheetCmd.Flags().StringVarP(&cheatsheetSearch, "search", "s", "", "Filter by command or description")
	cheatsheetCmd.Flags().BoolVar(&cheatsheetTUI, "tui", false, "Browse interactively")
	cheatsheetCmd.Flags().IntVar(&cheatsheetCopy, "copy", 0, "Copy the n-th listed command to the clipboard")
	cheatsheetCmd.Flags().String("sheets", "", "Directory with extra cheat sheets")
}

type sheetListing struct {
	ID       string `json:"id" yaml:"id"`
	Label    string `json:"label" yaml:"label"`
	Entries  int    `json:"entries" yaml:"entries"`
	Language string `json:"language" yaml:"language"`
	Source   string `json:"source" yaml:"source"`
}

type sheetOutput struct {
	ID       string             `json:"id" yaml:"id"`
	Label    string             `json:"label" yaml:"label"`
	Category string             `json:"category" yaml:"category"`
	Query    string             `json:"query,omitempty" yaml:"query,omitempty"`
	Entries  []cheatsheet.Entry `json:"entries" yaml:"entries"`
}

func runCheatsheet(cmd *cobra.Command, args []string) error {
	if err := cheatsheetFlags.ValidateFlags(); err != nil {
		return err
	}
	viper.BindPFlag("cheatsheets.dir", cmd.Flags().Lookup("sheets"))
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	repo, err := cheatsheet.NewRepository(cheatsheet.Options{Dir: cfg.Cheatsheets.Dir, Logger: newLogger(cfg)})
	if err != nil {
		return err
	}

	lang := cfg.Cheatsheets.Language
	if cheatsheetFlags.Lang != "" {
		lang = i18n.Normalize(cheatsheetFlags.Lang)
	}

	id := ""
	if len(args) > 0 {
		id = args[0]
	}

	if cheatsheetTUI {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			return errors.NewValidationError(errors.ErrCodeInvalidOption, "--tui needs an interactive terminal").
				WithHints("drop --tui to print the sheet as a table")
		}
		return tui.Run(cmd.Context(), repo, tui.Options{Sheet: id, Query: cheatsheetSearch, Lang: lang})
	}

	p := newPrinter(cmd.OutOrStdout(), cheatsheetFlags)
	if cheatsheetList || id == "" {
		return printSheetList(p, repo)
	}

	sheet, err := repo.Sheet(id)
	if err != nil {
		ctx := &errors.SuggestionContext{AvailableSheets: repo.IDs()}
		return errors.NewEnhancedError("Unknown cheat sheet", err, errors.SheetNotFoundError(id, ctx))
	}
	if !cheatsheet.HasCategory(sheet, cheatsheetCategory) {
		names := make([]string, 0)
		for _, c := range cheatsheet.Categories(sheet) {
			names = append(names, c.Name)
		}
		return errors.InvalidOption("category", cheatsheetCategory, names...)
	}

	entries := cheatsheet.Filter(sheet, cheatsheetSearch, cheatsheetCategory)
	tr := i18n.New(lang)

	if cheatsheetCopy != 0 {
		if cheatsheetCopy < 1 || cheatsheetCopy > len(entries) {
			return errors.InvalidOption("copy", cheatsheetCopy, fmt.Sprintf("1..%d", len(entries)))
		}
		text := entries[cheatsheetCopy-1].CopyText()
		if err := clipboardWrite(text); err != nil {
			return fmt.Errorf("%s", tr.T("cheatsheet.copy_failed", err.Error()))
		}
		p.println(tr.T("cheatsheet.copied") + " " + text)
		return nil
	}

	if p.structured() {
		return p.encode(sheetOutput{
			ID:       sheet.ID,
			Label:    sheet.Label,
			Category: cheatsheetCategory,
			Query:    cheatsheetSearch,
			Entries:  entries,
		})
	}

	p.heading(fmt.Sprintf("%s  %s", sheet.Label, tr.T("cheatsheet.count", len(entries))))
	if len(entries) == 0 {
		p.println(tr.T("cheatsheet.empty"))
		p.println(p.style.dim.Render(tr.T("cheatsheet.empty_hint")))
		return nil
	}

	rows := make([][]string, 0, len(entries))
	for i, e := range entries {
		desc := e.Description
		if lang != i18n.English && e.Localized != "" {
			desc = e.Localized
		}
		rows = append(rows, []string{strconv.Itoa(i + 1), e.Command, e.Category, desc})
	}
	p.table([]string{"#", "COMMAND", tr.T("cheatsheet.category"), "DESCRIPTION"}, rows)

	return nil
}

func printSheetList(p *printer, repo *cheatsheet.Repository) error {
	sheets := repo.Sheets()
	listing := make([]sheetListing, len(sheets))
	for i, s := range sheets {
		listing[i] = sheetListing{ID: s.ID, Label: s.Label, Entries: len(s.Entries), Language: s.Language, Source: s.Source}
	}
	if p.structured() {
		return p.encode(listing)
	}

	rows := make([][]string, len(listing))
	for i, l := range listing {
		rows[i] = []string{l.ID, l.Label, strconv.Itoa(l.Entries), l.Source}
	}
	p.table([]string{"ID", "LABEL", "ENTRIES", "SOURCE"}, rows)

	return nil
}
