package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/devkitlanka/devkit/internal/errors"
	"github.com/devkitlanka/devkit/internal/highlight"
	"github.com/devkitlanka/devkit/internal/scaffolding"
)

var generateCmd = &cobra.Command{
	Use:     "generate [template]",
	Aliases: []string{"gen", "g"},
	Short:   "Generate a project boilerplate",
	Long: `Render a project template with optional add-ons and write it to disk,
pack it as a zip archive or print it.

Examples:
  devkit generate --list
  devkit generate nextjs --name my-app --addon tailwind --addon eslint
  devkit generate django --name shop --dir ./shop
  devkit generate laravel --name api --zip api.zip
  devkit generate sveltekit --show src/routes/+page.svelte`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGenerate,
}

var (
	generateFlags       *StandardFlags
	generateList        bool
	generateName        string
	generateDescription string
	generateAddons      []string
	generateDir         string
	generateForce       bool
	generateZip         string
	generateShow        string
)

func init() {
	rootCmd.AddCommand(generateCmd)

	generateFlags = AddStandardFlags(generateCmd, "output")
	generateCmd.Flags().BoolVar(&generateList, "list", false, "List templates and their add-ons")
	generateCmd.Flags().StringVarP(&generateName, "name", "n", "", "Project name")
	generateCmd.Flags().StringVar(&generateDescription, "description", "", "Project description")
	generateCmd.Flags().StringSliceVarP(&generateAddons, "addon", "a", nil, "Enable an add-on (repeatable)")
	generateCmd.Flags().StringVarP(&generateDir, "dir", "d", "", "Write the files into this directory")
	generateCmd.Flags().BoolVar(&generateForce, "force", false, "Overwrite existing files")
	generateCmd.Flags().StringVar(&generateZip, "zip", "", "Write a zip archive (use . for <name>.zip)")
	generateCmd.Flags().StringVar(&generateShow, "show", "", "Print one generated file with highlighting")

	viper.BindPFlag("generator.default_name", generateCmd.Flags().Lookup("name"))
	viper.BindPFlag("generator.default_description", generateCmd.Flags().Lookup("description"))
}

type generateOutput struct {
	Template string   `json:"template" yaml:"template"`
	Project  string   `json:"project" yaml:"project"`
	Addons   []string `json:"addons" yaml:"addons"`
	Files    []string `json:"files" yaml:"files"`
	Written  []string `json:"written,omitempty" yaml:"written,omitempty"`
	Archive  string   `json:"archive,omitempty" yaml:"archive,omitempty"`
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if err := generateFlags.ValidateFlags(); err != nil {
		return err
	}
	p := newPrinter(cmd.OutOrStdout(), generateFlags)
	registry := scaffolding.Builtin()

	if generateList || len(args) == 0 {
		return printCatalogue(p, registry)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	project := scaffolding.ProjectConfig{
		Name:        cfg.Generator.DefaultName,
		Description: cfg.Generator.DefaultDescription,
	}
	if generateName != "" {
		project.Name = generateName
	}
	if generateDescription != "" {
		project.Description = generateDescription
	}

	id := args[0]
	fs, err := registry.Generate(id, project, generateAddons)
	if err != nil {
		if errors.HasErrorCode(err, errors.ErrCodeTemplateNotFound) {
			ctx := &errors.SuggestionContext{AvailableTemplates: registry.IDs()}
			return errors.NewEnhancedError("Unknown template", err, errors.TemplateNotFoundError(id, ctx))
		}
		return err
	}

	out := generateOutput{
		Template: fs.Template,
		Project:  fs.Project.Name,
		Addons:   fs.Addons,
		Files:    fs.Paths(),
	}

	if generateShow != "" {
		return showGeneratedFile(p, fs, generateShow, cfg.Highlight.Style)
	}

	if generateDir != "" {
		written, err := fs.WriteTo(generateDir, generateForce)
		if err != nil {
			return err
		}
		out.Written = written
	}

	if generateZip != "" {
		archive := generateZip
		if archive == "." {
			archive = fs.ArchiveName()
		}
		if err := writeArchive(fs, archive, generateForce); err != nil {
			return err
		}
		out.Archive = archive
	}

	if p.structured() {
		return p.encode(out)
	}

	p.heading(fmt.Sprintf("%s (%s) - %d files", out.Project, out.Template, len(out.Files)))
	if len(out.Addons) > 0 {
		p.printf("add-ons: %s\n", strings.Join(out.Addons, ", "))
	}
	for _, path := range out.Files {
		p.println("  " + path)
	}
	if out.Written != nil {
		p.println(p.style.success.Render(fmt.Sprintf("Wrote %d files to %s", len(out.Written), generateDir)))
	}
	if out.Archive != "" {
		p.println(p.style.success.Render("Wrote " + out.Archive))
	}

	return nil
}

func writeArchive(fs *scaffolding.FileSet, path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return errors.NewValidationError(errors.ErrCodeFileExists, "file already exists: "+path).
			WithHints("pass --force to overwrite existing files")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.WrapIO(err, errors.ErrCodeInvalidPath, "failed to create directory")
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.WrapIO(err, errors.ErrCodeInvalidPath, "failed to create "+path)
	}
	if err := fs.Zip(f); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

func showGeneratedFile(p *printer, fs *scaffolding.FileSet, path, style string) error {
	file, ok := fs.Get(path)
	if !ok {
		return errors.NewNotFoundError(errors.ErrCodeInvalidPath, "no generated file "+path).
			WithHints("generated files: " + strings.Join(fs.Paths(), ", "))
	}

	if p.structured() {
		return p.encode(file)
	}

	text := file.Content
	if colored, err := highlight.New(style).Terminal(file.Path, text); err == nil {
		text = colored
	}
	p.heading(file.Path)
	p.printf("%s", text)
	if !strings.HasSuffix(text, "\n") {
		p.println()
	}

	return nil
}

func printCatalogue(p *printer, registry *scaffolding.Registry) error {
	catalogue := registry.Catalogue()
	if p.structured() {
		return p.encode(catalogue)
	}

	rows := make([][]string, 0, len(catalogue))
	for _, t := range catalogue {
		addons := make([]string, len(t.Addons))
		for i, a := range t.Addons {
			addons[i] = a.ID
		}
		rows = append(rows, []string{t.ID, t.Name, strconv.Itoa(t.BaseFiles), strings.Join(addons, ", ")})
	}
	p.table([]string{"ID", "NAME", "FILES", "ADD-ONS"}, rows)

	return nil
}
