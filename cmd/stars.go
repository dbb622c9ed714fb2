package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/devkitlanka/devkit/internal/github"
)

var starsCmd = &cobra.Command{
	Use:   "stars [owner/repo]",
	Short: "Show the GitHub star count of a repository",
	Long: `Look up the stargazer count the site header shows. Without an argument
the configured github.owner and github.repo are used.

Examples:
  devkit stars
  devkit stars golang/go -o json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStars,
}

var starsFlags *StandardFlags

func init() {
	rootCmd.AddCommand(starsCmd)

	starsFlags = AddStandardFlags(starsCmd, "output")
}

type starsOutput struct {
	Repository string `json:"repository" yaml:"repository"`
	Count      int    `json:"stargazers_count" yaml:"stargazers_count"`
}

func runStars(cmd *cobra.Command, args []string) error {
	if err := starsFlags.ValidateFlags(); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	owner, repo := cfg.GitHub.Owner, cfg.GitHub.Repo
	if len(args) > 0 {
		var ok bool
		if owner, repo, ok = strings.Cut(args[0], "/"); !ok {
			return fmt.Errorf("expected owner/repo, got %q", args[0])
		}
	}

	if owner == "" {
		owner = github.DefaultOwner
	}
	if repo == "" {
		repo = github.DefaultRepo
	}

	client := github.NewClient(github.Options{
		APIURL:  cfg.GitHub.APIURL,
		Token:   cfg.GitHub.Token,
		Timeout: cfg.GitHub.Timeout,
		Logger:  newLogger(cfg),
	})
	stars, err := client.Stars(cmd.Context(), owner, repo)
	if err != nil {
		return err
	}

	out := starsOutput{Repository: owner + "/" + repo, Count: stars.Count}

	p := newPrinter(cmd.OutOrStdout(), starsFlags)
	if p.structured() {
		return p.encode(out)
	}
	p.printf("%s ★ %d\n", out.Repository, out.Count)

	return nil
}
