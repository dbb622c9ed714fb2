package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/devkitlanka/devkit/internal/errors"
	"github.com/devkitlanka/devkit/internal/server"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"s"},
	Short:   "Start the DevKit web interface",
	Long: `Start the web server with the regex playground, the JSON/YAML formatter,
the boilerplate generator and the cheat sheets.

Examples:
  devkit serve                     # http://localhost:8080
  devkit serve --port 3000
  devkit serve --sheets ./sheets --watch`,
	RunE: runServe,
}

var serveFlags *StandardFlags

func init() {
	rootCmd.AddCommand(serveCmd)

	serveFlags = AddStandardFlags(serveCmd, "server")
	serveCmd.Flags().String("sheets", "", "Directory with extra cheat sheets")
	serveCmd.Flags().Bool("watch", false, "Reload cheat sheets when the directory changes")
	serveCmd.Flags().String("environment", "", "Environment (development or production)")

	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	viper.BindPFlag("server.environment", serveCmd.Flags().Lookup("environment"))
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := serveFlags.ValidateFlags(); err != nil {
		return err
	}

	// --sheets is shared with the cheatsheet command, so bind at run time
	viper.BindPFlag("cheatsheets.dir", cmd.Flags().Lookup("sheets"))
	viper.BindPFlag("cheatsheets.watch", cmd.Flags().Lookup("watch"))

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	srv, err := server.New(cfg, server.WithLogger(logger))
	if err != nil {
		return errors.NewEnhancedError("Failed to create server", err, nil)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(cmd.OutOrStdout(), "Starting DevKit at http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)

	if err := srv.Start(ctx); err != nil {
		return err
	}

	if ctx.Err() != nil {
		logger.Info(context.Background(), "Server stopped")
	}

	return nil
}
