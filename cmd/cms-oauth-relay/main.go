package main

import (
	"context"
	"fmt"
	"os"

	"github.com/brizzai/cms-oauth-relay/internal/auth"
	"github.com/brizzai/cms-oauth-relay/internal/config"
	"github.com/brizzai/cms-oauth-relay/internal/logger"
	"github.com/brizzai/cms-oauth-relay/internal/requester"
	"github.com/brizzai/cms-oauth-relay/internal/server"
	"github.com/brizzai/cms-oauth-relay/internal/telemetry"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func main() {
	Execute()
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "cms-oauth-relay",
	Short: "OAuth relay for static-site CMS logins",
	Long: `cms-oauth-relay lets a static-site CMS authenticate editors with GitHub
without shipping the OAuth client secret to the browser. It redirects the login
popup to GitHub, exchanges the returned code for a token and hands the token
back to the CMS window.`,
	SilenceUsage: true,
	RunE:         run,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	// Place version check in PreRun to ensure flags are parsed first
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		versionFlag, _ := cmd.Flags().GetBool("version")
		if versionFlag {
			pterm.Info.Println(config.GetVersionInfo())
			os.Exit(0)
		}
	}

	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func init() {
	config.InitFlags(rootCmd.Flags())
	rootCmd.PersistentFlags().BoolP("version", "v", false, "Show version information")
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.InitLogger(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.CORS.QuoteOrigin {
		logger.Warn("Access-Control-Allow-Origin is sent wrapped in double quotes, most browsers reject this; set cors.quote_origin=false once the CMS no longer depends on it",
			zap.String("origin", cfg.CORS.AllowOrigin()),
		)
	}
	if cfg.CORS.Origin == "" {
		logger.Warn("No allowed origin configured, set ORIGIN_HEADER")
	}

	app := fx.New(
		fx.Supply(cfg),
		fx.WithLogger(logger.FxEventLogger),
		config.Module,
		telemetry.Module,
		requester.Module,
		auth.Module,
		server.Module,
	)

	startCtx, cancel := context.WithTimeout(context.Background(), app.StartTimeout())
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}

	logger.Info("Relay ready",
		zap.String("version", config.GetVersionInfo()),
		zap.String("address", cfg.Server.Addr()),
	)

	shutdown := <-app.Wait()
	reason := "shutdown requested"
	if shutdown.Signal != nil {
		reason = shutdown.Signal.String()
	}
	logger.Info("Stopping relay", zap.String("reason", reason))

	stopCtx, cancel := context.WithTimeout(context.Background(), app.StopTimeout())
	defer cancel()
	if err := app.Stop(stopCtx); err != nil {
		return fmt.Errorf("failed to stop cleanly: %w", err)
	}

	if shutdown.ExitCode != 0 {
		return fmt.Errorf("relay exited with code %d", shutdown.ExitCode)
	}
	return nil
}
