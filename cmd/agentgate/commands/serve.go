package commands

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/agentgate-ai/agentgate/internal/config"
	"github.com/agentgate-ai/agentgate/internal/event"
	"github.com/agentgate-ai/agentgate/internal/logging"
	"github.com/agentgate-ai/agentgate/internal/rules"
	"github.com/agentgate-ai/agentgate/internal/server"
	"github.com/agentgate-ai/agentgate/internal/session"
)

var (
	servePort     int
	serveHostname string
	serveDir      string
	serveCLI      string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the supervisor and its HTTP API",
	Long: `Start the supervisor as a long-running server. Sessions against the
assistant CLI are started and controlled through the HTTP API; approval
decisions stream out over SSE on /event.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to listen on")
	serveCmd.Flags().StringVar(&serveHostname, "hostname", "", "Hostname to listen on")
	serveCmd.Flags().StringVar(&serveDir, "directory", "", "Working directory")
	serveCmd.Flags().StringVar(&serveCLI, "cli", "", "Assistant CLI executable")
}

func runServe(cmd *cobra.Command, args []string) error {
	// Local .env is optional.
	_ = godotenv.Load()

	workDir := serveDir
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		workDir = wd
	}

	cfg, err := config.Load(workDir)
	if err != nil {
		return err
	}

	// Flags beat config and env.
	if servePort != 0 {
		cfg.Port = servePort
	}
	if serveHostname != "" {
		cfg.Hostname = serveHostname
	}
	if serveCLI != "" {
		cfg.CLI = serveCLI
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if prettyLogs {
		cfg.PrettyLogs = true
	}

	logging.Init(logging.Config{
		Level:  logging.ParseLevel(cfg.LogLevel),
		Pretty: cfg.PrettyLogs,
	})
	log := logging.For("serve")
	log.Info().Str("version", Version).Str("dir", workDir).Msg("starting agentgate")

	if err := config.GetPaths().EnsurePaths(); err != nil {
		return err
	}

	engine := rules.NewEngine()
	if cfg.AutoApproveAll {
		engine.SetAutoApproveAll(true)
	}

	bus := event.NewBus()
	defer bus.Close()

	coordinator := session.NewCoordinator(session.Options{
		Command: cfg.CLI,
		Args:    cfg.CLIArgs,
	}, engine, bus)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Rule set from disk, hot-reloaded on change.
	if cfg.RulesFile != "" {
		if loaded, err := config.LoadRules(cfg.RulesFile); err != nil {
			log.Warn().Err(err).Str("path", cfg.RulesFile).Msg("rules file not loaded; using defaults")
		} else {
			coordinator.ReplaceRules(loaded)
		}
		go func() {
			if err := config.WatchRules(ctx, cfg.RulesFile, coordinator.ReplaceRules); err != nil && ctx.Err() == nil {
				log.Warn().Err(err).Msg("rules watcher stopped")
			}
		}()
	}

	serverConfig := server.DefaultConfig()
	serverConfig.Hostname = cfg.Hostname
	serverConfig.Port = cfg.Port

	srv := server.New(serverConfig, coordinator, bus)

	go func() {
		log.Info().Str("hostname", cfg.Hostname).Int("port", cfg.Port).Msg("server listening")
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	cancel()

	if err := coordinator.Stop(); err != nil && err != session.ErrNoSession {
		log.Warn().Err(err).Msg("failed to stop session")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("server shutdown error")
	}

	log.Info().Msg("server stopped")
	return nil
}
