package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/autoreveal/autoreveal/internal/config"
	"github.com/autoreveal/autoreveal/internal/server"
	"github.com/autoreveal/autoreveal/internal/watcher"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Build and serve the presentation",
	Long: `Build the presentation and serve it over HTTP.

With --watch, a background loop polls the template and slide tree and
rebuilds on change. With --live-reload, a polling script is injected into
the output and connected browsers refresh after each rebuild.

Examples:
  autoreveal serve
  autoreveal serve --watch --live-reload
  autoreveal serve --port 9000 --watch`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 8085, "Port to serve the presentation on")
	serveCmd.Flags().String("host", "", "Host to bind to")
	serveCmd.Flags().BoolP("watch", "w", false, "Watch for file changes and rebuild automatically")
	serveCmd.Flags().Bool("live-reload", false, "Enable live reload in browser when files change")
	serveCmd.Flags().Bool("push-reload", false, "Also push reload notifications over a websocket channel")
	serveCmd.Flags().Duration("poll-interval", 0, "Watch poll interval (default 1s)")

	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	viper.BindPFlag("development.watch", serveCmd.Flags().Lookup("watch"))
	viper.BindPFlag("development.live_reload", serveCmd.Flags().Lookup("live-reload"))
	viper.BindPFlag("development.push_reload", serveCmd.Flags().Lookup("push-reload"))
	viper.BindPFlag("development.poll_interval", serveCmd.Flags().Lookup("poll-interval"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := newLogger()

	orchestrator, err := newOrchestrator(cfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initial build before the server comes up; a broken tree is a
	// startup error, not something to discover in the browser.
	if err := orchestrator.Build(ctx); err != nil {
		return err
	}

	reload := server.NewReloadSignal()
	srv := server.New(cfg, reload, logger)

	if cfg.Development.Watch {
		w := watcher.New(
			cfg.Template.Path,
			cfg.Slides.Dir,
			cfg.Development.PollInterval,
			func(ctx context.Context) error {
				if err := orchestrator.Build(ctx); err != nil {
					return err
				}
				if cfg.Development.LiveReload {
					srv.NotifyReload(ctx)
				}
				return nil
			},
			logger.WithComponent("watcher"),
		)
		go w.Run(ctx)
	}

	// Graceful shutdown on interrupt
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info(ctx, "shutting down")
		if err := srv.Shutdown(context.Background()); err != nil {
			logger.Error(ctx, err, "server shutdown")
		}
		cancel()
	}()

	fmt.Printf("Serving on port %d. Open http://localhost:%d/%s\n",
		cfg.Server.Port, cfg.Server.Port, cfg.Output.Path)
	if cfg.Development.LiveReload {
		fmt.Println("Live reload enabled - browser will auto-refresh on file changes")
	}

	return srv.Start(ctx)
}
