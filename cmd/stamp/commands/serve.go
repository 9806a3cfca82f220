package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/stamp/am"
	"github.com/teranos/stamp/logger"
	"github.com/teranos/stamp/server"
)

// ServeCmd runs the HTTP and websocket server
var ServeCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"server"},
	Short:   "Serve annotation over HTTP and websockets",
	Long: `Start the stamp server.

Endpoints:
  POST /annotate   annotate one text (JSON body: text, present, timezone)
  GET  /ws         websocket editing session, one per connection
  GET  /metrics    Prometheus metrics
  GET  /healthz    liveness; 503 while draining

The active config file is watched; edits swap in a new engine for sessions
opened afterwards.`,
	RunE: runServe,
}

var (
	servePort        int
	serveNoReload    bool
	serveQuietBanner bool
)

func init() {
	ServeCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default: server.port)")
	ServeCmd.Flags().BoolVar(&serveNoReload, "no-reload", false, "Do not watch the config file")
	ServeCmd.Flags().BoolVarP(&serveQuietBanner, "quiet", "q", false, "Skip the startup banner")
}

func runServe(cmd *cobra.Command, args []string) error {
	v := verbosity(cmd)
	if v == 0 {
		// A server reports its lifecycle by default
		v = 1
		logger.SetLevel(logger.VerbosityToLevel(v))
	}

	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}

	srv, err := server.New(cfg)
	if err != nil {
		return err
	}
	srv.SetVerbosity(v)

	configFile := ""
	if !serveNoReload {
		configFile = activeConfigFile()
	}
	if configFile != "" {
		watcher, err := startConfigWatcher(configFile, srv)
		if err != nil {
			logger.Warnw("Config hot-reload disabled", logger.FieldFile, configFile, logger.FieldError, err)
		} else {
			defer watcher.Stop()
		}
	}

	if !serveQuietBanner && logger.ShouldOutput(v, logger.OutputStartup) {
		printStartupBanner(cmd.OutOrStdout(), v, cfg, srv.Engine().Catalog().Len(), configFile)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() { errChan <- srv.Start() }()

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		pterm.Info.Printf("Received %s, shutting down\n", sig)
		if err := srv.Stop(); err != nil {
			return err
		}
		return <-errChan
	}
}

func startConfigWatcher(path string, srv *server.Server) (*am.ConfigWatcher, error) {
	watcher, err := am.NewConfigWatcher(path)
	if err != nil {
		return nil, err
	}
	if ConfigPath == "" {
		watcher.SetLoader(am.Reload)
	}
	watcher.OnReload(func(cfg *am.Config) error {
		// Keep the listening port of this process
		cfg.Server.Port = srv.Config().Server.Port
		return srv.Reload(cfg)
	})
	watcher.Start()
	return watcher, nil
}
