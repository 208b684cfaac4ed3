package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/droverhq/drover/agent"
	"github.com/droverhq/drover/event"
	"github.com/droverhq/drover/internal/httpapi"
	"github.com/droverhq/drover/store"
	"github.com/droverhq/drover/tool"
)

func newServeCmd() *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the drover API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("host") {
				cfg.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}

			logger, err := newLogger(cfg.Log)
			if err != nil {
				return err
			}
			defer logger.Sync()

			model, err := buildModel(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			adapter, closeAdapter, err := buildAdapter(cfg)
			if err != nil {
				return err
			}
			defer closeAdapter()

			// Audit events go to the log always, and to a durable bolt
			// file when the store is bolt so the events endpoint survives
			// restarts. Otherwise events are served from memory.
			sinks := []event.Sink{event.NewZapSink(logger)}
			var events httpapi.EventSource
			if cfg.Store.Type == "bolt" {
				auditPath := filepath.Join(cfg.Store.DataDir, "audit.db")
				bolt, err := event.NewBoltSink(auditPath)
				if err != nil {
					return fmt.Errorf("opening audit log at %s: %w", auditPath, err)
				}
				defer bolt.Close()
				sinks = append(sinks, bolt)
				events = bolt
			} else {
				mem := event.NewMemorySink()
				sinks = append(sinks, mem)
				events = mem
			}

			srv := httpapi.New(httpapi.Options{
				Agent:      agent.New(model, tool.NewRegistry()),
				Runs:       store.NewRunStore(adapter),
				Sink:       event.MultiSink(sinks...),
				Events:     events,
				Logger:     logger,
				RunOptions: agentOptions(cfg),
			})

			errCh := make(chan error, 1)
			go func() {
				if err := srv.Start(cfg.ServerAddress()); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()
			logger.Info("drover server started",
				zap.String("addr", cfg.ServerAddress()),
				zap.String("provider", cfg.Provider.Name),
				zap.String("store", cfg.Store.Type))

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			select {
			case sig := <-sigCh:
				logger.Info("received shutdown signal", zap.String("signal", sig.String()))
			case err := <-errCh:
				return err
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("server shutdown error", zap.Error(err))
			}
			logger.Info("drover server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "Listen host")
	cmd.Flags().IntVar(&port, "port", 7230, "Listen port")

	return cmd
}
