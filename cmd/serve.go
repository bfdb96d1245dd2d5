package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pitstop-ai/pitsim/api"
)

func newServeCmd() *cobra.Command {
	var (
		addr     string
		cacheTTL time.Duration
		timeout  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve POST /run_sim over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, err := resolveSimulationConfig(simConfigPath)
			if err != nil {
				return err
			}
			laps, err := loadLaps(ctx, lapsPath, race)
			if err != nil {
				return err
			}

			s := api.NewServer(laps, cfg,
				api.WithSeed(seed),
				api.WithParallelism(parallelism),
				api.WithCacheTTL(cacheTTL),
				api.WithLogger(logrus.WithField("component", "api")),
			)
			accessLog := logrus.StandardLogger().WriterLevel(logrus.InfoLevel)
			defer accessLog.Close()

			srv := &http.Server{
				Addr:              addr,
				Handler:           handlers.CombinedLoggingHandler(accessLog, s.Handler()),
				ReadHeaderTimeout: 5 * time.Second,
				ReadTimeout:       timeout,
				WriteTimeout:      timeout,
			}

			errCh := make(chan error, 1)
			go func() {
				logrus.Infof("Listening on %s (%d laps loaded)", addr, laps.Len())
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
				logrus.Info("Shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			}
		},
	}
	addLapFlags(cmd)
	cmd.Flags().StringVar(&addr, "addr", ":8000", "Listen address")
	cmd.Flags().DurationVar(&cacheTTL, "cache-ttl", 5*time.Minute, "How long identical requests are answered from cache (0 disables)")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "HTTP read/write timeout")
	return cmd
}
