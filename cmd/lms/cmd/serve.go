package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/iliyamo/lms-client/internal/config"
	"github.com/iliyamo/lms-client/internal/handler"
	"github.com/iliyamo/lms-client/internal/metrics"
	"github.com/iliyamo/lms-client/internal/notify"
	"github.com/iliyamo/lms-client/internal/queue"
	"github.com/iliyamo/lms-client/internal/router"
	"github.com/iliyamo/lms-client/internal/service"
)

var servePath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the client shell",
	Long: `Run the client shell on LMS_LISTEN (default 127.0.0.1:3000).

The shell owns one session. It restores the persisted token, validates it
against LMS_API_URL and answers navigations with view descriptors,
redirects or 204 while the session is still loading.

When RABBITMQ_URL or AMQP_URL is set, notifications are published to and
broadcasts consumed from the lms.notifications queue.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&servePath, "path", "/", "path the client starts on")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	logger := newLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	origin := uuid.NewString()
	center := notify.NewCenter(cfg.NotifyHistory)
	notifiers := notify.Multi{center, notify.Log{Logger: logger}}
	if cfg.AMQPURL != "" {
		pub, closer, err := service.DialNotificationPublisher(cfg.AMQPURL, origin, logger)
		if err != nil {
			logger.Warn("notification publisher disabled", "err", err)
		} else {
			defer closer.Close()
			notifiers = append(notifiers, pub)
		}
		go func() {
			_ = queue.StartNotificationConsumer(ctx, cfg.AMQPURL, origin, center, logger)
		}()
	}

	c, err := newClient(ctx, cfg, logger, notifiers, metrics.NewSession(reg), servePath)
	if err != nil {
		return err
	}
	defer c.Close()

	go c.store.Bootstrap(ctx)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(requestLogger(logger)))
	router.RegisterShell(e, handler.NewShell(c.store, center, logger), promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	return run(ctx, e, cfg.Listen, logger)
}

// run serves e on addr until ctx ends, then shuts down gracefully.
func run(ctx context.Context, e *echo.Echo, addr string, logger *slog.Logger) error {
	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func requestLogger(logger *slog.Logger) echomw.RequestLoggerConfig {
	return echomw.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			attrs := []any{"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency}
			if v.Error != nil {
				attrs = append(attrs, "err", v.Error)
			}
			logger.Debug("request", attrs...)
			return nil
		},
	}
}
