package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"prefmodel/core/loader"
	"prefmodel/core/logger"
	"prefmodel/core/middleware/auth"
	"prefmodel/core/middleware/rayid"
	"prefmodel/feature/preferences"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the preference HTTP server",
	Long:  `Opens the configured backend and serves it over HTTP until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1. Configuration, logger and metrics registry
		rt, err := loadRuntime()
		if err != nil {
			return err
		}
		logg := rt.logger
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		// 2. Open the backend. The file model reads lazily, the bulk corpus
		// is fully loaded here.
		m, err := rt.openModel(cmd.Context())
		if err != nil {
			return err
		}
		defer m.close()
		logg = logg.With(zap.String("backend", m.backend))

		// 3. HTTP app with middleware and features
		app := newApp(rt, m, logg)
		if err := app.registerFeatures(); err != nil {
			return err
		}

		// 4. Serve until a signal arrives or Listen fails
		errCh := make(chan error, 1)
		go func() {
			logg.Info("Starting server", zap.String("addr", rt.cfg.Server.Addr()))
			errCh <- app.Listen(rt.cfg.Server.Addr())
		}()

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		select {
		case err := <-errCh:
			return fmt.Errorf("server failed: %w", err)
		case <-sig:
		}
		logg.Info("Shutting down server...")
		return app.Shutdown()
	},
}

type server struct {
	*fiber.App
	mgr *loader.Manager
}

// newApp wires middleware, metrics and the preference feature around m.
func newApp(rt *runtime, m *openedModel, logg *zap.Logger) *server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	// RayID first so every later log line can be traced
	app.Use(rayid.New())
	app.Use(func(c *fiber.Ctx) error {
		l := logger.WithRayID(logg, c)
		l.Debug("Request started",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("ip", c.IP()),
		)
		err := c.Next()
		if err != nil {
			l.Error("Request error", zap.Error(err))
		}
		return err
	})

	var skip []string
	if path := rt.cfg.Server.MetricsPath; path != "" {
		skip = append(skip, path)
	}
	app.Use(auth.New(auth.Config{ApiKey: rt.cfg.Server.ApiKey, Skip: skip}))

	if path := rt.cfg.Server.MetricsPath; path != "" {
		metricsHandler := fasthttpadaptor.NewFastHTTPHandler(
			promhttp.HandlerFor(rt.metrics.Gatherer(), promhttp.HandlerOpts{}),
		)
		app.Get(path, func(c *fiber.Ctx) error {
			metricsHandler(c.Context())
			return nil
		})
	}

	mgr := loader.NewManager(logg)
	mgr.Register(preferences.NewFeature(m, m.backend, logg))
	return &server{App: app, mgr: mgr}
}

func (s *server) registerFeatures() error {
	if err := s.mgr.LoadAll(s.App); err != nil {
		return fmt.Errorf("failed to load features: %w", err)
	}
	return nil
}

func init() {
	RootCmd.AddCommand(serveCmd)
}
