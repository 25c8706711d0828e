package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/miradorstack/credit-risk/internal/api"
	"github.com/miradorstack/credit-risk/internal/artifact"
	"github.com/miradorstack/credit-risk/internal/config"
	"github.com/miradorstack/credit-risk/internal/engine"
	"github.com/miradorstack/credit-risk/internal/explain"
	"github.com/miradorstack/credit-risk/internal/metrics"
	"github.com/miradorstack/credit-risk/internal/services"
	"github.com/miradorstack/credit-risk/internal/utils"
)

func serveCmd() *cobra.Command {
	var configPath string

	c := &cobra.Command{
		Use:   "serve",
		Short: "Serve the scoring form, JSON API and gRPC service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				slog.Error("failed to load config", slog.String("path", configPath), slog.Any("error", err))
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}

	c.Flags().StringVar(&configPath, "config", "", "Path to configuration file (defaults to $CREDIT_RISK_CONFIG)")
	return c
}

func serve(parent context.Context, cfg *config.Config) error {
	logger := utils.NewLogger(cfg.Logging.Level, cfg.Logging.JSON)
	logger.Info("starting credit-risk",
		slog.String("grpc_address", cfg.Server.GRPCAddress),
		slog.String("http_address", cfg.Server.HTTPAddress),
	)

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Error("failed to register metrics", slog.Any("error", err))
		return err
	}

	loader := artifact.Shared(cfg.Model.Path, logger)
	if _, err := loader.Load(); err != nil {
		logger.Error("model artifact unavailable", slog.String("op", utils.OpOf(err)), slog.Any("error", err))
		return err
	}

	rules, err := engine.NewRuleEngine(cfg.Rules.Path, logger)
	if err != nil {
		logger.Error("failed to load rule pack", slog.Any("error", err))
		return err
	}
	logger.Info("guidance rules loaded", slog.Int("rules", rules.Len()))

	var explainer engine.Explainer
	if cfg.Explain.Enabled {
		explainer = explain.NewExplainer(explain.WithMaxDisplay(cfg.Explain.MaxDisplay))
	}
	predictor := engine.NewPredictor(logger, loader, explainer, rules)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var grpcServer *api.Server
	if cfg.Server.GRPCAddress != "" {
		grpcServer, err = api.NewServer(cfg.Server, services.NewScoringService(logger, predictor, cfg.Explain.Enabled))
		if err != nil {
			logger.Error("failed to create gRPC server", slog.Any("error", err))
			return err
		}
		go func() {
			logger.Info("gRPC server listening", slog.String("address", grpcServer.Address()))
			if serveErr := grpcServer.Start(); serveErr != nil {
				logger.Error("gRPC server exited", slog.Any("error", serveErr))
				stop()
			}
		}()
	}

	var httpServers []*http.Server
	if cfg.Server.HTTPAddress != "" {
		handler := api.NewHTTPHandler(logger, predictor, loader, cfg.Explain.Enabled)
		httpServers = append(httpServers, startHTTP(logger, stop, "http", cfg.Server.HTTPAddress, handler, 30*time.Second))
	}
	if cfg.Server.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		httpServers = append(httpServers, startHTTP(logger, stop, "metrics", cfg.Server.MetricsAddress, mux, 15*time.Second))
	}

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()
	if grpcServer != nil {
		grpcServer.Shutdown(shutdownCtx)
	}
	for _, srv := range httpServers {
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("http server shutdown", slog.String("address", srv.Addr), slog.Any("error", err))
		}
	}

	logger.Info("credit-risk stopped", slog.Duration("p95_latency", predictor.LatencyP95()))
	return nil
}

func startHTTP(logger *slog.Logger, stop context.CancelFunc, name, addr string, handler http.Handler, writeTimeout time.Duration) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      writeTimeout,
	}
	go func() {
		logger.Info(name+" server listening", slog.String("address", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(name+" server exited", slog.Any("error", err))
			stop()
		}
	}()
	return srv
}
