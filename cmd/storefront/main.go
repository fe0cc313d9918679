package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/storefront/internal/cache"
	"github.com/fjod/storefront/internal/cart"
	"github.com/fjod/storefront/internal/category"
	"github.com/fjod/storefront/internal/devstore"
	h "github.com/fjod/storefront/internal/http"
	"github.com/fjod/storefront/internal/money"
	"github.com/fjod/storefront/internal/poller"
	"github.com/fjod/storefront/internal/remote"
	"github.com/fjod/storefront/internal/session"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := loadConfig()
	var brokers, origins []string

	cmd := &cobra.Command{
		Use:           "storefront",
		Short:         "Storefront session service: carts, catalog feed and administration",
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("kafka-brokers") {
				cfg.KafkaBrokers = brokers
			}
			if cmd.Flags().Changed("allowed-origins") {
				cfg.AllowedOrigins = origins
			}
			if err := cfg.validate(); err != nil {
				return err
			}
			logger, err := newLogger(cfg.Debug)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg, logger)
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address")
	f.StringVar(&cfg.Backend, "backend", cfg.Backend, "catalog backend: remote or sqlite")
	f.StringVar(&cfg.RemoteURL, "remote-url", cfg.RemoteURL, "base URL of the catalog service")
	f.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database path for the sqlite backend")
	f.StringVar(&cfg.RedisAddr, "redis-addr", cfg.RedisAddr, "Redis address for the cart cache (empty keeps it in memory)")
	f.StringSliceVar(&brokers, "kafka-brokers", cfg.KafkaBrokers, "Kafka brokers for checkout events (empty disables the poller)")
	f.StringSliceVar(&origins, "allowed-origins", cfg.AllowedOrigins, "CORS allowed origins")
	f.IntVar(&cfg.PageSize, "page-size", cfg.PageSize, "catalog page size")
	f.BoolVar(&cfg.Debug, "debug", cfg.Debug, "debug logging")

	return cmd
}

func newLogger(debug bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	if debug {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := config.Build()
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}

// openBackend returns the per-user backend factory and the shared category
// source of the configured catalog service.
func openBackend(cfg *Config, logger *zap.Logger) (session.BackendFactory, category.Fetcher, func(), error) {
	switch cfg.Backend {
	case BackendRemote:
		client, err := remote.NewClient(cfg.RemoteURL, cfg.RemoteTimeout, logger)
		if err != nil {
			return nil, nil, nil, err
		}
		factory := func(token string) session.Backend { return client.WithToken(token) }
		return factory, client, func() {}, nil
	default:
		store, err := devstore.Open(cfg.DBPath, logger)
		if err != nil {
			return nil, nil, nil, err
		}
		factory := func(string) session.Backend { return store }
		return factory, store, func() { _ = store.Close() }, nil
	}
}

func openCache(ctx context.Context, cfg *Config, logger *zap.Logger) (cache.CartCache, func(), error) {
	if cfg.RedisAddr == "" {
		logger.Info("Cart cache in memory")
		return cache.NewMemoryCache(), func() {}, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis connection failed: %w", err)
	}
	logger.Info("Redis ping succeeded", zap.String("addr", cfg.RedisAddr))
	return cache.NewRedisCache(client, cfg.CartTTL), func() { _ = client.Close() }, nil
}

func run(ctx context.Context, cfg *Config, logger *zap.Logger) error {
	factory, cat, closeBackend, err := openBackend(cfg, logger)
	if err != nil {
		return err
	}
	defer closeBackend()

	cartCache, closeCache, err := openCache(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	formatter, err := money.NewFormatter(cfg.Currency, cfg.Locale)
	if err != nil {
		return fmt.Errorf("invalid currency settings: %w", err)
	}

	directory := category.NewDirectory(cat, cfg.CategoryTTL, logger)
	if _, err := directory.List(ctx); err != nil {
		logger.Warn("Categories not loaded at startup", zap.Error(err))
	}

	registry := session.NewRegistry(factory, cartCache,
		session.WithCategories(directory),
		session.WithPricing(cart.Pricing{Base: cfg.DeliveryBase, Threshold: cfg.DeliveryTier}),
		session.WithPageSize(cfg.PageSize),
		session.WithLogger(logger),
	)
	defer registry.Close()

	handler := h.NewHandler(registry, directory, formatter, cfg.RequestTimeout, logger).
		WithRateLimit(cfg.RateLimit, cfg.RateBurst)
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler.Routes(cfg.AllowedOrigins),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Storefront listening", zap.String("addr", cfg.Addr), zap.String("backend", cfg.Backend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	if len(cfg.KafkaBrokers) > 0 {
		p := poller.NewPoller(registry, logger, cfg.KafkaBrokers...)
		g.Go(func() error { return p.Run(gctx) })
		defer func() {
			if err := p.Close(); err != nil {
				logger.Warn("error closing reader", zap.Error(err))
			}
		}()
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	logger.Info("server exited")
	return err
}
