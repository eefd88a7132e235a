package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	c "github.com/fjod/go_cart/cart-widget/internal/cache"
	"github.com/fjod/go_cart/cart-widget/internal/catalog"
	"github.com/fjod/go_cart/cart-widget/internal/config"
	"github.com/fjod/go_cart/cart-widget/internal/domain"
	h "github.com/fjod/go_cart/cart-widget/internal/http"
	"github.com/fjod/go_cart/cart-widget/internal/publisher"
	s "github.com/fjod/go_cart/cart-widget/internal/service"
	"github.com/fjod/go_cart/cart-widget/internal/view"
	"github.com/fjod/go_cart/cart-widget/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// initialCart is what the widget shows on first load.
var initialCart = []struct {
	productID int64
	quantity  int
}{
	{1, 2},
	{2, 1},
	{3, 3},
}

func main() {
	cfg := config.Load()

	zl, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	zap.ReplaceGlobals(zl)

	err = run(cfg, zl)
	if err != nil {
		zl.Error("cart widget stopped", zap.Error(err))
	}
	_ = zl.Sync()
	if err != nil {
		os.Exit(1)
	}
}

// run wires the widget and serves it until a signal arrives or the server
// fails. Every resource it opens is closed before it returns.
func run(cfg *config.Config, zl *zap.Logger) error {
	ctx := context.Background()

	products, err := openCatalog(cfg.CatalogDBPath)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer products.Close()

	fragments := c.FragmentCache(c.NewMemoryCache(15 * time.Minute))
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis connection failed: %w", err)
		}
		zl.Info("Redis ping succeeded", zap.String("addr", cfg.RedisAddr))
		fragments = c.NewRedisCache(redisClient)
	}

	renderer, err := view.NewRenderer(fragments, zl.Named("view"))
	if err != nil {
		return fmt.Errorf("load templates: %w", err)
	}

	service := s.NewCartService(domain.NewCart(), zl.Named("cart"))
	defer service.Close()
	service.Subscribe(renderer.OnChange)

	if len(cfg.KafkaBrokers) > 0 {
		events := publisher.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, zl.Named("events"))
		defer events.Close()
		service.Subscribe(events.OnChange)
		zl.Info("Publishing cart events", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
	}

	if err := seedCart(ctx, service, products); err != nil {
		return fmt.Errorf("seed cart: %w", err)
	}

	router := h.NewRouter(
		h.RouterConfig{
			RequestTimeout:     cfg.RequestTimeout,
			MaxRequestBodySize: cfg.MaxRequestBodySize,
		},
		h.NewWidgetHandler(service, renderer, cfg.RequestTimeout, zl.Named("http")),
		h.NewCartHandler(service, products, cfg.RequestTimeout),
		h.NewProductHandler(products, cfg.RequestTimeout),
		zl.Named("http"),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "cart-widget"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	return serve(srv, quit, cfg.ShutdownTimeout, zl)
}

// serve runs srv until quit fires, then shuts it down gracefully. A server
// that fails to start or stops on its own is reported as an error.
func serve(srv *http.Server, quit <-chan os.Signal, shutdownTimeout time.Duration, zl *zap.Logger) error {
	serverErr := make(chan error, 1)
	go func() {
		zl.Info("Cart widget starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-quit:
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	zl.Info("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	zl.Info("server exited")
	return nil
}

// openCatalog returns the SQLite catalog at path, or the built-in products
// when no path is configured.
func openCatalog(path string) (catalog.Repository, error) {
	if path == "" {
		return catalog.NewStaticRepository(catalog.DefaultProducts()...), nil
	}

	repo, err := catalog.NewSQLiteRepository(path)
	if err != nil {
		return nil, err
	}
	if err := repo.RunMigrations(); err != nil {
		repo.Close()
		return nil, err
	}
	return repo, nil
}

// seedCart fills the cart with the initial items and renders it once, so the
// first page load already has a current widget.
func seedCart(ctx context.Context, service *s.CartService, products catalog.Repository) error {
	for _, item := range initialCart {
		p, err := products.GetProduct(ctx, item.productID)
		if err != nil {
			return fmt.Errorf("seed product %d: %w", item.productID, err)
		}
		if err := service.AddItem(ctx, p, item.quantity); err != nil {
			return err
		}
	}
	return service.Refresh(ctx)
}
