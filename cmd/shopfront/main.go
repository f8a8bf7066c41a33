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

	"github.com/caarlos0/env/v11"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/dkress/shopfront/internal/cart/storage"
	"github.com/dkress/shopfront/internal/cart/store"
	catalogclient "github.com/dkress/shopfront/internal/catalog/client"
	catalogdomain "github.com/dkress/shopfront/internal/catalog/domain"
	catalogrepo "github.com/dkress/shopfront/internal/catalog/repository"
	"github.com/dkress/shopfront/internal/checkout"
	"github.com/dkress/shopfront/internal/events"
	h "github.com/dkress/shopfront/internal/http"
	"github.com/dkress/shopfront/internal/projection"
)

type Config struct {
	HTTPPort        string        `env:"HTTP_PORT" envDefault:"8080"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// memory | file | redis | mongo
	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"file"`
	StorageDir     string `env:"STORAGE_DIR" envDefault:"./data"`
	RedisAddr      string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword  string `env:"REDIS_PASSWORD"`
	MongoURI       string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDBName    string `env:"MONGO_DB_NAME" envDefault:"shopfront"`

	// http | sqlite
	CatalogSource  string `env:"CATALOG_SOURCE" envDefault:"http"`
	CatalogURL     string `env:"CATALOG_URL" envDefault:"https://mock.shop/api"`
	CatalogDBPath  string `env:"CATALOG_DB_PATH" envDefault:"./catalog.db"`
	MigrationsPath string `env:"MIGRATIONS_PATH" envDefault:"./migrations"`

	KafkaBrokers []string `env:"KAFKA_BROKERS"`
}

func main() {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}

	ctx := context.Background()

	st, cleanupStorage, err := buildStorage(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to set up cart storage: %v", err)
	}
	defer cleanupStorage()

	source, cleanupSource, err := buildCatalogSource(cfg)
	if err != nil {
		log.Fatalf("failed to set up catalog source: %v", err)
	}
	defer cleanupSource()

	cartStore := store.New(st)
	checkoutService := checkout.NewService(cartStore, source, projection.ZeroTax)

	if len(cfg.KafkaBrokers) > 0 {
		publisher := events.NewPublisher(cfg.KafkaBrokers...)
		defer publisher.Close()
		unsubscribe := publisher.Attach(cartStore)
		defer unsubscribe()
		checkoutService = checkoutService.WithPublisher(publisher)
		log.Printf("publishing cart activity to %v", cfg.KafkaBrokers)
	}

	router := h.NewRouter(
		h.NewProductHandler(source, cfg.RequestTimeout),
		h.NewCartHandler(cartStore, source, projection.ZeroTax, cfg.RequestTimeout),
		h.NewCheckoutHandler(checkoutService, cfg.RequestTimeout),
		cfg.RequestTimeout,
	)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "shopfront"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("shopfront listening on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}
}

func buildStorage(ctx context.Context, cfg Config) (storage.Storage, func(), error) {
	noop := func() {}

	switch cfg.StorageBackend {
	case "memory":
		return storage.NewMemoryStorage(), noop, nil

	case "file":
		fs, err := storage.NewFileStorage(cfg.StorageDir)
		if err != nil {
			return nil, noop, err
		}
		return fs, noop, nil

	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, noop, fmt.Errorf("redis connection failed: %w", err)
		}
		log.Printf("connected to Redis at %s", cfg.RedisAddr)
		return storage.NewRedisStorage(client), func() { client.Close() }, nil

	case "mongo":
		db, err := storage.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			return nil, noop, err
		}
		log.Printf("connected to MongoDB at %s", cfg.MongoURI)
		return storage.NewMongoStorage(db), func() { db.Client().Disconnect(ctx) }, nil

	default:
		return nil, noop, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

func buildCatalogSource(cfg Config) (catalogdomain.Source, func(), error) {
	noop := func() {}

	switch cfg.CatalogSource {
	case "http":
		return catalogclient.New(cfg.CatalogURL), noop, nil

	case "sqlite":
		repo, err := catalogrepo.NewRepository(cfg.CatalogDBPath)
		if err != nil {
			return nil, noop, err
		}
		if err := repo.RunMigrations(cfg.MigrationsPath); err != nil {
			repo.Close()
			return nil, noop, err
		}
		return repo, func() { repo.Close() }, nil

	default:
		return nil, noop, fmt.Errorf("unknown catalog source %q", cfg.CatalogSource)
	}
}
