package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/config"
	"storefront/internal/api"
	"storefront/internal/broker"
	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/configstore"
	"storefront/internal/redisclient"
	"storefront/internal/service"
	"storefront/internal/store"
	"storefront/internal/util"
	"storefront/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env, cfg.Server.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting storefront service",
		zap.String("env", cfg.Server.Env),
		zap.String("config_source", cfg.Storefront.Source))

	tp, err := util.InitTracer("storefront", cfg.Observ.JaegerEndpoint)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Error("Error shutting down tracer", zap.Error(err))
		}
	}()

	var readiness []api.ReadinessCheck

	var db *store.Store
	if cfg.Database.URL != "" {
		db, err = store.NewStore(cfg.Database.URL)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()
		readiness = append(readiness, api.ReadinessCheck{Name: "postgres", Check: db.Ping})
		logger.Info("Database connected")
	}

	var redisClient *redisclient.Client
	if cfg.Redis.Addr != "" {
		redisClient, err = redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		readiness = append(readiness, api.ReadinessCheck{Name: "redis", Check: redisClient.Ping})
		logger.Info("Redis connected")
	}

	var publisher *broker.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicStorefront)
		defer producer.Close()
		configProducer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicConfigEvents)
		defer configProducer.Close()
		publisher = broker.NewEventPublisher(producer, configProducer)
		logger.Info("Kafka producers initialized")
	}

	fetcher, err := buildFetcher(cfg, db)
	if err != nil {
		logger.Fatal("Failed to configure configuration source", zap.Error(err))
	}
	if redisClient != nil {
		fetcher = configstore.NewCachingFetcher(fetcher, redisClient, cfg.Storefront.CacheTTL)
	}

	var storeOpts []configstore.Option
	if publisher != nil {
		storeOpts = append(storeOpts, configstore.WithDegradedHook(service.DegradedPublisher(publisher)))
	}
	configs := configstore.New(fetcher, storeOpts...)

	ctx := context.Background()
	if res, err := configs.Load(ctx, cfg.Storefront.DefaultConfig); err != nil {
		logger.Warn("Default configuration degraded at startup",
			zap.String("config", res.Name),
			zap.Error(err))
	}

	var platform *service.PlatformClient
	if cfg.Platform.BaseURL != "" {
		platform = service.NewPlatformClient(cfg.Platform.BaseURL, cfg.Platform.APIKey, cfg.Platform.StoreID, cfg.Platform.Timeout)
	}

	var source catalog.Source
	switch {
	case platform != nil:
		source = platform
	case cfg.Storefront.CatalogFile != "":
		static, err := catalog.LoadStatic(cfg.Storefront.CatalogFile)
		if err != nil {
			logger.Fatal("Failed to load catalog", zap.Error(err))
		}
		source = static
	default:
		source = catalog.NewStatic(nil)
	}

	var (
		sessions        service.SessionStarter
		checkoutBackend service.CheckoutPlatform = service.OfflinePlatform{}
		locker          service.Locker           = service.NewLocalLocker()
		attempts        service.AttemptRecorder
		checkoutEvents  service.CheckoutEvents
		configEvents    service.ConfigEvents
		configWriter    service.ConfigWriter
		ledger          worker.EventLedger
	)
	if platform != nil {
		sessions = platform
		checkoutBackend = platform
	}
	if redisClient != nil {
		locker = service.NewRedisLocker(redisClient, 30*time.Second)
		ledger = redisClient
	}
	if db != nil {
		attempts = db
		ledger = db
		if cfg.Storefront.Source == config.SourcePostgres {
			configWriter = db
		}
	}
	if publisher != nil {
		checkoutEvents = publisher
		configEvents = publisher
	}

	registry := cart.NewRegistry(cfg.Storefront.SessionIdle)
	cartService := service.NewCartService(registry, source, sessions)
	catalogService := service.NewCatalogService(source)
	checkoutService := service.NewCheckoutService(checkoutBackend, locker, attempts, checkoutEvents, cfg.Platform.StoreID)
	configService := service.NewConfigService(configs, configWriter, configEvents)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	go cartService.RunSweeper(workerCtx, time.Minute)

	var configWorker *worker.ConfigWorker
	if len(cfg.Kafka.Brokers) > 0 {
		consumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicConfigEvents, cfg.Kafka.ConsumerGroup)
		configWorker = worker.NewConfigWorker(consumer, configs, ledger)
		go func() {
			if err := configWorker.Start(workerCtx); err != nil && err != context.Canceled {
				logger.Error("Config worker error", zap.Error(err))
			}
		}()
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(configs, configService, catalogService, cartService, checkoutService, api.Options{
		ServiceName:       "storefront",
		DefaultConfigName: cfg.Storefront.DefaultConfig,
		AllowedOrigins:    cfg.Server.AllowedOrigins,
		Readiness:         readiness,
	})
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	workerCancel()
	if configWorker != nil {
		configWorker.Stop()
	}

	logger.Info("Server exited")
}

func buildFetcher(cfg *config.Config, db *store.Store) (configstore.Fetcher, error) {
	sf := cfg.Storefront
	switch sf.Source {
	case config.SourceFile:
		return configstore.FileFetcher{Root: sf.ConfigsRoot, Ext: sf.ConfigExt}, nil
	case config.SourceHTTP:
		if sf.BaseURL == "" {
			return nil, fmt.Errorf("CONFIG_BASE_URL is required for source %q", sf.Source)
		}
		return configstore.NewHTTPFetcher(sf.BaseURL, sf.ConfigsRoot, sf.ConfigExt, 10*time.Second), nil
	case config.SourcePostgres:
		if db == nil {
			return nil, fmt.Errorf("DATABASE_URL is required for source %q", sf.Source)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown config source %q", sf.Source)
	}
}
