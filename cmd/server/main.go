package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	docs "papertrader/docs"
	appcurve "papertrader/internal/application/service/curve"
	appmarketdata "papertrader/internal/application/service/marketdata"
	appreplay "papertrader/internal/application/service/replay"
	appsettings "papertrader/internal/application/service/settings"
	appsnapshot "papertrader/internal/application/service/snapshot"
	"papertrader/internal/config"
	interfaces "papertrader/internal/domain/interfaces"
	"papertrader/internal/infrastructure/broker"
	"papertrader/internal/infrastructure/configstore"
	infraledger "papertrader/internal/infrastructure/ledger"
	inframarketdata "papertrader/internal/infrastructure/marketdata"
	"papertrader/internal/infrastructure/ws"
	infrahttp "papertrader/internal/interfaces/http"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	investgo "github.com/russianinvestments/invest-api-go-sdk/investgo"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(level)
	} else {
		logger.Warnf("unknown LOG_LEVEL %q, using info", cfg.Log.Level)
	}

	docs.SwaggerInfo.BasePath = "/api/v1"
	docs.SwaggerInfo.Host = cfg.HTTP.Addr()

	ledgerRepo, err := infraledger.NewRepository(ctx, cfg.Postgres.DSN)
	if err != nil {
		logger.Fatalf("failed to init ledger repo: %v", err)
	}
	defer ledgerRepo.Close()

	klineRepo := inframarketdata.NewRepositoryFromPool(ledgerRepo.Pool())

	configStore, err := configstore.Open(cfg.Postgres.DSN)
	if err != nil {
		logger.Fatalf("failed to init config store: %v", err)
	}
	defer configStore.Close()

	if err := ledgerRepo.Migrate(ctx); err != nil {
		logger.Fatalf("failed to migrate ledger: %v", err)
	}
	if err := klineRepo.Migrate(ctx); err != nil {
		logger.Fatalf("failed to migrate klines: %v", err)
	}
	if err := configStore.Migrate(ctx); err != nil {
		logger.Fatalf("failed to migrate config store: %v", err)
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	}

	var (
		sinks     []interfaces.SnapshotSink
		cadence   interfaces.CadenceResetter
		decisions interfaces.DecisionEngine
		consumer  *broker.Consumer
	)
	if cfg.RabbitMQ.Enabled() {
		conn, err := amqp.Dial(cfg.RabbitMQ.URL)
		if err != nil {
			logger.Fatalf("connect rabbitmq: %v", err)
		}
		defer conn.Close()

		pub, err := broker.NewPublisher(conn, cfg.RabbitMQ, logger)
		if err != nil {
			logger.Fatalf("init publisher: %v", err)
		}
		defer pub.Close()
		sinks = append(sinks, pub)
		cadence, decisions = pub, pub

		consumer, err = broker.NewConsumer(cfg.RabbitMQ, ledgerRepo, logger)
		if err != nil {
			logger.Fatalf("init consumer: %v", err)
		}
	} else {
		hooks := broker.NewLogHooks(logger)
		cadence, decisions = hooks, hooks
		logger.Info("RABBITMQ_URL not set, replay events are only logged")
	}

	var exchange interfaces.CandleProvider
	if cfg.MarketData.InvestToken != "" {
		client, err := investgo.NewClient(ctx, investgo.Config{
			EndPoint:           cfg.MarketData.InvestEndpoint,
			Token:              cfg.MarketData.InvestToken,
			AppName:            cfg.MarketData.InvestAppName,
			InsecureSkipVerify: cfg.MarketData.InvestSkipTLSVerify,
		}, logger)
		if err != nil {
			logger.Fatalf("create invest api client: %v", err)
		}
		defer func() {
			if stopErr := client.Stop(); stopErr != nil {
				logger.Errorf("stop invest api client: %v", stopErr)
			}
		}()
		exchange = inframarketdata.NewInvestProvider(client.NewMarketDataServiceClient())
	} else {
		logger.Info("INVEST_TOKEN not set, only CRYPTO market data is available")
	}
	router := inframarketdata.NewRouter(inframarketdata.NewBinanceClient(cfg.MarketData.BinanceURL), exchange)

	klineWriter := broker.NewBatchWriter(broker.BatchConfig{
		Size:    cfg.MarketData.StoreBatchSize,
		Timeout: cfg.MarketData.StoreBatchTimeout,
	}, klineRepo, nil, logger)
	klineWriter.Run(ctx)
	marketdataService := appmarketdata.NewService(router, klineRepo, klineWriter, logger)

	hub := ws.NewHub(logger)
	sinks = append(sinks, hub)

	controller := appreplay.NewController(ledgerRepo, configStore, marketdataService, appreplay.Hooks{}, logger)
	broadcaster := appsnapshot.NewBroadcaster(ledgerRepo, marketdataService, logger, sinks...)
	controller.SetHooks(appreplay.Hooks{
		Cadence:     cadence,
		Decisions:   decisions,
		Broadcaster: broadcaster,
	})
	if restored, err := controller.Restore(ctx); err != nil {
		logger.Warnf("failed to restore replay session: %v", err)
	} else if restored {
		logger.Info("replay session restored")
	}

	aggregator := appcurve.NewAggregator(ledgerRepo, ledgerRepo, marketdataService, controller, logger)
	settings := appsettings.NewService(configStore, cadence, logger)

	cacheTTL := time.Duration(cfg.Cache.TTLSeconds) * time.Second
	handler := infrahttp.NewHandler(infrahttp.Services{
		Replay:    controller,
		Curves:    aggregator,
		Settings:  settings,
		Snapshots: broadcaster,
		Stream:    hub.Handle,
	}, redisClient, cacheTTL, logger)

	server := &http.Server{
		Addr:    cfg.HTTP.Addr(),
		Handler: handler,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("HTTP server listening on %s", cfg.HTTP.Addr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if consumer != nil {
		if err := consumer.Start(gctx); err != nil {
			logger.Fatalf("start consumer: %v", err)
		}
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Infof("shutting down server")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		var errs []error
		if err := server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
		if consumer != nil {
			if err := consumer.Close(shutdownCtx); err != nil {
				errs = append(errs, err)
			}
		}
		if err := klineWriter.Stop(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
		return errors.Join(errs...)
	})

	if err := g.Wait(); err != nil {
		logger.Errorf("server stopped with error: %v", err)
	}
	logger.Info("server stopped")
}
