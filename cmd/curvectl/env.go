package main

import (
	"context"
	"fmt"

	appcurve "papertrader/internal/application/service/curve"
	appmarketdata "papertrader/internal/application/service/marketdata"
	appreplay "papertrader/internal/application/service/replay"
	"papertrader/internal/config"
	interfaces "papertrader/internal/domain/interfaces"
	"papertrader/internal/infrastructure/configstore"
	infraledger "papertrader/internal/infrastructure/ledger"
	inframarketdata "papertrader/internal/infrastructure/marketdata"

	investgo "github.com/russianinvestments/invest-api-go-sdk/investgo"
	"github.com/sirupsen/logrus"
)

// env holds the stores and services a command needs. close releases them
// in reverse order of acquisition.
type env struct {
	cfg     *config.Config
	ledger  *infraledger.Repository
	klines  *inframarketdata.Repository
	configs *configstore.GormStore
	closers []func()
}

func openEnv(ctx context.Context, logger *logrus.Logger) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(level)
	}

	e := &env{cfg: cfg}
	e.ledger, err = infraledger.NewRepository(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	e.closers = append(e.closers, e.ledger.Close)
	e.klines = inframarketdata.NewRepositoryFromPool(e.ledger.Pool())

	e.configs, err = configstore.Open(cfg.Postgres.DSN)
	if err != nil {
		e.close()
		return nil, fmt.Errorf("open config store: %w", err)
	}
	e.closers = append(e.closers, func() { _ = e.configs.Close() })
	return e, nil
}

func (e *env) close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
	e.closers = nil
}

func (e *env) migrate(ctx context.Context) error {
	if err := e.ledger.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate ledger: %w", err)
	}
	if err := e.klines.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate klines: %w", err)
	}
	if err := e.configs.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate config store: %w", err)
	}
	return nil
}

// aggregator builds the same curve pipeline the server runs, including a
// replay session restored from the config store.
func (e *env) aggregator(ctx context.Context, logger *logrus.Logger) (*appcurve.Aggregator, error) {
	var exchange interfaces.CandleProvider
	md := e.cfg.MarketData
	if md.InvestToken != "" {
		client, err := investgo.NewClient(ctx, investgo.Config{
			EndPoint:           md.InvestEndpoint,
			Token:              md.InvestToken,
			AppName:            md.InvestAppName,
			InsecureSkipVerify: md.InvestSkipTLSVerify,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("create invest api client: %w", err)
		}
		e.closers = append(e.closers, func() {
			if err := client.Stop(); err != nil {
				logger.Errorf("stop invest api client: %v", err)
			}
		})
		exchange = inframarketdata.NewInvestProvider(client.NewMarketDataServiceClient())
	}
	router := inframarketdata.NewRouter(inframarketdata.NewBinanceClient(md.BinanceURL), exchange)
	candles := appmarketdata.NewService(router, e.klines, nil, logger)

	controller := appreplay.NewController(e.ledger, e.configs, candles, appreplay.Hooks{}, logger)
	restored, err := controller.Restore(ctx)
	if err != nil {
		logger.Warnf("failed to restore replay session: %v", err)
	} else if restored {
		logger.Debug("using restored replay window")
	}
	return appcurve.NewAggregator(e.ledger, e.ledger, candles, controller, logger), nil
}
