package marketdata

import (
	"context"
	"errors"
	"fmt"
	"strings"

	ledger "papertrader/internal/domain/entity/ledger"
	domain "papertrader/internal/domain/entity/marketdata"
	interfaces "papertrader/internal/domain/interfaces"

	"github.com/shopspring/decimal"
)

var ErrMarketUnsupported = errors.New("no market data provider for market")

// Router dispatches requests to the provider that serves the market.
type Router struct {
	crypto   interfaces.CandleProvider
	exchange interfaces.CandleProvider
}

var _ interfaces.CandleProvider = (*Router)(nil)

// NewRouter sends CRYPTO requests to crypto and everything else to
// exchange. Either provider may be nil.
func NewRouter(crypto, exchange interfaces.CandleProvider) *Router {
	return &Router{crypto: crypto, exchange: exchange}
}

func (r *Router) provider(market string) (interfaces.CandleProvider, error) {
	p := r.exchange
	if strings.EqualFold(market, ledger.MarketCrypto) {
		p = r.crypto
	}
	if p == nil {
		return nil, fmt.Errorf("%w %q", ErrMarketUnsupported, market)
	}
	return p, nil
}

func (r *Router) GetCandles(ctx context.Context, req domain.Request) ([]domain.Candle, error) {
	p, err := r.provider(req.Market)
	if err != nil {
		return nil, err
	}
	return p.GetCandles(ctx, req)
}

func (r *Router) GetLastPrice(ctx context.Context, symbol, market string) (decimal.Decimal, bool, error) {
	p, err := r.provider(market)
	if err != nil {
		return decimal.Zero, false, err
	}
	return p.GetLastPrice(ctx, symbol, market)
}
