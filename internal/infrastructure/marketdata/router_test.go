package marketdata

import (
	"context"
	"testing"

	domain "papertrader/internal/domain/entity/marketdata"
	"papertrader/internal/infrastructure/memory"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouterDispatchesByMarket(t *testing.T) {
	crypto := memory.NewCandleFeed()
	crypto.SetLastPrice("BTCUSDT", "CRYPTO", decimal.NewFromInt(60000))
	exchange := memory.NewCandleFeed()
	exchange.SetLastPrice("SBER", "MOEX", decimal.NewFromInt(300))

	router := NewRouter(crypto, exchange)
	ctx := context.Background()

	price, ok, err := router.GetLastPrice(ctx, "BTCUSDT", "crypto")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "60000", price.String())

	price, ok, err = router.GetLastPrice(ctx, "SBER", "MOEX")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "300", price.String())

	_, err = router.GetCandles(ctx, domain.Request{Symbol: "SBER", Market: "MOEX", Period: domain.Period1d, Count: 5})
	require.NoError(t, err)
	assert.Equal(t, int64(1), exchange.Calls())
	assert.Equal(t, int64(0), crypto.Calls())
}

func TestRouterWithoutExchangeProvider(t *testing.T) {
	router := NewRouter(memory.NewCandleFeed(), nil)

	_, _, err := router.GetLastPrice(context.Background(), "SBER", "MOEX")
	assert.ErrorIs(t, err, ErrMarketUnsupported)

	_, err = router.GetCandles(context.Background(), domain.Request{Symbol: "SBER", Market: "MOEX", Period: domain.Period1d, Count: 5})
	assert.ErrorIs(t, err, ErrMarketUnsupported)
}
