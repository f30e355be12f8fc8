package marketdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	domain "papertrader/internal/domain/entity/marketdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeSymbol(t *testing.T) {
	cases := map[string]string{
		"BTC/USDT":  "BTCUSDT",
		"eth-usdt":  "ETHUSDT",
		"SOL":       "SOLUSDT",
		" btcusdc ": "BTCUSDC",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeSymbol(in), in)
	}
}

func TestBinanceGetCandles(t *testing.T) {
	since := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/klines", r.URL.Path)
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		assert.Equal(t, "20", r.URL.Query().Get("limit"))
		assert.Equal(t, "1704067200000", r.URL.Query().Get("startTime"))
		_, _ = w.Write([]byte(`[
			[1704067200000,"42283.58","44184.10","42180.77","44179.55","27174.29",1704153599999,"0",1,"0","0","0"],
			[1704153600000,"44179.55","45879.63","44148.34","44946.91","65146.40",1704239999999,"0",1,"0","0","0"]
		]`))
	}))
	defer srv.Close()

	client := NewBinanceClient(srv.URL)
	candles, err := client.GetCandles(context.Background(), domain.Request{
		Symbol: "BTC/USDT",
		Market: "CRYPTO",
		Period: domain.Period1d,
		Count:  20,
		Since:  &since,
	})
	require.NoError(t, err)
	require.Len(t, candles, 2)
	assert.Equal(t, since, candles[0].Timestamp)
	assert.Equal(t, "44179.55", candles[0].Close.String())
	assert.Equal(t, "44946.91", candles[1].Price().String())
}

func TestBinanceGetLastPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/ticker/price", r.URL.Path)
		_, _ = w.Write([]byte(`{"symbol":"ETHUSDT","price":"2301.45000000"}`))
	}))
	defer srv.Close()

	price, ok, err := NewBinanceClient(srv.URL).GetLastPrice(context.Background(), "ETH", "CRYPTO")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2301.45", price.String())
}

func TestBinanceErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewBinanceClient(srv.URL).GetCandles(context.Background(), domain.Request{Symbol: "BTC", Period: domain.Period1h, Count: 5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}
