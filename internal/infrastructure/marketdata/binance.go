package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	domain "papertrader/internal/domain/entity/marketdata"
	interfaces "papertrader/internal/domain/interfaces"

	"github.com/shopspring/decimal"
)

const (
	SpotBaseURL        = "https://api.binance.com"
	maxBinanceKlines   = 1000
	binanceHTTPTimeout = 10 * time.Second
)

// BinanceClient reads spot klines and ticker prices from the Binance REST API.
type BinanceClient struct {
	baseURL    string
	httpClient *http.Client
}

var _ interfaces.CandleProvider = (*BinanceClient)(nil)

func NewBinanceClient(baseURL string) *BinanceClient {
	if baseURL == "" {
		baseURL = SpotBaseURL
	}
	return &BinanceClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: binanceHTTPTimeout},
	}
}

// NormalizeSymbol turns "btc/usdt" or "BTC-USDT" into "BTCUSDT". A bare
// base asset is quoted in USDT.
func NormalizeSymbol(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	s = strings.NewReplacer("/", "", "-", "", "_", "").Replace(s)
	if s != "" && !strings.HasSuffix(s, "USDT") && !strings.HasSuffix(s, "USDC") && !strings.HasSuffix(s, "BUSD") {
		s += "USDT"
	}
	return s
}

// GetCandles returns klines in ascending open time.
func (c *BinanceClient) GetCandles(ctx context.Context, req domain.Request) ([]domain.Candle, error) {
	if !req.Period.IsValid() {
		return nil, fmt.Errorf("unsupported period %q", req.Period)
	}
	limit := req.Count
	if limit <= 0 || limit > maxBinanceKlines {
		limit = maxBinanceKlines
	}
	query := url.Values{}
	query.Set("symbol", NormalizeSymbol(req.Symbol))
	query.Set("interval", string(req.Period))
	query.Set("limit", strconv.Itoa(limit))
	if req.Since != nil {
		query.Set("startTime", strconv.FormatInt(req.Since.UnixMilli(), 10))
	}

	var raw [][]interface{}
	if err := c.get(ctx, "/api/v3/klines", query, &raw); err != nil {
		return nil, err
	}
	candles := make([]domain.Candle, 0, len(raw))
	for _, row := range raw {
		candle, err := parseKline(row)
		if err != nil {
			return nil, err
		}
		candles = append(candles, candle)
	}
	return candles, nil
}

func (c *BinanceClient) GetLastPrice(ctx context.Context, symbol, _ string) (decimal.Decimal, bool, error) {
	query := url.Values{}
	query.Set("symbol", NormalizeSymbol(symbol))
	var ticker struct {
		Symbol string `json:"symbol"`
		Price  string `json:"price"`
	}
	if err := c.get(ctx, "/api/v3/ticker/price", query, &ticker); err != nil {
		return decimal.Zero, false, err
	}
	price, err := decimal.NewFromString(ticker.Price)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("parse ticker price %q: %w", ticker.Price, err)
	}
	return price, price.IsPositive(), nil
}

func (c *BinanceClient) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("binance API error: %d", resp.StatusCode)
	}
	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()
	return decoder.Decode(out)
}

// parseKline reads [open_time, open, high, low, close, volume, ...].
func parseKline(row []interface{}) (domain.Candle, error) {
	if len(row) < 6 {
		return domain.Candle{}, errors.New("kline row too short")
	}
	openTime, err := parseMillis(row[0])
	if err != nil {
		return domain.Candle{}, err
	}
	fields := make([]decimal.Decimal, 5)
	for i := range fields {
		value, err := parseDecimal(row[i+1])
		if err != nil {
			return domain.Candle{}, fmt.Errorf("kline field %d: %w", i+1, err)
		}
		fields[i] = value
	}
	return domain.Candle{
		Timestamp: openTime,
		Open:      fields[0],
		High:      fields[1],
		Low:       fields[2],
		Close:     fields[3],
		Volume:    fields[4],
	}, nil
}

func parseMillis(v interface{}) (time.Time, error) {
	switch n := v.(type) {
	case json.Number:
		ms, err := n.Int64()
		if err != nil {
			return time.Time{}, fmt.Errorf("kline open time: %w", err)
		}
		return time.UnixMilli(ms).UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("kline open time has type %T", v)
	}
}

func parseDecimal(v interface{}) (decimal.Decimal, error) {
	switch n := v.(type) {
	case string:
		return decimal.NewFromString(n)
	case json.Number:
		return decimal.NewFromString(n.String())
	default:
		return decimal.Zero, fmt.Errorf("unexpected type %T", v)
	}
}
