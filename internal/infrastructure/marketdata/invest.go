package marketdata

import (
	"context"
	"fmt"
	"time"

	domain "papertrader/internal/domain/entity/marketdata"
	interfaces "papertrader/internal/domain/interfaces"

	investgo "github.com/russianinvestments/invest-api-go-sdk/investgo"
	pb "github.com/russianinvestments/invest-api-go-sdk/proto"
	"github.com/shopspring/decimal"
)

// InvestMarketData is the subset of the invest API market data client used here.
type InvestMarketData interface {
	GetHistoricCandles(req *investgo.GetHistoricCandlesRequest) ([]*pb.HistoricCandle, error)
	GetLastPrices(instrumentIds []string) (*investgo.GetLastPricesResponse, error)
}

// InvestProvider serves exchange-traded instruments through the invest API.
// Symbols are passed through as instrument ids (uid, figi or ticker_classcode).
type InvestProvider struct {
	client InvestMarketData
	now    func() time.Time
}

var _ interfaces.CandleProvider = (*InvestProvider)(nil)

func NewInvestProvider(client InvestMarketData) *InvestProvider {
	return &InvestProvider{client: client, now: time.Now}
}

func (p *InvestProvider) GetCandles(_ context.Context, req domain.Request) ([]domain.Candle, error) {
	interval, err := candleInterval(req.Period)
	if err != nil {
		return nil, err
	}
	count := req.Count
	if count <= 0 {
		count = 1
	}
	span := time.Duration(count) * req.Period.Duration()

	var from, to time.Time
	if req.Since != nil {
		from = req.Since.UTC()
		to = from.Add(span)
		if now := p.now().UTC(); to.After(now) {
			to = now
		}
	} else {
		to = p.now().UTC()
		from = to.Add(-span)
	}

	raw, err := p.client.GetHistoricCandles(&investgo.GetHistoricCandlesRequest{
		Instrument: req.Symbol,
		Interval:   interval,
		From:       from,
		To:         to,
	})
	if err != nil {
		return nil, fmt.Errorf("get historic candles for %s: %w", req.Symbol, err)
	}

	candles := make([]domain.Candle, 0, len(raw))
	for _, c := range raw {
		if c == nil || c.GetTime() == nil {
			continue
		}
		candles = append(candles, domain.Candle{
			Timestamp: c.GetTime().AsTime().UTC(),
			Open:      quotationToDecimal(c.GetOpen()),
			High:      quotationToDecimal(c.GetHigh()),
			Low:       quotationToDecimal(c.GetLow()),
			Close:     quotationToDecimal(c.GetClose()),
			Volume:    decimal.NewFromInt(c.GetVolume()),
		})
	}
	if req.Since == nil && len(candles) > count {
		candles = candles[len(candles)-count:]
	}
	if req.Since != nil && len(candles) > count {
		candles = candles[:count]
	}
	return candles, nil
}

func (p *InvestProvider) GetLastPrice(_ context.Context, symbol, _ string) (decimal.Decimal, bool, error) {
	resp, err := p.client.GetLastPrices([]string{symbol})
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("get last price for %s: %w", symbol, err)
	}
	for _, lp := range resp.GetLastPrices() {
		if lp == nil || lp.GetPrice() == nil {
			continue
		}
		price := quotationToDecimal(lp.GetPrice())
		return price, price.IsPositive(), nil
	}
	return decimal.Zero, false, nil
}

func candleInterval(period domain.Period) (pb.CandleInterval, error) {
	switch period {
	case domain.Period5m:
		return pb.CandleInterval_CANDLE_INTERVAL_5_MIN, nil
	case domain.Period1h:
		return pb.CandleInterval_CANDLE_INTERVAL_HOUR, nil
	case domain.Period1d:
		return pb.CandleInterval_CANDLE_INTERVAL_DAY, nil
	default:
		return pb.CandleInterval_CANDLE_INTERVAL_UNSPECIFIED, fmt.Errorf("unsupported period %q", period)
	}
}

func quotationToDecimal(q *pb.Quotation) decimal.Decimal {
	if q == nil {
		return decimal.Zero
	}
	return decimal.New(q.GetUnits(), 0).Add(decimal.New(int64(q.GetNano()), -9))
}
