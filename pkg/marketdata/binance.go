package marketdata

import (
	"context"
	"iter"
	"strconv"
	"time"

	binance "github.com/adshao/go-binance/v2"

	"github.com/kabuquant/kabuquant/internal/types"
	"github.com/kabuquant/kabuquant/pkg/errors"
)

// binanceKlinePage is the maximum klines per REST request.
const binanceKlinePage = 500

// WsBookTickerHandler receives best bid/ask updates from the websocket.
type WsBookTickerHandler func(event *BinanceWsBookTickerEvent)

// WsErrorHandler receives websocket transport errors.
type WsErrorHandler func(err error)

// BinanceWsBookTickerEvent is the best bid/ask snapshot pushed by the
// bookTicker stream. Prices arrive as decimal strings.
type BinanceWsBookTickerEvent struct {
	Symbol       string
	BestBidPrice string
	BestAskPrice string
}

// BinanceWebSocketService abstracts the websocket transport so tests can
// inject a mock instead of dialing Binance.
type BinanceWebSocketService interface {
	WsBookTickerServe(symbol string, handler WsBookTickerHandler, errHandler WsErrorHandler) (doneC chan struct{}, stopC chan struct{}, err error)
}

// liveBinanceWebSocketService dials the real Binance websocket endpoint.
type liveBinanceWebSocketService struct{}

func (liveBinanceWebSocketService) WsBookTickerServe(symbol string, handler WsBookTickerHandler, errHandler WsErrorHandler) (chan struct{}, chan struct{}, error) {
	return binance.WsBookTickerServe(symbol, func(event *binance.WsBookTickerEvent) {
		handler(&BinanceWsBookTickerEvent{
			Symbol:       event.Symbol,
			BestBidPrice: event.BestBidPrice,
			BestAskPrice: event.BestAskPrice,
		})
	}, binance.ErrHandler(errHandler))
}

// BinanceProvider serves historical klines over REST and realtime ticks
// over the bookTicker websocket stream. No API key is needed for either.
type BinanceProvider struct {
	client *binance.Client
	ws     BinanceWebSocketService
}

// NewBinanceProvider creates a provider using the public Binance endpoints.
func NewBinanceProvider() *BinanceProvider {
	return &BinanceProvider{
		client: binance.NewClient("", ""),
		ws:     liveBinanceWebSocketService{},
	}
}

// NewBinanceProviderWithWebSocket creates a provider with an injected
// websocket service. Pass a nil client to disable the REST side.
func NewBinanceProviderWithWebSocket(client *binance.Client, ws BinanceWebSocketService) *BinanceProvider {
	return &BinanceProvider{client: client, ws: ws}
}

// Candles implements CandleProvider. Pages through the klines endpoint
// until the requested window is covered.
func (p *BinanceProvider) Candles(ctx context.Context, symbol string, duration types.Duration, pastDays int) ([]types.Candle, error) {
	interval, err := binanceInterval(duration)
	if err != nil {
		return nil, err
	}

	endMillis := time.Now().UnixMilli()
	currentStart := time.Now().AddDate(0, 0, -pastDays).UnixMilli()

	var candles []types.Candle

	for {
		klines, err := p.client.NewKlinesService().
			Symbol(symbol).
			Interval(interval).
			StartTime(currentStart).
			EndTime(endMillis).
			Do(ctx)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err,
				"failed to fetch klines for %s", symbol)
		}

		for _, k := range klines {
			candle, err := klineToCandle(k)
			if err != nil {
				return nil, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err,
					"invalid kline for %s at %d", symbol, k.OpenTime)
			}

			candles = append(candles, candle)
		}

		if len(klines) < binanceKlinePage {
			break
		}

		// Resume after the last close time to avoid duplicates.
		currentStart = klines[len(klines)-1].CloseTime + 1
		if currentStart >= endMillis {
			break
		}
	}

	if len(candles) == 0 {
		return nil, errors.Newf(errors.ErrCodeNoDataFetched, "binance returned no klines for %s", symbol)
	}

	return candles, nil
}

// Stream implements TickStream. Each bookTicker update becomes one tick;
// the stream carries no volume, so ticks report zero volume and the
// aggregator only moves prices. Transport errors are yielded and end the
// sequence.
func (p *BinanceProvider) Stream(ctx context.Context, symbols []string) iter.Seq2[types.Tick, error] {
	return func(yield func(types.Tick, error) bool) {
		ticks := make(chan types.Tick)
		streamErrs := make(chan error, len(symbols))
		stops := make([]chan struct{}, 0, len(symbols))

		defer func() {
			for _, stop := range stops {
				close(stop)
			}
		}()

		for _, symbol := range symbols {
			_, stopC, err := p.ws.WsBookTickerServe(symbol, func(event *BinanceWsBookTickerEvent) {
				tick, convErr := bookTickerToTick(event)
				if convErr != nil {
					select {
					case streamErrs <- convErr:
					default:
					}

					return
				}

				select {
				case ticks <- tick:
				case <-ctx.Done():
				}
			}, func(err error) {
				select {
				case streamErrs <- errors.Wrap(errors.ErrCodeStreamClosed, "websocket error", err):
				default:
				}
			})
			if err != nil {
				yield(types.Tick{}, errors.Wrapf(errors.ErrCodeStreamClosed, err,
					"failed to start websocket for %s", symbol))

				return
			}

			stops = append(stops, stopC)
		}

		for {
			select {
			case <-ctx.Done():
				return
			case err := <-streamErrs:
				yield(types.Tick{}, err)

				return
			case tick := <-ticks:
				if !yield(tick, nil) {
					return
				}
			}
		}
	}
}

func bookTickerToTick(event *BinanceWsBookTickerEvent) (types.Tick, error) {
	bid, err := strconv.ParseFloat(event.BestBidPrice, 64)
	if err != nil {
		return types.Tick{}, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err,
			"invalid bid price %q", event.BestBidPrice)
	}

	ask, err := strconv.ParseFloat(event.BestAskPrice, 64)
	if err != nil {
		return types.Tick{}, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err,
			"invalid ask price %q", event.BestAskPrice)
	}

	return types.Tick{
		Symbol:    event.Symbol,
		Timestamp: time.Now().Unix(),
		Bid:       bid,
		Ask:       ask,
		Volume:    0,
	}, nil
}

func klineToCandle(k *binance.Kline) (types.Candle, error) {
	open, err := strconv.ParseFloat(k.Open, 64)
	if err != nil {
		return types.Candle{}, err
	}

	high, err := strconv.ParseFloat(k.High, 64)
	if err != nil {
		return types.Candle{}, err
	}

	low, err := strconv.ParseFloat(k.Low, 64)
	if err != nil {
		return types.Candle{}, err
	}

	closePrice, err := strconv.ParseFloat(k.Close, 64)
	if err != nil {
		return types.Candle{}, err
	}

	volume, err := strconv.ParseFloat(k.Volume, 64)
	if err != nil {
		return types.Candle{}, err
	}

	return types.Candle{
		Time:   time.UnixMilli(k.OpenTime),
		Open:   open,
		High:   high,
		Low:    low,
		Close:  closePrice,
		Volume: int64(volume),
	}, nil
}

// binanceInterval maps a candle duration to a Binance kline interval.
// Binance has no 5s klines, so the finest granularity is rejected here.
func binanceInterval(duration types.Duration) (string, error) {
	switch duration {
	case types.Duration1m:
		return "1m", nil
	case types.Duration1h:
		return "1h", nil
	case types.Duration1d:
		return "1d", nil
	default:
		return "", errors.Newf(errors.ErrCodeInvalidParameter,
			"duration %s is not supported by binance klines", duration)
	}
}

var (
	_ CandleProvider = (*BinanceProvider)(nil)
	_ TickStream     = (*BinanceProvider)(nil)
)
