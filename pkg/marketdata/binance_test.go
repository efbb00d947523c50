package marketdata_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/kabuquant/kabuquant/pkg/marketdata"
)

// mockBinanceWebSocketService implements BinanceWebSocketService for testing.
type mockBinanceWebSocketService struct {
	events     []*marketdata.BinanceWsBookTickerEvent
	errors     []error
	startError error
}

func (m *mockBinanceWebSocketService) WsBookTickerServe(
	_ string,
	handler marketdata.WsBookTickerHandler,
	errHandler marketdata.WsErrorHandler,
) (doneC chan struct{}, stopC chan struct{}, err error) {
	if m.startError != nil {
		return nil, nil, m.startError
	}

	doneC = make(chan struct{})
	stopC = make(chan struct{})

	go func() {
		defer close(doneC)

		for _, event := range m.events {
			select {
			case <-stopC:
				return
			default:
				handler(event)
			}
		}

		for _, err := range m.errors {
			errHandler(err)
		}

		select {
		case <-stopC:
		case <-time.After(5 * time.Second):
		}
	}()

	return doneC, stopC, nil
}

type BinanceStreamTestSuite struct {
	suite.Suite
}

func TestBinanceStreamSuite(t *testing.T) {
	suite.Run(t, new(BinanceStreamTestSuite))
}

func (suite *BinanceStreamTestSuite) TestStreamYieldsTicks() {
	events := []*marketdata.BinanceWsBookTickerEvent{
		{Symbol: "BTCUSDT", BestBidPrice: "42000.50", BestAskPrice: "42001.50"},
		{Symbol: "BTCUSDT", BestBidPrice: "42300.00", BestAskPrice: "42302.00"},
	}

	provider := marketdata.NewBinanceProviderWithWebSocket(nil, &mockBinanceWebSocketService{events: events})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	var mids []float64

	for tick, err := range provider.Stream(ctx, []string{"BTCUSDT"}) {
		if err != nil {
			break
		}

		suite.Equal("BTCUSDT", tick.Symbol)
		suite.Zero(tick.Volume, "book ticker updates carry no volume")

		mids = append(mids, tick.MidPrice())

		if len(mids) == 2 {
			break
		}
	}

	suite.Require().Len(mids, 2)
	suite.InDelta(42001.0, mids[0], 0.01)
	suite.InDelta(42301.0, mids[1], 0.01)
}

func (suite *BinanceStreamTestSuite) TestStreamYieldsTransportError() {
	mock := &mockBinanceWebSocketService{
		errors: []error{errors.New("websocket disconnected")},
	}

	provider := marketdata.NewBinanceProviderWithWebSocket(nil, mock)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	var streamErr error

	for _, err := range provider.Stream(ctx, []string{"BTCUSDT"}) {
		if err != nil {
			streamErr = err

			break
		}
	}

	suite.Require().Error(streamErr)
	suite.Contains(streamErr.Error(), "websocket disconnected")
}

func (suite *BinanceStreamTestSuite) TestStreamStartFailure() {
	mock := &mockBinanceWebSocketService{startError: errors.New("dial refused")}
	provider := marketdata.NewBinanceProviderWithWebSocket(nil, mock)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	var streamErr error

	for _, err := range provider.Stream(ctx, []string{"BTCUSDT"}) {
		if err != nil {
			streamErr = err
		}

		break
	}

	suite.Require().Error(streamErr)
	suite.Contains(streamErr.Error(), "failed to start websocket")
}

func (suite *BinanceStreamTestSuite) TestStreamStopsOnContextCancel() {
	provider := marketdata.NewBinanceProviderWithWebSocket(nil, &mockBinanceWebSocketService{})

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})

	go func() {
		defer close(done)

		for range provider.Stream(ctx, []string{"BTCUSDT"}) {
		}
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		suite.Fail("stream did not stop after context cancellation")
	}
}
