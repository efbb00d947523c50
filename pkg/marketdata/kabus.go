package marketdata

import (
	"context"
	"encoding/json"
	"iter"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kabuquant/kabuquant/internal/types"
	"github.com/kabuquant/kabuquant/pkg/errors"
)

// kabusTimeLayout is the local timestamp format used by board messages.
const kabusTimeLayout = "2006-01-02T15:04:05.999999"

// kabusBoardMessage is the PUSH payload sent for every registered symbol.
// The shape matches the /board REST response.
type kabusBoardMessage struct {
	Symbol           string  `json:"Symbol"`
	CurrentPriceTime string  `json:"CurrentPriceTime"`
	BidPrice         float64 `json:"BidPrice"`
	AskPrice         float64 `json:"AskPrice"`
	TradingVolume    int64   `json:"TradingVolume"`
}

// KabusStream consumes the kabu station PUSH websocket and converts board
// messages into ticks. Symbols must be registered with the REST /register
// endpoint beforehand; the PUSH channel itself takes no subscription
// message, so Stream filters client-side.
type KabusStream struct {
	url    string
	token  string
	dialer *websocket.Dialer
}

// NewKabusStream creates a stream for the given websocket URL, e.g.
// "ws://localhost:18080/kabusapi/websocket".
func NewKabusStream(url, token string) *KabusStream {
	return &KabusStream{
		url:    url,
		token:  token,
		dialer: websocket.DefaultDialer,
	}
}

// Stream implements TickStream. A read failure is yielded once and ends
// the sequence; the caller owns the reconnect policy.
func (s *KabusStream) Stream(ctx context.Context, symbols []string) iter.Seq2[types.Tick, error] {
	wanted := make(map[string]bool, len(symbols))
	for _, symbol := range symbols {
		wanted[symbol] = true
	}

	return func(yield func(types.Tick, error) bool) {
		header := http.Header{}
		header.Set("X-API-KEY", s.token)

		conn, _, err := s.dialer.DialContext(ctx, s.url, header)
		if err != nil {
			yield(types.Tick{}, errors.Wrapf(errors.ErrCodeStreamClosed, err,
				"failed to connect to kabus websocket at %s", s.url))

			return
		}
		defer conn.Close()

		// Unblock ReadMessage when the context ends.
		go func() {
			<-ctx.Done()
			conn.Close()
		}()

		for {
			_, payload, err := conn.ReadMessage()
			if err != nil {
				if ctx.Err() != nil {
					return
				}

				yield(types.Tick{}, errors.Wrap(errors.ErrCodeStreamClosed, "kabus websocket read failed", err))

				return
			}

			var message kabusBoardMessage
			if err := json.Unmarshal(payload, &message); err != nil {
				if !yield(types.Tick{}, errors.Wrap(errors.ErrCodeMarketDataParseFailed, "invalid board message", err)) {
					return
				}

				continue
			}

			if len(wanted) > 0 && !wanted[message.Symbol] {
				continue
			}

			tick, err := boardToTick(message)
			if err != nil {
				if !yield(types.Tick{}, err) {
					return
				}

				continue
			}

			if !yield(tick, nil) {
				return
			}
		}
	}
}

func boardToTick(message kabusBoardMessage) (types.Tick, error) {
	t, err := time.ParseInLocation(kabusTimeLayout, message.CurrentPriceTime, time.Local)
	if err != nil {
		return types.Tick{}, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err,
			"invalid board timestamp %q", message.CurrentPriceTime)
	}

	return types.Tick{
		Symbol:    message.Symbol,
		Timestamp: t.Unix(),
		Bid:       message.BidPrice,
		Ask:       message.AskPrice,
		Volume:    message.TradingVolume,
	}, nil
}

var _ TickStream = (*KabusStream)(nil)
