package trader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kabuquant/kabuquant/internal/logger"
	"github.com/kabuquant/kabuquant/internal/types"
	"github.com/kabuquant/kabuquant/pkg/errors"
)

// Order is an order request passed to a broker.
type Order struct {
	Symbol string
	Side   types.Side
	Qty    int64
	// Price zero places a market order, otherwise a limit order.
	Price float64
}

// Trade is a filled order.
type Trade struct {
	ID     string
	Symbol string
	Side   types.Side
	Price  float64
	Qty    int64
}

// Broker places orders against an execution venue.
type Broker interface {
	// Balance returns the available cash.
	Balance(ctx context.Context) (float64, error)
	// PlaceOrder submits the order and blocks until it fills or times out.
	PlaceOrder(ctx context.Context, order Order) (*Trade, error)
}

// NopBroker records orders without executing them. Used in backtest mode.
type NopBroker struct {
	log     *logger.Logger
	balance float64
}

// NewNopBroker creates a broker that fills every order instantly at its
// requested price against a simulated cash balance.
func NewNopBroker(balance float64, log *logger.Logger) *NopBroker {
	return &NopBroker{log: log, balance: balance}
}

// Balance implements Broker.
func (b *NopBroker) Balance(_ context.Context) (float64, error) {
	return b.balance, nil
}

// PlaceOrder implements Broker.
func (b *NopBroker) PlaceOrder(_ context.Context, order Order) (*Trade, error) {
	b.log.Info("simulated order fill",
		zap.String("symbol", order.Symbol),
		zap.String("side", string(order.Side)),
		zap.Int64("qty", order.Qty),
		zap.Float64("price", order.Price),
	)

	return &Trade{
		ID:     uuid.New().String(),
		Symbol: order.Symbol,
		Side:   order.Side,
		Price:  order.Price,
		Qty:    order.Qty,
	}, nil
}

// Kabus /sendorder fixed fields for a cash equity order on the Tokyo
// exchange. Front order type 10 is market, 20 is limit.
const (
	kabusExchangeTokyo    = 1
	kabusSecurityEquity   = 1
	kabusCashMarginSpot   = 3
	kabusDelivTypeCash    = 2
	kabusOrderTypeMarket  = 10
	kabusOrderTypeLimit   = 20
	kabusOrderStateFilled = 5

	kabusFillPollInterval = time.Second
	kabusFillPollAttempts = 5
)

// KabusBroker executes orders through the kabu station REST API.
type KabusBroker struct {
	baseURL  string
	token    string
	password string
	client   *http.Client
	log      *logger.Logger
}

// NewKabusBroker creates a broker for the kabu station endpoint, e.g.
// "http://localhost:18080/kabusapi".
func NewKabusBroker(baseURL, token, password string, log *logger.Logger) *KabusBroker {
	return &KabusBroker{
		baseURL:  baseURL,
		token:    token,
		password: password,
		client:   &http.Client{Timeout: 10 * time.Second},
		log:      log,
	}
}

// Balance implements Broker via /wallet/cash.
func (b *KabusBroker) Balance(ctx context.Context) (float64, error) {
	var wallet []struct {
		Cash float64 `json:"Cash"`
	}

	if err := b.get(ctx, "/wallet/cash", &wallet); err != nil {
		return 0, err
	}

	if len(wallet) == 0 {
		return 0, errors.New(errors.ErrCodeMarketDataFetchFailed, "wallet response is empty")
	}

	return wallet[0].Cash, nil
}

// PlaceOrder implements Broker via /sendorder, then polls the order until
// it fills.
func (b *KabusBroker) PlaceOrder(ctx context.Context, order Order) (*Trade, error) {
	side, err := kabusSide(order.Side)
	if err != nil {
		return nil, err
	}

	frontOrderType := kabusOrderTypeMarket
	if order.Price > 0 {
		frontOrderType = kabusOrderTypeLimit
	}

	payload := map[string]any{
		"Password":       b.password,
		"Symbol":         order.Symbol,
		"Exchange":       kabusExchangeTokyo,
		"SecurityType":   kabusSecurityEquity,
		"Side":           side,
		"CashMargin":     kabusCashMarginSpot,
		"DelivType":      kabusDelivTypeCash,
		"FundType":       "AA",
		"Qty":            order.Qty,
		"Price":          order.Price,
		"ExpireDay":      0,
		"FrontOrderType": frontOrderType,
	}

	var sent struct {
		OrderID string `json:"OrderId"`
	}

	if err := b.post(ctx, "/sendorder", payload, &sent); err != nil {
		return nil, err
	}

	return b.waitFill(ctx, sent.OrderID, order)
}

// waitFill polls the order state until filled or the attempt budget runs
// out. Unfilled orders time out rather than hang the decision loop.
func (b *KabusBroker) waitFill(ctx context.Context, orderID string, order Order) (*Trade, error) {
	for attempt := 0; attempt < kabusFillPollAttempts; attempt++ {
		var states []struct {
			ID    string  `json:"ID"`
			State int     `json:"State"`
			Price float64 `json:"Price"`
		}

		if err := b.get(ctx, fmt.Sprintf("/orders?id=%s", orderID), &states); err != nil {
			return nil, err
		}

		for _, state := range states {
			if state.ID == orderID && state.State == kabusOrderStateFilled {
				return &Trade{
					ID:     orderID,
					Symbol: order.Symbol,
					Side:   order.Side,
					Price:  state.Price,
					Qty:    order.Qty,
				}, nil
			}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(kabusFillPollInterval):
		}
	}

	return nil, errors.Newf(errors.ErrCodeBacktestFailed, "order %s did not fill in time", orderID)
}

func (b *KabusBroker) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+path, nil)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "failed to build request for %s", path)
	}

	return b.do(req, out)
}

func (b *KabusBroker) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "failed to encode payload for %s", path)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "failed to build request for %s", path)
	}

	req.Header.Set("Content-Type", "application/json")

	return b.do(req, out)
}

func (b *KabusBroker) do(req *http.Request, out any) error {
	req.Header.Set("X-API-KEY", b.token)

	resp, err := b.client.Do(req)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "kabus request to %s failed", req.URL.Path)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Newf(errors.ErrCodeMarketDataFetchFailed,
			"kabus request to %s returned status %d", req.URL.Path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "failed to decode response from %s", req.URL.Path)
	}

	return nil
}

func kabusSide(side types.Side) (string, error) {
	switch side {
	case types.SideBuy:
		// Kabus side codes: 2 buys, 1 sells.
		return "2", nil
	case types.SideSell:
		return "1", nil
	default:
		return "", errors.Newf(errors.ErrCodeInvalidParameter, "unsupported order side %q", side)
	}
}

var (
	_ Broker = (*NopBroker)(nil)
	_ Broker = (*KabusBroker)(nil)
)
