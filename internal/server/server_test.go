package server_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/kabuquant/kabuquant/internal/backtest"
	"github.com/kabuquant/kabuquant/internal/candle"
	"github.com/kabuquant/kabuquant/internal/config"
	"github.com/kabuquant/kabuquant/internal/indicator"
	"github.com/kabuquant/kabuquant/internal/logger"
	"github.com/kabuquant/kabuquant/internal/optimizer"
	"github.com/kabuquant/kabuquant/internal/server"
	"github.com/kabuquant/kabuquant/internal/types"
)

type ServerTestSuite struct {
	suite.Suite
	store   *candle.MemoryStore
	handler http.Handler
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

func (suite *ServerTestSuite) SetupTest() {
	log := logger.NewNopLogger()

	cfg, err := config.Parse([]byte("product_code: \"1459\"\ntrade_duration: 1m\n"))
	suite.Require().NoError(err)

	suite.store = candle.NewMemoryStore()

	engine := backtest.NewEngine(log)
	opt := optimizer.New(engine, log, false)

	srv := server.New(cfg, suite.store, indicator.NewDefaultIndicatorRegistry(), engine, opt, log)
	suite.handler = srv.Handler()
}

// seedWave stores an oscillating 1m candle series for "1459".
func (suite *ServerTestSuite) seedWave(count int) {
	base := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

	for i := 0; i < count; i++ {
		price := 100 + 10*math.Sin(float64(i)/4)
		c := types.NewCandle(base.Add(time.Duration(i)*time.Minute), price, 10)
		suite.Require().NoError(suite.store.Upsert("1459", types.Duration1m, c))
	}
}

func (suite *ServerTestSuite) get(path string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, path, nil)
	suite.handler.ServeHTTP(recorder, request)

	return recorder
}

func (suite *ServerTestSuite) post(path string, payload any) *httptest.ResponseRecorder {
	body, err := json.Marshal(payload)
	suite.Require().NoError(err)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	suite.handler.ServeHTTP(recorder, request)

	return recorder
}

func (suite *ServerTestSuite) TestCandlesRequiresProductCode() {
	recorder := suite.get("/api/v1/candles")
	suite.Equal(http.StatusBadRequest, recorder.Code)

	var body map[string]string
	suite.Require().NoError(json.Unmarshal(recorder.Body.Bytes(), &body))
	suite.Contains(body["error"], "product_code")
}

func (suite *ServerTestSuite) TestCandlesRejectsUnknownDuration() {
	recorder := suite.get("/api/v1/candles?product_code=1459&duration=3m")
	suite.Equal(http.StatusBadRequest, recorder.Code)
}

func (suite *ServerTestSuite) TestCandlesReturnsWindow() {
	suite.seedWave(30)

	recorder := suite.get("/api/v1/candles?product_code=1459&limit=10")
	suite.Require().Equal(http.StatusOK, recorder.Code)

	var response struct {
		ProductCode string         `json:"product_code"`
		Duration    string         `json:"duration"`
		Candles     []types.Candle `json:"candles"`
	}
	suite.Require().NoError(json.Unmarshal(recorder.Body.Bytes(), &response))

	suite.Equal("1459", response.ProductCode)
	suite.Equal("1m", response.Duration)
	suite.Len(response.Candles, 10)
}

func (suite *ServerTestSuite) TestCandlesClampsLimit() {
	suite.seedWave(20)

	recorder := suite.get("/api/v1/candles?product_code=1459&limit=99999")
	suite.Require().Equal(http.StatusOK, recorder.Code)

	var response struct {
		Candles []types.Candle `json:"candles"`
	}
	suite.Require().NoError(json.Unmarshal(recorder.Body.Bytes(), &response))
	suite.Len(response.Candles, 20, "oversized limits clamp to the default window")
}

func (suite *ServerTestSuite) TestCandlesWithIndicatorOverlays() {
	suite.seedWave(60)

	recorder := suite.get("/api/v1/candles?product_code=1459&sma=true&smaPeriod1=3&rsi=true&rsiPeriod=5&bbands=true")
	suite.Require().Equal(http.StatusOK, recorder.Code)

	var response struct {
		Candles []types.Candle `json:"candles"`
		SMAs    []struct {
			Period int        `json:"period"`
			Values []*float64 `json:"values"`
		} `json:"smas"`
		RSI *struct {
			Period int        `json:"period"`
			Values []*float64 `json:"values"`
		} `json:"rsi"`
		Bollinger *struct {
			N     int        `json:"n"`
			K     float64    `json:"k"`
			Upper []*float64 `json:"upper"`
			Lower []*float64 `json:"lower"`
		} `json:"bbands"`
	}
	suite.Require().NoError(json.Unmarshal(recorder.Body.Bytes(), &response))

	suite.Require().Len(response.SMAs, 3, "three sma overlays with chart defaults")
	suite.Equal(3, response.SMAs[0].Period)
	suite.Equal(14, response.SMAs[1].Period)
	suite.Equal(50, response.SMAs[2].Period)
	suite.Len(response.SMAs[0].Values, 60)

	// Warm-up gap encodes as nulls, defined values as numbers.
	suite.Nil(response.SMAs[0].Values[0])
	suite.NotNil(response.SMAs[0].Values[2])

	suite.Require().NotNil(response.RSI)
	suite.Equal(5, response.RSI.Period)

	suite.Require().NotNil(response.Bollinger)
	suite.Equal(20, response.Bollinger.N)
	suite.InDelta(2.0, response.Bollinger.K, 1e-9)
}

func (suite *ServerTestSuite) TestBacktestEndpoint() {
	suite.seedWave(60)

	recorder := suite.post("/api/v1/backtest", map[string]any{
		"product_code":       "1459",
		"duration":           "1m",
		"stop_limit_percent": 5.0,
		"indicator":          "sma",
		"params":             map[string]any{"short_period": 3, "long_period": 7},
	})
	suite.Require().Equal(http.StatusOK, recorder.Code, recorder.Body.String())

	var result backtest.Result
	suite.Require().NoError(json.Unmarshal(recorder.Body.Bytes(), &result))
	suite.NotEmpty(result.Events, "the wave series must produce crossovers")
}

func (suite *ServerTestSuite) TestBacktestRejectsUnknownIndicator() {
	suite.seedWave(30)

	recorder := suite.post("/api/v1/backtest", map[string]any{
		"product_code": "1459",
		"indicator":    "vwap",
		"params":       map[string]any{},
	})
	suite.Equal(http.StatusBadRequest, recorder.Code)
}

func (suite *ServerTestSuite) TestBacktestRejectsDegenerateParams() {
	suite.seedWave(30)

	recorder := suite.post("/api/v1/backtest", map[string]any{
		"product_code": "1459",
		"indicator":    "sma",
		"params":       map[string]any{"short_period": 7, "long_period": 3},
	})
	suite.Equal(http.StatusUnprocessableEntity, recorder.Code)
}

func (suite *ServerTestSuite) TestOptimizeEndpointSingleFamily() {
	suite.seedWave(60)

	recorder := suite.post("/api/v1/optimize", map[string]any{
		"product_code":       "1459",
		"duration":           "1m",
		"stop_limit_percent": 5.0,
		"indicator":          "ema",
		"mode":               "single_best",
	})
	suite.Require().Equal(http.StatusOK, recorder.Code, recorder.Body.String())

	var report struct {
		Indicator string `json:"indicator"`
		Evaluated int    `json:"evaluated"`
	}
	suite.Require().NoError(json.Unmarshal(recorder.Body.Bytes(), &report))
	suite.Equal("ema", report.Indicator)
	suite.Positive(report.Evaluated)
}

func (suite *ServerTestSuite) TestOptimizeEndpointRanksAll() {
	suite.seedWave(150)

	recorder := suite.post("/api/v1/optimize", map[string]any{
		"product_code": "1459",
		"duration":     "1m",
	})
	suite.Require().Equal(http.StatusOK, recorder.Code)

	var reports []json.RawMessage
	suite.Require().NoError(json.Unmarshal(recorder.Body.Bytes(), &reports))
	suite.Len(reports, 6)
}

func (suite *ServerTestSuite) TestMethodNotAllowed() {
	recorder := suite.post(fmt.Sprintf("/api/v1/candles?product_code=%s", "1459"), nil)
	suite.Equal(http.StatusMethodNotAllowed, recorder.Code)
}
