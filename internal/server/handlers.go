package server

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/kabuquant/kabuquant/internal/backtest"
	"github.com/kabuquant/kabuquant/internal/candle"
	"github.com/kabuquant/kabuquant/internal/optimizer"
	"github.com/kabuquant/kabuquant/internal/types"
	"github.com/kabuquant/kabuquant/pkg/errors"
)

// nullableFloats marshals NaN positions as JSON null so warm-up gaps in
// indicator series survive encoding.
type nullableFloats []float64

func (f nullableFloats) MarshalJSON() ([]byte, error) {
	out := make([]*float64, len(f))

	for i := range f {
		if !math.IsNaN(f[i]) {
			v := f[i]
			out[i] = &v
		}
	}

	return json.Marshal(out)
}

type periodSeries struct {
	Period int            `json:"period"`
	Values nullableFloats `json:"values"`
}

type bollingerSeries struct {
	N      int            `json:"n"`
	K      float64        `json:"k"`
	Upper  nullableFloats `json:"upper"`
	Middle nullableFloats `json:"middle"`
	Lower  nullableFloats `json:"lower"`
}

type ichimokuSeries struct {
	Tenkan  nullableFloats `json:"tenkan"`
	Kijun   nullableFloats `json:"kijun"`
	SenkouA nullableFloats `json:"senkou_a"`
	SenkouB nullableFloats `json:"senkou_b"`
	Chikou  nullableFloats `json:"chikou"`
}

type macdSeries struct {
	FastPeriod   int            `json:"fast_period"`
	SlowPeriod   int            `json:"slow_period"`
	SignalPeriod int            `json:"signal_period"`
	MACD         nullableFloats `json:"macd"`
	Signal       nullableFloats `json:"signal"`
	Histogram    nullableFloats `json:"histogram"`
}

type candleResponse struct {
	ProductCode string           `json:"product_code"`
	Duration    string           `json:"duration"`
	Candles     []types.Candle   `json:"candles"`
	SMAs        []periodSeries   `json:"smas,omitempty"`
	EMAs        []periodSeries   `json:"emas,omitempty"`
	Bollinger   *bollingerSeries `json:"bbands,omitempty"`
	Ichimoku    *ichimokuSeries  `json:"ichimoku,omitempty"`
	RSI         *periodSeries    `json:"rsi,omitempty"`
	MACD        *macdSeries      `json:"macd,omitempty"`
}

// handleCandles serves the chart data: the recent candle window plus any
// indicator overlays requested through query parameters.
func (s *Server) handleCandles(w http.ResponseWriter, r *http.Request) {
	productCode := r.URL.Query().Get("product_code")
	if productCode == "" {
		s.writeError(w, http.StatusBadRequest, errors.New(errors.ErrCodeInvalidParameter, "product_code is required"))

		return
	}

	duration, err := types.ParseDuration(queryString(r, "duration", string(types.Duration1m)))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)

		return
	}

	limit := queryInt(r, "limit", candle.DefaultLimit)
	if limit < 0 || limit > candle.DefaultLimit {
		limit = candle.DefaultLimit
	}

	candles, err := s.store.All(productCode, duration, limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)

		return
	}

	response := &candleResponse{
		ProductCode: productCode,
		Duration:    string(duration),
		Candles:     candles,
	}

	if len(candles) > 0 {
		if err := s.addOverlays(r, response, candles); err != nil {
			s.writeError(w, http.StatusInternalServerError, err)

			return
		}
	}

	s.writeJSON(w, http.StatusOK, response)
}

// addOverlays computes the requested indicator series over the candle
// window. Invalid or negative periods fall back to the chart defaults.
func (s *Server) addOverlays(r *http.Request, response *candleResponse, candles []types.Candle) error {
	if queryFlag(r, "sma") {
		for _, period := range []int{
			queryPeriod(r, "smaPeriod1", 7),
			queryPeriod(r, "smaPeriod2", 14),
			queryPeriod(r, "smaPeriod3", 50),
		} {
			series, err := s.computeSeries(types.IndicatorTypeSMA, candles, period)
			if err != nil {
				return err
			}

			response.SMAs = append(response.SMAs, periodSeries{Period: period, Values: series["sma"]})
		}
	}

	if queryFlag(r, "ema") {
		for _, period := range []int{
			queryPeriod(r, "emaPeriod1", 7),
			queryPeriod(r, "emaPeriod2", 14),
			queryPeriod(r, "emaPeriod3", 50),
		} {
			series, err := s.computeSeries(types.IndicatorTypeEMA, candles, period)
			if err != nil {
				return err
			}

			response.EMAs = append(response.EMAs, periodSeries{Period: period, Values: series["ema"]})
		}
	}

	if queryFlag(r, "bbands") {
		n := queryPeriod(r, "bbandsN", 20)

		k := queryFloat(r, "bbandsK", 2.0)
		if k < 0 {
			k = 2.0
		}

		series, err := s.computeSeries(types.IndicatorTypeBollingerBands, candles, n, k)
		if err != nil {
			return err
		}

		response.Bollinger = &bollingerSeries{
			N:      n,
			K:      k,
			Upper:  series["upper"],
			Middle: series["middle"],
			Lower:  series["lower"],
		}
	}

	if queryFlag(r, "ichimoku") {
		series, err := s.computeSeries(types.IndicatorTypeIchimoku, candles)
		if err != nil {
			return err
		}

		response.Ichimoku = &ichimokuSeries{
			Tenkan:  series["tenkan"],
			Kijun:   series["kijun"],
			SenkouA: series["senkou_a"],
			SenkouB: series["senkou_b"],
			Chikou:  series["chikou"],
		}
	}

	if queryFlag(r, "rsi") {
		period := queryPeriod(r, "rsiPeriod", 14)

		series, err := s.computeSeries(types.IndicatorTypeRSI, candles, period)
		if err != nil {
			return err
		}

		response.RSI = &periodSeries{Period: period, Values: series["rsi"]}
	}

	if queryFlag(r, "macd") {
		fast := queryPeriod(r, "macdPeriod1", 12)
		slow := queryPeriod(r, "macdPeriod2", 26)
		signal := queryPeriod(r, "macdPeriod3", 9)

		series, err := s.computeSeries(types.IndicatorTypeMACD, candles, fast, slow, signal)
		if err != nil {
			return err
		}

		response.MACD = &macdSeries{
			FastPeriod:   fast,
			SlowPeriod:   slow,
			SignalPeriod: signal,
			MACD:         series["macd"],
			Signal:       series["signal"],
			Histogram:    series["histogram"],
		}
	}

	return nil
}

func (s *Server) computeSeries(name types.IndicatorType, candles []types.Candle, params ...any) (map[string]nullableFloats, error) {
	// Registry indicators are shared instances and Config mutates them, so
	// configure-and-compute must not interleave across requests.
	s.indicatorMu.Lock()
	defer s.indicatorMu.Unlock()

	ind, err := s.registry.GetIndicator(name)
	if err != nil {
		return nil, err
	}

	if len(params) > 0 {
		if err := ind.Config(params...); err != nil {
			return nil, errors.Wrapf(errors.ErrCodeInvalidParameter, err, "invalid %s parameters", name)
		}
	}

	derived, err := ind.Compute(candles)
	if err != nil {
		return nil, err
	}

	result := make(map[string]nullableFloats, len(derived))
	for key, values := range derived {
		result[key] = values
	}

	return result, nil
}

type backtestRequest struct {
	ProductCode      string          `json:"product_code"`
	Duration         string          `json:"duration"`
	Limit            int             `json:"limit"`
	StopLimitPercent float64         `json:"stop_limit_percent"`
	Indicator        string          `json:"indicator"`
	Params           json.RawMessage `json:"params"`
}

// handleBacktest runs the signal engine over the stored candle window with
// caller-supplied rule parameters.
func (s *Server) handleBacktest(w http.ResponseWriter, r *http.Request) {
	var request backtestRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.writeError(w, http.StatusBadRequest, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid request body", err))

		return
	}

	candles, duration, err := s.loadWindow(request.ProductCode, request.Duration, request.Limit)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)

		return
	}

	params, err := decodeRuleParams(request.Indicator, request.Params)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)

		return
	}

	result, err := s.engine.Run(request.ProductCode, candles, params, request.StopLimitPercent)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.IsInsufficientDataError(err) || errors.IsDegenerateParameterError(err) {
			status = http.StatusUnprocessableEntity
		}

		s.writeError(w, status, err)

		return
	}

	s.log.Info("api backtest finished",
		zap.String("product_code", request.ProductCode),
		zap.String("duration", string(duration)),
		zap.String("indicator", request.Indicator),
		zap.Float64("performance", result.Performance),
	)

	s.writeJSON(w, http.StatusOK, result)
}

type optimizeRequest struct {
	ProductCode      string  `json:"product_code"`
	Duration         string  `json:"duration"`
	Limit            int     `json:"limit"`
	StopLimitPercent float64 `json:"stop_limit_percent"`
	// Indicator optimizes one family; empty ranks all of them.
	Indicator string `json:"indicator"`
	Mode      string `json:"mode"`
}

// handleOptimize sweeps the configured parameter grids over the stored
// candle window.
func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	var request optimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.writeError(w, http.StatusBadRequest, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid request body", err))

		return
	}

	candles, _, err := s.loadWindow(request.ProductCode, request.Duration, request.Limit)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)

		return
	}

	mode := optimizer.Mode(request.Mode)
	if mode == "" {
		mode = optimizer.ModeSingleBest
	}

	if request.Indicator == "" {
		reports, err := s.optimizer.RankAll(request.ProductCode, candles, s.config.Optimize,
			request.StopLimitPercent, s.config.NumRanking, mode)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err)

			return
		}

		s.writeJSON(w, http.StatusOK, reports)

		return
	}

	report, err := s.optimizer.Optimize(request.ProductCode, candles, types.IndicatorType(request.Indicator),
		s.config.Optimize, request.StopLimitPercent, mode)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.HasCode(err, errors.ErrCodeUnsupportedRule) || errors.HasCode(err, errors.ErrCodeEmptyGrid) {
			status = http.StatusBadRequest
		}

		s.writeError(w, status, err)

		return
	}

	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) loadWindow(productCode, durationValue string, limit int) ([]types.Candle, types.Duration, error) {
	if productCode == "" {
		return nil, "", errors.New(errors.ErrCodeInvalidParameter, "product_code is required")
	}

	if durationValue == "" {
		durationValue = string(types.Duration1m)
	}

	duration, err := types.ParseDuration(durationValue)
	if err != nil {
		return nil, "", err
	}

	if limit < 0 || limit > candle.DefaultLimit {
		limit = candle.DefaultLimit
	}

	candles, err := s.store.All(productCode, duration, limit)
	if err != nil {
		return nil, "", err
	}

	return candles, duration, nil
}

// decodeRuleParams maps an indicator family name plus a raw parameter
// object onto the matching rule parameter type.
func decodeRuleParams(indicatorName string, raw json.RawMessage) (backtest.RuleParams, error) {
	decode := func(into any) error {
		if len(raw) == 0 {
			return errors.New(errors.ErrCodeInvalidParameter, "params object is required")
		}

		if err := json.Unmarshal(raw, into); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidParameter, "invalid params object", err)
		}

		return nil
	}

	switch types.IndicatorType(indicatorName) {
	case types.IndicatorTypeSMA:
		var params backtest.SMACrossParams

		return params, decode(&params)
	case types.IndicatorTypeEMA:
		var params backtest.EMACrossParams

		return params, decode(&params)
	case types.IndicatorTypeBollingerBands:
		var params backtest.BollingerParams

		return params, decode(&params)
	case types.IndicatorTypeIchimoku:
		return backtest.IchimokuParams{}, nil
	case types.IndicatorTypeRSI:
		var params backtest.RSIParams

		return params, decode(&params)
	case types.IndicatorTypeMACD:
		var params backtest.MACDParams

		return params, decode(&params)
	default:
		return nil, errors.Newf(errors.ErrCodeUnsupportedRule, "unsupported indicator family %q", indicatorName)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func queryString(r *http.Request, name, fallback string) string {
	value := r.URL.Query().Get(name)
	if value == "" {
		return fallback
	}

	return value
}

func queryFlag(r *http.Request, name string) bool {
	value := r.URL.Query().Get(name)

	return value != "" && value != "false"
}

func queryInt(r *http.Request, name string, fallback int) int {
	value := r.URL.Query().Get(name)
	if value == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}

	return parsed
}

// queryPeriod parses a period parameter, falling back on missing, invalid
// or negative values.
func queryPeriod(r *http.Request, name string, fallback int) int {
	period := queryInt(r, name, fallback)
	if period <= 0 {
		return fallback
	}

	return period
}

func queryFloat(r *http.Request, name string, fallback float64) float64 {
	value := r.URL.Query().Get(name)
	if value == "" {
		return fallback
	}

	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}

	return parsed
}
