package types

// IndicatorType identifies an indicator family.
type IndicatorType string

const (
	IndicatorTypeSMA            IndicatorType = "sma"
	IndicatorTypeEMA            IndicatorType = "ema"
	IndicatorTypeBollingerBands IndicatorType = "bollinger_bands"
	IndicatorTypeIchimoku       IndicatorType = "ichimoku"
	IndicatorTypeRSI            IndicatorType = "rsi"
	IndicatorTypeMACD           IndicatorType = "macd"
)

// DerivedSeries maps a column name (e.g. "ema", "upper", "histogram") to a
// value series aligned index-for-index with the input candle series.
// Warm-up positions where the indicator is not yet available hold NaN.
type DerivedSeries map[string][]float64
