package optimizer

import (
	"sort"

	"github.com/kabuquant/kabuquant/internal/types"
)

// rankedFamilies is the fixed evaluation order of the indicator families.
var rankedFamilies = []types.IndicatorType{
	types.IndicatorTypeSMA,
	types.IndicatorTypeEMA,
	types.IndicatorTypeBollingerBands,
	types.IndicatorTypeIchimoku,
	types.IndicatorTypeRSI,
	types.IndicatorTypeMACD,
}

// RankAll optimizes every indicator family and returns the reports ordered
// by best performance, highest first. Families without a result sort last,
// preserving their evaluation order. When numRanking > 0 only the top
// numRanking reports are returned.
func (o *Optimizer) RankAll(symbol string, candles []types.Candle, grids GridSet, stopLimitPercent float64, numRanking int, mode Mode) ([]*Report, error) {
	reports := make([]*Report, 0, len(rankedFamilies))

	for _, family := range rankedFamilies {
		report, err := o.Optimize(symbol, candles, family, grids, stopLimitPercent, mode)
		if err != nil {
			return nil, err
		}

		reports = append(reports, report)
	}

	sort.SliceStable(reports, func(i, j int) bool {
		bestI, errI := reports[i].Best.Take()
		bestJ, errJ := reports[j].Best.Take()

		if errI != nil {
			return false
		}

		if errJ != nil {
			return true
		}

		return bestI.Performance > bestJ.Performance
	})

	if numRanking > 0 && numRanking < len(reports) {
		reports = reports[:numRanking]
	}

	return reports, nil
}
