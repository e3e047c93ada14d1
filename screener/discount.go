package screener

import (
	"fmt"
	"math"

	"discount-screener/models"
)

// DataGapError reports that a symbol lacked enough historical data to
// compute a reliable average.
type DataGapError struct {
	Symbol       string
	ValidPeriods int
	MinPeriods   int
}

func (e *DataGapError) Error() string {
	return fmt.Sprintf("insufficient history for %s: %d valid periods, need %d",
		e.Symbol, e.ValidPeriods, e.MinPeriods)
}

// round2 rounds to two decimal places, matching the column precision
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// DiscountPct computes how far below a baseline P/E the current P/E sits,
// as a percentage of the baseline. Positive means cheaper than the baseline.
func DiscountPct(baselinePE, currentPE float64) float64 {
	return round2((baselinePE - currentPE) / baselinePE * 100)
}

// IsDiscounted classifies a discount against the threshold. The boundary
// case (discount exactly equal to the threshold) counts as discounted.
func IsDiscounted(discountPct, thresholdPct float64) bool {
	return discountPct >= thresholdPct
}

// Avg5yPE estimates the trailing average P/E from monthly closes and a
// constant implied EPS (current price divided by current P/E). Closes are
// averaged per calendar year first so thinly traded years do not dominate,
// then each yearly average is divided by the EPS and the yearly P/Es are
// averaged. Returns a DataGapError when fewer than minPeriods months carry
// a usable close.
func Avg5yPE(symbol string, history []models.PricePoint, eps float64, minPeriods int) (float64, error) {
	if eps <= 0 {
		return 0, fmt.Errorf("non-positive implied EPS for %s", symbol)
	}

	yearSums := make(map[int]float64)
	yearCounts := make(map[int]int)
	valid := 0
	for _, p := range history {
		if p.Close <= 0 {
			continue
		}
		valid++
		year := p.Date.Year()
		yearSums[year] += p.Close
		yearCounts[year]++
	}

	if valid < minPeriods {
		return 0, &DataGapError{Symbol: symbol, ValidPeriods: valid, MinPeriods: minPeriods}
	}

	var sum float64
	for year, total := range yearSums {
		yearlyAvgClose := total / float64(yearCounts[year])
		sum += yearlyAvgClose / eps
	}

	return round2(sum / float64(len(yearSums))), nil
}

// IndustryAveragePE computes the mean current P/E per industry across the
// run. A symbol's own P/E is part of its industry mean. Symbols with no
// recorded industry are left out entirely.
func IndustryAveragePE(currentPEs map[string]float64, industryOf map[string]string) map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)

	for symbol, pe := range currentPEs {
		industry := industryOf[symbol]
		if industry == "" {
			continue
		}
		sums[industry] += pe
		counts[industry]++
	}

	averages := make(map[string]float64, len(sums))
	for industry, total := range sums {
		averages[industry] = total / float64(counts[industry])
	}

	return averages
}
