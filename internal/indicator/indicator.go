// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package indicator computes technical indicators over a daily close series.
// Every indicator needs a minimum number of points; a series that is too
// short yields an unavailable (nil) value rather than an error.
package indicator

import (
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"

	"github.com/pdiddy/research-brief/pkg/types"
)

// Indicator windows.
const (
	ShortWindow = 20
	LongWindow  = 50
	RSIPeriod   = 14
	AvgWindow   = 30
)

// Compute derives the indicator set from series, oldest point first.
func Compute(series []types.PricePoint) types.IndicatorSet {
	closes := Closes(series)
	var set types.IndicatorSet
	if len(closes) > 0 {
		set.LatestClose = ptr(Round(closes[len(closes)-1]))
	}
	if v, ok := SMA(closes, ShortWindow); ok {
		set.SMA20 = ptr(Round(v))
	}
	if v, ok := SMA(closes, LongWindow); ok {
		set.SMA50 = ptr(Round(v))
	}
	if v, ok := RSI(closes, RSIPeriod); ok {
		set.RSI14 = ptr(Round(v))
	}
	return set
}

// Closes extracts the close values of series.
func Closes(series []types.PricePoint) []float64 {
	out := make([]float64, len(series))
	for i, p := range series {
		out[i] = p.Close
	}
	return out
}

// SMA returns the arithmetic mean of the last n closes. It reports false
// when fewer than n closes are available.
func SMA(closes []float64, n int) (float64, bool) {
	if n <= 0 || len(closes) < n {
		return 0, false
	}
	return stat.Mean(closes[len(closes)-n:], nil), true
}

// RSI returns the relative strength index over the last n changes using the
// simple average of gains and losses. It needs n+1 closes. A window without
// losses is 100; a window without gains is 0.
func RSI(closes []float64, n int) (float64, bool) {
	if n <= 0 || len(closes) < n+1 {
		return 0, false
	}
	window := closes[len(closes)-n-1:]
	var gain, loss float64
	for i := 1; i < len(window); i++ {
		d := window[i] - window[i-1]
		if d > 0 {
			gain += d
		} else {
			loss -= d
		}
	}
	avgGain := gain / float64(n)
	avgLoss := loss / float64(n)
	if avgLoss == 0 {
		return 100, true
	}
	rs := avgGain / avgLoss
	return clamp(100-100/(1+rs), 0, 100), true
}

// Range returns the highest and lowest close in the series.
func Range(closes []float64) (high, low float64, ok bool) {
	if len(closes) == 0 {
		return 0, 0, false
	}
	high, low = closes[0], closes[0]
	for _, c := range closes[1:] {
		if c > high {
			high = c
		}
		if c < low {
			low = c
		}
	}
	return high, low, true
}

// Round rounds v to two decimal places.
func Round(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func ptr(v float64) *float64 { return &v }
