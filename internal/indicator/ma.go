// Package indicator provides the moving-average helpers strategies use
// for trend filtering. All results are aligned to the input: position i
// holds the indicator value at bar i, with NaN where the window has not
// filled yet.
package indicator

import "math"

// SMA calculates a simple moving average aligned to the input length.
func SMA(values []float64, period int) []float64 {
	result := make([]float64, len(values))
	if period <= 0 || len(values) < period {
		for i := range result {
			result[i] = math.NaN()
		}
		return result
	}

	var sum float64
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			result[i] = sum / float64(period)
		} else {
			result[i] = math.NaN()
		}
	}
	return result
}

// EMA calculates an exponential moving average aligned to the input
// length, seeded with the SMA of the first window.
func EMA(values []float64, period int) []float64 {
	result := make([]float64, len(values))
	if period <= 0 || len(values) < period {
		for i := range result {
			result[i] = math.NaN()
		}
		return result
	}

	multiplier := 2.0 / float64(period+1)

	var sum float64
	for i := 0; i < period; i++ {
		sum += values[i]
		result[i] = math.NaN()
	}
	ema := sum / float64(period)
	result[period-1] = ema

	for i := period; i < len(values); i++ {
		ema = (values[i]-ema)*multiplier + ema
		result[i] = ema
	}
	return result
}
