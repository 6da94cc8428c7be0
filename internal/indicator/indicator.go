// Package indicator implements the rolling series math used by the
// strategies. All functions return a series aligned with the input;
// positions without enough history hold NaN.
package indicator

import "math"

func nans(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func firstValid(values []float64) int {
	for i, v := range values {
		if !math.IsNaN(v) {
			return i
		}
	}
	return -1
}

// Last returns the most recent value of a series, NaN when empty.
func Last(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return values[len(values)-1]
}

// SMA computes a simple moving average.
func SMA(values []float64, length int) []float64 {
	out := nans(len(values))
	if length <= 0 || len(values) < length {
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		if i >= length {
			sum -= values[i-length]
		}
		if i >= length-1 {
			out[i] = sum / float64(length)
		}
	}
	return out
}

// EMA computes an exponential moving average seeded with the SMA of the
// first full window, the same convention pandas-style TA libraries use.
// Leading NaNs in the input are skipped, so EMAs can be chained.
func EMA(values []float64, length int) []float64 {
	out := nans(len(values))
	if length <= 0 {
		return out
	}
	start := firstValid(values)
	if start < 0 || len(values)-start < length {
		return out
	}

	var sum float64
	for i := start; i < start+length; i++ {
		sum += values[i]
	}
	prev := sum / float64(length)
	out[start+length-1] = prev

	alpha := 2.0 / float64(length+1)
	for i := start + length; i < len(values); i++ {
		prev = alpha*values[i] + (1-alpha)*prev
		out[i] = prev
	}
	return out
}

// DEMA computes a double exponential moving average: 2*EMA - EMA(EMA).
func DEMA(values []float64, length int) []float64 {
	e1 := EMA(values, length)
	e2 := EMA(e1, length)
	out := nans(len(values))
	for i := range values {
		if !math.IsNaN(e1[i]) && !math.IsNaN(e2[i]) {
			out[i] = 2*e1[i] - e2[i]
		}
	}
	return out
}

// Stdev computes a rolling sample standard deviation (ddof=1).
func Stdev(values []float64, length int) []float64 {
	out := nans(len(values))
	if length <= 1 || len(values) < length {
		return out
	}
	for i := length - 1; i < len(values); i++ {
		window := values[i-length+1 : i+1]
		var mean float64
		for _, v := range window {
			mean += v
		}
		mean /= float64(length)

		var ss float64
		for _, v := range window {
			d := v - mean
			ss += d * d
		}
		out[i] = math.Sqrt(ss / float64(length-1))
	}
	return out
}

// BBands computes Bollinger bands: SMA midline +/- mult standard deviations.
func BBands(values []float64, length int, mult float64) (lower, mid, upper []float64) {
	mid = SMA(values, length)
	sd := Stdev(values, length)
	lower = nans(len(values))
	upper = nans(len(values))
	for i := range values {
		if math.IsNaN(mid[i]) || math.IsNaN(sd[i]) {
			continue
		}
		lower[i] = mid[i] - mult*sd[i]
		upper[i] = mid[i] + mult*sd[i]
	}
	return lower, mid, upper
}

// MACD computes the MACD line (fast EMA - slow EMA), its signal line and
// the histogram (line - signal).
func MACD(values []float64, fast, slow, signal int) (line, hist, signalLine []float64) {
	fastE := EMA(values, fast)
	slowE := EMA(values, slow)
	line = nans(len(values))
	for i := range values {
		if math.IsNaN(fastE[i]) || math.IsNaN(slowE[i]) {
			continue
		}
		line[i] = fastE[i] - slowE[i]
	}
	signalLine = EMA(line, signal)
	hist = nans(len(values))
	for i := range values {
		if math.IsNaN(line[i]) || math.IsNaN(signalLine[i]) {
			continue
		}
		hist[i] = line[i] - signalLine[i]
	}
	return line, hist, signalLine
}
