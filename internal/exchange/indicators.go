package exchange

const (
	rsiPeriod    = 14
	rvolBaseline = 20
)

// rsi computes a 14-period RSI over closing prices using simple averages of
// gains and losses, on the standard 0-100 scale.
func rsi(closes []float64) float64 {
	if len(closes) < rsiPeriod+1 {
		return 0
	}
	var gains, losses float64
	for i := len(closes) - rsiPeriod; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains += delta
		} else {
			losses -= delta
		}
	}
	avgGain := gains / rsiPeriod
	avgLoss := losses / rsiPeriod
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50
		}
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// rvol divides the last candle's volume by the mean of up to 20 preceding
// candles, the current one excluded.
func rvol(volumes []float64) float64 {
	if len(volumes) < 2 {
		return 0
	}
	current := volumes[len(volumes)-1]
	start := len(volumes) - 1 - rvolBaseline
	if start < 0 {
		start = 0
	}
	baseline := volumes[start : len(volumes)-1]
	var sum float64
	for _, v := range baseline {
		sum += v
	}
	avg := sum / float64(len(baseline))
	if avg <= 0 {
		return 0
	}
	return current / avg
}
