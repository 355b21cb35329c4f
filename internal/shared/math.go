// Package shared provides small numeric helpers used across the module.
package shared

import "math"

// MSE returns the mean squared error between predicted and observed over
// their common length.
func MSE(predicted, observed []float64) float64 {
	n := len(predicted)
	if len(observed) < n {
		n = len(observed)
	}
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		d := predicted[i] - observed[i]
		sum += d * d
	}
	return sum / float64(n)
}

// RMSE returns the root-mean-square error between predicted and observed.
func RMSE(predicted, observed []float64) float64 {
	return math.Sqrt(MSE(predicted, observed))
}
