package common

// Interpolate performs linear interpolation of y(x) at xi.
// x must be sorted ascending. Values outside [x[0], x[n-1]] are clamped to
// the end samples, so callers that stay in band never extrapolate.
func Interpolate(x, y []float64, xi float64) float64 {
	if len(x) != len(y) || len(x) == 0 {
		return 0.0
	}

	if xi <= x[0] {
		return y[0]
	}
	if xi >= x[len(x)-1] {
		return y[len(y)-1]
	}

	// Binary search for the bracketing interval: x[left] <= xi < x[right]
	left := 0
	right := len(x) - 1

	for right-left > 1 {
		mid := (left + right) / 2
		if x[mid] <= xi {
			left = mid
		} else {
			right = mid
		}
	}

	t := (xi - x[left]) / (x[right] - x[left])
	return y[left] + t*(y[right]-y[left])
}

// InterpolateAll interpolates y(x) at every point of xs
func InterpolateAll(x, y, xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, xi := range xs {
		out[i] = Interpolate(x, y, xi)
	}
	return out
}
