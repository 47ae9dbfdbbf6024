package core

import "math"

// Window returns the ppm tolerance window around mz. The sign of ppm is
// ignored; ppm == 0 collapses the window to mz.
func Window(mz, ppm float64) (low, high float64) {
	d := mz * math.Abs(ppm) * 1e-6
	return RoundFloat(mz-d, MassDecimals), RoundFloat(mz+d, MassDecimals)
}

// InWindow reports whether observed lies within ppm of target.
func InWindow(observed, target, ppm float64) bool {
	low, high := Window(target, ppm)
	return observed >= low && observed <= high
}
