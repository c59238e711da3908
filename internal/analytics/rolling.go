package analytics

import (
	"strconv"

	"gonum.org/v1/gonum/stat"
)

// Window is a lookback length in games. WindowAll means season-to-date.
type Window int

const WindowAll Window = -1

// Standard lookback windows
const (
	WindowLast7  Window = 7
	WindowLast14 Window = 14
	WindowLast30 Window = 30
)

// Games returns a fixed-length window.
func Games(n int) Window {
	return Window(n)
}

func (w Window) String() string {
	if w == WindowAll {
		return "season"
	}
	return "last" + strconv.Itoa(int(w))
}

// Validate rejects zero and negative windows other than WindowAll.
func (w Window) Validate() error {
	if w == WindowAll || w > 0 {
		return nil
	}
	return newValidationError("window", "must be positive or WindowAll, got %d", int(w))
}

// TakeWindow returns the newest-first prefix covered by window.
func TakeWindow(values []float64, window Window) ([]float64, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}
	if window == WindowAll || int(window) >= len(values) {
		return values, nil
	}
	return values[:int(window)], nil
}

// RollingAverage is the arithmetic mean of the first window values of a
// newest-first series. It returns nil when there is nothing to average.
func RollingAverage(values []float64, window Window) (*float64, error) {
	windowed, err := TakeWindow(values, window)
	if err != nil {
		return nil, err
	}
	if err := checkAllFinite("values", windowed); err != nil {
		return nil, err
	}
	if len(windowed) == 0 {
		return nil, nil
	}
	avg := stat.Mean(windowed, nil)
	return &avg, nil
}

// RollingAverages holds the standard windows for one metric
type RollingAverages struct {
	Season *float64 `json:"season"`
	Last7  *float64 `json:"last_7"`
	Last14 *float64 `json:"last_14"`
	Last30 *float64 `json:"last_30"`
	Games  int      `json:"games"`
}

// ComputeRollingAverages fills every standard window from one newest-first series.
func ComputeRollingAverages(values []float64) (RollingAverages, error) {
	out := RollingAverages{Games: len(values)}
	targets := []struct {
		window Window
		dest   **float64
	}{
		{WindowAll, &out.Season},
		{WindowLast7, &out.Last7},
		{WindowLast14, &out.Last14},
		{WindowLast30, &out.Last30},
	}
	for _, t := range targets {
		avg, err := RollingAverage(values, t.window)
		if err != nil {
			return RollingAverages{}, err
		}
		*t.dest = avg
	}
	return out, nil
}

// Get returns the average for one of the standard windows.
func (r RollingAverages) Get(window Window) *float64 {
	switch window {
	case WindowAll:
		return r.Season
	case WindowLast7:
		return r.Last7
	case WindowLast14:
		return r.Last14
	case WindowLast30:
		return r.Last30
	default:
		return nil
	}
}

// ValueOr dereferences an optional average with a fallback.
func ValueOr(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}
