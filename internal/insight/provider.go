// Package insight produces the dashboard's month-end spend projection. It is
// a one-shot request/response wrapper: no state machine, no retries beyond
// what the HTTP client does.
package insight

import "context"

// Point is one observation or projection in a daily series.
type Point struct {
	Date  string  `json:"ds"`
	Value float64 `json:"y"`
}

// ForecastRequest asks for Periods further points beyond the given history.
type ForecastRequest struct {
	History   []Point
	Periods   int
	Frequency string // "D" daily, "W" weekly, "M" monthly
}

// ForecastResponse carries projected points with optional confidence bounds.
type ForecastResponse struct {
	Points []ProjectedPoint
}

// ProjectedPoint is one forecast value.
type ProjectedPoint struct {
	Date  string  `json:"ds"`
	Value float64 `json:"yhat"`
	Lower float64 `json:"yhat_lower"`
	Upper float64 `json:"yhat_upper"`
}

// Provider is implemented by the ML service client and the offline heuristic.
type Provider interface {
	Forecast(ctx context.Context, req ForecastRequest) (ForecastResponse, error)
}
