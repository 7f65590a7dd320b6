package insight

import (
	"context"
	"time"
)

// HeuristicProvider is an offline fallback used when no forecast service is
// configured. It extends the series with a simple linear trend so the
// dashboard can still show a projection.
type HeuristicProvider struct{}

func NewHeuristicProvider() *HeuristicProvider { return &HeuristicProvider{} }

func (h *HeuristicProvider) Forecast(ctx context.Context, req ForecastRequest) (ForecastResponse, error) {
	if len(req.History) == 0 || req.Periods <= 0 {
		return ForecastResponse{}, nil
	}

	// least-squares slope over the observation index
	n := float64(len(req.History))
	var sumX, sumY, sumXY, sumXX float64
	for i, p := range req.History {
		x := float64(i)
		sumX += x
		sumY += p.Value
		sumXY += x * p.Value
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	slope := 0.0
	if denom != 0 {
		slope = (n*sumXY - sumX*sumY) / denom
	}
	intercept := (sumY - slope*sumX) / n

	last := req.History[len(req.History)-1]
	lastDate, err := time.Parse("2006-01-02", last.Date)
	if err != nil {
		lastDate = time.Now().UTC()
	}

	step := 24 * time.Hour
	switch req.Frequency {
	case "W":
		step = 7 * 24 * time.Hour
	case "M":
		step = 30 * 24 * time.Hour
	}

	// spread the bounds with distance from the last observation
	points := make([]ProjectedPoint, 0, req.Periods)
	for i := 1; i <= req.Periods; i++ {
		x := n - 1 + float64(i)
		value := intercept + slope*x
		margin := 0.05 * float64(i) * absOr(value, 1)
		points = append(points, ProjectedPoint{
			Date:  lastDate.Add(time.Duration(i) * step).Format("2006-01-02"),
			Value: value,
			Lower: value - margin,
			Upper: value + margin,
		})
	}
	return ForecastResponse{Points: points}, nil
}

func absOr(v, fallback float64) float64 {
	if v < 0 {
		v = -v
	}
	if v == 0 {
		return fallback
	}
	return v
}
