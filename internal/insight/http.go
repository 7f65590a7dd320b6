package insight

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPProvider talks to the forecasting side-service (Prophet behind a small
// Flask API).
type HTTPProvider struct {
	baseURL string
	http    *http.Client
}

func NewHTTPProvider(baseURL string) *HTTPProvider {
	return &HTTPProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 20 * time.Second},
	}
}

// Forecast posts the series to /forecast/prophet and decodes the projection.
func (p *HTTPProvider) Forecast(ctx context.Context, req ForecastRequest) (ForecastResponse, error) {
	payload := map[string]any{
		"data":            req.History,
		"periods":         req.Periods,
		"frequency":       req.Frequency,
		"include_history": false,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return ForecastResponse{}, fmt.Errorf("encode forecast request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/forecast/prophet", bytes.NewReader(body))
	if err != nil {
		return ForecastResponse{}, fmt.Errorf("build forecast request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.http.Do(httpReq)
	if err != nil {
		return ForecastResponse{}, fmt.Errorf("forecast request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return ForecastResponse{}, fmt.Errorf("read forecast response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return ForecastResponse{}, fmt.Errorf("forecast service returned status %d", resp.StatusCode)
	}

	var decoded struct {
		Success  bool             `json:"success"`
		Error    string           `json:"error"`
		Forecast []ProjectedPoint `json:"forecast"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return ForecastResponse{}, fmt.Errorf("decode forecast response: %w", err)
	}
	if !decoded.Success {
		return ForecastResponse{}, fmt.Errorf("forecast service error: %s", decoded.Error)
	}
	return ForecastResponse{Points: decoded.Forecast}, nil
}
