package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/skylarkvoice/skylark/internal/observability"
)

// ErrServiceFailure indicates the weather backend was unreachable or
// answered with an error status. Never silently mapped to "no results".
var ErrServiceFailure = errors.New("weather service failure")

// Temperature is the min/max range of one forecast day
type Temperature struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// ForecastDay is one day of the service's forecast, consumed read-only
type ForecastDay struct {
	Day         string      `json:"day"`
	Weather     string      `json:"weather"`
	Temperature Temperature `json:"temperature"`
}

// Forecast is the service response. Days are ordered as returned, with
// index 0 being the service's "today".
type Forecast struct {
	Place string        `json:"place"`
	Days  []ForecastDay `json:"forecast"`
}

// Service is the external weather collaborator
type Service interface {
	Forecast(ctx context.Context, place string) (*Forecast, error)
}

// Client is the HTTP implementation of Service
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a weather service client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Forecast fetches the multi-day forecast for a place
func (c *Client) Forecast(ctx context.Context, place string) (*Forecast, error) {
	form := url.Values{"place": {place}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrServiceFailure, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		observability.RecordServiceRequest("weather", false, time.Since(start))
		return nil, fmt.Errorf("%w: %v", ErrServiceFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		observability.RecordServiceRequest("weather", false, time.Since(start))
		return nil, fmt.Errorf("%w: status %d", ErrServiceFailure, resp.StatusCode)
	}

	var forecast Forecast
	if err := json.NewDecoder(resp.Body).Decode(&forecast); err != nil {
		observability.RecordServiceRequest("weather", false, time.Since(start))
		return nil, fmt.Errorf("%w: decode response: %v", ErrServiceFailure, err)
	}

	observability.RecordServiceRequest("weather", true, time.Since(start))
	return &forecast, nil
}
