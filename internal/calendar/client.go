package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/skylarkvoice/skylark/internal/observability"
)

// ErrServiceFailure indicates the calendar backend was unreachable or
// answered with an error status. Never silently mapped to "no results".
var ErrServiceFailure = errors.New("calendar service failure")

// TimeLayout is the naive local timestamp format of the calendar
// service ("YYYY-MM-DDTHH:MM", no zone, no seconds)
const TimeLayout = "2006-01-02T15:04"

// Event is a calendar entry as the service represents it. The service
// owns events; resolvers only hold transient copies fetched per request.
type Event struct {
	ID          int64  `json:"id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Location    string `json:"location"`
}

// Service is the external calendar collaborator. One canonical
// interface, resolved at compile time.
type Service interface {
	List(ctx context.Context) ([]Event, error)
	Create(ctx context.Context, ev Event) (Event, error)
	Update(ctx context.Context, id int64, patch map[string]string) (Event, error)
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (Event, error)
}

// Client is the HTTP implementation of Service
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a calendar service client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// List fetches all events. The service may answer with a bare array or
// with an envelope object holding the array under a conventional key.
func (c *Client) List(ctx context.Context) ([]Event, error) {
	body, err := c.do(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return nil, err
	}
	return decodeEventList(body)
}

// Create adds a new event and returns it with the service-assigned id
func (c *Client) Create(ctx context.Context, ev Event) (Event, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return Event{}, fmt.Errorf("%w: encode event: %v", ErrServiceFailure, err)
	}

	body, err := c.do(ctx, http.MethodPost, c.baseURL, payload)
	if err != nil {
		return Event{}, err
	}
	return decodeEvent(body)
}

// Update patches the given fields of an event
func (c *Client) Update(ctx context.Context, id int64, patch map[string]string) (Event, error) {
	payload, err := json.Marshal(patch)
	if err != nil {
		return Event{}, fmt.Errorf("%w: encode patch: %v", ErrServiceFailure, err)
	}

	body, err := c.do(ctx, http.MethodPut, c.urlWithID(id), payload)
	if err != nil {
		return Event{}, err
	}
	return decodeEvent(body)
}

// Delete removes an event by id
func (c *Client) Delete(ctx context.Context, id int64) error {
	_, err := c.do(ctx, http.MethodDelete, c.urlWithID(id), nil)
	return err
}

// Get fetches a single event by id
func (c *Client) Get(ctx context.Context, id int64) (Event, error) {
	body, err := c.do(ctx, http.MethodGet, c.urlWithID(id), nil)
	if err != nil {
		return Event{}, err
	}
	return decodeEvent(body)
}

func (c *Client) urlWithID(id int64) string {
	sep := "?"
	if strings.Contains(c.baseURL, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%sid=%d", c.baseURL, sep, id)
}

func (c *Client) do(ctx context.Context, method, url string, payload []byte) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrServiceFailure, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		observability.RecordServiceRequest("calendar", false, time.Since(start))
		return nil, fmt.Errorf("%w: %v", ErrServiceFailure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		observability.RecordServiceRequest("calendar", false, time.Since(start))
		return nil, fmt.Errorf("%w: read response: %v", ErrServiceFailure, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		observability.RecordServiceRequest("calendar", false, time.Since(start))
		return nil, fmt.Errorf("%w: status %d", ErrServiceFailure, resp.StatusCode)
	}

	observability.RecordServiceRequest("calendar", true, time.Since(start))
	return body, nil
}

// envelopeKeys are the conventional names services wrap event lists in
var envelopeKeys = []string{"events", "data", "items"}

// decodeEventList accepts either a bare JSON array of events or an
// envelope object containing one
func decodeEventList(body []byte) ([]Event, error) {
	trimmed := bytes.TrimSpace(body)

	if len(trimmed) > 0 && trimmed[0] == '[' {
		var events []Event
		if err := json.Unmarshal(trimmed, &events); err != nil {
			return nil, fmt.Errorf("%w: decode event list: %v", ErrServiceFailure, err)
		}
		return events, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, fmt.Errorf("%w: decode event list: %v", ErrServiceFailure, err)
	}

	for _, key := range envelopeKeys {
		raw, ok := envelope[key]
		if !ok {
			continue
		}
		var events []Event
		if err := json.Unmarshal(raw, &events); err != nil {
			continue
		}
		return events, nil
	}

	return nil, nil
}

// decodeEvent reads a single event, accepting "event_id" as an alias
// for "id"
func decodeEvent(body []byte) (Event, error) {
	var raw struct {
		Event
		EventID int64 `json:"event_id"`
	}
	if err := json.Unmarshal(bytes.TrimSpace(body), &raw); err != nil {
		return Event{}, fmt.Errorf("%w: decode event: %v", ErrServiceFailure, err)
	}

	ev := raw.Event
	if ev.ID == 0 && raw.EventID != 0 {
		ev.ID = raw.EventID
	}
	return ev, nil
}
