package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// ErrMissingTimings is returned when the timings API reply lacks the
// data.timings field or one of the six expected entries.
var ErrMissingTimings = errors.New("timings missing from API response")

// TimingsService fetches one day's prayer timings for a set of
// coordinates and a calculation method. Implementations are pure
// request/response; retry policy belongs to the caller.
type TimingsService interface {
	FetchTimings(ctx context.Context, coords Coordinates, method int, dateKey string) (DailyTimings, error)
}

// aladhanTimingsService implements TimingsService against the AlAdhan
// /v1/timings endpoint.
type aladhanTimingsService struct {
	baseURL    string
	httpClient *http.Client
}

func NewAladhanTimingsService(baseURL string, httpClient *http.Client) *aladhanTimingsService {
	return &aladhanTimingsService{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

// The following structs represent the subset of the AlAdhan JSON reply
// the daemon consumes.
type timingsResponse struct {
	Code int         `json:"code"`
	Data timingsData `json:"data"`
}

type timingsData struct {
	Timings map[string]string `json:"timings"`
}

func (s *aladhanTimingsService) FetchTimings(ctx context.Context, coords Coordinates, method int, dateKey string) (DailyTimings, error) {
	endpoint, err := url.Parse(fmt.Sprintf("%s/v1/timings/%s", s.baseURL, dateKey))
	if err != nil {
		return nil, fmt.Errorf("failed to parse timings URL: %w", err)
	}
	q := endpoint.Query()
	q.Set("latitude", fmt.Sprintf("%g", coords.Latitude))
	q.Set("longitude", fmt.Sprintf("%g", coords.Longitude))
	q.Set("method", fmt.Sprintf("%d", method))
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build timings request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("timings request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("timings request returned non-200 status: %s", resp.Status)
	}

	var responseJSON timingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&responseJSON); err != nil {
		return nil, fmt.Errorf("failed to decode timings response: %w", err)
	}

	if responseJSON.Code != http.StatusOK {
		return nil, fmt.Errorf("timings API returned code %d", responseJSON.Code)
	}
	if len(responseJSON.Data.Timings) == 0 {
		return nil, ErrMissingTimings
	}

	timings := make(DailyTimings, len(prayerOrder))
	for _, name := range prayerOrder {
		raw, ok := responseJSON.Data.Timings[string(name)]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingTimings, name)
		}
		t, err := parseClockTime(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid time for %s: %w", name, err)
		}
		timings[name] = t
	}

	return timings, nil
}
