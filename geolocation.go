package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// This file provides IP-based geolocation and the location fallback chain.
// The GeoIP provider sits behind an interface so the resolver can be
// tested without the network, and so the provider can be swapped without
// touching the fallback logic.

type GeoIPLocation struct {
	Coordinates
	City string
}

type GeoIPService interface {
	Locate(ctx context.Context) (GeoIPLocation, error)
}

// ipAPIGeoIPService implements GeoIPService against the ip-api.com JSON
// endpoint.
type ipAPIGeoIPService struct {
	baseURL    string
	httpClient *http.Client
}

func NewIPAPIGeoIPService(baseURL string, httpClient *http.Client) *ipAPIGeoIPService {
	return &ipAPIGeoIPService{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

// geoIPResponse mirrors the fields consumed from the ip-api.com reply.
type geoIPResponse struct {
	Status string  `json:"status"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	City   string  `json:"city"`
}

func (s *ipAPIGeoIPService) Locate(ctx context.Context) (GeoIPLocation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/json/", nil)
	if err != nil {
		return GeoIPLocation{}, fmt.Errorf("failed to build geoip request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return GeoIPLocation{}, fmt.Errorf("geoip request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return GeoIPLocation{}, fmt.Errorf("geoip request returned non-200 status: %s", resp.Status)
	}

	var responseJSON geoIPResponse
	if err := json.NewDecoder(resp.Body).Decode(&responseJSON); err != nil {
		return GeoIPLocation{}, fmt.Errorf("failed to decode geoip response: %w", err)
	}

	if responseJSON.Status != "success" {
		return GeoIPLocation{}, fmt.Errorf("geoip lookup returned status %q", responseJSON.Status)
	}

	return GeoIPLocation{
		Coordinates: Coordinates{Latitude: responseJSON.Lat, Longitude: responseJSON.Lon},
		City:        responseJSON.City,
	}, nil
}

// resolveLocation produces the location used for the next fetch cycle.
// It never fails: every error degrades to the next fallback tier
// (live geoip, then the last detected location persisted in the cache,
// then the manual coordinates).
func (cfg *apiConfig) resolveLocation(ctx context.Context) LocationInfo {
	lang := matchLanguage(cfg.settings.String(settingLanguage))

	manual := Coordinates{
		Latitude:  cfg.settings.Float(settingLatitude),
		Longitude: cfg.settings.Float(settingLongitude),
	}

	if !cfg.settings.Bool(settingAutoLocation) {
		return LocationInfo{
			Coordinates: manual,
			City:        uiLabel(lang, "manualLocation"),
			Source:      LocationSourceManual,
		}
	}

	detected, err := cfg.geoip.Locate(ctx)
	if err == nil {
		city := detected.City
		if city == "" {
			city = uiLabel(lang, "unknown")
		}
		info := LocationInfo{
			Coordinates: detected.Coordinates,
			City:        city,
			Source:      LocationSourceDetected,
		}
		cfg.saveDetectedLocation(ctx, info)
		return info
	}
	cfg.logger.Warn("geoip lookup failed, falling back", "error", err)

	if cached, ok := cfg.loadDetectedLocation(ctx); ok {
		if cached.City == "" {
			cached.City = uiLabel(lang, "cachedLocation")
		}
		cached.Source = LocationSourceCachedDetected
		return cached
	}

	return LocationInfo{
		Coordinates: manual,
		City:        uiLabel(lang, "defaultIstanbul"),
		Source:      LocationSourceDefault,
	}
}
