package downstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/baechuer/tour-eats/internal/config"
	"github.com/baechuer/tour-eats/internal/domain"
	"github.com/baechuer/tour-eats/internal/normalize"
)

// Google web service status values.
const (
	statusOK          = "OK"
	statusZeroResults = "ZERO_RESULTS"
)

type placesResponse struct {
	Status       string        `json:"status"`
	ErrorMessage string        `json:"error_message"`
	Results      []placeResult `json:"results"`
}

type placeResult struct {
	Name             *string `json:"name"`
	FormattedAddress *string `json:"formatted_address"`
	Vicinity         *string `json:"vicinity"`
	// number, numeric string or absent; decoded with UseNumber
	Rating   any      `json:"rating"`
	Geometry geometry `json:"geometry"`
}

type geometry struct {
	Location struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	} `json:"location"`
}

// PlacesClient talks to the Google Places and Geocoding web services.
type PlacesClient struct {
	http *Client
	cfg  config.Google
}

func NewPlacesClient(cfg config.Google, hc *Client) *PlacesClient {
	return &PlacesClient{http: hc, cfg: cfg}
}

// TextSearch looks up attractions matching query. Candidates keep a nil
// rating when Google reports none; ranking them is the caller's business.
func (c *PlacesClient) TextSearch(ctx context.Context, query string) ([]domain.Attraction, error) {
	q := strings.TrimSpace(query)
	if c.cfg.QuerySuffix != "" {
		q += " " + c.cfg.QuerySuffix
	}

	params := url.Values{}
	params.Set("query", q)
	params.Set("language", c.cfg.Language)

	body, err := c.call(ctx, "/maps/api/place/textsearch/json", params)
	if err != nil {
		return nil, fmt.Errorf("text search: %w", err)
	}

	out := make([]domain.Attraction, 0, len(body.Results))
	for _, r := range body.Results {
		a := domain.Attraction{Name: deref(r.Name), Address: deref(r.FormattedAddress)}
		if v, ok := normalize.ParseRating(r.Rating); ok {
			a.Rating = &v
		}
		out = append(out, a)
	}
	return out, nil
}

// Geocode resolves address to coordinates using the first match.
func (c *PlacesClient) Geocode(ctx context.Context, address string) (domain.Coordinates, error) {
	params := url.Values{}
	params.Set("address", address)
	params.Set("language", c.cfg.Language)

	body, err := c.call(ctx, "/maps/api/geocode/json", params)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("geocode: %w", err)
	}
	if len(body.Results) == 0 {
		return domain.Coordinates{}, fmt.Errorf("geocode %q: %w", address, ErrNotFound)
	}

	loc := body.Results[0].Geometry.Location
	return domain.Coordinates{Lat: loc.Lat, Lng: loc.Lng}, nil
}

// Nearby returns restaurants around center, truncated to the configured
// limit. Fields are passed through raw: absent names and addresses stay nil
// and a missing rating becomes the unrated sentinel.
func (c *PlacesClient) Nearby(ctx context.Context, center domain.Coordinates) ([]domain.RawRestaurant, error) {
	params := url.Values{}
	params.Set("location", center.String())
	params.Set("radius", strconv.Itoa(c.cfg.NearbyRadiusM))
	params.Set("type", "restaurant")
	params.Set("language", c.cfg.Language)

	body, err := c.call(ctx, "/maps/api/place/nearbysearch/json", params)
	if err != nil {
		return nil, fmt.Errorf("nearby search: %w", err)
	}

	results := body.Results
	if c.cfg.NearbyLimit > 0 && len(results) > c.cfg.NearbyLimit {
		results = results[:c.cfg.NearbyLimit]
	}

	out := make([]domain.RawRestaurant, 0, len(results))
	for _, r := range results {
		rating := r.Rating
		if rating == nil {
			rating = domain.UnratedSentinel
		}
		out = append(out, domain.RawRestaurant{
			Name:      r.Name,
			Address:   r.Vicinity,
			Rating:    rating,
			Latitude:  r.Geometry.Location.Lat,
			Longitude: r.Geometry.Location.Lng,
		})
	}
	return out, nil
}

// call performs the request and folds Google's body-level status into the
// error contract: ZERO_RESULTS is an empty result, anything else but OK is a
// StatusError.
func (c *PlacesClient) call(ctx context.Context, path string, params url.Values) (*placesResponse, error) {
	params.Set("key", c.cfg.APIKey)

	resp, err := c.http.Get(ctx, c.cfg.BaseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{
			Upstream:   upstreamGoogle,
			StatusCode: resp.StatusCode,
			Code:       "downstream_error",
			Message:    fmt.Sprintf("unexpected status: %d", resp.StatusCode),
		}
	}

	var body placesResponse
	dec := json.NewDecoder(bytes.NewReader(resp.Body))
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	switch body.Status {
	case statusOK:
		return &body, nil
	case statusZeroResults:
		body.Results = nil
		return &body, nil
	default:
		return nil, &StatusError{
			Upstream:   upstreamGoogle,
			StatusCode: resp.StatusCode,
			Code:       body.Status,
			Message:    body.ErrorMessage,
		}
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
