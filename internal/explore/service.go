// Package explore runs the per-request attraction and restaurant pipeline.
// Every step is sequential: image lookup, geocoding, nearby search, a fixed
// pause for the places rate limit, then normalization.
package explore

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/baechuer/tour-eats/internal/domain"
	"github.com/baechuer/tour-eats/internal/downstream"
	"github.com/baechuer/tour-eats/internal/logger"
	"github.com/baechuer/tour-eats/internal/normalize"
	"github.com/baechuer/tour-eats/internal/thumbnail"
	"github.com/baechuer/tour-eats/internal/tracing"
)

type Places interface {
	TextSearch(ctx context.Context, query string) ([]domain.Attraction, error)
	Geocode(ctx context.Context, address string) (domain.Coordinates, error)
	Nearby(ctx context.Context, center domain.Coordinates) ([]domain.RawRestaurant, error)
}

type Images interface {
	SearchImage(ctx context.Context, query string) (string, error)
	Fetch(ctx context.Context, link string) ([]byte, error)
}

// Sleeper pauses for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the default Sleeper.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Degradation reasons.
const (
	ReasonNotFound    = "not_found"
	ReasonUnavailable = "unavailable"
)

// Selection identifies the attraction the user picked.
type Selection struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// Degraded names the parts of a result that are missing because an upstream
// failed. Empty fields mean the part is complete.
type Degraded struct {
	Image       string `json:"image,omitempty"`
	Restaurants string `json:"restaurants,omitempty"`
}

// Any reports whether any part of the result is missing.
func (d Degraded) Any() bool { return d.Image != "" || d.Restaurants != "" }

type Result struct {
	Attraction  Selection           `json:"attraction"`
	ImageURL    string              `json:"image_url,omitempty"`
	Center      domain.Coordinates  `json:"center"`
	Restaurants []domain.Restaurant `json:"restaurants"`
	Degraded    Degraded            `json:"degraded"`
}

type Options struct {
	NearbyPause time.Duration
	Policy      normalize.Policy
	Sleep       Sleeper
	Thumbnail   thumbnail.Options
}

type Service struct {
	places Places
	images Images
	opts   Options
}

func NewService(places Places, images Images, opts Options) *Service {
	if opts.Sleep == nil {
		opts.Sleep = SleepContext
	}
	if opts.Thumbnail == (thumbnail.Options{}) {
		opts.Thumbnail = thumbnail.DefaultOptions()
	}
	if opts.Policy.IsZero() {
		opts.Policy = normalize.DefaultPolicy
	}
	return &Service{places: places, images: images, opts: opts}
}

// Attractions returns the rated candidates for query, best first. Upstream
// failures are logged and come back as an empty list so the caller shows a
// not-found state instead of an error page.
func (s *Service) Attractions(ctx context.Context, query string) ([]domain.Attraction, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ErrValidation("query is required")
	}

	found, err := s.places.TextSearch(ctx, query)
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("query", query).Msg("attraction_search_failed")
		return []domain.Attraction{}, nil
	}

	ranked := normalize.RankAttractions(found)
	logger.Ctx(ctx).Debug().
		Int("found", len(found)).
		Int("rated", len(ranked)).
		Msg("attraction_search_completed")
	return ranked, nil
}

// Explore gathers everything shown for one attraction. Image and restaurant
// failures degrade the result. A failed geocode aborts the run with
// domain.ErrLocationUnresolved, returned alongside the partial result so the
// caller can still show the attraction and its image.
func (s *Service) Explore(ctx context.Context, sel Selection) (*Result, error) {
	sel.Name = strings.TrimSpace(sel.Name)
	sel.Address = strings.TrimSpace(sel.Address)
	if sel.Name == "" || sel.Address == "" {
		return nil, domain.ErrValidation("name and address are required")
	}

	ctx, span := tracing.StartSpan(ctx, "explore.Explore")
	defer span.End()
	span.SetAttributes(attribute.String("attraction", sel.Name))

	log := logger.Ctx(ctx).With().Str("attraction", sel.Name).Logger()
	res := &Result{Attraction: sel, Restaurants: []domain.Restaurant{}}

	link, err := s.images.SearchImage(ctx, sel.Name)
	if err != nil {
		res.Degraded.Image = reason(err)
		log.Warn().Err(err).Msg("image_lookup_failed")
	} else {
		res.ImageURL = link
	}

	center, err := s.places.Geocode(ctx, sel.Address)
	if err != nil {
		log.Warn().Err(err).Str("address", sel.Address).Msg("geocode_failed")
		return res, domain.ErrLocationUnresolved
	}
	res.Center = center

	raw, err := s.places.Nearby(ctx, center)
	if err != nil {
		res.Degraded.Restaurants = ReasonUnavailable
		log.Warn().Err(err).Msg("nearby_search_failed")
	}
	// the pause follows every nearby call, successful or not
	if err := s.opts.Sleep(ctx, s.opts.NearbyPause); err != nil {
		return nil, err
	}

	restaurants, rep := s.opts.Policy.Run(raw)
	res.Restaurants = restaurants
	span.SetAttributes(
		attribute.Int("restaurants.raw", rep.Input),
		attribute.Int("restaurants.kept", rep.Output),
	)
	log.Debug().
		Int("input", rep.Input).
		Int("output", rep.Output).
		Interface("dropped", rep.Dropped).
		Msg("restaurants_normalized")

	return res, nil
}

// Thumbnail searches for the attraction's image and returns it as a
// same-origin JPEG.
func (s *Service) Thumbnail(ctx context.Context, name string) ([]byte, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrValidation("name is required")
	}

	link, err := s.images.SearchImage(ctx, name)
	if err != nil {
		if errors.Is(err, downstream.ErrNotFound) {
			return nil, domain.ErrNotFound("image not found")
		}
		return nil, domain.ErrUpstream("image search failed")
	}
	return s.RenderImage(ctx, link)
}

// RenderImage downloads a link already resolved by Explore and re-encodes
// it as JPEG, so a selection costs a single image search.
func (s *Service) RenderImage(ctx context.Context, link string) ([]byte, error) {
	raw, err := s.images.Fetch(ctx, link)
	if err != nil {
		if errors.Is(err, downstream.ErrNotFound) {
			return nil, domain.ErrNotFound("image not found")
		}
		return nil, domain.ErrUpstream("image download failed")
	}

	out, err := thumbnail.Render(raw, s.opts.Thumbnail)
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("thumbnail_render_failed")
		return nil, domain.ErrNotFound("image not usable")
	}
	return out, nil
}

func reason(err error) string {
	if errors.Is(err, downstream.ErrNotFound) {
		return ReasonNotFound
	}
	return ReasonUnavailable
}
