// Package normalize turns raw nearby-search results into the cleaned,
// deduplicated, rating-sorted restaurant list shown to users.
//
// The pipeline is an ordered list of pure steps over a plain slice. Order
// matters: names are deduplicated before ratings are coerced, so a later
// duplicate never replaces an earlier record whose rating turns out to be
// unusable.
package normalize

import (
	"encoding/json"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/baechuer/tour-eats/internal/domain"
)

var (
	krPrefix         = regexp.MustCompile(`^KR(?:,\s*|\s+)`)
	southKoreaPrefix = regexp.MustCompile(`^South Korea,?\s*`)
	latinOnly        = regexp.MustCompile(`^[A-Za-z0-9 ,.-]+$`)
)

// DefaultPlaceholders are name values that mean "no real data".
var DefaultPlaceholders = []string{"-", domain.UnratedSentinel, ""}

// Policy configures the restaurant pipeline. The zero value rejects
// DefaultPlaceholders and keeps Latin-only addresses.
type Policy struct {
	placeholders map[string]struct{}

	// RejectLatinOnlyAddresses drops records whose whole address is plain
	// ASCII letters, digits, space, comma, period or hyphen. Such addresses
	// usually lack the local-script detail the nearby search returns for
	// Korean places, but genuine English addresses are dropped too.
	RejectLatinOnlyAddresses bool
}

// DefaultPolicy matches the behaviour users see out of the box.
var DefaultPolicy = NewPolicy(true, DefaultPlaceholders...)

// NewPolicy builds a Policy that rejects the given placeholder names. The
// blank name is always rejected.
func NewPolicy(rejectLatinOnly bool, placeholders ...string) Policy {
	set := make(map[string]struct{}, len(placeholders))
	for _, p := range placeholders {
		set[strings.TrimSpace(p)] = struct{}{}
	}
	// blank names are never valid, whatever the configured set says
	set[""] = struct{}{}
	return Policy{placeholders: set, RejectLatinOnlyAddresses: rejectLatinOnly}
}

// IsZero reports whether p was never built with NewPolicy.
func (p Policy) IsZero() bool { return p.placeholders == nil }

// Report counts how many records each step removed.
type Report struct {
	Input   int
	Output  int
	Dropped map[string]int
}

// Restaurants cleans records with DefaultPolicy.
func Restaurants(records []domain.RawRestaurant) []domain.Restaurant {
	out, _ := DefaultPolicy.Run(records)
	return out
}

// Restaurants cleans records with p.
func (p Policy) Restaurants(records []domain.RawRestaurant) []domain.Restaurant {
	out, _ := p.Run(records)
	return out
}

type candidate struct {
	name      string
	address   *string
	rawRating any
	rating    float64
	lat, lng  float64
}

type step struct {
	name string
	fn   func([]candidate) []candidate
}

func (p Policy) steps() []step {
	steps := []step{
		{"placeholder_name", p.dropPlaceholderNames},
		{"duplicate_name", dedupeNames},
		{"invalid_rating", coerceRatings},
		{"clean_address", cleanAddresses},
	}
	if p.RejectLatinOnlyAddresses {
		steps = append(steps, step{"latin_only_address", dropLatinOnlyAddresses})
	}
	return append(steps,
		step{"empty_address", dropEmptyAddresses},
		step{"sort", sortByRating},
	)
}

// Run executes the pipeline and reports per-step drops. It never fails:
// malformed records are excluded, not reported as errors.
func (p Policy) Run(records []domain.RawRestaurant) ([]domain.Restaurant, Report) {
	rep := Report{Input: len(records), Dropped: make(map[string]int)}

	cs := make([]candidate, 0, len(records))
	for _, r := range records {
		c := candidate{address: r.Address, rawRating: r.Rating, lat: r.Latitude, lng: r.Longitude}
		// an absent name becomes "", which is always a placeholder
		if r.Name != nil {
			c.name = strings.TrimSpace(*r.Name)
		}
		cs = append(cs, c)
	}

	for _, s := range p.steps() {
		before := len(cs)
		cs = s.fn(cs)
		if d := before - len(cs); d > 0 {
			rep.Dropped[s.name] += d
		}
	}

	out := make([]domain.Restaurant, len(cs))
	for i, c := range cs {
		out[i] = domain.Restaurant{
			Name:      c.name,
			Address:   *c.address,
			Rating:    c.rating,
			Latitude:  c.lat,
			Longitude: c.lng,
		}
	}
	rep.Output = len(out)
	return out, rep
}

func (p Policy) dropPlaceholderNames(cs []candidate) []candidate {
	set := p.placeholders
	if set == nil {
		set = DefaultPolicy.placeholders
	}
	return slices.DeleteFunc(cs, func(c candidate) bool {
		_, placeholder := set[c.name]
		return placeholder
	})
}

func dedupeNames(cs []candidate) []candidate {
	seen := make(map[string]struct{}, len(cs))
	return slices.DeleteFunc(cs, func(c candidate) bool {
		if _, ok := seen[c.name]; ok {
			return true
		}
		seen[c.name] = struct{}{}
		return false
	})
}

func coerceRatings(cs []candidate) []candidate {
	out := cs[:0]
	for _, c := range cs {
		v, ok := ParseRating(c.rawRating)
		if !ok {
			continue
		}
		c.rating = v
		out = append(out, c)
	}
	return out
}

func cleanAddresses(cs []candidate) []candidate {
	for i := range cs {
		if cs[i].address == nil {
			continue
		}
		cleaned := CleanAddress(*cs[i].address)
		cs[i].address = &cleaned
	}
	return cs
}

func dropLatinOnlyAddresses(cs []candidate) []candidate {
	return slices.DeleteFunc(cs, func(c candidate) bool {
		return c.address != nil && IsLatinOnly(*c.address)
	})
}

func dropEmptyAddresses(cs []candidate) []candidate {
	return slices.DeleteFunc(cs, func(c candidate) bool {
		return c.address == nil || strings.TrimSpace(*c.address) == ""
	})
}

func sortByRating(cs []candidate) []candidate {
	slices.SortStableFunc(cs, func(a, b candidate) int {
		switch {
		case a.rating > b.rating:
			return -1
		case a.rating < b.rating:
			return 1
		default:
			return 0
		}
	})
	return cs
}

// ParseRating coerces an upstream rating to a finite number. Anything that is
// not a number or a numeric string, including the unrated sentinel, fails.
func ParseRating(v any) (float64, bool) {
	var (
		f   float64
		err error
	)
	switch r := v.(type) {
	case float64:
		f = r
	case float32:
		f = float64(r)
	case int:
		f = float64(r)
	case int64:
		f = float64(r)
	case json.Number:
		f, err = r.Float64()
	case string:
		f, err = strconv.ParseFloat(strings.TrimSpace(r), 64)
	default:
		return 0, false
	}
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// CleanAddress trims the address, strips a leading "KR" or "South Korea"
// country prefix and trailing slashes. It repeats until nothing changes, so
// cleaning a cleaned address is a no-op.
func CleanAddress(s string) string {
	for {
		next := strings.TrimSpace(s)
		next = krPrefix.ReplaceAllString(next, "")
		next = southKoreaPrefix.ReplaceAllString(next, "")
		next = strings.TrimRight(next, "/")
		next = strings.TrimSpace(next)
		if next == s {
			return next
		}
		s = next
	}
}

// IsLatinOnly reports whether the whole of s is ASCII letters, digits,
// space, comma, period or hyphen. The empty string is not Latin-only.
func IsLatinOnly(s string) bool {
	return latinOnly.MatchString(s)
}

// RankAttractions drops candidates without a usable rating and orders the
// rest by rating, highest first. Ties keep their input order.
func RankAttractions(in []domain.Attraction) []domain.Attraction {
	out := make([]domain.Attraction, 0, len(in))
	for _, a := range in {
		if a.Rating == nil || math.IsNaN(*a.Rating) || math.IsInf(*a.Rating, 0) {
			continue
		}
		out = append(out, a)
	}
	slices.SortStableFunc(out, func(a, b domain.Attraction) int {
		switch {
		case *a.Rating > *b.Rating:
			return -1
		case *a.Rating < *b.Rating:
			return 1
		default:
			return 0
		}
	})
	return out
}
