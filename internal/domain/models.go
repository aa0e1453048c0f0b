package domain

import "fmt"

// UnratedSentinel is what the places gateway puts in Rating when a nearby
// result carries no rating.
const UnratedSentinel = "없음"

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (c Coordinates) String() string {
	return fmt.Sprintf("%f,%f", c.Lat, c.Lng)
}

// Attraction is a text-search candidate. Rating is nil when the upstream
// result had none.
type Attraction struct {
	Name    string   `json:"name"`
	Address string   `json:"address"`
	Rating  *float64 `json:"rating"`
}

// RawRestaurant is a nearby-search result before cleaning. A nil Name or
// Address means the field was absent upstream. Rating holds whatever the
// upstream sent: a number, a string (possibly UnratedSentinel) or nil.
type RawRestaurant struct {
	Name      *string `json:"name"`
	Address   *string `json:"address"`
	Rating    any     `json:"rating"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Restaurant is a cleaned record. Only the normalizer produces these.
type Restaurant struct {
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	Rating    float64 `json:"rating"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (r Restaurant) Coordinates() Coordinates {
	return Coordinates{Lat: r.Latitude, Lng: r.Longitude}
}

type APIError struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id,omitempty"`
	} `json:"error"`
}
