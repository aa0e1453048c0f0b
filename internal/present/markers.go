package present

import "github.com/baechuer/tour-eats/internal/domain"

const (
	KindAttraction = "attraction"
	KindRestaurant = "restaurant"

	// AttractionLabel is the tooltip of the centre marker.
	AttractionLabel = "관광지"
)

type Marker struct {
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Label string  `json:"label"`
	Kind  string  `json:"kind"`
	Color string  `json:"color"`
}

// Markers places the attraction in blue followed by every restaurant in
// green, labelled "<name> (⭐<rating>)".
func Markers(center domain.Coordinates, restaurants []domain.Restaurant) []Marker {
	out := make([]Marker, 0, len(restaurants)+1)
	out = append(out, Marker{
		Lat:   center.Lat,
		Lng:   center.Lng,
		Label: AttractionLabel,
		Kind:  KindAttraction,
		Color: "blue",
	})
	for _, r := range restaurants {
		out = append(out, Marker{
			Lat:   r.Latitude,
			Lng:   r.Longitude,
			Label: RestaurantLabel(r),
			Kind:  KindRestaurant,
			Color: "green",
		})
	}
	return out
}

func RestaurantLabel(r domain.Restaurant) string {
	return r.Name + " (⭐" + FormatRating(r.Rating) + ")"
}
