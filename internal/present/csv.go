package present

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/baechuer/tour-eats/internal/domain"
)

var (
	restaurantHeader = []string{"name", "address", "rating", "latitude", "longitude"}
	attractionHeader = []string{"name", "address", "rating"}
)

// WriteCSV writes restaurants as UTF-8 CSV with a header row, in the order
// given.
func WriteCSV(w io.Writer, restaurants []domain.Restaurant) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(restaurantHeader); err != nil {
		return err
	}
	for _, r := range restaurants {
		if err := cw.Write([]string{
			r.Name,
			r.Address,
			FormatRating(r.Rating),
			strconv.FormatFloat(r.Latitude, 'f', -1, 64),
			strconv.FormatFloat(r.Longitude, 'f', -1, 64),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteAttractionCSV(w io.Writer, attractions []domain.Attraction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(attractionHeader); err != nil {
		return err
	}
	for _, a := range attractions {
		rating := ""
		if a.Rating != nil {
			rating = FormatRating(*a.Rating)
		}
		if err := cw.Write([]string{a.Name, a.Address, rating}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

var filenameReplacer = strings.NewReplacer(
	"/", "_", "\\", "_", "\"", "_", "\r", "", "\n", "",
)

// CSVFilename names the restaurant download after the attraction. The name
// is NFC-normalized so Hangul composed by macOS clients matches.
func CSVFilename(attraction string) string {
	name := strings.TrimSpace(filenameReplacer.Replace(norm.NFC.String(attraction)))
	if name == "" {
		name = "restaurants"
	}
	return name + "_맛집목록.csv"
}

// AttractionCSVFilename names the attraction download after the search.
func AttractionCSVFilename(query string) string {
	name := strings.TrimSpace(filenameReplacer.Replace(norm.NFC.String(query)))
	if name == "" {
		name = "attractions"
	}
	return name + "_관광지목록.csv"
}
