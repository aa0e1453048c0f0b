// Package present shapes explore results for people: table rows, map
// markers, CSV downloads and the HTML page.
package present

import (
	"strconv"
	"strings"

	"github.com/baechuer/tour-eats/internal/domain"
)

// DefaultTableLimit is how many rows the tables show.
const DefaultTableLimit = 10

type Row struct {
	Rank    int    `json:"rank"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Rating  string `json:"rating"`
}

// Table returns the first limit restaurants as display rows. A limit of zero
// or less shows everything.
func Table(restaurants []domain.Restaurant, limit int) []Row {
	n := clamp(len(restaurants), limit)
	rows := make([]Row, n)
	for i, r := range restaurants[:n] {
		rows[i] = Row{Rank: i + 1, Name: r.Name, Address: r.Address, Rating: FormatRating(r.Rating)}
	}
	return rows
}

// AttractionTable is Table for attraction candidates. A missing rating shows
// as the unrated marker.
func AttractionTable(attractions []domain.Attraction, limit int) []Row {
	n := clamp(len(attractions), limit)
	rows := make([]Row, n)
	for i, a := range attractions[:n] {
		rating := domain.UnratedSentinel
		if a.Rating != nil {
			rating = FormatRating(*a.Rating)
		}
		rows[i] = Row{Rank: i + 1, Name: a.Name, Address: a.Address, Rating: rating}
	}
	return rows
}

// FormatRating prints the shortest exact form with at least one decimal,
// so 4 reads "4.0" and 4.25 reads "4.25".
func FormatRating(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func clamp(n, limit int) int {
	if limit > 0 && limit < n {
		return limit
	}
	return n
}
