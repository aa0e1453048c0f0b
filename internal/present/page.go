package present

import (
	"embed"
	"encoding/base64"
	"html/template"
	"io"
	"io/fs"
	"net/url"

	"github.com/baechuer/tour-eats/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var pageTmpl = template.Must(template.ParseFS(templateFS, "templates/page.html"))

// Static holds the page's own script and stylesheet, rooted at "static".
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// AttractionLink is an attraction table row plus the link that selects it.
type AttractionLink struct {
	Row
	Href     string
	Selected bool
}

// Detail describes the selected attraction.
type Detail struct {
	Name    string
	Address string
	Rating  string
	// ImageSrc is empty when no image was found.
	ImageSrc template.URL
	// LocationUnresolved means geocoding failed and nothing below the
	// attraction header could be computed.
	LocationUnresolved  bool
	RestaurantsDegraded bool
	Restaurants         []Row
	Markers             []Marker
	CSVHref             string
}

type PageData struct {
	Query       string
	Searched    bool
	Attractions []AttractionLink
	Detail      *Detail
	CSVHref     string
	Error       string
}

// AttractionLinks turns ranked attractions into table rows whose links
// re-submit query together with the chosen attraction.
func AttractionLinks(query string, attractions []domain.Attraction, selected string, limit int) []AttractionLink {
	rows := AttractionTable(attractions, limit)
	out := make([]AttractionLink, len(rows))
	for i, r := range rows {
		out[i] = AttractionLink{
			Row:      r,
			Href:     "/?" + SelectionQuery(query, r.Name, r.Address).Encode(),
			Selected: r.Name == selected,
		}
	}
	return out
}

// JPEGDataURI inlines a rendered thumbnail into the page.
func JPEGDataURI(jpeg []byte) template.URL {
	return template.URL("data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(jpeg))
}

func SelectionQuery(query, name, address string) url.Values {
	v := url.Values{}
	if query != "" {
		v.Set("q", query)
	}
	v.Set("name", name)
	v.Set("address", address)
	return v
}

func RenderPage(w io.Writer, data PageData) error {
	return pageTmpl.Execute(w, data)
}
