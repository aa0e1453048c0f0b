package handlers

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/render"

	"github.com/baechuer/tour-eats/internal/domain"
	"github.com/baechuer/tour-eats/internal/explore"
	"github.com/baechuer/tour-eats/internal/logger"
	"github.com/baechuer/tour-eats/internal/present"
)

// Explorer is the slice of explore.Service the handlers need.
type Explorer interface {
	Attractions(ctx context.Context, query string) ([]domain.Attraction, error)
	Explore(ctx context.Context, sel explore.Selection) (*explore.Result, error)
	Thumbnail(ctx context.Context, name string) ([]byte, error)
	RenderImage(ctx context.Context, link string) ([]byte, error)
}

type AttractionsHandler struct {
	svc Explorer
}

func NewAttractionsHandler(svc Explorer) *AttractionsHandler {
	return &AttractionsHandler{svc: svc}
}

type attractionsResponse struct {
	Query string              `json:"query"`
	Items []domain.Attraction `json:"items"`
}

// List handles GET /api/attractions?q=
func (h *AttractionsHandler) List(w http.ResponseWriter, r *http.Request) {
	q, err := bindSearch(r)
	if err != nil {
		handleAppError(w, r, err)
		return
	}

	items, ok := h.search(w, r, q.Q)
	if !ok {
		return
	}
	render.JSON(w, r, attractionsResponse{Query: q.Q, Items: items})
}

// ListCSV handles GET /api/attractions.csv?q=
func (h *AttractionsHandler) ListCSV(w http.ResponseWriter, r *http.Request) {
	q, err := bindSearch(r)
	if err != nil {
		handleAppError(w, r, err)
		return
	}

	items, ok := h.search(w, r, q.Q)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := present.WriteAttractionCSV(&buf, items); err != nil {
		handleAppError(w, r, err)
		return
	}
	writeCSV(w, present.AttractionCSVFilename(q.Q), buf.Bytes())
}

func (h *AttractionsHandler) search(w http.ResponseWriter, r *http.Request, query string) ([]domain.Attraction, bool) {
	items, err := h.svc.Attractions(r.Context(), query)
	if err != nil {
		handleAppError(w, r, err)
		return nil, false
	}
	if len(items) == 0 {
		sendError(w, r, "attractions_not_found", "no rated attractions found", http.StatusNotFound)
		return nil, false
	}
	return items, true
}

type exploreResponse struct {
	*explore.Result
	Table   []present.Row    `json:"table"`
	Markers []present.Marker `json:"markers"`
	CSVURL  string           `json:"csv_url"`
}

// Explore handles GET /api/attractions/explore?name=&address=
func (h *AttractionsHandler) Explore(w http.ResponseWriter, r *http.Request) {
	q, err := bindSelection(r)
	if err != nil {
		handleAppError(w, r, err)
		return
	}

	res, err := h.svc.Explore(r.Context(), explore.Selection{Name: q.Name, Address: q.Address})
	if err != nil {
		handleAppError(w, r, err)
		return
	}
	if res.Degraded.Any() {
		logger.Ctx(r.Context()).Warn().
			Str("image", res.Degraded.Image).
			Str("restaurants", res.Degraded.Restaurants).
			Msg("explore_degraded")
	}

	render.JSON(w, r, exploreResponse{
		Result:  res,
		Table:   present.Table(res.Restaurants, present.DefaultTableLimit),
		Markers: present.Markers(res.Center, res.Restaurants),
		CSVURL:  "/api/attractions/restaurants.csv?" + present.SelectionQuery("", q.Name, q.Address).Encode(),
	})
}

// RestaurantsCSV handles GET /api/attractions/restaurants.csv?name=&address=
func (h *AttractionsHandler) RestaurantsCSV(w http.ResponseWriter, r *http.Request) {
	q, err := bindSelection(r)
	if err != nil {
		handleAppError(w, r, err)
		return
	}

	res, err := h.svc.Explore(r.Context(), explore.Selection{Name: q.Name, Address: q.Address})
	if err != nil {
		handleAppError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := present.WriteCSV(&buf, res.Restaurants); err != nil {
		handleAppError(w, r, err)
		return
	}
	writeCSV(w, present.CSVFilename(q.Name), buf.Bytes())
}

// Image handles GET /api/attractions/image?name=
func (h *AttractionsHandler) Image(w http.ResponseWriter, r *http.Request) {
	name := param(r, "name")
	if err := validate.Var(name, "required,max=200"); err != nil {
		handleAppError(w, r, domain.ErrValidation("name is required"))
		return
	}

	img, err := h.svc.Thumbnail(r.Context(), name)
	if err != nil {
		handleAppError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(img); err != nil && !errors.Is(err, context.Canceled) {
		logger.Ctx(r.Context()).Debug().Err(err).Msg("image_write_failed")
	}
}

// writeCSV sends body as a download. The plain filename is an ASCII
// fallback; filename* carries the real UTF-8 name.
func writeCSV(w http.ResponseWriter, filename string, body []byte) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		`attachment; filename="download.csv"; filename*=UTF-8''`+url.PathEscape(filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
