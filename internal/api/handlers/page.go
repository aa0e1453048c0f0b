package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"net/url"

	"github.com/baechuer/tour-eats/internal/domain"
	"github.com/baechuer/tour-eats/internal/explore"
	"github.com/baechuer/tour-eats/internal/logger"
	"github.com/baechuer/tour-eats/internal/present"
)

type PageHandler struct {
	svc Explorer
}

func NewPageHandler(svc Explorer) *PageHandler {
	return &PageHandler{svc: svc}
}

// Page handles GET /. Each request replays the flow from the search box down
// to the selected attraction, so the page is a pure function of its query.
func (h *PageHandler) Page(w http.ResponseWriter, r *http.Request) {
	q, err := bindPage(r)
	if err != nil {
		h.render(w, r, http.StatusBadRequest, present.PageData{Error: err.Error()})
		return
	}

	data := present.PageData{Query: q.Q}
	var attractions []domain.Attraction

	if q.Q != "" {
		attractions, err = h.svc.Attractions(r.Context(), q.Q)
		if err != nil {
			h.render(w, r, http.StatusBadRequest, present.PageData{Query: q.Q, Error: err.Error()})
			return
		}
		data.Searched = true
		data.Attractions = present.AttractionLinks(q.Q, attractions, q.Name, present.DefaultTableLimit)
		data.CSVHref = "/api/attractions.csv?" + url.Values{"q": {q.Q}}.Encode()
	}

	if q.Name != "" {
		detail, err := h.detail(r, q, attractions)
		if err != nil {
			h.render(w, r, http.StatusInternalServerError, present.PageData{Query: q.Q, Error: "요청을 처리하지 못했습니다."})
			return
		}
		data.Detail = detail
	}

	h.render(w, r, http.StatusOK, data)
}

func (h *PageHandler) detail(r *http.Request, q pageQuery, attractions []domain.Attraction) (*present.Detail, error) {
	d := &present.Detail{
		Name:    q.Name,
		Address: q.Address,
		Rating:  domain.UnratedSentinel,
	}
	for _, a := range attractions {
		if a.Name == q.Name && a.Rating != nil {
			d.Rating = present.FormatRating(*a.Rating)
			break
		}
	}

	res, err := h.svc.Explore(r.Context(), explore.Selection{Name: q.Name, Address: q.Address})
	switch {
	case errors.Is(err, domain.ErrLocationUnresolved):
		d.LocationUnresolved = true
	case err != nil:
		return nil, err
	}

	if res != nil && res.ImageURL != "" {
		img, err := h.svc.RenderImage(r.Context(), res.ImageURL)
		if err != nil {
			logger.Ctx(r.Context()).Warn().Err(err).Str("attraction", q.Name).Msg("page_image_unavailable")
		} else {
			d.ImageSrc = present.JPEGDataURI(img)
		}
	}
	if d.LocationUnresolved {
		return d, nil
	}

	d.RestaurantsDegraded = res.Degraded.Restaurants != ""
	d.Restaurants = present.Table(res.Restaurants, present.DefaultTableLimit)
	d.Markers = present.Markers(res.Center, res.Restaurants)
	d.CSVHref = "/api/attractions/restaurants.csv?" + present.SelectionQuery("", q.Name, q.Address).Encode()
	return d, nil
}

func (h *PageHandler) render(w http.ResponseWriter, r *http.Request, status int, data present.PageData) {
	var buf bytes.Buffer
	if err := present.RenderPage(&buf, data); err != nil {
		logger.Ctx(r.Context()).Error().Err(err).Msg("page_render_failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
