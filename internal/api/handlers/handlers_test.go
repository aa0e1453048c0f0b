package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/tour-eats/internal/domain"
	"github.com/baechuer/tour-eats/internal/explore"
	"github.com/baechuer/tour-eats/middleware"
)

type mockExplorer struct {
	mock.Mock
}

func (m *mockExplorer) Attractions(ctx context.Context, query string) ([]domain.Attraction, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Attraction), args.Error(1)
}

func (m *mockExplorer) Explore(ctx context.Context, sel explore.Selection) (*explore.Result, error) {
	args := m.Called(ctx, sel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*explore.Result), args.Error(1)
}

func (m *mockExplorer) RenderImage(ctx context.Context, link string) ([]byte, error) {
	args := m.Called(ctx, link)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *mockExplorer) Thumbnail(ctx context.Context, name string) ([]byte, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func rating(v float64) *float64 { return &v }

var (
	gyeongbokgung = explore.Selection{Name: "경복궁", Address: "서울 종로구 사직로 161"}
	sampleResult  = &explore.Result{
		Attraction: gyeongbokgung,
		ImageURL:   "https://img.example/a.jpg",
		Center:     domain.Coordinates{Lat: 37.5796, Lng: 126.977},
		Restaurants: []domain.Restaurant{
			{Name: "진주집", Address: "종로구 종로 33", Rating: 4.6, Latitude: 37.57, Longitude: 126.98},
		},
	}
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) domain.APIError {
	t.Helper()
	var body domain.APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func serve(h http.HandlerFunc, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req = req.WithContext(middleware.WithRequestID(req.Context(), "req-1"))
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestAttractionsHandler_List(t *testing.T) {
	t.Run("should_return_items", func(t *testing.T) {
		svc := new(mockExplorer)
		svc.On("Attractions", mock.Anything, "서울").Return([]domain.Attraction{
			{Name: "경복궁", Address: "사직로 161", Rating: rating(4.6)},
		}, nil)

		rec := serve(NewAttractionsHandler(svc).List, "/api/attractions?q=%EC%84%9C%EC%9A%B8")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"query":"서울","items":[{"name":"경복궁","address":"사직로 161","rating":4.6}]}`, rec.Body.String())
	})

	t.Run("should_reject_missing_query", func(t *testing.T) {
		rec := serve(NewAttractionsHandler(new(mockExplorer)).List, "/api/attractions")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeError(t, rec)
		assert.Equal(t, "validation_error", body.Error.Code)
		assert.Equal(t, "q is required", body.Error.Message)
		assert.Equal(t, "req-1", body.Error.RequestID)
	})

	t.Run("should_reject_overlong_query", func(t *testing.T) {
		rec := serve(NewAttractionsHandler(new(mockExplorer)).List, "/api/attractions?q="+strings.Repeat("a", 201))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "q must be at most 200 characters", decodeError(t, rec).Error.Message)
	})

	t.Run("should_404_when_empty", func(t *testing.T) {
		svc := new(mockExplorer)
		svc.On("Attractions", mock.Anything, "nowhere").Return([]domain.Attraction{}, nil)

		rec := serve(NewAttractionsHandler(svc).List, "/api/attractions?q=nowhere")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "attractions_not_found", decodeError(t, rec).Error.Code)
	})
}

func TestAttractionsHandler_ListCSV(t *testing.T) {
	svc := new(mockExplorer)
	svc.On("Attractions", mock.Anything, "seoul").Return([]domain.Attraction{
		{Name: "경복궁", Address: "사직로 161", Rating: rating(4.6)},
	}, nil)

	rec := serve(NewAttractionsHandler(svc).ListCSV, "/api/attractions.csv?q=seoul")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "filename*=UTF-8''seoul_")
	assert.Equal(t, "name,address,rating\n경복궁,사직로 161,4.6\n", rec.Body.String())
}

func TestAttractionsHandler_Explore(t *testing.T) {
	target := "/api/attractions/explore?name=%EA%B2%BD%EB%B3%B5%EA%B6%81&address=%EC%84%9C%EC%9A%B8%20%EC%A2%85%EB%A1%9C%EA%B5%AC%20%EC%82%AC%EC%A7%81%EB%A1%9C%20161"

	t.Run("should_return_result_with_table_and_markers", func(t *testing.T) {
		svc := new(mockExplorer)
		svc.On("Explore", mock.Anything, gyeongbokgung).Return(sampleResult, nil)

		rec := serve(NewAttractionsHandler(svc).Explore, target)
		require.Equal(t, http.StatusOK, rec.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "https://img.example/a.jpg", body["image_url"])
		assert.Len(t, body["restaurants"], 1)
		assert.Len(t, body["table"], 1)
		assert.Len(t, body["markers"], 2)
		assert.Contains(t, body["csv_url"], "/api/attractions/restaurants.csv?")
	})

	t.Run("should_422_when_location_unresolved", func(t *testing.T) {
		svc := new(mockExplorer)
		svc.On("Explore", mock.Anything, gyeongbokgung).Return(&explore.Result{}, domain.ErrLocationUnresolved)

		rec := serve(NewAttractionsHandler(svc).Explore, target)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "location_unresolved", decodeError(t, rec).Error.Code)
	})

	t.Run("should_require_address", func(t *testing.T) {
		rec := serve(NewAttractionsHandler(new(mockExplorer)).Explore, "/api/attractions/explore?name=x")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "address is required", decodeError(t, rec).Error.Message)
	})

	t.Run("should_500_on_unexpected_error", func(t *testing.T) {
		svc := new(mockExplorer)
		svc.On("Explore", mock.Anything, gyeongbokgung).Return(nil, errors.New("boom"))

		rec := serve(NewAttractionsHandler(svc).Explore, target)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "internal_error", decodeError(t, rec).Error.Code)
	})
}

func TestAttractionsHandler_RestaurantsCSV(t *testing.T) {
	svc := new(mockExplorer)
	svc.On("Explore", mock.Anything, gyeongbokgung).Return(sampleResult, nil)

	rec := serve(NewAttractionsHandler(svc).RestaurantsCSV,
		"/api/attractions/restaurants.csv?name=%EA%B2%BD%EB%B3%B5%EA%B6%81&address=%EC%84%9C%EC%9A%B8%20%EC%A2%85%EB%A1%9C%EA%B5%AC%20%EC%82%AC%EC%A7%81%EB%A1%9C%20161")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment;")
	assert.Equal(t,
		"name,address,rating,latitude,longitude\n진주집,종로구 종로 33,4.6,37.57,126.98\n",
		rec.Body.String())
}

func TestAttractionsHandler_Image(t *testing.T) {
	t.Run("should_serve_jpeg", func(t *testing.T) {
		svc := new(mockExplorer)
		svc.On("Thumbnail", mock.Anything, "경복궁").Return([]byte{0xFF, 0xD8, 0xFF}, nil)

		rec := serve(NewAttractionsHandler(svc).Image, "/api/attractions/image?name=%EA%B2%BD%EB%B3%B5%EA%B6%81")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
		assert.Equal(t, []byte{0xFF, 0xD8, 0xFF}, rec.Body.Bytes())
	})

	t.Run("should_404_without_image", func(t *testing.T) {
		svc := new(mockExplorer)
		svc.On("Thumbnail", mock.Anything, "x").Return(nil, domain.ErrNotFound("image not found"))

		rec := serve(NewAttractionsHandler(svc).Image, "/api/attractions/image?name=x")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("should_502_on_upstream_failure", func(t *testing.T) {
		svc := new(mockExplorer)
		svc.On("Thumbnail", mock.Anything, "x").Return(nil, domain.ErrUpstream("image search failed"))

		rec := serve(NewAttractionsHandler(svc).Image, "/api/attractions/image?name=x")
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})
}

func TestPageHandler(t *testing.T) {
	t.Run("should_render_empty_form", func(t *testing.T) {
		rec := serve(NewPageHandler(new(mockExplorer)).Page, "/")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Body.String(), `name="q"`)
	})

	t.Run("should_render_not_found_state", func(t *testing.T) {
		svc := new(mockExplorer)
		svc.On("Attractions", mock.Anything, "nowhere").Return([]domain.Attraction{}, nil)

		rec := serve(NewPageHandler(svc).Page, "/?q=nowhere")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "관광지를 찾을 수 없습니다.")
	})

	t.Run("should_render_selection", func(t *testing.T) {
		svc := new(mockExplorer)
		svc.On("Attractions", mock.Anything, "서울").Return([]domain.Attraction{
			{Name: "경복궁", Address: "서울 종로구 사직로 161", Rating: rating(4.6)},
		}, nil)
		svc.On("Explore", mock.Anything, gyeongbokgung).Return(sampleResult, nil)
		svc.On("RenderImage", mock.Anything, "https://img.example/a.jpg").Return([]byte{0xFF, 0xD8, 0xFF}, nil)

		rec := serve(NewPageHandler(svc).Page,
			"/?q=%EC%84%9C%EC%9A%B8&name=%EA%B2%BD%EB%B3%B5%EA%B6%81&address=%EC%84%9C%EC%9A%B8%20%EC%A2%85%EB%A1%9C%EA%B5%AC%20%EC%82%AC%EC%A7%81%EB%A1%9C%20161")

		out := rec.Body.String()
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, out, "⭐ 평점: 4.6")
		assert.Contains(t, out, `src="data:image/jpeg;base64,/9j/"`)
		assert.Contains(t, out, "진주집")
		assert.Contains(t, out, `id="map"`)
		svc.AssertNotCalled(t, "Thumbnail", mock.Anything, mock.Anything)
	})

	t.Run("should_warn_when_image_download_fails", func(t *testing.T) {
		svc := new(mockExplorer)
		svc.On("Explore", mock.Anything, gyeongbokgung).Return(sampleResult, nil)
		svc.On("RenderImage", mock.Anything, mock.Anything).Return(nil, domain.ErrUpstream("image download failed"))

		rec := serve(NewPageHandler(svc).Page,
			"/?name=%EA%B2%BD%EB%B3%B5%EA%B6%81&address=%EC%84%9C%EC%9A%B8%20%EC%A2%85%EB%A1%9C%EA%B5%AC%20%EC%82%AC%EC%A7%81%EB%A1%9C%20161")

		out := rec.Body.String()
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, out, "이미지를 찾을 수 없습니다.")
		assert.Contains(t, out, `id="map"`)
	})

	t.Run("should_show_location_error", func(t *testing.T) {
		svc := new(mockExplorer)
		svc.On("Explore", mock.Anything, gyeongbokgung).
			Return(&explore.Result{Attraction: gyeongbokgung, Restaurants: []domain.Restaurant{}}, domain.ErrLocationUnresolved)

		rec := serve(NewPageHandler(svc).Page,
			"/?name=%EA%B2%BD%EB%B3%B5%EA%B6%81&address=%EC%84%9C%EC%9A%B8%20%EC%A2%85%EB%A1%9C%EA%B5%AC%20%EC%82%AC%EC%A7%81%EB%A1%9C%20161")

		out := rec.Body.String()
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, out, "위치 정보를 불러오지 못했습니다.")
		assert.Contains(t, out, "이미지를 찾을 수 없습니다.")
		assert.NotContains(t, out, `id="map"`)
	})

	t.Run("should_reject_name_without_address", func(t *testing.T) {
		rec := serve(NewPageHandler(new(mockExplorer)).Page, "/?name=x")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "address is required")
	})
}

type stubChecker struct {
	name string
	err  error
}

func (s stubChecker) Name() string { return s.name }

func (s stubChecker) Check(ctx context.Context) error { return s.err }

func TestReadinessHandler(t *testing.T) {
	t.Run("healthz", func(t *testing.T) {
		rec := serve(NewReadinessHandler().Healthz, "/healthz")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "OK", rec.Body.String())
	})

	t.Run("ready_with_redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		defer rdb.Close()

		rec := serve(NewReadinessHandler(NewRedisReadinessChecker(rdb)).Readyz, "/readyz")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ready","checks":[{"name":"redis","status":"healthy"}]}`, rec.Body.String())
	})

	t.Run("not_ready_when_a_check_fails", func(t *testing.T) {
		h := NewReadinessHandler(stubChecker{name: "a"}, stubChecker{name: "b", err: errors.New("down")})
		rec := serve(h.Readyz, "/readyz")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), `"not_ready"`)
		assert.Contains(t, rec.Body.String(), `"error":"down"`)
	})
}
