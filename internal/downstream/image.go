package downstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/baechuer/tour-eats/internal/config"
)

type imageSearchResponse struct {
	Items []struct {
		Title     string `json:"title"`
		Link      string `json:"link"`
		Thumbnail string `json:"thumbnail"`
	} `json:"items"`
}

// ImageClient finds a representative picture for a place through the Naver
// image search API and downloads it.
type ImageClient struct {
	search *Client
	fetch  *Client
	cfg    config.Naver
}

// NewImageClient takes separate clients for the search API and for the image
// hosts the results point at; they differ in body limit and metric label.
func NewImageClient(cfg config.Naver, search, fetch *Client) *ImageClient {
	return &ImageClient{search: search, fetch: fetch, cfg: cfg}
}

// SearchImage returns the link of the most relevant image for query.
func (c *ImageClient) SearchImage(ctx context.Context, query string) (string, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("display", "1")
	params.Set("sort", "sim")
	params.Set("filter", "medium")

	resp, err := c.search.Get(ctx, c.cfg.BaseURL+"/v1/search/image?"+params.Encode(), map[string]string{
		"X-Naver-Client-Id":     c.cfg.ClientID,
		"X-Naver-Client-Secret": c.cfg.ClientSecret,
	})
	if err != nil {
		return "", fmt.Errorf("image search: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("image search: %w", decodeNaverError(resp))
	}

	var body imageSearchResponse
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return "", fmt.Errorf("decode image search: %w", err)
	}
	for _, it := range body.Items {
		if it.Link != "" {
			return it.Link, nil
		}
	}
	return "", fmt.Errorf("image search %q: %w", query, ErrNotFound)
}

// Fetch downloads the image at link. Only absolute http(s) URLs are followed.
func (c *ImageClient) Fetch(ctx context.Context, link string) ([]byte, error) {
	u, err := url.Parse(link)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("image link %q: %w", link, ErrNotFound)
	}

	resp, err := c.fetch.Get(ctx, u.String(), map[string]string{"Accept": "image/*"})
	if err != nil {
		return nil, fmt.Errorf("image fetch: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("image fetch: %w", ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{
			Upstream:   upstreamImage,
			StatusCode: resp.StatusCode,
			Code:       "downstream_error",
			Message:    fmt.Sprintf("unexpected status: %d", resp.StatusCode),
		}
	}
	return resp.Body, nil
}
