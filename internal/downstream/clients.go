package downstream

import (
	"github.com/baechuer/tour-eats/internal/config"
)

// maxImageBytes caps downloaded attraction images.
const maxImageBytes = 8 << 20

// NewGateways builds the places and image clients from configuration. Each
// upstream gets its own Client so metrics and logs stay separable.
func NewGateways(cfg *config.Config) (*PlacesClient, *ImageClient) {
	google := DefaultClientConfig(upstreamGoogle)
	google.Timeout = cfg.UpstreamTimeout

	naver := DefaultClientConfig(upstreamNaver)
	naver.Timeout = cfg.UpstreamTimeout

	fetch := DefaultClientConfig(upstreamImage)
	fetch.Timeout = cfg.UpstreamTimeout
	fetch.MaxBodyBytes = maxImageBytes

	places := NewPlacesClient(cfg.Google, NewClient(google))
	images := NewImageClient(cfg.Naver, NewClient(naver), NewClient(fetch))
	return places, images
}
