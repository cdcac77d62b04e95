package imageloader

import (
	"context"
	"fmt"
	"image"
	"net/http"
	"net/url"

	"github.com/disintegration/imaging"

	"github.com/labelforge/labelforge/pkg/constant"
)

// Loader fetches and decodes a record image. Failures are non-fatal to a
// render; the caller skips the image instruction and continues.
//
//go:generate mockgen --destination=loader.mock.go --package=imageloader . Loader
type Loader interface {
	Load(ctx context.Context, imageURL string) (image.Image, error)
}

// HTTPLoader is the production Loader, fetching over HTTP(S) with a bounded
// timeout, decoding through imaging and fitting oversized rasters down to
// MaxImageEdgePx.
type HTTPLoader struct {
	client *http.Client
}

// Compile-time interface satisfaction check.
var _ Loader = (*HTTPLoader)(nil)

// NewHTTPLoader creates a Loader with the default fetch timeout.
func NewHTTPLoader() *HTTPLoader {
	return &HTTPLoader{
		client: &http.Client{Timeout: constant.ImageFetchTimeout},
	}
}

// Load fetches imageURL and decodes the body. Only http and https schemes are
// resolvable; anything else is an immediate load error.
func (l *HTTPLoader) Load(ctx context.Context, imageURL string) (image.Image, error) {
	parsed, err := url.Parse(imageURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, fmt.Errorf("unresolvable image url %q: %w", imageURL, constant.ErrImageLoad)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build image request: %v: %w", err, constant.ErrImageLoad)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %v: %w", err, constant.ErrImageLoad)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch image: status %d: %w", resp.StatusCode, constant.ErrImageLoad)
	}

	img, err := imaging.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode image: %v: %w", err, constant.ErrImageLoad)
	}

	if b := img.Bounds(); b.Dx() > constant.MaxImageEdgePx || b.Dy() > constant.MaxImageEdgePx {
		img = imaging.Fit(img, constant.MaxImageEdgePx, constant.MaxImageEdgePx, imaging.Lanczos)
	}

	return img, nil
}
