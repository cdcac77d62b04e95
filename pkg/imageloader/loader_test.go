package imageloader

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labelforge/labelforge/pkg/constant"
)

func servePNG(t *testing.T, width, height int) *httptest.Server {
	t.Helper()

	var buf bytes.Buffer

	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, height))))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(buf.Bytes())
	}))
	t.Cleanup(srv.Close)

	return srv
}

func TestHTTPLoader_FetchesAndDecodes(t *testing.T) {
	t.Parallel()

	srv := servePNG(t, 100, 60)

	img, err := NewHTTPLoader().Load(context.Background(), srv.URL)

	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 60, img.Bounds().Dy())
}

func TestHTTPLoader_DownscalesOversizedImage(t *testing.T) {
	t.Parallel()

	srv := servePNG(t, 1200, 300)

	img, err := NewHTTPLoader().Load(context.Background(), srv.URL)

	require.NoError(t, err)

	// Fit to the edge cap, aspect preserved.
	assert.Equal(t, constant.MaxImageEdgePx, img.Bounds().Dx())
	assert.Equal(t, constant.MaxImageEdgePx/4, img.Bounds().Dy())
}

func TestHTTPLoader_RejectsNonHTTPScheme(t *testing.T) {
	t.Parallel()

	_, err := NewHTTPLoader().Load(context.Background(), "file:///etc/hosts")

	assert.ErrorIs(t, err, constant.ErrImageLoad)
}

func TestHTTPLoader_NonOKStatusIsLoadError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	_, err := NewHTTPLoader().Load(context.Background(), srv.URL)

	assert.ErrorIs(t, err, constant.ErrImageLoad)
}
