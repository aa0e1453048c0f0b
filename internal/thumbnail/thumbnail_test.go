package thumbnail

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestImage(t *testing.T, format string, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{0, 0, 255, 255})
		}
	}

	var buf bytes.Buffer
	switch format {
	case "jpeg":
		require.NoError(t, jpeg.Encode(&buf, img, nil))
	case "png":
		require.NoError(t, png.Encode(&buf, img))
	case "gif":
		require.NoError(t, gif.Encode(&buf, img, nil))
	}
	return buf.Bytes()
}

func TestDetectType(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"jpeg", createTestImage(t, "jpeg", 10, 10), TypeJPEG},
		{"png", createTestImage(t, "png", 10, 10), TypePNG},
		{"gif", createTestImage(t, "gif", 10, 10), TypeGIF},
		{"webp", []byte("RIFF\x00\x00\x00\x00WEBPVP8 "), TypeWebP},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectType(tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("html_is_rejected", func(t *testing.T) {
		_, err := DetectType([]byte("<html><body>nope</body></html>"))
		assert.ErrorIs(t, err, ErrUnsupported)
	})

	t.Run("short_data_is_rejected", func(t *testing.T) {
		_, err := DetectType([]byte{0xFF, 0xD8})
		assert.ErrorIs(t, err, ErrUnsupported)
	})
}

func TestFit(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 400, 200))

	t.Run("keeps_aspect_ratio", func(t *testing.T) {
		out := Fit(src, 100, 100)
		assert.Equal(t, 100, out.Bounds().Dx())
		assert.Equal(t, 50, out.Bounds().Dy())
	})

	t.Run("width_only", func(t *testing.T) {
		out := Fit(src, 200, 0)
		assert.Equal(t, 200, out.Bounds().Dx())
		assert.Equal(t, 100, out.Bounds().Dy())
	})

	t.Run("never_upscales", func(t *testing.T) {
		out := Fit(src, 1000, 1000)
		assert.Equal(t, 400, out.Bounds().Dx())
		assert.Equal(t, 200, out.Bounds().Dy())
	})
}

func TestRender(t *testing.T) {
	t.Run("reencodes_png_as_jpeg", func(t *testing.T) {
		out, err := Render(createTestImage(t, "png", 800, 400), DefaultOptions())
		require.NoError(t, err)

		img, err := jpeg.Decode(bytes.NewReader(out))
		require.NoError(t, err)
		assert.Equal(t, 640, img.Bounds().Dx())
		assert.Equal(t, 320, img.Bounds().Dy())
	})

	t.Run("rejects_oversized_source", func(t *testing.T) {
		opts := DefaultOptions()
		opts.MaxPixels = 100
		_, err := Render(createTestImage(t, "jpeg", 20, 20), opts)
		assert.ErrorIs(t, err, ErrTooLarge)
	})

	t.Run("rejects_unsupported", func(t *testing.T) {
		_, err := Render([]byte("<svg xmlns='http://www.w3.org/2000/svg'/>"), DefaultOptions())
		assert.ErrorIs(t, err, ErrUnsupported)
	})
}
