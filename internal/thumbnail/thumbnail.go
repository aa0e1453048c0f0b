// Package thumbnail re-encodes remote attraction images so the page can serve
// them from its own origin. Only decodable raster formats survive; anything
// else (including SVG or HTML served with an image extension) is rejected.
package thumbnail

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

var (
	ErrUnsupported = errors.New("unsupported image type")
	ErrTooLarge    = errors.New("image dimensions too large")
)

const (
	TypeJPEG = "image/jpeg"
	TypePNG  = "image/png"
	TypeGIF  = "image/gif"
	TypeWebP = "image/webp"
)

var magic = []struct {
	mime   string
	prefix []byte
}{
	{TypeJPEG, []byte{0xFF, 0xD8, 0xFF}},
	{TypePNG, []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}},
	{TypeGIF, []byte("GIF87a")},
	{TypeGIF, []byte("GIF89a")},
}

// DetectType sniffs the image type from its leading bytes.
func DetectType(data []byte) (string, error) {
	if len(data) < 12 {
		return "", fmt.Errorf("data too short to detect type: %w", ErrUnsupported)
	}
	for _, m := range magic {
		if bytes.HasPrefix(data, m.prefix) {
			return m.mime, nil
		}
	}
	// RIFF....WEBP
	if bytes.HasPrefix(data, []byte("RIFF")) && string(data[8:12]) == "WEBP" {
		return TypeWebP, nil
	}
	return "", ErrUnsupported
}

// DecodeConfig reads only the header, so dimensions can be checked before
// any pixel memory is allocated.
func DecodeConfig(data []byte, mime string) (image.Config, error) {
	r := bytes.NewReader(data)
	switch mime {
	case TypeJPEG:
		return jpeg.DecodeConfig(r)
	case TypePNG:
		return png.DecodeConfig(r)
	case TypeGIF:
		return gif.DecodeConfig(r)
	case TypeWebP:
		return webp.DecodeConfig(r)
	default:
		return image.Config{}, ErrUnsupported
	}
}

func Decode(data []byte, mime string) (image.Image, error) {
	r := bytes.NewReader(data)
	switch mime {
	case TypeJPEG:
		return jpeg.Decode(r)
	case TypePNG:
		return png.Decode(r)
	case TypeGIF:
		return gif.Decode(r)
	case TypeWebP:
		return webp.Decode(r)
	default:
		return nil, ErrUnsupported
	}
}

// Fit scales img to fit inside maxW x maxH keeping its aspect ratio. A zero
// bound is unconstrained. Images are never upscaled.
func Fit(img image.Image, maxW, maxH int) image.Image {
	b := img.Bounds()
	srcW, srcH := b.Dx(), b.Dy()
	if srcW == 0 || srcH == 0 {
		return img
	}

	ratio := 1.0
	if maxW > 0 {
		ratio = min(ratio, float64(maxW)/float64(srcW))
	}
	if maxH > 0 {
		ratio = min(ratio, float64(maxH)/float64(srcH))
	}

	dstW := max(1, int(float64(srcW)*ratio))
	dstH := max(1, int(float64(srcH)*ratio))

	dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	// white backdrop so transparent PNGs do not turn black as JPEG
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

type Options struct {
	MaxWidth  int
	MaxHeight int
	// MaxPixels bounds the decoded source size.
	MaxPixels int
	Quality   int
}

func DefaultOptions() Options {
	return Options{MaxWidth: 640, MaxHeight: 640, MaxPixels: 40_000_000, Quality: 85}
}

// Render validates, decodes, shrinks and re-encodes data as JPEG.
func Render(data []byte, opts Options) ([]byte, error) {
	mime, err := DetectType(data)
	if err != nil {
		return nil, err
	}

	cfg, err := DecodeConfig(data, mime)
	if err != nil {
		return nil, fmt.Errorf("read %s header: %w", mime, err)
	}
	if opts.MaxPixels > 0 && cfg.Width*cfg.Height > opts.MaxPixels {
		return nil, fmt.Errorf("%dx%d: %w", cfg.Width, cfg.Height, ErrTooLarge)
	}

	img, err := Decode(data, mime)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", mime, err)
	}

	quality := opts.Quality
	if quality <= 0 || quality > 100 {
		quality = jpeg.DefaultQuality
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, Fit(img, opts.MaxWidth, opts.MaxHeight), &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
