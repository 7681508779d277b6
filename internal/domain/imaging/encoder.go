package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/jpeg"
	"image/png"
	"strings"

	_ "image/gif"

	xdraw "golang.org/x/image/draw"

	apperrors "github.com/yanqian/adlens/pkg/errors"
)

// Config bounds the encoded payload sent to the vision provider.
type Config struct {
	MaxWidth     int
	MaxHeight    int
	MaxSizeBytes int64
}

// DefaultConfig mirrors the provider's 4 MiB request budget.
func DefaultConfig() Config {
	return Config{
		MaxWidth:     1024,
		MaxHeight:    1024,
		MaxSizeBytes: 4 * 1024 * 1024,
	}
}

const (
	startQuality = 90
	floorQuality = 50
	qualityStep  = 10
)

// Payload is a transport-ready base64 encoding of an image.
type Payload struct {
	Base64    string
	MediaType string
}

// DataURL renders the payload as an inline data URL.
func (p Payload) DataURL() string {
	return "data:" + p.MediaType + ";base64," + p.Base64
}

// Encode converts raw image bytes into a payload within cfg's size budget.
// Files already under the budget pass through untouched; larger files are
// downscaled to fit MaxWidth x MaxHeight and re-encoded, walking JPEG quality
// down from 0.9 to a floor of 0.5. The floor result is accepted even when it
// still exceeds the budget; the bound is best effort, not a guarantee.
func Encode(data []byte, mediaType string, cfg Config) (Payload, error) {
	if int64(len(data)) <= cfg.MaxSizeBytes {
		return Payload{
			Base64:    base64.StdEncoding.EncodeToString(data),
			MediaType: normalizeMediaType(mediaType),
		}, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Payload{}, apperrors.Wrap("decode_error", "failed to decode image", err)
	}

	width, height := fitDimensions(img.Bounds().Dx(), img.Bounds().Dy(), cfg.MaxWidth, cfg.MaxHeight)
	scaled := scale(img, width, height)

	if isPNG(mediaType) {
		var buf bytes.Buffer
		if err := png.Encode(&buf, scaled); err != nil {
			return Payload{}, apperrors.Wrap("encode_error", "failed to encode png", err)
		}
		return Payload{
			Base64:    base64.StdEncoding.EncodeToString(buf.Bytes()),
			MediaType: "image/png",
		}, nil
	}

	var encoded string
	for quality := startQuality; quality >= floorQuality; quality -= qualityStep {
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: quality}); err != nil {
			return Payload{}, apperrors.Wrap("encode_error", "failed to encode jpeg", err)
		}
		encoded = base64.StdEncoding.EncodeToString(buf.Bytes())
		if estimateBytes(encoded) <= cfg.MaxSizeBytes {
			break
		}
	}
	return Payload{Base64: encoded, MediaType: "image/jpeg"}, nil
}

// fitDimensions shrinks (w, h) preserving aspect ratio so that w <= maxW and
// h <= maxH, reducing the long edge first.
func fitDimensions(w, h, maxW, maxH int) (int, int) {
	if w > maxW {
		h = h * maxW / w
		w = maxW
	}
	if h > maxH {
		w = w * maxH / h
		h = maxH
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

func scale(src image.Image, width, height int) image.Image {
	if b := src.Bounds(); b.Dx() == width && b.Dy() == height {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Over, nil)
	return dst
}

// estimateBytes mirrors the client-side approximation ceil(base64Len * 3/4).
func estimateBytes(encoded string) int64 {
	return int64((len(encoded)*3 + 3) / 4)
}

func isPNG(mediaType string) bool {
	return strings.EqualFold(strings.TrimSpace(mediaType), "image/png")
}

func normalizeMediaType(mediaType string) string {
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	if mediaType == "" {
		return "image/jpeg"
	}
	return mediaType
}
