// Package frameio converts encoded still images to meter frames and back.
//
// Browsers upload whatever canvas.toBlob produced (JPEG, PNG or WebP), and the
// remote client may send files straight from disk, so the common formats are
// all registered here.
package frameio

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // Register GIF decoder.
	"image/jpeg"
	_ "image/png" // Register PNG decoder.
	"io"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp"  // Register BMP decoder.
	_ "golang.org/x/image/tiff" // Register TIFF decoder.
	_ "golang.org/x/image/webp" // Register WebP decoder.

	"github.com/teslashibe/go-filmmeter/pkg/meter"
)

var (
	// ErrEmptyImage is returned when there are no bytes to decode.
	ErrEmptyImage = errors.New("frameio: empty image")

	// ErrUnsupportedFormat is returned when no registered decoder matches.
	ErrUnsupportedFormat = errors.New("frameio: unsupported image format")

	// ErrInvalidImage is returned when the format is known but the data is
	// truncated or corrupt.
	ErrInvalidImage = errors.New("frameio: invalid image data")
)

// DefaultQuality is the JPEG quality used when callers pass 0.
const DefaultQuality = 80

// Decode reads one image from r and returns it as a frame plus the format name.
func Decode(r io.Reader) (*meter.Frame, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, "", ErrUnsupportedFormat
		}
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return meter.FromImage(img), format, nil
}

// DecodeBytes decodes an in-memory image.
func DecodeBytes(data []byte) (*meter.Frame, string, error) {
	if len(data) == 0 {
		return nil, "", ErrEmptyImage
	}
	return Decode(bytes.NewReader(data))
}

// Preview scales img down to maxWidth, keeping the aspect ratio.
// Images already narrow enough, or maxWidth <= 0, are returned unchanged.
func Preview(img image.Image, maxWidth int) image.Image {
	if maxWidth <= 0 || img.Bounds().Dx() <= maxWidth {
		return img
	}
	return resize.Resize(uint(maxWidth), 0, img, resize.Lanczos3)
}

// EncodeJPEG writes img as JPEG.
func EncodeJPEG(w io.Writer, img image.Image, quality int) error {
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}
	return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
}

// PreviewJPEG downsizes the frame for display and encodes it as JPEG.
func PreviewJPEG(f *meter.Frame, maxWidth, quality int) ([]byte, error) {
	if !f.Ready() {
		return nil, meter.ErrFrameNotReady
	}
	var buf bytes.Buffer
	if err := EncodeJPEG(&buf, Preview(f.Image(), maxWidth), quality); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Mirror returns a horizontally flipped copy of f.
func Mirror(f *meter.Frame) *meter.Frame {
	if !f.Ready() {
		return f
	}
	out := meter.NewFrame(f.Width, f.Height)
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			r, g, b := f.RGBAt(x, y)
			out.SetRGB(f.Width-1-x, y, r, g, b)
		}
	}
	return out
}
