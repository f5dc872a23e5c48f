// Package imageproc decodes uploaded images, corrects their orientation and
// renders resized variants of them.
package imageproc

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	// Decoders for formats that are inspected but never accepted.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/disintegration/imaging"
)

var (
	// ErrUnsupportedImage is returned when no registered decoder recognizes the data.
	ErrUnsupportedImage = errors.New("unsupported image")
	// ErrCorruptImage is returned when the format is recognized but the image
	// dimensions or pixels cannot be read.
	ErrCorruptImage = errors.New("corrupt image")
	// ErrTooLarge is returned when the image has more than MaxPixels pixels.
	ErrTooLarge = errors.New("image too large")
	// ErrRender is returned when a variant cannot be resized or encoded.
	ErrRender = errors.New("render variant")
)

// MaxPixels bounds the width*height of images that get decoded.
const MaxPixels = 50_000_000

// Format is the decoder name reported by the image package ("jpeg", "png", ...).
type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
	FormatGIF  Format = "gif"
	FormatBMP  Format = "bmp"
	FormatTIFF Format = "tiff"
	FormatWebP Format = "webp"
)

// encoders lists the formats a variant can be written back in.
var encoders = map[Format]imaging.Format{
	FormatJPEG: imaging.JPEG,
	FormatPNG:  imaging.PNG,
	FormatGIF:  imaging.GIF,
	FormatBMP:  imaging.BMP,
	FormatTIFF: imaging.TIFF,
}

// Image is a decoded, orientation-corrected image.
type Image struct {
	Pixels image.Image
	Format Format
	// Orientation is the EXIF orientation after correction: 1 when a
	// rotation was applied, otherwise whatever the source carried (0 if none).
	Orientation int
}

// Info describes an image without its pixel data.
type Info struct {
	Format Format
	Width  int
	Height int
}

// Decode decodes data and applies orientation correction. Images above
// MaxPixels are rejected from their header alone. data is never modified.
func Decode(data []byte) (*Image, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, ErrUnsupportedImage
		}
		return nil, fmt.Errorf("%w: %v", ErrCorruptImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrCorruptImage, cfg.Width, cfg.Height)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrTooLarge, cfg.Width, cfg.Height)
	}

	pixels, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptImage, err)
	}

	pixels, orientation := reorient(pixels, readOrientation(data))
	return &Image{Pixels: pixels, Format: Format(format), Orientation: orientation}, nil
}

// Inspect reports the format and the orientation-corrected dimensions of data.
func Inspect(data []byte) (Info, error) {
	img, err := Decode(data)
	if err != nil {
		return Info{}, err
	}
	b := img.Pixels.Bounds()
	return Info{Format: img.Format, Width: b.Dx(), Height: b.Dy()}, nil
}

// Encode writes img in the given format. quality applies to JPEG only.
func Encode(img image.Image, format Format, quality int) ([]byte, error) {
	f, ok := encoders[format]
	if !ok {
		return nil, fmt.Errorf("%w: no encoder for %q", ErrRender, format)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, f, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("%w: encode %s: %v", ErrRender, format, err)
	}
	return buf.Bytes(), nil
}

// ContentTypeFor maps a decoded format to the content type stored on a record.
// Formats without a supported content type yield "unknown (<format>)".
func ContentTypeFor(format Format) string {
	switch format {
	case FormatJPEG:
		return "image/jpeg"
	case FormatGIF:
		return "image/gif"
	case FormatPNG:
		return "image/png"
	default:
		return fmt.Sprintf("unknown (%s)", format)
	}
}
