package imageproc

import (
	"bytes"
	"image"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
)

// EXIF orientation values.
const (
	OrientationTopLeft    = 1
	OrientationRightTop   = 6
	OrientationLeftBottom = 8
)

// normalizeQuality is used when a rotated JPEG has to be written back.
const normalizeQuality = 95

// NormalizeOrientation returns data with the pixels rotated upright when its
// EXIF orientation is one of the two 90° states. The rewritten image carries
// no EXIF block, which reads as upright. All other inputs, including those
// without EXIF, are returned as-is.
func NormalizeOrientation(data []byte) ([]byte, error) {
	switch readOrientation(data) {
	case OrientationLeftBottom, OrientationRightTop:
	default:
		return data, nil
	}

	img, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return Encode(img.Pixels, img.Format, normalizeQuality)
}

// reorient corrects LeftBottom and RightTop only. 180° and mirrored states
// are left alone.
func reorient(img image.Image, orientation int) (image.Image, int) {
	switch orientation {
	case OrientationLeftBottom:
		return imaging.Rotate90(img), OrientationTopLeft
	case OrientationRightTop:
		return imaging.Rotate270(img), OrientationTopLeft
	default:
		return img, orientation
	}
}

// readOrientation returns the EXIF orientation tag, or 0 when there is none.
func readOrientation(data []byte) int {
	x, err := exif.Decode(bytes.NewReader(data))
	if x == nil || (err != nil && exif.IsCriticalError(err)) {
		return 0
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 0
	}
	v, err := tag.Int(0)
	if err != nil {
		return 0
	}
	return v
}
