package imageproc

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidGeometry is returned for geometry strings other than "WxH" or "WxH>".
var ErrInvalidGeometry = errors.New("invalid geometry")

// Geometry is a bounding box an image is resized into.
type Geometry struct {
	Width  int
	Height int
	// ShrinkOnly prevents images smaller than the box from being enlarged.
	ShrinkOnly bool
}

// ParseGeometry parses "WxH", optionally suffixed with ">" for shrink-only.
func ParseGeometry(s string) (Geometry, error) {
	var g Geometry
	spec := strings.TrimSpace(s)
	if strings.HasSuffix(spec, ">") {
		g.ShrinkOnly = true
		spec = strings.TrimSuffix(spec, ">")
	}

	w, h, ok := strings.Cut(spec, "x")
	if !ok {
		return Geometry{}, fmt.Errorf("%w: %q", ErrInvalidGeometry, s)
	}
	var err error
	if g.Width, err = strconv.Atoi(w); err != nil || g.Width <= 0 {
		return Geometry{}, fmt.Errorf("%w: %q", ErrInvalidGeometry, s)
	}
	if g.Height, err = strconv.Atoi(h); err != nil || g.Height <= 0 {
		return Geometry{}, fmt.Errorf("%w: %q", ErrInvalidGeometry, s)
	}
	return g, nil
}

// MustParseGeometry is like ParseGeometry but panics on error.
func MustParseGeometry(s string) Geometry {
	g, err := ParseGeometry(s)
	if err != nil {
		panic(err)
	}
	return g
}

func (g Geometry) String() string {
	s := fmt.Sprintf("%dx%d", g.Width, g.Height)
	if g.ShrinkOnly {
		s += ">"
	}
	return s
}

// Oriented swaps the box for portrait sources (height > width) so the long
// edge of the box always bounds the long edge of the image.
func (g Geometry) Oriented(width, height int) Geometry {
	if height > width {
		g.Width, g.Height = g.Height, g.Width
	}
	return g
}

// Fit returns the dimensions of a width x height image scaled to fit inside
// the box with its aspect ratio preserved.
func (g Geometry) Fit(width, height int) (int, int) {
	if width <= 0 || height <= 0 {
		return width, height
	}
	scale := math.Min(float64(g.Width)/float64(width), float64(g.Height)/float64(height))
	if g.ShrinkOnly && scale >= 1 {
		return width, height
	}
	w := max(1, int(math.Round(float64(width)*scale)))
	h := max(1, int(math.Round(float64(height)*scale)))
	return w, h
}
