package imageproc

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"
)

// VariantQuality is the lossy quality every variant is encoded at.
const VariantQuality = 65

// Render decodes original, fits it into g (swapped for portrait sources) and
// encodes the result in the original's format.
func Render(original []byte, g Geometry) ([]byte, error) {
	img, err := Decode(original)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRender, err)
	}
	return render(img, g)
}

// render resizes an already decoded image. img is only read, so one decode
// can serve concurrent renders.
func render(img *Image, g Geometry) ([]byte, error) {
	b := img.Pixels.Bounds()
	w, h := g.Oriented(b.Dx(), b.Dy()).Fit(b.Dx(), b.Dy())

	pixels := img.Pixels
	if w != b.Dx() || h != b.Dy() {
		pixels = imaging.Resize(img.Pixels, w, h, imaging.Lanczos)
	}
	return Encode(pixels, img.Format, VariantQuality)
}

// RenderAll decodes original once and renders every named geometry
// concurrently. Either every variant is returned or none is: the first
// failure cancels the rest.
func RenderAll(ctx context.Context, original []byte, sizes map[string]Geometry) (map[string][]byte, error) {
	img, err := Decode(original)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRender, err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	var mu sync.Mutex
	out := make(map[string][]byte, len(sizes))

	for name, geometry := range sizes {
		name, geometry := name, geometry
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := render(img, geometry)
			if err != nil {
				return fmt.Errorf("variant %q: %w", name, err)
			}
			mu.Lock()
			out[name] = data
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
