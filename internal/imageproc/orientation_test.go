package imageproc

import (
	"bytes"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRotatesQuarterTurns(t *testing.T) {
	base := encodeSample(t, FormatJPEG, 80, 40)

	tests := []struct {
		name        string
		orientation uint16
		// corner where the red top-left quadrant ends up
		redX, redY func(w, h int) int
	}{
		{
			name:        "right top rotates clockwise",
			orientation: OrientationRightTop,
			redX:        func(w, _ int) int { return w - 2 },
			redY:        func(_, _ int) int { return 1 },
		},
		{
			name:        "left bottom rotates counter-clockwise",
			orientation: OrientationLeftBottom,
			redX:        func(_, _ int) int { return 1 },
			redY:        func(_, h int) int { return h - 2 },
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			img, err := Decode(withOrientation(t, base, tc.orientation))
			require.NoError(t, err)

			b := img.Pixels.Bounds()
			assert.Equal(t, 40, b.Dx())
			assert.Equal(t, 80, b.Dy())
			assert.Equal(t, OrientationTopLeft, img.Orientation)
			assert.True(t, isRed(img.Pixels.At(tc.redX(b.Dx(), b.Dy()), tc.redY(b.Dx(), b.Dy()))))
			assert.False(t, isRed(img.Pixels.At(1, 1)))
		})
	}
}

func TestDecodeLeavesOtherOrientations(t *testing.T) {
	base := encodeSample(t, FormatJPEG, 80, 40)
	baseline, err := imaging.Decode(bytes.NewReader(base))
	require.NoError(t, err)

	tests := []struct {
		name string
		data []byte
		want int
	}{
		{name: "absent", data: base, want: 0},
		{name: "upright", data: withOrientation(t, base, OrientationTopLeft), want: 1},
		{name: "upside down", data: withOrientation(t, base, 3), want: 3},
		{name: "mirrored", data: withOrientation(t, base, 2), want: 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			img, err := Decode(tc.data)
			require.NoError(t, err)
			assert.Equal(t, tc.want, img.Orientation)
			assert.Equal(t, baseline, img.Pixels)

			normalized, err := NormalizeOrientation(tc.data)
			require.NoError(t, err)
			assert.Equal(t, tc.data, normalized)
		})
	}
}

func TestNormalizeOrientationRewritesRotated(t *testing.T) {
	data := withOrientation(t, encodeSample(t, FormatJPEG, 60, 30), OrientationRightTop)

	normalized, err := NormalizeOrientation(data)
	require.NoError(t, err)
	assert.Equal(t, 0, readOrientation(normalized))

	info, err := Inspect(normalized)
	require.NoError(t, err)
	assert.Equal(t, 30, info.Width)
	assert.Equal(t, 60, info.Height)
}

func TestNormalizeOrientationIgnoresNonJPEG(t *testing.T) {
	data := encodeSample(t, FormatPNG, 10, 20)

	normalized, err := NormalizeOrientation(data)
	require.NoError(t, err)
	assert.Equal(t, data, normalized)
}
