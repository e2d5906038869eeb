package imagecore

import (
	"fmt"
	"image"
	"image/color"
	"testing"

	"github.com/lumenraw/imagecore/internal/fixture"
	"github.com/stretchr/testify/require"
)

var _ = fmt.Print

func TestToNRGBA(t *testing.T) {
	src := fixture.Gradient(9, 4)
	src.Pix[7] = 10

	for name, img := range map[string]image.Image{
		"nrgba": src,
		"sub":   src.SubImage(image.Rect(3, 1, 9, 4)),
	} {
		t.Run(name, func(t *testing.T) {
			b := img.Bounds()
			got, err := ToNRGBA(img)
			require.NoError(t, err)
			require.Equal(t, image.Rect(0, 0, b.Dx(), b.Dy()), got.Rect)
			for y := range b.Dy() {
				for x := range b.Dx() {
					require.Equal(t, src.NRGBAAt(b.Min.X+x, b.Min.Y+y), got.NRGBAAt(x, y))
				}
			}
			got.Pix[0]++
			require.NotEqual(t, got.Pix[0], src.Pix[src.PixOffset(b.Min.X, b.Min.Y)])
		})
	}

	nrgb, err := ToNRGB(src)
	require.NoError(t, err)
	back, err := ToNRGBA(nrgb)
	require.NoError(t, err)
	require.Equal(t, color.NRGBA{src.Pix[4], src.Pix[5], src.Pix[6], 255}, back.NRGBAAt(1, 0))

	gray := image.NewGray(image.Rect(5, 5, 8, 7))
	gray.SetGray(6, 6, color.Gray{200})
	g, err := ToNRGBA(gray)
	require.NoError(t, err)
	require.Equal(t, color.NRGBA{200, 200, 200, 255}, g.NRGBAAt(1, 1))
	require.Equal(t, color.NRGBA{0, 0, 0, 255}, g.NRGBAAt(0, 0))
}

func TestToNRGBA16Bit(t *testing.T) {
	src := image.NewNRGBA64(image.Rect(1, 1, 3, 2))
	src.SetNRGBA64(1, 1, color.NRGBA64{0x00ff, 0x7f80, 0xffff, 0xff7f})
	src.SetNRGBA64(2, 1, color.NRGBA64{0x8080, 0, 0x0101, 0})
	got, err := ToNRGBA(src)
	require.NoError(t, err)
	require.Equal(t, []uint8{1, 127, 255, 255, 128, 0, 1, 0}, got.Pix)

	gray := image.NewGray16(image.Rect(0, 0, 1, 1))
	gray.SetGray16(0, 0, color.Gray16{0x01ff})
	got, err = ToNRGBA(gray)
	require.NoError(t, err)
	require.Equal(t, []uint8{2, 2, 2, 255}, got.Pix)
}

func TestResize(t *testing.T) {
	c := color.NRGBA{30, 60, 90, 255}
	for _, size := range []image.Point{{1, 1}, {5, 3}, {64, 17}} {
		t.Run(fmt.Sprint(size), func(t *testing.T) {
			out := Resize(fixture.Solid(10, 6, c), size.X, size.Y)
			require.Equal(t, image.Rect(0, 0, size.X, size.Y), out.Rect)
			for i := 0; i < len(out.Pix); i += 4 {
				require.InDelta(t, c.R, out.Pix[i], 1)
				require.InDelta(t, c.G, out.Pix[i+1], 1)
				require.InDelta(t, c.B, out.Pix[i+2], 1)
			}
		})
	}
	require.True(t, Resize(fixture.Solid(2, 2, c), 0, 4).Rect.Empty())
}
