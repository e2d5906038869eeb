package lut

import (
	"fmt"
	"image"
	"image/color"

	"github.com/kovidgoyal/go-parallel"
)

// ParseHald converts a HALD CLUT image into a Grid. The image must be
// square with a pixel count that is a perfect cube. Pixels are read in
// raster order, each 8-bit channel normalized by 255. Deeper sources are
// first rounded to the nearest 8-bit value.
func ParseHald(img image.Image) (*Grid, error) {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	if width != height {
		return nil, fmt.Errorf("%w, got %dx%d", ErrNotSquare, width, height)
	}
	total := width * height
	size, ok := cubeRoot(total)
	if !ok || total == 0 {
		return nil, fmt.Errorf("%w: invalid HALD image dimensions, total pixels (%d)", ErrNotCubic, total)
	}
	data := make([]float32, total*3)
	var f func(start, limit int)
	switch src := img.(type) {
	case *image.NRGBA:
		f = func(start, limit int) {
			for y := start; y < limit; y++ {
				i := src.PixOffset(b.Min.X, b.Min.Y+y)
				row := src.Pix[i : i+4*width]
				out := data[3*width*y : 3*width*(y+1)]
				for x := range width {
					out[3*x] = float32(row[4*x]) / 255
					out[3*x+1] = float32(row[4*x+1]) / 255
					out[3*x+2] = float32(row[4*x+2]) / 255
				}
			}
		}
	default:
		f = func(start, limit int) {
			for y := start; y < limit; y++ {
				out := data[3*width*y : 3*width*(y+1)]
				for x := range width {
					c := color.NRGBA64Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA64)
					out[3*x] = float32(round16(c.R)) / 255
					out[3*x+1] = float32(round16(c.G)) / 255
					out[3*x+2] = float32(round16(c.B)) / 255
				}
			}
		}
	}
	if err := parallel.Run_in_parallel_over_range(0, f, 0, height); err != nil {
		return nil, err
	}
	g := &Grid{Size: size, Data: data}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

func round16(v uint16) uint8 {
	return uint8((uint32(v)*255 + 32767) / 65535)
}
