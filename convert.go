package imagecore

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/gift"
	"github.com/kovidgoyal/go-parallel"
)

var _ = fmt.Print

// ToNRGBA returns a newly allocated copy of img as a non-premultiplied
// RGBA image with its origin at (0, 0). Images without alpha become fully
// opaque. 16-bit sources are rounded to the nearest 8-bit value.
func ToNRGBA(img image.Image) (*image.NRGBA, error) {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	d := image.NewNRGBA(image.Rect(0, 0, width, height))
	if width == 0 || height == 0 {
		return d, nil
	}
	var f func(start, limit int)
	switch src := img.(type) {
	case *image.NRGBA:
		f = func(start, limit int) {
			for y := start; y < limit; y++ {
				i := src.PixOffset(b.Min.X, b.Min.Y+y)
				copy(d.Pix[d.Stride*y:d.Stride*(y+1)], src.Pix[i:i+4*width])
			}
		}
	case *NRGB:
		f = func(start, limit int) {
			for y := start; y < limit; y++ {
				row := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):]
				_ = row[3*(width-1)+2]
				drow := d.Pix[d.Stride*y : d.Stride*(y+1)]
				for x := range width {
					s, o := row[3*x:3*x+3:3*x+3], drow[4*x:4*x+4:4*x+4]
					o[0], o[1], o[2], o[3] = s[0], s[1], s[2], 0xff
				}
			}
		}
	case *image.RGBA64, *image.NRGBA64, *image.Gray16:
		f = func(start, limit int) {
			for y := start; y < limit; y++ {
				drow := d.Pix[d.Stride*y : d.Stride*(y+1)]
				for x := range width {
					c := color.NRGBA64Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA64)
					o := drow[4*x : 4*x+4 : 4*x+4]
					o[0], o[1], o[2], o[3] = round16(uint32(c.R)), round16(uint32(c.G)), round16(uint32(c.B)), round16(uint32(c.A))
				}
			}
		}
	default:
		f = func(start, limit int) {
			r := image.Rect(0, start, width, limit)
			draw.Draw(d, r, img, image.Pt(b.Min.X, b.Min.Y+start), draw.Src)
		}
	}
	if err := parallel.Run_in_parallel_over_range(0, f, 0, height); err != nil {
		return nil, err
	}
	return d, nil
}

// Resize scales img to exactly width x height using Lanczos resampling,
// ignoring the aspect ratio.
func Resize(img image.Image, width, height int) *image.NRGBA {
	if width <= 0 || height <= 0 {
		return image.NewNRGBA(image.Rect(0, 0, 0, 0))
	}
	g := gift.New(gift.Resize(width, height, gift.LanczosResampling))
	dst := image.NewNRGBA(g.Bounds(img.Bounds()))
	g.Draw(dst, img)
	return dst
}
