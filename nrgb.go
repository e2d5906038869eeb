package imagecore

import (
	"fmt"
	"image"
	"image/color"

	"github.com/kovidgoyal/go-parallel"
)

var _ = fmt.Print

// NRGBColor is an opaque 24-bit color.
type NRGBColor struct {
	R, G, B uint8
}

func (c NRGBColor) String() string {
	return fmt.Sprintf("NRGBColor{%02X %02X %02X}", c.R, c.G, c.B)
}

func (c NRGBColor) RGBA() (r, g, b, a uint32) {
	r = uint32(c.R)
	r |= r << 8
	g = uint32(c.G)
	g |= g << 8
	b = uint32(c.B)
	b |= b << 8
	a = 0xffff
	return
}

// NRGB is an in-memory 3 channel image, used for patch color layers which
// carry no alpha of their own.
type NRGB struct {
	// Pix holds the image's pixels, in R, G, B order. The pixel at
	// (x, y) starts at Pix[(y-Rect.Min.Y)*Stride + (x-Rect.Min.X)*3].
	Pix []uint8
	// Stride is the Pix stride (in bytes) between vertically adjacent pixels.
	Stride int
	// Rect is the image's bounds.
	Rect image.Rectangle
}

func nrgbModel(c color.Color) color.Color {
	if _, ok := c.(NRGBColor); ok {
		return c
	}
	r, g, b, a := c.RGBA()
	switch a {
	case 0xffff:
	case 0:
		return NRGBColor{0, 0, 0}
	default:
		// Color.RGBA is alpha-premultiplied so r <= a && g <= a && b <= a
		r = (r * 0xffff) / a
		g = (g * 0xffff) / a
		b = (b * 0xffff) / a
	}
	return NRGBColor{round16(r), round16(g), round16(b)}
}

// round16 reduces a 16-bit channel to 8 bits rounding to nearest. 8-bit
// values widened by *0x101 map back exactly.
func round16(v uint32) uint8 {
	return uint8((v*255 + 32767) / 65535)
}

var NRGBModel color.Model = color.ModelFunc(nrgbModel)

func (p *NRGB) ColorModel() color.Model { return NRGBModel }

func (p *NRGB) Bounds() image.Rectangle { return p.Rect }

func (p *NRGB) At(x, y int) color.Color {
	return p.NRGBAt(x, y)
}

func (p *NRGB) NRGBAt(x, y int) NRGBColor {
	if !(image.Point{x, y}.In(p.Rect)) {
		return NRGBColor{}
	}
	i := p.PixOffset(x, y)
	s := p.Pix[i : i+3 : i+3] // Small cap improves performance, see https://golang.org/issue/27857
	return NRGBColor{s[0], s[1], s[2]}
}

// PixOffset returns the index of the first element of Pix that corresponds to
// the pixel at (x, y).
func (p *NRGB) PixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)*3
}

func (p *NRGB) Set(x, y int, c color.Color) {
	if !(image.Point{x, y}.In(p.Rect)) {
		return
	}
	i := p.PixOffset(x, y)
	c1 := NRGBModel.Convert(c).(NRGBColor)
	s := p.Pix[i : i+3 : i+3]
	s[0] = c1.R
	s[1] = c1.G
	s[2] = c1.B
}

// Opaque always reports true, NRGB has no alpha channel.
func (p *NRGB) Opaque() bool { return true }

func NewNRGB(r image.Rectangle) *NRGB {
	return &NRGB{
		Pix:    make([]uint8, 3*r.Dx()*r.Dy()),
		Stride: 3 * r.Dx(),
		Rect:   r,
	}
}

// ToNRGB returns a copy of img as an NRGB image with its origin at (0, 0).
// Alpha is discarded: straight (non-premultiplied) sources keep their
// stored color channels, premultiplied sources are unpremultiplied first.
func ToNRGB(img image.Image) (*NRGB, error) {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	d := NewNRGB(image.Rect(0, 0, width, height))
	if width == 0 || height == 0 {
		return d, nil
	}
	var f func(start, limit int)
	switch src := img.(type) {
	case *NRGB:
		f = func(start, limit int) {
			for y := start; y < limit; y++ {
				i := src.PixOffset(b.Min.X, b.Min.Y+y)
				copy(d.Pix[d.Stride*y:d.Stride*(y+1)], src.Pix[i:i+3*width])
			}
		}
	case *image.NRGBA:
		f = func(start, limit int) {
			for y := start; y < limit; y++ {
				row := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):]
				_ = row[4*(width-1)+3]
				drow := d.Pix[d.Stride*y : d.Stride*(y+1)]
				for x := range width {
					s, o := row[4*x:4*x+3:4*x+3], drow[3*x:3*x+3:3*x+3]
					o[0], o[1], o[2] = s[0], s[1], s[2]
				}
			}
		}
	default:
		f = func(start, limit int) {
			for y := start; y < limit; y++ {
				drow := d.Pix[d.Stride*y : d.Stride*(y+1)]
				for x := range width {
					c := nrgbModel(img.At(b.Min.X+x, b.Min.Y+y)).(NRGBColor)
					o := drow[3*x : 3*x+3 : 3*x+3]
					o[0], o[1], o[2] = c.R, c.G, c.B
				}
			}
		}
	}
	if err := parallel.Run_in_parallel_over_range(0, f, 0, height); err != nil {
		return nil, err
	}
	return d, nil
}
