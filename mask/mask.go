// Package mask defines mask layers and the single channel bitmaps they
// rasterize to.
package mask

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
)

var _ = fmt.Print

// Mode controls how a sub-mask is combined with the sub-masks before it.
type Mode string

const (
	Additive    Mode = "additive"
	Subtractive Mode = "subtractive"
)

// ErrInvalidSubMask is returned when a sub-mask document is malformed.
var ErrInvalidSubMask = errors.New("mask: invalid sub-mask")

// SubMask is one primitive shape or algorithm contributing to a mask.
// Parameters are interpreted according to Type by a Rasterizer.
type SubMask struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Visible    bool            `json:"visible"`
	Invert     bool            `json:"invert"`
	Opacity    float64         `json:"opacity"`
	Mode       Mode            `json:"mode"`
	Parameters json.RawMessage `json:"parameters,omitempty"`
}

func (s *SubMask) UnmarshalJSON(data []byte) error {
	type plain SubMask
	p := plain{Visible: true, Opacity: 100, Mode: Additive}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if p.Type == "" {
		return fmt.Errorf("%w: missing type", ErrInvalidSubMask)
	}
	switch p.Mode {
	case Additive, Subtractive:
	case "":
		p.Mode = Additive
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidSubMask, p.Mode)
	}
	if p.Opacity < 0 || p.Opacity > 100 {
		return fmt.Errorf("%w: opacity %v out of range [0, 100]", ErrInvalidSubMask, p.Opacity)
	}
	*s = SubMask(p)
	return nil
}

// Definition is a named, orderable mask layer. Opacity is a percentage.
type Definition struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Visible     bool            `json:"visible"`
	Invert      bool            `json:"invert"`
	Opacity     float64         `json:"opacity"`
	Adjustments json.RawMessage `json:"adjustments,omitempty"`
	SubMasks    []SubMask       `json:"subMasks"`
}

// Offset is subtracted from scaled mask coordinates, typically the origin
// of a crop.
type Offset struct {
	X, Y float64
}

// Rasterizer renders a mask Definition into a width x height Bitmap. Shape
// coordinates in the definition are multiplied by scale and then shifted
// by -offset.
type Rasterizer interface {
	Rasterize(def *Definition, width, height int, scale float64, offset Offset) (*Bitmap, error)
}

// Bitmap is a single channel 8-bit grid of blend weights.
type Bitmap struct {
	// Pix holds one byte per pixel, row major, no padding.
	Pix           []uint8
	Width, Height int
}

func NewBitmap(width, height int) *Bitmap {
	return &Bitmap{Pix: make([]uint8, width*height), Width: width, Height: height}
}

func (b *Bitmap) Bounds() image.Rectangle { return image.Rect(0, 0, b.Width, b.Height) }

// Row returns the pixels of row y.
func (b *Bitmap) Row(y int) []uint8 {
	return b.Pix[y*b.Width : (y+1)*b.Width : (y+1)*b.Width]
}

// At returns the value at (x, y), zero outside the bitmap.
func (b *Bitmap) At(x, y int) uint8 {
	if x < 0 || x >= b.Width || y < 0 || y >= b.Height {
		return 0
	}
	return b.Pix[y*b.Width+x]
}

func (b *Bitmap) Set(x, y int, v uint8) {
	if x < 0 || x >= b.Width || y < 0 || y >= b.Height {
		return
	}
	b.Pix[y*b.Width+x] = v
}

func (b *Bitmap) Fill(v uint8) {
	for i := range b.Pix {
		b.Pix[i] = v
	}
}

func (b *Bitmap) Invert() {
	for i, v := range b.Pix {
		b.Pix[i] = 255 - v
	}
}

// Scale multiplies every value by f, which must be in [0, 1].
func (b *Bitmap) Scale(f float64) {
	if f >= 1 {
		return
	}
	for i, v := range b.Pix {
		b.Pix[i] = to8(float64(v) / 255 * f)
	}
}

// Union sets each value to the maximum of itself and the value in o.
func (b *Bitmap) Union(o *Bitmap) {
	for i, v := range o.Pix {
		b.Pix[i] = max(b.Pix[i], v)
	}
}

// Subtract attenuates each value by the corresponding weight in o.
func (b *Bitmap) Subtract(o *Bitmap) {
	for i, v := range o.Pix {
		b.Pix[i] = uint8((uint32(b.Pix[i])*uint32(255-v) + 127) / 255)
	}
}

func to8(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return uint8(v*255 + 0.5)
}
