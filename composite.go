package imagecore

import (
	"bytes"
	"fmt"
	"image"
	"math"

	"github.com/kovidgoyal/go-parallel"
	"github.com/lumenraw/imagecore/logging"
	"github.com/lumenraw/imagecore/mask"
	"github.com/lumenraw/imagecore/patch"
)

type compositeConfig struct {
	rasterizer  mask.Rasterizer
	decode_opts []DecodeOption
}

// CompositeOption sets an optional parameter for CompositePatches and
// LoadAndComposite.
type CompositeOption func(*compositeConfig)

// WithRasterizer returns a CompositeOption that sets the rasterizer used to
// turn patch masks into bitmaps. Defaults to mask.Shapes.
func WithRasterizer(r mask.Rasterizer) CompositeOption {
	return func(c *compositeConfig) {
		if r != nil {
			c.rasterizer = r
		}
	}
}

// WithDecodeOptions returns a CompositeOption that passes opts to the base
// image decoder in LoadAndComposite.
func WithDecodeOptions(opts ...DecodeOption) CompositeOption {
	return func(c *compositeConfig) {
		c.decode_opts = append(c.decode_opts, opts...)
	}
}

func newCompositeConfig(opts []CompositeOption) compositeConfig {
	cfg := compositeConfig{rasterizer: mask.Shapes{}}
	for _, option := range opts {
		option(&cfg)
	}
	return cfg
}

// LoadAndComposite loads the base image from data, see LoadBaseImage, and
// composites the patches of the adjustments document onto it.
func LoadAndComposite(data []byte, path string, adjustments []byte, fastRaw bool, opts ...CompositeOption) (image.Image, error) {
	cfg := newCompositeConfig(opts)
	base, err := LoadBaseImage(data, path, fastRaw, cfg.decode_opts...)
	if err != nil {
		return nil, err
	}
	return CompositePatches(base, adjustments, opts...)
}

// CompositePatches blends the visible patches in the "aiPatches" array of
// the JSON adjustments document onto base, in document order. When there
// is nothing to composite base itself is returned. Otherwise the result is
// a new *image.NRGBA and base is left untouched.
func CompositePatches(base image.Image, adjustments []byte, opts ...CompositeOption) (image.Image, error) {
	patches, err := patch.ParseAll(adjustments)
	if err != nil {
		return nil, fmt.Errorf("failed to read patches from adjustments: %w", err)
	}
	if len(patches) == 0 {
		return base, nil
	}
	return Composite(base, patches, opts...)
}

// Composite blends patches onto a copy of base, one after another, each
// patch blending over the result of the previous ones.
func Composite(base image.Image, patches []*patch.Patch, opts ...CompositeOption) (*image.NRGBA, error) {
	cfg := newCompositeConfig(opts)
	canvas, err := ToNRGBA(base)
	if err != nil {
		return nil, err
	}
	log := logging.Logger()
	log.Debug("compositing patches", "count", len(patches), "width", canvas.Rect.Dx(), "height", canvas.Rect.Dy())
	for i, p := range patches {
		if err = composite_patch(canvas, p, &cfg); err != nil {
			return nil, err
		}
		log.Debug("composited patch", "index", i, "id", p.ID, "name", p.Name)
	}
	return canvas, nil
}

func composite_patch(canvas *image.NRGBA, p *patch.Patch, cfg *compositeConfig) error {
	width, height := canvas.Rect.Dx(), canvas.Rect.Dy()
	m, err := cfg.rasterizer.Rasterize(p.Mask(), width, height, 1, mask.Offset{})
	if err != nil {
		return fmt.Errorf("failed to generate mask for patch %q: %w", p.ID, err)
	}
	data, err := p.ColorBytes()
	if err != nil {
		return err
	}
	decoded, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to decode color image of patch %q: %w", p.ID, err)
	}
	color_img, err := ToNRGB(decoded)
	if err != nil {
		return err
	}
	if pw, ph := color_img.Rect.Dx(), color_img.Rect.Dy(); pw != width || ph != height {
		logging.Logger().Debug("resizing patch", "id", p.ID, "from", fmt.Sprintf("%dx%d", pw, ph), "to", fmt.Sprintf("%dx%d", width, height))
		if color_img, err = ToNRGB(Resize(color_img, width, height)); err != nil {
			return err
		}
	}
	if err = BlendMasked(canvas, color_img, m); err != nil {
		return fmt.Errorf("failed to blend patch %q: %w", p.ID, err)
	}
	return nil
}

// blend8 mixes a patch channel over a base channel. The products are
// converted explicitly so they are rounded to float32 before the sum and
// never fused, keeping results identical across platforms. Halves round
// away from zero.
func blend8(p, b uint8, alpha float32) uint8 {
	v := float32(float32(p)*alpha) + float32(float32(b)*(1-alpha))
	return uint8(min(max(math.Round(float64(v)), 0), 255))
}

// BlendMasked blends src over the color channels of dst using m as the per
// pixel weight, alpha = m/255. Pixels with zero weight are not touched and
// the alpha channel of dst is never modified. Rows are processed in
// parallel. All three must have the same dimensions.
func BlendMasked(dst *image.NRGBA, src *NRGB, m *mask.Bitmap) error {
	width, height := dst.Rect.Dx(), dst.Rect.Dy()
	if src.Rect.Dx() != width || src.Rect.Dy() != height || m.Width != width || m.Height != height {
		return fmt.Errorf("blend size mismatch: canvas %dx%d, patch %dx%d, mask %dx%d",
			width, height, src.Rect.Dx(), src.Rect.Dy(), m.Width, m.Height)
	}
	if width == 0 || height == 0 {
		return nil
	}
	return parallel.Run_in_parallel_over_range(0, func(start, limit int) {
		for y := start; y < limit; y++ {
			drow := dst.Pix[dst.PixOffset(dst.Rect.Min.X, dst.Rect.Min.Y+y):]
			srow := src.Pix[src.PixOffset(src.Rect.Min.X, src.Rect.Min.Y+y):]
			_, _ = drow[4*(width-1)+3], srow[3*(width-1)+2]
			for x, mv := range m.Row(y) {
				if mv == 0 {
					continue
				}
				alpha := float32(mv) / 255
				d, s := drow[4*x:4*x+3:4*x+3], srow[3*x:3*x+3:3*x+3]
				d[0] = blend8(s[0], d[0], alpha)
				d[1] = blend8(s[1], d[1], alpha)
				d[2] = blend8(s[2], d[2], alpha)
			}
		}
	}, 0, height)
}
