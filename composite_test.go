package imagecore

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/lumenraw/imagecore/internal/fixture"
	"github.com/lumenraw/imagecore/mask"
	"github.com/lumenraw/imagecore/patch"
	"github.com/stretchr/testify/require"
)

var _ = fmt.Print

// constant_mask rasterizes every definition to a single value.
type constant_mask uint8

func (c constant_mask) Rasterize(def *mask.Definition, width, height int, scale float64, offset mask.Offset) (*mask.Bitmap, error) {
	b := mask.NewBitmap(width, height)
	b.Fill(uint8(c))
	return b, nil
}

var errRasterizer = errors.New("rasterizer failure")

type failing_mask struct{}

func (failing_mask) Rasterize(*mask.Definition, int, int, float64, mask.Offset) (*mask.Bitmap, error) {
	return nil, errRasterizer
}

type recording_mask struct {
	calls []string
	scale []float64
}

func (r *recording_mask) Rasterize(def *mask.Definition, width, height int, scale float64, offset mask.Offset) (*mask.Bitmap, error) {
	r.calls = append(r.calls, def.ID)
	r.scale = append(r.scale, scale)
	if !def.Visible || def.Opacity != 100 || def.Adjustments != nil || offset != (mask.Offset{}) {
		return nil, fmt.Errorf("unexpected mask definition: %#v", def)
	}
	b := mask.NewBitmap(width, height)
	b.Fill(255)
	return b, nil
}

func patch_json(id string, img image.Image, extra string) string {
	color := ""
	if img != nil {
		color = fixture.Base64PNG(img)
	}
	return fmt.Sprintf(`{"id":%q,"name":"patch %s","subMasks":[{"id":"s","type":"all"}],"patchData":{"color":%q}%s}`, id, id, color, extra)
}

func doc(patches ...string) []byte {
	return []byte(`{"aiPatches":[` + strings.Join(patches, ",") + `]}`)
}

// base_image has varying alpha to check that it is preserved.
func base_image() *image.NRGBA {
	img := fixture.Gradient(12, 9)
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = uint8(i * 7)
	}
	return img
}

func clone(img *image.NRGBA) *image.NRGBA {
	c := *img
	c.Pix = append([]uint8(nil), img.Pix...)
	return &c
}

func TestCompositeNothingToDo(t *testing.T) {
	base := base_image()
	for _, d := range []string{
		`{}`,
		`{"aiPatches": []}`,
		`{"aiPatches": null}`,
		`{"aiPatches": {"id": "x"}}`,
		`{"aiPatches": [{"id": "a", "name": "a", "patchData": {"color": ""}}]}`,
		`{"aiPatches": [{"id": "a", "name": "a"}]}`,
	} {
		t.Run(d, func(t *testing.T) {
			out, err := CompositePatches(base, []byte(d))
			require.NoError(t, err)
			require.Same(t, base, out)
		})
	}
}

func TestCompositeHiddenPatch(t *testing.T) {
	base := base_image()
	red := fixture.Solid(12, 9, color.NRGBA{255, 0, 0, 255})
	out, err := CompositePatches(base, doc(patch_json("a", red, `,"visible":false`)), WithRasterizer(constant_mask(255)))
	require.NoError(t, err)
	require.Same(t, base, out)

	// a hidden patch next to a visible one has no effect either
	orig := clone(base)
	out, err = CompositePatches(base, doc(patch_json("a", red, `,"visible":false`), patch_json("b", red, "")), WithRasterizer(constant_mask(0)))
	require.NoError(t, err)
	require.Equal(t, orig.Pix, out.(*image.NRGBA).Pix)
}

func TestCompositeZeroMask(t *testing.T) {
	base := base_image()
	orig := clone(base)
	green := fixture.Solid(12, 9, color.NRGBA{0, 255, 0, 255})
	for name, r := range map[string]mask.Rasterizer{"constant": constant_mask(0), "shapes": mask.Shapes{}} {
		t.Run(name, func(t *testing.T) {
			p := `{"id":"z","name":"zero","subMasks":[],"patchData":{"color":"` + fixture.Base64PNG(green) + `"}}`
			out, err := CompositePatches(base, doc(p), WithRasterizer(r))
			require.NoError(t, err)
			require.NotSame(t, base, out)
			require.Equal(t, orig.Pix, out.(*image.NRGBA).Pix)
			require.Equal(t, orig.Pix, base.Pix)
		})
	}
}

func TestCompositeFullMaskSolidColor(t *testing.T) {
	base := base_image()
	orig := clone(base)
	c := color.NRGBA{17, 130, 250, 255}
	for name, size := range map[string]image.Point{"same size": {12, 9}, "smaller": {3, 2}, "larger": {40, 31}} {
		t.Run(name, func(t *testing.T) {
			out_any, err := CompositePatches(base, doc(patch_json("p", fixture.Solid(size.X, size.Y, c), "")))
			require.NoError(t, err)
			out := out_any.(*image.NRGBA)
			require.Equal(t, base.Bounds(), out.Bounds())
			for i := 0; i < len(out.Pix); i += 4 {
				require.InDelta(t, c.R, out.Pix[i], 1)
				require.InDelta(t, c.G, out.Pix[i+1], 1)
				require.InDelta(t, c.B, out.Pix[i+2], 1)
				require.Equal(t, orig.Pix[i+3], out.Pix[i+3])
			}
			if size == (image.Point{12, 9}) {
				for i := 0; i < len(out.Pix); i += 4 {
					require.Equal(t, []uint8{c.R, c.G, c.B}, out.Pix[i:i+3])
				}
			}
		})
	}
	require.Equal(t, orig.Pix, base.Pix)
}

func TestCompositeOrder(t *testing.T) {
	base := base_image()
	red := fixture.Solid(12, 9, color.NRGBA{255, 0, 0, 255})
	blue := fixture.Solid(12, 9, color.NRGBA{0, 0, 255, 255})
	r := &recording_mask{}
	out, err := CompositePatches(base, doc(patch_json("first", red, ""), patch_json("second", blue, "")), WithRasterizer(r))
	require.NoError(t, err)
	require.Equal(t, []string{"first", "second"}, r.calls)
	require.Equal(t, []float64{1, 1}, r.scale)
	require.Equal(t, color.NRGBA{0, 0, 255, base.Pix[3]}, out.(*image.NRGBA).NRGBAAt(0, 0))
}

func TestCompositePartialMask(t *testing.T) {
	base := fixture.Solid(4, 4, color.NRGBA{0, 100, 200, 255})
	white := fixture.Solid(4, 4, color.NRGBA{255, 255, 255, 255})
	out, err := CompositePatches(base, doc(patch_json("p", white, "")), WithRasterizer(constant_mask(128)))
	require.NoError(t, err)
	// 255*a + 0*(1-a) = 128, 255*a + 100*(1-a) = 177.8, 255*a + 200*(1-a) = 227.6
	require.Equal(t, color.NRGBA{128, 178, 228, 255}, out.(*image.NRGBA).NRGBAAt(2, 2))
}

func TestBlend8Rounding(t *testing.T) {
	require.Equal(t, uint8(1), blend8(1, 0, 0.5))
	require.Equal(t, uint8(3), blend8(5, 0, 0.5))
	require.Equal(t, uint8(2), blend8(3, 0, 0.5))
	require.Equal(t, uint8(255), blend8(255, 255, 1))
	require.Equal(t, uint8(7), blend8(200, 7, 0))
}

func TestCompositeMaskFromShapes(t *testing.T) {
	base := fixture.Solid(20, 20, color.NRGBA{0, 0, 0, 255})
	white := fixture.Solid(20, 20, color.NRGBA{255, 255, 255, 255})
	p := fmt.Sprintf(`{"id":"r","name":"radial","invert":true,"subMasks":[{"type":"radial","parameters":{"centerX":10,"centerY":10,"radiusX":4,"radiusY":4}}],"patchData":{"color":"data:image/png;base64,%s"}}`, fixture.Base64PNG(white))
	out_any, err := CompositePatches(base, doc(p))
	require.NoError(t, err)
	out := out_any.(*image.NRGBA)
	require.Equal(t, color.NRGBA{0, 0, 0, 255}, out.NRGBAAt(10, 10))
	require.Equal(t, color.NRGBA{255, 255, 255, 255}, out.NRGBAAt(0, 0))
}

func TestCompositeErrors(t *testing.T) {
	base := base_image()
	red := fixture.Solid(2, 2, color.NRGBA{255, 0, 0, 255})

	_, err := CompositePatches(base, doc(patch_json("p", red, "")), WithRasterizer(failing_mask{}))
	require.ErrorIs(t, err, errRasterizer)
	require.Contains(t, err.Error(), `"p"`)

	_, err = CompositePatches(base, doc(`{"id":"p","patchData":{"color":"AAAA"}}`))
	require.ErrorIs(t, err, patch.ErrMissingField)

	_, err = CompositePatches(base, doc(`{"id":"p","name":"n","subMasks":[{"type":"all"}],"patchData":{"color":"!!!"}}`))
	require.Error(t, err)

	_, err = CompositePatches(base, doc(`{"id":"p","name":"n","subMasks":[{"type":"all"}],"patchData":{"color":"AAAA"}}`))
	require.Error(t, err)

	_, err = CompositePatches(base, doc(`{"id":"p","name":"n","subMasks":[{"type":"spiral"}],"patchData":{"color":"AAAA"}}`))
	require.ErrorIs(t, err, mask.ErrUnknownSubMask)

	_, err = CompositePatches(base, []byte(`{"aiPatches": [`))
	require.Error(t, err)
}

func TestCompositeOffsetOrigin(t *testing.T) {
	full := base_image()
	sub := full.SubImage(image.Rect(2, 3, 10, 8)).(*image.NRGBA)
	c := color.NRGBA{9, 8, 7, 255}
	out_any, err := CompositePatches(sub, doc(patch_json("p", fixture.Solid(8, 5, c), "")))
	require.NoError(t, err)
	out := out_any.(*image.NRGBA)
	require.Equal(t, image.Rect(0, 0, 8, 5), out.Bounds())
	require.Equal(t, color.NRGBA{9, 8, 7, full.NRGBAAt(2, 3).A}, out.NRGBAAt(0, 0))
}

func TestBlendMaskedSizeMismatch(t *testing.T) {
	err := BlendMasked(image.NewNRGBA(image.Rect(0, 0, 2, 2)), NewNRGB(image.Rect(0, 0, 2, 2)), mask.NewBitmap(3, 2))
	require.Error(t, err)
}

func TestLoadAndComposite(t *testing.T) {
	src := fixture.Gradient(6, 4)
	c := color.NRGBA{1, 2, 3, 255}
	out, err := LoadAndComposite(fixture.JPEGWithOrientation(src, 6), "x.jpg", doc(patch_json("p", fixture.Solid(4, 6, c), "")), false)
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 4, 6), out.Bounds())
	require.Equal(t, c, out.(*image.NRGBA).NRGBAAt(3, 5))

	out, err = LoadAndComposite(fixture.JPEGWithOrientation(src, 6), "x.jpg", []byte(`{}`), false, WithDecodeOptions(AutoOrientation(false)))
	require.NoError(t, err)
	require.Equal(t, 6, out.Bounds().Dx())
}
