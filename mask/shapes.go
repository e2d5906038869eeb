package mask

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"math"

	"github.com/disintegration/gift"
	"github.com/kovidgoyal/go-parallel"
	"github.com/lumenraw/imagecore/internal/b64"
	"github.com/lumenraw/imagecore/logging"
	"golang.org/x/image/vector"
)

var _ = fmt.Print

// ErrUnknownSubMask is returned for sub-mask types Shapes cannot render.
var ErrUnknownSubMask = errors.New("mask: unknown sub-mask type")

// Shapes is the built-in Rasterizer. It understands the sub-mask types:
//
//	all            the whole frame
//	radial         {centerX, centerY, radiusX, radiusY, rotation, feather}
//	linear         {startX, startY, endX, endY}, full weight at start fading to none at end
//	brush          {lines: [{tool, brushSize, points: [{x, y}]}]}, tool is "brush" or "eraser"
//	ai-subject, ai-foreground, ai-sky, quick-eraser
//	               {maskDataBase64}, a grayscale image at unscaled image resolution
//
// Visible sub-masks are rendered in order, inverted and attenuated by
// their own settings and merged according to their Mode. The Definition's
// invert and opacity are applied to the merged result.
type Shapes struct{}

type radialParams struct {
	CenterX  float64 `json:"centerX"`
	CenterY  float64 `json:"centerY"`
	RadiusX  float64 `json:"radiusX"`
	RadiusY  float64 `json:"radiusY"`
	Rotation float64 `json:"rotation"`
	Feather  float64 `json:"feather"`
}

type linearParams struct {
	StartX float64 `json:"startX"`
	StartY float64 `json:"startY"`
	EndX   float64 `json:"endX"`
	EndY   float64 `json:"endY"`
}

type brushPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type brushLine struct {
	Tool      string       `json:"tool"`
	BrushSize float64      `json:"brushSize"`
	Points    []brushPoint `json:"points"`
}

type brushParams struct {
	Lines []brushLine `json:"lines"`
}

type bitmapParams struct {
	MaskDataBase64 string `json:"maskDataBase64"`
}

type geometry struct {
	width, height int
	scale         float64
	offset        Offset
}

func (g geometry) pt(x, y float64) (float64, float64) {
	return x*g.scale - g.offset.X, y*g.scale - g.offset.Y
}

func params(sm *SubMask, v any) error {
	if len(sm.Parameters) == 0 {
		return fmt.Errorf("missing parameters")
	}
	if err := json.Unmarshal(sm.Parameters, v); err != nil {
		return fmt.Errorf("invalid parameters: %w", err)
	}
	return nil
}

// fill evaluates f at every pixel center, in parallel over rows. f returns
// a weight in [0, 1].
func fill(b *Bitmap, f func(x, y float64) float64) error {
	if b.Width == 0 || b.Height == 0 {
		return nil
	}
	return parallel.Run_in_parallel_over_range(0, func(start, limit int) {
		for y := start; y < limit; y++ {
			row := b.Row(y)
			fy := float64(y) + 0.5
			for x := range row {
				row[x] = to8(f(float64(x)+0.5, fy))
			}
		}
	}, 0, b.Height)
}

func smoothstep(t float64) float64 { return t * t * (3 - 2*t) }

func radial(sm *SubMask, g geometry) (*Bitmap, error) {
	var p radialParams
	if err := params(sm, &p); err != nil {
		return nil, err
	}
	if p.RadiusX <= 0 || p.RadiusY <= 0 {
		return nil, fmt.Errorf("radii must be positive, got %vx%v", p.RadiusX, p.RadiusY)
	}
	cx, cy := g.pt(p.CenterX, p.CenterY)
	rx, ry := p.RadiusX*g.scale, p.RadiusY*g.scale
	sin, cos := math.Sincos(-p.Rotation * math.Pi / 180)
	inner := 1 - min(max(p.Feather, 0), 1)
	b := NewBitmap(g.width, g.height)
	err := fill(b, func(x, y float64) float64 {
		dx, dy := x-cx, y-cy
		u, v := dx*cos-dy*sin, dx*sin+dy*cos
		d := math.Hypot(u/rx, v/ry)
		switch {
		case d <= inner:
			return 1
		case d >= 1:
			return 0
		}
		return 1 - smoothstep((d-inner)/(1-inner))
	})
	return b, err
}

func linear(sm *SubMask, g geometry) (*Bitmap, error) {
	var p linearParams
	if err := params(sm, &p); err != nil {
		return nil, err
	}
	sx, sy := g.pt(p.StartX, p.StartY)
	ex, ey := g.pt(p.EndX, p.EndY)
	dx, dy := ex-sx, ey-sy
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return nil, fmt.Errorf("start and end points coincide")
	}
	b := NewBitmap(g.width, g.height)
	err := fill(b, func(x, y float64) float64 {
		t := ((x-sx)*dx + (y-sy)*dy) / l2
		return 1 - min(max(t, 0), 1)
	})
	return b, err
}

const circle_segments = 32

func stroke(z *vector.Rasterizer, dst *image.Alpha, pts [][2]float64, r float64) {
	draw_poly := func(poly [][2]float64) {
		z.Reset(dst.Rect.Dx(), dst.Rect.Dy())
		z.MoveTo(float32(poly[0][0]), float32(poly[0][1]))
		for _, p := range poly[1:] {
			z.LineTo(float32(p[0]), float32(p[1]))
		}
		z.ClosePath()
		z.Draw(dst, dst.Bounds(), image.Opaque, image.Point{})
	}
	circ := make([][2]float64, circle_segments)
	for _, p := range pts {
		for i := range circ {
			a := 2 * math.Pi * float64(i) / circle_segments
			circ[i] = [2]float64{p[0] + r*math.Cos(a), p[1] + r*math.Sin(a)}
		}
		draw_poly(circ)
	}
	for i := 1; i < len(pts); i++ {
		a, b := pts[i-1], pts[i]
		dx, dy := b[0]-a[0], b[1]-a[1]
		l := math.Hypot(dx, dy)
		if l == 0 {
			continue
		}
		nx, ny := -dy/l*r, dx/l*r
		draw_poly([][2]float64{
			{a[0] + nx, a[1] + ny}, {b[0] + nx, b[1] + ny},
			{b[0] - nx, b[1] - ny}, {a[0] - nx, a[1] - ny},
		})
	}
}

func brush(sm *SubMask, g geometry) (*Bitmap, error) {
	var p brushParams
	if err := params(sm, &p); err != nil {
		return nil, err
	}
	b := NewBitmap(g.width, g.height)
	if g.width == 0 || g.height == 0 {
		return b, nil
	}
	z := vector.NewRasterizer(g.width, g.height)
	for i, line := range p.Lines {
		if len(line.Points) == 0 {
			continue
		}
		if line.BrushSize <= 0 {
			return nil, fmt.Errorf("line %d: brush size must be positive", i)
		}
		pts := make([][2]float64, len(line.Points))
		for j, pt := range line.Points {
			pts[j][0], pts[j][1] = g.pt(pt.X, pt.Y)
		}
		cov := image.NewAlpha(image.Rect(0, 0, g.width, g.height))
		stroke(z, cov, pts, line.BrushSize*g.scale/2)
		lb := &Bitmap{Pix: cov.Pix, Width: g.width, Height: g.height}
		switch line.Tool {
		case "eraser":
			b.Subtract(lb)
		case "brush", "":
			b.Union(lb)
		default:
			return nil, fmt.Errorf("line %d: unknown tool %q", i, line.Tool)
		}
	}
	return b, nil
}

func bitmap(sm *SubMask, g geometry) (*Bitmap, error) {
	var p bitmapParams
	if err := params(sm, &p); err != nil {
		return nil, err
	}
	data, err := b64.Decode(p.MaskDataBase64)
	if err != nil {
		return nil, fmt.Errorf("invalid mask data: %w", err)
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode mask image: %w", err)
	}
	sb := src.Bounds()
	gray := image.NewGray(image.Rect(0, 0, sb.Dx(), sb.Dy()))
	draw.Draw(gray, gray.Bounds(), src, sb.Min, draw.Src)
	sw := max(1, int(math.Round(float64(sb.Dx())*g.scale)))
	sh := max(1, int(math.Round(float64(sb.Dy())*g.scale)))
	if sw != sb.Dx() || sh != sb.Dy() {
		f := gift.New(gift.Resize(sw, sh, gift.LinearResampling))
		scaled := image.NewGray(f.Bounds(gray.Bounds()))
		f.Draw(scaled, gray)
		gray = scaled
	}
	ox, oy := int(math.Round(g.offset.X)), int(math.Round(g.offset.Y))
	b := NewBitmap(g.width, g.height)
	gw, gh := gray.Rect.Dx(), gray.Rect.Dy()
	for y := range g.height {
		sy := y + oy
		if sy < 0 || sy >= gh {
			continue
		}
		row := b.Row(y)
		srow := gray.Pix[sy*gray.Stride : sy*gray.Stride+gw]
		for x := range row {
			if sx := x + ox; sx >= 0 && sx < gw {
				row[x] = srow[sx]
			}
		}
	}
	return b, nil
}

func render(sm *SubMask, g geometry) (*Bitmap, error) {
	switch sm.Type {
	case "all":
		b := NewBitmap(g.width, g.height)
		b.Fill(255)
		return b, nil
	case "radial":
		return radial(sm, g)
	case "linear":
		return linear(sm, g)
	case "brush":
		return brush(sm, g)
	case "ai-subject", "ai-foreground", "ai-sky", "quick-eraser":
		return bitmap(sm, g)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownSubMask, sm.Type)
}

func (Shapes) Rasterize(def *Definition, width, height int, scale float64, offset Offset) (*Bitmap, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("invalid mask size %dx%d", width, height)
	}
	if scale <= 0 {
		return nil, fmt.Errorf("invalid mask scale %v", scale)
	}
	ans := NewBitmap(width, height)
	if !def.Visible {
		return ans, nil
	}
	g := geometry{width: width, height: height, scale: scale, offset: offset}
	for i := range def.SubMasks {
		sm := &def.SubMasks[i]
		if !sm.Visible {
			continue
		}
		b, err := render(sm, g)
		if err != nil {
			return nil, fmt.Errorf("sub-mask %d (%s) of mask %q: %w", i, sm.Type, def.Name, err)
		}
		if sm.Invert {
			b.Invert()
		}
		b.Scale(sm.Opacity / 100)
		switch sm.Mode {
		case Subtractive:
			ans.Subtract(b)
		default:
			ans.Union(b)
		}
	}
	if def.Invert {
		ans.Invert()
	}
	ans.Scale(min(max(def.Opacity, 0), 100) / 100)
	logging.Logger().Debug("mask: rasterized", "id", def.ID, "name", def.Name, "sub_masks", len(def.SubMasks), "width", width, "height", height)
	return ans, nil
}
