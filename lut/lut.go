// Package lut loads third party 3D color lookup tables (.cube, .3dl and
// HALD images) into a single canonical grid representation.
//
// Applying a LUT to an image is not part of this package; Grid only stores
// the lattice samples.
package lut

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"

	"github.com/lumenraw/imagecore/logging"
	"github.com/lumenraw/imagecore/types"
	_ "golang.org/x/image/tiff"
)

var _ = fmt.Print

var (
	ErrUnsupportedFormat = errors.New("lut: unsupported LUT file format")
	ErrMissingSize       = errors.New("lut: LUT_3D_SIZE not found in .cube file")
	ErrSizeMismatch      = errors.New("lut: LUT data size mismatch")
	ErrNoData            = errors.New("lut: no data found")
	ErrNotCubic          = errors.New("lut: sample count is not a perfect cube")
	ErrNotSquare         = errors.New("lut: HALD image must be square")
)

// Format is a LUT source format.
type Format int

const (
	UNKNOWN Format = iota
	CUBE
	THREEDL
	HALD
)

var FormatExts = map[string]Format{
	"cube": CUBE,
	"3dl":  THREEDL,
	"png":  HALD,
	"jpg":  HALD,
	"jpeg": HALD,
	"tif":  HALD,
	"tiff": HALD,
}

func (f Format) String() string {
	switch f {
	case CUBE:
		return "cube"
	case THREEDL:
		return "3dl"
	case HALD:
		return "hald"
	}
	return "unknown"
}

// FormatFromFilename returns the LUT format identified by the extension of
// path, matched case-insensitively.
func FormatFromFilename(path string) (Format, error) {
	ext := types.Ext(path)
	if f, ok := FormatExts[ext]; ok {
		return f, nil
	}
	return UNKNOWN, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
}

// MaxSize is the largest lattice size accepted, the size of a level 16
// HALD image.
const MaxSize = 256

// Grid is a cubic 3D LUT. Data holds Size³ RGB triples with the red index
// varying fastest, then green, then blue.
type Grid struct {
	Size int
	Data []float32
}

// Validate checks that the sample count matches the declared size.
func (g *Grid) Validate() error {
	if g.Size < 1 || g.Size > MaxSize {
		return fmt.Errorf("%w: invalid size %d, must be in [1, %d]", ErrSizeMismatch, g.Size, MaxSize)
	}
	if expected := g.Size * g.Size * g.Size * 3; len(g.Data) != expected {
		return fmt.Errorf("%w: expected %d, found %d", ErrSizeMismatch, expected, len(g.Data))
	}
	return nil
}

// At returns the sample stored at lattice position (r, g, b). No
// interpolation is performed.
func (g *Grid) At(r, gr, b int) (ans [3]float32) {
	i := ((b*g.Size+gr)*g.Size + r) * 3
	copy(ans[:], g.Data[i:i+3:i+3])
	return
}

// cubeRoot returns the integer cube root of n if n is a perfect cube.
func cubeRoot(n int) (int, bool) {
	r := int(math.Round(math.Cbrt(float64(n))))
	return r, r*r*r == n
}

// ParseFile loads the LUT at path, dispatching on the file extension.
func ParseFile(path string) (g *Grid, err error) {
	format, err := FormatFromFilename(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	switch format {
	case CUBE:
		g, err = ParseCube(f)
	case THREEDL:
		g, err = Parse3DL(f)
	case HALD:
		var img image.Image
		if img, _, err = image.Decode(f); err != nil {
			return nil, fmt.Errorf("failed to decode HALD image %s: %w", path, err)
		}
		g, err = ParseHald(img)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	logging.Logger().Debug("lut: loaded", "path", path, "format", format, "size", g.Size)
	return g, nil
}
