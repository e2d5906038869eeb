package imagecore

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/lumenraw/imagecore/logging"
	"github.com/lumenraw/imagecore/orient"
	"github.com/lumenraw/imagecore/raw"
	"github.com/lumenraw/imagecore/types"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

type fileSystem interface {
	Create(string) (io.WriteCloser, error)
	ReadFile(string) ([]byte, error)
}

type localFS struct{}

func (localFS) Create(name string) (io.WriteCloser, error) { return os.Create(name) }
func (localFS) ReadFile(name string) ([]byte, error)       { return os.ReadFile(name) }

var fs fileSystem = localFS{}

type decodeConfig struct {
	autoOrientation bool
	fastRaw         bool
	rawDeveloper    raw.Developer
}

var defaultDecodeConfig = decodeConfig{
	autoOrientation: true,
	rawDeveloper:    raw.Preview{},
}

// DecodeOption sets an optional parameter for the decoding functions.
type DecodeOption func(*decodeConfig)

// AutoOrientation returns a DecodeOption that sets the auto-orientation mode.
// If auto-orientation is enabled, standard images are transformed after
// decoding according to the EXIF orientation tag (if present). By default
// it's enabled.
func AutoOrientation(enabled bool) DecodeOption {
	return func(c *decodeConfig) {
		c.autoOrientation = enabled
	}
}

// FastRaw returns a DecodeOption asking the RAW developer to favor speed
// over quality. Used by Open; LoadBaseImage takes the flag explicitly.
func FastRaw(enabled bool) DecodeOption {
	return func(c *decodeConfig) {
		c.fastRaw = enabled
	}
}

// WithRawDeveloper returns a DecodeOption that sets the developer used for
// camera RAW files. Defaults to raw.Preview.
func WithRawDeveloper(d raw.Developer) DecodeOption {
	return func(c *decodeConfig) {
		if d != nil {
			c.rawDeveloper = d
		}
	}
}

func newDecodeConfig(opts []DecodeOption) decodeConfig {
	cfg := defaultDecodeConfig
	for _, option := range opts {
		option(&cfg)
	}
	return cfg
}

var (
	// ErrUnsupportedFormat means the given image format is not supported.
	ErrUnsupportedFormat = errors.New("imagecore: unsupported image format")
	// ErrFormatGuess means no registered codec recognised the image data.
	ErrFormatGuess = errors.New("imagecore: failed to guess image format")
)

// IsRawFile reports whether the extension of path identifies a camera RAW
// format. Matching is case-insensitive; unknown extensions are not RAW.
func IsRawFile(path string) bool {
	return types.RawExts[types.Ext(path)]
}

func fix_orientation(img image.Image, data []byte) image.Image {
	log := logging.Logger()
	o, err := orient.Read(data)
	if err != nil {
		log.Warn("ignoring unreadable EXIF metadata", "error", err)
		return img
	}
	if o == orient.Unspecified || o == orient.Normal {
		return img
	}
	log.Debug("applying EXIF orientation", "orientation", o, "swaps_dimensions", o.SwapsDimensions())
	return orient.Apply(img, o)
}

// Decode decodes a standard (non RAW) image from data. No size limits are
// imposed. When auto-orientation is enabled, EXIF orientation found in the
// data is applied; missing or unreadable metadata leaves the image as is.
func Decode(data []byte, opts ...DecodeOption) (image.Image, error) {
	cfg := newDecodeConfig(opts)
	_, format_name, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, ErrFormatGuess
		}
		return nil, fmt.Errorf("failed to read image header: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s image: %w", format_name, err)
	}
	b := img.Bounds()
	logging.Logger().Debug("decoded image", "format", types.FormatFromDecodeResult(format_name), "width", b.Dx(), "height", b.Dy())
	if cfg.autoOrientation {
		img = fix_orientation(img, data)
	}
	return img, nil
}

// LoadBaseImage produces the working image for data. RAW files, as
// identified by the extension of path, are developed by the configured
// raw.Developer, which is passed fastRaw; its errors are returned
// unchanged. Other files are decoded with Decode.
func LoadBaseImage(data []byte, path string, fastRaw bool, opts ...DecodeOption) (image.Image, error) {
	cfg := newDecodeConfig(opts)
	if IsRawFile(path) {
		logging.Logger().Debug("developing RAW image", "path", path, "fast", fastRaw)
		return cfg.rawDeveloper.Develop(data, fastRaw)
	}
	return Decode(data, opts...)
}

// Open loads the base image stored in the named file.
//
// Examples:
//
//	// Load an image from file.
//	img, err := imagecore.Open("test.jpg")
//
//	// Load a RAW file using the quick preview path.
//	img, err := imagecore.Open("DSC_0001.NEF", imagecore.FastRaw(true))
func Open(filename string, opts ...DecodeOption) (image.Image, error) {
	data, err := fs.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	cfg := newDecodeConfig(opts)
	img, err := LoadBaseImage(data, filename, cfg.fastRaw, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return img, nil
}

type Format = types.Format

const (
	UNKNOWN = types.UNKNOWN
	JPEG    = types.JPEG
	PNG     = types.PNG
	GIF     = types.GIF
	TIFF    = types.TIFF
	WEBP    = types.WEBP
	BMP     = types.BMP
)

// FormatFromExtension parses image format from filename extension:
// "jpg" (or "jpeg"), "png", "gif", "tif" (or "tiff"), "webp" and "bmp" are supported.
func FormatFromExtension(ext string) (Format, error) {
	if f, ok := types.FormatExts[strings.ToLower(strings.TrimPrefix(ext, "."))]; ok {
		return f, nil
	}
	return -1, ErrUnsupportedFormat
}

// FormatFromFilename parses image format from filename.
func FormatFromFilename(filename string) (Format, error) {
	return FormatFromExtension(filepath.Ext(filename))
}

type encodeConfig struct {
	jpegQuality         int
	pngCompressionLevel png.CompressionLevel
}

var defaultEncodeConfig = encodeConfig{
	jpegQuality:         95,
	pngCompressionLevel: png.DefaultCompression,
}

// EncodeOption sets an optional parameter for the Encode and Save functions.
type EncodeOption func(*encodeConfig)

// JPEGQuality returns an EncodeOption that sets the output JPEG quality.
// Quality ranges from 1 to 100 inclusive, higher is better. Default is 95.
func JPEGQuality(quality int) EncodeOption {
	return func(c *encodeConfig) {
		c.jpegQuality = quality
	}
}

// PNGCompressionLevel returns an EncodeOption that sets the compression level
// of the PNG-encoded image. Default is png.DefaultCompression.
func PNGCompressionLevel(level png.CompressionLevel) EncodeOption {
	return func(c *encodeConfig) {
		c.pngCompressionLevel = level
	}
}

// Encode writes the image img to w in the specified format (JPEG, PNG, GIF, TIFF or BMP).
func Encode(w io.Writer, img image.Image, format Format, opts ...EncodeOption) error {
	cfg := defaultEncodeConfig
	for _, option := range opts {
		option(&cfg)
	}

	switch format {
	case JPEG:
		if nrgba, ok := img.(*image.NRGBA); ok && nrgba.Opaque() {
			rgba := &image.RGBA{
				Pix:    nrgba.Pix,
				Stride: nrgba.Stride,
				Rect:   nrgba.Rect,
			}
			return jpeg.Encode(w, rgba, &jpeg.Options{Quality: cfg.jpegQuality})
		}
		return jpeg.Encode(w, img, &jpeg.Options{Quality: cfg.jpegQuality})

	case PNG:
		encoder := png.Encoder{CompressionLevel: cfg.pngCompressionLevel}
		return encoder.Encode(w, img)

	case GIF:
		return gif.Encode(w, img, nil)

	case TIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})

	case BMP:
		return bmp.Encode(w, img)
	}

	return ErrUnsupportedFormat
}

// Save saves the image to file with the specified filename.
// The format is determined from the filename extension.
//
// Examples:
//
//	// Save the image as PNG.
//	err := imagecore.Save(img, "out.png")
//
//	// Save the image as JPEG with optional quality parameter set to 80.
//	err := imagecore.Save(img, "out.jpg", imagecore.JPEGQuality(80))
func Save(img image.Image, filename string, opts ...EncodeOption) (err error) {
	f, err := FormatFromFilename(filename)
	if err != nil {
		return err
	}
	file, err := fs.Create(filename)
	if err != nil {
		return err
	}
	err = Encode(file, img, f, opts...)
	errc := file.Close()
	if err == nil {
		err = errc
	}
	return err
}
