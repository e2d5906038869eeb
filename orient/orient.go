// Package orient reads EXIF orientation metadata and applies the
// corresponding geometric correction to decoded images.
package orient

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"

	"github.com/disintegration/gift"
	"github.com/rwcarlsen/goexif/exif"
	exif_tiff "github.com/rwcarlsen/goexif/tiff"
)

var _ = fmt.Print

// Orientation is an EXIF flag that specifies the transformation
// that should be applied to an image to display it correctly.
type Orientation int

const (
	Unspecified Orientation = 0
	Normal      Orientation = 1
	FlipH       Orientation = 2
	Rotate180   Orientation = 3
	FlipV       Orientation = 4
	Transpose   Orientation = 5
	Rotate270   Orientation = 6
	Transverse  Orientation = 7
	Rotate90    Orientation = 8
)

func (o Orientation) String() string {
	switch o {
	case Normal:
		return "normal"
	case FlipH:
		return "flip-horizontal"
	case Rotate180:
		return "rotate-180"
	case FlipV:
		return "flip-vertical"
	case Transpose:
		return "transpose"
	case Rotate270:
		return "rotate-270"
	case Transverse:
		return "transverse"
	case Rotate90:
		return "rotate-90"
	}
	return "unspecified"
}

// SwapsDimensions reports whether applying o exchanges width and height.
func (o Orientation) SwapsDimensions() bool {
	switch o {
	case Transpose, Rotate270, Transverse, Rotate90:
		return true
	}
	return false
}

func (o Orientation) filter() gift.Filter {
	switch o {
	case FlipH:
		return gift.FlipHorizontal()
	case FlipV:
		return gift.FlipVertical()
	case Rotate90:
		return gift.Rotate90()
	case Rotate180:
		return gift.Rotate180()
	case Rotate270:
		return gift.Rotate270()
	case Transpose:
		return gift.Transpose()
	case Transverse:
		return gift.Transverse()
	}
	return nil
}

// Apply returns img transformed according to o. Normal, Unspecified and
// out of range values return img unchanged. Rotations are counter-clockwise,
// so Rotate270 (EXIF value 6) turns the image a quarter turn clockwise.
func Apply(img image.Image, o Orientation) image.Image {
	f := o.filter()
	if f == nil {
		return img
	}
	g := gift.New(f)
	dst := image.NewNRGBA(g.Bounds(img.Bounds()))
	g.Draw(dst, img)
	return dst
}

// FromExif extracts the orientation tag from decoded EXIF data. Missing,
// malformed and out of range values all yield Unspecified.
func FromExif(x *exif.Exif) Orientation {
	if x == nil {
		return Unspecified
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil || tag == nil || tag.Format() != exif_tiff.IntVal {
		return Unspecified
	}
	if v, err := tag.Int(0); err == nil && v > 0 && v < 9 {
		return Orientation(v)
	}
	return Unspecified
}

// Read finds EXIF metadata in the encoded image data and returns its
// orientation. JPEG, TIFF (and TIFF based RAW files), PNG eXIf chunks and
// WebP EXIF chunks are searched. When no EXIF data is present Unspecified
// is returned with a nil error. An error means EXIF data was found but
// could not be parsed.
func Read(data []byte) (Orientation, error) {
	payload := Payload(data)
	if payload == nil {
		return Unspecified, nil
	}
	x, err := exif.Decode(bytes.NewReader(payload))
	if x == nil {
		if err != nil && isAbsent(data) {
			return Unspecified, nil
		}
		return Unspecified, err
	}
	// non-critical errors still leave usable tags in x
	return FromExif(x), nil
}

func isAbsent(data []byte) bool {
	// JPEGs without an APP1 Exif segment are the common case, not a failure
	return isJPEG(data) && !bytes.Contains(data, []byte("Exif\x00\x00"))
}

var (
	pngSignature = []byte("\x89PNG\r\n\x1a\n")
	exifHeader   = []byte("Exif\x00\x00")
)

func isJPEG(data []byte) bool {
	return len(data) > 2 && data[0] == 0xff && data[1] == 0xd8
}

func isTIFF(data []byte) bool {
	return len(data) > 4 && (bytes.HasPrefix(data, []byte("II*\x00")) || bytes.HasPrefix(data, []byte("MM\x00*")))
}

// Payload returns the bytes that should be handed to an EXIF decoder for
// data, or nil if data is not in a container known to carry EXIF.
func Payload(data []byte) []byte {
	switch {
	case isJPEG(data), isTIFF(data):
		return data
	case bytes.HasPrefix(data, pngSignature):
		return pngExif(data[len(pngSignature):])
	case len(data) > 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		return webpExif(data[12:])
	}
	return nil
}

func pngExif(data []byte) []byte {
	for len(data) >= 12 {
		n := int(binary.BigEndian.Uint32(data))
		typ := string(data[4:8])
		if n < 0 || 8+n+4 > len(data) {
			return nil
		}
		switch typ {
		case "eXIf":
			return bytes.TrimPrefix(data[8:8+n], exifHeader)
		case "IDAT", "IEND":
			// eXIf must precede image data
			return nil
		}
		data = data[8+n+4:]
	}
	return nil
}

func webpExif(data []byte) []byte {
	for len(data) >= 8 {
		n := int(binary.LittleEndian.Uint32(data[4:8]))
		if n < 0 || 8+n > len(data) {
			return nil
		}
		if string(data[0:4]) == "EXIF" {
			return bytes.TrimPrefix(data[8:8+n], exifHeader)
		}
		next := 8 + n + n&1
		if next > len(data) {
			return nil
		}
		data = data[next:]
	}
	return nil
}
