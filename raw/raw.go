// Package raw turns camera RAW files into displayable images.
//
// Full RAW development (demosaicing, white balance, tone mapping) is done
// by an external engine plugged in through the Developer interface. The
// Preview developer provided here renders the JPEG or TIFF previews that
// cameras embed in their RAW files.
package raw

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/lumenraw/imagecore/logging"
	"github.com/lumenraw/imagecore/orient"
	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/image/tiff"
)

var _ = fmt.Print

// ErrNoPreview is returned when a RAW file carries no decodable preview.
var ErrNoPreview = errors.New("raw: no embedded preview found")

// Developer develops RAW file bytes into an upright image. When fast is
// true the developer may trade quality for speed.
type Developer interface {
	Develop(data []byte, fast bool) (image.Image, error)
}

// DeveloperFunc adapts a function to the Developer interface.
type DeveloperFunc func(data []byte, fast bool) (image.Image, error)

func (f DeveloperFunc) Develop(data []byte, fast bool) (image.Image, error) { return f(data, fast) }

// Preview is a Developer that extracts the preview image embedded in a RAW
// file and rotates it according to the file's EXIF orientation.
//
// In fast mode the EXIF thumbnail is used when present. Otherwise the
// largest embedded JPEG, or the first TIFF directory for TIFF based files,
// is used.
type Preview struct{}

type candidate struct {
	offset int
	area   int
}

func embeddedJPEGs(data []byte) (ans []candidate) {
	soi := []byte{0xff, 0xd8, 0xff}
	for pos := 0; ; {
		idx := bytes.Index(data[pos:], soi)
		if idx < 0 {
			break
		}
		offset := pos + idx
		if c, err := jpeg.DecodeConfig(bytes.NewReader(data[offset:])); err == nil && c.Width > 0 && c.Height > 0 {
			ans = append(ans, candidate{offset: offset, area: c.Width * c.Height})
		}
		pos = offset + len(soi)
	}
	return
}

func largest(data []byte) (img image.Image, area int) {
	var best *candidate
	cands := embeddedJPEGs(data)
	for i := range cands {
		if best == nil || cands[i].area > best.area {
			best = &cands[i]
		}
	}
	if best != nil {
		if j, err := jpeg.Decode(bytes.NewReader(data[best.offset:])); err == nil {
			img, area = j, best.area
		}
	}
	if len(data) > 4 && (bytes.HasPrefix(data, []byte("II*\x00")) || bytes.HasPrefix(data, []byte("MM\x00*"))) {
		if t, err := tiff.Decode(bytes.NewReader(data)); err == nil {
			if a := t.Bounds().Dx() * t.Bounds().Dy(); a > area {
				img, area = t, a
			}
		}
	}
	return
}

func thumbnail(x *exif.Exif) image.Image {
	if x == nil {
		return nil
	}
	th, err := x.JpegThumbnail()
	if err != nil || len(th) == 0 {
		return nil
	}
	img, err := jpeg.Decode(bytes.NewReader(th))
	if err != nil {
		return nil
	}
	return img
}

func (Preview) Develop(data []byte, fast bool) (image.Image, error) {
	log := logging.Logger()
	x, err := exif.Decode(bytes.NewReader(data))
	if x == nil && err != nil {
		log.Debug("raw: no EXIF metadata", "error", err)
	}
	var img image.Image
	if fast {
		img = thumbnail(x)
	}
	if img == nil {
		img, _ = largest(data)
	}
	if img == nil {
		return nil, ErrNoPreview
	}
	o := orient.FromExif(x)
	log.Debug("raw: developed embedded preview", "fast", fast, "width", img.Bounds().Dx(), "height", img.Bounds().Dy(), "orientation", o)
	return orient.Apply(img, o), nil
}
