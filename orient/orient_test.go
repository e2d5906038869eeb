package orient

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"testing"

	"github.com/lumenraw/imagecore/internal/fixture"
	"github.com/stretchr/testify/require"
)

var _ = fmt.Print

func TestRead(t *testing.T) {
	img := fixture.Gradient(6, 4)
	for o := 1; o <= 8; o++ {
		t.Run(fmt.Sprintf("jpeg-%d", o), func(t *testing.T) {
			v, err := Read(fixture.JPEGWithOrientation(img, o))
			require.NoError(t, err)
			require.Equal(t, Orientation(o), v)
		})
	}
	v, err := Read(fixture.PNGWithOrientation(img, 6))
	require.NoError(t, err)
	require.Equal(t, Rotate270, v)

	v, err = Read(fixture.ExifTIFF(3))
	require.NoError(t, err)
	require.Equal(t, Rotate180, v)
}

func TestReadAbsent(t *testing.T) {
	img := fixture.Gradient(3, 3)
	for name, data := range map[string][]byte{
		"jpeg":    fixture.JPEG(img),
		"png":     fixture.PNG(img),
		"garbage": []byte("not an image"),
		"empty":   nil,
	} {
		t.Run(name, func(t *testing.T) {
			v, err := Read(data)
			require.NoError(t, err)
			require.Equal(t, Unspecified, v)
		})
	}
	v, err := Read(fixture.JPEGWithOrientation(img, 42))
	require.NoError(t, err)
	require.Equal(t, Unspecified, v)
}

func TestWebPPayload(t *testing.T) {
	tiff := fixture.ExifTIFF(8)
	chunk := func(fourcc string, data []byte) []byte {
		b := []byte(fourcc)
		b = binary.LittleEndian.AppendUint32(b, uint32(len(data)))
		b = append(b, data...)
		if len(data)&1 == 1 {
			b = append(b, 0)
		}
		return b
	}
	body := []byte("WEBP")
	body = append(body, chunk("VP8X", make([]byte, 9))...)
	body = append(body, chunk("EXIF", append([]byte("Exif\x00\x00"), tiff...))...)
	data := binary.LittleEndian.AppendUint32([]byte("RIFF"), uint32(len(body)))
	data = append(data, body...)
	require.Equal(t, tiff, Payload(data))
	v, err := Read(data)
	require.NoError(t, err)
	require.Equal(t, Rotate90, v)
}

func TestApply(t *testing.T) {
	// 2x1 image: red, green
	red, green := color.NRGBA{255, 0, 0, 255}, color.NRGBA{0, 255, 0, 255}
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, red)
	img.SetNRGBA(1, 0, green)

	testCases := []struct {
		o      Orientation
		w, h   int
		at     image.Point
		expect color.NRGBA
	}{
		{Normal, 2, 1, image.Pt(0, 0), red},
		{FlipH, 2, 1, image.Pt(0, 0), green},
		{Rotate180, 2, 1, image.Pt(0, 0), green},
		{FlipV, 2, 1, image.Pt(0, 0), red},
		{Transpose, 1, 2, image.Pt(0, 0), red},
		{Rotate270, 1, 2, image.Pt(0, 0), red},
		{Transverse, 1, 2, image.Pt(0, 0), green},
		{Rotate90, 1, 2, image.Pt(0, 0), green},
	}
	for _, tc := range testCases {
		t.Run(tc.o.String(), func(t *testing.T) {
			out := Apply(img, tc.o)
			b := out.Bounds()
			require.Equal(t, tc.w, b.Dx())
			require.Equal(t, tc.h, b.Dy())
			require.Equal(t, tc.o.SwapsDimensions(), tc.w != 2)
			require.Equal(t, tc.expect, color.NRGBAModel.Convert(out.At(b.Min.X+tc.at.X, b.Min.Y+tc.at.Y)))
		})
	}
}
