// Package fixture builds in-memory test images and metadata so that tests
// need no binary testdata.
package fixture

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
)

// Solid returns a w x h image filled with c.
func Solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

// Gradient returns a w x h opaque image where every pixel is distinct for
// sizes up to 256x256.
func Gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetNRGBA(x, y, color.NRGBA{uint8(x), uint8(y), uint8(x ^ y), 0xff})
		}
	}
	return img
}

// ExifTIFF returns a minimal little endian TIFF structure holding a single
// IFD with the orientation tag set to o.
func ExifTIFF(o int) []byte {
	var b bytes.Buffer
	le := binary.LittleEndian
	b.WriteString("II")
	binary.Write(&b, le, uint16(42))
	binary.Write(&b, le, uint32(8))
	binary.Write(&b, le, uint16(1))
	binary.Write(&b, le, uint16(0x0112))
	binary.Write(&b, le, uint16(3))
	binary.Write(&b, le, uint32(1))
	binary.Write(&b, le, uint16(o))
	binary.Write(&b, le, uint16(0))
	binary.Write(&b, le, uint32(0))
	return b.Bytes()
}

// PNG encodes img as PNG.
func PNG(img image.Image) []byte {
	var b bytes.Buffer
	if err := png.Encode(&b, img); err != nil {
		panic(err)
	}
	return b.Bytes()
}

// JPEG encodes img as a high quality JPEG.
func JPEG(img image.Image) []byte {
	var b bytes.Buffer
	if err := jpeg.Encode(&b, img, &jpeg.Options{Quality: 100}); err != nil {
		panic(err)
	}
	return b.Bytes()
}

// JPEGWithOrientation encodes img as JPEG carrying an APP1 Exif segment
// with orientation o.
func JPEGWithOrientation(img image.Image, o int) []byte {
	data := JPEG(img)
	payload := append([]byte("Exif\x00\x00"), ExifTIFF(o)...)
	seg := []byte{0xff, 0xe1, 0, 0}
	binary.BigEndian.PutUint16(seg[2:], uint16(len(payload)+2))
	seg = append(seg, payload...)
	ans := append([]byte{}, data[:2]...)
	ans = append(ans, seg...)
	return append(ans, data[2:]...)
}

// PNGWithOrientation encodes img as PNG carrying an eXIf chunk with
// orientation o, placed directly after IHDR.
func PNGWithOrientation(img image.Image, o int) []byte {
	data := PNG(img)
	const after_ihdr = 8 + 4 + 4 + 13 + 4
	payload := ExifTIFF(o)
	chunk := make([]byte, 8, 8+len(payload)+4)
	binary.BigEndian.PutUint32(chunk, uint32(len(payload)))
	copy(chunk[4:], "eXIf")
	chunk = append(chunk, payload...)
	chunk = binary.BigEndian.AppendUint32(chunk, crc32.ChecksumIEEE(chunk[4:]))
	ans := append([]byte{}, data[:after_ihdr]...)
	ans = append(ans, chunk...)
	return append(ans, data[after_ihdr:]...)
}

// Base64PNG returns img encoded as PNG in standard base64.
func Base64PNG(img image.Image) string {
	return base64.StdEncoding.EncodeToString(PNG(img))
}
