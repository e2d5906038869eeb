package types

import (
	"fmt"
	"path/filepath"
	"strings"
)

var _ = fmt.Print

// Format is a standard (non RAW) image file format.
type Format int

// Image file formats.
const (
	UNKNOWN Format = iota
	JPEG
	PNG
	GIF
	TIFF
	WEBP
	BMP
)

var FormatExts = map[string]Format{
	"jpg":  JPEG,
	"jpeg": JPEG,
	"png":  PNG,
	"gif":  GIF,
	"tif":  TIFF,
	"tiff": TIFF,
	"webp": WEBP,
	"bmp":  BMP,
}

var formatNames = map[Format]string{
	JPEG: "JPEG",
	PNG:  "PNG",
	GIF:  "GIF",
	TIFF: "TIFF",
	WEBP: "WEBP",
	BMP:  "BMP",
}

func (f Format) String() string {
	return formatNames[f]
}

// FormatFromDecodeResult maps the format name reported by image.Decode
// and image.DecodeConfig to a Format.
func FormatFromDecodeResult(x string) Format {
	switch strings.ToLower(x) {
	case "jpeg":
		return JPEG
	case "png":
		return PNG
	case "gif":
		return GIF
	case "tiff", "tif":
		return TIFF
	case "webp":
		return WEBP
	case "bmp":
		return BMP
	}
	return UNKNOWN
}

// RawExts is the set of camera RAW file extensions, lowercase and without
// the leading dot.
var RawExts = map[string]bool{
	"3fr": true, "ari": true, "arw": true, "bay": true, "braw": true,
	"cap": true, "cr2": true, "cr3": true, "crw": true, "data": true,
	"dcr": true, "dcs": true, "dng": true, "drf": true, "eip": true,
	"erf": true, "fff": true, "gpr": true, "iiq": true, "k25": true,
	"kdc": true, "mdc": true, "mef": true, "mos": true, "mrw": true,
	"nef": true, "nrw": true, "obm": true, "orf": true, "ori": true,
	"pef": true, "ptx": true, "pxn": true, "r3d": true, "raf": true,
	"raw": true, "rw2": true, "rwl": true, "rwz": true, "sr2": true,
	"srf": true, "srw": true, "x3f": true,
}

// Ext returns the lowercased extension of path without the leading dot.
func Ext(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}
