/*
Package imagecore loads base images for editing and composites AI patch
layers onto them.

Base images are decoded from encoded bytes: camera RAW files are handed to
a raw.Developer, everything else goes through the standard image codecs
(JPEG, PNG, GIF, TIFF, WebP, BMP) and is rotated upright according to its
EXIF orientation. Patch layers, read from the "aiPatches" array of an
adjustments document, are alpha blended onto the base image through the
mask bitmaps produced by a mask.Rasterizer.

Color lookup table ingestion lives in the lut sub-package.
*/
package imagecore

import "fmt"

type CoreVersion struct {
	Major, Minor, Patch uint
}

func (v CoreVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

var Version = CoreVersion{0, 4, 0}
