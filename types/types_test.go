package types

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

var _ = fmt.Print

func TestExt(t *testing.T) {
	testCases := []struct {
		path string
		want string
	}{
		{"a.NEF", "nef"},
		{"/x/y.tar.GZ", "gz"},
		{"noext", ""},
		{"dir.d/file", ""},
		{".hidden", "hidden"},
	}
	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			require.Equal(t, tc.want, Ext(tc.path))
		})
	}
}

func TestFormatFromDecodeResult(t *testing.T) {
	for name, f := range map[string]Format{
		"jpeg": JPEG, "png": PNG, "gif": GIF, "tiff": TIFF, "webp": WEBP, "bmp": BMP, "JPEG": JPEG, "pnm": UNKNOWN,
	} {
		require.Equal(t, f, FormatFromDecodeResult(name), name)
	}
	require.Equal(t, "TIFF", TIFF.String())
	require.Equal(t, "", UNKNOWN.String())
}
