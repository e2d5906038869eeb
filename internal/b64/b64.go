// Package b64 decodes base64 payloads that may be wrapped in a data URL.
package b64

import (
	"encoding/base64"
	"strings"
)

// Decode decodes standard base64 data. A leading "data:<mime>;base64,"
// prefix is accepted and stripped.
func Decode(s string) ([]byte, error) {
	if strings.HasPrefix(s, "data:") {
		if idx := strings.Index(s, ";base64,"); idx > -1 {
			s = s[idx+len(";base64,"):]
		}
	}
	return base64.StdEncoding.DecodeString(strings.TrimSpace(s))
}
