package nodes

import (
	"encoding/base64"
	"os"
	"strings"
)

// ImageURL returns ref unchanged when it is an http(s) URL. Any other
// reference is read from disk and returned as a base64 data URL; the media
// type is always image/jpeg.
func ImageURL(ref string) (string, error) {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref, nil
	}
	data, err := os.ReadFile(ref)
	if err != nil {
		return "", err
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(data), nil
}
