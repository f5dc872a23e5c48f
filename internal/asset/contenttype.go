package asset

import "strings"

// ExtensionFor maps a content type to the file extension used in keys.
func ExtensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg", "image/jpg", "image/pjpeg":
		return "jpg"
	case "image/png", "image/x-png":
		return "png"
	case "image/gif":
		return "gif"
	case "image/tiff":
		return "tiff"
	default:
		return "unknown_" + unknownReplacer.Replace(contentType)
	}
}

var unknownReplacer = strings.NewReplacer("/", "-", " ", "-", "(", "", ")", "", ".", "")
