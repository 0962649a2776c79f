package services

import (
	"net/http"
	"path/filepath"
	"strings"
)

// MaxUploadSize caps resumes and logos.
const MaxUploadSize = 5 << 20

// Upload is a file received from a multipart form.
type Upload struct {
	Filename string
	Data     []byte
}

var resumeTypes = map[string]string{
	"application/pdf": ".pdf",
	"image/png":       ".png",
	"image/jpeg":      ".jpg",
	"text/plain":      ".txt",
}

var logoTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
}

// sniff detects the content type of an upload from its bytes and checks it
// against allowed. It returns the bare MIME type and the extension to store under.
func sniff(up Upload, allowed map[string]string) (string, string, error) {
	if len(up.Data) == 0 {
		return "", "", invalid("file is empty")
	}
	if len(up.Data) > MaxUploadSize {
		return "", "", invalid("file exceeds the %d MB limit", MaxUploadSize>>20)
	}
	mimeType := http.DetectContentType(up.Data)
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	ext, ok := allowed[mimeType]
	if !ok {
		return "", "", invalid("unsupported file type %s", mimeType)
	}
	// keep a more specific extension the client sent, e.g. .jpeg or .text
	if given := strings.ToLower(filepath.Ext(up.Filename)); given != "" && allowedExt(given, mimeType) {
		ext = given
	}
	return mimeType, ext, nil
}

func allowedExt(ext, mimeType string) bool {
	switch mimeType {
	case "image/jpeg":
		return ext == ".jpg" || ext == ".jpeg"
	case "text/plain":
		return ext == ".txt" || ext == ".text" || ext == ".md"
	}
	return false
}
