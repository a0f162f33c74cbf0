package strategy

import (
	"net/http"
	"path"
	"strings"
)

// Class represents a request classification driving strategy selection.
type Class string

const (
	// ClassAPI matches requests under the API namespace.
	ClassAPI Class = "api"

	// ClassImage matches image requests.
	ClassImage Class = "image"

	// ClassAsset matches style, script, and font requests.
	ClassAsset Class = "asset"

	// ClassDocument matches everything else (documents, navigations).
	ClassDocument Class = "document"
)

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
	".svg":  true,
	".ico":  true,
	".avif": true,
}

var assetExtensions = map[string]bool{
	".css":   true,
	".js":    true,
	".mjs":   true,
	".woff":  true,
	".woff2": true,
	".ttf":   true,
	".otf":   true,
	".eot":   true,
}

// Classify determines which strategy handles a request. First match wins:
// API prefix, then image, then style/script/font, then document.
func (i *Interceptor) Classify(req *http.Request) Class {
	if strings.HasPrefix(req.URL.Path, i.apiPrefix) {
		return ClassAPI
	}
	if isImage(req) {
		return ClassImage
	}
	if isAsset(req) {
		return ClassAsset
	}
	return ClassDocument
}

// isImage matches by file extension or by an image Accept header.
func isImage(req *http.Request) bool {
	if imageExtensions[strings.ToLower(path.Ext(req.URL.Path))] {
		return true
	}
	return strings.HasPrefix(req.Header.Get("Accept"), "image/")
}

// isAsset matches stylesheets, scripts, and fonts by file extension.
func isAsset(req *http.Request) bool {
	return assetExtensions[strings.ToLower(path.Ext(req.URL.Path))]
}
