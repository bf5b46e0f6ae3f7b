// Package handler implements the two resource handlers (spec §4.3, §4.4):
// static file serving and JSON upload persistence. Both are pure functions
// over (parsed request, filesystem root) — they read exactly what they need
// from disk and return a *wire.Response; they never write to the socket
// themselves. This split mirrors the teacher's persistPart/handleDownload
// split in internal/server/server.go, generalized from multipart form parts
// to whole fixed-length request bodies.
package handler

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/lowkeyarhan/Socket-P-assignment/internal/wire"
)

// binaryExtensions are served as application/octet-stream with a
// Content-Disposition attachment header (spec §4.3).
var binaryExtensions = map[string]bool{
	".txt":  true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// ServeFile implements the GET resource handler for a canonical path that
// has already passed the security gate.
func ServeFile(canonicalPath string) *wire.Response {
	info, err := os.Stat(canonicalPath)
	if err != nil || info.IsDir() {
		return notFound()
	}

	ext := strings.ToLower(filepath.Ext(canonicalPath))
	switch {
	case ext == ".html":
		data, err := os.ReadFile(canonicalPath)
		if err != nil {
			return internalError()
		}
		return &wire.Response{
			Status:      200,
			ContentType: "text/html; charset=utf-8",
			Body:        data,
		}
	case binaryExtensions[ext]:
		data, err := os.ReadFile(canonicalPath)
		if err != nil {
			return internalError()
		}
		return &wire.Response{
			Status:      200,
			ContentType: "application/octet-stream",
			Extra: []wire.HeaderField{
				{Name: "Content-Disposition", Value: `attachment; filename="` + filepath.Base(canonicalPath) + `"`},
			},
			Body: data,
		}
	default:
		return &wire.Response{
			Status:      415,
			ContentType: "text/plain; charset=utf-8",
			Body:        []byte("415 Unsupported Media Type\n"),
		}
	}
}

func notFound() *wire.Response {
	return &wire.Response{
		Status:      404,
		ContentType: "text/plain; charset=utf-8",
		Body:        []byte("404 Not Found\n"),
	}
}

func internalError() *wire.Response {
	return &wire.Response{
		Status:      500,
		ContentType: "text/plain; charset=utf-8",
		Body:        []byte("500 Internal Server Error\n"),
	}
}
