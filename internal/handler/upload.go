package handler

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tidwall/gjson"

	"github.com/lowkeyarhan/Socket-P-assignment/internal/wire"
)

// uploadTarget is the only POST path this server recognizes; any other POST
// target is a 404 (spec §4.4).
const uploadTarget = "/upload"

// maxFilenameAttempts bounds the collision-retry loop (spec §3 "Upload
// Record" invariant: collisions are retried, not fatal, up to a small cap).
const maxFilenameAttempts = 8

// errFilenameExhausted is returned internally when every retry collided;
// callers never see it directly — it surfaces as a 500.
var errFilenameExhausted = errors.New("handler: exhausted upload filename attempts")

// PersistUpload implements the POST resource handler (spec §4.4). target is
// the URL-decoded request path with any query string removed (not joined to
// the content root — /upload is not a filesystem resource, so it bypasses
// the GET path lookup) and uploadsDir is <content root>/uploads.
func PersistUpload(target string, body []byte, uploadsDir string) *wire.Response {
	if target != uploadTarget {
		return notFound()
	}
	if !gjson.ValidBytes(body) {
		return &wire.Response{
			Status:      400,
			ContentType: "application/json",
			Body:        []byte(`{"error":"invalid JSON payload"}`),
		}
	}

	if err := os.MkdirAll(uploadsDir, 0o750); err != nil {
		return internalError()
	}

	filename, err := writeUploadFile(uploadsDir, body)
	if err != nil {
		return internalError()
	}

	return &wire.Response{
		Status:      201,
		ContentType: "application/json",
		Body:        []byte(fmt.Sprintf(`{"status":"success","message":"File created successfully","filepath":"/uploads/%s"}`, filename)),
	}
}

// writeUploadFile composes a collision-free filename and writes body to it,
// retrying on collision per spec §3's Upload Record invariant.
func writeUploadFile(uploadsDir string, body []byte) (string, error) {
	for attempt := 0; attempt < maxFilenameAttempts; attempt++ {
		filename := generateUploadFilename(time.Now().UTC())
		path := filepath.Join(uploadsDir, filename)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
		if err != nil {
			if os.IsExist(err) {
				continue // collision — retry with a fresh random suffix
			}
			return "", err
		}
		_, writeErr := f.Write(body)
		closeErr := f.Close()
		if writeErr != nil {
			os.Remove(path)
			return "", writeErr
		}
		if closeErr != nil {
			os.Remove(path)
			return "", closeErr
		}
		return filename, nil
	}
	return "", errFilenameExhausted
}

// generateUploadFilename builds "upload_<YYYYMMDD>_<HHMMSS>_<4-hex>.json"
// from a cryptographically-unpredictable 16-bit suffix (spec §3).
func generateUploadFilename(now time.Time) string {
	var suffix [2]byte
	// crypto/rand.Read fills a byte slice with secure random data; a read
	// failure here is vanishingly unlikely and, per Go convention, the zero
	// value is still a usable (if less unpredictable) fallback suffix.
	_, _ = rand.Read(suffix[:])
	return fmt.Sprintf("upload_%s_%s_%s.json",
		now.Format("20060102"),
		now.Format("150405"),
		hex.EncodeToString(suffix[:]),
	)
}
