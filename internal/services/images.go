package services

import (
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"

	"powerslide/internal/models"
)

// IngestImage reads an uploaded image and returns the payload of an image
// object whose data URL embeds the file, so it survives export and reload.
func IngestImage(name string, r io.Reader, maxBytes int64) (models.ObjectData, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return models.ObjectData{}, fmt.Errorf("failed to read image: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return models.ObjectData{}, fmt.Errorf("%w: larger than %d bytes", models.ErrInvalidImage, maxBytes)
	}
	if len(data) == 0 {
		return models.ObjectData{}, fmt.Errorf("%w: empty file", models.ErrInvalidImage)
	}

	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return models.ObjectData{}, fmt.Errorf("%w: unsupported content type %s", models.ErrInvalidImage, mimeType)
	}

	return models.ObjectData{
		DataURL: "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data),
		Name:    name,
	}, nil
}

// decodeDataURL returns the bytes of a base64 data URL, or of bare base64
func decodeDataURL(value string) ([]byte, string, error) {
	mimeType := ""
	payload := value
	if strings.HasPrefix(value, "data:") {
		header, body, ok := strings.Cut(value, ",")
		if !ok || !strings.HasSuffix(header, ";base64") {
			return nil, "", fmt.Errorf("%w: malformed data URL", models.ErrInvalidImage)
		}
		mimeType = strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
		payload = body
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("%w: failed to decode base64: %v", models.ErrInvalidImage, err)
	}
	return data, mimeType, nil
}
