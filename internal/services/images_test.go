package services

import (
	"bytes"
	"image"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"powerslide/internal/models"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func TestIngestImage(t *testing.T) {
	data, err := IngestImage("cat.png", bytes.NewReader(pngBytes(t, 4, 3)), 1<<20)
	require.NoError(t, err)

	assert.Equal(t, "cat.png", data.Name)
	assert.True(t, strings.HasPrefix(data.DataURL, "data:image/png;base64,"))
	assert.Empty(t, data.PreviewURL)

	decoded, mimeType, err := decodeDataURL(data.DataURL)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mimeType)
	assert.Equal(t, pngBytes(t, 4, 3), decoded)
}

func TestIngestImage_Rejects(t *testing.T) {
	_, err := IngestImage("notes.txt", strings.NewReader("plain text"), 1<<20)
	assert.ErrorIs(t, err, models.ErrInvalidImage)

	_, err = IngestImage("empty.png", strings.NewReader(""), 1<<20)
	assert.ErrorIs(t, err, models.ErrInvalidImage)

	_, err = IngestImage("big.png", bytes.NewReader(pngBytes(t, 64, 64)), 10)
	assert.ErrorIs(t, err, models.ErrInvalidImage)
}

func TestDecodeDataURL(t *testing.T) {
	data, mimeType, err := decodeDataURL("aGk=")
	require.NoError(t, err)
	assert.Equal(t, "", mimeType)
	assert.Equal(t, []byte("hi"), data)

	_, _, err = decodeDataURL("data:image/png,raw")
	assert.ErrorIs(t, err, models.ErrInvalidImage)

	_, _, err = decodeDataURL("!!!")
	assert.ErrorIs(t, err, models.ErrInvalidImage)
}
