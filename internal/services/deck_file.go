package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"powerslide/internal/models"
)

// ExportDeck renders the deck document as an indented JSON file.
// Session-only image previews are left out.
func ExportDeck(doc models.Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc.WithoutPreviews(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal deck file: %w", err)
	}
	return data, nil
}

// ExportFilename names the downloaded deck file after its title
func ExportFilename(title string) string {
	name := sanitizeFilename(title)
	if name == "" {
		name = "deck"
	}
	return name + ".json"
}

// deckFile keeps slides as a pointer so an absent field can be told apart
type deckFile struct {
	Title  string          `json:"title"`
	Slides *[]models.Slide `json:"slides"`
}

// ParseDeckFile reads an exported deck. It fails with ErrInvalidDeckFile
// when the data is not JSON or carries no slides field.
func ParseDeckFile(data []byte) (models.Document, error) {
	var file deckFile
	if err := json.Unmarshal(data, &file); err != nil {
		return models.Document{}, fmt.Errorf("%w: %v", models.ErrInvalidDeckFile, err)
	}
	if file.Slides == nil {
		return models.Document{}, fmt.Errorf("%w: missing slides", models.ErrInvalidDeckFile)
	}

	doc := models.Document{Title: file.Title, Slides: *file.Slides}
	if doc.Title == "" {
		doc.Title = models.ImportedTitle
	}
	return doc.WithoutPreviews(), nil
}

// sanitizeFilename drops path separators and control characters
func sanitizeFilename(name string) string {
	name = strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == '"':
			return '-'
		case r < 0x20:
			return -1
		}
		return r
	}, name)
	return strings.TrimSpace(name)
}
