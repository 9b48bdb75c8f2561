package services

import (
	"bytes"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"powerslide/internal/logger"
	"powerslide/internal/models"
)

// ExportScale is the factor slides are rasterized at before export
const ExportScale = 2

// Orientation of an exported PDF page
type Orientation string

const (
	Landscape Orientation = "landscape"
	Portrait  Orientation = "portrait"
)

// OrientationFor returns landscape when width >= height
func OrientationFor(width, height int) Orientation {
	if width >= height {
		return Landscape
	}
	return Portrait
}

// SlideRaster describes a rendered slide image
type SlideRaster struct {
	SlideID string `json:"slideId"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
}

// PDFPage is one page of an exported deck
type PDFPage struct {
	SlideID     string      `json:"slideId"`
	Width       int         `json:"width"`
	Height      int         `json:"height"`
	Orientation Orientation `json:"orientation"`
}

// PDFLayout is what a PDF writer needs to assemble the deck
type PDFLayout struct {
	Filename string    `json:"filename"`
	Pages    []PDFPage `json:"pages"`
}

// BuildPDFLayout lays out one page per raster. Every page takes the first
// raster's pixel size so the document has a uniform page format.
func BuildPDFLayout(title string, rasters []SlideRaster) (PDFLayout, error) {
	if len(rasters) == 0 {
		return PDFLayout{}, fmt.Errorf("no slides to export")
	}
	w, h := rasters[0].Width, rasters[0].Height
	if w <= 0 || h <= 0 {
		return PDFLayout{}, fmt.Errorf("invalid page size %dx%d", w, h)
	}

	layout := PDFLayout{
		Filename: PDFFilename(title),
		Pages:    make([]PDFPage, len(rasters)),
	}
	for i, r := range rasters {
		layout.Pages[i] = PDFPage{
			SlideID:     r.SlideID,
			Width:       w,
			Height:      h,
			Orientation: OrientationFor(w, h),
		}
	}
	return layout, nil
}

// PNGFilename names the export of the slide at index (zero based)
func PNGFilename(index int) string {
	return fmt.Sprintf("slide-%d.png", index+1)
}

// PDFFilename names the deck export after its title
func PDFFilename(title string) string {
	name := sanitizeFilename(title)
	if name == "" {
		name = "untitled"
	}
	return "deck-" + name + ".pdf"
}

// SnapshotStore keeps the last rendered PNG of each slide on disk
type SnapshotStore struct {
	dataPath string
}

func NewSnapshotStore(dataPath string) *SnapshotStore {
	return &SnapshotStore{dataPath: dataPath}
}

func validSlideID(slideID string) bool {
	return slideID != "" && slideID != "." && slideID != ".." &&
		!strings.ContainsAny(slideID, `/\`)
}

func (s *SnapshotStore) path(slideID string) string {
	return filepath.Join(s.dataPath, "snapshots", slideID+".png")
}

// SaveSnapshot decodes a base64 (or data URL) PNG, checks it and writes it
// to disk. Returns the relative path and the image size.
func (s *SnapshotStore) SaveSnapshot(slideID, imageBase64 string) (string, SlideRaster, error) {
	if !validSlideID(slideID) {
		return "", SlideRaster{}, fmt.Errorf("invalid slideId %q", slideID)
	}
	if imageBase64 == "" {
		return "", SlideRaster{}, fmt.Errorf("imageBase64 is required")
	}

	imageData, mimeType, err := decodeDataURL(imageBase64)
	if err != nil {
		return "", SlideRaster{}, err
	}
	if mimeType != "" && mimeType != "image/png" {
		return "", SlideRaster{}, fmt.Errorf("%w: snapshot must be image/png, got %s", models.ErrInvalidImage, mimeType)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(imageData))
	if err != nil {
		return "", SlideRaster{}, fmt.Errorf("%w: %v", models.ErrInvalidImage, err)
	}

	// Create directory structure: snapshots/
	dirPath := filepath.Join(s.dataPath, "snapshots")
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return "", SlideRaster{}, fmt.Errorf("failed to create directory: %w", err)
	}

	filePath := s.path(slideID)
	tempPath := filePath + ".tmp"
	if err := os.WriteFile(tempPath, imageData, 0644); err != nil {
		return "", SlideRaster{}, fmt.Errorf("failed to write image file: %w", err)
	}
	if err := os.Rename(tempPath, filePath); err != nil {
		return "", SlideRaster{}, fmt.Errorf("failed to rename image file: %w", err)
	}

	raster := SlideRaster{SlideID: slideID, Width: cfg.Width, Height: cfg.Height}
	relativePath := filepath.Join("snapshots", slideID+".png")
	logger.Logger.Info().
		Str("slide_id", slideID).
		Str("path", relativePath).
		Int("width", cfg.Width).
		Int("height", cfg.Height).
		Msg("Updated slide snapshot")
	return relativePath, raster, nil
}

// Raster reads the stored snapshot's size for a slide
func (s *SnapshotStore) Raster(slideID string) (SlideRaster, error) {
	if !validSlideID(slideID) {
		return SlideRaster{}, fmt.Errorf("%w: %s", models.ErrSnapshotNotFound, slideID)
	}
	f, err := os.Open(s.path(slideID))
	if os.IsNotExist(err) {
		return SlideRaster{}, fmt.Errorf("%w: %s", models.ErrSnapshotNotFound, slideID)
	}
	if err != nil {
		return SlideRaster{}, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	cfg, err := png.DecodeConfig(f)
	if err != nil {
		return SlideRaster{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return SlideRaster{SlideID: slideID, Width: cfg.Width, Height: cfg.Height}, nil
}

// DeckLayout builds the PDF layout for slides, in order, from their snapshots
func (s *SnapshotStore) DeckLayout(title string, slides []models.Slide) (PDFLayout, error) {
	rasters := make([]SlideRaster, 0, len(slides))
	for _, slide := range slides {
		r, err := s.Raster(slide.ID)
		if err != nil {
			return PDFLayout{}, err
		}
		rasters = append(rasters, r)
	}
	return BuildPDFLayout(title, rasters)
}
