package models

const (
	// PersistKey is the sink key the deck document is stored under
	PersistKey = "cspowerslide:v1"

	DefaultTitle  = "Untitled Deck"
	ImportedTitle = "Imported Deck"

	DefaultSlideName       = "Slide"
	DefaultBackgroundColor = "#0b1020"
)

// BlankSlide creates an empty slide with the given id
func BlankSlide(id string) Slide {
	return Slide{
		ID:         id,
		Name:       DefaultSlideName,
		Background: Background{Color: DefaultBackgroundColor},
		Objects:    []SceneObject{},
	}
}

// TextPreset is a new text box as the toolbar inserts it
func TextPreset() SceneObject {
	return SceneObject{
		Type: ObjectText,
		X:    80,
		Y:    80,
		W:    360,
		H:    90,
		Data: ObjectData{
			Text:   "Double-click to edit",
			Size:   28,
			Color:  "#e5e7eb",
			Align:  "left",
			Weight: 700,
			Font:   "Arial",
		},
	}
}

// ShapePreset is a new filled shape of the given kind
func ShapePreset(kind ShapeKind) SceneObject {
	return SceneObject{
		Type: ObjectShape,
		X:    120,
		Y:    120,
		W:    240,
		H:    150,
		Data: ObjectData{
			Shape:       kind,
			Color:       "#22d3ee",
			Stroke:      "#0ea5b7",
			Fill:        true,
			StrokeWidth: 3,
		},
	}
}

// ImagePreset places an ingested image at the default position
func ImagePreset(data ObjectData) SceneObject {
	return SceneObject{
		Type: ObjectImage,
		X:    100,
		Y:    100,
		W:    360,
		H:    240,
		Data: data,
	}
}

// Preset returns the default object for a preset name:
// "text", "rect" or "ellipse"
func Preset(name string) (SceneObject, bool) {
	switch name {
	case "text":
		return TextPreset(), true
	case string(ShapeRect):
		return ShapePreset(ShapeRect), true
	case string(ShapeEllipse):
		return ShapePreset(ShapeEllipse), true
	}
	return SceneObject{}, false
}
