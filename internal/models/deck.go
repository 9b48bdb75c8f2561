package models

import "encoding/json"

// ObjectType identifies which payload a scene object carries
type ObjectType string

const (
	ObjectText  ObjectType = "text"
	ObjectShape ObjectType = "shape"
	ObjectImage ObjectType = "image"
)

// Valid reports whether t is one of the known object types
func (t ObjectType) Valid() bool {
	switch t {
	case ObjectText, ObjectShape, ObjectImage:
		return true
	}
	return false
}

// ShapeKind is the outline drawn by a shape object
type ShapeKind string

const (
	ShapeRect    ShapeKind = "rect"
	ShapeEllipse ShapeKind = "ellipse"
)

// Background represents the fill behind a slide's objects
type Background struct {
	Color string  `json:"color"`
	Image *string `json:"image"`
}

// ObjectData is the type-specific payload of a scene object.
// Text, shape and image objects each use their own subset of fields;
// SceneObject writes only that subset, zero values included.
type ObjectData struct {
	// text
	Text   string `json:"text,omitempty"`
	Size   int    `json:"size,omitempty"`
	Color  string `json:"color,omitempty"`
	Align  string `json:"align,omitempty"`
	Weight int    `json:"weight,omitempty"`
	Font   string `json:"font,omitempty"`
	Italic bool   `json:"italic,omitempty"`

	// shape (Color is shared with text)
	Shape       ShapeKind `json:"shape,omitempty"`
	Stroke      string    `json:"stroke,omitempty"`
	Fill        bool      `json:"fill,omitempty"`
	StrokeWidth float64   `json:"strokeWidth,omitempty"`

	// image; PreviewURL is session-only and never persisted
	DataURL    string `json:"dataUrl,omitempty"`
	PreviewURL string `json:"previewUrl,omitempty"`
	Name       string `json:"name,omitempty"`
}

// SceneObject represents a positioned element on a slide
type SceneObject struct {
	ID       string     `json:"id"`
	Type     ObjectType `json:"type"`
	X        float64    `json:"x"`
	Y        float64    `json:"y"`
	W        float64    `json:"w"`
	H        float64    `json:"h"`
	Rotation float64    `json:"rotation"`
	Data     ObjectData `json:"data"`
}

type textPayload struct {
	Text   string `json:"text"`
	Size   int    `json:"size"`
	Color  string `json:"color"`
	Align  string `json:"align"`
	Weight int    `json:"weight"`
	Font   string `json:"font"`
	Italic bool   `json:"italic"`
}

type shapePayload struct {
	Shape       ShapeKind `json:"shape"`
	Color       string    `json:"color"`
	Stroke      string    `json:"stroke"`
	Fill        bool      `json:"fill"`
	StrokeWidth float64   `json:"strokeWidth"`
}

type imagePayload struct {
	DataURL    string `json:"dataUrl"`
	PreviewURL string `json:"previewUrl,omitempty"`
	Name       string `json:"name"`
}

// payload picks the fields that belong to objects of type t
func (d ObjectData) payload(t ObjectType) any {
	switch t {
	case ObjectText:
		return textPayload{d.Text, d.Size, d.Color, d.Align, d.Weight, d.Font, d.Italic}
	case ObjectShape:
		return shapePayload{d.Shape, d.Color, d.Stroke, d.Fill, d.StrokeWidth}
	case ObjectImage:
		return imagePayload{d.DataURL, d.PreviewURL, d.Name}
	}
	return d
}

// MarshalJSON writes the payload keys of the object's type
func (o SceneObject) MarshalJSON() ([]byte, error) {
	type plain SceneObject
	return json.Marshal(struct {
		plain
		Data any `json:"data"`
	}{plain(o), o.Data.payload(o.Type)})
}

// Slide represents one page of a deck. Objects are kept in z-order,
// the last one is drawn on top.
type Slide struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Background Background    `json:"background"`
	Objects    []SceneObject `json:"objects"`
}

// Clone returns a copy of the slide that shares no memory with s
func (s Slide) Clone() Slide {
	out := s
	if s.Background.Image != nil {
		img := *s.Background.Image
		out.Background.Image = &img
	}
	out.Objects = make([]SceneObject, len(s.Objects))
	copy(out.Objects, s.Objects)
	return out
}

// Document is the persisted form of a deck: what goes to the sink and to deck files
type Document struct {
	Title  string  `json:"title"`
	Slides []Slide `json:"slides"`
}

// WithoutPreviews returns a deep copy of d with session-only image previews removed
func (d Document) WithoutPreviews() Document {
	out := Document{Title: d.Title, Slides: make([]Slide, len(d.Slides))}
	for i, s := range d.Slides {
		c := s.Clone()
		for j := range c.Objects {
			c.Objects[j].Data.PreviewURL = ""
		}
		out.Slides[i] = c
	}
	return out
}

// Deck is the full editor state. Version grows with every change the
// store makes and is never persisted.
type Deck struct {
	Title     string    `json:"title"`
	Slides    []Slide   `json:"slides"`
	Current   int       `json:"current"`
	Selection Selection `json:"selection"`
	Version   uint64    `json:"version"`
}

// Clone returns a deep copy of the deck
func (d Deck) Clone() Deck {
	out := Deck{
		Title:     d.Title,
		Slides:    make([]Slide, len(d.Slides)),
		Current:   d.Current,
		Selection: append(Selection{}, d.Selection...),
		Version:   d.Version,
	}
	for i, s := range d.Slides {
		out.Slides[i] = s.Clone()
	}
	return out
}

// Document returns the persisted part of the deck
func (d Deck) Document() Document {
	return Document{Title: d.Title, Slides: d.Slides}.WithoutPreviews()
}

// Selection is a set of object ids kept in the order they were selected.
// Ids are weak references and may point at objects that no longer exist.
type Selection []string

// Contains reports whether id is selected
func (s Selection) Contains(id string) bool {
	for _, v := range s {
		if v == id {
			return true
		}
	}
	return false
}

// Toggle flips membership of id. Additive toggles within the existing set.
// Non-additive replaces the set with just id, except when id is already the
// sole member, in which case the selection becomes empty.
func (s Selection) Toggle(id string, additive bool) Selection {
	if !additive {
		if len(s) == 1 && s[0] == id {
			return Selection{}
		}
		return Selection{id}
	}
	out := make(Selection, 0, len(s)+1)
	found := false
	for _, v := range s {
		if v == id {
			found = true
			continue
		}
		out = append(out, v)
	}
	if !found {
		out = append(out, id)
	}
	return out
}
