package models

// SlidePatch names the slide fields an update may change.
// Nil fields are left untouched; a non-nil Objects slice replaces the list.
type SlidePatch struct {
	Name       *string       `json:"name,omitempty"`
	Background *Background   `json:"background,omitempty"`
	Objects    []SceneObject `json:"objects,omitempty"`
}

// Apply returns s with the patch merged in
func (p SlidePatch) Apply(s Slide) Slide {
	out := s.Clone()
	if p.Name != nil {
		out.Name = *p.Name
	}
	if p.Background != nil {
		out.Background = *p.Background
		if p.Background.Image != nil {
			img := *p.Background.Image
			out.Background.Image = &img
		}
	}
	if p.Objects != nil {
		out.Objects = make([]SceneObject, len(p.Objects))
		copy(out.Objects, p.Objects)
	}
	return out
}

// ObjectPatch names the object-level fields an update may change.
// Id and type are fixed for the object's lifetime. Data, when set,
// replaces the whole payload; use DataPatch to change single fields.
type ObjectPatch struct {
	X        *float64    `json:"x,omitempty"`
	Y        *float64    `json:"y,omitempty"`
	W        *float64    `json:"w,omitempty"`
	H        *float64    `json:"h,omitempty"`
	Rotation *float64    `json:"rotation,omitempty"`
	Data     *ObjectData `json:"data,omitempty"`
}

// Apply returns o with the patch merged in
func (p ObjectPatch) Apply(o SceneObject) SceneObject {
	if p.X != nil {
		o.X = *p.X
	}
	if p.Y != nil {
		o.Y = *p.Y
	}
	if p.W != nil {
		o.W = *p.W
	}
	if p.H != nil {
		o.H = *p.H
	}
	if p.Rotation != nil {
		o.Rotation = *p.Rotation
	}
	if p.Data != nil {
		o.Data = *p.Data
	}
	return o
}

// DataPatch names the payload fields an update may change
type DataPatch struct {
	Text        *string    `json:"text,omitempty"`
	Size        *int       `json:"size,omitempty"`
	Color       *string    `json:"color,omitempty"`
	Align       *string    `json:"align,omitempty"`
	Weight      *int       `json:"weight,omitempty"`
	Font        *string    `json:"font,omitempty"`
	Italic      *bool      `json:"italic,omitempty"`
	Shape       *ShapeKind `json:"shape,omitempty"`
	Stroke      *string    `json:"stroke,omitempty"`
	Fill        *bool      `json:"fill,omitempty"`
	StrokeWidth *float64   `json:"strokeWidth,omitempty"`
	DataURL     *string    `json:"dataUrl,omitempty"`
	PreviewURL  *string    `json:"previewUrl,omitempty"`
	Name        *string    `json:"name,omitempty"`
}

// Apply returns d with the patch merged in
func (p DataPatch) Apply(d ObjectData) ObjectData {
	setString(&d.Text, p.Text)
	setString(&d.Color, p.Color)
	setString(&d.Align, p.Align)
	setString(&d.Font, p.Font)
	setString(&d.Stroke, p.Stroke)
	setString(&d.DataURL, p.DataURL)
	setString(&d.PreviewURL, p.PreviewURL)
	setString(&d.Name, p.Name)
	if p.Size != nil {
		d.Size = *p.Size
	}
	if p.Weight != nil {
		d.Weight = *p.Weight
	}
	if p.Italic != nil {
		d.Italic = *p.Italic
	}
	if p.Shape != nil {
		d.Shape = *p.Shape
	}
	if p.Fill != nil {
		d.Fill = *p.Fill
	}
	if p.StrokeWidth != nil {
		d.StrokeWidth = *p.StrokeWidth
	}
	return d
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
