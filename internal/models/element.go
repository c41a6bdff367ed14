package models

// Element types. The type of an element never changes after creation.
const (
	ElementText  = "text"
	ElementImage = "image"
)

// Image shapes.
const (
	ShapeRectangle = "rectangle"
	ShapeCircle    = "circle"
)

// Element is one positioned text or image unit on a template canvas.
// Elements are stored as a JSON column on Template; the slice order is the
// paint order (later elements draw over earlier ones).
type Element struct {
	Type string `json:"type"`
	X    int    `json:"x"`
	Y    int    `json:"y"`

	// Text fields.
	Content    string `json:"content,omitempty"`
	FontSize   int    `json:"fontSize,omitempty"`
	FontFamily string `json:"fontFamily,omitempty"`
	Color      string `json:"color,omitempty"`
	TextAlign  string `json:"textAlign,omitempty"`

	// Image fields. Src is nil until a customization supplies an image.
	Src    *string `json:"src,omitempty"`
	Width  int     `json:"width,omitempty"`
	Height int     `json:"height,omitempty"`
	Shape  string  `json:"shape,omitempty"`
}

// Clone returns a deep copy so render-time customization never touches the
// stored template.
func (e Element) Clone() Element {
	cpy := e
	if e.Src != nil {
		src := *e.Src
		cpy.Src = &src
	}
	return cpy
}

// CloneElements deep-copies an element list preserving order.
func CloneElements(elements []Element) []Element {
	if elements == nil {
		return nil
	}
	out := make([]Element, len(elements))
	for i, el := range elements {
		out[i] = el.Clone()
	}
	return out
}
