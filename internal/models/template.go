package models

import (
	"gorm.io/datatypes"
)

// Template is a reusable invite layout: positioned elements over a background
// on a fixed-size canvas. Background is either a hex color ("#rrggbb") or an
// inline data URI image.
type Template struct {
	BaseModel

	Name    string `gorm:"type:varchar(200);not null" json:"name"`
	OwnerID string `gorm:"type:uuid;index" json:"owner_id"`

	// IsPublic templates are readable by any authenticated caller.
	IsPublic bool `gorm:"default:false" json:"is_public"`

	Background string `gorm:"type:text;not null" json:"background"`
	Width      int    `gorm:"not null" json:"width"`
	Height     int    `gorm:"not null" json:"height"`

	Elements datatypes.JSONType[[]Element] `json:"elements"`
}

// ElementList returns the decoded element slice.
func (t *Template) ElementList() []Element {
	return t.Elements.Data()
}

// SetElements stores the element slice on the JSON column.
func (t *Template) SetElements(elements []Element) {
	t.Elements = datatypes.NewJSONType(elements)
}
