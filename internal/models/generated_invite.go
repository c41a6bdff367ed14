package models

import (
	"gorm.io/datatypes"
)

// GeneratedInvite is the immutable record of one render: the resolved element
// list actually drawn, the inputs used, and the stored output image URL.
// Records are write-once; there is no update or delete path.
type GeneratedInvite struct {
	BaseModel

	TemplateID   string `gorm:"type:uuid;index;not null" json:"template_id"`
	TemplateName string `gorm:"type:varchar(200)" json:"template_name"`

	Background string `gorm:"type:text" json:"background"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`

	Elements       datatypes.JSONType[[]Element] `json:"elements"`
	Customizations datatypes.JSONMap             `json:"customizations"`

	ImageURL string `gorm:"type:text" json:"image_url"`
}
