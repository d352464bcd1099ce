package model

// swagger:model Category
type Category struct {
	BaseModel

	Name     string `gorm:"size:200;not null" json:"name"`
	Slug     string `gorm:"size:200;uniqueIndex" json:"slug"`
	ParentID *uint  `gorm:"index;type:bigint unsigned" json:"parentId,omitempty"`
	IsActive bool   `gorm:"default:true" json:"isActive"`
}

func (Category) TableName() string {
	return "categories"
}
