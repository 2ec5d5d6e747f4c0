package models

import "time"

type Category struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name        string    `json:"name" gorm:"type:varchar(100);not null"`
	Slug        string    `json:"slug" gorm:"uniqueIndex;type:varchar(120);not null"`
	Description string    `json:"description,omitempty" gorm:"type:text"`
	Image       string    `json:"image,omitempty" gorm:"type:varchar(500)"`
	ParentID    *string   `json:"parentId" gorm:"index;type:varchar(36)"`
	IsActive    bool      `json:"isActive" gorm:"not null"`
	SortOrder   int       `json:"sortOrder" gorm:"not null"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
