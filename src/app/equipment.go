package app

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Equipment struct {
	ID         string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name       string    `gorm:"not null" json:"name"`
	Type       string    `gorm:"not null" json:"type"`
	Brand      *string   `json:"brand"`
	Notes      *string   `json:"notes"`
	AquariumID string    `gorm:"type:varchar(36);index;not null" json:"aquariumId"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (e *Equipment) BeforeCreate(*gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

func (e *Equipment) ParentAquariumID() string {
	return e.AquariumID
}

type EquipmentInput struct {
	Name  string  `json:"name" binding:"required"`
	Type  string  `json:"type" binding:"required"`
	Brand *string `json:"brand"`
	Notes *string `json:"notes"`
}

type EquipmentPatch struct {
	Name  *string `json:"name" binding:"omitempty,min=1"`
	Type  *string `json:"type" binding:"omitempty,min=1"`
	Brand *string `json:"brand"`
	Notes *string `json:"notes"`
}

func (p EquipmentPatch) Fields() map[string]any {
	fields := map[string]any{}
	if p.Name != nil {
		fields["name"] = *p.Name
	}
	if p.Type != nil {
		fields["type"] = *p.Type
	}
	if p.Brand != nil {
		fields["brand"] = *p.Brand
	}
	if p.Notes != nil {
		fields["notes"] = *p.Notes
	}
	return fields
}
