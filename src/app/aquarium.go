package app

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Aquarium types accepted on create and update.
const (
	AquariumReef       = "reef"
	AquariumSaltwater  = "saltwater"
	AquariumFreshwater = "freshwater"
)

type Aquarium struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	Type        string    `gorm:"not null" json:"type"`
	Volume      float64   `gorm:"not null" json:"volume"`
	Description *string   `json:"description"`
	UserID      string    `gorm:"type:varchar(36);index;not null" json:"userId"`
	CreatedAt   time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	User      *User           `gorm:"foreignKey:UserID" json:"-"`
	Photos    []AquariumPhoto `gorm:"foreignKey:AquariumID" json:"-"`
	Equipment []Equipment     `gorm:"foreignKey:AquariumID" json:"-"`
	Corals    []Coral         `gorm:"foreignKey:AquariumID" json:"-"`
}

func (a *Aquarium) BeforeCreate(*gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// AquariumPhoto is one of the many photos of an aquarium.
type AquariumPhoto struct {
	ID         string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	AquariumID string    `gorm:"type:varchar(36);index;not null" json:"aquariumId"`
	ImageKey   string    `gorm:"not null" json:"-"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (p *AquariumPhoto) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

func (p *AquariumPhoto) ParentAquariumID() string {
	return p.AquariumID
}

type AquariumInput struct {
	Name        string  `json:"name" binding:"required"`
	Type        string  `json:"type" binding:"required,oneof=reef saltwater freshwater"`
	Volume      float64 `json:"volume" binding:"required,gt=0"`
	Description *string `json:"description"`
}

type AquariumPatch struct {
	Name        *string  `json:"name" binding:"omitempty,min=1"`
	Type        *string  `json:"type" binding:"omitempty,oneof=reef saltwater freshwater"`
	Volume      *float64 `json:"volume" binding:"omitempty,gt=0"`
	Description *string  `json:"description"`
}

func (p AquariumPatch) Fields() map[string]any {
	fields := map[string]any{}
	if p.Name != nil {
		fields["name"] = *p.Name
	}
	if p.Type != nil {
		fields["type"] = *p.Type
	}
	if p.Volume != nil {
		fields["volume"] = *p.Volume
	}
	if p.Description != nil {
		fields["description"] = *p.Description
	}
	return fields
}
