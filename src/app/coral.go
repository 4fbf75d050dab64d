package app

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Coral struct {
	ID              string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	Species         string     `gorm:"not null" json:"species"`
	Placement       *string    `json:"placement"`
	Color           *string    `json:"color"`
	Size            *string    `json:"size"`
	AcquisitionDate *time.Time `json:"acquisitionDate"`
	Source          *string    `json:"source"`
	Notes           *string    `json:"notes"`
	ImageKey        *string    `json:"-"`
	AquariumID      string     `gorm:"type:varchar(36);index;not null" json:"aquariumId"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

func (c *Coral) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

func (c *Coral) ParentAquariumID() string {
	return c.AquariumID
}

type CoralInput struct {
	Species         string     `json:"species" binding:"required"`
	Placement       *string    `json:"placement"`
	Color           *string    `json:"color"`
	Size            *string    `json:"size"`
	AcquisitionDate *time.Time `json:"acquisitionDate"`
	Source          *string    `json:"source"`
	Notes           *string    `json:"notes"`
}

type CoralPatch struct {
	Species         *string    `json:"species" binding:"omitempty,min=1"`
	Placement       *string    `json:"placement"`
	Color           *string    `json:"color"`
	Size            *string    `json:"size"`
	AcquisitionDate *time.Time `json:"acquisitionDate"`
	Source          *string    `json:"source"`
	Notes           *string    `json:"notes"`
}

func (p CoralPatch) Fields() map[string]any {
	fields := map[string]any{}
	if p.Species != nil {
		fields["species"] = *p.Species
	}
	if p.Placement != nil {
		fields["placement"] = *p.Placement
	}
	if p.Color != nil {
		fields["color"] = *p.Color
	}
	if p.Size != nil {
		fields["size"] = *p.Size
	}
	if p.AcquisitionDate != nil {
		fields["acquisition_date"] = *p.AcquisitionDate
	}
	if p.Source != nil {
		fields["source"] = *p.Source
	}
	if p.Notes != nil {
		fields["notes"] = *p.Notes
	}
	return fields
}
