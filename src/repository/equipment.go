package repository

import (
	"context"

	"gorm.io/gorm"

	"reefing/src/app"
)

// Equipment is the resource service for app.Equipment.
type Equipment struct {
	db *gorm.DB
}

func NewEquipment(db *gorm.DB) *Equipment {
	return &Equipment{db: db}
}

func (r *Equipment) FindByID(ctx context.Context, id string) (*app.Equipment, error) {
	var equipment app.Equipment
	if err := r.db.WithContext(ctx).First(&equipment, "id = ?", id).Error; err != nil {
		return nil, translate("equipment.FindByID", "Equipment", err)
	}
	return &equipment, nil
}

func (r *Equipment) FindByAquariumID(ctx context.Context, aquariumID string) ([]app.Equipment, error) {
	var equipment []app.Equipment
	err := r.db.WithContext(ctx).Where("aquarium_id = ?", aquariumID).Order("created_at DESC").Find(&equipment).Error
	if err != nil {
		return nil, app.Internal("equipment.FindByAquariumID", err)
	}
	return equipment, nil
}

func (r *Equipment) Create(ctx context.Context, aquariumID string, input app.EquipmentInput) (*app.Equipment, error) {
	equipment := &app.Equipment{
		Name:       input.Name,
		Type:       input.Type,
		Brand:      input.Brand,
		Notes:      input.Notes,
		AquariumID: aquariumID,
	}
	if err := r.db.WithContext(ctx).Create(equipment).Error; err != nil {
		return nil, app.Internal("equipment.Create", err)
	}
	return equipment, nil
}

func (r *Equipment) Update(ctx context.Context, id string, patch app.EquipmentPatch) (*app.Equipment, error) {
	if fields := patch.Fields(); len(fields) > 0 {
		res := r.db.WithContext(ctx).Model(&app.Equipment{ID: id}).Updates(fields)
		if res.Error != nil {
			return nil, app.Internal("equipment.Update", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, app.NotFound("Equipment")
		}
	}
	return r.FindByID(ctx, id)
}

func (r *Equipment) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&app.Equipment{}, "id = ?", id)
	if res.Error != nil {
		return app.Internal("equipment.Delete", res.Error)
	}
	if res.RowsAffected == 0 {
		return app.NotFound("Equipment")
	}
	return nil
}
