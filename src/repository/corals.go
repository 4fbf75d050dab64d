package repository

import (
	"context"

	"gorm.io/gorm"

	"reefing/src/app"
)

// Corals is the resource service for app.Coral.
type Corals struct {
	db *gorm.DB
}

func NewCorals(db *gorm.DB) *Corals {
	return &Corals{db: db}
}

func (r *Corals) FindByID(ctx context.Context, id string) (*app.Coral, error) {
	var coral app.Coral
	if err := r.db.WithContext(ctx).First(&coral, "id = ?", id).Error; err != nil {
		return nil, translate("corals.FindByID", "Coral", err)
	}
	return &coral, nil
}

func (r *Corals) FindByAquariumID(ctx context.Context, aquariumID string) ([]app.Coral, error) {
	var corals []app.Coral
	err := r.db.WithContext(ctx).Where("aquarium_id = ?", aquariumID).Order("created_at DESC").Find(&corals).Error
	if err != nil {
		return nil, app.Internal("corals.FindByAquariumID", err)
	}
	return corals, nil
}

func (r *Corals) Create(ctx context.Context, aquariumID string, input app.CoralInput) (*app.Coral, error) {
	coral := &app.Coral{
		Species:         input.Species,
		Placement:       input.Placement,
		Color:           input.Color,
		Size:            input.Size,
		AcquisitionDate: input.AcquisitionDate,
		Source:          input.Source,
		Notes:           input.Notes,
		AquariumID:      aquariumID,
	}
	if err := r.db.WithContext(ctx).Create(coral).Error; err != nil {
		return nil, app.Internal("corals.Create", err)
	}
	return coral, nil
}

func (r *Corals) Update(ctx context.Context, id string, patch app.CoralPatch) (*app.Coral, error) {
	if fields := patch.Fields(); len(fields) > 0 {
		res := r.db.WithContext(ctx).Model(&app.Coral{ID: id}).Updates(fields)
		if res.Error != nil {
			return nil, app.Internal("corals.Update", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, app.NotFound("Coral")
		}
	}
	return r.FindByID(ctx, id)
}

// Delete removes the coral and returns its image key for cleanup.
func (r *Corals) Delete(ctx context.Context, id string) (app.Cleanup, error) {
	coral, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	res := r.db.WithContext(ctx).Delete(&app.Coral{}, "id = ?", id)
	if res.Error != nil {
		return nil, app.Internal("corals.Delete", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, app.NotFound("Coral")
	}
	return app.Cleanup{}.Add(coral.ImageKey), nil
}

func (r *Corals) UpdateImageKey(ctx context.Context, id, key string) (*app.Coral, error) {
	return r.setImageKey(ctx, "corals.UpdateImageKey", id, &key)
}

func (r *Corals) ClearImageKey(ctx context.Context, id string) (*app.Coral, error) {
	return r.setImageKey(ctx, "corals.ClearImageKey", id, nil)
}

func (r *Corals) setImageKey(ctx context.Context, op, id string, key *string) (*app.Coral, error) {
	res := r.db.WithContext(ctx).Model(&app.Coral{ID: id}).Update("image_key", key)
	if res.Error != nil {
		return nil, app.Internal(op, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, app.NotFound("Coral")
	}
	return r.FindByID(ctx, id)
}
