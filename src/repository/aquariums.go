package repository

import (
	"context"

	"gorm.io/gorm"

	"reefing/src/app"
)

// Aquariums is the resource service for app.Aquarium and its photos.
type Aquariums struct {
	db *gorm.DB
}

func NewAquariums(db *gorm.DB) *Aquariums {
	return &Aquariums{db: db}
}

func photosOldestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC")
}

func newestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("created_at DESC")
}

func (r *Aquariums) withChildren(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Photos", photosOldestFirst).
		Preload("Equipment", newestFirst).
		Preload("Corals", newestFirst)
}

// FindByID loads the aquarium row alone.
func (r *Aquariums) FindByID(ctx context.Context, id string) (*app.Aquarium, error) {
	var aquarium app.Aquarium
	if err := r.db.WithContext(ctx).First(&aquarium, "id = ?", id).Error; err != nil {
		return nil, translate("aquariums.FindByID", "Aquarium", err)
	}
	return &aquarium, nil
}

// FindByIDWithChildren loads the aquarium with its photos, equipment and corals.
func (r *Aquariums) FindByIDWithChildren(ctx context.Context, id string) (*app.Aquarium, error) {
	var aquarium app.Aquarium
	if err := r.withChildren(ctx).First(&aquarium, "id = ?", id).Error; err != nil {
		return nil, translate("aquariums.FindByIDWithChildren", "Aquarium", err)
	}
	return &aquarium, nil
}

// FindByUserID lists the aquariums of a user, newest first, with their photos.
func (r *Aquariums) FindByUserID(ctx context.Context, userID string) ([]app.Aquarium, error) {
	var aquariums []app.Aquarium
	err := r.db.WithContext(ctx).
		Preload("Photos", photosOldestFirst).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&aquariums).Error
	if err != nil {
		return nil, app.Internal("aquariums.FindByUserID", err)
	}
	return aquariums, nil
}

// FindByOwnerWithChildren lists the aquariums of a user with every child loaded.
func (r *Aquariums) FindByOwnerWithChildren(ctx context.Context, userID string) ([]app.Aquarium, error) {
	var aquariums []app.Aquarium
	err := r.withChildren(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&aquariums).Error
	if err != nil {
		return nil, app.Internal("aquariums.FindByOwnerWithChildren", err)
	}
	return aquariums, nil
}

// Explore lists every aquarium with owner and children, newest first. A limit of
// zero or less means no limit.
func (r *Aquariums) Explore(ctx context.Context, limit int) ([]app.Aquarium, error) {
	var aquariums []app.Aquarium
	q := r.withChildren(ctx).Preload("User").Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&aquariums).Error; err != nil {
		return nil, app.Internal("aquariums.Explore", err)
	}
	return aquariums, nil
}

func (r *Aquariums) Create(ctx context.Context, userID string, input app.AquariumInput) (*app.Aquarium, error) {
	aquarium := &app.Aquarium{
		Name:        input.Name,
		Type:        input.Type,
		Volume:      input.Volume,
		Description: input.Description,
		UserID:      userID,
	}
	if err := r.db.WithContext(ctx).Create(aquarium).Error; err != nil {
		return nil, app.Internal("aquariums.Create", err)
	}
	return aquarium, nil
}

// Update applies the fields set in patch and returns the aquarium with its children.
func (r *Aquariums) Update(ctx context.Context, id string, patch app.AquariumPatch) (*app.Aquarium, error) {
	if fields := patch.Fields(); len(fields) > 0 {
		res := r.db.WithContext(ctx).Model(&app.Aquarium{ID: id}).Updates(fields)
		if res.Error != nil {
			return nil, app.Internal("aquariums.Update", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, app.NotFound("Aquarium")
		}
	}
	return r.FindByIDWithChildren(ctx, id)
}

// Delete removes the aquarium and all its children in one transaction. It returns
// the blob keys the removed rows referenced so they can be cleaned up afterwards.
func (r *Aquariums) Delete(ctx context.Context, id string) (app.Cleanup, error) {
	var cleanup app.Cleanup
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var photoKeys []string
		if err := tx.Model(&app.AquariumPhoto{}).Where("aquarium_id = ?", id).Pluck("image_key", &photoKeys).Error; err != nil {
			return err
		}
		var coralKeys []string
		if err := tx.Model(&app.Coral{}).Where("aquarium_id = ? AND image_key IS NOT NULL", id).Pluck("image_key", &coralKeys).Error; err != nil {
			return err
		}

		for _, child := range []any{&app.AquariumPhoto{}, &app.Coral{}, &app.Equipment{}} {
			if err := tx.Where("aquarium_id = ?", id).Delete(child).Error; err != nil {
				return err
			}
		}
		res := tx.Delete(&app.Aquarium{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		for _, keys := range [][]string{photoKeys, coralKeys} {
			for i := range keys {
				cleanup = cleanup.Add(&keys[i])
			}
		}
		return nil
	})
	if err != nil {
		return nil, translate("aquariums.Delete", "Aquarium", err)
	}
	return cleanup, nil
}

// AddPhotos records uploaded blobs as photos of the aquarium.
func (r *Aquariums) AddPhotos(ctx context.Context, aquariumID string, keys []string) ([]app.AquariumPhoto, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	photos := make([]app.AquariumPhoto, len(keys))
	for i, key := range keys {
		photos[i] = app.AquariumPhoto{AquariumID: aquariumID, ImageKey: key}
	}
	if err := r.db.WithContext(ctx).Create(&photos).Error; err != nil {
		return nil, app.Internal("aquariums.AddPhotos", err)
	}
	return photos, nil
}

func (r *Aquariums) ListPhotos(ctx context.Context, aquariumID string) ([]app.AquariumPhoto, error) {
	var photos []app.AquariumPhoto
	err := r.db.WithContext(ctx).Where("aquarium_id = ?", aquariumID).Order("created_at ASC").Find(&photos).Error
	if err != nil {
		return nil, app.Internal("aquariums.ListPhotos", err)
	}
	return photos, nil
}

func (r *Aquariums) FindPhoto(ctx context.Context, id string) (*app.AquariumPhoto, error) {
	var photo app.AquariumPhoto
	if err := r.db.WithContext(ctx).First(&photo, "id = ?", id).Error; err != nil {
		return nil, translate("aquariums.FindPhoto", "Photo", err)
	}
	return &photo, nil
}

func (r *Aquariums) DeletePhoto(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&app.AquariumPhoto{}, "id = ?", id)
	if res.Error != nil {
		return app.Internal("aquariums.DeletePhoto", res.Error)
	}
	if res.RowsAffected == 0 {
		return app.NotFound("Photo")
	}
	return nil
}
