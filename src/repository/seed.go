package repository

import (
	"context"

	"gorm.io/gorm"

	"reefing/src/app"
)

func sampleAquariums(userID string) []app.Aquarium {
	describe := func(s string) *string { return &s }
	return []app.Aquarium{
		{
			Name:        "Main Reef Display",
			Type:        app.AquariumReef,
			Volume:      180,
			Description: describe("Large mixed reef tank with SPS, LPS, and soft corals."),
			UserID:      userID,
		},
		{
			Name:        "Nano Reef",
			Type:        app.AquariumReef,
			Volume:      25,
			Description: describe("Small nano reef focused on soft corals and a few small fish."),
			UserID:      userID,
		},
	}
}

// SeedSampleAquariums gives a new user a couple of aquariums to start from.
func SeedSampleAquariums(ctx context.Context, db *gorm.DB, userID string) error {
	samples := sampleAquariums(userID)
	if err := db.WithContext(ctx).Create(&samples).Error; err != nil {
		return app.Internal("users.SeedSampleAquariums", err)
	}
	return nil
}
