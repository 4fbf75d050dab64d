package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reefing/src/app"
)

func newTank(t *testing.T, aquariums *Aquariums, userID string) *app.Aquarium {
	t.Helper()
	tank, err := aquariums.Create(context.Background(), userID, app.AquariumInput{Name: "Frag Tank", Type: "reef", Volume: 30})
	require.NoError(t, err)
	return tank
}

func TestEquipmentCRUD(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	owner := createUser(t, db, "owner@example.com", "owner", "auth0|owner")
	tank := newTank(t, NewAquariums(db), owner.ID)
	equipment := NewEquipment(db)

	brand := "EcoTech"
	created, err := equipment.Create(ctx, tank.ID, app.EquipmentInput{Name: "Vortech", Type: "pump", Brand: &brand})
	require.NoError(t, err)
	assert.Equal(t, tank.ID, created.ParentAquariumID())

	notes := "runs at 40%"
	updated, err := equipment.Update(ctx, created.ID, app.EquipmentPatch{Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, "Vortech", updated.Name)
	assert.Equal(t, "EcoTech", *updated.Brand)
	assert.Equal(t, notes, *updated.Notes)

	list, err := equipment.FindByAquariumID(ctx, tank.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, equipment.Delete(ctx, created.ID))
	assert.True(t, app.IsNotFound(equipment.Delete(ctx, created.ID)))
	_, err = equipment.FindByID(ctx, created.ID)
	assert.Equal(t, "Equipment not found", app.ErrorMessage(err))
}

func TestCoralsCRUD(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	owner := createUser(t, db, "owner@example.com", "owner", "auth0|owner")
	tank := newTank(t, NewAquariums(db), owner.ID)
	corals := NewCorals(db)

	acquired := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	color := "green"
	created, err := corals.Create(ctx, tank.ID, app.CoralInput{Species: "Montipora capricornis", Color: &color, AcquisitionDate: &acquired})
	require.NoError(t, err)

	placement := "mid"
	updated, err := corals.Update(ctx, created.ID, app.CoralPatch{Placement: &placement})
	require.NoError(t, err)
	assert.Equal(t, "Montipora capricornis", updated.Species)
	assert.Equal(t, "mid", *updated.Placement)
	require.NotNil(t, updated.AcquisitionDate)
	assert.True(t, acquired.Equal(*updated.AcquisitionDate))

	withImage, err := corals.UpdateImageKey(ctx, created.ID, "corals/x/monti.jpg")
	require.NoError(t, err)
	assert.Equal(t, "corals/x/monti.jpg", *withImage.ImageKey)

	cleared, err := corals.ClearImageKey(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, cleared.ImageKey)

	_, err = corals.UpdateImageKey(ctx, created.ID, "corals/x/again.jpg")
	require.NoError(t, err)
	cleanup, err := corals.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, app.Cleanup{"corals/x/again.jpg"}, cleanup)

	_, err = corals.Delete(ctx, created.ID)
	assert.True(t, app.IsNotFound(err))
	_, err = corals.ClearImageKey(ctx, created.ID)
	assert.True(t, app.IsNotFound(err))
}
