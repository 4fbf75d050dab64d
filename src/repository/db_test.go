package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"reefing/src/app"
	cfg "reefing/src/configuration"
)

// newTestDB opens a private in-memory database with the schema in place.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open(context.Background(), cfg.DBProperties{
		Driver:       "sqlite",
		DSN:          fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		MaxOpenConns: 1,
		AutoMigrate:  true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })
	return db
}

func createUser(t *testing.T, db *gorm.DB, email, username, subject string) *app.User {
	t.Helper()
	user := &app.User{Email: email, IdentityProviderID: subject}
	if username != "" {
		user.Username = &username
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestOpen(t *testing.T) {
	db := newTestDB(t)
	assert.NoError(t, Ping(context.Background(), db))
	for _, table := range []any{&app.User{}, &app.Aquarium{}, &app.AquariumPhoto{}, &app.Equipment{}, &app.Coral{}} {
		assert.True(t, db.Migrator().HasTable(table))
	}

	_, err := Open(context.Background(), cfg.DBProperties{Driver: "mongo"})
	assert.EqualError(t, err, `unknown database driver "mongo"`)
}

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate("op", "Coral", nil))
	assert.Equal(t, app.ENotFound, app.ErrorCode(translate("op", "Coral", gorm.ErrRecordNotFound)))
	assert.Equal(t, "Coral not found", app.ErrorMessage(translate("op", "Coral", fmt.Errorf("wrapped: %w", gorm.ErrRecordNotFound))))
	assert.Equal(t, app.EInternal, app.ErrorCode(translate("op", "Coral", gorm.ErrInvalidTransaction)))
}
