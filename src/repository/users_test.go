package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reefing/src/app"
)

func TestUsersResolveCreates(t *testing.T) {
	ctx := context.Background()
	users := NewUsers(newTestDB(t), false)

	user, err := users.Resolve(ctx, app.Identity{Subject: "auth0|1", Email: "Reefer@Example.com", Name: "Reef Keeper"})
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	require.NotNil(t, user.Username)
	assert.Equal(t, "reefer", *user.Username)
	require.NotNil(t, user.Name)
	assert.Equal(t, "Reef Keeper", *user.Name)

	again, err := users.Resolve(ctx, app.Identity{Subject: "auth0|1", Email: "Reefer@Example.com"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)
}

func TestUsersResolveUsernameSuffix(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewUsers(db, false)
	createUser(t, db, "someone@example.com", "reefer", "auth0|someone")

	user, err := users.Resolve(ctx, app.Identity{Subject: "auth0|2", Email: "reefer@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "reefer1", *user.Username)

	// the first free suffix is used, not the count of matches
	createUser(t, db, "third@example.com", "reefer3", "auth0|third")
	user, err = users.Resolve(ctx, app.Identity{Subject: "auth0|4", Email: "reefer@other.org"})
	require.NoError(t, err)
	assert.Equal(t, "reefer2", *user.Username)
}

func TestUsernameBase(t *testing.T) {
	assert.Equal(t, "coral.lover", usernameBase("Coral.Lover@example.com"))
	assert.Equal(t, "johnsmith", usernameBase("john+smith@example.com"))
	assert.Equal(t, "reefer", usernameBase("@example.com"))
	assert.Equal(t, "reefer", usernameBase(""))
	assert.Len(t, usernameBase("averyveryveryveryverylonglocalpartindeed@example.com"), maxUsernameLength)
}

func TestUsersResolveLinksByEmail(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewUsers(db, false)
	existing := createUser(t, db, "diver@example.com", "", "google-oauth2|old")

	user, err := users.Resolve(ctx, app.Identity{Subject: "auth0|new", Email: "diver@example.com"})
	require.NoError(t, err)
	assert.Equal(t, existing.ID, user.ID)
	assert.Equal(t, "auth0|new", user.IdentityProviderID)
	require.NotNil(t, user.Username)
	assert.Equal(t, "diver", *user.Username)

	stored, err := users.FindBySubject(ctx, "auth0|new")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, stored.ID)

	var count int64
	require.NoError(t, db.Model(&app.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestUsersResolveRefusesUnverifiedLink(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewUsers(db, false)
	existing := createUser(t, db, "shared@example.com", "shared", "auth0|first")
	unverified, verified := false, true

	_, err := users.Resolve(ctx, app.Identity{Subject: "auth0|second", Email: "shared@example.com", EmailVerified: &unverified})
	require.Error(t, err)
	assert.Equal(t, app.EForbidden, app.ErrorCode(err))

	stored, err := users.FindByID(ctx, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, "auth0|first", stored.IdentityProviderID)

	user, err := users.Resolve(ctx, app.Identity{Subject: "auth0|second", Email: "shared@example.com", EmailVerified: &verified})
	require.NoError(t, err)
	assert.Equal(t, existing.ID, user.ID)
	assert.Equal(t, "auth0|second", user.IdentityProviderID)
}

func TestUsersResolveConcurrentFirstSync(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewUsers(db, false)
	identity := app.Identity{Subject: "auth0|race", Email: "race@example.com"}

	const callers = 8
	ids := make([]string, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user, err := users.Resolve(ctx, identity)
			errs[i] = err
			if err == nil {
				ids[i] = user.ID
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}
	var count int64
	require.NoError(t, db.Model(&app.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestUsersResolveSeedsSamples(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewUsers(db, true)

	user, err := users.Resolve(ctx, app.Identity{Subject: "auth0|seed", Email: "seed@example.com"})
	require.NoError(t, err)

	aquariums, err := NewAquariums(db).FindByUserID(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, aquariums, 2)
	names := []string{aquariums[0].Name, aquariums[1].Name}
	assert.ElementsMatch(t, []string{"Main Reef Display", "Nano Reef"}, names)

	// resolving again does not seed twice
	_, err = users.Resolve(ctx, app.Identity{Subject: "auth0|seed", Email: "seed@example.com"})
	require.NoError(t, err)
	aquariums, err = NewAquariums(db).FindByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, aquariums, 2)
}

func TestUsersUpdate(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewUsers(db, false)
	existing := createUser(t, db, "name@example.com", "name", "auth0|name")

	name := "Coral Farmer"
	user, err := users.Update(ctx, existing.ID, app.UserPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Coral Farmer", *user.Name)

	key := "users/" + existing.ID + "/1-abcd1234-me.png"
	user, err = users.UpdateProfileImageKey(ctx, existing.ID, &key)
	require.NoError(t, err)
	require.NotNil(t, user.ProfileImageKey)
	assert.Equal(t, key, *user.ProfileImageKey)

	user, err = users.UpdateProfileImageKey(ctx, existing.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, user.ProfileImageKey)

	_, err = users.Update(ctx, "missing", app.UserPatch{Name: &name})
	assert.True(t, app.IsNotFound(err))

	_, err = users.FindByUsername(ctx, "name")
	assert.NoError(t, err)
	_, err = users.FindByUsername(ctx, "nobody")
	assert.True(t, app.IsNotFound(err))
}
