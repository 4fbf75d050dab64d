package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"reefing/src/app"
	cfg "reefing/src/configuration"
	"reefing/src/logger"
	"reefing/src/repository"
)

type (
	AppHandler struct {
		db        *gorm.DB
		users     *repository.Users
		aquariums *repository.Aquariums
		equipment *repository.Equipment
		corals    *repository.Corals
		policy    *app.Policy
		blobs     app.BlobStore
		views     views
		upload    cfg.UploadProperties
		now       func() time.Time
	}

	SyncUserBody struct {
		Name *string `json:"name" binding:"omitempty,max=100"`
	}

	HealthBody struct {
		Timestamp time.Time `json:"timestamp"`
	}
)

func NewHandler(config *cfg.Properties, db *gorm.DB, blobs app.BlobStore) *AppHandler {
	aquariums := repository.NewAquariums(db)
	return &AppHandler{
		db:        db,
		users:     repository.NewUsers(db, config.Users.SeedSamples),
		aquariums: aquariums,
		equipment: repository.NewEquipment(db),
		corals:    repository.NewCorals(db),
		policy:    app.NewPolicy(aquariums),
		blobs:     blobs,
		views:     views{signer: app.NewSigner(blobs, config.S3.SignedURLTTL)},
		upload:    config.Upload,
		now:       time.Now,
	}
}

// Users exposes the user service for the authentication middleware.
func (a *AppHandler) Users() *repository.Users {
	return a.users
}

// cleanup drops blobs before the response is written. The deletes run on a context
// detached from the request so a client hanging up does not abort them.
func (a *AppHandler) cleanup(c *gin.Context, keys app.Cleanup) {
	ctx := context.WithoutCancel(c.Request.Context())
	keys.Run(ctx, a.blobs, logger.FromContext(ctx))
}

func (a *AppHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Reefing API"})
}

func (a *AppHandler) GetHealth(c *gin.Context) {
	ok(c, http.StatusOK, HealthBody{Timestamp: a.now().UTC()}, "API is running")
}

func (a *AppHandler) GetHealthDB(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()
	if err := repository.Ping(ctx, a.db); err != nil {
		failWith(c, app.Internal("health.db", err), "Database connection failed")
		return
	}
	ok(c, http.StatusOK, HealthBody{Timestamp: a.now().UTC()}, "Database connection OK")
}

func (a *AppHandler) GetHealthS3(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()
	if err := a.blobs.Ping(ctx); err != nil {
		failWith(c, app.Internal("health.s3", err), "S3 connection failed")
		return
	}
	ok(c, http.StatusOK, HealthBody{Timestamp: a.now().UTC()}, "S3 connection OK")
}

// SyncUser returns the caller's user record, optionally taking over a display name
// the client knows from the identity provider.
func (a *AppHandler) SyncUser(c *gin.Context) {
	user := currentUser(c)
	var body SyncUserBody
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		failWith(c, app.Invalid("Invalid request body"), "Failed to sync user")
		return
	}
	if body.Name != nil && *body.Name != "" && (user.Name == nil || *user.Name != *body.Name) {
		updated, err := a.users.Update(c.Request.Context(), user.ID, app.UserPatch{Name: body.Name})
		if err != nil {
			failWith(c, err, "Failed to sync user")
			return
		}
		user = updated
	}
	ok(c, http.StatusOK, a.views.user(c.Request.Context(), user), "User synced successfully")
}

func (a *AppHandler) GetMe(c *gin.Context) {
	ok(c, http.StatusOK, a.views.user(c.Request.Context(), currentUser(c)), "")
}

func (a *AppHandler) UpdateMe(c *gin.Context) {
	var patch app.UserPatch
	if err := bindJSON(c, &patch, "No fields to update"); err != nil {
		failWith(c, err, "Failed to update user")
		return
	}
	user, err := a.users.Update(c.Request.Context(), currentUser(c).ID, patch)
	if err != nil {
		failWith(c, err, "Failed to update user")
		return
	}
	ok(c, http.StatusOK, a.views.user(c.Request.Context(), user), "Profile updated successfully")
}

// UploadProfilePhoto replaces the caller's profile image. The previous blob is dropped
// first and a failure to do so does not stop the upload.
func (a *AppHandler) UploadProfilePhoto(c *gin.Context) {
	const fallback = "Failed to upload photo"
	user := currentUser(c)
	upload, err := a.singleUpload(c, "photo", app.KindUser, user.ID)
	if err != nil {
		failWith(c, err, fallback)
		return
	}

	a.cleanup(c, app.Cleanup{}.Add(user.ProfileImageKey))
	ctx := c.Request.Context()
	if err := upload.Put(ctx, a.blobs); err != nil {
		failWith(c, app.Internal("users.UploadProfilePhoto", err), fallback)
		return
	}
	updated, err := a.users.UpdateProfileImageKey(ctx, user.ID, &upload.Key)
	if err != nil {
		a.cleanup(c, app.Cleanup{upload.Key})
		failWith(c, err, fallback)
		return
	}
	ok(c, http.StatusOK, a.views.user(ctx, updated), "Profile photo uploaded successfully")
}

func (a *AppHandler) DeleteProfilePhoto(c *gin.Context) {
	user := currentUser(c)
	updated, err := a.users.UpdateProfileImageKey(c.Request.Context(), user.ID, nil)
	if err != nil {
		failWith(c, err, "Failed to delete photo")
		return
	}
	a.cleanup(c, app.Cleanup{}.Add(user.ProfileImageKey))
	ok(c, http.StatusOK, a.views.user(c.Request.Context(), updated), "Profile photo deleted successfully")
}
