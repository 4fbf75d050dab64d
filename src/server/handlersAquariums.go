package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/multierr"

	"reefing/src/app"
	"reefing/src/logger"
)

const missingAquariumFields = "Missing required fields: name, type, volume"

func (a *AppHandler) ListAquariums(c *gin.Context) {
	ctx := c.Request.Context()
	aquariums, err := a.aquariums.FindByUserID(ctx, currentUser(c).ID)
	if err != nil {
		failWith(c, err, "Failed to fetch aquariums")
		return
	}
	ok(c, http.StatusOK, a.views.aquariums(ctx, aquariums), "")
}

func (a *AppHandler) GetAquarium(c *gin.Context) {
	const fallback = "Failed to fetch aquarium"
	ctx := c.Request.Context()
	if _, err := a.policy.Aquarium(ctx, currentUser(c).ID, c.Param("id")); err != nil {
		failWith(c, err, fallback)
		return
	}
	aquarium, err := a.aquariums.FindByIDWithChildren(ctx, c.Param("id"))
	if err != nil {
		failWith(c, err, fallback)
		return
	}
	ok(c, http.StatusOK, a.views.aquarium(ctx, aquarium), "")
}

func (a *AppHandler) CreateAquarium(c *gin.Context) {
	const fallback = "Failed to create aquarium"
	var input app.AquariumInput
	if err := bindJSON(c, &input, missingAquariumFields); err != nil {
		failWith(c, err, fallback)
		return
	}
	ctx := c.Request.Context()
	aquarium, err := a.aquariums.Create(ctx, currentUser(c).ID, input)
	if err != nil {
		failWith(c, err, fallback)
		return
	}
	ok(c, http.StatusCreated, a.views.aquarium(ctx, aquarium), "Aquarium created successfully")
}

func (a *AppHandler) UpdateAquarium(c *gin.Context) {
	const fallback = "Failed to update aquarium"
	ctx := c.Request.Context()
	if _, err := a.policy.Aquarium(ctx, currentUser(c).ID, c.Param("id")); err != nil {
		failWith(c, err, fallback)
		return
	}
	var patch app.AquariumPatch
	if err := bindJSON(c, &patch, "Invalid request body"); err != nil {
		failWith(c, err, fallback)
		return
	}
	aquarium, err := a.aquariums.Update(ctx, c.Param("id"), patch)
	if err != nil {
		failWith(c, err, fallback)
		return
	}
	ok(c, http.StatusOK, a.views.aquarium(ctx, aquarium), "Aquarium updated successfully")
}

// DeleteAquarium removes the aquarium with all its children, then drops the blobs they
// referenced. Blob failures never undo the delete.
func (a *AppHandler) DeleteAquarium(c *gin.Context) {
	const fallback = "Failed to delete aquarium"
	ctx := c.Request.Context()
	if _, err := a.policy.Aquarium(ctx, currentUser(c).ID, c.Param("id")); err != nil {
		failWith(c, err, fallback)
		return
	}
	cleanup, err := a.aquariums.Delete(ctx, c.Param("id"))
	if err != nil {
		failWith(c, err, fallback)
		return
	}
	a.cleanup(c, cleanup)
	ok(c, http.StatusOK, nil, "Aquarium deleted successfully")
}

func (a *AppHandler) ListAquariumPhotos(c *gin.Context) {
	const fallback = "Failed to fetch photos"
	ctx := c.Request.Context()
	if _, err := a.policy.Aquarium(ctx, currentUser(c).ID, c.Param("id")); err != nil {
		failWith(c, err, fallback)
		return
	}
	photos, err := a.aquariums.ListPhotos(ctx, c.Param("id"))
	if err != nil {
		failWith(c, err, fallback)
		return
	}
	ok(c, http.StatusOK, a.views.photos(ctx, photos), "")
}

// UploadAquariumPhotos accepts files under "photos" and "photo". Files are stored
// concurrently and those that made it are kept even when others failed.
func (a *AppHandler) UploadAquariumPhotos(c *gin.Context) {
	const fallback = "Failed to upload photo"
	id := c.Param("id")
	files, err := a.formFiles(c, a.upload.MaxFiles, "photos", "photo")
	if err != nil {
		failWith(c, err, fallback)
		return
	}
	uploads, err := a.prepareUploads(files, app.KindAquarium, id)
	if err != nil {
		failWith(c, err, fallback)
		return
	}
	ctx := c.Request.Context()
	if _, err := a.policy.Aquarium(ctx, currentUser(c).ID, id); err != nil {
		failWith(c, err, fallback)
		return
	}

	keys, uploadErr := app.UploadAll(ctx, a.blobs, uploads)
	if len(keys) == 0 {
		failWith(c, app.Internal("aquariums.UploadPhotos", uploadErr), fallback)
		return
	}
	if _, err := a.aquariums.AddPhotos(ctx, id, keys); err != nil {
		a.cleanup(c, keys)
		failWith(c, err, fallback)
		return
	}

	message := "Photo uploaded successfully"
	if uploadErr != nil {
		logger.FromContext(ctx).WithError(uploadErr).
			WithField("failed", len(multierr.Errors(uploadErr))).
			Warn("some photos could not be uploaded")
		message = fmt.Sprintf("Uploaded %d of %d photos", len(keys), len(uploads))
	} else if len(keys) > 1 {
		message = "Photos uploaded successfully"
	}

	aquarium, err := a.aquariums.FindByIDWithChildren(ctx, id)
	if err != nil {
		failWith(c, err, fallback)
		return
	}
	ok(c, http.StatusCreated, a.views.aquarium(ctx, aquarium), message)
}

func (a *AppHandler) DeleteAquariumPhoto(c *gin.Context) {
	const fallback = "Failed to delete photo"
	ctx := c.Request.Context()
	photo, err := app.LoadChild(ctx, a.policy, a.aquariums.FindPhoto, currentUser(c).ID, c.Param("id"), c.Param("photoId"), "Photo")
	if err != nil {
		failWith(c, err, fallback)
		return
	}
	if err := a.aquariums.DeletePhoto(ctx, photo.ID); err != nil {
		failWith(c, err, fallback)
		return
	}
	a.cleanup(c, app.Cleanup{photo.ImageKey})
	ok(c, http.StatusOK, nil, "Photo deleted successfully")
}
