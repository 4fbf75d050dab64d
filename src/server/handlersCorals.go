package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"reefing/src/app"
)

func (a *AppHandler) loadCoral(c *gin.Context) (*app.Coral, error) {
	return app.LoadChild(c.Request.Context(), a.policy, a.corals.FindByID, currentUser(c).ID, c.Param("id"), c.Param("coralId"), "Coral")
}

func (a *AppHandler) ListCorals(c *gin.Context) {
	const fallback = "Failed to fetch corals"
	ctx := c.Request.Context()
	if _, err := a.policy.Aquarium(ctx, currentUser(c).ID, c.Param("id")); err != nil {
		failWith(c, err, fallback)
		return
	}
	corals, err := a.corals.FindByAquariumID(ctx, c.Param("id"))
	if err != nil {
		failWith(c, err, fallback)
		return
	}
	ok(c, http.StatusOK, a.views.corals(ctx, corals), "")
}

func (a *AppHandler) CreateCoral(c *gin.Context) {
	const fallback = "Failed to create coral"
	var input app.CoralInput
	if err := bindJSON(c, &input, "Missing required field: species"); err != nil {
		failWith(c, err, fallback)
		return
	}
	ctx := c.Request.Context()
	if _, err := a.policy.Aquarium(ctx, currentUser(c).ID, c.Param("id")); err != nil {
		failWith(c, err, fallback)
		return
	}
	coral, err := a.corals.Create(ctx, c.Param("id"), input)
	if err != nil {
		failWith(c, err, fallback)
		return
	}
	ok(c, http.StatusCreated, a.views.coral(ctx, coral), "Coral added successfully")
}

func (a *AppHandler) UpdateCoral(c *gin.Context) {
	const fallback = "Failed to update coral"
	existing, err := a.loadCoral(c)
	if err != nil {
		failWith(c, err, fallback)
		return
	}
	var patch app.CoralPatch
	if err := bindJSON(c, &patch, "Invalid request body"); err != nil {
		failWith(c, err, fallback)
		return
	}
	ctx := c.Request.Context()
	coral, err := a.corals.Update(ctx, existing.ID, patch)
	if err != nil {
		failWith(c, err, fallback)
		return
	}
	ok(c, http.StatusOK, a.views.coral(ctx, coral), "Coral updated successfully")
}

func (a *AppHandler) DeleteCoral(c *gin.Context) {
	const fallback = "Failed to delete coral"
	existing, err := a.loadCoral(c)
	if err != nil {
		failWith(c, err, fallback)
		return
	}
	cleanup, err := a.corals.Delete(c.Request.Context(), existing.ID)
	if err != nil {
		failWith(c, err, fallback)
		return
	}
	a.cleanup(c, cleanup)
	ok(c, http.StatusOK, nil, "Coral deleted successfully")
}

// UploadCoralPhoto replaces the coral's image. The previous blob is dropped first and
// a failure to do so does not stop the upload.
func (a *AppHandler) UploadCoralPhoto(c *gin.Context) {
	const fallback = "Failed to upload photo"
	upload, err := a.singleUpload(c, "photo", app.KindCoral, c.Param("coralId"))
	if err != nil {
		failWith(c, err, fallback)
		return
	}
	existing, err := a.loadCoral(c)
	if err != nil {
		failWith(c, err, fallback)
		return
	}

	a.cleanup(c, app.Cleanup{}.Add(existing.ImageKey))
	ctx := c.Request.Context()
	if err := upload.Put(ctx, a.blobs); err != nil {
		failWith(c, app.Internal("corals.UploadPhoto", err), fallback)
		return
	}
	coral, err := a.corals.UpdateImageKey(ctx, existing.ID, upload.Key)
	if err != nil {
		a.cleanup(c, app.Cleanup{upload.Key})
		failWith(c, err, fallback)
		return
	}
	ok(c, http.StatusOK, a.views.coral(ctx, coral), "Photo uploaded successfully")
}

func (a *AppHandler) DeleteCoralPhoto(c *gin.Context) {
	const fallback = "Failed to delete photo"
	existing, err := a.loadCoral(c)
	if err != nil {
		failWith(c, err, fallback)
		return
	}
	coral, err := a.corals.ClearImageKey(c.Request.Context(), existing.ID)
	if err != nil {
		failWith(c, err, fallback)
		return
	}
	a.cleanup(c, app.Cleanup{}.Add(existing.ImageKey))
	ok(c, http.StatusOK, a.views.coral(c.Request.Context(), coral), "Photo deleted successfully")
}
