package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"reefing/src/app"
)

func (a *AppHandler) ListEquipment(c *gin.Context) {
	const fallback = "Failed to fetch equipment"
	ctx := c.Request.Context()
	if _, err := a.policy.Aquarium(ctx, currentUser(c).ID, c.Param("id")); err != nil {
		failWith(c, err, fallback)
		return
	}
	equipment, err := a.equipment.FindByAquariumID(ctx, c.Param("id"))
	if err != nil {
		failWith(c, err, fallback)
		return
	}
	ok(c, http.StatusOK, equipment, "")
}

func (a *AppHandler) CreateEquipment(c *gin.Context) {
	const fallback = "Failed to create equipment"
	var input app.EquipmentInput
	if err := bindJSON(c, &input, "Missing required fields: name, type"); err != nil {
		failWith(c, err, fallback)
		return
	}
	ctx := c.Request.Context()
	if _, err := a.policy.Aquarium(ctx, currentUser(c).ID, c.Param("id")); err != nil {
		failWith(c, err, fallback)
		return
	}
	equipment, err := a.equipment.Create(ctx, c.Param("id"), input)
	if err != nil {
		failWith(c, err, fallback)
		return
	}
	ok(c, http.StatusCreated, equipment, "Equipment added successfully")
}

func (a *AppHandler) UpdateEquipment(c *gin.Context) {
	const fallback = "Failed to update equipment"
	ctx := c.Request.Context()
	existing, err := app.LoadChild(ctx, a.policy, a.equipment.FindByID, currentUser(c).ID, c.Param("id"), c.Param("equipmentId"), "Equipment")
	if err != nil {
		failWith(c, err, fallback)
		return
	}
	var patch app.EquipmentPatch
	if err := bindJSON(c, &patch, "Invalid request body"); err != nil {
		failWith(c, err, fallback)
		return
	}
	equipment, err := a.equipment.Update(ctx, existing.ID, patch)
	if err != nil {
		failWith(c, err, fallback)
		return
	}
	ok(c, http.StatusOK, equipment, "Equipment updated successfully")
}

func (a *AppHandler) DeleteEquipment(c *gin.Context) {
	const fallback = "Failed to delete equipment"
	ctx := c.Request.Context()
	existing, err := app.LoadChild(ctx, a.policy, a.equipment.FindByID, currentUser(c).ID, c.Param("id"), c.Param("equipmentId"), "Equipment")
	if err != nil {
		failWith(c, err, fallback)
		return
	}
	if err := a.equipment.Delete(ctx, existing.ID); err != nil {
		failWith(c, err, fallback)
		return
	}
	ok(c, http.StatusOK, nil, "Equipment deleted successfully")
}
