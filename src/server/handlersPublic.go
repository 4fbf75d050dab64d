package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (a *AppHandler) Explore(c *gin.Context) {
	ctx := c.Request.Context()
	aquariums, err := a.aquariums.Explore(ctx, 0)
	if err != nil {
		failWith(c, err, "Failed to fetch aquariums")
		return
	}
	ok(c, http.StatusOK, a.views.aquariums(ctx, aquariums), "")
}

func (a *AppHandler) Collection(c *gin.Context) {
	const fallback = "Failed to fetch collection"
	ctx := c.Request.Context()
	user, err := a.users.FindByUsername(ctx, c.Param("username"))
	if err != nil {
		failWith(c, err, fallback)
		return
	}
	aquariums, err := a.aquariums.FindByOwnerWithChildren(ctx, user.ID)
	if err != nil {
		failWith(c, err, fallback)
		return
	}
	ok(c, http.StatusOK, CollectionView{
		User:      OwnerView{Name: user.Name, Username: user.Username},
		Aquariums: a.views.aquariums(ctx, aquariums),
	}, "")
}
