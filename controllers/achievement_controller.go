package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/wisesobriety/wisesober/achievements"
	"github.com/wisesobriety/wisesober/middleware"
	"github.com/wisesobriety/wisesober/models"
	"github.com/wisesobriety/wisesober/storage"
	"github.com/wisesobriety/wisesober/utils"
)

// AchievementController derives badges for a user's check-in history. The
// badges are computed fresh per request and never stored.
type AchievementController struct {
	store *storage.CheckInStore
}

func NewAchievementController(store *storage.CheckInStore) *AchievementController {
	return &AchievementController{store: store}
}

// List returns the badges earned by the requesting user.
func (a *AchievementController) List(ctx *gin.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		userID = models.DefaultUserID
	}
	records := a.store.GetByUser(ctx, userID)
	badges := achievements.Derive(records)
	utils.Success(ctx, gin.H{"achievements": badges, "count": len(badges)})
}
