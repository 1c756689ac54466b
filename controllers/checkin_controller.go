package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wisesobriety/wisesober/middleware"
	"github.com/wisesobriety/wisesober/models"
	"github.com/wisesobriety/wisesober/storage"
	"github.com/wisesobriety/wisesober/utils"
)

// CheckInController handles the check-in collection endpoints.
type CheckInController struct {
	store *storage.CheckInStore
	queue *storage.EnrichmentQueue // nil => summaries attach synchronously
}

// NewCheckInController creates a new controller instance. Pass a non-nil
// queue to defer summary generation to the background worker.
func NewCheckInController(store *storage.CheckInStore, queue *storage.EnrichmentQueue) *CheckInController {
	return &CheckInController{store: store, queue: queue}
}

// Create saves a new check-in. With synchronous enrichment the response
// carries the generated summary (or the fallback text); with the queue
// enabled the record returns immediately with its summary pending.
func (c *CheckInController) Create(ctx *gin.Context) {
	var input models.CheckInInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}
	if input.MotivationRating < 1 || input.MotivationRating > 5 {
		utils.Error(ctx, http.StatusBadRequest, 40021, "motivation rating must be between 1 and 5")
		return
	}
	sanitizeInput(&input)

	if userID, ok := middleware.UserID(ctx); ok {
		input.UserID = userID
	}

	if c.queue != nil {
		rec, err := c.store.SaveBare(ctx, input)
		if err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to save check-in")
			return
		}
		c.queue.Enqueue(rec.ID)
		utils.Success(ctx, gin.H{
			"checkIn": rec,
			"message": "Check-in saved; AI summary is being generated.",
		})
		return
	}

	rec, err := c.store.Save(ctx, input)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to save check-in")
		return
	}
	utils.Success(ctx, gin.H{
		"checkIn": rec,
		"message": "Check-in saved and AI summary generated successfully!",
	})
}

// List returns check-ins, newest first. scope=recent|archived partitions by
// the two-year cutoff; user_id filters by exact match; an authenticated
// request is always scoped to its own user.
func (c *CheckInController) List(ctx *gin.Context) {
	var records []models.CheckInRecord
	switch ctx.Query("scope") {
	case "recent":
		records = c.store.GetRecent(ctx)
	case "archived":
		records = c.store.GetArchived(ctx)
	default:
		records = c.store.GetAll(ctx)
	}

	filterUser := ctx.Query("user_id")
	if userID, ok := middleware.UserID(ctx); ok {
		filterUser = userID
	}
	if filterUser != "" {
		matched := []models.CheckInRecord{}
		for _, rec := range records {
			if rec.UserID == filterUser {
				matched = append(matched, rec)
			}
		}
		records = matched
	}

	utils.Success(ctx, gin.H{"items": records, "count": len(records)})
}

// Delete removes one check-in by id. Deleting an unknown id succeeds.
func (c *CheckInController) Delete(ctx *gin.Context) {
	id := ctx.Param("id")
	if err := c.store.Delete(ctx, id); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to delete check-in")
		return
	}
	utils.Success(ctx, gin.H{"deleted": id})
}

// Stats reports collection counts and size.
func (c *CheckInController) Stats(ctx *gin.Context) {
	utils.Success(ctx, c.store.Stats(ctx))
}

// Export returns a backup bundle of the full collection.
func (c *CheckInController) Export(ctx *gin.Context) {
	utils.Success(ctx, c.store.Export(ctx))
}

// Import merges a backup bundle into the collection. Records whose id
// already exists are skipped, so re-importing a bundle is harmless.
func (c *CheckInController) Import(ctx *gin.Context) {
	var bundle models.ExportBundle
	if err := ctx.ShouldBindJSON(&bundle); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40022, "invalid import payload")
		return
	}
	added, err := c.store.Import(ctx, &bundle)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidBundle) {
			utils.Error(ctx, http.StatusBadRequest, 40023, err.Error())
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to import check-ins")
		return
	}
	utils.Success(ctx, gin.H{"importedCount": added})
}

// RegenerateSummaries backfills summaries for records that lack one.
func (c *CheckInController) RegenerateSummaries(ctx *gin.Context) {
	updated, err := c.store.RegenerateMissingSummaries(ctx)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to regenerate summaries")
		return
	}
	utils.Success(ctx, gin.H{"updatedCount": updated})
}

func sanitizeInput(input *models.CheckInInput) {
	input.EmotionalState = utils.Sanitize(input.EmotionalState)
	input.AlcoholConsumption = utils.Sanitize(input.AlcoholConsumption)
	input.ProudOf = utils.Sanitize(input.ProudOf)
	input.SupportNeed = utils.Sanitize(input.SupportNeed)
	sanitizeSelection(&input.CravingTriggers)
	sanitizeSelection(&input.CopingStrategies)
}

func sanitizeSelection(list *models.SelectionList) {
	for i, opt := range list.Options {
		list.Options[i] = utils.Sanitize(opt)
	}
	list.AdditionalText = utils.Sanitize(list.AdditionalText)
}
