package controllers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/wisesobriety/wisesober/articles"
	"github.com/wisesobriety/wisesober/utils"
)

// ArticleController serves the recovery-article catalogue.
type ArticleController struct {
	svc *articles.Service
}

func NewArticleController(svc *articles.Service) *ArticleController {
	return &ArticleController{svc: svc}
}

// List returns articles, optionally filtered by category or search query.
func (a *ArticleController) List(ctx *gin.Context) {
	if category := strings.TrimSpace(ctx.Query("category")); category != "" {
		items := a.svc.ByCategory(ctx, category)
		utils.Success(ctx, gin.H{"items": items, "count": len(items)})
		return
	}
	if query := strings.TrimSpace(ctx.Query("search")); query != "" {
		items := a.svc.Search(ctx, query)
		utils.Success(ctx, gin.H{"items": items, "count": len(items)})
		return
	}
	items := a.svc.List(ctx)
	utils.Success(ctx, gin.H{"items": items, "count": len(items)})
}
