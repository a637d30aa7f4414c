package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/omnikit/catalog-composition-service/internal/pkg/httputil"
	"github.com/omnikit/catalog-composition-service/internal/pkg/logger"
	"github.com/omnikit/catalog-composition-service/internal/variation"
	"github.com/omnikit/catalog-composition-service/internal/variation/dto"
)

type VariationHandler struct {
	uc     variation.UseCase
	logger logger.ZapLogger
}

func NewVariationHandler(uc variation.UseCase, log logger.ZapLogger) *VariationHandler {
	return &VariationHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *VariationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	types := rg.Group("/variation-types")
	{
		types.POST("", h.CreateVariationType)
		types.GET("", h.ListVariationTypes)
		types.DELETE("/:id", h.DeleteVariationType)
		types.GET("/:id/variations", h.ListVariationsByType)
	}

	vocab := rg.Group("/variations")
	{
		vocab.POST("", h.CreateVariation)
		vocab.DELETE("/:id", h.DeleteVariation)
	}

	// Concrete combinations of a variable product.
	rg.POST("/products/:sku/variations", h.CreateVariationItem)
	rg.GET("/products/:sku/variations", h.ListVariationItems)
	rg.GET("/variation-items", h.SearchVariationItems)
	rg.PUT("/variation-items/:id", h.UpdateVariationItem)
	rg.DELETE("/variation-items/:id", h.DeleteVariationItem)
}

func (h *VariationHandler) CreateVariationType(c *gin.Context) {
	var input dto.CreateVariationTypeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	vt, err := h.uc.CreateVariationType(c.Request.Context(), &input)
	if err != nil {
		h.logger.Error("failed to create variation type", zap.Error(err))
		httputil.RespondError(c, err)
		return
	}
	httputil.RespondCreated(c, vt)
}

func (h *VariationHandler) ListVariationTypes(c *gin.Context) {
	types, err := h.uc.ListVariationTypes(c.Request.Context())
	if err != nil {
		httputil.RespondError(c, err)
		return
	}
	httputil.RespondOK(c, gin.H{"variation_types": types})
}

func (h *VariationHandler) DeleteVariationType(c *gin.Context) {
	if err := h.uc.DeleteVariationType(c.Request.Context(), c.Param("id")); err != nil {
		httputil.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *VariationHandler) CreateVariation(c *gin.Context) {
	var input dto.CreateVariationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	v, err := h.uc.CreateVariation(c.Request.Context(), &input)
	if err != nil {
		httputil.RespondError(c, err)
		return
	}
	httputil.RespondCreated(c, v)
}

func (h *VariationHandler) ListVariationsByType(c *gin.Context) {
	variations, err := h.uc.ListVariationsByType(c.Request.Context(), c.Param("id"))
	if err != nil {
		httputil.RespondError(c, err)
		return
	}
	httputil.RespondOK(c, gin.H{"variations": variations})
}

func (h *VariationHandler) DeleteVariation(c *gin.Context) {
	if err := h.uc.DeleteVariation(c.Request.Context(), c.Param("id")); err != nil {
		httputil.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *VariationHandler) CreateVariationItem(c *gin.Context) {
	var input dto.CreateVariationItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	input.ProductSKU = c.Param("sku")

	item, err := h.uc.CreateVariationItem(c.Request.Context(), &input)
	if err != nil {
		h.logger.Error("failed to create variation item", zap.Error(err))
		httputil.RespondError(c, err)
		return
	}
	httputil.RespondCreated(c, item)
}

func (h *VariationHandler) ListVariationItems(c *gin.Context) {
	items, err := h.uc.ListVariationItems(c.Request.Context(), c.Param("sku"))
	if err != nil {
		httputil.RespondError(c, err)
		return
	}
	httputil.RespondOK(c, gin.H{"variations": items})
}

func (h *VariationHandler) SearchVariationItems(c *gin.Context) {
	items, err := h.uc.SearchVariationItems(c.Request.Context(), c.Query("q"))
	if err != nil {
		httputil.RespondError(c, err)
		return
	}
	httputil.RespondOK(c, gin.H{"variations": items})
}

func (h *VariationHandler) UpdateVariationItem(c *gin.Context) {
	var input dto.UpdateVariationItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	item, err := h.uc.UpdateVariationItem(c.Request.Context(), c.Param("id"), &input)
	if err != nil {
		httputil.RespondError(c, err)
		return
	}
	httputil.RespondOK(c, item)
}

func (h *VariationHandler) DeleteVariationItem(c *gin.Context) {
	if err := h.uc.DeleteVariationItem(c.Request.Context(), c.Param("id")); err != nil {
		httputil.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
