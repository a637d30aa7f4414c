package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/omnikit/catalog-composition-service/internal/composition"
	"github.com/omnikit/catalog-composition-service/internal/composition/dto"
	"github.com/omnikit/catalog-composition-service/internal/model"
	"github.com/omnikit/catalog-composition-service/internal/pkg/httputil"
	"github.com/omnikit/catalog-composition-service/internal/pkg/logger"
)

type CompositionHandler struct {
	uc     composition.UseCase
	logger logger.ZapLogger
}

func NewCompositionHandler(uc composition.UseCase, log logger.ZapLogger) *CompositionHandler {
	return &CompositionHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *CompositionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	comp := rg.Group("/compositions")
	{
		comp.POST("/items", h.AddItem)
		comp.DELETE("/items/:id", h.RemoveItem)
		comp.GET("/available-items", h.GetAvailableItems)
		comp.GET("/integrity", h.ValidateIntegrity)
		comp.GET("/stats", h.GetStats)
		comp.GET("/:parentKey/items", h.ListByParent)
		comp.GET("/:parentKey/weight", h.CalculateWeight)
		comp.GET("/:parentKey/tree", h.GetTree)
	}

	cv := rg.Group("/products/:sku/variations/:variationId/composition")
	{
		cv.POST("", h.CreateCompositeVariationComposition)
		cv.PUT("", h.UpdateCompositeVariationComposition)
		cv.GET("/weight", h.CalculateCompositeVariationWeight)
		cv.GET("/completeness", h.ValidateCompleteness)
	}
	rg.GET("/products/:sku/variation-compositions", h.GetVariationsWithComposition)
	rg.POST("/products/:sku/variations/validate-uniqueness", h.ValidateUniqueness)
}

func (h *CompositionHandler) AddItem(c *gin.Context) {
	var input dto.AddItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	item, err := h.uc.AddItem(c.Request.Context(), &input)
	if err != nil {
		h.logger.Error("failed to add composition item", zap.Error(err))
		httputil.RespondError(c, err)
		return
	}
	httputil.RespondCreated(c, item)
}

func (h *CompositionHandler) RemoveItem(c *gin.Context) {
	if err := h.uc.RemoveItem(c.Request.Context(), c.Param("id")); err != nil {
		httputil.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CompositionHandler) ListByParent(c *gin.Context) {
	items, err := h.uc.ListByParent(c.Request.Context(), c.Param("parentKey"))
	if err != nil {
		httputil.RespondError(c, err)
		return
	}
	httputil.RespondOK(c, gin.H{"items": items})
}

func (h *CompositionHandler) CalculateWeight(c *gin.Context) {
	weight, err := h.uc.CalculateCompositeWeight(c.Request.Context(), c.Param("parentKey"))
	if err != nil {
		httputil.RespondError(c, err)
		return
	}
	httputil.RespondOK(c, gin.H{"parent_key": c.Param("parentKey"), "calculated_weight": weight})
}

func (h *CompositionHandler) GetTree(c *gin.Context) {
	tree, err := h.uc.GetCompositionTree(c.Request.Context(), c.Param("parentKey"))
	if err != nil {
		httputil.RespondError(c, err)
		return
	}
	httputil.RespondOK(c, tree)
}

func (h *CompositionHandler) GetAvailableItems(c *gin.Context) {
	items, err := h.uc.GetAvailableItems(c.Request.Context())
	if err != nil {
		httputil.RespondError(c, err)
		return
	}
	httputil.RespondOK(c, gin.H{"items": items})
}

func (h *CompositionHandler) ValidateIntegrity(c *gin.Context) {
	report, err := h.uc.ValidateIntegrity(c.Request.Context())
	if err != nil {
		httputil.RespondError(c, err)
		return
	}
	httputil.RespondOK(c, report)
}

func (h *CompositionHandler) GetStats(c *gin.Context) {
	stats, err := h.uc.GetStats(c.Request.Context())
	if err != nil {
		httputil.RespondError(c, err)
		return
	}
	httputil.RespondOK(c, stats)
}

type compositeVariationPayload struct {
	Items []dto.ItemInput `json:"items"`
}

func (h *CompositionHandler) CreateCompositeVariationComposition(c *gin.Context) {
	var payload compositeVariationPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	items, err := h.uc.CreateCompositeVariationComposition(c.Request.Context(), c.Param("sku"), c.Param("variationId"), payload.Items)
	if err != nil {
		h.logger.Error("failed to create composite variation composition", zap.Error(err))
		httputil.RespondError(c, err)
		return
	}
	httputil.RespondCreated(c, gin.H{"items": items})
}

func (h *CompositionHandler) UpdateCompositeVariationComposition(c *gin.Context) {
	var payload compositeVariationPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	items, err := h.uc.UpdateCompositeVariationComposition(c.Request.Context(), c.Param("sku"), c.Param("variationId"), payload.Items)
	if err != nil {
		httputil.RespondError(c, err)
		return
	}
	httputil.RespondOK(c, gin.H{"items": items})
}

func (h *CompositionHandler) CalculateCompositeVariationWeight(c *gin.Context) {
	weight, err := h.uc.CalculateCompositeVariationWeight(c.Request.Context(), c.Param("sku"), c.Param("variationId"))
	if err != nil {
		httputil.RespondError(c, err)
		return
	}
	httputil.RespondOK(c, gin.H{"calculated_weight": weight})
}

func (h *CompositionHandler) ValidateCompleteness(c *gin.Context) {
	result, err := h.uc.ValidateCompositeVariationCompleteness(c.Request.Context(), c.Param("sku"), c.Param("variationId"))
	if err != nil {
		httputil.RespondError(c, err)
		return
	}
	httputil.RespondOK(c, result)
}

func (h *CompositionHandler) GetVariationsWithComposition(c *gin.Context) {
	result, err := h.uc.GetCompositeVariationsWithComposition(c.Request.Context(), c.Param("sku"))
	if err != nil {
		httputil.RespondError(c, err)
		return
	}
	httputil.RespondOK(c, gin.H{"variations": result})
}

type uniquenessPayload struct {
	Selections         model.SelectionMap `json:"selections"`
	ExcludeVariationID string             `json:"exclude_variation_id"`
}

func (h *CompositionHandler) ValidateUniqueness(c *gin.Context) {
	var payload uniquenessPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.uc.ValidateCompositeVariationUniqueness(c.Request.Context(), c.Param("sku"), payload.Selections, payload.ExcludeVariationID); err != nil {
		httputil.RespondError(c, err)
		return
	}
	httputil.RespondOK(c, gin.H{"unique": true})
}
