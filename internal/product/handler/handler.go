package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/omnikit/catalog-composition-service/internal/pkg/httputil"
	"github.com/omnikit/catalog-composition-service/internal/pkg/logger"
	"github.com/omnikit/catalog-composition-service/internal/product"
	"github.com/omnikit/catalog-composition-service/internal/product/dto"
)

// ProductHandler exposes the product CRUD surface. Products are addressed
// by SKU at the HTTP layer; internal IDs never appear in routes.
type ProductHandler struct {
	uc     product.UseCase
	logger logger.ZapLogger
}

func NewProductHandler(uc product.UseCase, log logger.ZapLogger) *ProductHandler {
	return &ProductHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *ProductHandler) RegisterRoutes(rg *gin.RouterGroup) {
	products := rg.Group("/products")
	{
		products.POST("", h.CreateProduct)
		products.GET("", h.ListProducts)
		products.GET("/:sku", h.GetProduct)
		products.PUT("/:sku", h.UpdateProduct)
		products.DELETE("/:sku", h.DeleteProduct)
		products.POST("/:sku/validate-transition", h.ValidateStateTransition)
	}
}

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var input dto.CreateProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	p, err := h.uc.CreateProduct(c.Request.Context(), &input)
	if err != nil {
		h.logger.Error("failed to create product", zap.Error(err))
		httputil.RespondError(c, err)
		return
	}
	httputil.RespondCreated(c, p)
}

func (h *ProductHandler) GetProduct(c *gin.Context) {
	p, err := h.uc.GetProductBySKU(c.Request.Context(), c.Param("sku"))
	if err != nil {
		httputil.RespondError(c, err)
		return
	}
	httputil.RespondOK(c, p)
}

func (h *ProductHandler) ListProducts(c *gin.Context) {
	filters := &dto.ProductFilters{
		SearchQuery: c.Query("q"),
		SortBy:      c.DefaultQuery("sort_by", "created_at"),
		SortOrder:   c.DefaultQuery("sort_order", "desc"),
		Page:        queryInt(c, "page", 1),
		PageSize:    queryInt(c, "page_size", 20),
	}
	if raw := c.Query("is_active"); raw != "" {
		v := raw == "true"
		filters.IsActive = &v
	}
	if raw := c.Query("is_composite"); raw != "" {
		v := raw == "true"
		filters.IsComposite = &v
	}

	products, total, err := h.uc.ListProducts(c.Request.Context(), filters)
	if err != nil {
		httputil.RespondError(c, err)
		return
	}
	httputil.RespondOK(c, gin.H{
		"products":  products,
		"total":     total,
		"page":      filters.Page,
		"page_size": filters.PageSize,
	})
}

func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	var input dto.UpdateProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	current, err := h.uc.GetProductBySKU(c.Request.Context(), c.Param("sku"))
	if err != nil {
		httputil.RespondError(c, err)
		return
	}

	p, err := h.uc.UpdateProduct(c.Request.Context(), current.ID, &input)
	if err != nil {
		h.logger.Error("failed to update product", zap.Error(err))
		httputil.RespondError(c, err)
		return
	}
	httputil.RespondOK(c, p)
}

func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	current, err := h.uc.GetProductBySKU(c.Request.Context(), c.Param("sku"))
	if err != nil {
		httputil.RespondError(c, err)
		return
	}

	if err := h.uc.DeleteProduct(c.Request.Context(), current.ID); err != nil {
		httputil.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ProductHandler) ValidateStateTransition(c *gin.Context) {
	var input dto.UpdateProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	current, err := h.uc.GetProductBySKU(c.Request.Context(), c.Param("sku"))
	if err != nil {
		httputil.RespondError(c, err)
		return
	}

	result, err := h.uc.ValidateStateTransition(c.Request.Context(), current, &input)
	if err != nil {
		httputil.RespondError(c, err)
		return
	}
	httputil.RespondOK(c, result)
}

func queryInt(c *gin.Context, key string, fallback int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
