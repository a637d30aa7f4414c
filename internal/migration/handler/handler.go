package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/omnikit/catalog-composition-service/internal/migration"
	"github.com/omnikit/catalog-composition-service/internal/migration/dto"
	"github.com/omnikit/catalog-composition-service/internal/pkg/httputil"
	"github.com/omnikit/catalog-composition-service/internal/pkg/logger"
)

type MigrationHandler struct {
	uc      migration.UseCase
	backups migration.BackupStore
	logger  logger.ZapLogger
}

func NewMigrationHandler(uc migration.UseCase, backups migration.BackupStore, log logger.ZapLogger) *MigrationHandler {
	return &MigrationHandler{
		uc:      uc,
		backups: backups,
		logger:  log,
	}
}

func (h *MigrationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	migrations := rg.Group("/products/:sku/migrations")
	{
		migrations.POST("/composite-to-variations", h.MigrateCompositeToVariations)
		migrations.POST("/variations-to-composite", h.MigrateVariationsToComposite)
		migrations.GET("/prerequisites", h.ValidatePrerequisites)
	}
	rg.POST("/migrations/rollback", h.Rollback)
}

func (h *MigrationHandler) MigrateCompositeToVariations(c *gin.Context) {
	sku := c.Param("sku")
	result, err := h.uc.MigrateCompositeToVariations(c.Request.Context(), sku, h.logProgress(sku))
	if err != nil {
		h.logger.Error("composite-to-variations migration rejected", zap.String("sku", sku), zap.Error(err))
		httputil.RespondError(c, err)
		return
	}
	httputil.RespondOK(c, result)
}

type variationsToCompositePayload struct {
	MergeStrategy string `json:"merge_strategy"`
}

func (h *MigrationHandler) MigrateVariationsToComposite(c *gin.Context) {
	payload := variationsToCompositePayload{MergeStrategy: migration.StrategyFirstVariation}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}

	sku := c.Param("sku")
	result, err := h.uc.MigrateVariationsToComposite(c.Request.Context(), sku, payload.MergeStrategy, h.logProgress(sku))
	if err != nil {
		h.logger.Error("variations-to-composite migration rejected", zap.String("sku", sku), zap.Error(err))
		httputil.RespondError(c, err)
		return
	}
	httputil.RespondOK(c, result)
}

func (h *MigrationHandler) ValidatePrerequisites(c *gin.Context) {
	target := c.Query("target")
	if target == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing target query parameter"})
		return
	}

	result, err := h.uc.ValidateMigrationPrerequisites(c.Request.Context(), c.Param("sku"), target)
	if err != nil {
		httputil.RespondError(c, err)
		return
	}
	httputil.RespondOK(c, result)
}

type rollbackPayload struct {
	BackupID string `json:"backup_id"`
}

func (h *MigrationHandler) Rollback(c *gin.Context) {
	var payload rollbackPayload
	if err := c.ShouldBindJSON(&payload); err != nil || payload.BackupID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing backup_id"})
		return
	}

	backup, err := h.backups.Restore(c.Request.Context(), payload.BackupID)
	if err != nil {
		httputil.RespondError(c, err)
		return
	}

	if err := h.uc.RollbackMigration(c.Request.Context(), backup); err != nil {
		h.logger.Error("rollback failed", zap.String("backup_id", payload.BackupID), zap.Error(err))
		httputil.RespondError(c, err)
		return
	}
	httputil.RespondOK(c, gin.H{"restored": true, "product_sku": backup.ProductSKU})
}

func (h *MigrationHandler) logProgress(sku string) migration.ProgressFunc {
	return func(ev dto.ProgressEvent) {
		h.logger.Info("migration progress",
			zap.String("sku", sku),
			zap.String("operation_id", ev.OperationID),
			zap.String("step", ev.StepName),
			zap.Int("progress", ev.Progress))
	}
}
