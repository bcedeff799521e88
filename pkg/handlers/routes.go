package handlers

import (
	"github.com/arnavshah/pair-overlap-api/pkg/metrics"
	"github.com/gin-gonic/gin"
)

// Register mounts every route. apiMiddleware runs after API key
// authentication, so it can key on the calling user.
func (h *Handler) Register(r *gin.Engine, apiMiddleware ...gin.HandlerFunc) {
	// Admin interface - serve static files from embedded FS
	r.StaticFS("/static", h.GetStaticFS())

	r.GET("/", h.Index)
	r.GET("/healthz", h.Health)
	r.GET("/app", h.App)

	if h.Config != nil && h.Config.Prometheus.Enabled {
		r.GET(h.Config.Prometheus.Path, metrics.Handler())
	}

	r.GET("/admin", h.AdminInterface)
	r.POST("/admin/login", h.Login)

	admin := r.Group("/admin")
	admin.Use(h.AuthMiddleware())
	{
		admin.POST("/keys", h.GenerateKey)
		admin.GET("/keys", h.ListKeys)
		admin.PUT("/keys/:id", h.UpdateKeyLimit)
		admin.DELETE("/keys/:id", h.RevokeKey)
		admin.GET("/usage/:id", h.GetUsage)
	}

	api := r.Group("/api")
	api.Use(h.APIKeyMiddleware())
	api.Use(apiMiddleware...)
	{
		api.POST("/datasets", h.UploadDataset)
		api.GET("/datasets", h.ListDatasets)
		api.GET("/datasets/:id", h.GetDataset)
		api.DELETE("/datasets/:id", h.DeleteDataset)
		api.PUT("/datasets/:id/active", h.ActivateDataset)
		api.GET("/datasets/:id/report", h.DatasetReport)
		api.GET("/datasets/:id/report/export", h.ExportReport)
		api.GET("/datasets/:id/source", h.DatasetSource)

		api.GET("/report", h.ActiveReport)
		api.POST("/report", h.ReportJSON)
		api.POST("/validate", h.ValidateUpload)
		api.GET("/usage", h.GetMyUsage)
	}
}
