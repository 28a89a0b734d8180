package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/complaintdesk/backend/internal/config"
	"github.com/complaintdesk/backend/internal/http/handlers"
	"github.com/complaintdesk/backend/internal/http/middleware"
	"github.com/complaintdesk/backend/internal/store"

	_ "github.com/complaintdesk/backend/docs"
)

func Router(cfg config.Config, st *store.Store, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Admin-Key", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSAllowed == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = []string{cfg.CORSAllowed}
	}
	r.Use(cors.New(corsCfg))

	h := &handlers.Handler{
		Store:     st,
		Validator: validator.New(),
		Logger:    logger,
	}

	r.GET("/healthz", h.Healthz)

	api := r.Group("/api")
	{
		api.GET("/organizations", h.OrganizationsList)
		api.GET("/organizations/:id", h.OrganizationDetails)
		api.GET("/complaints", h.ComplaintsList)
		api.GET("/complaints/:id", h.ComplaintDetails)
		api.POST("/complaints", h.ComplaintCreate)
		api.PATCH("/complaints/:id", h.ComplaintUpdate)
		api.POST("/complaints/:id/status", h.ComplaintTransition)
	}

	admin := api.Group("")
	admin.Use(middleware.AdminKey(cfg.AdminKey))
	{
		admin.POST("/organizations", h.OrganizationCreate)
		admin.PUT("/organizations/:id", h.OrganizationUpdate)
		admin.DELETE("/organizations/:id", h.OrganizationDelete)
		admin.DELETE("/complaints/:id", h.ComplaintDelete)
		admin.GET("/export", h.Export)
		admin.POST("/import", h.Import)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
