// Package router wires the analysis service HTTP routes.
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/newsloom/internal/analysis/handler"
	"github.com/kart-io/newsloom/internal/analysis/store"
	"github.com/kart-io/newsloom/pkg/component/storage"
	"github.com/kart-io/newsloom/pkg/middleware"
)

// Register registers all analysis service routes on the engine.
func Register(engine *gin.Engine, factory store.Factory, storages *storage.Manager) {
	engine.Use(
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Recovery(),
	)

	healthHandler := handler.NewHealthHandler(storages)
	engine.GET("/healthz", healthHandler.Healthz)
	engine.GET("/ping", healthHandler.Ping)

	workspaceHandler := handler.NewWorkspaceHandler(factory)
	taskHandler := handler.NewTaskHandler(factory)
	sessionHandler := handler.NewSessionHandler(factory)
	clusterHandler := handler.NewClusterHandler(factory)

	v1 := engine.Group("/v1")
	{
		workspaces := v1.Group("/workspaces")
		{
			workspaces.POST("", workspaceHandler.Create)
			workspaces.GET("", workspaceHandler.List)
			workspaces.GET("/:id", workspaceHandler.Get)
			workspaces.PUT("/:id", workspaceHandler.Update)
			workspaces.DELETE("/:id", workspaceHandler.Delete)
		}

		tasks := v1.Group("/tasks")
		{
			tasks.POST("", taskHandler.Create)
			tasks.GET("", taskHandler.List)
			tasks.GET("/:id", taskHandler.Get)
		}

		sessions := v1.Group("/sessions")
		{
			sessions.GET("", sessionHandler.List)
			sessions.GET("/:id", sessionHandler.Get)
			sessions.GET("/:id/clusters", sessionHandler.Clusters)
			sessions.GET("/:id/starters", sessionHandler.Starters)
		}

		clusters := v1.Group("/clusters")
		{
			clusters.GET("/:id", clusterHandler.Get)
			clusters.GET("/:id/articles", clusterHandler.Articles)
		}
	}

	logger.Infow("analysis routes registered")
}
