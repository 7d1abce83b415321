package server

import (
	"github.com/Luismorlan/instag/server/middlewares"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	gintrace "gopkg.in/DataDog/dd-trace-go.v1/contrib/gin-gonic/gin"
)

type RouterConfig struct {
	// Service name reported by the tracing middleware, tracing is off when empty.
	ServiceName string
	// Admin token required by every route but /ping, no auth when empty.
	AdminToken string
}

func NewRouter(h *Handlers, config RouterConfig) *gin.Engine {
	// Default With the Logger and Recovery middleware already attached
	router := gin.Default()

	router.Use(cors.Default())
	if config.ServiceName != "" {
		router.Use(gintrace.Middleware(config.ServiceName))
	}

	router.GET("/ping", h.Ping)

	admin := router.Group("/", middlewares.AdminToken(config.AdminToken))
	admin.POST("/batches", h.StartBatch)
	admin.GET("/batches/:id", h.GetBatch)
	admin.POST("/batches/:id/step", h.StepBatch)
	admin.GET("/posts", h.ListPosts)
	admin.DELETE("/posts", h.DeleteAllPosts)

	return router
}
