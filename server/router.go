package server

import (
	"time"

	httpHandler "github.com/hayatoa/threads-auto-post-gs/interfaces/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// InitiateRouter builds the status server routes. The surface is
// read-only; nothing here writes to the row store.
func InitiateRouter(statusHandler httpHandler.IStatusHandler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))

	router.GET("/healthz", statusHandler.Healthz)

	api := router.Group("api")
	api.GET("/status", statusHandler.Status)

	return router
}
