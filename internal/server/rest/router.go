// Package rest is the HTTP API of the blog: a gin router with CORS, request
// timeouts, access logging and the auth gate in front of the post routes.
package rest

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/gopherblog/internal/logging"
	"github.com/dmitrijs2005/gopherblog/internal/server/auth"
	"github.com/dmitrijs2005/gopherblog/internal/server/storage"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type RouterConfig struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	cfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	return cors.New(cfg)
}

// NewRouter builds the engine with every API route registered.
func NewRouter(h *Handlers, gate *auth.Gate, st storage.Storage, logger logging.Logger, rc RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(
		Recovery(logger),
		AccessLog(logger),
		corsMiddleware(rc.AllowedOrigins),
		Timeout(rc.RequestTimeout),
	)

	r.GET("/healthz", h.Health)

	r.POST("/register", h.Register)
	r.POST("/login", h.Login)
	r.POST("/logout", h.Logout)
	r.GET("/profile", RequireAuth(gate), h.Profile)

	r.GET("/post", h.ListPosts)
	r.GET("/post/:id", h.GetPost)

	protected := r.Group("/post", RequireAuth(gate))
	{
		protected.POST("", h.CreatePost)
		protected.PUT("", h.UpdatePost)
		protected.PUT("/:id", h.UpdatePost)
		protected.DELETE("/:id", h.DeletePost)
	}

	registerUploads(r, st)

	return r
}
