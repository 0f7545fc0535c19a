package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"
)

type RouterConfig struct {
	CORSOrigins []string
	SSL         bool
	// Auth resolves the caller before any handler runs.
	Auth gin.HandlerFunc
}

// NewRouter builds the gin engine serving the directory API.
func NewRouter(h *Handler, cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(requestLogger())
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		respondError(c, fmt.Errorf("panic recovered: %v", recovered))
	}))
	router.Use(corsMiddleware(cfg.CORSOrigins))
	router.Use(secure.New(secureConfig(cfg.SSL)))
	if cfg.Auth != nil {
		router.Use(cfg.Auth)
	}

	router.POST("/comment", h.PostComment)
	router.GET("/comments", h.ListComments)
	router.GET("/comments/stream", h.StreamComments)

	router.POST("/follow", h.Follow)
	router.DELETE("/follow", h.Unfollow)
	router.GET("/follow", h.IsFollowing)
	router.GET("/follows", h.ListFollows)

	router.GET("/profile/:id", h.GetProfile)
	router.POST("/profile", h.SaveProfile)
	router.GET("/profiles", h.ListProfiles)
	router.GET("/business/:id", h.GetBusiness)
	router.POST("/business", h.SaveBusiness)
	router.GET("/businesses", h.ListBusinesses)
	router.GET("/search", h.Search)
	router.GET("/map/*bounds", h.Map)

	router.GET("/login", h.Login)
	router.GET("/check_new_user", h.CheckNewUser)
	router.GET("/logout", h.Logout)

	return router
}

func secureConfig(ssl bool) secure.Config {
	cfg := secure.Config{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}
	// behind a TLS-terminating proxy these belong to the proxy
	if ssl {
		cfg.SSLRedirect = true
		cfg.STSSeconds = 31536000
		cfg.STSIncludeSubdomains = true
	}
	return cfg
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowCredentials: true,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
	})
	return func(ctx *gin.Context) {
		c.HandlerFunc(ctx.Writer, ctx.Request)
		if ctx.Request.Method == http.MethodOptions && ctx.GetHeader("Access-Control-Request-Method") != "" {
			ctx.AbortWithStatus(http.StatusNoContent)
			return
		}
		ctx.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := log.WithFields(log.Fields{
			"status":    c.Writer.Status(),
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"latency":   time.Since(start).String(),
			"client_ip": c.ClientIP(),
		})
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			entry.Error("request")
		case c.Writer.Status() >= http.StatusBadRequest:
			entry.Warn("request")
		default:
			entry.Info("request")
		}
	}
}
