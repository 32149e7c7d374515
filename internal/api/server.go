package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/romangod6/kb-sitemap/internal/sitemap"
)

type Server struct {
	router *gin.Engine
	port   int
	server *http.Server
}

func NewServer(port int, handler *Handler) *Server {
	router := gin.Default()

	// Setup CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Rendered documents
	for _, format := range []string{sitemap.FormatXML, sitemap.FormatRSS, sitemap.FormatTXT} {
		router.GET("/sitemap."+format, handler.RenderAll(format))
	}
	router.GET("/sitemaps/:file", handler.RenderSitemap)

	// Setup routes
	api := router.Group("/api")
	{
		// Health check
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "healthy"})
		})

		sitemaps := api.Group("/sitemaps")
		{
			sitemaps.GET("", handler.ListSitemaps)
			sitemaps.POST("", handler.CreateSitemap)
			sitemaps.GET("/:name", handler.GetSitemap)
			sitemaps.DELETE("/:name", handler.DeleteSitemap)
			sitemaps.GET("/:name/entries", handler.ListEntries)
		}

		entries := api.Group("/entries")
		{
			entries.POST("", handler.CreateEntry)
			entries.GET("/:id", handler.GetEntry)
			entries.DELETE("/:id", handler.DeleteEntry)
		}

		api.POST("/generate", handler.Generate)
	}

	return &Server{
		router: router,
		port:   port,
	}
}

// Handler returns the router, for serving without Start.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
