package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/romangod6/kb-sitemap/internal/generator"
	"github.com/romangod6/kb-sitemap/internal/models"
	"github.com/romangod6/kb-sitemap/internal/sitemap"
	"github.com/romangod6/kb-sitemap/internal/source"
	"github.com/romangod6/kb-sitemap/internal/storage"
)

// Generator publishes the stored sitemaps, optionally crawling first.
type Generator interface {
	Run(ctx context.Context) (*generator.Result, error)
	Publish(ctx context.Context) (*generator.Result, error)
}

type Handler struct {
	store     storage.Store
	loader    *source.Loader
	generator Generator
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type PaginationResponse struct {
	Data       interface{} `json:"data"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	TotalCount int         `json:"total_count,omitempty"`
}

// SitemapRequest is the body of POST /api/sitemaps.
type SitemapRequest struct {
	Name        string `json:"name" binding:"required"`
	Path        string `json:"path"`
	Description string `json:"description"`
}

// SitemapResponse describes a stored sitemap and how it renders.
type SitemapResponse struct {
	*models.Sitemap
	Count    int  `json:"count"`
	Exceeded bool `json:"exceeded"`
	Chunks   int  `json:"chunks,omitempty"`
}

// EntryRequest is the body of POST /api/entries.
type EntryRequest struct {
	Sitemap    string          `json:"sitemap" binding:"required"`
	Loc        string          `json:"loc" binding:"required"`
	Title      string          `json:"title"`
	ChangeFreq string          `json:"changefreq"`
	Priority   *float64        `json:"priority"`
	LastMod    *time.Time      `json:"lastmod"`
	Images     []string        `json:"images"`
	Attributes json.RawMessage `json:"attributes"`
}

// NewHandler creates the handler. generator may be nil, in which case
// POST /api/generate is unavailable.
func NewHandler(store storage.Store, loader *source.Loader, generator Generator) *Handler {
	return &Handler{store: store, loader: loader, generator: generator}
}

// RenderAll renders every stored sitemap in format: the single sitemap, or an index.
func (h *Handler) RenderAll(format string) gin.HandlerFunc {
	return func(c *gin.Context) {
		h.render(c, "", format)
	}
}

// RenderSitemap serves /sitemaps/{name}[.{chunk}].{format}.
func (h *Handler) RenderSitemap(c *gin.Context) {
	file := c.Param("file")
	i := strings.LastIndex(file, ".")
	if i <= 0 || i == len(file)-1 {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Sitemap not found"})
		return
	}

	h.render(c, file[:i], file[i+1:])
}

func (h *Handler) render(c *gin.Context, name, format string) {
	var names []string
	if name != "" {
		base, _, _ := strings.Cut(name, ".")
		names = append(names, base)
	}

	m, err := h.loader.Manager(c.Request.Context(), names...)
	if err != nil {
		log.Printf("Error loading sitemaps: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to load sitemaps"})
		return
	}

	data, err := m.Format(format).Render(name)
	if err != nil {
		log.Printf("Error rendering sitemap %q as %s: %v", name, format, err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to render sitemap"})
		return
	}
	if data == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Sitemap not found"})
		return
	}

	c.Data(http.StatusOK, m.ContentType(), data)
}

// ListSitemaps returns every stored sitemap's urls keyed by sitemap name.
func (h *Handler) ListSitemaps(c *gin.Context) {
	m, err := h.loader.Manager(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to fetch sitemaps"})
		return
	}

	c.JSON(http.StatusOK, m)
}

func (h *Handler) GetSitemap(c *gin.Context) {
	name := c.Param("name")

	def, err := h.store.GetSitemap(c.Request.Context(), name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to fetch sitemap"})
		return
	}
	if def == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Sitemap not found"})
		return
	}

	m, err := h.loader.Manager(c.Request.Context(), name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to fetch sitemap"})
		return
	}

	response := SitemapResponse{Sitemap: def}
	if s, ok := m.Get(name); ok {
		response.Count = s.Count()
		response.Exceeded = s.IsExceeded()
		if response.Exceeded {
			chunks, err := s.Chunk()
			if err != nil {
				c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
				return
			}
			response.Chunks = chunks.Len()
		}
	}

	c.JSON(http.StatusOK, response)
}

func (h *Handler) CreateSitemap(c *gin.Context) {
	var req SitemapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid sitemap data"})
		return
	}

	// Dots address chunks and slashes separate route segments.
	if strings.ContainsAny(req.Name, "./") {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Sitemap name must not contain '.' or '/'"})
		return
	}

	def := models.NewSitemap(req.Name)
	def.Path = req.Path
	def.Description = req.Description

	if err := h.store.SaveSitemap(c.Request.Context(), def); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to save sitemap"})
		return
	}
	h.loader.Forget(def.Name)

	c.JSON(http.StatusCreated, def)
}

func (h *Handler) DeleteSitemap(c *gin.Context) {
	name := c.Param("name")

	def, err := h.store.GetSitemap(c.Request.Context(), name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to fetch sitemap"})
		return
	}
	if def == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Sitemap not found"})
		return
	}

	if err := h.store.DeleteSitemap(c.Request.Context(), name); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to delete sitemap"})
		return
	}
	h.loader.Forget(name)

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (h *Handler) ListEntries(c *gin.Context) {
	name := c.Param("name")
	page, limit := getPaginationParams(c)
	offset := (page - 1) * limit

	entries, err := h.store.ListEntries(c.Request.Context(), name, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to fetch entries"})
		return
	}
	total, err := h.store.CountEntries(c.Request.Context(), name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to count entries"})
		return
	}

	if entries == nil {
		entries = []*models.Entry{}
	}

	c.JSON(http.StatusOK, PaginationResponse{
		Data:       entries,
		Page:       page,
		Limit:      limit,
		TotalCount: total,
	})
}

func (h *Handler) CreateEntry(c *gin.Context) {
	var req EntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid entry data"})
		return
	}

	def, err := h.store.GetSitemap(c.Request.Context(), req.Sitemap)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to fetch sitemap"})
		return
	}
	if def == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Sitemap not found"})
		return
	}

	entry := models.NewEntry(req.Sitemap, req.Loc)
	entry.Title = req.Title
	entry.ChangeFreq = req.ChangeFreq
	entry.Priority = req.Priority
	entry.LastMod = req.LastMod
	entry.Images = req.Images
	if len(req.Attributes) > 0 && string(req.Attributes) != "null" {
		entry.Attributes = &req.Attributes
	}

	if err := entry.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	if err := h.store.SaveEntry(c.Request.Context(), entry); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to save entry"})
		return
	}
	h.loader.Forget(entry.Sitemap)

	c.JSON(http.StatusCreated, entry)
}

func (h *Handler) GetEntry(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid entry ID"})
		return
	}

	entry, err := h.store.GetEntry(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to fetch entry"})
		return
	}

	if entry == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Entry not found"})
		return
	}

	c.JSON(http.StatusOK, entry)
}

func (h *Handler) DeleteEntry(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid entry ID"})
		return
	}

	entry, err := h.store.GetEntry(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to fetch entry"})
		return
	}
	if entry == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Entry not found"})
		return
	}

	if err := h.store.DeleteEntry(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to delete entry"})
		return
	}
	h.loader.Forget(entry.Sitemap)

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// Generate saves the stored sitemaps to disk. With ?crawl=true the configured sites
// are crawled first.
func (h *Handler) Generate(c *gin.Context) {
	if h.generator == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "Generation is not configured"})
		return
	}

	run := h.generator.Publish
	if crawl, _ := strconv.ParseBool(c.Query("crawl")); crawl {
		run = h.generator.Run
	}

	result, err := run(c.Request.Context())
	if err != nil {
		log.Printf("Error generating sitemaps: %v", err)
		status := http.StatusInternalServerError
		if errors.Is(err, sitemap.ErrConfiguration) {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// Utility functions
func getPaginationParams(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "10"))

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	return page, limit
}
