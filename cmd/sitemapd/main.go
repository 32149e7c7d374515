package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/romangod6/kb-sitemap/config"
	"github.com/romangod6/kb-sitemap/internal/api"
	"github.com/romangod6/kb-sitemap/internal/cache"
	"github.com/romangod6/kb-sitemap/internal/generator"
	"github.com/romangod6/kb-sitemap/internal/models"
	"github.com/romangod6/kb-sitemap/internal/render"
	"github.com/romangod6/kb-sitemap/internal/source"
	"github.com/romangod6/kb-sitemap/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize storage
	store, err := storage.New(cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer store.Close()

	// Initialize database tables
	if err := store.Initialize(); err != nil {
		log.Fatalf("Failed to initialize database tables: %v", err)
	}

	templates, err := render.NewTemplates(render.Styles{
		Enabled:  cfg.Styles.Enabled,
		Location: cfg.Styles.Location,
	})
	if err != nil {
		log.Fatalf("Failed to load templates: %v", err)
	}

	opts := []source.Option{
		source.WithBaseURL(cfg.Sitemap.BaseURL),
		source.WithFormat(cfg.Sitemap.Format),
	}
	if cfg.Cache.Enabled {
		entries := cache.New[[]*models.Entry](cfg.Cache.Size)
		opts = append(opts, source.WithCache(entries, cfg.Cache.Key, cfg.GetCacheLifetime()))
	}
	loader := source.NewLoader(store, templates, cfg.Settings, opts...)

	gen := generator.New(store, loader, generatorOptions(cfg))

	// Initialize API server
	server := api.NewServer(cfg.Server.Port, api.NewHandler(store, loader, gen))

	// Setup periodic generation
	ticker := time.NewTicker(cfg.GetGenerateInterval())
	defer ticker.Stop()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		for {
			select {
			case <-ticker.C:
				log.Println("Starting periodic generation...")
				runGeneration(ctx, gen)
			case <-ctx.Done():
				return
			}
		}
	}()

	// Start the API server
	go func() {
		log.Printf("Starting API server on port %d", cfg.Server.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start API server: %v", err)
		}
	}()

	// Wait for shutdown
	waitForShutdown(cancel, server)
}

func generatorOptions(cfg *config.Config) generator.Options {
	sites := make([]generator.Site, 0, len(cfg.Crawler.Sites))
	for _, site := range cfg.Crawler.Sites {
		sites = append(sites, generator.Site{Name: site.Name, Root: site.Root, BaseURL: site.BaseURL})
	}

	return generator.Options{
		Sites:     sites,
		UserAgent: cfg.Crawler.UserAgent,
		MaxDepth:  cfg.Crawler.MaxDepth,
		Output:    cfg.Sitemap.Output,
	}
}

func runGeneration(ctx context.Context, gen *generator.Generator) {
	result, err := gen.Run(ctx)
	if err != nil {
		log.Printf("Generation failed: %v", err)
	}
	if result != nil {
		log.Printf("Generation completed: %d sitemaps saved to %s", result.Sitemaps, result.Output)
	}
}

func waitForShutdown(cancel context.CancelFunc, server *api.Server) {
	// Handle system signals for shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Println("Shutting down...")
	cancel()

	// Graceful server shutdown
	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Error shutting down server: %v", err)
	}
	log.Println("Server shut down gracefully")
}
