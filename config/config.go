package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"

	"github.com/romangod6/kb-sitemap/internal/sitemap"
)

// Site is a local directory crawled into a named sitemap.
type Site struct {
	Name    string
	Root    string
	BaseURL string
}

type Config struct {
	Database struct {
		Driver string
		URL    string
	}
	Server struct {
		Port int
	}
	Sitemap struct {
		MaxSize          int
		Escaping         bool
		DateFormat       string
		Format           string
		BaseURL          string
		Output           string
		GenerateInterval string
	}
	Cache struct {
		Enabled  bool
		Key      string
		Lifetime string
		Size     int
	}
	Styles struct {
		Enabled  bool
		Location string
	}
	Crawler struct {
		UserAgent string
		MaxDepth  int
		Sites     []Site
	}
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	SetDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.url", "kb-sitemap.db")

	v.SetDefault("sitemap.maxsize", sitemap.DefaultMaxSize)
	v.SetDefault("sitemap.escaping", true)
	v.SetDefault("sitemap.dateformat", sitemap.ATOM)
	v.SetDefault("sitemap.format", sitemap.FormatXML)
	v.SetDefault("sitemap.baseurl", "http://localhost:8080")
	v.SetDefault("sitemap.output", "public/sitemap.xml")
	v.SetDefault("sitemap.generateinterval", "24h")

	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.key", "kb-sitemap")
	v.SetDefault("cache.lifetime", "1h")
	v.SetDefault("cache.size", 128)

	v.SetDefault("styles.enabled", false)
	v.SetDefault("styles.location", "")

	v.SetDefault("crawler.useragent", "KB Sitemap Bot v1.0")
	v.SetDefault("crawler.maxdepth", 10)
}

func (c *Config) GetGenerateInterval() time.Duration {
	duration, err := time.ParseDuration(c.Sitemap.GenerateInterval)
	if err != nil {
		return 24 * time.Hour
	}
	return duration
}

func (c *Config) GetCacheLifetime() time.Duration {
	duration, err := time.ParseDuration(c.Cache.Lifetime)
	if err != nil {
		return time.Hour
	}
	return duration
}

// Settings returns a fresh rendering session configuration.
func (c *Config) Settings() *sitemap.Settings {
	return &sitemap.Settings{
		MaxSize:    c.Sitemap.MaxSize,
		Escaping:   c.Sitemap.Escaping,
		DateLayout: c.Sitemap.DateFormat,
	}
}
