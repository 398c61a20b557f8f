package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "PHARMACY"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	SourceHTTP   = "http"
	SourceMemory = "memory"
	SourceFile   = "file"
)

type Config struct {
	App            AppConfig
	Source         SourceConfig
	ProductService ProductServiceConfig
	Storefront     StorefrontConfig
	Server         ServerConfig
}

// Load reads an optional .env file from the working directory and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env       string `envconfig:"PHARMACY_APP_ENV" default:"dev"`
	LogLevel  string `envconfig:"PHARMACY_LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"PHARMACY_LOG_FORMAT" default:"console"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

type SourceConfig struct {
	Kind string `envconfig:"PHARMACY_SOURCE_KIND" default:"http"`
	File string `envconfig:"PHARMACY_SOURCE_FILE" default:"data/products.json"`
}

type ProductServiceConfig struct {
	URL      string        `envconfig:"PHARMACY_PRODUCT_SERVICE_URL" default:"https://localhost:7290"`
	Timeout  time.Duration `envconfig:"PHARMACY_PRODUCT_SERVICE_TIMEOUT" default:"3s"`
	Insecure bool          `envconfig:"PHARMACY_PRODUCT_SERVICE_INSECURE" default:"false"`
}

type StorefrontConfig struct {
	Currency        string        `envconfig:"PHARMACY_CURRENCY" default:"E£"`
	DefaultImageURL string        `envconfig:"PHARMACY_DEFAULT_IMAGE_URL" default:"/assets/images/panadolColdFlu.jpeg"`
	AddedIndicator  time.Duration `envconfig:"PHARMACY_ADDED_INDICATOR" default:"2s"`
}

type ServerConfig struct {
	Addr string `envconfig:"PHARMACY_SERVER_ADDR" default:":7290"`
}

// Validate checks the settings that other packages rely on.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Source.Kind) {
	case SourceHTTP:
		if c.ProductService.URL == "" {
			return fmt.Errorf("%s_PRODUCT_SERVICE_URL is required for the http source", EnvPrefix)
		}
	case SourceFile:
		if c.Source.File == "" {
			return fmt.Errorf("%s_SOURCE_FILE is required for the file source", EnvPrefix)
		}
	case SourceMemory, "mem":
	default:
		return fmt.Errorf("unknown source kind: %s", c.Source.Kind)
	}
	if c.ProductService.Timeout <= 0 {
		return fmt.Errorf("%s_PRODUCT_SERVICE_TIMEOUT must be positive", EnvPrefix)
	}
	return nil
}
