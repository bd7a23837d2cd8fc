package config

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/JaimeStill/beacon/pkg/middleware"
	"github.com/JaimeStill/beacon/pkg/overrides"
	"github.com/JaimeStill/beacon/pkg/pagination"
)

const defaultUploadBytes = 50 << 20

var corsEnv = &middleware.CORSEnv{
	Enabled:          "BEACON_CORS_ENABLED",
	Origins:          "BEACON_CORS_ORIGINS",
	AllowedMethods:   "BEACON_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "BEACON_CORS_ALLOWED_HEADERS",
	AllowCredentials: "BEACON_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "BEACON_CORS_MAX_AGE",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "BEACON_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "BEACON_PAGINATION_MAX_PAGE_SIZE",
}

// APIConfig covers the API module: mount path, upload limit, CORS, and the
// page size bounds of the prediction history view.
type APIConfig struct {
	BasePath      string                `toml:"base_path"`
	MaxUploadSize string                `toml:"max_upload_size"`
	CORS          middleware.CORSConfig `toml:"cors"`
	Pagination    pagination.Config     `toml:"pagination"`
}

// MaxUploadSizeBytes accepts SI ("50MB") and IEC ("50MiB") units. An
// unparseable size yields 50 MiB.
func (c *APIConfig) MaxUploadSizeBytes() int64 {
	n, err := humanize.ParseBytes(c.MaxUploadSize)
	if err != nil || n == 0 {
		return defaultUploadBytes
	}
	return int64(n)
}

func (c *APIConfig) Finalize() error {
	overrides.Default(&c.BasePath, "/api")
	overrides.Default(&c.MaxUploadSize, "50MiB")
	overrides.Env(&c.BasePath, "BEACON_API_BASE_PATH")
	overrides.Env(&c.MaxUploadSize, "BEACON_API_MAX_UPLOAD_SIZE")

	if _, err := humanize.ParseBytes(c.MaxUploadSize); err != nil {
		return fmt.Errorf("invalid max_upload_size: %w", err)
	}
	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	return nil
}

func (c *APIConfig) Merge(overlay *APIConfig) {
	overrides.Overlay(&c.BasePath, overlay.BasePath)
	overrides.Overlay(&c.MaxUploadSize, overlay.MaxUploadSize)
	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
}
