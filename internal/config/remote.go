package config

import (
	"fmt"
	"net/url"

	"github.com/JaimeStill/beacon/internal/remote"
	"github.com/JaimeStill/beacon/pkg/overrides"
)

// RemoteConfig locates the analysis backend and bounds each call.
type RemoteConfig struct {
	BaseURL        string `toml:"base_url"`
	UploadPath     string `toml:"upload_path"`
	DatasetsPath   string `toml:"datasets_path"`
	InsightPath    string `toml:"insight_path"`
	PredictPath    string `toml:"predict_path"`
	ListTimeout    string `toml:"list_timeout"`
	UploadTimeout  string `toml:"upload_timeout"`
	RequestTimeout string `toml:"request_timeout"`
}

func (c *RemoteConfig) Options() remote.Options {
	return remote.Options{
		BaseURL:        c.BaseURL,
		UploadPath:     c.UploadPath,
		DatasetsPath:   c.DatasetsPath,
		InsightPath:    c.InsightPath,
		PredictPath:    c.PredictPath,
		ListTimeout:    overrides.MustDuration(c.ListTimeout),
		UploadTimeout:  overrides.MustDuration(c.UploadTimeout),
		RequestTimeout: overrides.MustDuration(c.RequestTimeout),
	}
}

func (c *RemoteConfig) Finalize() error {
	overrides.Default(&c.BaseURL, "http://localhost:8000")
	overrides.Default(&c.UploadPath, "/api/upload-files")
	overrides.Default(&c.DatasetsPath, "/api/datasets")
	overrides.Default(&c.InsightPath, "/api/insights/generate")
	overrides.Default(&c.PredictPath, "/leads/predict")
	overrides.Default(&c.ListTimeout, "15s")
	overrides.Default(&c.UploadTimeout, "45s")
	overrides.Default(&c.RequestTimeout, "30s")

	overrides.Env(&c.BaseURL, "BEACON_REMOTE_BASE_URL")
	overrides.Env(&c.ListTimeout, "BEACON_REMOTE_LIST_TIMEOUT")
	overrides.Env(&c.UploadTimeout, "BEACON_REMOTE_UPLOAD_TIMEOUT")
	overrides.Env(&c.RequestTimeout, "BEACON_REMOTE_REQUEST_TIMEOUT")

	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid base_url: %q", c.BaseURL)
	}
	// Checked in declaration order so the first bad field is the one reported.
	for _, d := range [][2]string{
		{"list_timeout", c.ListTimeout},
		{"upload_timeout", c.UploadTimeout},
		{"request_timeout", c.RequestTimeout},
	} {
		if _, err := overrides.Duration(d[0], d[1]); err != nil {
			return err
		}
	}
	return nil
}

func (c *RemoteConfig) Merge(overlay *RemoteConfig) {
	overrides.Overlay(&c.BaseURL, overlay.BaseURL)
	overrides.Overlay(&c.UploadPath, overlay.UploadPath)
	overrides.Overlay(&c.DatasetsPath, overlay.DatasetsPath)
	overrides.Overlay(&c.InsightPath, overlay.InsightPath)
	overrides.Overlay(&c.PredictPath, overlay.PredictPath)
	overrides.Overlay(&c.ListTimeout, overlay.ListTimeout)
	overrides.Overlay(&c.UploadTimeout, overlay.UploadTimeout)
	overrides.Overlay(&c.RequestTimeout, overlay.RequestTimeout)
}
