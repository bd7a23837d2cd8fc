package infrastructure

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	slogmulti "github.com/samber/slog-multi"

	"github.com/JaimeStill/beacon/internal/config"
)

// NewLogger writes text records to stderr and, when cfg.File is set, fans out
// JSON records to that file. The returned func closes the file.
func NewLogger(stderr io.Writer, cfg *config.LoggingConfig) (*slog.Logger, func() error, error) {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	text := slog.NewTextHandler(stderr, opts)

	if cfg.File == "" {
		return slog.New(text), func() error { return nil }, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}
	file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	logger := slog.New(slogmulti.Fanout(text, slog.NewJSONHandler(file, opts)))
	return logger, file.Close, nil
}
