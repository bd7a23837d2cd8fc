package ingestion

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/beacon/internal/remote"
)

func workerCount(n int) int {
	return max(min(runtime.NumCPU(), n), 1)
}

// inspectFiles validates and describes each file concurrently. Results keep input order.
func inspectFiles(ctx context.Context, logger *slog.Logger, files []remote.File) ([]FileInfo, error) {
	infos := make([]FileInfo, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerCount(len(files)))

	for i := range files {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}

			f := files[i]
			if strings.TrimSpace(f.Name) == "" {
				return fmt.Errorf("file %d: %w: missing name", i+1, ErrInvalidFile)
			}
			if len(f.Data) == 0 {
				return fmt.Errorf("%s: %w: file is empty", f.Name, ErrInvalidFile)
			}

			contentType := detectContentType(f.Name, f.ContentType, f.Data)
			infos[i] = FileInfo{
				Name:        f.Name,
				ContentType: contentType,
				FileType:    fileType(f.Name, contentType),
				SizeBytes:   f.Size(),
				PageCount:   extractPDFPageCount(logger, f.Data, contentType),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return infos, nil
}

// archiveFiles copies the raw files to blob storage. Failures are logged and the
// affected file is left without a storage key.
func archiveFiles(ctx context.Context, logger *slog.Logger, store Archiver, runID uuid.UUID, files []remote.File, infos []FileInfo) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerCount(len(files)))

	for i := range files {
		g.Go(func() error {
			key := buildStorageKey(runID, files[i].Name)
			if err := store.Upload(gctx, key, bytes.NewReader(files[i].Data), infos[i].ContentType); err != nil {
				logger.Warn("archive upload failed", "key", key, "error", err)
				return nil
			}
			infos[i].StorageKey = key
			return nil
		})
	}

	g.Wait()
}

func detectContentType(name, header string, data []byte) string {
	header = strings.TrimSpace(header)
	if header != "" && header != "application/octet-stream" {
		return header
	}
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); byExt != "" {
		return byExt
	}
	return http.DetectContentType(data)
}

// fileType is the short type label shown for a dataset: the lowercase extension,
// or the media subtype when the name has none.
func fileType(name, contentType string) string {
	if ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), "."); ext != "" {
		return ext
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return contentType
	}
	if _, sub, ok := strings.Cut(mediaType, "/"); ok {
		return sub
	}
	return mediaType
}

func extractPDFPageCount(logger *slog.Logger, data []byte, contentType string) *int {
	if !strings.HasPrefix(contentType, "application/pdf") {
		return nil
	}

	count, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		logger.Warn("failed to extract PDF page count", "error", err)
		return nil
	}

	return &count
}

func buildStorageKey(runID uuid.UUID, filename string) string {
	return fmt.Sprintf("uploads/%s/%s", runID, sanitizeFilename(filename))
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	if name == "." || name == "" || name == "/" {
		name = "upload"
	}
	return url.PathEscape(name)
}
