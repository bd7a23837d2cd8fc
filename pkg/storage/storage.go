// Package storage archives uploaded lead files and generated exports in an
// Azure Blob Storage container.
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"

	"github.com/JaimeStill/beacon/pkg/lifecycle"
)

// Info is what the container reports about a stored blob.
type Info struct {
	ContentType  string
	Size         int64
	LastModified time.Time
}

// Object is an open blob. Callers close Body.
type Object struct {
	Info
	Body io.ReadCloser
}

type System interface {
	// Start creates the container once the process starts; an existing
	// container is reused.
	Start(lc *lifecycle.Coordinator) error
	Upload(ctx context.Context, key string, r io.Reader, contentType string) error
	// Open and Stat report ErrNotFound for a missing blob.
	Open(ctx context.Context, key string) (*Object, error)
	Stat(ctx context.Context, key string) (Info, error)
}

type container struct {
	client *azblob.Client
	name   string
	logger *slog.Logger
}

// New builds the client without contacting the service.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	client, err := newClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &container{
		client: client,
		name:   cfg.ContainerName,
		logger: logger.With("system", "storage", "container", cfg.ContainerName),
	}, nil
}

func newClient(cfg *Config) (*azblob.Client, error) {
	opts := &azblob.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{MaxRetries: int32(cfg.MaxRetries)},
		},
	}
	if !cfg.UsesCredential() {
		return azblob.NewClientFromConnectionString(cfg.ConnectionString, opts)
	}

	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("azure credential: %w", err)
	}
	return azblob.NewClient(cfg.ServiceURL, cred, opts)
}

func (c *container) Start(lc *lifecycle.Coordinator) error {
	lc.OnStartup(func() {
		_, err := c.client.CreateContainer(lc.Context(), c.name, nil)
		if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
			c.logger.Error("container unavailable; archiving disabled until it exists", "error", err)
			return
		}
		c.logger.Info("archive container ready")
	})
	return nil
}

func (c *container) Upload(ctx context.Context, key string, r io.Reader, contentType string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	opts := &azblob.UploadStreamOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: to.Ptr(contentType)},
	}
	if _, err := c.client.UploadStream(ctx, c.name, key, r, opts); err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}

func (c *container) Open(ctx context.Context, key string) (*Object, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	resp, err := c.client.DownloadStream(ctx, c.name, key, nil)
	if err != nil {
		return nil, blobError("open", key, err)
	}
	return &Object{
		Info: Info{
			ContentType:  deref(resp.ContentType),
			Size:         deref(resp.ContentLength),
			LastModified: deref(resp.LastModified),
		},
		Body: resp.Body,
	}, nil
}

func (c *container) Stat(ctx context.Context, key string) (Info, error) {
	if err := validateKey(key); err != nil {
		return Info{}, err
	}
	props, err := c.client.ServiceClient().
		NewContainerClient(c.name).
		NewBlobClient(key).
		GetProperties(ctx, nil)
	if err != nil {
		return Info{}, blobError("stat", key, err)
	}
	return Info{
		ContentType:  deref(props.ContentType),
		Size:         deref(props.ContentLength),
		LastModified: deref(props.LastModified),
	}, nil
}

func blobError(op, key string, err error) error {
	if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%s %s: %w", op, key, err)
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
