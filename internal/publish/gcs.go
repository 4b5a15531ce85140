package publish

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/storage/v1"
)

// DefaultPublicBaseURL is where public GCS objects are served from
const DefaultPublicBaseURL = "https://storage.googleapis.com"

// GCSPublisher uploads artifacts to a Google Cloud Storage bucket
type GCSPublisher struct {
	service       *storage.Service
	bucket        string
	publicBaseURL string
	logger        zerolog.Logger
	progressFunc  ProgressFunc
}

// NewGCSPublisher creates a publisher using application default credentials.
// Extra options are passed to the storage service (endpoint overrides in tests).
func NewGCSPublisher(ctx context.Context, bucket, publicBaseURL string, logger zerolog.Logger, opts ...option.ClientOption) (*GCSPublisher, error) {
	if bucket == "" {
		return nil, errors.New("bucket is required")
	}

	if len(opts) == 0 {
		client, err := google.DefaultClient(ctx, storage.DevstorageReadWriteScope)
		if err != nil {
			return nil, fmt.Errorf("failed to get default credentials: %w", err)
		}
		opts = []option.ClientOption{option.WithHTTPClient(client)}
	}

	service, err := storage.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage service: %w", err)
	}

	if publicBaseURL == "" {
		publicBaseURL = joinURL(DefaultPublicBaseURL, bucket)
	}

	return &GCSPublisher{
		service:       service,
		bucket:        bucket,
		publicBaseURL: publicBaseURL,
		logger:        logger,
	}, nil
}

// SetProgressFunc sets the callback for upload progress
func (p *GCSPublisher) SetProgressFunc(fn ProgressFunc) {
	p.progressFunc = fn
}

// Publish uploads localPath under key. The local file is removed only after
// the upload is confirmed.
func (p *GCSPublisher) Publish(ctx context.Context, localPath, key string) (string, error) {
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return "", &PublishError{Key: key, Err: err}
	}

	file, reader, err := openArtifact(localPath, p.progressFunc)
	if err != nil {
		return "", &PublishError{Key: cleanKey, Err: err}
	}
	defer func() { _ = file.Close() }()

	object := &storage.Object{
		Name:         cleanKey,
		ContentType:  ContentType,
		CacheControl: CacheControl,
	}

	call := p.service.Objects.Insert(p.bucket, object)
	call = call.Media(reader, googleapi.ContentType(ContentType))
	call = call.Context(ctx)

	stored, err := call.Do()
	if err != nil {
		return "", &PublishError{Key: cleanKey, Err: fmt.Errorf("upload failed: %w", err)}
	}

	_ = file.Close()
	if err := os.Remove(localPath); err != nil {
		p.logger.Warn().Err(err).Str("path", localPath).Msg("publish: failed to remove local artifact")
	}

	p.logger.Info().
		Str("bucket", p.bucket).
		Str("key", stored.Name).
		Uint64("bytes", stored.Size).
		Msg("publish: uploaded artifact")

	return joinURL(p.publicBaseURL, cleanKey), nil
}
