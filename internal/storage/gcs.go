package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gcs "google.golang.org/api/storage/v1"
)

// maxObjectBytes caps downloads; résumés are small documents.
const maxObjectBytes = 25 << 20

// GCSStore stores objects in a Google Cloud Storage bucket.
type GCSStore struct {
	service *gcs.Service
	bucket  string
}

// NewGCSStore creates a GCSStore. An empty credentialsFile uses application default credentials.
func NewGCSStore(ctx context.Context, bucket, credentialsFile string) (*GCSStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	service, err := gcs.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &GCSStore{service: service, bucket: bucket}, nil
}

// Put uploads data to objectPath, replacing any existing object.
func (s *GCSStore) Put(ctx context.Context, objectPath string, data []byte, contentType string) error {
	obj := &gcs.Object{Name: objectPath, ContentType: contentType}
	_, err := s.service.Objects.Insert(s.bucket, obj).
		Media(bytes.NewReader(data), googleapi.ContentType(contentType)).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", objectPath, err)
	}
	return nil
}

// Get downloads the object at objectPath.
func (s *GCSStore) Get(ctx context.Context, objectPath string) ([]byte, error) {
	resp, err := s.service.Objects.Get(s.bucket, objectPath).Context(ctx).Download()
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to download %s: %w", objectPath, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxObjectBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", objectPath, err)
	}
	if len(data) > maxObjectBytes {
		return nil, fmt.Errorf("object %s exceeds %d bytes", objectPath, maxObjectBytes)
	}
	return data, nil
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}
