// Package gcs fetches statement files referenced by gs:// URIs so the
// extractor accepts cloud-stored inputs alongside local paths.
package gcs

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"cloud.google.com/go/storage"
)

const uriPrefix = "gs://"

// IsURI reports whether the input path refers to a GCS object.
func IsURI(input string) bool {
	return strings.HasPrefix(input, uriPrefix)
}

// SplitURI splits "gs://bucket/path/to/object.pdf" into bucket and object.
func SplitURI(uri string) (bucket, object string, err error) {
	trimmed := strings.TrimPrefix(uri, uriPrefix)
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("gcs: malformed URI %q", uri)
	}
	return parts[0], parts[1], nil
}

// Filename extracts the object's base filename from a GCS URI.
func Filename(uri string) string {
	trimmed := strings.TrimPrefix(uri, uriPrefix)
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) < 2 {
		return trimmed
	}
	return path.Base(parts[1])
}

// Fetch downloads the object bytes behind a gs:// URI.
func Fetch(ctx context.Context, uri string) ([]byte, error) {
	bucket, object, err := SplitURI(uri)
	if err != nil {
		return nil, err
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("gcs: create storage client: %w", err)
	}
	defer client.Close()

	r, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("gcs: open %s: %w", uri, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("gcs: read %s: %w", uri, err)
	}
	return data, nil
}
