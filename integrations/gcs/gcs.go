// Package gcs fetches statement files from Google Cloud Storage so that
// imports can take gs://bucket/object paths.
package gcs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	log "github.com/sirupsen/logrus"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

const scheme = "gs://"

// IsURL reports whether p names a GCS object or prefix.
func IsURL(p string) bool {
	return strings.HasPrefix(p, scheme)
}

// Split parses gs://bucket/object.
func Split(url string) (bucket, object string, err error) {
	if !IsURL(url) {
		return "", "", fmt.Errorf("%q is not a gs:// url", url)
	}
	bucket, object, _ = strings.Cut(strings.TrimPrefix(url, scheme), "/")
	if bucket == "" {
		return "", "", fmt.Errorf("%q has no bucket", url)
	}
	return bucket, object, nil
}

// Client downloads objects.
type Client struct {
	client *storage.Client
}

// New uses Application Default Credentials unless opts say otherwise.
func New(ctx context.Context, opts ...option.ClientOption) (*Client, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &Client{client: client}, nil
}

// Close releases the client.
func (c *Client) Close() error {
	return c.client.Close()
}

// Download reads one object into memory.
func (c *Client) Download(ctx context.Context, bucket, object string) ([]byte, error) {
	r, err := c.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("open GCS object reader: %w", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read GCS object: %w", err)
	}
	return data, nil
}

// Fetch copies the object, or every .pdf under the prefix when url ends in
// "/", into dir and returns the local paths.
func (c *Client) Fetch(ctx context.Context, url, dir string) ([]string, error) {
	bucket, object, err := Split(url)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create download dir: %w", err)
	}

	objects := []string{object}
	if object == "" || strings.HasSuffix(object, "/") {
		objects, err = c.list(ctx, bucket, object)
		if err != nil {
			return nil, err
		}
	}

	var paths []string
	for _, o := range objects {
		data, err := c.Download(ctx, bucket, o)
		if err != nil {
			return paths, fmt.Errorf("gs://%s/%s: %w", bucket, o, err)
		}
		local := filepath.Join(dir, path.Base(o))
		if err := os.WriteFile(local, data, 0o600); err != nil {
			return paths, fmt.Errorf("write %s: %w", local, err)
		}
		log.WithField("file", local).Debugf("fetched gs://%s/%s", bucket, o)
		paths = append(paths, local)
	}
	return paths, nil
}

func (c *Client) list(ctx context.Context, bucket, prefix string) ([]string, error) {
	it := c.client.Bucket(bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	var out []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list gs://%s/%s: %w", bucket, prefix, err)
		}
		if strings.HasSuffix(strings.ToLower(attrs.Name), ".pdf") {
			out = append(out, attrs.Name)
		}
	}
	return out, nil
}
