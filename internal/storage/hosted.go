package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/singsync/internal/shared"
)

// HostedStore uploads to the backend's object storage API.
//
// Objects are POSTed to {base}/storage/v1/object/{bucket}/{key} with x-upsert: false and are
// publicly readable at {base}/storage/v1/object/public/{bucket}/{key}.
type HostedStore struct {
	baseURL    string
	bucket     string
	apiKey     string
	httpClient *http.Client
}

// NewHostedStore creates a store for bucket. client defaults to [http.DefaultClient].
func NewHostedStore(baseURL, bucket, apiKey string, client *http.Client) *HostedStore {
	if client == nil {
		client = http.DefaultClient
	}
	return &HostedStore{
		baseURL:    strings.TrimRight(baseURL, "/"),
		bucket:     bucket,
		apiKey:     apiKey,
		httpClient: client,
	}
}

func (s *HostedStore) Put(ctx context.Context, key string, r io.Reader, obj Object) error {
	endpoint := s.objectURL("object", key)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, r)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if obj.Size > 0 {
		req.ContentLength = obj.Size
	}

	req.Header.Set("Content-Type", obj.ContentType)
	req.Header.Set("x-upsert", "false")
	if obj.CacheControl != "" {
		req.Header.Set("cache-control", "max-age="+obj.CacheControl)
	}
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
		req.Header.Set("apikey", s.apiKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: request failed: %w", shared.ErrStorageUpload, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := strings.TrimSpace(string(body))
	if resp.StatusCode == http.StatusConflict || strings.Contains(msg, "Duplicate") {
		return fmt.Errorf("%w: %s", shared.ErrObjectExists, key)
	}
	return fmt.Errorf("%w: status %d: %s", shared.ErrStorageUpload, resp.StatusCode, msg)
}

func (s *HostedStore) PublicURL(key string) string {
	return s.objectURL("object/public", key)
}

func (s *HostedStore) objectURL(prefix, key string) string {
	return fmt.Sprintf("%s/storage/v1/%s/%s/%s", s.baseURL, prefix, url.PathEscape(s.bucket), (&url.URL{Path: key}).EscapedPath())
}
