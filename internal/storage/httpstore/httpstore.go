package httpstore

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/kidhood/bird-trading-platform/internal/storage"
	"github.com/kidhood/bird-trading-platform/pkg/httpclient"
)

// Storage implements storage.Storage against the media storage service's
// REST API.
type Storage struct {
	client  *httpclient.Client
	baseURL string
}

// New creates a storage client for the media service at baseURL.
func New(client *httpclient.Client, baseURL string) *Storage {
	return &Storage{
		client:  client,
		baseURL: baseURL,
	}
}

type uploadResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// Upload streams the file to the media service and returns its public URL.
func (s *Storage) Upload(ctx context.Context, input *storage.UploadInput) (*storage.UploadResult, error) {
	endpoint := fmt.Sprintf("%s/media/%s", s.baseURL, url.PathEscape(input.Key))

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, input.Data)
	if err != nil {
		return nil, fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", input.ContentType)
	if input.Size > 0 {
		req.ContentLength = input.Size
	}

	resp, err := s.client.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", input.Key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, httpclient.ParseResponseError(resp, "media storage")
	}

	var ur uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&ur); err != nil {
		return nil, fmt.Errorf("decode upload response: %w", err)
	}

	return &storage.UploadResult{Key: ur.Key, URL: ur.URL}, nil
}

// Delete removes a file from the media service.
func (s *Storage) Delete(ctx context.Context, key string) error {
	endpoint := fmt.Sprintf("%s/media/%s", s.baseURL, url.PathEscape(key))

	resp, err := s.client.Delete(ctx, endpoint)
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return httpclient.ParseResponseError(resp, "media storage")
	}

	return nil
}
