// Package assets uploads avatar and inventory images to the external
// object-storage service.  Upload failures are the caller's problem to
// pass through or ignore; nothing here touches the database.
package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrDisabled is returned when no asset store is configured.
var ErrDisabled = errors.New("asset store not configured")

// Store is the external asset collaborator: upload returns the public
// URL of the stored object.
type Store interface {
	Upload(ctx context.Context, bucket, name, contentType string, body io.Reader) (string, error)
	Remove(ctx context.Context, bucket, name string) error
}

// New returns an HTTP-backed store, or a disabled one when baseURL is
// empty so the rest of the app can degrade to default asset URLs.
func New(baseURL, key string) Store {
	if baseURL == "" {
		return disabled{}
	}
	return &HTTPStore{
		BaseURL: baseURL,
		Key:     key,
		Client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// HTTPStore talks to the storage service's object API: PUT-style POST
// to /object/{bucket}/{name}, public reads under /object/public/.
type HTTPStore struct {
	BaseURL string
	Key     string
	Client  *http.Client
}

func (s *HTTPStore) Upload(ctx context.Context, bucket, name, contentType string, body io.Reader) (string, error) {
	url := fmt.Sprintf("%s/object/%s/%s", s.BaseURL, bucket, name)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+s.Key)
	req.Header.Set("Content-Type", contentType)

	resp, err := s.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("asset upload failed: %s", resp.Status)
	}
	return fmt.Sprintf("%s/object/public/%s/%s", s.BaseURL, bucket, name), nil
}

func (s *HTTPStore) Remove(ctx context.Context, bucket, name string) error {
	url := fmt.Sprintf("%s/object/%s/%s", s.BaseURL, bucket, name)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.Key)

	resp, err := s.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || (resp.StatusCode > 299 && resp.StatusCode != http.StatusNotFound) {
		return fmt.Errorf("asset remove failed: %s", resp.Status)
	}
	return nil
}

type disabled struct{}

func (disabled) Upload(context.Context, string, string, string, io.Reader) (string, error) {
	return "", ErrDisabled
}
func (disabled) Remove(context.Context, string, string) error { return ErrDisabled }
