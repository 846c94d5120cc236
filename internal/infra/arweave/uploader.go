// internal/infra/arweave/uploader.go
package arweave

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// HTTPUploader talks to the Irys uploader service (HTTP API in front of
// Arweave). Implements mintflow.ContentUploader.
type HTTPUploader struct {
	client  *http.Client
	baseURL string
	apiKey  string // optional bearer auth
}

func NewHTTPUploader(baseURL, apiKey string) *HTTPUploader {
	baseURL = strings.TrimSpace(baseURL)
	baseURL = strings.TrimRight(baseURL, "/")

	return &HTTPUploader{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

// UploadImage pushes rendered image bytes and returns the gateway URI.
func (u *HTTPUploader) UploadImage(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("arweave: image data is empty")
	}
	return u.post(ctx, "/upload/image", "image/png", data)
}

// UploadMetadata pushes a metadata JSON document and returns the gateway URI.
func (u *HTTPUploader) UploadMetadata(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("arweave: metadata is empty")
	}
	return u.post(ctx, "/upload/json", "application/json", data)
}

func (u *HTTPUploader) post(ctx context.Context, path, contentType string, data []byte) (string, error) {
	if u.baseURL == "" {
		return "", fmt.Errorf("arweave: baseURL is empty; endpoint not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("arweave: create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	if u.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+u.apiKey)
	}

	resp, err := u.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("arweave: upload %s: %w", path, err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("[arweave] upload FAILED path=%s status=%d body=%s", path, resp.StatusCode, string(bodyBytes))
		return "", fmt.Errorf("arweave: upload failed: status=%d body=%s", resp.StatusCode, string(bodyBytes))
	}

	var res struct {
		URI string `json:"uri"` // e.g. "https://gateway.irys.xyz/xxxx"
	}
	if err := json.Unmarshal(bodyBytes, &res); err != nil {
		return "", fmt.Errorf("arweave: decode upload response: %w", err)
	}
	if res.URI == "" {
		return "", fmt.Errorf("arweave: upload response has empty uri")
	}

	log.Printf("[arweave] upload OK path=%s uri=%s", path, res.URI)
	return res.URI, nil
}
