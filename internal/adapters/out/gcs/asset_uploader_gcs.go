// internal/adapters/out/gcs/asset_uploader_gcs.go
package gcs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/storage"
)

// AssetUploaderGCS stores mint images and metadata documents as public GCS
// objects, as an alternative to the permaweb uploader. Objects are
// content-addressed so re-uploads of identical bytes land on the same path.
type AssetUploaderGCS struct {
	Client *storage.Client
	Bucket string
}

func NewAssetUploaderGCS(client *storage.Client, bucket string) *AssetUploaderGCS {
	return &AssetUploaderGCS{Client: client, Bucket: strings.TrimSpace(bucket)}
}

func (u *AssetUploaderGCS) bucketName() (string, error) {
	if u.Client == nil {
		return "", errors.New("asset_uploader_gcs: client is nil")
	}
	b := strings.TrimSpace(u.Bucket)
	if b == "" {
		return "", errors.New("asset_uploader_gcs: bucket is empty")
	}
	return b, nil
}

func (u *AssetUploaderGCS) UploadImage(ctx context.Context, data []byte) (string, error) {
	return u.put(ctx, "critters/"+contentKey(data)+"/image.png", "image/png", data)
}

func (u *AssetUploaderGCS) UploadMetadata(ctx context.Context, data []byte) (string, error) {
	return u.put(ctx, "critters/"+contentKey(data)+"/metadata.json", "application/json", data)
}

func (u *AssetUploaderGCS) put(ctx context.Context, objectPath, contentType string, body []byte) (string, error) {
	bucket, err := u.bucketName()
	if err != nil {
		return "", err
	}
	if len(body) == 0 {
		return "", errors.New("asset_uploader_gcs: empty body")
	}

	obj := u.Client.Bucket(bucket).Object(objectPath)
	w := obj.NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "public, max-age=31536000, immutable"

	if _, err := w.Write(body); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("asset_uploader_gcs: write %s: %w", objectPath, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("asset_uploader_gcs: close %s: %w", objectPath, err)
	}

	return publicObjectURL(bucket, objectPath), nil
}

func contentKey(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

func publicObjectURL(bucket, objectPath string) string {
	return "https://storage.googleapis.com/" + bucket + "/" + objectPath
}
