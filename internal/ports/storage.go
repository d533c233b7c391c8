package ports

import (
	"context"
	"time"
)

type PresignedUpload struct {
	UploadURL string    `json:"upload_url"`
	ObjectKey string    `json:"object_key"`
	PublicURL string    `json:"public_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type ObjectStorage interface {
	PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (PresignedUpload, error)
}
