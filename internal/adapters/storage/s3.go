package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Adelipop59/super-try-api-sub002/internal/ports"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type S3Config struct {
	Bucket        string
	Region        string
	Endpoint      string
	PublicBaseURL string
	Prefix        string
}

// S3Uploads hands out presigned PUT URLs so clients upload media directly.
type S3Uploads struct {
	presign *s3.PresignClient
	cfg     S3Config
}

func NewS3Uploads(ctx context.Context, cfg S3Config) (*S3Uploads, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Uploads{presign: s3.NewPresignClient(client), cfg: cfg}, nil
}

func (u *S3Uploads) PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (ports.PresignedUpload, error) {
	objectKey := u.cfg.Prefix + strings.TrimPrefix(key, "/")
	req, err := u.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.cfg.Bucket),
		Key:         aws.String(objectKey),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return ports.PresignedUpload{}, fmt.Errorf("presign put: %w", err)
	}
	return ports.PresignedUpload{
		UploadURL: req.URL,
		ObjectKey: objectKey,
		PublicURL: u.publicURL(objectKey),
		ExpiresAt: time.Now().UTC().Add(ttl),
	}, nil
}

func (u *S3Uploads) publicURL(objectKey string) string {
	if u.cfg.PublicBaseURL != "" {
		return strings.TrimSuffix(u.cfg.PublicBaseURL, "/") + "/" + objectKey
	}
	if u.cfg.Endpoint != "" {
		return strings.TrimSuffix(u.cfg.Endpoint, "/") + "/" + u.cfg.Bucket + "/" + objectKey
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.cfg.Bucket, u.cfg.Region, objectKey)
}
