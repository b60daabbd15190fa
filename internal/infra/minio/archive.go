package minio

import (
	"context"
	"fmt"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Archive mirrors uploaded videos into a bucket.
type Archive struct {
	client       *miniogo.Client
	uploadBucket string
}

type ArchiveConfig struct {
	Endpoint     string
	AccessKey    string
	SecretKey    string
	UseSSL       bool
	UploadBucket string
}

func NewArchive(cfg ArchiveConfig) (*Archive, error) {
	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &Archive{
		client:       client,
		uploadBucket: cfg.UploadBucket,
	}, nil
}

func (a *Archive) EnsureBucket(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.uploadBucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", a.uploadBucket, err)
	}
	if !exists {
		if err := a.client.MakeBucket(ctx, a.uploadBucket, miniogo.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %s: %w", a.uploadBucket, err)
		}
	}
	return nil
}

func (a *Archive) ArchiveVideo(ctx context.Context, objectKey, filePath string) error {
	_, err := a.client.FPutObject(ctx, a.uploadBucket, objectKey, filePath, miniogo.PutObjectOptions{
		ContentType: "video/mp4",
	})
	if err != nil {
		return fmt.Errorf("archive video: %w", err)
	}
	return nil
}
