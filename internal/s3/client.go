// Package s3 — клиент S3-совместимого хранилища видео.
//
// Воркеру от хранилища нужна одна операция: скачать объект по ключу
// в локальный файл. Клиент создаётся один раз при старте и дальше
// только читается всеми обработчиками.
package s3

import (
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/Leo0rg/tikitoki/internal/config"
)

// Client — обёртка над minio-клиентом, привязанная к одному бакету.
type Client struct {
	mc     *minio.Client
	bucket string
}

// New создаёт клиент хранилища.
func New(cfg config.S3Config) (*Client, error) {
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client: %w", err)
	}

	return &Client{mc: mc, bucket: cfg.Bucket}, nil
}

// Download скачивает объект по ключу в локальный файл.
func (c *Client) Download(ctx context.Context, key, localPath string) error {
	if err := c.mc.FGetObject(ctx, c.bucket, key, localPath, minio.GetObjectOptions{}); err != nil {
		return fmt.Errorf("download %s/%s: %w", c.bucket, key, err)
	}
	return nil
}
