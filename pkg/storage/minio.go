// Package storage provides the object-storage client used by the MinIO
// corpus source.
package storage

import (
	"domain-chat-go/internal/config"
	"domain-chat-go/pkg/log"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var MinioClient *minio.Client

// InitMinIO initializes the MinIO client. Only called when corpus.source
// is "minio".
func InitMinIO(cfg config.MinIOConfig) {
	var err error
	MinioClient, err = minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		log.Fatal("failed to initialize MinIO client", err)
	}
	log.Info("MinIO client initialized successfully")
}
