package corpus

import (
	"context"
	"fmt"

	"domain-chat-go/internal/model"
	"domain-chat-go/pkg/log"

	"github.com/minio/minio-go/v7"
)

// MinIOLoader reads the corpus CSV from an object storage bucket.
type MinIOLoader struct {
	client *minio.Client
	bucket string
	object string
}

// NewMinIOLoader creates a loader for the given bucket and object name.
func NewMinIOLoader(client *minio.Client, bucket, object string) *MinIOLoader {
	return &MinIOLoader{client: client, bucket: bucket, object: object}
}

// Load downloads the corpus object and parses it as CSV.
func (l *MinIOLoader) Load(ctx context.Context) ([]model.Record, error) {
	log.Infof("[CorpusLoader] downloading corpus object, bucket: %s, object: %s", l.bucket, l.object)
	obj, err := l.client.GetObject(ctx, l.bucket, l.object, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get corpus object: %w", err)
	}
	defer obj.Close()

	// GetObject is lazy; a missing object only surfaces on first read.
	if _, err := obj.Stat(); err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" {
			log.Errorf("[CorpusLoader] corpus object not found: %s/%s", l.bucket, l.object)
			return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, l.bucket, l.object)
		}
		return nil, fmt.Errorf("failed to stat corpus object: %w", err)
	}

	records, err := parseCSV(obj)
	if err != nil {
		return nil, err
	}
	log.Infof("[CorpusLoader] loaded %d records from %s/%s", len(records), l.bucket, l.object)
	return records, nil
}
