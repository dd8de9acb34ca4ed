package sink

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"sync"

	"github.com/ALEYI17/InfraSight_bench/internal/config"
	"github.com/ALEYI17/InfraSight_bench/internal/report"
	"github.com/ALEYI17/InfraSight_bench/pkg/types"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const defaultBucket = "infrasight-bench"

// ObjectStore uploads the JSON report to an S3-compatible bucket.
type ObjectStore struct {
	client *minio.Client
	bucket string
	prefix string

	mu    sync.Mutex
	ready bool
}

func NewObjectStore(cfg config.ObjectStoreConfig) (*ObjectStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}
	bucket := cfg.Bucket
	if bucket == "" {
		bucket = defaultBucket
	}
	return &ObjectStore{client: client, bucket: bucket, prefix: cfg.Prefix}, nil
}

func (o *ObjectStore) Name() string { return "object_store" }

func ObjectName(prefix string, rep *types.Report) string {
	return path.Join(prefix, rep.TaskType, rep.StartedAt.UTC().Format("2006-01-02"), FileName(rep, report.FormatJSON))
}

func (o *ObjectStore) ensureBucket(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.ready {
		return nil
	}
	exists, err := o.client.BucketExists(ctx, o.bucket)
	if err != nil {
		return err
	}
	if !exists {
		if err := o.client.MakeBucket(ctx, o.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %s: %w", o.bucket, err)
		}
	}
	o.ready = true
	return nil
}

func (o *ObjectStore) Send(ctx context.Context, rep *types.Report) error {
	if err := o.ensureBucket(ctx); err != nil {
		return err
	}
	data, err := report.Encode(rep, report.FormatJSON)
	if err != nil {
		return err
	}
	_, err = o.client.PutObject(ctx, o.bucket, ObjectName(o.prefix, rep), bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"})
	return err
}

func (o *ObjectStore) Close() error { return nil }
