package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/Saman-dev12/civic/internal/config"
)

type ObjectStore struct {
	client *minio.Client
	cfg    config.StorageConfig
}

func NewObjectStore(cfg config.StorageConfig) (*ObjectStore, error) {
	endpoint := cfg.Endpoint
	useSSL := cfg.UseSSL

	if strings.HasPrefix(endpoint, "http") {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("parse endpoint: %w", err)
		}
		endpoint = u.Host
		useSSL = u.Scheme == "https"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}

	return &ObjectStore{
		client: client,
		cfg:    cfg,
	}, nil
}

func (s *ObjectStore) EnsureBucket(ctx context.Context) error {
	bucket := s.cfg.SettingsBucket
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("bucket exists %s: %w", bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: s.cfg.Region}); err != nil {
			return fmt.Errorf("create bucket %s: %w", bucket, err)
		}
	}
	return nil
}

// Ping checks that the settings bucket is reachable.
func (s *ObjectStore) Ping(ctx context.Context) error {
	_, err := s.client.BucketExists(ctx, s.cfg.SettingsBucket)
	return err
}

// Document returns a handle on one JSON object in the settings bucket.
func (s *ObjectStore) Document(key string) *Document {
	return &Document{store: s, key: key}
}

// Document reads and replaces a single small object whole.
type Document struct {
	store *ObjectStore
	key   string
}

// Load returns the object's bytes; found is false when it does not exist.
func (d *Document) Load(ctx context.Context) ([]byte, bool, error) {
	obj, err := d.store.client.GetObject(ctx, d.store.cfg.SettingsBucket, d.key, minio.GetObjectOptions{})
	if err != nil {
		return nil, false, d.mapErr(err)
	}
	defer obj.Close()

	body, err := io.ReadAll(obj)
	if err != nil {
		if isNotFound(err) {
			return nil, false, nil
		}
		return nil, false, d.mapErr(err)
	}
	return body, true, nil
}

func (d *Document) Save(ctx context.Context, body []byte) error {
	_, err := d.store.client.PutObject(ctx, d.store.cfg.SettingsBucket, d.key,
		bytes.NewReader(body), int64(len(body)),
		minio.PutObjectOptions{ContentType: "application/json"},
	)
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", d.store.cfg.SettingsBucket, d.key, err)
	}
	return nil
}

func (d *Document) mapErr(err error) error {
	return fmt.Errorf("get %s/%s: %w", d.store.cfg.SettingsBucket, d.key, err)
}

func isNotFound(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NoSuchBucket"
}
