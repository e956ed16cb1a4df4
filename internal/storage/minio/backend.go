// Package minio keeps client state as objects in an S3 compatible bucket.
// Each key is one object under "{namespace}/"; the version, origin and
// tombstone flag travel as user metadata and writes are guarded by ETag
// preconditions.
package minio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/dtroode/ayurveda-storefront/internal/config"
	"github.com/dtroode/ayurveda-storefront/internal/logger"
	"github.com/dtroode/ayurveda-storefront/internal/model"
)

const (
	metaVersion = "Kv-Version"
	metaOrigin  = "Kv-Origin"
	metaDeleted = "Kv-Deleted"

	loadAttempts = 3
)

// Internal adapter interface to enable mocking without a real MinIO server.
type minioAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error)
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
}

// Wrapper to adapt *minio.Client to minioAPI.
type minioClientWrapper struct{ c *minio.Client }

func (w minioClientWrapper) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	return w.c.BucketExists(ctx, bucketName)
}
func (w minioClientWrapper) MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error {
	return w.c.MakeBucket(ctx, bucketName, opts)
}
func (w minioClientWrapper) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	return w.c.PutObject(ctx, bucketName, objectName, reader, objectSize, opts)
}
func (w minioClientWrapper) GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error) {
	obj, err := w.c.GetObject(ctx, bucketName, objectName, opts)
	if err != nil {
		return nil, err
	}
	return obj, nil
}
func (w minioClientWrapper) StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error) {
	return w.c.StatObject(ctx, bucketName, objectName, opts)
}
func (w minioClientWrapper) ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo {
	return w.c.ListObjects(ctx, bucketName, opts)
}

var _ model.Backend = (*Backend)(nil)

type Backend struct {
	api       minioAPI
	bucket    string
	namespace string
	logger    *logger.Logger
}

// Open builds a MinIO client from cfg and prepares the bucket.
func Open(ctx context.Context, cfg config.Storage, namespace string, logger *logger.Logger) (*Backend, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	return NewWithAPI(ctx, minioClientWrapper{c: client}, cfg.Bucket, namespace, logger)
}

// NewWithAPI allows injecting a mockable API (used in tests).
func NewWithAPI(ctx context.Context, api minioAPI, bucket, namespace string, logger *logger.Logger) (*Backend, error) {
	b := &Backend{
		api:       api,
		bucket:    bucket,
		namespace: namespace,
		logger:    logger,
	}

	if err := b.ensureBucketExists(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure bucket exists: %w", err)
	}
	return b, nil
}

func (b *Backend) ensureBucketExists(ctx context.Context) error {
	exists, err := b.api.BucketExists(ctx, b.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := b.api.MakeBucket(ctx, b.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}
	return nil
}

func (b *Backend) objectName(key string) string {
	return b.namespace + "/" + key
}

// entry is the metadata view of one object.
type entry struct {
	etag    string
	version int64
	origin  string
	deleted bool
}

func (e *entry) live() bool {
	return e != nil && !e.deleted
}

// stat returns nil when the object never existed.
func (b *Backend) stat(ctx context.Context, key string) (*entry, error) {
	info, err := b.api.StatObject(ctx, b.bucket, b.objectName(key), minio.StatObjectOptions{})
	if err != nil {
		if errorCode(err) == "NoSuchKey" {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to stat object: %w", err)
	}

	e := &entry{etag: info.ETag}
	if v := metadata(info.UserMetadata, metaVersion); v != "" {
		e.version, err = strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad version metadata on %s: %w", key, err)
		}
	}
	e.origin = metadata(info.UserMetadata, metaOrigin)
	e.deleted = metadata(info.UserMetadata, metaDeleted) == "true"
	return e, nil
}

// metadata looks name up ignoring case, S3 servers disagree on canonical form.
func metadata(m map[string]string, name string) string {
	for k, v := range m {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

func (b *Backend) Load(ctx context.Context, key string) (model.Record, error) {
	for attempt := 1; ; attempt++ {
		e, err := b.stat(ctx, key)
		if err != nil {
			return model.Record{}, err
		}
		if !e.live() {
			return model.Record{}, model.ErrNotFound
		}

		opts := minio.GetObjectOptions{}
		if err := opts.SetMatchETag(e.etag); err != nil {
			return model.Record{}, fmt.Errorf("failed to set etag condition: %w", err)
		}
		value, err := b.read(ctx, key, opts)
		if err == nil {
			return model.Record{Value: value, Version: e.version, Origin: e.origin}, nil
		}
		if !isConflict(err) || attempt == loadAttempts {
			return model.Record{}, err
		}
		b.logger.Debug("Object store: object replaced while reading, retrying", "key", key, "attempt", attempt)
	}
}

func (b *Backend) read(ctx context.Context, key string, opts minio.GetObjectOptions) (string, error) {
	rc, err := b.api.GetObject(ctx, b.bucket, b.objectName(key), opts)
	if err != nil {
		return "", fmt.Errorf("failed to get object: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("failed to read object: %w", err)
	}
	return string(data), nil
}

func (b *Backend) Save(ctx context.Context, key, value, origin string, expected int64) (model.Record, error) {
	e, err := b.stat(ctx, key)
	if err != nil {
		return model.Record{}, err
	}

	var current int64
	if e != nil {
		current = e.version
	}
	if !model.VersionMatches(e.live(), current, expected) {
		return model.Record{}, model.ErrVersionConflict
	}

	next := current + 1
	if err := b.put(ctx, key, e, []byte(value), next, origin, false); err != nil {
		return model.Record{}, err
	}
	return model.Record{Value: value, Version: next, Origin: origin}, nil
}

// Delete writes an empty tombstone so the version keeps counting.
func (b *Backend) Delete(ctx context.Context, key, origin string) error {
	e, err := b.stat(ctx, key)
	if err != nil {
		return err
	}
	if !e.live() {
		return nil
	}
	err = b.put(ctx, key, e, nil, e.version+1, origin, true)
	if isConflict(err) {
		// Someone else wrote or deleted in between; their write wins.
		return nil
	}
	return err
}

// put writes the object only if it still matches prev, or does not exist when prev is nil.
func (b *Backend) put(ctx context.Context, key string, prev *entry, data []byte, version int64, origin string, deleted bool) error {
	opts := minio.PutObjectOptions{
		ContentType: "text/plain; charset=utf-8",
		UserMetadata: map[string]string{
			metaVersion: strconv.FormatInt(version, 10),
			metaOrigin:  origin,
			metaDeleted: strconv.FormatBool(deleted),
		},
	}
	if prev == nil {
		opts.SetMatchETagExcept("*")
	} else {
		opts.SetMatchETag(prev.etag)
	}

	_, err := b.api.PutObject(ctx, b.bucket, b.objectName(key), bytes.NewReader(data), int64(len(data)), opts)
	if err != nil {
		if isConflict(err) {
			return model.ErrVersionConflict
		}
		return fmt.Errorf("failed to upload object: %w", err)
	}
	return nil
}

func isConflict(err error) bool {
	return errors.Is(err, model.ErrVersionConflict) || errorCode(err) == "PreconditionFailed"
}

func errorCode(err error) string {
	var resp minio.ErrorResponse
	if errors.As(err, &resp) {
		return resp.Code
	}
	return ""
}

func (b *Backend) Keys(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	prefix := b.namespace + "/"
	var names []string
	for obj := range b.api.ListObjects(ctx, b.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", obj.Err)
		}
		names = append(names, strings.TrimPrefix(obj.Key, prefix))
	}

	keys := make([]string, 0, len(names))
	for _, k := range names {
		e, err := b.stat(ctx, k)
		if err != nil {
			return nil, err
		}
		if e.live() {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (b *Backend) Close() error {
	return nil
}
