package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	domain "github.com/bryanwahyu/domain-intel/internal/domain/analysis"
)

// LinkTTL is the lifetime of every signed download link.
const LinkTTL = 7 * 24 * time.Hour

const keyPrefix = "domain-intelligence"

// objectClient is the subset of *minio.Client the publisher uses.
type objectClient interface {
	PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	PresignedGetObject(ctx context.Context, bucket, key string, expires time.Duration, params url.Values) (*url.URL, error)
	RemoveObject(ctx context.Context, bucket, key string, opts minio.RemoveObjectOptions) error
	BucketExists(ctx context.Context, bucket string) (bool, error)
}

// Store publishes report artifacts to a MinIO (or any S3 compatible) bucket.
type Store struct {
	client     objectClient
	bucketName string
	timeout    time.Duration
}

// Options for New.
type Options struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Timeout   time.Duration
}

// New buat koneksi MinIO dan pastikan bucket ada
func New(ctx context.Context, o Options) (*Store, error) {
	cli, err := minio.New(o.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(o.AccessKey, o.SecretKey, ""),
		Secure: o.UseSSL,
		Region: o.Region,
	})
	if err != nil {
		return nil, err
	}

	exists, err := cli.BucketExists(ctx, o.Bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := cli.MakeBucket(ctx, o.Bucket, minio.MakeBucketOptions{Region: o.Region}); err != nil {
			return nil, err
		}
	}

	return newStore(cli, o.Bucket, o.Timeout), nil
}

func newStore(cli objectClient, bucket string, timeout time.Duration) *Store {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Store{client: cli, bucketName: bucket, timeout: timeout}
}

// Ping is used by the health checks.
func (s *Store) Ping(ctx context.Context) error {
	ok, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("bucket %q does not exist", s.bucketName)
	}
	return nil
}

// ObjectKeys returns the PDF and JSON keys for one analysis:
// domain-intelligence/YYYY/MM/DD/<id>-<domain>_report.pdf and _data.json.
func ObjectKeys(id int64, domainName string, at time.Time) (pdfKey, jsonKey string) {
	base := fmt.Sprintf("%s/%s/%d-%s", keyPrefix, at.UTC().Format("2006/01/02"), id,
		strings.ReplaceAll(domainName, ".", "_"))
	return base + "_report.pdf", base + "_data.json"
}

// Publish uploads both artifacts and signs them. Either both links come
// back or nothing stays in the bucket.
func (s *Store) Publish(ctx context.Context, req domain.PublishRequest) (*domain.Published, error) {
	if len(req.PDF) == 0 {
		return nil, fmt.Errorf("%w: empty pdf", domain.ErrPublish)
	}
	snapshot, err := json.MarshalIndent(req.Snapshot, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: encode snapshot: %w", domain.ErrPublish, err)
	}

	at := req.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	pdfKey, jsonKey := ObjectKeys(req.AnalysisID, req.Domain, at)

	var uploaded []string
	abort := func(cause error) (*domain.Published, error) {
		if len(uploaded) > 0 {
			// ctx may be the reason we are here
			rctx, cancel := context.WithTimeout(context.Background(), s.timeout)
			defer cancel()
			if rerr := s.Remove(rctx, uploaded...); rerr != nil {
				cause = errors.Join(cause, rerr)
			}
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrPublish, cause)
	}

	if err := s.put(ctx, pdfKey, req.PDF, "application/pdf"); err != nil {
		return abort(err)
	}
	uploaded = append(uploaded, pdfKey)
	if err := s.put(ctx, jsonKey, snapshot, "application/json"); err != nil {
		return abort(err)
	}
	uploaded = append(uploaded, jsonKey)

	pdfURL, err := s.presign(ctx, pdfKey)
	if err != nil {
		return abort(err)
	}
	jsonURL, err := s.presign(ctx, jsonKey)
	if err != nil {
		return abort(err)
	}

	return &domain.Published{PDFURL: pdfURL, JSONURL: jsonURL, PDFKey: pdfKey, JSONKey: jsonKey}, nil
}

func (s *Store) put(ctx context.Context, key string, body []byte, contentType string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	_, err := s.client.PutObject(ctx, s.bucketName, key, bytes.NewReader(body), int64(len(body)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}

func (s *Store) presign(ctx context.Context, key string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	u, err := s.client.PresignedGetObject(ctx, s.bucketName, key, LinkTTL, nil)
	if err != nil {
		return "", fmt.Errorf("sign %s: %w", key, err)
	}
	return u.String(), nil
}

// Remove deletes objects, continuing past failures.
func (s *Store) Remove(ctx context.Context, keys ...string) error {
	var errs []error
	for _, k := range keys {
		if k == "" {
			continue
		}
		if err := s.client.RemoveObject(ctx, s.bucketName, k, minio.RemoveObjectOptions{}); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", k, err))
		}
	}
	return errors.Join(errs...)
}

const amzDateLayout = "20060102T150405Z"

// LinkWindow reads the signing time and expiry out of a presigned URL.
func LinkWindow(raw string) (issued, expires time.Time, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	q := u.Query()
	issued, err = time.Parse(amzDateLayout, q.Get("X-Amz-Date"))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("bad X-Amz-Date: %w", err)
	}
	secs, err := time.ParseDuration(q.Get("X-Amz-Expires") + "s")
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("bad X-Amz-Expires: %w", err)
	}
	return issued, issued.Add(secs), nil
}

// LinkValidAt reports whether a presigned URL is still usable at t.
func LinkValidAt(raw string, t time.Time) bool {
	issued, expires, err := LinkWindow(raw)
	if err != nil {
		return false
	}
	return !t.Before(issued) && !t.After(expires)
}
