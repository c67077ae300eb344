package minio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/mora-creators/onboarding/internal/core/ports"
)

// Config captures the Blob Store connection settings.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	// PublicURL is the externally reachable base of the object store. When
	// empty it is derived from Endpoint.
	PublicURL string
	// PublicBuckets get an anonymous read-only policy so PublicURL links
	// resolve without a signature.
	PublicBuckets []string
}

// minioAPI is the subset of *minio.Client used here; tests fake it.
type minioAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error)
	SetBucketPolicy(ctx context.Context, bucketName, policy string) error
}

var _ ports.BlobStore = (*Client)(nil)

// Client implements ports.BlobStore on MinIO.
type Client struct {
	api     minioAPI
	baseURL string
	buckets []string
}

// Connect builds a *minio.Client from cfg.
func Connect(cfg Config) (*minio.Client, error) {
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	return mc, nil
}

// NewClient wraps a real *minio.Client, makes sure every bucket exists and
// opens cfg.PublicBuckets for anonymous reads.
func NewClient(ctx context.Context, mc *minio.Client, cfg Config, buckets ...string) (*Client, error) {
	c, err := NewClientWithAPI(ctx, mc, publicBase(cfg), buckets...)
	if err != nil {
		return nil, err
	}
	if err := c.MakePublic(ctx, cfg.PublicBuckets...); err != nil {
		return nil, err
	}
	return c, nil
}

// NewClientWithAPI allows injecting a fake API.
func NewClientWithAPI(ctx context.Context, api minioAPI, baseURL string, buckets ...string) (*Client, error) {
	c := &Client{api: api, baseURL: strings.TrimRight(baseURL, "/"), buckets: buckets}
	for _, b := range buckets {
		if err := c.ensureBucket(ctx, b); err != nil {
			return nil, fmt.Errorf("failed to ensure bucket %s exists: %w", b, err)
		}
	}
	return c, nil
}

func (c *Client) ensureBucket(ctx context.Context, bucket string) error {
	exists, err := c.api.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if exists {
		return nil
	}
	if err := c.api.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

type policyStatement struct {
	Effect    string              `json:"Effect"`
	Principal map[string][]string `json:"Principal"`
	Action    []string            `json:"Action"`
	Resource  []string            `json:"Resource"`
}

type bucketPolicy struct {
	Version   string            `json:"Version"`
	Statement []policyStatement `json:"Statement"`
}

// readOnlyPolicy allows anonymous GetObject on every object of bucket.
// Listing stays private.
func readOnlyPolicy(bucket string) (string, error) {
	b, err := json.Marshal(bucketPolicy{
		Version: "2012-10-17",
		Statement: []policyStatement{{
			Effect:    "Allow",
			Principal: map[string][]string{"AWS": {"*"}},
			Action:    []string{"s3:GetObject"},
			Resource:  []string{"arn:aws:s3:::" + bucket + "/*"},
		}},
	})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// MakePublic applies the anonymous read-only policy to each bucket.
func (c *Client) MakePublic(ctx context.Context, buckets ...string) error {
	for _, b := range buckets {
		policy, err := readOnlyPolicy(b)
		if err != nil {
			return fmt.Errorf("failed to build policy for %s: %w", b, err)
		}
		if err := c.api.SetBucketPolicy(ctx, b, policy); err != nil {
			return fmt.Errorf("failed to set policy on bucket %s: %w", b, err)
		}
	}
	return nil
}

// Ping reports whether the managed buckets are still reachable.
func (c *Client) Ping(ctx context.Context) error {
	for _, b := range c.buckets {
		ok, err := c.api.BucketExists(ctx, b)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("bucket %s is missing", b)
		}
	}
	return nil
}

// Upload stores the object and returns its path.
func (c *Client) Upload(ctx context.Context, bucket, objectPath string, r io.Reader, size int64, contentType string) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := c.api.PutObject(ctx, bucket, objectPath, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("failed to upload object: %w", err)
	}
	return objectPath, nil
}

// PublicURL is the unsigned address of an object in a public-read bucket.
func (c *Client) PublicURL(bucket, objectPath string) string {
	return c.baseURL + "/" + bucket + "/" + objectPath
}

// List returns the objects directly under folder.
func (c *Client) List(ctx context.Context, bucket, folder string) ([]ports.BlobObject, error) {
	prefix := strings.TrimSuffix(folder, "/") + "/"

	var out []ports.BlobObject
	for obj := range c.api.ListObjects(ctx, bucket, minio.ListObjectsOptions{Prefix: prefix}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", obj.Err)
		}
		if strings.HasSuffix(obj.Key, "/") {
			continue
		}
		out = append(out, ports.BlobObject{
			Path:         obj.Key,
			Name:         path.Base(obj.Key),
			Size:         obj.Size,
			LastModified: obj.LastModified,
		})
	}
	return out, nil
}

// SignedURL mints a temporary GET link.
func (c *Client) SignedURL(ctx context.Context, bucket, objectPath string, ttl time.Duration) (string, error) {
	u, err := c.api.PresignedGetObject(ctx, bucket, objectPath, ttl, nil)
	if err != nil {
		return "", fmt.Errorf("failed to sign object url: %w", err)
	}
	return u.String(), nil
}

func publicBase(cfg Config) string {
	if cfg.PublicURL != "" {
		return cfg.PublicURL
	}
	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}
	return scheme + "://" + cfg.Endpoint
}
