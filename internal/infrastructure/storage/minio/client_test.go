package minio

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/url"
	"strings"
	"testing"
	"time"

	minioLib "github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMinio implements minioAPI for testing without network.
type fakeMinio struct {
	existing      map[string]bool
	made          []string
	bucketErr     error
	makeBucketErr error

	putBucket, putKey string
	putOpts           minioLib.PutObjectOptions
	putBody           string
	putErr            error

	objects []minioLib.ObjectInfo

	presignTTL time.Duration
	presignErr error

	policies  map[string]string
	policyErr error
}

func (f *fakeMinio) BucketExists(_ context.Context, bucket string) (bool, error) {
	return f.existing[bucket], f.bucketErr
}

func (f *fakeMinio) MakeBucket(_ context.Context, bucket string, _ minioLib.MakeBucketOptions) error {
	f.made = append(f.made, bucket)
	return f.makeBucketErr
}

func (f *fakeMinio) PutObject(_ context.Context, bucket, key string, r io.Reader, _ int64, opts minioLib.PutObjectOptions) (minioLib.UploadInfo, error) {
	if f.putErr != nil {
		return minioLib.UploadInfo{}, f.putErr
	}
	body, _ := io.ReadAll(r)
	f.putBucket, f.putKey, f.putOpts, f.putBody = bucket, key, opts, string(body)
	return minioLib.UploadInfo{Bucket: bucket, Key: key}, nil
}

func (f *fakeMinio) ListObjects(_ context.Context, _ string, opts minioLib.ListObjectsOptions) <-chan minioLib.ObjectInfo {
	ch := make(chan minioLib.ObjectInfo, len(f.objects))
	for _, o := range f.objects {
		if o.Err != nil || strings.HasPrefix(o.Key, opts.Prefix) {
			ch <- o
		}
	}
	close(ch)
	return ch
}

func (f *fakeMinio) PresignedGetObject(_ context.Context, bucket, key string, ttl time.Duration, _ url.Values) (*url.URL, error) {
	if f.presignErr != nil {
		return nil, f.presignErr
	}
	f.presignTTL = ttl
	return url.Parse("https://minio.test/" + bucket + "/" + key + "?X-Amz-Signature=abc")
}

func (f *fakeMinio) SetBucketPolicy(_ context.Context, bucket, policy string) error {
	if f.policyErr != nil {
		return f.policyErr
	}
	if f.policies == nil {
		f.policies = make(map[string]string)
	}
	f.policies[bucket] = policy
	return nil
}

func TestNewClientWithAPI_CreatesMissingBuckets(t *testing.T) {
	api := &fakeMinio{existing: map[string]bool{"documents": true}}
	c, err := NewClientWithAPI(context.Background(), api, "http://minio.test/", "documents", "avatars")
	require.NoError(t, err)
	assert.Equal(t, []string{"avatars"}, api.made)
	assert.Equal(t, "http://minio.test", c.baseURL)
}

func TestNewClientWithAPI_BucketError(t *testing.T) {
	api := &fakeMinio{bucketErr: errors.New("boom")}
	c, err := NewClientWithAPI(context.Background(), api, "", "documents")
	assert.Nil(t, c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to ensure bucket documents exists")
}

func TestClient_Upload(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		api := &fakeMinio{}
		c := &Client{api: api}
		p, err := c.Upload(ctx, "avatars", "u1/avatar_1", strings.NewReader("png"), 3, "image/png")
		require.NoError(t, err)
		assert.Equal(t, "u1/avatar_1", p)
		assert.Equal(t, "avatars", api.putBucket)
		assert.Equal(t, "image/png", api.putOpts.ContentType)
		assert.Equal(t, "png", api.putBody)
	})

	t.Run("default content type", func(t *testing.T) {
		api := &fakeMinio{}
		c := &Client{api: api}
		_, err := c.Upload(ctx, "documents", "u1/id_front_1", strings.NewReader("x"), 1, "")
		require.NoError(t, err)
		assert.Equal(t, "application/octet-stream", api.putOpts.ContentType)
	})

	t.Run("error", func(t *testing.T) {
		c := &Client{api: &fakeMinio{putErr: errors.New("put-fail")}}
		_, err := c.Upload(ctx, "documents", "k", strings.NewReader("x"), 1, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to upload object")
	})
}

func TestClient_PublicURL(t *testing.T) {
	c := &Client{baseURL: publicBase(Config{Endpoint: "localhost:9000"})}
	assert.Equal(t, "http://localhost:9000/avatars/u1/avatar_1", c.PublicURL("avatars", "u1/avatar_1"))

	c = &Client{baseURL: publicBase(Config{Endpoint: "minio:9000", UseSSL: true, PublicURL: "https://cdn.mora.test"})}
	assert.Equal(t, "https://cdn.mora.test/avatars/u1/avatar_1", c.PublicURL("avatars", "u1/avatar_1"))
}

func TestClient_List(t *testing.T) {
	ctx := context.Background()
	modified := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	t.Run("owner folder only", func(t *testing.T) {
		api := &fakeMinio{objects: []minioLib.ObjectInfo{
			{Key: "u1/id_front_1000", Size: 10, LastModified: modified},
			{Key: "u1/id_back_1000", Size: 12},
			{Key: "u10/id_front_1000"},
			{Key: "u1/"},
		}}
		c := &Client{api: api}
		got, err := c.List(ctx, "documents", "u1")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "u1/id_front_1000", got[0].Path)
		assert.Equal(t, "id_front_1000", got[0].Name)
		assert.Equal(t, int64(10), got[0].Size)
		assert.Equal(t, modified, got[0].LastModified)
	})

	t.Run("error", func(t *testing.T) {
		api := &fakeMinio{objects: []minioLib.ObjectInfo{{Err: errors.New("list-fail")}}}
		c := &Client{api: api}
		_, err := c.List(ctx, "documents", "u1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to list objects")
	})
}

func TestClient_SignedURL(t *testing.T) {
	ctx := context.Background()

	api := &fakeMinio{}
	c := &Client{api: api}
	u, err := c.SignedURL(ctx, "documents", "u1/id_front_1000", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "https://minio.test/documents/u1/id_front_1000?X-Amz-Signature=abc", u)
	assert.Equal(t, time.Hour, api.presignTTL)

	c = &Client{api: &fakeMinio{presignErr: errors.New("sign-fail")}}
	_, err = c.SignedURL(ctx, "documents", "k", time.Hour)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to sign object url")
}

func TestClient_Ping(t *testing.T) {
	api := &fakeMinio{existing: map[string]bool{"documents": true, "avatars": true}}
	c, err := NewClientWithAPI(context.Background(), api, "", "documents", "avatars")
	require.NoError(t, err)

	assert.NoError(t, c.Ping(context.Background()))

	delete(api.existing, "avatars")
	assert.ErrorContains(t, c.Ping(context.Background()), "avatars")

	api.bucketErr = errors.New("unreachable")
	assert.ErrorIs(t, c.Ping(context.Background()), api.bucketErr)
}

func TestClient_MakePublic(t *testing.T) {
	ctx := context.Background()

	t.Run("read only policy", func(t *testing.T) {
		api := &fakeMinio{existing: map[string]bool{"documents": true, "avatars": true}}
		c, err := NewClientWithAPI(ctx, api, "http://minio.test", "documents", "avatars")
		require.NoError(t, err)
		require.NoError(t, c.MakePublic(ctx, "avatars"))

		require.Contains(t, api.policies, "avatars")
		assert.NotContains(t, api.policies, "documents")

		var got bucketPolicy
		require.NoError(t, json.Unmarshal([]byte(api.policies["avatars"]), &got))
		require.Len(t, got.Statement, 1)
		st := got.Statement[0]
		assert.Equal(t, "Allow", st.Effect)
		assert.Equal(t, []string{"*"}, st.Principal["AWS"])
		assert.Equal(t, []string{"s3:GetObject"}, st.Action)
		assert.Equal(t, []string{"arn:aws:s3:::avatars/*"}, st.Resource)
	})

	t.Run("error", func(t *testing.T) {
		c := &Client{api: &fakeMinio{policyErr: errors.New("denied")}}
		err := c.MakePublic(ctx, "avatars")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to set policy on bucket avatars")
	})
}
