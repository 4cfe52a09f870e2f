package objectstore

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listV2Body = `<?xml version="1.0" encoding="UTF-8"?>
<ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">
  <Name>docs</Name>
  <Prefix>deal1/legal/</Prefix>
  <KeyCount>2</KeyCount>
  <MaxKeys>1000</MaxKeys>
  <Delimiter>/</Delimiter>
  <IsTruncated>false</IsTruncated>
  <Contents><Key>deal1/legal/1-a.pdf</Key><Size>3</Size></Contents>
  <CommonPrefixes><Prefix>deal1/legal/archive/</Prefix></CommonPrefixes>
</ListBucketResult>`

func newTestMinio(t *testing.T, h http.HandlerFunc) *MinioStore {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)

	s, err := NewMinioStore(MinioConfig{
		Endpoint: u.Host, AccessKey: "minio", SecretKey: "minio123", Bucket: "docs", Region: "us-east-1",
	})
	require.NoError(t, err)
	return s
}

func TestMinioStore_List_SkipsCommonPrefixes(t *testing.T) {
	s := newTestMinio(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/docs/", r.URL.Path)
		assert.Equal(t, "deal1/legal/", r.URL.Query().Get("prefix"))
		assert.Equal(t, "/", r.URL.Query().Get("delimiter"))
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(listV2Body))
	})

	keys, err := s.List(context.Background(), "deal1/legal")
	require.NoError(t, err)
	assert.Equal(t, []string{"deal1/legal/1-a.pdf"}, keys)
}

func TestMinioStore_List_Error(t *testing.T) {
	s := newTestMinio(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`<Error><Code>AccessDenied</Code><Message>denied</Message></Error>`))
	})

	_, err := s.List(context.Background(), "deal1/legal")
	assert.ErrorContains(t, err, "list deal1/legal/")
}

func TestMinioStore_SignedURL(t *testing.T) {
	s, err := NewMinioStore(MinioConfig{
		Endpoint: "localhost:9000", AccessKey: "minio", SecretKey: "minio123", Bucket: "docs", Region: "us-east-1",
	})
	require.NoError(t, err)

	u, err := s.SignedURL(context.Background(), "deal1/cim/1-a.pdf", 5*time.Minute)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u, "http://localhost:9000/docs/deal1/cim/1-a.pdf?"), u)
	assert.Contains(t, u, "X-Amz-Expires=300")
}
