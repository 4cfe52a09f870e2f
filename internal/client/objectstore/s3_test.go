package objectstore

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	s3API
	pages     []*s3.ListObjectsV2Output
	inputs    []*s3.ListObjectsV2Input
	listErr   error
	deleted   []string
	deleteErr error
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.inputs = append(f.inputs, in)
	if f.listErr != nil {
		return nil, f.listErr
	}
	page := f.pages[0]
	f.pages = f.pages[1:]
	return page, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	f.deleted = append(f.deleted, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestSplitKey(t *testing.T) {
	folder, name := SplitKey("deal123/financials/1690000000-report.pdf")
	assert.Equal(t, "deal123/financials", folder)
	assert.Equal(t, "1690000000-report.pdf", name)

	folder, name = SplitKey("loose.pdf")
	assert.Equal(t, "", folder)
	assert.Equal(t, "loose.pdf", name)
}

func TestS3Store_Put_UsesPresignedURL(t *testing.T) {
	var gotBody, gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		gotType = r.Header.Get("Content-Type")
	}))
	defer srv.Close()

	orig := presignPutObject
	presignPutObject = func(_ *s3.PresignClient, _ context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		assert.Equal(t, "docs", aws.ToString(in.Bucket))
		assert.Equal(t, "deal1/cim/1-a.pdf", aws.ToString(in.Key))
		return &v4.PresignedHTTPRequest{URL: srv.URL + "/docs/deal1/cim/1-a.pdf"}, nil
	}
	defer func() { presignPutObject = orig }()

	s := &S3Store{bucket: "docs"}
	err := s.Put(context.Background(), "deal1/cim/1-a.pdf", strings.NewReader("%PDF-1.7"), 8, "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7", gotBody)
	assert.Equal(t, "application/pdf", gotType)
}

func TestS3Store_Put_PresignError(t *testing.T) {
	orig := presignPutObject
	presignPutObject = func(*s3.PresignClient, context.Context, *s3.PutObjectInput, ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return nil, errors.New("no creds")
	}
	defer func() { presignPutObject = orig }()

	err := (&S3Store{bucket: "docs"}).Put(context.Background(), "k", strings.NewReader("x"), 1, "")
	assert.ErrorContains(t, err, "presign put k: no creds")
}

func TestS3Store_Put_TransferError(t *testing.T) {
	origPresign, origPut := presignPutObject, putPresigned
	presignPutObject = func(*s3.PresignClient, context.Context, *s3.PutObjectInput, ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return &v4.PresignedHTTPRequest{URL: "http://example.invalid/k"}, nil
	}
	putPresigned = func(context.Context, string, io.Reader, int64, string) error { return errors.New("reset") }
	defer func() { presignPutObject, putPresigned = origPresign, origPut }()

	err := (&S3Store{bucket: "docs"}).Put(context.Background(), "k", strings.NewReader("x"), 1, "")
	assert.ErrorContains(t, err, "put k: reset")
}

func TestS3Store_List_PaginatesWithDelimiter(t *testing.T) {
	api := &fakeS3{pages: []*s3.ListObjectsV2Output{
		{
			Contents:              []types.Object{{Key: aws.String("deal1/legal/1-a.pdf")}},
			IsTruncated:           aws.Bool(true),
			NextContinuationToken: aws.String("t1"),
		},
		{
			Contents:    []types.Object{{Key: aws.String("deal1/legal/2-b.pdf")}},
			IsTruncated: aws.Bool(false),
		},
	}}
	s := &S3Store{api: api, bucket: "docs"}

	keys, err := s.List(context.Background(), "deal1/legal")
	require.NoError(t, err)
	assert.Equal(t, []string{"deal1/legal/1-a.pdf", "deal1/legal/2-b.pdf"}, keys)

	require.Len(t, api.inputs, 2)
	assert.Equal(t, "deal1/legal/", aws.ToString(api.inputs[0].Prefix))
	assert.Equal(t, "/", aws.ToString(api.inputs[0].Delimiter))
	assert.Equal(t, "t1", aws.ToString(api.inputs[1].ContinuationToken))
}

func TestS3Store_Walk_IsRecursive(t *testing.T) {
	api := &fakeS3{pages: []*s3.ListObjectsV2Output{{
		Contents: []types.Object{{Key: aws.String("deal1/cim/1-a.pdf")}, {Key: aws.String("deal1/nda/2-b.pdf")}},
	}}}
	s := &S3Store{api: api, bucket: "docs"}

	keys, err := s.Walk(context.Background(), "deal1/")
	require.NoError(t, err)
	assert.Len(t, keys, 2)
	assert.Nil(t, api.inputs[0].Delimiter)
}

func TestS3Store_List_Error(t *testing.T) {
	s := &S3Store{api: &fakeS3{listErr: errors.New("403")}, bucket: "docs"}
	_, err := s.List(context.Background(), "deal1/legal")
	assert.ErrorContains(t, err, "list deal1/legal/: 403")
}

func TestS3Store_Remove(t *testing.T) {
	api := &fakeS3{}
	s := &S3Store{api: api, bucket: "docs"}
	require.NoError(t, s.Remove(context.Background(), "deal1/cim/1-a.pdf"))
	assert.Equal(t, []string{"deal1/cim/1-a.pdf"}, api.deleted)

	api.deleteErr = errors.New("denied")
	assert.ErrorContains(t, s.Remove(context.Background(), "k"), "delete k: denied")
}

func TestS3Store_SignedURL_PassesTTL(t *testing.T) {
	orig := presignGetObject
	presignGetObject = func(_ *s3.PresignClient, _ context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		var o s3.PresignOptions
		for _, fn := range optFns {
			fn(&o)
		}
		assert.Equal(t, 300*time.Second, o.Expires)
		return &v4.PresignedHTTPRequest{URL: "https://s3.local/docs/" + aws.ToString(in.Key) + "?sig"}, nil
	}
	defer func() { presignGetObject = orig }()

	u, err := (&S3Store{bucket: "docs"}).SignedURL(context.Background(), "deal1/cim/1-a.pdf", 300*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "https://s3.local/docs/deal1/cim/1-a.pdf?sig", u)
}

func TestNewS3Store_SetsEndpoint(t *testing.T) {
	var opts s3.Options
	orig := newS3ClientFromConfig
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		for _, fn := range optFns {
			fn(&opts)
		}
		return s3.NewFromConfig(cfg, optFns...)
	}
	defer func() { newS3ClientFromConfig = orig }()

	s, err := NewS3Store(context.Background(), S3Config{
		User: "minio", Password: "secret", Bucket: "docs", Region: "us-east-1", Endpoint: "http://localhost:9000",
	})
	require.NoError(t, err)
	assert.Equal(t, "docs", s.bucket)
	assert.Equal(t, "http://localhost:9000", aws.ToString(opts.BaseEndpoint))
	assert.True(t, opts.UsePathStyle)
}

func TestNewS3Store_ConfigError(t *testing.T) {
	orig := loadDefaultAWSConfig
	loadDefaultAWSConfig = func(context.Context, ...func(*config.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("bad profile")
	}
	defer func() { loadDefaultAWSConfig = orig }()

	_, err := NewS3Store(context.Background(), S3Config{Region: "us-east-1"})
	assert.ErrorContains(t, err, "load aws config: bad profile")
}
