package blob

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

func newTestStore() *Store {
	return NewStore("devfolio", "us-east-1", "http://127.0.0.1:9000", "minioadmin", "minioadmin")
}

func stubAWSSeams(t *testing.T) {
	t.Helper()
	origLoad := loadDefaultAWSConfig
	origNewS3 := newS3ClientFromConfig
	origNewPre := newS3PresignClient
	origPut := presignPutObject
	origGet := presignGetObject
	origDel := deleteObject
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNewS3
		newS3PresignClient = origNewPre
		presignPutObject = origPut
		presignGetObject = origGet
		deleteObject = origDel
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client { return &s3.Client{} }
	newS3PresignClient = func(c *s3.Client) *s3.PresignClient { return &s3.PresignClient{} }
}

func TestNewStorageKey(t *testing.T) {
	a := NewStorageKey()
	b := NewStorageKey()

	if !strings.HasPrefix(a, "uploads/") {
		t.Fatalf("unexpected key prefix: %q", a)
	}
	if a == b {
		t.Fatal("two keys must differ")
	}
	if parts := strings.Split(a, "/"); len(parts) != 5 {
		t.Fatalf("want 5 path segments, got %d in %q", len(parts), a)
	}
}

func Test_getClient_AppliesRegionAndEndpoint(t *testing.T) {
	store := newTestStore()
	stubAWSSeams(t)

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			if err := fn(&lo); err != nil {
				t.Fatalf("load options fn error: %v", err)
			}
		}
		if lo.Region != "us-east-1" {
			t.Fatalf("region not applied: %q", lo.Region)
		}
		return aws.Config{}, nil
	}

	var capturedBaseEndpoint string
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		var opts s3.Options
		for _, fn := range optFns {
			fn(&opts)
		}
		if opts.BaseEndpoint == nil {
			t.Fatalf("BaseEndpoint not set")
		}
		capturedBaseEndpoint = *opts.BaseEndpoint
		return &s3.Client{}
	}

	client, err := store.getClient(context.Background())
	if err != nil {
		t.Fatalf("getClient err: %v", err)
	}
	if client == nil {
		t.Fatal("nil client")
	}
	if capturedBaseEndpoint != "http://127.0.0.1:9000" {
		t.Fatalf("BaseEndpoint mismatch: %q", capturedBaseEndpoint)
	}
}

func Test_getClient_ConfigError(t *testing.T) {
	store := newTestStore()
	stubAWSSeams(t)

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("load-fail")
	}

	if _, err := store.getClient(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if _, _, err := store.PresignPut(context.Background()); err == nil {
		t.Fatal("PresignPut must propagate config error")
	}
	if _, err := store.PresignGet(context.Background(), "k"); err == nil {
		t.Fatal("PresignGet must propagate config error")
	}
	if err := store.Delete(context.Background(), "k"); err == nil {
		t.Fatal("Delete must propagate config error")
	}
}

func TestPresignPut_ReturnsKeyAndURL(t *testing.T) {
	store := newTestStore()
	stubAWSSeams(t)

	var capturedBucket, capturedKey string
	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		capturedBucket = *in.Bucket
		capturedKey = *in.Key
		return &v4.PresignedHTTPRequest{URL: "https://signed.example/put"}, nil
	}

	key, url, err := store.PresignPut(context.Background())
	if err != nil {
		t.Fatalf("PresignPut err: %v", err)
	}
	if url != "https://signed.example/put" {
		t.Fatalf("url = %q", url)
	}
	if key != capturedKey {
		t.Fatalf("returned key %q does not match presigned key %q", key, capturedKey)
	}
	if capturedBucket != "devfolio" {
		t.Fatalf("bucket = %q", capturedBucket)
	}
}

func TestPresignPut_ErrorFromPresign(t *testing.T) {
	store := newTestStore()
	stubAWSSeams(t)

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return nil, errors.New("presign-put-fail")
	}

	_, _, err := store.PresignPut(context.Background())
	if err == nil || err.Error() != "presign-put-fail" {
		t.Fatalf("want presign-put-fail, got %v", err)
	}
}

func TestPresignGet(t *testing.T) {
	store := newTestStore()
	stubAWSSeams(t)

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		if *in.Key != "uploads/2026/01/01/1-abc" {
			t.Fatalf("key = %q", *in.Key)
		}
		return &v4.PresignedHTTPRequest{URL: "https://signed.example/get"}, nil
	}

	url, err := store.PresignGet(context.Background(), "uploads/2026/01/01/1-abc")
	if err != nil {
		t.Fatalf("PresignGet err: %v", err)
	}
	if url != "https://signed.example/get" {
		t.Fatalf("url = %q", url)
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return nil, errors.New("presign-get-fail")
	}
	if _, err := store.PresignGet(context.Background(), "k"); err == nil {
		t.Fatal("expected error")
	}
}

func TestDelete(t *testing.T) {
	store := newTestStore()
	stubAWSSeams(t)

	var deletedKey string
	deleteObject = func(c *s3.Client, ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
		deletedKey = *in.Key
		return &s3.DeleteObjectOutput{}, nil
	}

	if err := store.Delete(context.Background(), "uploads/x"); err != nil {
		t.Fatalf("Delete err: %v", err)
	}
	if deletedKey != "uploads/x" {
		t.Fatalf("deletedKey = %q", deletedKey)
	}

	deleteObject = func(c *s3.Client, ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
		return nil, errors.New("delete-fail")
	}
	if err := store.Delete(context.Background(), "uploads/x"); err == nil {
		t.Fatal("expected error")
	}
}
