// Package objectstore lists, reads, copies and deletes export objects in S3.
package objectstore

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

const (
	// maxS3Keys is the maximum amount of keys to be returned by a single S3
	// list objects API response
	maxS3Keys = 1000
)

// Object is a listed blob.
type Object struct {
	Key  string
	Size int64
}

// Store is the subset of object storage the ingester depends on.
type Store interface {
	List(ctx context.Context, bucket, prefix string) ([]Object, error)
	Peek(ctx context.Context, bucket, key string, n int64) ([]byte, error)
	Copy(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string) error
	Delete(ctx context.Context, bucket, key string) error
	DeletePrefix(ctx context.Context, bucket, prefix string) error
}

type S3Store struct {
	s3API s3iface.S3API
}

var _ Store = (*S3Store)(nil)

// NewS3Store creates a store using the default credential chain. An empty
// endpoint uses the regional AWS endpoint; otherwise path-style addressing is
// enabled so S3-compatible servers work.
func NewS3Store(region, endpoint string) (*S3Store, error) {
	cfg := aws.NewConfig().WithRegion(region)
	if endpoint != "" {
		cfg = cfg.WithEndpoint(endpoint).WithS3ForcePathStyle(true)
	}
	awsSession, err := session.NewSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to create AWS session: %v", err)
	}
	return NewS3StoreFromAPI(s3.New(awsSession)), nil
}

func NewS3StoreFromAPI(api s3iface.S3API) *S3Store {
	return &S3Store{s3API: api}
}

// List returns every object under prefix in the order S3 lists them.
func (s *S3Store) List(ctx context.Context, bucket, prefix string) ([]Object, error) {
	var objects []Object
	pageFn := func(out *s3.ListObjectsV2Output, lastPage bool) bool {
		for _, obj := range out.Contents {
			objects = append(objects, Object{
				Key:  aws.StringValue(obj.Key),
				Size: aws.Int64Value(obj.Size),
			})
		}
		return true
	}
	err := s.s3API.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int64(maxS3Keys),
	}, pageFn)
	if err != nil {
		return nil, fmt.Errorf("could not list objects in s3://%s/%s: %v", bucket, prefix, err)
	}
	return objects, nil
}

// Peek returns up to the first n bytes of an object.
func (s *S3Store) Peek(ctx context.Context, bucket, key string, n int64) ([]byte, error) {
	out, err := s.s3API.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Range:  aws.String(fmt.Sprintf("bytes=0-%d", n-1)),
	})
	if err != nil {
		return nil, fmt.Errorf("can't get object from bucket '%s' with key '%s': %v", bucket, key, err)
	}
	defer out.Body.Close()
	return ioutil.ReadAll(io.LimitReader(out.Body, n))
}

func (s *S3Store) Copy(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string) error {
	_, err := s.s3API.CopyObjectWithContext(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(dstBucket),
		Key:        aws.String(dstKey),
		CopySource: aws.String(copySource(srcBucket, srcKey)),
	})
	if err != nil {
		return fmt.Errorf("unable to copy s3://%s/%s to s3://%s/%s: %v", srcBucket, srcKey, dstBucket, dstKey, err)
	}
	return nil
}

func (s *S3Store) Delete(ctx context.Context, bucket, key string) error {
	_, err := s.s3API.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("unable to delete s3://%s/%s: %v", bucket, key, err)
	}
	return nil
}

// DeletePrefix removes every object under prefix.
func (s *S3Store) DeletePrefix(ctx context.Context, bucket, prefix string) error {
	objects, err := s.List(ctx, bucket, prefix)
	if err != nil {
		return err
	}
	for _, obj := range objects {
		if err := s.Delete(ctx, bucket, obj.Key); err != nil {
			return err
		}
	}
	return nil
}

// copySource escapes a bucket/key pair for the x-amz-copy-source header.
func copySource(bucket, key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = strings.Replace(url.PathEscape(p), "+", "%2B", -1)
	}
	return bucket + "/" + strings.Join(parts, "/")
}
