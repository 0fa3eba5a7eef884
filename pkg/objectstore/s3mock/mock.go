package s3mock

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

func NewMockS3() *MockS3 {
	return &MockS3{
		buckets:    map[string]map[string][]byte{},
		DeleteErrs: map[string]error{},
	}
}

// MockS3 mimics an S3 blob store for testing.
type MockS3 struct {
	sync.RWMutex
	buckets map[string]map[string][]byte
	s3iface.S3API

	// DeleteErrs makes DeleteObject fail for the given keys.
	DeleteErrs map[string]error
	// ListErr makes every listing fail.
	ListErr error
}

func (m *MockS3) NewBucket(name string) {
	m.Lock()
	defer m.Unlock()
	m.buckets[name] = map[string][]byte{}
}

// Put stores data under bucket/key, creating the bucket when needed.
func (m *MockS3) Put(bucket, key string, data []byte) {
	m.Lock()
	defer m.Unlock()
	b, ok := m.buckets[bucket]
	if !ok {
		b = map[string][]byte{}
		m.buckets[bucket] = b
	}
	b[key] = data
}

// Keys returns the sorted keys of bucket.
func (m *MockS3) Keys(bucket string) []string {
	m.RLock()
	defer m.RUnlock()
	var keys []string
	for k := range m.buckets[bucket] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m *MockS3) PutObject(in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
	data, err := ioutil.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	m.Put(*in.Bucket, *in.Key, data)
	return &s3.PutObjectOutput{}, nil
}

func (m *MockS3) GetObjectWithContext(_ aws.Context, in *s3.GetObjectInput, _ ...request.Option) (*s3.GetObjectOutput, error) {
	m.RLock()
	defer m.RUnlock()

	bucket, ok := m.buckets[*in.Bucket]
	if !ok {
		return nil, fmt.Errorf("bucket '%s' does not exist", *in.Bucket)
	}
	data, ok := bucket[*in.Key]
	if !ok {
		return nil, fmt.Errorf("key '%s' does not exist in bucket '%s'", *in.Key, *in.Bucket)
	}
	if in.Range != nil {
		data = applyRange(data, *in.Range)
	}
	return &s3.GetObjectOutput{
		Body:          ioutil.NopCloser(bytes.NewReader(data)),
		ContentLength: aws.Int64(int64(len(data))),
	}, nil
}

func (m *MockS3) ListObjectsV2PagesWithContext(_ aws.Context, in *s3.ListObjectsV2Input, fn func(*s3.ListObjectsV2Output, bool) bool, _ ...request.Option) error {
	if m.ListErr != nil {
		return m.ListErr
	}
	m.RLock()
	bucket, ok := m.buckets[*in.Bucket]
	if !ok {
		m.RUnlock()
		return fmt.Errorf("bucket '%s' does not exist", *in.Bucket)
	}
	var keys []string
	for key := range bucket {
		if strings.HasPrefix(key, aws.StringValue(in.Prefix)) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	objects := make([]*s3.Object, len(keys))
	for i, key := range keys {
		objects[i] = &s3.Object{Key: aws.String(key), Size: aws.Int64(int64(len(bucket[key])))}
	}
	m.RUnlock()

	out := new(s3.ListObjectsV2Output)
	out.SetContents(objects)
	fn(out, true)
	return nil
}

func (m *MockS3) CopyObjectWithContext(_ aws.Context, in *s3.CopyObjectInput, _ ...request.Option) (*s3.CopyObjectOutput, error) {
	source, err := url.PathUnescape(*in.CopySource)
	if err != nil {
		return nil, err
	}
	parts := strings.SplitN(source, "/", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid copy source %q", source)
	}
	m.RLock()
	data, ok := m.buckets[parts[0]][parts[1]]
	m.RUnlock()
	if !ok {
		return nil, fmt.Errorf("key '%s' does not exist in bucket '%s'", parts[1], parts[0])
	}
	m.Put(*in.Bucket, *in.Key, data)
	return &s3.CopyObjectOutput{}, nil
}

func (m *MockS3) DeleteObjectWithContext(_ aws.Context, in *s3.DeleteObjectInput, _ ...request.Option) (*s3.DeleteObjectOutput, error) {
	if err := m.DeleteErrs[*in.Key]; err != nil {
		return nil, err
	}
	m.Lock()
	defer m.Unlock()
	delete(m.buckets[*in.Bucket], *in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

// applyRange honours a "bytes=start-end" header.
func applyRange(data []byte, header string) []byte {
	spec := strings.TrimPrefix(header, "bytes=")
	bounds := strings.SplitN(spec, "-", 2)
	if len(bounds) != 2 {
		return data
	}
	start, err := strconv.Atoi(bounds[0])
	if err != nil || start >= len(data) {
		return nil
	}
	end := len(data) - 1
	if bounds[1] != "" {
		if e, err := strconv.Atoi(bounds[1]); err == nil && e < end {
			end = e
		}
	}
	return data[start : end+1]
}
