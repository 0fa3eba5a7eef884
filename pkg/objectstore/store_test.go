package objectstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kube-reporting/billing-ingest/pkg/objectstore/s3mock"
)

func TestS3StoreList(t *testing.T) {
	mock := s3mock.NewMockS3()
	mock.Put("billing", "acct/conn/20210101-20210131/b.csv", []byte("12345"))
	mock.Put("billing", "acct/conn/20210101-20210131/a.csv", []byte("1"))
	mock.Put("billing", "other/x.csv", []byte("1"))

	store := NewS3StoreFromAPI(mock)
	objects, err := store.List(context.Background(), "billing", "acct/conn/")
	require.NoError(t, err)
	assert.Equal(t, []Object{
		{Key: "acct/conn/20210101-20210131/a.csv", Size: 1},
		{Key: "acct/conn/20210101-20210131/b.csv", Size: 5},
	}, objects)
}

func TestS3StoreListError(t *testing.T) {
	mock := s3mock.NewMockS3()
	mock.ListErr = errors.New("access denied")

	_, err := NewS3StoreFromAPI(mock).List(context.Background(), "billing", "acct/")
	assert.EqualError(t, err, "could not list objects in s3://billing/acct/: access denied")
}

func TestS3StorePeek(t *testing.T) {
	mock := s3mock.NewMockS3()
	mock.Put("billing", "k.csv", []byte("header\nrow1\nrow2\n"))

	store := NewS3StoreFromAPI(mock)
	data, err := store.Peek(context.Background(), "billing", "k.csv", 9)
	require.NoError(t, err)
	assert.Equal(t, "header\nro", string(data))

	data, err = store.Peek(context.Background(), "billing", "k.csv", 1024)
	require.NoError(t, err)
	assert.Equal(t, "header\nrow1\nrow2\n", string(data))
}

func TestS3StoreCopyAndDelete(t *testing.T) {
	mock := s3mock.NewMockS3()
	mock.Put("billing", "acct/conn/part 1+2.csv", []byte("data"))

	ctx := context.Background()
	store := NewS3StoreFromAPI(mock)
	require.NoError(t, store.Copy(ctx, "billing", "acct/conn/part 1+2.csv", "staging", "ds/raw/part.csv"))
	assert.Equal(t, []string{"ds/raw/part.csv"}, mock.Keys("staging"))

	require.NoError(t, store.Delete(ctx, "billing", "acct/conn/part 1+2.csv"))
	assert.Empty(t, mock.Keys("billing"))

	mock.Put("staging", "ds/raw/other.csv", []byte("x"))
	require.NoError(t, store.DeletePrefix(ctx, "staging", "ds/raw/"))
	assert.Empty(t, mock.Keys("staging"))
}

func TestCopySource(t *testing.T) {
	assert.Equal(t, "bucket/a%20b/c%2Bd.csv", copySource("bucket", "a b/c+d.csv"))
}
