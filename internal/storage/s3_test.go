package storage

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	put     *s3.PutObjectInput
	putErr  error
	headErr error
	deleted []string
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.put = in
	if f.putErr != nil {
		return nil, f.putErr
	}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) HeadObject(ctx context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if f.headErr != nil {
		return nil, f.headErr
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deleted = append(f.deleted, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3StorePutSetsObjectHeaders(t *testing.T) {
	api := &fakeS3{}
	store := NewS3StoreWithClient(api, "photos", "https://photos.s3.us-east-1.amazonaws.com")

	res, err := store.Put(context.Background(), PutInput{
		Key:         "1-2-cat.png",
		Body:        strings.NewReader("png"),
		Size:        3,
		ContentType: "image/png",
		Metadata:    map[string]string{"original-name": "cat.png"},
	})
	require.NoError(t, err)

	assert.Equal(t, "https://photos.s3.us-east-1.amazonaws.com/1-2-cat.png", res.URL)
	require.NotNil(t, api.put)
	assert.Equal(t, "photos", aws.ToString(api.put.Bucket))
	assert.Equal(t, "image/png", aws.ToString(api.put.ContentType))
	assert.Equal(t, "inline", aws.ToString(api.put.ContentDisposition))
	assert.Equal(t, "max-age=31536000", aws.ToString(api.put.CacheControl))
	assert.Equal(t, int64(3), aws.ToInt64(api.put.ContentLength))
	assert.Equal(t, "cat.png", api.put.Metadata["original-name"])
}

func TestS3StorePutWrapsError(t *testing.T) {
	boom := errors.New("connection reset")
	store := NewS3StoreWithClient(&fakeS3{putErr: boom}, "photos", "https://cdn")

	_, err := store.Put(context.Background(), PutInput{Key: "k", Body: strings.NewReader("")})
	assert.ErrorIs(t, err, boom)
}

func TestS3StoreDeleteClassifiesNotFound(t *testing.T) {
	api := &fakeS3{headErr: &types.NotFound{}}
	store := NewS3StoreWithClient(api, "photos", "https://cdn")

	err := store.Delete(context.Background(), "missing.png")
	assert.ErrorIs(t, err, ErrObjectNotFound)
	assert.Empty(t, api.deleted)
}

func TestS3StoreDeleteOtherErrors(t *testing.T) {
	api := &fakeS3{headErr: errors.New("access denied")}
	store := NewS3StoreWithClient(api, "photos", "https://cdn")

	err := store.Delete(context.Background(), "x.png")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrObjectNotFound))
}

func TestS3StoreDeleteRemovesExisting(t *testing.T) {
	api := &fakeS3{}
	store := NewS3StoreWithClient(api, "photos", "https://cdn")

	require.NoError(t, store.Delete(context.Background(), "x.png"))
	assert.Equal(t, []string{"x.png"}, api.deleted)
}
