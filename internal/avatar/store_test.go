package avatar

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	buckets  map[string]bool
	objects  map[string][]byte
	putErr   error
	madeCall bool
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{buckets: map[string]bool{}, objects: map[string][]byte{}}
}

func (f *fakeAPI) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	return f.buckets[bucketName], nil
}

func (f *fakeAPI) MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error {
	f.madeCall = true
	f.buckets[bucketName] = true
	return nil
}

func (f *fakeAPI) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if f.putErr != nil {
		return minio.UploadInfo{}, f.putErr
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	f.objects[bucketName+"/"+objectName] = data
	return minio.UploadInfo{Bucket: bucketName, Key: objectName}, nil
}

func TestNewStore_CreatesMissingBucket(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	_, err := newStoreWithAPI(context.Background(), api, "avatars", "minio:9000", false)
	require.NoError(t, err)
	assert.True(t, api.madeCall)
	assert.True(t, api.buckets["avatars"])
}

func TestStore_Upload_ReturnsURL(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	api.buckets["avatars"] = true

	s, err := newStoreWithAPI(context.Background(), api, "avatars", "minio:9000", false)
	require.NoError(t, err)

	url, err := s.Upload(context.Background(), "a@x.com", strings.NewReader("png-bytes"), 9, "image/png")
	require.NoError(t, err)

	key := ObjectKey("a@x.com")
	assert.Equal(t, "http://minio:9000/avatars/"+key, url)
	assert.Equal(t, []byte("png-bytes"), api.objects["avatars/"+key])
}

func TestStore_Upload_DeterministicKeyOverwrites(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	api.buckets["avatars"] = true

	s, err := newStoreWithAPI(context.Background(), api, "avatars", "minio:9000", false)
	require.NoError(t, err)

	first, err := s.Upload(context.Background(), "a@x.com", strings.NewReader("v1"), 2, "image/png")
	require.NoError(t, err)
	second, err := s.Upload(context.Background(), "a@x.com", strings.NewReader("v2"), 2, "image/png")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, []byte("v2"), api.objects["avatars/"+ObjectKey("a@x.com")])
}

func TestStore_Upload_PropagatesFailure(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	api.buckets["avatars"] = true
	api.putErr = errors.New("connection refused")

	s, err := newStoreWithAPI(context.Background(), api, "avatars", "minio:9000", false)
	require.NoError(t, err)

	_, err = s.Upload(context.Background(), "a@x.com", strings.NewReader("x"), 1, "image/png")
	require.Error(t, err)
}

func TestGravatarURL_NormalizesEmail(t *testing.T) {
	t.Parallel()

	// md5("a@x.com")
	want := "https://www.gravatar.com/avatar/743173788aa9166801df2e18f0e7ff24"

	assert.Equal(t, want, GravatarURL("a@x.com"))
	assert.Equal(t, want, GravatarURL("  A@X.com  "))
}
