package minio

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/AhmadZaarour/store-manager-web-app/internal/cfg"
	"github.com/AhmadZaarour/store-manager-web-app/internal/domain"
	"github.com/AhmadZaarour/store-manager-web-app/internal/usecase"
	"github.com/AhmadZaarour/store-manager-web-app/pkg/e"
	"github.com/AhmadZaarour/store-manager-web-app/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeImageRepo struct {
	mu          sync.Mutex
	uploaded    []*domain.Image
	deleteCalls map[string]int
	failDeletes int
}

func (f *fakeImageRepo) Upload(_ context.Context, image *domain.Image) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploaded = append(f.uploaded, image)
	return image.ObjectKey, nil
}

func (f *fakeImageRepo) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteCalls == nil {
		f.deleteCalls = make(map[string]int)
	}
	f.deleteCalls[key]++
	if f.deleteCalls[key] <= f.failDeletes {
		return errors.New("minio unavailable")
	}
	return nil
}

func newInfra(repo *fakeImageRepo) *MinioInfrastructure {
	infra := NewMinioInfrastructure(repo, &cfg.MinIOCfg{
		BucketName:   "product-images",
		PublicURL:    "http://localhost:9000/",
		MaxImageSize: 16,
	}, logger.NewNop(), context.Background())
	infra.baseBackoff = time.Millisecond
	return infra
}

func TestUploadImage(t *testing.T) {
	repo := &fakeImageRepo{}
	infra := newInfra(repo)

	res, err := infra.UploadImage(context.Background(), usecase.NewUploadImageReq("123", usecase.ProductImage{
		Data:     []byte("png-bytes"),
		MimeType: "image/png",
		Size:     9,
		Name:     "w.png",
	}))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(res.Key, "products/123/"))
	assert.True(t, strings.HasSuffix(res.Key, ".png"))
	assert.Equal(t, "http://localhost:9000/product-images/"+res.Key, res.URL)
	require.Len(t, repo.uploaded, 1)
	assert.Equal(t, "image/png", repo.uploaded[0].ContentType)
}

func TestUploadImage_Rejects(t *testing.T) {
	testCases := []struct {
		name    string
		image   usecase.ProductImage
		wantErr error
	}{
		{name: "empty", image: usecase.ProductImage{MimeType: "image/png"}, wantErr: e.ErrNoImages},
		{name: "too large", image: usecase.ProductImage{Data: make([]byte, 32), Size: 32, MimeType: "image/png"}, wantErr: e.ErrFileTooLarge},
		{name: "not an image", image: usecase.ProductImage{Data: []byte("%PDF"), Size: 4, MimeType: "application/pdf"}, wantErr: e.ErrUnsupportedMediaType},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &fakeImageRepo{}
			_, err := newInfra(repo).UploadImage(context.Background(), usecase.NewUploadImageReq("1", tc.image))
			assert.ErrorIs(t, err, tc.wantErr)
			assert.Empty(t, repo.uploaded)
		})
	}
}

func TestCleanupImages_RetriesWithBackoff(t *testing.T) {
	repo := &fakeImageRepo{failDeletes: 2}
	infra := newInfra(repo)

	infra.CleanupImages([]string{"a", "b"})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, infra.WaitForCleanup(ctx))

	repo.mu.Lock()
	defer repo.mu.Unlock()
	assert.Equal(t, 3, repo.deleteCalls["a"])
	assert.Equal(t, 3, repo.deleteCalls["b"])
}

func TestCleanupImages_GivesUp(t *testing.T) {
	repo := &fakeImageRepo{failDeletes: 10}
	infra := newInfra(repo)

	infra.CleanupImages([]string{"a"})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, infra.WaitForCleanup(ctx))

	repo.mu.Lock()
	defer repo.mu.Unlock()
	assert.Equal(t, cleanupAttempts, repo.deleteCalls["a"])
}
