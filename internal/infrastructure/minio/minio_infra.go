package minio

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/AhmadZaarour/store-manager-web-app/internal/cfg"
	"github.com/AhmadZaarour/store-manager-web-app/internal/domain"
	"github.com/AhmadZaarour/store-manager-web-app/internal/infrastructure"
	"github.com/AhmadZaarour/store-manager-web-app/internal/usecase"
	"github.com/AhmadZaarour/store-manager-web-app/pkg/e"
	"github.com/AhmadZaarour/store-manager-web-app/pkg/jitter"
	"github.com/AhmadZaarour/store-manager-web-app/pkg/logger"
	"github.com/google/uuid"
)

const (
	// ImagePrefix — общий префикс ключей изображений товаров.
	ImagePrefix = "products/"

	cleanupAttempts    = 3
	cleanupBaseBackoff = time.Second
	cleanupMaxBackoff  = 8 * time.Second
	cleanupTimeout     = 30 * time.Second
)

// MinioInfrastructure управляет загрузкой и очисткой изображений товаров.
type MinioInfrastructure struct {
	imageRepo   usecase.ImageRepository
	cfg         *cfg.MinIOCfg
	logger      logger.Logger
	shutdownCtx context.Context
	wg          sync.WaitGroup
	baseBackoff time.Duration
}

func NewMinioInfrastructure(imageRepo usecase.ImageRepository, cfg *cfg.MinIOCfg, logger logger.Logger, shutdownCtx context.Context) *MinioInfrastructure {
	return &MinioInfrastructure{
		imageRepo:   imageRepo,
		cfg:         cfg,
		logger:      logger,
		shutdownCtx: shutdownCtx,
		baseBackoff: cleanupBaseBackoff,
	}
}

// UploadImage проверяет тип и размер изображения и загружает его под ключом
// products/<barcode>/<uuid>.<ext>.
func (m *MinioInfrastructure) UploadImage(ctx context.Context, req *usecase.UploadImageReq) (*usecase.UploadImageRes, error) {
	const op = "MinioInfrastructure.UploadImage"

	image := req.Image
	if len(image.Data) == 0 {
		return nil, e.Wrap(op, e.ErrNoImages)
	}
	if m.cfg.MaxImageSize > 0 && image.Size > m.cfg.MaxImageSize {
		return nil, e.Wrap(op, e.ErrFileTooLarge)
	}

	ext, err := infrastructure.GetExtensionFromMIME(image.MimeType)
	if err != nil {
		return nil, e.Wrap(op, fmt.Errorf("invalid mime type %s for %s: %w", image.MimeType, image.Name, err))
	}

	imageID := uuid.NewString()
	objKey := fmt.Sprintf("%s%s/%s.%s", ImagePrefix, req.Barcode, imageID, ext)
	newImage := domain.NewImage(imageID, m.cfg.BucketName, objKey, image.Data, image.Size, image.MimeType)

	key, err := m.imageRepo.Upload(ctx, newImage)
	if err != nil {
		return nil, e.Wrap(op, fmt.Errorf("upload %s failed: %w", image.Name, err))
	}

	return usecase.NewUploadImageRes(key, m.objectURL(key)), nil
}

// CleanupImages запускает фоновую очистку указанных ключей MinIO
func (m *MinioInfrastructure) CleanupImages(keys []string) {
	if len(keys) == 0 {
		return
	}
	m.wg.Add(1)
	go m.cleanupUploadedKeys(keys)
}

// cleanupUploadedKeys удаляет указанные объекты из MinIO с экспоненциальной задержкой и jitter.
func (m *MinioInfrastructure) cleanupUploadedKeys(keys []string) {
	defer m.wg.Done()
	const op = "MinioInfrastructure.cleanupUploadedKeys"
	m.logger.Infof("%s: Cleaning up uploaded keys: %v", op, keys)

	ctx, cancel := context.WithTimeout(m.shutdownCtx, cleanupTimeout)
	defer cancel()

	for _, key := range keys {
		for attempt := 0; attempt < cleanupAttempts; attempt++ {
			err := m.imageRepo.Delete(ctx, key)
			if err == nil {
				break
			}

			select {
			case <-ctx.Done():
				m.logger.Warnf("cleanup interrupted by shutdown, key=%v", key)
				return
			default:
			}

			if attempt == cleanupAttempts-1 {
				m.logger.Errorf(err, "%s: giving up on key=%s", op, key)
				break
			}

			select {
			case <-time.After(jitter.ExponentialBackoff(m.baseBackoff, cleanupMaxBackoff, attempt, jitter.DefaultJitter)):
			case <-ctx.Done():
				m.logger.Warnf("cleanup interrupted by shutdown during backoff, key=%v", key)
				return
			}
		}
	}
}

// WaitForCleanup ожидает завершения всех фоновых задач очистки с учётом таймаута завершения приложения.
func (m *MinioInfrastructure) WaitForCleanup(shutdownTimeoutCtx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-shutdownTimeoutCtx.Done():
		return fmt.Errorf("minio cleanup timeout during shutdown: %w", shutdownTimeoutCtx.Err())
	}
}

func (m *MinioInfrastructure) objectURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(m.cfg.PublicURL, "/"), m.cfg.BucketName, key)
}
