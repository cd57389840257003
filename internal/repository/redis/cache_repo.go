package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/AhmadZaarour/store-manager-web-app/internal/cfg"
	"github.com/AhmadZaarour/store-manager-web-app/internal/domain"
	"github.com/AhmadZaarour/store-manager-web-app/internal/repository/redis/converter"
	"github.com/AhmadZaarour/store-manager-web-app/pkg/clients"
	"github.com/AhmadZaarour/store-manager-web-app/pkg/e"
	"github.com/AhmadZaarour/store-manager-web-app/pkg/logger"
	"github.com/jimlawless/whereami"
	goredis "github.com/redis/go-redis/v9"
)

// versionTTL — время жизни счётчика версии после последней инвалидации.
const versionTTL = 24 * time.Hour

var errStaleVersion = errors.New("cache version changed")

// CacheRepo кэширует товары по штрихкоду.
type CacheRepo struct {
	client *clients.RedisClient
	conv   converter.ProductConverter
	cfg    *cfg.RedisCfg
	logger logger.Logger
}

func NewCacheRepo(client *clients.RedisClient, conv converter.ProductConverter,
	cfg *cfg.RedisCfg, logger logger.Logger) *CacheRepo {
	return &CacheRepo{
		client: client,
		conv:   conv,
		cfg:    cfg,
		logger: logger,
	}
}

// GetProduct возвращает товар из кэша. Промах — (nil, nil).
func (r *CacheRepo) GetProduct(ctx context.Context, barcode string) (*domain.Product, error) {
	key := r.productKey(barcode)

	data, err := r.client.Client.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	model, err := r.unmarshalProductFromCache(data)
	if err != nil {
		r.logger.Warnf("Redis unmarshal failed: %v", e.Wrap(whereami.WhereAmI(), err))
		r.drop(key)
		return nil, nil
	}

	if model.Barcode != barcode {
		r.logger.Warnf("Cache barcode mismatch: key: %s, model_barcode: %s", barcode, model.Barcode)
		r.drop(key)
		return nil, nil // cache miss
	}

	return r.conv.ToEntity(model), nil
}

// ProductVersion возвращает число инвалидаций штрихкода. Отсутствующий ключ — версия 0.
func (r *CacheRepo) ProductVersion(ctx context.Context, barcode string) (int64, error) {
	version, err := r.client.Client.Get(ctx, r.versionKey(barcode)).Int64()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, e.Wrap(whereami.WhereAmI(), err)
	}

	return version, nil
}

// SetProduct кэширует товар на cfg.ProductTTL, если версия штрихкода всё ещё равна version.
// Версия проверяется под WATCH, поэтому инвалидация между проверкой и записью отменяет запись.
func (r *CacheRepo) SetProduct(ctx context.Context, product *domain.Product, version int64) error {
	data, err := r.marshalProductForCache(r.conv.ToRedisModel(product))
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	key := r.productKey(product.Barcode)
	versionKey := r.versionKey(product.Barcode)

	err = r.client.Client.Watch(ctx, func(tx *goredis.Tx) error {
		current, err := tx.Get(ctx, versionKey).Int64()
		if err != nil && !errors.Is(err, goredis.Nil) {
			return err
		}
		if current != version {
			return errStaleVersion
		}

		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, key, data, r.cfg.ProductTTL)
			return nil
		})
		return err
	}, versionKey)

	if errors.Is(err, errStaleVersion) || errors.Is(err, goredis.TxFailedErr) {
		r.logger.Debugf("Skip caching stale product: barcode: %s, version: %d", product.Barcode, version)
		return nil
	}
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// DeleteProducts удаляет товары из кэша и увеличивает их версии одной транзакцией.
func (r *CacheRepo) DeleteProducts(ctx context.Context, barcodes []string) error {
	if len(barcodes) == 0 {
		return nil
	}

	_, err := r.client.Client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, r.buildProductCacheKeys(barcodes)...)
		for _, barcode := range barcodes {
			versionKey := r.versionKey(barcode)
			pipe.Incr(ctx, versionKey)
			pipe.Expire(ctx, versionKey, versionTTL)
		}
		return nil
	})
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func (r *CacheRepo) drop(key string) {
	if err := r.client.Client.Del(context.Background(), key).Err(); err != nil {
		r.logger.Warnf("Redis del failed: %v", e.Wrap(whereami.WhereAmI(), err))
	}
}

// marshalProductForCache сериализует товар в JSON для кэша
func (r *CacheRepo) marshalProductForCache(model *converter.ProductRedisModel) ([]byte, error) {
	return json.Marshal(model)
}

// unmarshalProductFromCache десериализует JSON из кэша в модель товара
func (r *CacheRepo) unmarshalProductFromCache(data []byte) (*converter.ProductRedisModel, error) {
	var model converter.ProductRedisModel
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, err
	}

	return &model, nil
}

// buildProductCacheKeys формирует Redis-ключи из штрихкодов
func (r *CacheRepo) buildProductCacheKeys(barcodes []string) []string {
	keys := make([]string, len(barcodes))
	for i, barcode := range barcodes {
		keys[i] = r.productKey(barcode)
	}

	return keys
}

// versionKey возвращает Redis-ключ версии товара
func (r *CacheRepo) versionKey(barcode string) string {
	return fmt.Sprintf("product-version:%s", barcode)
}

// productKey возвращает Redis-ключ для одного товара
func (r *CacheRepo) productKey(barcode string) string {
	return fmt.Sprintf("product:%s", barcode)
}
