package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/logger"
	repo "storefront/internal/repository"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ProductRepositoryをredisで包む。カタログ（商品）だけ。
// 注文・ロールのデータはキャッシュしない。
// redisが落ちていてもDBにフォールバックして動き続ける。
type CachedProductRepository struct {
	realRepo repo.ProductRepository
	redis    *redis.Client
	ttl      time.Duration
}

func NewCachedProductRepository(realRepo repo.ProductRepository, rdb *redis.Client) *CachedProductRepository {
	return &CachedProductRepository{
		realRepo: realRepo,
		redis:    rdb,
		ttl:      5 * time.Minute,
	}
}

func (c *CachedProductRepository) FindByID(ctx context.Context, id int64) (model.Product, error) {
	key := fmt.Sprintf("product:%d", id)

	data, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var p model.Product
		if uerr := json.Unmarshal(data, &p); uerr != nil {
			logger.Logger.Warn("cached product unmarshal failed, falling back to db", zap.Error(uerr))
			break
		}
		return p, nil

	case errors.Is(err, redis.Nil):
		//キャッシュなし

	default:
		logger.Logger.Warn("redis get failed, falling back to db", zap.Error(err))
	}

	p, err := c.realRepo.FindByID(ctx, id)
	if err != nil {
		return model.Product{}, err
	}

	jsonData, err := json.Marshal(p)
	if err == nil {
		if serr := c.redis.Set(ctx, key, jsonData, c.ttl).Err(); serr != nil {
			logger.Logger.Warn("redis set failed", zap.Error(serr))
		}
	}
	return p, nil
}

// 一覧はクエリをキーにして丸ごとキャッシュする。
// キーに世代番号を含めるので、書き込み後の世代bumpで古い一覧は参照されなくなる。
func (c *CachedProductRepository) ListPublic(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	key := fmt.Sprintf("product:list:g%d:%s", c.listGen(ctx), listKey(q))

	type cachedList struct {
		Items []model.Product `json:"items"`
		Total int64           `json:"total"`
	}

	data, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cl cachedList
		if uerr := json.Unmarshal(data, &cl); uerr != nil {
			logger.Logger.Warn("cached list unmarshal failed, falling back to db", zap.Error(uerr))
			break
		}
		return cl.Items, cl.Total, nil

	case errors.Is(err, redis.Nil):

	default:
		logger.Logger.Warn("redis get failed, falling back to db", zap.Error(err))
	}

	items, total, err := c.realRepo.ListPublic(ctx, q)
	if err != nil {
		return []model.Product{}, 0, err
	}

	jsonData, merr := json.Marshal(cachedList{Items: items, Total: total})
	if merr == nil {
		if serr := c.redis.Set(ctx, key, jsonData, c.ttl).Err(); serr != nil {
			logger.Logger.Warn("redis set failed", zap.Error(serr))
		}
	}
	return items, total, nil
}

// 書き込み系は実体に投げてからキャッシュを破棄する

func (c *CachedProductRepository) Create(ctx context.Context, p model.Product) (model.Product, error) {
	created, err := c.realRepo.Create(ctx, p)
	if err != nil {
		return model.Product{}, err
	}
	c.invalidateLists(ctx)
	return created, nil
}

func (c *CachedProductRepository) Update(ctx context.Context, p model.Product) error {
	if err := c.realRepo.Update(ctx, p); err != nil {
		return err
	}
	c.invalidate(ctx, p.ID)
	return nil
}

func (c *CachedProductRepository) SoftDelete(ctx context.Context, id int64) error {
	if err := c.realRepo.SoftDelete(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx, id)
	return nil
}

func (c *CachedProductRepository) AddImage(ctx context.Context, img model.ProductImage) (model.ProductImage, error) {
	created, err := c.realRepo.AddImage(ctx, img)
	if err != nil {
		return model.ProductImage{}, err
	}
	c.invalidate(ctx, img.ProductID)
	return created, nil
}

func (c *CachedProductRepository) DeleteImage(ctx context.Context, imageID int64) error {
	if err := c.realRepo.DeleteImage(ctx, imageID); err != nil {
		return err
	}
	c.invalidateLists(ctx)
	return nil
}

func (c *CachedProductRepository) invalidate(ctx context.Context, productID int64) {
	if err := c.redis.Del(ctx, fmt.Sprintf("product:%d", productID)).Err(); err != nil {
		logger.Logger.Warn("redis del failed", zap.Error(err))
	}
	c.invalidateLists(ctx)
}

// 一覧キーは世代番号付き。世代を進めれば古い一覧は自然に期限切れで消える。
func (c *CachedProductRepository) invalidateLists(ctx context.Context) {
	if err := c.redis.Incr(ctx, "product:list:gen").Err(); err != nil {
		logger.Logger.Warn("redis incr failed", zap.Error(err))
	}
}

func (c *CachedProductRepository) listGen(ctx context.Context) int64 {
	gen, err := c.redis.Get(ctx, "product:list:gen").Int64()
	if err != nil {
		return 0
	}
	return gen
}

func listKey(q repo.ProductListQuery) string {
	cat := int64(0)
	if q.CategoryID != nil {
		cat = *q.CategoryID
	}
	min := ""
	if q.MinPrice != nil {
		min = q.MinPrice.String()
	}
	max := ""
	if q.MaxPrice != nil {
		max = q.MaxPrice.String()
	}
	return fmt.Sprintf("%d:%d:%s:%d:%s:%s:%s", q.Page, q.Limit, q.Q, cat, min, max, q.Sort)
}
