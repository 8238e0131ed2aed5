package repository

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-tracker/internal/domain"
)

// Cache is the byte cache the cached template repository reads through.
// persistence.Redis satisfies it.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

const (
	templateCachePrefix = "template:"
	defaultTemplateKey  = "template:default"
)

type cachedTemplateRepository struct {
	TemplateRepository
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedTemplateRepository wraps next with a read-through cache for FindByID and
// FindDefault. Cache failures are logged and fall through to next.
func NewCachedTemplateRepository(next TemplateRepository, cache Cache, ttl time.Duration, logger *zap.Logger) TemplateRepository {
	return &cachedTemplateRepository{TemplateRepository: next, cache: cache, ttl: ttl, logger: logger}
}

func (r *cachedTemplateRepository) FindByID(ctx context.Context, id string) (*domain.Template, error) {
	key := templateCachePrefix + id
	if tpl, ok := r.load(ctx, key); ok {
		return tpl, nil
	}
	tpl, err := r.TemplateRepository.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.store(ctx, key, tpl)
	return tpl, nil
}

func (r *cachedTemplateRepository) FindDefault(ctx context.Context) (*domain.Template, error) {
	if tpl, ok := r.load(ctx, defaultTemplateKey); ok {
		return tpl, nil
	}
	tpl, err := r.TemplateRepository.FindDefault(ctx)
	if err != nil {
		return nil, err
	}
	r.store(ctx, defaultTemplateKey, tpl)
	return tpl, nil
}

func (r *cachedTemplateRepository) Save(ctx context.Context, template *domain.Template) error {
	if err := r.TemplateRepository.Save(ctx, template); err != nil {
		return err
	}
	r.invalidate(ctx, templateCachePrefix+template.ID, defaultTemplateKey)
	return nil
}

func (r *cachedTemplateRepository) Delete(ctx context.Context, id string) error {
	if err := r.TemplateRepository.Delete(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, templateCachePrefix+id, defaultTemplateKey)
	return nil
}

func (r *cachedTemplateRepository) SetAsDefault(ctx context.Context, id string) error {
	keys := []string{templateCachePrefix + id, defaultTemplateKey}
	if current, err := r.TemplateRepository.FindDefault(ctx); err == nil && current.ID != id {
		keys = append(keys, templateCachePrefix+current.ID)
	}
	if err := r.TemplateRepository.SetAsDefault(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, keys...)
	return nil
}

func (r *cachedTemplateRepository) load(ctx context.Context, key string) (*domain.Template, bool) {
	raw, err := r.cache.Get(ctx, key)
	if err != nil {
		return nil, false
	}
	var tpl domain.Template
	if err := json.Unmarshal(raw, &tpl); err != nil {
		r.logger.Warn("drop corrupt cached template", zap.String("key", key), zap.Error(err))
		r.invalidate(ctx, key)
		return nil, false
	}
	return &tpl, true
}

func (r *cachedTemplateRepository) store(ctx context.Context, key string, tpl *domain.Template) {
	raw, err := json.Marshal(tpl)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, key, raw, r.ttl); err != nil {
		r.logger.Warn("cache template", zap.String("key", key), zap.Error(err))
	}
}

func (r *cachedTemplateRepository) invalidate(ctx context.Context, keys ...string) {
	if err := r.cache.Delete(ctx, keys...); err != nil {
		r.logger.Warn("invalidate cached templates", zap.Strings("keys", keys), zap.Error(err))
	}
}
