package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-tracker/internal/domain"
	apperrors "github.com/spec-kit/ticket-tracker/pkg/util/errorutil"
)

var errFakeMiss = errors.New("miss")

type fakeCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	failSet bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string][]byte{}}
}

func (c *fakeCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	if !ok {
		return nil, errFakeMiss
	}
	return v, nil
}

func (c *fakeCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failSet {
		return errors.New("cache down")
	}
	c.entries[key] = value
	return nil
}

func (c *fakeCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.entries, key)
	}
	return nil
}

func (c *fakeCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

// countingTemplateRepository counts reads reaching the wrapped repository.
type countingTemplateRepository struct {
	TemplateRepository
	findByID    int
	findDefault int
}

func (r *countingTemplateRepository) FindByID(ctx context.Context, id string) (*domain.Template, error) {
	r.findByID++
	return r.TemplateRepository.FindByID(ctx, id)
}

func (r *countingTemplateRepository) FindDefault(ctx context.Context) (*domain.Template, error) {
	r.findDefault++
	return r.TemplateRepository.FindDefault(ctx)
}

func TestCachedTemplateRepositoryReadThrough(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	inner := &countingTemplateRepository{TemplateRepository: NewTemplateRepository(openTestDB(t))}
	cache := newFakeCache()
	repo := NewCachedTemplateRepository(inner, cache, time.Minute, zap.NewNop())

	tpl := domain.DefaultTemplate()
	require.NoError(t, repo.Save(ctx, tpl))

	first, err := repo.FindByID(ctx, tpl.ID)
	require.NoError(t, err)
	second, err := repo.FindByID(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, inner.findByID)
	assert.Equal(t, first.Name, second.Name)
	assert.True(t, cache.has(templateCachePrefix+tpl.ID))

	tpl.Name = "Changed"
	require.NoError(t, repo.Save(ctx, tpl))
	assert.False(t, cache.has(templateCachePrefix+tpl.ID))

	got, err := repo.FindByID(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, "Changed", got.Name)
	assert.Equal(t, 2, inner.findByID)

	_, err = repo.FindByID(ctx, "missing")
	assert.True(t, apperrors.IsNotFound(err))
	assert.False(t, cache.has(templateCachePrefix+"missing"))

	require.NoError(t, repo.Delete(ctx, tpl.ID))
	assert.False(t, cache.has(templateCachePrefix+tpl.ID))
	_, err = repo.FindByID(ctx, tpl.ID)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCachedTemplateRepositoryDefault(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	inner := &countingTemplateRepository{TemplateRepository: NewTemplateRepository(openTestDB(t))}
	cache := newFakeCache()
	repo := NewCachedTemplateRepository(inner, cache, time.Minute, zap.NewNop())

	a := domain.DefaultTemplate()
	b := domain.DefaultTemplate()
	b.Name = "Other"
	b.IsDefault = false
	require.NoError(t, repo.Save(ctx, a))
	require.NoError(t, repo.Save(ctx, b))

	def, err := repo.FindDefault(ctx)
	require.NoError(t, err)
	assert.Equal(t, a.ID, def.ID)
	_, err = repo.FindByID(ctx, a.ID)
	require.NoError(t, err)
	_, err = repo.FindDefault(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, inner.findDefault)

	require.NoError(t, repo.SetAsDefault(ctx, b.ID))
	assert.False(t, cache.has(defaultTemplateKey))
	assert.False(t, cache.has(templateCachePrefix+a.ID))

	def, err = repo.FindDefault(ctx)
	require.NoError(t, err)
	assert.Equal(t, b.ID, def.ID)

	old, err := repo.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, old.IsDefault)
}

func TestCachedTemplateRepositoryToleratesCacheFailures(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cache := newFakeCache()
	cache.failSet = true
	repo := NewCachedTemplateRepository(NewTemplateRepository(openTestDB(t)), cache, time.Minute, zap.NewNop())

	tpl := domain.DefaultTemplate()
	require.NoError(t, repo.Save(ctx, tpl))
	got, err := repo.FindByID(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, tpl.ID, got.ID)

	cache.failSet = false
	cache.entries[templateCachePrefix+tpl.ID] = []byte("{not json")
	got, err = repo.FindByID(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, tpl.ID, got.ID)
}
