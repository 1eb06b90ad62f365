package schedule

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/glowdesk/scheduler/internal/cache"
)

// CachedRepository layers the snapshot cache over the slow-changing schedule
// metadata reads: business profile, working hours, and services. Volatile
// reads (appointments, time off, overrides, holds) always go to the store so
// availability never serves a stale booking state beyond the documented
// read-then-revalidate window.
type CachedRepository struct {
	Repository
	cache *cache.Cache
}

func NewCachedRepository(repo Repository, c *cache.Cache) *CachedRepository {
	return &CachedRepository{Repository: repo, cache: c}
}

func (r *CachedRepository) GetBusiness(ctx context.Context) (*Business, error) {
	var b Business
	if ok, _ := r.cache.Get(ctx, "business", &b); ok {
		return &b, nil
	}
	fresh, err := r.Repository.GetBusiness(ctx)
	if err != nil {
		return nil, err
	}
	_ = r.cache.Set(ctx, "business", fresh)
	return fresh, nil
}

func (r *CachedRepository) GetServiceByID(ctx context.Context, id uuid.UUID) (*Service, error) {
	key := "service:" + id.String()
	var s Service
	if ok, _ := r.cache.Get(ctx, key, &s); ok {
		return &s, nil
	}
	fresh, err := r.Repository.GetServiceByID(ctx, id)
	if err != nil {
		return nil, err
	}
	_ = r.cache.Set(ctx, key, fresh)
	return fresh, nil
}

func (r *CachedRepository) ListWorkingHours(ctx context.Context, owner Owner) ([]WorkingHours, error) {
	key := hoursKey(owner)
	var rows []WorkingHours
	if ok, _ := r.cache.Get(ctx, key, &rows); ok {
		return rows, nil
	}
	fresh, err := r.Repository.ListWorkingHours(ctx, owner)
	if err != nil {
		return nil, err
	}
	_ = r.cache.Set(ctx, key, fresh)
	return fresh, nil
}

// InvalidateOwnerHours drops the cached schedule for one owner, for callers
// that just mutated working hours.
func (r *CachedRepository) InvalidateOwnerHours(ctx context.Context, owner Owner) error {
	return r.cache.Invalidate(ctx, hoursKey(owner))
}

// InvalidateService drops one cached service definition.
func (r *CachedRepository) InvalidateService(ctx context.Context, id uuid.UUID) error {
	return r.cache.Invalidate(ctx, "service:"+id.String())
}

func hoursKey(owner Owner) string {
	return fmt.Sprintf("hours:%s:%s", owner.Kind, owner.ID)
}
