package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glowdesk/scheduler/internal/cache"
)

// countingRepo wraps fakeRepo and counts store hits for the cached reads.
type countingRepo struct {
	*fakeRepo
	businessReads int
	serviceReads  int
	hoursReads    int
}

func (c *countingRepo) GetBusiness(ctx context.Context) (*Business, error) {
	c.businessReads++
	return c.fakeRepo.GetBusiness(ctx)
}

func (c *countingRepo) GetServiceByID(ctx context.Context, id uuid.UUID) (*Service, error) {
	c.serviceReads++
	return c.fakeRepo.GetServiceByID(ctx, id)
}

func (c *countingRepo) ListWorkingHours(ctx context.Context, owner Owner) ([]WorkingHours, error) {
	c.hoursReads++
	return c.fakeRepo.ListWorkingHours(ctx, owner)
}

func newCachedFixture(t *testing.T) (*countingRepo, *CachedRepository) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	base, _ := newFixture(t)
	counting := &countingRepo{fakeRepo: base}
	return counting, NewCachedRepository(counting, cache.New(client, time.Minute))
}

func TestCachedRepositoryBusinessAndService(t *testing.T) {
	counting, repo := newCachedFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		b, err := repo.GetBusiness(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Glow Desk", b.Name)

		s, err := repo.GetServiceByID(ctx, testServiceID)
		require.NoError(t, err)
		assert.Equal(t, 30, s.DurationMinutes)
	}

	assert.Equal(t, 1, counting.businessReads)
	assert.Equal(t, 1, counting.serviceReads)
}

func TestCachedRepositoryWorkingHours(t *testing.T) {
	counting, repo := newCachedFixture(t)
	ctx := context.Background()
	owner := Owner{Kind: OwnerBusiness, ID: testBusinessID}

	first, err := repo.ListWorkingHours(ctx, owner)
	require.NoError(t, err)
	second, err := repo.ListWorkingHours(ctx, owner)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, counting.hoursReads)

	// Invalidation forces the next read back to the store.
	require.NoError(t, repo.InvalidateOwnerHours(ctx, owner))
	_, err = repo.ListWorkingHours(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 2, counting.hoursReads)
}

func TestCachedRepositoryErrorsAreNotCached(t *testing.T) {
	counting, repo := newCachedFixture(t)
	ctx := context.Background()

	_, err := repo.GetServiceByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrServiceNotFound)
	assert.Equal(t, 1, counting.serviceReads)

	_, err = repo.GetServiceByID(ctx, testServiceID)
	require.NoError(t, err)
	assert.Equal(t, 2, counting.serviceReads)
}

func TestCachedRepositoryVolatileReadsBypassCache(t *testing.T) {
	counting, repo := newCachedFixture(t)
	ctx := context.Background()

	counting.appointments = []Appointment{
		{ID: uuid.New(), StaffID: testStaffID, Start: tuesday.Add(10 * time.Hour), End: tuesday.Add(11 * time.Hour), Status: StatusConfirmed},
	}
	appts, err := repo.ListBlockingAppointments(ctx, testStaffID, tuesday, tuesday.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, appts, 1)

	counting.appointments = nil
	appts, err = repo.ListBlockingAppointments(ctx, testStaffID, tuesday, tuesday.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Empty(t, appts, "appointment reads always hit the store")
}
