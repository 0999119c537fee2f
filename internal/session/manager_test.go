package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eduhub/eduhub-backend/internal/cache"
	"github.com/eduhub/eduhub-backend/internal/model"
	"github.com/eduhub/eduhub-backend/internal/store"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestManager(t *testing.T) (*Manager, *fakeClock, store.Storage) {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	c, err := cache.New("invalid:6379", logger.Sugar(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	clock := &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	st := store.NewMemStore()
	mgr := NewManager(st, c, logger.Sugar(), nil, Options{
		TTL:              time.Hour,
		DemoTTL:          600 * time.Second,
		DemoWarning:      60 * time.Second,
		DemoPasswordHash: "demo-hash",
		Clock:            clock,
	})
	return mgr, clock, st
}

func TestCreateAndGetSession(t *testing.T) {
	mgr, _, st := newTestManager(t)
	ctx := context.Background()

	u, err := st.CreateUser(ctx, model.User{Email: "a@b.com", Role: model.RoleStudent})
	require.NoError(t, err)

	sess, err := mgr.Create(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, sess.IsDemo)

	got, err := mgr.Get(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.UserID)

	require.NoError(t, mgr.Delete(ctx, sess.Token))
	_, err = mgr.Get(ctx, sess.Token)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestGetUnknownToken(t *testing.T) {
	mgr, _, _ := newTestManager(t)
	_, err := mgr.Get(context.Background(), "no-such-token")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestCreateDemoProvisionsRoleUser(t *testing.T) {
	mgr, _, st := newTestManager(t)
	ctx := context.Background()

	sess, user, err := mgr.CreateDemo(ctx, model.RoleTeacher)
	require.NoError(t, err)

	assert.True(t, sess.IsDemo)
	assert.Equal(t, model.RoleTeacher, user.Role)
	assert.Regexp(t, `^demo_teacher_\d+@eduhub\.com$`, user.Email)
	assert.Equal(t, "Demo Teacher", user.FullName)
	assert.Equal(t, "9th, 10th, 11th", user.TeachingGrades)

	// The user really exists in the store.
	assert.NotNil(t, st.GetUser(ctx, user.ID))

	cd, ok := mgr.Countdown(sess.Token)
	require.True(t, ok)
	assert.Equal(t, 600, cd.TimeLeft)
	assert.False(t, cd.Expiring)
}

func TestCreateDemoRejectsUnknownRole(t *testing.T) {
	mgr, _, _ := newTestManager(t)
	_, _, err := mgr.CreateDemo(context.Background(), "admin")
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestCountdownLatchesExpiring(t *testing.T) {
	mgr, clock, _ := newTestManager(t)
	ctx := context.Background()

	sess, _, err := mgr.CreateDemo(ctx, model.RoleStudent)
	require.NoError(t, err)

	clock.Advance(539 * time.Second) // 61s left
	cd, ok := mgr.Countdown(sess.Token)
	require.True(t, ok)
	assert.Equal(t, 61, cd.TimeLeft)
	assert.False(t, cd.Expiring)

	clock.Advance(1 * time.Second) // 60s left: latch
	cd, _ = mgr.Countdown(sess.Token)
	assert.Equal(t, 60, cd.TimeLeft)
	assert.True(t, cd.Expiring)

	// The latch never resets, whatever happens on later reads.
	cd, _ = mgr.Countdown(sess.Token)
	assert.True(t, cd.Expiring)
}

func TestSweepExpiresExactlyOnce(t *testing.T) {
	mgr, clock, _ := newTestManager(t)
	ctx := context.Background()

	var mu sync.Mutex
	fired := 0
	mgr.OnExpire(func(token string, userID int) {
		mu.Lock()
		fired++
		mu.Unlock()
	})

	sess, _, err := mgr.CreateDemo(ctx, model.RoleSchool)
	require.NoError(t, err)

	clock.Advance(599 * time.Second)
	mgr.Sweep(ctx)
	mu.Lock()
	assert.Equal(t, 0, fired)
	mu.Unlock()

	clock.Advance(1 * time.Second)
	mgr.Sweep(ctx)
	mgr.Sweep(ctx)
	mgr.Sweep(ctx)
	mu.Lock()
	assert.Equal(t, 1, fired)
	mu.Unlock()

	// The identity is cleared: the token no longer resolves.
	_, err = mgr.Get(ctx, sess.Token)
	assert.Error(t, err)
	_, ok := mgr.Countdown(sess.Token)
	assert.False(t, ok)
}

func TestSweepHonorsSubSecondDeadline(t *testing.T) {
	mgr, clock, _ := newTestManager(t)
	ctx := context.Background()

	var fired int
	mgr.OnExpire(func(token string, userID int) { fired++ })

	sess, _, err := mgr.CreateDemo(ctx, model.RoleStudent)
	require.NoError(t, err)

	// 500ms short of the deadline the countdown reads zero, but the
	// session is still live on both paths.
	clock.Advance(600*time.Second - 500*time.Millisecond)
	mgr.Sweep(ctx)
	assert.Equal(t, 0, fired)
	_, err = mgr.Get(ctx, sess.Token)
	require.NoError(t, err)

	clock.Advance(500 * time.Millisecond)
	mgr.Sweep(ctx)
	assert.Equal(t, 1, fired)
}

func TestLazyExpiryAtRequestBoundary(t *testing.T) {
	mgr, clock, _ := newTestManager(t)
	ctx := context.Background()

	var fired int
	mgr.OnExpire(func(token string, userID int) { fired++ })

	sess, _, err := mgr.CreateDemo(ctx, model.RoleStudent)
	require.NoError(t, err)

	// No sweep has run, but the deadline is past: the request boundary
	// must reject, never extend.
	clock.Advance(600 * time.Second)
	_, err = mgr.Get(ctx, sess.Token)
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, 1, fired)

	// A sweep afterwards must not fire a second transition.
	mgr.Sweep(ctx)
	assert.Equal(t, 1, fired)
}

func TestRegularSessionUnaffectedBySweep(t *testing.T) {
	mgr, clock, st := newTestManager(t)
	ctx := context.Background()

	u, err := st.CreateUser(ctx, model.User{Email: "a@b.com", Role: model.RoleStudent})
	require.NoError(t, err)
	sess, err := mgr.Create(ctx, u.ID)
	require.NoError(t, err)

	clock.Advance(30 * time.Minute)
	mgr.Sweep(ctx)

	got, err := mgr.Get(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.UserID)

	_, ok := mgr.Countdown(sess.Token)
	assert.False(t, ok)
}
