package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eduhub/eduhub-backend/internal/cache"
	"github.com/eduhub/eduhub-backend/internal/metrics"
	"github.com/eduhub/eduhub-backend/internal/model"
	"github.com/eduhub/eduhub-backend/internal/store"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
	ErrInvalidRole     = errors.New("invalid role")
)

// Session is the identity attached to a request. It is persisted in
// the cache under its token with a TTL matching its lifetime.
type Session struct {
	Token     string    `json:"token"`
	UserID    int       `json:"userId"`
	IsDemo    bool      `json:"isDemo"`
	Deadline  time.Time `json:"deadline,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Countdown is the observable state of a demo session's timer.
// Expiring is a one-way latch: once true it stays true for the life of
// the session.
type Countdown struct {
	TimeLeft int  `json:"timeLeft"`
	Expiring bool `json:"isExpiring"`
}

// demoState is the authoritative countdown record for one demo
// session. The latch and the expired marker are stored, never derived,
// so re-evaluation cannot flip them back.
type demoState struct {
	token    string
	userID   int
	deadline time.Time
	expiring bool
	expired  bool
}

type Options struct {
	TTL         time.Duration // regular session lifetime
	DemoTTL     time.Duration // demo session lifetime (the countdown start)
	DemoWarning time.Duration // remaining time at which Expiring latches
	// DemoPasswordHash is the pre-hashed placeholder password given to
	// provisioned demo users.
	DemoPasswordHash string
	Clock            Clock
}

// Manager owns the session lifecycle: token issue on login/register,
// demo provisioning with a fixed deadline, lazy expiry at the request
// boundary, and the swept 1-second countdown for demo sessions.
type Manager struct {
	storage store.Storage
	cache   *cache.Cache
	logger  *zap.SugaredLogger
	metrics *metrics.Metrics
	clock   Clock

	ttl         time.Duration
	demoTTL     time.Duration
	demoWarning time.Duration
	demoHash    string

	mu       sync.Mutex
	demos    map[string]*demoState
	onExpire func(token string, userID int)
}

func NewManager(storage store.Storage, c *cache.Cache, logger *zap.SugaredLogger, m *metrics.Metrics, opts Options) *Manager {
	clock := opts.Clock
	if clock == nil {
		clock = SystemClock()
	}
	return &Manager{
		storage:     storage,
		cache:       c,
		logger:      logger,
		metrics:     m,
		clock:       clock,
		ttl:         opts.TTL,
		demoTTL:     opts.DemoTTL,
		demoWarning: opts.DemoWarning,
		demoHash:    opts.DemoPasswordHash,
		demos:       make(map[string]*demoState),
	}
}

// OnExpire registers the callback fired exactly once when a demo
// session crosses its deadline.
func (m *Manager) OnExpire(fn func(token string, userID int)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onExpire = fn
}

// Create opens a regular session for an already-authenticated user.
func (m *Manager) Create(ctx context.Context, userID int) (*Session, error) {
	sess := &Session{
		Token:     uuid.NewString(),
		UserID:    userID,
		CreatedAt: m.clock.Now(),
	}
	if err := m.cache.Set(ctx, cache.KeySession+sess.Token, sess, m.ttl); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}
	if m.metrics != nil {
		m.metrics.SessionOpened(ctx, false)
	}
	return sess, nil
}

// CreateDemo provisions a throwaway user for the requested role and
// binds it to a new demo session with a fixed deadline. If the store
// write fails no session is bound.
func (m *Manager) CreateDemo(ctx context.Context, role string) (*Session, *model.User, error) {
	if !model.ValidRole(role) {
		return nil, nil, ErrInvalidRole
	}

	now := m.clock.Now()
	demo := model.User{
		// The millisecond suffix keeps generated emails clear of the
		// uniqueness check.
		Email:    fmt.Sprintf("demo_%s_%d@eduhub.com", role, now.UnixMilli()),
		Password: m.demoHash,
		FullName: "Demo " + titleCase(role),
		Phone:    "555-555-5555",
		Role:     role,
		Address:  "123 Demo St",
	}
	switch role {
	case model.RoleStudent:
		demo.SchoolName = "Demo School"
		demo.Age = 16
		demo.Grade = "10th"
	case model.RoleTeacher:
		demo.SchoolName = "Demo School"
		demo.TeachingGrades = "9th, 10th, 11th"
	case model.RoleSchool:
		demo.CEOName = "Demo Principal"
	}

	user, err := m.storage.CreateUser(ctx, demo)
	if err != nil {
		return nil, nil, fmt.Errorf("provision demo user: %w", err)
	}

	sess := &Session{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		IsDemo:    true,
		Deadline:  now.Add(m.demoTTL),
		CreatedAt: now,
	}
	if err := m.cache.Set(ctx, cache.KeySession+sess.Token, sess, m.demoTTL); err != nil {
		return nil, nil, fmt.Errorf("persist demo session: %w", err)
	}

	m.mu.Lock()
	m.demos[sess.Token] = &demoState{
		token:    sess.Token,
		userID:   user.ID,
		deadline: sess.Deadline,
	}
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.SessionOpened(ctx, true)
	}
	m.logger.Infow("Demo session started",
		"user_id", user.ID,
		"role", role,
		"deadline", sess.Deadline,
	)
	return sess, user, nil
}

// Get resolves a token to its session. Demo expiry is also enforced
// here, lazily, so a request arriving between reaper ticks can never
// extend access past the deadline.
func (m *Manager) Get(ctx context.Context, token string) (*Session, error) {
	var sess Session
	if err := m.cache.Get(ctx, cache.KeySession+token, &sess); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if sess.IsDemo && !m.clock.Now().Before(sess.Deadline) {
		m.expire(ctx, token)
		return nil, ErrSessionExpired
	}
	return &sess, nil
}

// Delete revokes a session (logout).
func (m *Manager) Delete(ctx context.Context, token string) error {
	if err := m.cache.Delete(ctx, cache.KeySession+token); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.demos, token)
	m.mu.Unlock()
	if m.metrics != nil {
		m.metrics.SessionClosed(ctx, false)
	}
	return nil
}

// Countdown reports the demo timer for a token. The second return is
// false when the token is not a live demo session.
func (m *Manager) Countdown(token string) (Countdown, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.demos[token]
	if !ok {
		return Countdown{}, false
	}
	return m.countdownLocked(st), true
}

func (m *Manager) countdownLocked(st *demoState) Countdown {
	left := st.deadline.Sub(m.clock.Now())
	if left < 0 {
		left = 0
	}
	if left <= m.demoWarning {
		st.expiring = true
	}
	return Countdown{
		TimeLeft: int(left / time.Second),
		Expiring: st.expiring,
	}
}

// Sweep recomputes every demo countdown and fires the expiry
// transition for sessions that crossed their deadline. The transition
// is edge-triggered: each session expires exactly once. Called by the
// reaper job every second.
func (m *Manager) Sweep(ctx context.Context) {
	m.mu.Lock()
	now := m.clock.Now()
	var fired []*demoState
	for token, st := range m.demos {
		m.countdownLocked(st)
		// Same boundary as Get: the deadline instant itself, not the
		// truncated second.
		if !now.Before(st.deadline) && !st.expired {
			st.expired = true
			fired = append(fired, st)
			delete(m.demos, token)
		}
	}
	cb := m.onExpire
	m.mu.Unlock()

	for _, st := range fired {
		if err := m.cache.Delete(ctx, cache.KeySession+st.token); err != nil {
			m.logger.Errorw("Failed to revoke expired demo session", "user_id", st.userID, "error", err)
		}
		if m.metrics != nil {
			m.metrics.SessionClosed(ctx, true)
		}
		m.logger.Infow("Demo session expired", "user_id", st.userID)
		if cb != nil {
			cb(st.token, st.userID)
		}
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// expire handles the lazy path: the request boundary found a demo
// session past its deadline before the reaper did.
func (m *Manager) expire(ctx context.Context, token string) {
	m.mu.Lock()
	st, ok := m.demos[token]
	if ok && !st.expired {
		st.expired = true
		delete(m.demos, token)
	} else {
		ok = false
	}
	cb := m.onExpire
	m.mu.Unlock()

	_ = m.cache.Delete(ctx, cache.KeySession+token)
	if !ok {
		return
	}
	if m.metrics != nil {
		m.metrics.SessionClosed(ctx, true)
	}
	m.logger.Infow("Demo session expired", "user_id", st.userID)
	if cb != nil {
		cb(st.token, st.userID)
	}
}
