// Package monitor tracks the health of the storage dependencies. The
// reconciler consults it before draining the retry buffer: replaying
// buffered writes into a database that is still down only burns retries.
package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/taskline/backend/internal/infrastructure/buffer"
)

// Status is a point-in-time snapshot of dependency health.
type Status struct {
	Postgres      bool      `json:"postgres"`
	Redis         bool      `json:"redis"`
	RetryStore    bool      `json:"retry_store"`
	PendingWrites int       `json:"pending_writes"`
	CheckedAt     time.Time `json:"checked_at"`
}

// Online means primary storage is usable. Redis degrading only costs
// caches and sessions, so it does not take the service offline.
func (s Status) Online() bool {
	return s.Postgres
}

type Monitor struct {
	pg      *pgxpool.Pool
	redis   *redislib.Client
	retries *buffer.Store

	interval time.Duration
	logger   *zap.Logger

	mu     sync.RWMutex
	status Status

	stopCh chan struct{}
}

func New(pg *pgxpool.Pool, redis *redislib.Client, retries *buffer.Store, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		pg:       pg,
		redis:    redis,
		retries:  retries,
		interval: interval,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

func (m *Monitor) Start() {
	go m.loop()
}

func (m *Monitor) Stop() {
	close(m.stopCh)
}

func (m *Monitor) IsOnline() bool {
	return m.GetStatus().Online()
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.refresh()
	for {
		select {
		case <-ticker.C:
			m.refresh()
		case <-m.stopCh:
			return
		}
	}
}

func (m *Monitor) refresh() {
	storeOK, pending := m.checkRetryStore()
	next := Status{
		Postgres:      m.checkPostgres(),
		Redis:         m.checkRedis(),
		RetryStore:    storeOK,
		PendingWrites: pending,
		CheckedAt:     time.Now(),
	}

	m.mu.Lock()
	prev := m.status
	m.status = next
	m.mu.Unlock()

	// Transitions are worth a log line; steady state is not.
	if prev.Online() != next.Online() && !prev.CheckedAt.IsZero() {
		if next.Online() {
			m.logger.Info("storage back online", zap.Int("pending_writes", pending))
		} else {
			m.logger.Warn("storage offline, instance writes will buffer")
		}
	}
}

func (m *Monitor) checkPostgres() bool {
	if m.pg == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return m.pg.Ping(ctx) == nil
}

func (m *Monitor) checkRedis() bool {
	if m.redis == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return m.redis.Ping(ctx).Err() == nil
}

func (m *Monitor) checkRetryStore() (bool, int) {
	if m.retries == nil {
		return false, 0
	}
	pending, err := m.retries.Size()
	if err != nil {
		m.logger.Warn("retry store check failed", zap.Error(err))
		return false, pending
	}
	return true, pending
}
