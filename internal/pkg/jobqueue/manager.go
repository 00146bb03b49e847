package jobqueue

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/CashFox/internal/pkg/env"
)

const (
	DefaultWorkerCount             = 3
	DefaultEntitlementRefreshEvery = 60 * time.Second
	DefaultReminderSweepEvery      = time.Hour
)

// Manager manages the global job queue and background tasks
type Manager struct {
	queue          *Queue
	depsMu         sync.RWMutex
	deps           *Dependencies
	refreshTicker  *time.Ticker
	reminderTicker *time.Ticker
	refreshEvery   time.Duration
	reminderEvery  time.Duration
	stopCh         chan struct{}
	wg             sync.WaitGroup
	mu             sync.Mutex
	running        bool
}

var (
	globalManager *Manager
	managerOnce   sync.Once
)

// GetManager returns the global job queue manager (singleton)
func GetManager() *Manager {
	managerOnce.Do(func() {
		globalManager = &Manager{
			queue:         NewQueue(env.GetInt("JOB_QUEUE_WORKERS", DefaultWorkerCount)),
			refreshEvery:  env.GetDuration("ENTITLEMENT_REFRESH_INTERVAL", DefaultEntitlementRefreshEvery),
			reminderEvery: env.GetDuration("BILL_REMINDER_INTERVAL", DefaultReminderSweepEvery),
			stopCh:        make(chan struct{}),
		}
	})
	return globalManager
}

// GetQueue returns the managed job queue
func (m *Manager) GetQueue() *Queue {
	return m.queue
}

// SetDependencies wires the workers. Must be called before Start.
func (m *Manager) SetDependencies(d *Dependencies) {
	m.depsMu.Lock()
	m.deps = d
	m.depsMu.Unlock()
	m.queue.SetDependencies(d)
}

// Start starts the job queue and background tasks
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	// Recreate stop channel for each start cycle so manager can be restarted safely.
	m.stopCh = make(chan struct{})
	m.running = true
	log.Info("[Scheduler] Starting job queue and background tasks")

	m.queue.Start()

	if m.refreshEvery > 0 {
		m.refreshTicker = time.NewTicker(m.refreshEvery)
		m.wg.Add(1)
		go m.entitlementRefreshWorker(m.stopCh)
	}

	if m.reminderEvery > 0 {
		m.reminderTicker = time.NewTicker(m.reminderEvery)
		m.wg.Add(1)
		go m.billReminderWorker(m.stopCh)
	}

	log.Info("[Scheduler] Started successfully")
}

// Stop stops the job queue and background tasks
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	log.Info("[Scheduler] Stopping job queue and background tasks...")

	if m.refreshTicker != nil {
		m.refreshTicker.Stop()
	}
	if m.reminderTicker != nil {
		m.reminderTicker.Stop()
	}

	// Signal workers to stop
	close(m.stopCh)
	m.stopCh = nil
	m.running = false

	// Wait for background workers to finish
	m.wg.Wait()

	m.queue.Stop()

	log.Info("[Scheduler] Stopped successfully")
}

// entitlementRefreshWorker re-resolves stale cached entitlements on every tick
func (m *Manager) entitlementRefreshWorker(stopCh chan struct{}) {
	defer m.wg.Done()
	log.Infof("[Scheduler] Started entitlement refresh worker (interval: %s)", m.refreshEvery)

	for {
		select {
		case <-stopCh:
			log.Info("[Scheduler] Entitlement refresh worker stopping")
			return
		case <-m.refreshTicker.C:
			if err := m.RunEntitlementRefreshOnce(context.Background()); err != nil {
				log.Errorf("[Scheduler] Entitlement refresh error: %v", err)
			}
		}
	}
}

// billReminderWorker enqueues reminder jobs for bills coming due
func (m *Manager) billReminderWorker(stopCh chan struct{}) {
	defer m.wg.Done()
	log.Infof("[Scheduler] Started bill reminder worker (interval: %s)", m.reminderEvery)

	// sweep once on startup
	if err := m.RunBillReminderSweepOnce(context.Background()); err != nil {
		log.Errorf("[Scheduler] Bill reminder sweep error: %v", err)
	}

	for {
		select {
		case <-stopCh:
			log.Info("[Scheduler] Bill reminder worker stopping")
			return
		case <-m.reminderTicker.C:
			if err := m.RunBillReminderSweepOnce(context.Background()); err != nil {
				log.Errorf("[Scheduler] Bill reminder sweep error: %v", err)
			}
		}
	}
}

// RunEntitlementRefreshOnce exposes a manual trigger for one refresh pass (admin use).
func (m *Manager) RunEntitlementRefreshOnce(ctx context.Context) error {
	n, err := RefreshEntitlements(ctx, m.dependencies(), time.Now(), m.refreshEvery)
	if n > 0 {
		log.Infof("[Scheduler] Refreshed %d entitlements", n)
	}
	return err
}

// RunBillReminderSweepOnce exposes a manual trigger for one reminder sweep (admin use).
func (m *Manager) RunBillReminderSweepOnce(ctx context.Context) error {
	n, err := SweepBillReminders(ctx, m.dependencies(), time.Now(), func(p BillReminderJobPayload) error {
		_, err := m.queue.EnqueueJob(JobTypeBillReminder, p.ToMap())
		return err
	})
	if n > 0 {
		log.Infof("[Scheduler] Enqueued %d bill reminders", n)
	}
	return err
}

// IsRunning returns whether the manager is currently running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Manager) dependencies() *Dependencies {
	m.depsMu.RLock()
	defer m.depsMu.RUnlock()
	return m.deps
}
