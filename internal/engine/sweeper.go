package engine

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okeefe/circleback/internal/advisor"
	"github.com/okeefe/circleback/internal/config"
	"github.com/okeefe/circleback/internal/store"
)

// settleDelay is how long the engine waits after Start before the first
// sweep, so startup traffic settles before advisory calls begin.
const settleDelay = 10 * time.Second

// advisoryTimeout bounds one advisory call within a sweep.
const advisoryTimeout = 90 * time.Second

// SweepStats are the ephemeral statistics for one sweep, recomputed per run.
type SweepStats struct {
	Analyzed     int       `json:"analyzed"`
	RemindersSet int       `json:"reminders_set"`
	Skipped      int       `json:"skipped"`
	Errors       int       `json:"errors"`
	Timestamp    time.Time `json:"timestamp"`
}

// Engine drives the recurring follow-up sweep over all tracked contacts.
// One long-lived goroutine owns the schedule; everything exposed externally
// is a read-only snapshot.
type Engine struct {
	db      *store.DB
	advisor advisor.Client
	cfg     config.EngineConfig

	processing atomic.Bool // sweep re-entrancy guard
	stopped    atomic.Bool // set by Stop; in-flight results are discarded
	stopCh     chan struct{}
	stopOnce   sync.Once
	events     chan Event

	mu        sync.Mutex
	lastRun   time.Time
	lastStats *SweepStats
}

// New creates a follow-up engine. The advisory client may be nil, in which
// case every eligible contact counts as an error until one is configured.
func New(db *store.DB, client advisor.Client, cfg config.EngineConfig) *Engine {
	return &Engine{
		db:      db,
		advisor: client,
		cfg:     cfg,
		stopCh:  make(chan struct{}),
		events:  make(chan Event, eventBuffer),
	}
}

// Start launches the sweep schedule: an initial settling delay, then a sweep
// at every check interval. No-op when the engine is disabled by config.
func (e *Engine) Start() {
	if !e.cfg.Enabled {
		log.Printf("sweep: engine disabled by config")
		return
	}

	interval := e.cfg.SweepInterval()
	log.Printf("sweep: scheduling every %s", interval)

	go func() {
		select {
		case <-time.After(settleDelay):
		case <-e.stopCh:
			return
		}

		e.Sweep(false)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				e.Sweep(false)
			case <-e.stopCh:
				return
			}
		}
	}()
}

// Stop cancels future scheduling. The current item is allowed to finish, but
// its result is discarded before persistence.
func (e *Engine) Stop() {
	e.stopped.Store(true)
	e.stopOnce.Do(func() { close(e.stopCh) })
}

// Sweep runs one pass over all contacts. Re-entry while a sweep is in flight
// (including a manual force check) is a no-op and returns nil stats.
func (e *Engine) Sweep(forced bool) *SweepStats {
	if !e.processing.CompareAndSwap(false, true) {
		log.Printf("sweep: already in flight, skipping")
		return nil
	}
	defer e.processing.Store(false)

	stats, err := e.runSweep(forced)
	if err != nil {
		// Policy or store unavailable: the whole cycle is skipped rather
		// than running with undefined policy.
		log.Printf("sweep: cycle skipped: %v", err)
		return nil
	}

	e.mu.Lock()
	e.lastRun = stats.Timestamp
	e.lastStats = stats
	e.mu.Unlock()

	e.publish(Event{Kind: EventSweepCompleted, Stats: stats})
	return stats
}

func (e *Engine) runSweep(forced bool) (*SweepStats, error) {
	started := time.Now()

	// Policy, rules, and contacts are re-read fresh every sweep so user
	// actions taken between sweeps are never stale.
	policy, err := e.db.GetPolicy()
	if err != nil {
		return nil, fmt.Errorf("read policy: %w", err)
	}
	rules, err := e.db.ListRules()
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	contacts, err := e.db.ListContacts()
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}

	// Host config can force auto-set on for every policy.
	policy.AutoSetReminders = policy.AutoSetReminders || e.cfg.AutoSetReminders

	stats := &SweepStats{Timestamp: started}

	if !policy.AutoRemindersEnabled {
		stats.Skipped = len(contacts)
		log.Printf("sweep: auto reminders disabled by policy, %d contacts skipped", len(contacts))
		e.finishRun(stats, started, forced)
		return stats, nil
	}

	// Contacts are processed sequentially: one outstanding advisory call at
	// a time, so a slow provider never fans out into a burst.
	for i := range contacts {
		c := &contacts[i]
		now := time.Now()

		if ShouldSkip(c, now) {
			stats.Skipped++
			if e.cfg.Debug {
				log.Printf("sweep: skipping %s (guard)", c.Name)
			}
			continue
		}

		if e.stopped.Load() {
			log.Printf("sweep: engine stopped, abandoning remaining contacts")
			break
		}

		if err := e.analyzeContact(c, rules, policy, now, stats); err != nil {
			// One contact's failure never aborts the rest of the sweep.
			log.Printf("sweep: %s: %v", c.Name, err)
			stats.Errors++
		}
	}

	e.finishRun(stats, started, forced)
	return stats, nil
}

// analyzeContact runs the per-contact pipeline: engagement, rules, advisory
// call, reconciliation, persistence.
func (e *Engine) analyzeContact(c *store.Contact, rules []store.TriggerRule, policy store.Policy, now time.Time, stats *SweepStats) error {
	if e.advisor == nil {
		return fmt.Errorf("no advisory client configured")
	}

	engagement := ComputeEngagement(c, now)
	fired := EvaluateRules(c, rules, now)

	ctx, cancel := context.WithTimeout(context.Background(), advisoryTimeout)
	defer cancel()

	// An advisory failure is isolated to this contact and leaves
	// advice_generated unstamped, so the cooldown never starts and the
	// contact is retried next sweep.
	rec, err := e.advisor.Recommend(ctx, buildAdvisoryContext(c, engagement, fired, now))
	if err != nil {
		return fmt.Errorf("advisory: %w", err)
	}

	// Results that arrive after Stop are discarded, not persisted.
	if e.stopped.Load() {
		return nil
	}

	stats.Analyzed++

	update := Reconcile(rec, policy, c, now)
	if update == nil {
		if e.cfg.Debug {
			log.Printf("sweep: no update for %s", c.Name)
		}
		return nil
	}

	if _, err := e.db.UpdateContact(c.ID, *update); err != nil {
		// Covers contacts deleted mid-sweep (ErrNotFound) and write
		// failures alike: non-fatal, counted, next contact proceeds.
		return fmt.Errorf("persist: %w", err)
	}

	if update.ReminderDate != nil {
		stats.RemindersSet++
		log.Printf("sweep: reminder set for %s on %s (confidence %d)", c.Name, *update.ReminderDate, rec.Confidence)
	} else if e.cfg.Debug {
		log.Printf("sweep: suggestion stored for %s (confidence %d)", c.Name, rec.Confidence)
	}
	return nil
}

func (e *Engine) finishRun(stats *SweepStats, started time.Time, forced bool) {
	finished := time.Now()
	run := &store.SweepRun{
		StartedAt:    started.UnixMilli(),
		FinishedAt:   finished.UnixMilli(),
		Analyzed:     stats.Analyzed,
		RemindersSet: stats.RemindersSet,
		Skipped:      stats.Skipped,
		Errors:       stats.Errors,
		Forced:       forced,
	}
	if err := e.db.RecordSweepRun(run); err != nil {
		log.Printf("sweep: record run: %v", err)
	}
	log.Printf("sweep: done in %s (analyzed %d, reminders %d, skipped %d, errors %d)",
		finished.Sub(started).Round(time.Millisecond),
		stats.Analyzed, stats.RemindersSet, stats.Skipped, stats.Errors)
}

// buildAdvisoryContext flattens a snapshot, its engagement, and the fired
// rules into the advisory request.
func buildAdvisoryContext(c *store.Contact, engagement Engagement, fired []TriggerResult, now time.Time) *advisor.Context {
	days := -1
	if c.LastContacted != nil {
		days = int(daysSince(*c.LastContacted, now))
	}

	milestone := ""
	if c.NextMilestone != nil {
		milestone = fmt.Sprintf("%s on %s", c.NextMilestone.Event, c.NextMilestone.Date)
	}

	var ruleLines []string
	for _, f := range fired {
		ruleLines = append(ruleLines, fmt.Sprintf("%s: %s [%s]", f.Rule.Name, f.Reason, f.Rule.Action))
	}

	return &advisor.Context{
		Name:              c.Name,
		RelationshipType:  c.RelationshipType,
		ContactGoal:       c.ContactGoal,
		OrbitLevel:        c.OrbitLevel,
		HealthScore:       c.HealthScore,
		SentimentScore:    c.SentimentScore,
		DaysSinceContact:  days,
		EngagementScore:   engagement.Score,
		EngagementLevel:   engagement.Level,
		UpcomingMilestone: milestone,
		TriggeredRules:    ruleLines,
	}
}

// Status is a read-only snapshot of engine state for the API.
type Status struct {
	Enabled    bool        `json:"enabled"`
	Processing bool        `json:"processing"`
	Interval   string      `json:"interval"`
	LastRun    *time.Time  `json:"last_run,omitempty"`
	LastStats  *SweepStats `json:"last_stats,omitempty"`
}

// Status reports current engine state.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := Status{
		Enabled:    e.cfg.Enabled && !e.stopped.Load(),
		Processing: e.processing.Load(),
		Interval:   e.cfg.SweepInterval().String(),
		LastStats:  e.lastStats,
	}
	if !e.lastRun.IsZero() {
		t := e.lastRun
		s.LastRun = &t
	}
	return s
}
