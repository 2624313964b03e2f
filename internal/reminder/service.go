package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"morningbot/internal/shared"
)

// ErrOutsideWindow is returned by Set when the requested time falls outside
// the configured morning window.
var ErrOutsideWindow = errors.New("reminder: time outside morning window")

// Store is the durable table of schedule entries. Append performs no
// uniqueness check; uniqueness per user is the service's invariant, enforced
// by always removing before appending. RemoveByUser must be all-or-nothing
// with respect to a crash. Implementations skip unparsable rows in ListAll
// (logging them) rather than failing the whole load.
type Store interface {
	Append(ctx context.Context, e ScheduleEntry) error
	RemoveByUser(ctx context.Context, userID int64) (bool, error)
	ListAll(ctx context.Context) ([]ScheduleEntry, error)
}

// Sink is the external collaborator that transmits reminder text to a user.
type Sink interface {
	Deliver(ctx context.Context, userID int64, text string) error
}

// Window is the optional morning-hours policy: times before Floor or after
// Cutoff are rejected. Both bounds are themselves allowed.
type Window struct {
	Enabled bool
	Floor   TriggerTime
	Cutoff  TriggerTime
}

// Config configures the reminder service. It replaces the ambient globals of
// older revisions: timezone, policy bounds and randomness are all explicit.
type Config struct {
	Location        *time.Location
	Window          Window
	DefaultHour     int           // hour used by SetRandom; defaults to 7
	DeliveryTimeout time.Duration // per-fire delivery budget; defaults to 30s
	Rand            *rand.Rand    // used by SetRandom; time-seeded when nil
}

// Service is the reminder façade: it sequences store and registry mutations
// per user, owns the scheduler and absorbs delivery failures inside the fire
// loop. Store and registry are always mutated in the same order
// (cancel/remove before append/register), so a crash mid-sequence leaves at
// worst zero schedules for a user, never two.
type Service struct {
	cfg       Config
	log       *slog.Logger
	store     Store
	sink      Sink
	composer  Composer
	registry  *Registry
	scheduler *Scheduler

	mu    sync.Mutex
	rnd   *rand.Rand
	users map[int64]*sync.Mutex
}

// New creates the service. The scheduler is created but not started; call
// Start after RestoreAll.
func New(cfg Config, st Store, sink Sink, composer Composer, log *slog.Logger) (*Service, error) {
	if cfg.Location == nil {
		return nil, shared.MarkKind(fmt.Errorf("location is required"), shared.KindValidation)
	}
	if st == nil || sink == nil {
		return nil, shared.MarkKind(fmt.Errorf("store and sink are required"), shared.KindValidation)
	}
	if composer == nil {
		composer = NewGreetingComposer()
	}
	if log == nil {
		log = slog.Default()
	}
	if cfg.DefaultHour <= 0 {
		cfg.DefaultHour = 7
	}
	if cfg.DeliveryTimeout <= 0 {
		cfg.DeliveryTimeout = 30 * time.Second
	}
	rnd := cfg.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{
		cfg:       cfg,
		log:       log,
		store:     st,
		sink:      sink,
		composer:  composer,
		registry:  NewRegistry(),
		scheduler: NewScheduler(cfg.Location, log),
		rnd:       rnd,
		users:     make(map[int64]*sync.Mutex),
	}, nil
}

// Start launches the scheduler dispatcher.
func (s *Service) Start() { s.scheduler.Start() }

// StopContext stops the scheduler, bounded by ctx.
func (s *Service) StopContext(ctx context.Context) error { return s.scheduler.StopContext(ctx) }

// Set validates the requested time and replaces-or-creates the user's daily
// schedule. It reports whether a prior schedule was replaced.
func (s *Service) Set(ctx context.Context, userID int64, displayName string, hour, minute int) (bool, error) {
	at, err := NewTriggerTime(hour, minute, 0)
	if err != nil {
		return false, err
	}
	if err := s.checkWindow(at); err != nil {
		return false, err
	}
	return s.setAt(ctx, userID, displayName, at)
}

// SetRandom schedules the default morning hour with a random minute, the
// "surprise me" variant. It returns the chosen time alongside the replace flag.
func (s *Service) SetRandom(ctx context.Context, userID int64, displayName string) (bool, TriggerTime, error) {
	s.mu.Lock()
	minute := s.rnd.Intn(60)
	s.mu.Unlock()

	at := TriggerTime{Hour: s.cfg.DefaultHour, Minute: minute}
	replaced, err := s.setAt(ctx, userID, displayName, at)
	return replaced, at, err
}

// Unset cancels the user's trigger and deletes the persisted row. It reports
// whether a schedule existed in either place.
func (s *Service) Unset(ctx context.Context, userID int64) (bool, error) {
	unlock := s.lockUser(userID)
	defer unlock()

	cancelled := s.cancelLocked(userID)

	removed, err := s.store.RemoveByUser(ctx, userID)
	if err != nil {
		// The trigger is already gone; the row survives. Safe state per the
		// ordering invariant, but the caller must know the write failed.
		return cancelled, shared.MarkKind(err, shared.KindStorage)
	}
	return cancelled || removed, nil
}

// RestoreAll rebuilds the registry from the store; it is called once at
// process start, before commands are accepted. Rows the store skipped as
// corrupt are already gone from the listing; duplicate user rows keep the
// first occurrence only. Returns the number of restored triggers.
func (s *Service) RestoreAll(ctx context.Context) (int, error) {
	entries, err := s.store.ListAll(ctx)
	if err != nil {
		return 0, shared.MarkKind(err, shared.KindStorage)
	}

	restored := 0
	for _, e := range entries {
		unlock := s.lockUser(e.UserID)
		if _, exists := s.registry.Get(e.UserID); exists {
			s.log.Warn("duplicate schedule row skipped on restore", "user_id", e.UserID)
			unlock()
			continue
		}
		if err := s.activate(e); err != nil {
			s.log.Error("failed to restore schedule", "user_id", e.UserID, "at", e.At.String(), "error", err)
			unlock()
			continue
		}
		restored++
		unlock()
	}
	s.log.Info("schedules restored", "count", restored)
	return restored, nil
}

// NextFireFor returns the next fire instant for a user's live trigger, if
// any. Before the scheduler starts, cron has not computed entry times yet,
// so the instant is derived from the trigger time directly.
func (s *Service) NextFireFor(userID int64) (time.Time, bool) {
	t, ok := s.registry.Get(userID)
	if !ok {
		return time.Time{}, false
	}
	if next := s.scheduler.NextRun(t.entryID); !next.IsZero() {
		return next, true
	}
	return NextFire(time.Now().In(s.cfg.Location), t.at, s.cfg.Location), true
}

// Active returns the number of live triggers.
func (s *Service) Active() int { return s.registry.Len() }

func (s *Service) setAt(ctx context.Context, userID int64, displayName string, at TriggerTime) (bool, error) {
	unlock := s.lockUser(userID)
	defer unlock()

	// Cancel/remove before append/register: never two live schedules for one
	// user, at worst zero.
	replaced := s.cancelLocked(userID)
	if replaced {
		if _, err := s.store.RemoveByUser(ctx, userID); err != nil {
			return false, shared.MarkKind(err, shared.KindStorage)
		}
	}

	entry := ScheduleEntry{UserID: userID, DisplayName: displayName, At: at}
	if err := s.store.Append(ctx, entry); err != nil {
		return replaced, shared.MarkKind(err, shared.KindStorage)
	}

	if err := s.activate(entry); err != nil {
		// Keep store and registry consistent: drop the row we just wrote.
		if _, rmErr := s.store.RemoveByUser(ctx, userID); rmErr != nil {
			s.log.Error("failed to roll back schedule row", "user_id", userID, "error", rmErr)
		}
		return replaced, err
	}
	return replaced, nil
}

// activate builds the trigger, starts its schedule loop and registers it.
// Callers hold the user lock.
func (s *Service) activate(e ScheduleEntry) error {
	trigger := NewTrigger(e)
	id, err := s.scheduler.Schedule(e.At, func() { s.fire(trigger) })
	if err != nil {
		return err
	}
	trigger.entryID = id
	if err := s.registry.Register(trigger); err != nil {
		s.scheduler.Remove(id)
		return err
	}
	return nil
}

// fire is one wake of a trigger's daily loop. Delivery failures are absorbed:
// a transient failure must not permanently silence a user's reminders, so the
// loop always keeps its next-day schedule.
func (s *Service) fire(t *Trigger) {
	if t.Cancelled() {
		return
	}

	text := s.composer.Compose(t.displayName)
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.DeliveryTimeout)
	defer cancel()

	if err := s.sink.Deliver(ctx, t.userID, text); err != nil {
		s.log.Error("delivery failed", "user_id", t.userID, "error", shared.MarkKind(err, shared.KindDelivery))
		return
	}
	s.log.Debug("reminder delivered", "user_id", t.userID)
}

// cancelLocked cancels the user's trigger and detaches its schedule loop.
// Callers hold the user lock.
func (s *Service) cancelLocked(userID int64) bool {
	t, ok := s.registry.Cancel(userID)
	if !ok {
		return false
	}
	s.scheduler.Remove(t.entryID)
	return true
}

func (s *Service) checkWindow(at TriggerTime) error {
	w := s.cfg.Window
	if !w.Enabled {
		return nil
	}
	if at.DaySeconds() < w.Floor.DaySeconds() || at.DaySeconds() > w.Cutoff.DaySeconds() {
		return shared.MarkKind(
			fmt.Errorf("%w: %s not within %s-%s", ErrOutsideWindow, at, w.Floor, w.Cutoff),
			shared.KindValidation,
		)
	}
	return nil
}

// lockUser serializes set/unset/restore for a single user; operations for
// different users proceed independently.
func (s *Service) lockUser(userID int64) func() {
	s.mu.Lock()
	m, ok := s.users[userID]
	if !ok {
		m = &sync.Mutex{}
		s.users[userID] = m
	}
	s.mu.Unlock()
	m.Lock()
	return m.Unlock
}
