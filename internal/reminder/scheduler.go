package reminder

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Neamul01/breeze-time-server/internal/i18n"
	"github.com/Neamul01/breeze-time-server/internal/storage"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

var (
	ErrNoEventID      = errors.New("event has no id")
	ErrNoStartTime    = errors.New("event has no start time")
	ErrFireTimePassed = errors.New("reminder fire time has passed")
	ErrStopped        = errors.New("reminder scheduler is stopped")
)

const defaultFireTimeout = 10 * time.Second

type Config struct {
	Lead        time.Duration
	FireTimeout time.Duration
	Locale      string
	Dedup       string
	MarkerTTL   time.Duration
	WarmUp      bool
}

// Runner runs jobs on schedules. *cron.Cron satisfies it.
type Runner interface {
	Schedule(schedule cron.Schedule, job cron.Job) cron.EntryID
	Remove(id cron.EntryID)
	Start()
	Stop() context.Context
}

type EventSource interface {
	GetEvent(ctx context.Context, id string) (storage.Event, error)
}

type NotificationSink interface {
	AddNotification(ctx context.Context, n *storage.Notification) error
}

type Translator interface {
	T(locale, key string, data map[string]any) string
}

// Publisher receives every notification the scheduler stores.
type Publisher interface {
	Publish(ctx context.Context, n storage.Notification, e storage.Event) error
}

type Option func(s *Scheduler)

func WithRunner(r Runner) Option {
	return func(s *Scheduler) { s.runner = r }
}

func WithMarker(m Marker) Option {
	return func(s *Scheduler) { s.marker = m }
}

func WithTranslator(t Translator) Option {
	return func(s *Scheduler) { s.translator = t }
}

func WithPublishers(p ...Publisher) Option {
	return func(s *Scheduler) { s.publishers = append(s.publishers, p...) }
}

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// Scheduler turns listed events into one-shot reminders that fire Lead
// before each event starts.
type Scheduler struct {
	lead        time.Duration
	fireTimeout time.Duration
	locale      string

	runner        Runner
	events        EventSource
	notifications NotificationSink
	marker        Marker
	translator    Translator
	publishers    []Publisher
	now           func() time.Time

	mu      sync.Mutex
	pending map[string]Registration
	ctx     context.Context
	stopped bool
}

func New(config Config, events EventSource, notifications NotificationSink, opts ...Option) *Scheduler {
	s := &Scheduler{
		lead:          config.Lead,
		fireTimeout:   config.FireTimeout,
		locale:        config.Locale,
		events:        events,
		notifications: notifications,
		now:           time.Now,
		pending:       make(map[string]Registration),
		ctx:           context.Background(),
	}
	if s.lead <= 0 {
		s.lead = DefaultLead
	}
	if s.fireTimeout <= 0 {
		s.fireTimeout = defaultFireTimeout
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.runner == nil {
		logger := cron.PrintfLogger(log.StandardLogger())
		s.runner = cron.New(cron.WithLogger(logger), cron.WithChain(cron.Recover(logger)))
	}
	if s.marker == nil {
		ttl := config.MarkerTTL
		if ttl <= 0 {
			ttl = DefaultMarkerTTL
		}
		s.marker = NewMemoryMarker(ttl)
	}
	if s.translator == nil {
		s.translator = i18n.NewTranslator(s.locale)
	}
	return s
}

func (s *Scheduler) Lead() time.Duration {
	return s.lead
}

// Start runs the timer service. Reminders fire with ctx as their parent context.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.stopped = false
	s.mu.Unlock()

	s.runner.Start()
	log.Infof("reminder scheduler started, lead %s", s.lead)
}

// Stop stops the timer service and waits for running reminders to finish.
// Pending registrations are dropped.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	for id, reg := range s.pending {
		s.runner.Remove(reg.entry)
		delete(s.pending, id)
	}
	s.mu.Unlock()

	<-s.runner.Stop().Done()
	log.Info("reminder scheduler stopped")
}

// Sync registers reminders for the listed events. Failures are logged and
// never reach the caller.
func (s *Scheduler) Sync(events []storage.Event) {
	registered := 0
	for _, e := range events {
		err := s.Register(e)
		switch {
		case err == nil:
			registered++
		case errors.Is(err, ErrNoStartTime), errors.Is(err, ErrFireTimePassed):
			log.WithField("event", e.ID).Debugf("no reminder: %v", err)
		default:
			log.WithField("event", e.ID).Warnf("failed to register reminder: %v", err)
		}
	}
	log.Debugf("reminders synced: %d listed, %d registered", len(events), registered)
}

// Register schedules the reminder of e. A registration with the same fire
// time is kept; one with a different fire time is replaced.
func (s *Scheduler) Register(e storage.Event) error {
	if e.ID == "" {
		return ErrNoEventID
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return ErrStopped
	}

	prev, scheduled := s.pending[e.ID]
	if !e.HasStartTime() {
		if scheduled {
			s.drop(prev)
		}
		return ErrNoStartTime
	}

	fireAt := FireTime(e.DateTime, s.lead)
	if !fireAt.After(s.now()) {
		if scheduled {
			s.drop(prev)
		}
		return ErrFireTimePassed
	}
	if scheduled {
		if prev.FireAt.Equal(fireAt) {
			return nil
		}
		s.drop(prev)
	}

	reg := Registration{EventID: e.ID, FireAt: fireAt}
	reg.entry = s.runner.Schedule(onceSchedule{at: fireAt}, cron.FuncJob(func() { s.fire(reg) }))
	s.pending[e.ID] = reg
	log.WithField("event", e.ID).Debugf("reminder registered at %s", fireAt.Format(time.RFC3339))
	return nil
}

// Reschedule refreshes the reminder of an event that already has one.
func (s *Scheduler) Reschedule(e storage.Event) error {
	s.mu.Lock()
	_, scheduled := s.pending[e.ID]
	s.mu.Unlock()
	if !scheduled {
		return nil
	}
	return s.Register(e)
}

// Cancel drops the pending reminder of an event, if any.
func (s *Scheduler) Cancel(eventID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if reg, ok := s.pending[eventID]; ok {
		s.drop(reg)
	}
}

func (s *Scheduler) Pending() []Registration {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Registration, 0, len(s.pending))
	for _, reg := range s.pending {
		out = append(out, reg)
	}
	return out
}

// drop requires s.mu.
func (s *Scheduler) drop(reg Registration) {
	s.runner.Remove(reg.entry)
	delete(s.pending, reg.EventID)
}

// forget removes a fired registration unless it was replaced meanwhile.
func (s *Scheduler) forget(reg Registration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.pending[reg.EventID]
	if ok && cur.FireAt.Equal(reg.FireAt) {
		s.drop(cur)
	}
}

func (s *Scheduler) baseContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}

func (s *Scheduler) fire(reg Registration) {
	defer s.forget(reg)

	ctx, cancel := context.WithTimeout(s.baseContext(), s.fireTimeout)
	defer cancel()
	logger := log.WithField("event", reg.EventID).WithField("fireAt", reg.FireAt.Format(time.RFC3339))

	e, err := s.events.GetEvent(ctx, reg.EventID)
	if errors.Is(err, storage.ErrNotFoundEvent) {
		logger.Info("event removed, reminder suppressed")
		return
	}
	if err != nil {
		logger.Warnf("failed to reload event: %v", err)
		return
	}
	if !e.HasStartTime() || !FireTime(e.DateTime, s.lead).Equal(reg.FireAt) {
		logger.Info("event start changed, reminder suppressed")
		return
	}
	if !e.DateTime.After(s.now()) {
		logger.Info("event already started, reminder suppressed")
		return
	}

	key := reg.Key()
	claimed, err := s.marker.Claim(ctx, key)
	if err != nil {
		logger.Warnf("failed to claim reminder marker, relying on the store: %v", err)
	} else if !claimed {
		logger.Debug("reminder already delivered")
		return
	}

	n := storage.Notification{
		EventID: e.ID,
		Message: s.message(e),
		FireAt:  reg.FireAt,
	}
	if err := s.notifications.AddNotification(ctx, &n); err != nil {
		if errors.Is(err, storage.ErrDuplicateNotification) {
			logger.Debug("reminder already stored")
			return
		}
		logger.Warnf("failed to store notification: %v", err)
		if claimed {
			if err := s.marker.Release(ctx, key); err != nil {
				logger.Warnf("failed to release reminder marker: %v", err)
			}
		}
		return
	}
	logger.Infof("notification %s stored: %s", n.ID, n.Message)

	for _, p := range s.publishers {
		if err := p.Publish(ctx, n, e); err != nil {
			logger.Warnf("failed to publish notification %s: %v", n.ID, err)
		}
	}
}

func (s *Scheduler) message(e storage.Event) string {
	return s.translator.T(s.locale, i18n.MsgEventReminder, map[string]any{
		"EventName": e.Name,
		"Minutes":   leadMinutes(s.lead),
	})
}

// leadMinutes rounds lead up to whole minutes.
func leadMinutes(lead time.Duration) int {
	return int((lead + time.Minute - 1) / time.Minute)
}
