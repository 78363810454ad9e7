package live

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"biogasd/internal/alerts"
	"biogasd/internal/engine"
	"biogasd/internal/history"
	"biogasd/internal/model"
	"biogasd/internal/normalize"
	"biogasd/internal/status"
	"biogasd/internal/storage"
)

// ReadingSink receives each accepted live reading, e.g. the backend poster.
// Implementations must not block the caller.
type ReadingSink interface {
	Post(r model.Reading)
}

// AlertNotifier pushes critical alerts to an external channel.
type AlertNotifier interface {
	NotifyAlert(ctx context.Context, alert model.Alert, r model.Reading) error
}

type Options struct {
	Logger         *slog.Logger
	Bands          engine.Bands
	History        *history.Buffer
	Alerts         *alerts.Store
	Status         *status.Store
	Storage        storage.Store
	Poster         ReadingSink
	Notifier       AlertNotifier
	NotifyCooldown time.Duration
	EventBuffer    int
}

// Session owns the mutable state of one live ingestion subscription: the
// bounded history buffer and the connection state. All mutation happens on
// the single goroutine draining the event channel, so inbound messages are
// processed strictly in arrival order.
type Session struct {
	logger         *slog.Logger
	bands          engine.Bands
	history        *history.Buffer
	alerts         *alerts.Store
	status         *status.Store
	store          storage.Store
	poster         ReadingSink
	notifier       AlertNotifier
	cooldown       *engine.Cooldown
	notifyCooldown time.Duration

	events chan Event
	mu     sync.RWMutex
	conn   model.ConnectionState
	closed atomic.Bool
}

func NewSession(opts Options) *Session {
	if opts.History == nil {
		opts.History = history.NewBuffer(history.DefaultLimit)
	}
	buffer := opts.EventBuffer
	if buffer <= 0 {
		buffer = 256
	}
	return &Session{
		logger:         opts.Logger,
		bands:          opts.Bands,
		history:        opts.History,
		alerts:         opts.Alerts,
		status:         opts.Status,
		store:          opts.Storage,
		poster:         opts.Poster,
		notifier:       opts.Notifier,
		cooldown:       engine.NewCooldown(),
		notifyCooldown: opts.NotifyCooldown,
		events:         make(chan Event, buffer),
	}
}

// Run drains the event stream until the context is cancelled. It must be
// the only consumer.
func (s *Session) Run(ctx context.Context) {
	for {
		select {
		case ev := <-s.events:
			s.handle(ctx, ev)
		case <-ctx.Done():
			s.closed.Store(true)
			s.setConn(false, "")
			return
		}
	}
}

// Submit queues a transport event. Events submitted after teardown are
// ignored, guarding against late callbacks mutating dead state. The send is
// non-blocking; under overload the oldest unprocessed history simply never
// forms, which the bounded buffer tolerates.
func (s *Session) Submit(ev Event) bool {
	if s.closed.Load() {
		return false
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	select {
	case s.events <- ev:
		return true
	default:
		if s.logger != nil {
			s.logger.Warn("event channel full, dropping event", "kind", ev.Kind)
		}
		return false
	}
}

func (s *Session) handle(ctx context.Context, ev Event) {
	switch ev.Kind {
	case EventConnected:
		s.setConn(true, "")
		if s.logger != nil {
			s.logger.Info("live transport connected")
		}
	case EventMessage:
		s.handleMessage(ctx, ev)
	case EventError:
		msg := "Live connection failed: Unknown error"
		if ev.Err != nil {
			msg = "Live connection failed: " + ev.Err.Error()
		}
		s.setConn(false, msg)
		if s.logger != nil {
			s.logger.Warn("live transport error", "err", ev.Err)
		}
	case EventReconnecting:
		s.setConn(false, "Reconnecting...")
		if s.logger != nil {
			s.logger.Info("live transport reconnecting")
		}
	case EventClosed:
		if ev.Clean {
			s.setConn(false, "")
		} else {
			s.setConn(false, "Connection lost")
		}
		if s.logger != nil {
			s.logger.Info("live transport closed", "clean", ev.Clean)
		}
	}
}

func (s *Session) handleMessage(ctx context.Context, ev Event) {
	r, err := normalize.FromPayload(ev.Payload, ev.At)
	if err != nil {
		// A malformed frame is non-fatal: flag it, keep the subscription.
		s.setError("Invalid message format received")
		if s.logger != nil {
			s.logger.Warn("invalid message payload", "topic", ev.Topic, "err", err)
		}
		return
	}

	s.history.Push(r)
	s.setConn(true, "")

	derived := engine.DeriveAlerts(r, s.bands)
	for _, alert := range derived {
		if s.alerts != nil {
			s.alerts.Add(alert)
		}
		if s.logger != nil {
			s.logger.Warn("alert derived",
				"id", alert.ID,
				"severity", alert.Severity,
				"message", alert.Message,
				"device_id", alert.DeviceID,
			)
		}
		if s.store != nil {
			if err := s.store.SaveAlert(ctx, alert); err != nil && s.logger != nil {
				s.logger.Warn("save alert failed", "err", err)
			}
		}
		s.maybeNotify(ctx, alert, r)
	}

	if s.status != nil && r.DeviceID != "" {
		overall, _, _ := engine.Overall(&r, s.bands)
		s.status.Update(status.Snapshot{
			DeviceID:    r.DeviceID,
			Temperature: engine.ClassifyTemperature(r.Temperature, s.bands),
			Pressure:    engine.ClassifyPressure(r.Pressure, s.bands),
			Methane:     engine.ClassifyMethane(r.Methane, s.bands),
			Overall:     overall,
			UpdatedAt:   r.Timestamp,
		})
	}

	if s.store != nil {
		if err := s.store.SaveReading(ctx, r); err != nil && s.logger != nil {
			s.logger.Warn("save reading failed", "err", err)
		}
	}
	if s.poster != nil {
		s.poster.Post(r)
	}
}

func (s *Session) maybeNotify(ctx context.Context, alert model.Alert, r model.Reading) {
	if s.notifier == nil || alert.Severity != model.SeverityCritical {
		return
	}
	key := alert.Message + "|" + alert.DeviceID
	if !s.cooldown.AllowKey(key, s.notifyCooldown) {
		return
	}
	if err := s.notifier.NotifyAlert(ctx, alert, r); err != nil && s.logger != nil {
		s.logger.Warn("alert notification failed", "err", err)
	}
}

func (s *Session) setConn(connected bool, errMsg string) {
	s.mu.Lock()
	s.conn = model.ConnectionState{Connected: connected, Error: errMsg}
	s.mu.Unlock()
}

// setError flags a problem without touching the connected bit.
func (s *Session) setError(msg string) {
	s.mu.Lock()
	s.conn.Error = msg
	s.mu.Unlock()
}

// ConnectionState returns a snapshot of the transport status.
func (s *Session) ConnectionState() model.ConnectionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn
}

// Latest returns the newest reading, or nil before the first message.
func (s *Session) Latest() *model.Reading {
	r, ok := s.history.Latest()
	if !ok {
		return nil
	}
	return &r
}

// History returns the bounded reading history, newest first.
func (s *Session) History() []model.Reading {
	return s.history.All()
}

// AlertsFor derives the alerts for a single reading.
func (s *Session) AlertsFor(r model.Reading) []model.Alert {
	return engine.DeriveAlerts(r, s.bands)
}

// Feed derives the historical alert log across the buffered readings,
// most recent breach first.
func (s *Session) Feed() []model.Alert {
	return engine.BuildFeed(s.history.All(), s.bands)
}

// SeriesFor projects the buffered history into a chronological chart series
// for one metric. limit <= 0 uses the whole buffer.
func (s *Session) SeriesFor(metric model.Metric, limit int) []model.SeriesPoint {
	return engine.Series(s.history.Recent(limit), metric)
}

// ClearHistory drops the buffered readings. Alert and status stores are
// owned by their callers and cleared separately.
func (s *Session) ClearHistory() {
	s.history.Clear()
}

func (s *Session) Bands() engine.Bands {
	return s.bands
}

func (s *Session) Closed() bool {
	return s.closed.Load()
}
