package presence

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aussiebroadwan/stranger/pkg/slogx"
)

// Tracker starts presence sessions against a backend.
type Tracker struct {
	Backend      Backend
	Logger       *slog.Logger
	WriteTimeout time.Duration
}

// Session is a running presence registration for one uid. It owns a Monitor
// and an Aggregator and must be stopped.
type Session struct {
	uid      string
	username string
	logger   *slog.Logger

	writer     *Writer
	monitor    *Monitor
	aggregator *Aggregator

	// ctx bounds connect-time writes and is cancelled by Stop.
	ctx    context.Context
	cancel context.CancelFunc

	stopOnce sync.Once
}

// Start begins tracking uid as username. The logger is taken from ctx when
// the Tracker has none; ctx does not bound the session's lifetime.
func (t *Tracker) Start(ctx context.Context, uid, username string) (*Session, error) {
	if uid == "" {
		return nil, ErrEmptyUID
	}
	if username == "" {
		return nil, ErrEmptyUsername
	}

	logger := t.Logger
	if logger == nil {
		logger = slogx.FromContext(ctx)
	}
	logger = logger.With("uid", uid)

	sctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s := &Session{
		uid:      uid,
		username: username,
		logger:   logger,
		writer: &Writer{
			Backend: t.Backend,
			Logger:  logger,
			Timeout: t.WriteTimeout,
		},
		ctx:    sctx,
		cancel: cancel,
	}

	s.aggregator = Aggregate(t.Backend, logger)
	s.monitor = WatchConnection(t.Backend, func() {
		logger.Debug("transport connected, publishing presence")
		s.writer.ArmAndPublish(s.ctx, s.uid, s.username)
	})

	logger.Info("presence started", "username", username)
	return s, nil
}

// UID returns the tracked uid.
func (s *Session) UID() string { return s.uid }

// Username returns the name written to the record.
func (s *Session) Username() string { return s.username }

// OnlineUsernames returns the current aggregate.
func (s *Session) OnlineUsernames() []string { return s.aggregator.Names() }

// Updates yields the aggregate after each collection change until Stop.
func (s *Session) Updates() <-chan []string { return s.aggregator.Updates() }

// Connected reports whether the backend transport is currently up.
func (s *Session) Connected() bool { return s.monitor.Connected() }

// Stop unsubscribes both listeners, then writes the offline record. The write
// is best-effort: a failure is logged and never returned. Safe to call more
// than once; only the first call writes.
func (s *Session) Stop(ctx context.Context) {
	s.stopOnce.Do(func() {
		s.cancel()
		s.monitor.Close()
		s.aggregator.Close()

		if err := s.writer.PublishOffline(ctx, s.uid, s.username); err != nil {
			s.logger.Warn("failed to publish offline", "err", err)
		}
		s.logger.Info("presence stopped")
	})
}
