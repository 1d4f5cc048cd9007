package presence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// DefaultWriteTimeout bounds a single presence write.
const DefaultWriteTimeout = 5 * time.Second

var (
	ErrEmptyUID      = errors.New("presence: uid is required")
	ErrEmptyUsername = errors.New("presence: username is required")
)

// Writer performs the three presence writes for one uid.
type Writer struct {
	Backend Backend
	Logger  *slog.Logger
	Timeout time.Duration // per write, DefaultWriteTimeout when zero
}

// PublishOnline overwrites status/<uid> with an online record. Calling it
// repeatedly leaves the same observable state.
func (w *Writer) PublishOnline(ctx context.Context, uid, username string) error {
	return w.write(ctx, "publish_online", uid, username, true, w.Backend.WriteRecord)
}

// ArmDisconnectOffline asks the backend to write an offline record when this
// client's transport drops.
func (w *Writer) ArmDisconnectOffline(ctx context.Context, uid, username string) error {
	return w.write(ctx, "arm_disconnect_offline", uid, username, false, w.Backend.ArmOnDisconnect)
}

// PublishOffline overwrites status/<uid> with an offline record.
func (w *Writer) PublishOffline(ctx context.Context, uid, username string) error {
	return w.write(ctx, "publish_offline", uid, username, false, w.Backend.WriteRecord)
}

// ArmAndPublish runs on every connect. The offline write is armed first so
// there is never an online record without a pending offline one. Failures
// are logged and swallowed.
func (w *Writer) ArmAndPublish(ctx context.Context, uid, username string) {
	if err := w.ArmDisconnectOffline(ctx, uid, username); err != nil {
		w.logger().Warn("failed to arm disconnect write", "uid", uid, "err", err)
	}
	if err := w.PublishOnline(ctx, uid, username); err != nil {
		w.logger().Warn("failed to publish online", "uid", uid, "err", err)
	}
}

func (w *Writer) write(
	ctx context.Context,
	op, uid, username string,
	online bool,
	fn func(context.Context, string, Record) error,
) error {
	if uid == "" {
		return ErrEmptyUID
	}
	if username == "" {
		return ErrEmptyUsername
	}

	timeout := w.Timeout
	if timeout <= 0 {
		timeout = DefaultWriteTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	rec := Record{Username: username, Online: online}
	if err := fn(ctx, uid, rec); err != nil {
		return fmt.Errorf("presence: %s: %w", op, err)
	}

	w.logger().Debug("presence write", "op", op, "uid", uid, "online", online)
	return nil
}

func (w *Writer) logger() *slog.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return slog.Default()
}
