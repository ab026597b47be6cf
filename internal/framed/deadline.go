package framed

import (
	"context"
	"errors"
	"os"
	"time"
)

type readDeadliner interface {
	SetReadDeadline(t time.Time) error
}

type writeDeadliner interface {
	SetWriteDeadline(t time.Time) error
}

// aLongTimeAgo is a deadline in the past, used to interrupt a blocked call.
var aLongTimeAgo = time.Unix(1, 0)

// watch applies ctx to one blocking call through a deadline setter. The
// ctx deadline, if any, becomes the I/O deadline, and cancelling ctx moves
// the deadline into the past. The returned func must be called once the
// call returns; it clears the deadline again.
func watch(ctx context.Context, set func(time.Time) error) (stop func()) {
	if ctx.Done() == nil {
		return func() {}
	}
	deadline, _ := ctx.Deadline()
	_ = set(deadline)
	done := make(chan struct{})
	cancel := context.AfterFunc(ctx, func() {
		_ = set(aLongTimeAgo)
		close(done)
	})
	return func() {
		// A callback already running must land before the clear below.
		if !cancel() {
			<-done
		}
		_ = set(time.Time{})
	}
}

// contextCause returns the context error behind a failed I/O call, or nil if
// the failure was not caused by ctx. A deadline timer on the transport can
// fire a moment before ctx itself reports expiry.
func contextCause(ctx context.Context, err error) error {
	if cerr := ctx.Err(); cerr != nil {
		return cerr
	}
	if errors.Is(err, os.ErrDeadlineExceeded) {
		if d, ok := ctx.Deadline(); ok && !time.Now().Before(d) {
			return context.DeadlineExceeded
		}
	}
	return nil
}
