// Package poller runs the fetch, validate, format and notify cycle.
package poller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"homeworkbot/internal/homework"
	"homeworkbot/internal/notifier"
	"homeworkbot/internal/schedule"
	"homeworkbot/internal/storage"
	logx "homeworkbot/pkg/logx"
)

// FailurePrefix starts every failure notice sent to the chat.
const FailurePrefix = "Сбой в работе программы: "

// Fetcher is the homework status API.
type Fetcher interface {
	Fetch(ctx context.Context, from int64) (any, error)
}

// Notifier is the best-effort chat sender.
type Notifier interface {
	Notify(ctx context.Context, n notifier.Notification) bool
}

// ScheduleFunc returns the schedule in effect; it is read once per cycle
// so a reloaded poll.interval applies from the next wait.
type ScheduleFunc func() schedule.Spec

type Options struct {
	// Cursor is the from_date sent on every request. It never changes.
	Cursor   int64
	Schedule ScheduleFunc
	// Now is replaceable in tests.
	Now func() time.Time
}

// Outcome describes one finished cycle.
type Outcome struct {
	CycleID   string
	Message   string
	Err       error
	Kind      Kind
	Delivered bool
	// Suppressed is true when Message equals the last notified one.
	Suppressed bool
}

// Loop owns the last notified message. Only the goroutine running Run
// (or a test calling RunCycle) writes it; hmu guards reads from elsewhere.
type Loop struct {
	fetch    Fetcher
	notify   Notifier
	log      logx.Logger
	cursor   int64
	schedule ScheduleFunc
	now      func() time.Time

	hmu       sync.RWMutex
	last      string
	hasLast   bool
	lastCycle time.Time
	started   time.Time
}

func New(fetch Fetcher, notify Notifier, opts Options, log logx.Logger) *Loop {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Schedule == nil {
		def, _ := schedule.Parse(schedule.Default)
		opts.Schedule = func() schedule.Spec { return def }
	}
	return &Loop{
		fetch:    fetch,
		notify:   notify,
		log:      log.With(logx.String("comp", "poller")),
		cursor:   opts.Cursor,
		schedule: opts.Schedule,
		now:      opts.Now,
	}
}

// Cursor returns the fixed from_date.
func (l *Loop) Cursor() int64 { return l.cursor }

// LastMessage returns the last notified message, if any.
func (l *Loop) LastMessage() (string, bool) {
	l.hmu.RLock()
	defer l.hmu.RUnlock()
	return l.last, l.hasLast
}

// LastCycle reports when the most recent cycle finished. Safe for concurrent use.
func (l *Loop) LastCycle() time.Time {
	l.hmu.RLock()
	defer l.hmu.RUnlock()
	return l.lastCycle
}

// Started reports when Run last began, zero before the first call.
func (l *Loop) Started() time.Time {
	l.hmu.RLock()
	defer l.hmu.RUnlock()
	return l.started
}

// Deliver notifies msg unless it equals the last notified message. The
// last message is updated after the attempt whether or not the send succeeded:
// the notifier is fire-and-forget and a failed send is not retried.
func (l *Loop) Deliver(ctx context.Context, msg string, kind storage.Kind, cycleID string) (delivered, suppressed bool) {
	if l.hasLast && msg == l.last {
		l.log.Debug("message unchanged; not sending", logx.String("cycle", cycleID))
		return false, true
	}
	delivered = l.notify.Notify(ctx, notifier.Notification{Text: msg, Kind: kind, CycleID: cycleID})
	l.hmu.Lock()
	l.last, l.hasLast = msg, true
	l.hmu.Unlock()
	return delivered, false
}

// RunCycle performs one fetch and notifies about the result. Errors never
// escape: they become a failure notice routed through Deliver.
func (l *Loop) RunCycle(ctx context.Context) Outcome {
	id := uuid.NewString()
	log := l.log.With(logx.String("cycle", id))
	log.Debug("cycle started", logx.Int64("from_date", l.cursor))

	out := Outcome{CycleID: id}
	msg, kind, err := l.compose(ctx)
	if err != nil && ctx.Err() != nil {
		// Shutting down: the failure is ours, not the API's.
		log.Debug("cycle interrupted", logx.Err(err))
		return Outcome{CycleID: id, Err: ctx.Err(), Kind: KindNone}
	}
	if err != nil {
		out.Err = err
		out.Kind = Classify(err)
		log.Critical("poll cycle failed", logx.String("kind", string(out.Kind)), logx.Err(err))
		msg, kind = FailurePrefix+err.Error(), storage.KindFailure
	}

	out.Message = msg
	out.Delivered, out.Suppressed = l.Deliver(ctx, msg, kind, id)

	l.hmu.Lock()
	l.lastCycle = l.now()
	l.hmu.Unlock()

	log.Debug("cycle finished", logx.Bool("delivered", out.Delivered), logx.Bool("suppressed", out.Suppressed))
	return out
}

// compose fetches and renders the message for this cycle.
func (l *Loop) compose(ctx context.Context) (string, storage.Kind, error) {
	payload, err := l.fetch.Fetch(ctx, l.cursor)
	if err != nil {
		return "", "", err
	}
	resp, err := homework.Validate(payload)
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", errResponseField, err)
	}
	rec, ok := resp.Latest()
	if !ok {
		return homework.Placeholder, storage.KindPlaceholder, nil
	}
	msg, err := homework.Format(rec)
	if err != nil {
		return "", "", err
	}
	return msg, storage.KindUpdate, nil
}

// Run repeats cycles until ctx is cancelled. The wait after each cycle ends
// at the schedule's next activation, whatever the cycle's outcome.
func (l *Loop) Run(ctx context.Context) error {
	l.hmu.Lock()
	l.started = l.now()
	l.hmu.Unlock()

	for {
		l.RunCycle(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		now := l.now()
		next := l.schedule().Next(now)
		wait := next.Sub(now)
		l.log.Debug("sleeping until next cycle", logx.Time("next", next), logx.Duration("wait", wait))

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}
