package notifier

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"homeworkbot/internal/storage"
	kit "homeworkbot/internal/transport"
	logx "homeworkbot/pkg/logx"
)

// Service sends notifications synchronously. It is safe for concurrent use.
type Service struct {
	mu      sync.Mutex
	cfg     Config
	limiter *rate.Limiter

	log    logx.Logger
	sender kit.Sender
	target kit.ChatTarget
	store  storage.Store

	hmu     sync.Mutex
	history []HistoryItem
}

// New builds the service. store may be nil.
func New(cfg Config, sender kit.Sender, target kit.ChatTarget, store storage.Store, log logx.Logger) *Service {
	s := &Service{
		log:    log.With(logx.String("comp", "notifier")),
		sender: sender,
		target: target,
		store:  store,
	}
	s.applyLocked(cfg)
	return s
}

func (s *Service) Target() kit.ChatTarget { return s.target }

// Apply swaps throttle and history settings at runtime.
func (s *Service) Apply(cfg Config) {
	s.mu.Lock()
	s.applyLocked(cfg)
	s.mu.Unlock()

	s.hmu.Lock()
	s.trimHistoryLocked()
	s.hmu.Unlock()
}

func (s *Service) applyLocked(cfg Config) {
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 1
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = defaultSendTimeout
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = defaultHistorySize
	}
	s.cfg = cfg
	// Burst 1: messages are spaced out evenly rather than sent in a clump.
	s.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), 1)
}

// Notify sends n.Text to the configured chat and reports whether it was delivered.
// It never returns an error: failures are logged here and go no further.
func (s *Service) Notify(ctx context.Context, n Notification) bool {
	if strings.TrimSpace(n.Text) == "" {
		return false
	}
	if n.Kind == "" {
		n.Kind = storage.KindUpdate
	}

	s.mu.Lock()
	cfg := s.cfg
	lim := s.limiter
	s.mu.Unlock()

	log := s.log.With(logx.String("kind", string(n.Kind)))
	if n.CycleID != "" {
		log = log.With(logx.String("cycle", n.CycleID))
	}

	if err := lim.Wait(ctx); err != nil {
		log.Error("notification dropped before send", logx.Err(err))
		s.journal(n, false, err, 0)
		return false
	}

	start := time.Now()
	callCtx, cancel := context.WithTimeout(ctx, cfg.SendTimeout)
	ref, err := s.sender.SendText(callCtx, s.target, n.Text, &kit.SendOptions{
		Silent:         cfg.Silent,
		DisablePreview: cfg.DisablePreview,
	})
	cancel()
	took := time.Since(start)

	s.journal(n, err == nil, err, took)
	if err != nil {
		log.Error("notification send failed",
			logx.Err(err),
			logx.String("chat", s.target.String()),
			logx.Duration("took", took),
		)
		return false
	}

	s.appendHistory(n)
	log.Debug("notification sent",
		logx.String("chat", s.target.String()),
		logx.Int("message_id", ref.MessageID),
		logx.Duration("took", took),
	)
	return true
}

// journal appends the attempt to the store. Errors are logged at debug level only.
func (s *Service) journal(n Notification, ok bool, sendErr error, took time.Duration) {
	if s.store == nil {
		return
	}
	d := storage.Delivery{
		At:       time.Now(),
		CycleID:  n.CycleID,
		Chat:     s.target.String(),
		ThreadID: s.target.ThreadID,
		Kind:     n.Kind,
		Text:     n.Text,
		OK:       ok,
		TookMS:   took.Milliseconds(),
	}
	if sendErr != nil {
		d.Error = sendErr.Error()
	}
	// Detached from the caller's ctx so a shutdown still records the last attempt.
	jctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.store.AppendDelivery(jctx, d); err != nil {
		s.log.Debug("journal append failed", logx.Err(err))
	}
}

// Snapshot returns delivered notifications, oldest first.
func (s *Service) Snapshot() []HistoryItem {
	s.hmu.Lock()
	defer s.hmu.Unlock()
	return append([]HistoryItem(nil), s.history...)
}

func (s *Service) appendHistory(n Notification) {
	s.hmu.Lock()
	s.history = append(s.history, HistoryItem{At: time.Now(), Kind: n.Kind, Text: n.Text})
	s.trimHistoryLocked()
	s.hmu.Unlock()
}

func (s *Service) trimHistoryLocked() {
	s.mu.Lock()
	limit := s.cfg.HistorySize
	s.mu.Unlock()
	if len(s.history) > limit {
		s.history = append([]HistoryItem(nil), s.history[len(s.history)-limit:]...)
	}
}
