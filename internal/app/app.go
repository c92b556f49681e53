package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"homeworkbot/internal/config"
	"homeworkbot/internal/notifier"
	"homeworkbot/internal/observability/status"
	"homeworkbot/internal/poller"
	"homeworkbot/internal/practicum"
	"homeworkbot/internal/runtime/supervisor"
	"homeworkbot/internal/schedule"
	"homeworkbot/internal/storage"
	kit "homeworkbot/internal/transport"
	logx "homeworkbot/pkg/logx"
	"homeworkbot/pkg/systemd"
)

// stallGrace is how far past its next activation a cycle may run before the
// watchdog stops vouching for the process.
const stallGrace = 5 * time.Minute

type App struct {
	cfgm *config.Manager
	sup  *supervisor.Supervisor

	log   logx.Logger
	logs  *logx.Service
	store storage.Store

	sender kit.Sender
	notif  *notifier.Service
	loop   *poller.Loop
	sd     *systemd.Notifier
	ops    *status.Service

	sched atomic.Pointer[schedule.Spec]
}

// Options are the startup inputs that do not come from the config file.
type Options struct {
	ConfigPath  string
	Credentials config.Credentials
	// HTTPClient replaces the practicum client's transport (tests).
	HTTPClient *http.Client
	// Sender replaces the Telegram driver (tests).
	Sender kit.Sender
	Now    func() time.Time
}

// New wires every component. Nothing here touches the network: the
// first request is made by the poll loop after Start.
func New(opts Options) (*App, error) {
	cfgm := config.NewManager(opts.ConfigPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	logSvc, root := logx.New(cfg.LogConfig())
	log := root.With(logx.String("comp", "app"))
	cfgm.SetLogger(root.With(logx.String("comp", "config")))

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	spec, err := parseSchedule(cfg)
	if err != nil {
		return nil, err
	}
	cursor, err := cursorFrom(cfg, now())
	if err != nil {
		return nil, err
	}

	ncfg, err := mapNotifierConfig(cfg)
	if err != nil {
		return nil, err
	}
	pcfg, err := mapPracticumConfig(cfg, opts.Credentials)
	if err != nil {
		return nil, err
	}
	if opts.HTTPClient != nil {
		pcfg.HTTPClient = opts.HTTPClient
	}
	client, err := practicum.New(pcfg, root)
	if err != nil {
		return nil, err
	}
	if pcfg.Timeout <= 0 {
		log.Warn("practicum.timeout is not set; a stalled API request will block polling until it returns")
	}

	sender := opts.Sender
	if sender == nil {
		if sender, err = newSender(cfg, opts.Credentials, ncfg.SendTimeout, root); err != nil {
			return nil, fmt.Errorf("telegram: %w", err)
		}
	}

	// The journal is opened last so no earlier failure leaks its handle.
	var store storage.Store
	sc, enabled, err := mapStorageConfig(cfg)
	if err != nil {
		return nil, err
	}
	if enabled {
		if store, err = storage.Open(sc, root); err != nil {
			return nil, fmt.Errorf("open storage: %w", err)
		}
		log.Info("delivery journal enabled", logx.String("driver", sc.Driver), logx.String("path", sc.Path))
	}

	target := kit.ChatTarget{
		ChatID:   opts.Credentials.ChatID,
		Username: opts.Credentials.ChatUsername,
		ThreadID: cfg.Telegram.ThreadID,
	}
	notif := notifier.New(ncfg, sender, target, store, root)

	a := &App{
		cfgm:   cfgm,
		log:    log,
		logs:   logSvc,
		store:  store,
		sender: sender,
		notif:  notif,
		sd:     systemd.NewNotifier(cfg.Systemd.Notify, root),
	}
	a.ops = status.New(a.healthy, a.report, root)
	a.sched.Store(&spec)
	a.loop = poller.New(client, notif, poller.Options{
		Cursor:   cursor,
		Schedule: a.currentSchedule,
		Now:      now,
	}, root)

	log.Info("configured",
		logx.String("summary", config.Summary(cfg)),
		logx.String("endpoint", client.Endpoint()),
		logx.Int64("from_date", cursor),
		logx.String("chat", target.String()),
	)
	return a, nil
}

func (a *App) currentSchedule() schedule.Spec { return *a.sched.Load() }

// Loop exposes the poll loop for status and tests.
func (a *App) Loop() *poller.Loop { return a.loop }

// Notifier exposes the notifier for status and tests.
func (a *App) Notifier() *notifier.Service { return a.notif }

// Done is closed when the app context ends (fatal error or Stop).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor.
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.New(ctx, supervisor.WithLogger(a.log), supervisor.WithCancelOnError(true))
	a.cfgm.SetValidator(validateReload)

	a.sup.GoRestart("poll.loop", a.loop.Run,
		supervisor.WithRestartBackoff(time.Second, time.Minute),
		supervisor.WithPublishFirstError(true),
	)

	sub := a.cfgm.Subscribe(4)
	a.sup.Go0("config.reload", func(c context.Context) {
		defer a.cfgm.Unsubscribe(sub)
		applied := a.cfgm.Get()
		for {
			select {
			case <-c.Done():
				return
			case next, ok := <-sub:
				if !ok {
					return
				}
				a.apply(applied, next)
				applied = next
			}
		}
	})

	a.sup.Go("config.watch", a.cfgm.Watch)
	a.sup.Go0("systemd.watchdog", func(c context.Context) { a.sd.RunWatchdog(c, a.healthy) })
	a.ops.Reconfigure(a.sup.Context(), mapStatusConfig(a.cfgm.Get()))

	a.sd.Ready()
	a.sd.Status("polling %s", a.currentSchedule().Raw)
	a.log.Info("app started", logx.String("schedule", a.currentSchedule().Raw))
	return nil
}

// apply pushes a reloaded config into the live components. Sections that
// were wired at startup only produce a warning.
func (a *App) apply(prev, next *config.Config) {
	changed := config.Changed(prev, next)
	if len(changed) == 0 {
		a.log.Debug("config reload received, but no effective changes detected")
		return
	}
	a.sd.Reloading()
	defer a.sd.Ready()

	a.logs.Apply(next.LogConfig())

	if ncfg, err := mapNotifierConfig(next); err != nil {
		a.log.Warn("invalid notifier config; keeping previous", logx.Err(err))
	} else {
		a.notif.Apply(ncfg)
	}

	if spec, err := parseSchedule(next); err != nil {
		a.log.Warn("invalid poll.interval; keeping previous", logx.Err(err))
	} else {
		a.sched.Store(&spec)
		a.sd.Status("polling %s", spec.Raw)
	}

	a.ops.Reconfigure(a.sup.Context(), mapStatusConfig(next))

	var restart []string
	for _, s := range changed {
		switch s {
		case "practicum", "telegram", "storage", "systemd":
			restart = append(restart, s)
		}
	}
	if prev.Poll.Lookback != next.Poll.Lookback {
		restart = append(restart, "poll.lookback")
	}
	if len(restart) > 0 {
		a.log.Warn("some changes take effect after restart", logx.String("sections", strings.Join(restart, ",")))
	}
	a.log.Info("config applied", logx.String("changed", strings.Join(changed, ",")))
}

// validateReload rejects a reload whose log directory cannot be created,
// which logx would otherwise only report on stderr.
func validateReload(_ context.Context, cfg *config.Config) error {
	if !cfg.Logging.File.Enabled {
		return nil
	}
	path := strings.TrimSpace(cfg.Logging.File.Path)
	if path == "" {
		path = logx.DefaultFilePath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("logging.file.path: %w", err)
	}
	return nil
}

// healthy reports whether the poll loop is still making progress.
func (a *App) healthy() bool {
	return loopHealthy(a.loop.Started(), a.loop.LastCycle(), a.currentSchedule(), time.Now())
}

// loopHealthy is false once a cycle is overdue by more than stallGrace. Until
// the first cycle finishes, the deadline counts from the loop start, so a
// first fetch that never returns is caught too.
func loopHealthy(started, last time.Time, spec schedule.Spec, now time.Time) bool {
	switch {
	case !last.IsZero():
		return now.Before(spec.Next(last).Add(stallGrace))
	case !started.IsZero():
		return now.Before(started.Add(stallGrace))
	default:
		return true
	}
}

type report struct {
	Schedule    string                 `json:"schedule"`
	FromDate    int64                  `json:"from_date"`
	LastCycle   time.Time              `json:"last_cycle"`
	LastMessage string                 `json:"last_message,omitempty"`
	Healthy     bool                   `json:"healthy"`
	Sent        []notifier.HistoryItem `json:"sent"`
	Tasks       []supervisor.TaskStats `json:"tasks"`
}

// report backs the /status endpoint.
func (a *App) report() any {
	msg, _ := a.loop.LastMessage()
	return report{
		Schedule:    a.currentSchedule().Raw,
		FromDate:    a.loop.Cursor(),
		LastCycle:   a.loop.LastCycle(),
		LastMessage: msg,
		Healthy:     a.healthy(),
		Sent:        a.notif.Snapshot(),
		Tasks:       a.sup.Snapshot(),
	}
}

func (a *App) Stop(ctx context.Context, reason StopReason) error {
	if a.sup == nil {
		return nil
	}
	a.log.Info("stopping", logx.String("reason", string(reason)))
	a.sd.Stopping()
	a.sup.Cancel()

	step := func(name string, limit time.Duration, fn func(context.Context) error) {
		stepCtx, cancel := context.WithTimeout(ctx, limit)
		defer cancel()
		start := time.Now()

		done := make(chan error, 1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					done <- fmt.Errorf("panic in stop step %s: %v", name, r)
				}
			}()
			done <- fn(stepCtx)
		}()

		select {
		case err := <-done:
			if err != nil {
				a.log.Warn("stop step error", logx.String("name", name), logx.Err(err))
			}
			a.log.Debug("stop step end", logx.String("name", name), logx.Duration("took", time.Since(start)))
		case <-stepCtx.Done():
			a.log.Warn("stop step deadline reached (continuing)", logx.String("name", name), logx.Err(stepCtx.Err()))
		}
	}

	step("status", 2*time.Second, func(c context.Context) error {
		a.ops.Stop(c)
		return nil
	})
	step("supervisor", 5*time.Second, a.sup.Wait)
	step("sender", time.Second, func(context.Context) error {
		if c, ok := a.sender.(kit.Closer); ok {
			return c.Close()
		}
		return nil
	})
	step("storage", time.Second, func(context.Context) error {
		if a.store != nil {
			return a.store.Close()
		}
		return nil
	})

	for _, t := range a.sup.Snapshot() {
		a.log.Debug("goroutine summary",
			logx.String("name", t.Name),
			logx.Int("starts", t.Starts),
			logx.Int("panics", t.Panics),
			logx.String("last_err", t.LastErr),
		)
	}
	a.log.Info("stopped", logx.Int("notifications_sent", len(a.notif.Snapshot())))
	return a.logs.Close()
}
