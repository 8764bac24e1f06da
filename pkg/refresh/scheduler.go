package refresh

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/mr"

	"folio-api/pkg/journal"
	"folio-api/pkg/market"
	"folio-api/pkg/pricing"
)

const defaultWorkers = 4

// Resolver is the part of pricing.Resolver a refresh run drives.
type Resolver interface {
	ResolveDetailed(ctx context.Context, key market.Key) (*pricing.Resolution, error)
	Warm(ctx context.Context, class market.AssetClass, currency string, tickers []string) (int, error)
}

// Holdings lists the instruments held by any portfolio.
type Holdings interface {
	ListDistinctTickers(ctx context.Context, class market.AssetClass) ([]string, error)
}

// Summary reports the outcome of one refresh run.
type Summary struct {
	Task      string
	Tickers   int
	Warmed    int
	Refreshed int
	Cached    int
	Stale     int
	Failed    int
	// Skipped counts tickers left unresolved because the run was cancelled.
	Skipped int
	// Failures maps the cache key of each failed ticker to its error.
	Failures map[string]string
	Duration time.Duration
	Err      error
}

// Scheduler owns one cron entry per refresh task and drives the resolver for
// every held ticker of the task's classes.
type Scheduler struct {
	cron     *cron.Cron
	resolver Resolver
	holdings Holdings
	journal  *journal.Writer
	locker   Locker
	currency string
	workers  int

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	tasks   map[string]Task
	entries map[string]cron.EntryID
	running map[string]context.CancelFunc
}

// Option customises a Scheduler.
type Option func(*Scheduler)

// WithJournal records every scheduled run through w.
func WithJournal(w *journal.Writer) Option {
	return func(s *Scheduler) { s.journal = w }
}

// WithLocker skips scheduled runs another replica is already performing.
func WithLocker(l Locker) Option {
	return func(s *Scheduler) { s.locker = l }
}

// WithCurrency sets the settlement currency refreshed quotes are keyed by.
func WithCurrency(currency string) Option {
	return func(s *Scheduler) {
		if currency != "" {
			s.currency = currency
		}
	}
}

// WithWorkers bounds the number of tickers resolved in parallel within a run.
func WithWorkers(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.workers = n
		}
	}
}

// NewScheduler builds a stopped scheduler with no tasks.
func NewScheduler(resolver Resolver, holdings Holdings, opts ...Option) *Scheduler {
	logger := cronLogger{}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		resolver: resolver,
		holdings: holdings,
		currency: market.DefaultCurrency,
		workers:  defaultWorkers,
		ctx:      ctx,
		cancel:   cancel,
		tasks:    make(map[string]Task),
		entries:  make(map[string]cron.EntryID),
		running:  make(map[string]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddTask registers task on its cron schedule. Names must be unique.
func (s *Scheduler) AddTask(task Task) error {
	if err := task.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[task.Name]; exists {
		return fmt.Errorf("refresh: task %s already registered", task.Name)
	}
	id, err := s.cron.AddFunc(task.Spec, func() { s.runScheduled(task) })
	if err != nil {
		return fmt.Errorf("refresh: schedule task %s: %w", task.Name, err)
	}
	s.tasks[task.Name] = task
	s.entries[task.Name] = id
	logx.Infof("refresh: task %s registered schedule=%q classes=%v", task.Name, task.Spec, task.Classes)
	return nil
}

// Remove unschedules a task and cancels its in-flight run, if any.
func (s *Scheduler) Remove(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.entries[name]
	if !ok {
		return false
	}
	s.cron.Remove(id)
	delete(s.entries, name)
	delete(s.tasks, name)
	if cancel, running := s.running[name]; running {
		cancel()
	}
	logx.Infof("refresh: task %s removed", name)
	return true
}

// Tasks returns the registered tasks sorted by name.
func (s *Scheduler) Tasks() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		out = append(out, task)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Start begins firing scheduled tasks.
func (s *Scheduler) Start() {
	s.cron.Start()
	logx.Info("refresh: scheduler started")
}

// Stop cancels in-flight runs and waits for them to return or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	done := s.cron.Stop()
	select {
	case <-done.Done():
		logx.Info("refresh: scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("refresh: stop: %w", ctx.Err())
	}
}

// RunAll runs every registered task once, concurrently, outside the schedule.
func (s *Scheduler) RunAll(ctx context.Context) []Summary {
	tasks := s.Tasks()
	summaries := make([]Summary, len(tasks))
	var wg sync.WaitGroup
	for i, task := range tasks {
		wg.Add(1)
		go func(i int, task Task) {
			defer wg.Done()
			summaries[i] = s.RunOnce(ctx, task)
			s.record(task, summaries[i])
		}(i, task)
	}
	wg.Wait()
	return summaries
}

func (s *Scheduler) runScheduled(task Task) {
	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	if !s.track(task.Name, cancel) {
		return
	}
	defer s.untrack(task.Name)

	if s.locker != nil {
		release, ok, err := s.locker.Acquire(ctx, task.Name)
		if err != nil {
			logx.WithContext(ctx).Errorf("refresh: task %s lock: %v", task.Name, err)
			return
		}
		if !ok {
			logx.WithContext(ctx).Infof("refresh: task %s is running elsewhere, skipping", task.Name)
			return
		}
		defer release()
	}

	s.record(task, s.RunOnce(ctx, task))
}

// track registers the cancel func of a run; it fails when the task was
// removed between the cron tick and the call.
func (s *Scheduler) track(name string, cancel context.CancelFunc) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[name]; !ok {
		return false
	}
	s.running[name] = cancel
	return true
}

func (s *Scheduler) untrack(name string) {
	s.mu.Lock()
	delete(s.running, name)
	s.mu.Unlock()
}

// RunOnce refreshes every held ticker of task's classes. One ticker failing
// never aborts the others; a holdings lookup failure skips only its class.
func (s *Scheduler) RunOnce(ctx context.Context, task Task) Summary {
	start := time.Now()
	summary := Summary{Task: task.Name, Failures: make(map[string]string)}
	var errs []error

	for _, class := range task.Classes {
		if ctx.Err() != nil {
			break
		}
		tickers, err := s.holdings.ListDistinctTickers(ctx, class)
		if err != nil {
			logx.WithContext(ctx).Errorf("refresh: task %s list %s holdings: %v", task.Name, class, err)
			errs = append(errs, err)
			continue
		}
		summary.Tickers += len(tickers)
		if len(tickers) == 0 {
			continue
		}

		warmed, err := s.resolver.Warm(ctx, class, s.currency, tickers)
		if err != nil {
			logx.WithContext(ctx).Infof("refresh: task %s batch warm %s failed, resolving individually: %v", task.Name, class, err)
		}
		summary.Warmed += warmed

		s.resolveAll(ctx, class, tickers, &summary)
	}
	if err := ctx.Err(); err != nil {
		errs = append(errs, err)
	}

	summary.Duration = time.Since(start)
	summary.Err = errors.Join(errs...)
	logx.WithContext(ctx).Infow("refresh: run complete",
		logx.Field("task", summary.Task),
		logx.Field("tickers", summary.Tickers),
		logx.Field("warmed", summary.Warmed),
		logx.Field("refreshed", summary.Refreshed),
		logx.Field("cached", summary.Cached),
		logx.Field("stale", summary.Stale),
		logx.Field("failed", summary.Failed),
		logx.Field("skipped", summary.Skipped),
		logx.Field("duration", summary.Duration.String()),
	)
	return summary
}

func (s *Scheduler) resolveAll(ctx context.Context, class market.AssetClass, tickers []string, summary *Summary) {
	var mu sync.Mutex
	mr.ForEach(func(source chan<- string) {
		for i, ticker := range tickers {
			select {
			case <-ctx.Done():
				mu.Lock()
				summary.Skipped += len(tickers) - i
				mu.Unlock()
				return
			case source <- ticker:
			}
		}
	}, func(ticker string) {
		if ctx.Err() != nil {
			mu.Lock()
			summary.Skipped++
			mu.Unlock()
			return
		}
		key := market.NewKey(ticker, class, s.currency)
		res, err := s.resolver.ResolveDetailed(ctx, key)

		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			logx.WithContext(ctx).Errorf("refresh: resolve %s: %v", key, err)
			summary.Failed++
			summary.Failures[key.String()] = err.Error()
			return
		}
		switch res.Status {
		case pricing.StatusFetched:
			summary.Refreshed++
		case pricing.StatusCached:
			summary.Cached++
		case pricing.StatusStale:
			summary.Stale++
		}
	}, mr.WithWorkers(s.workers))
}

func (s *Scheduler) record(task Task, summary Summary) {
	if s.journal == nil {
		return
	}
	classes := make([]string, 0, len(task.Classes))
	for _, class := range task.Classes {
		classes = append(classes, string(class))
	}
	rec := &journal.RunRecord{
		Task:       summary.Task,
		Classes:    classes,
		Tickers:    summary.Tickers,
		Warmed:     summary.Warmed,
		Refreshed:  summary.Refreshed,
		Cached:     summary.Cached,
		Stale:      summary.Stale,
		Failed:     summary.Failed,
		Skipped:    summary.Skipped,
		Failures:   summary.Failures,
		DurationMS: summary.Duration.Milliseconds(),
		Success:    summary.Err == nil && summary.Failed == 0 && summary.Skipped == 0,
	}
	if summary.Err != nil {
		rec.Error = summary.Err.Error()
	}
	if _, err := s.journal.WriteRun(rec); err != nil {
		logx.Errorf("refresh: journal task %s: %v", summary.Task, err)
	}
}

// cronLogger routes robfig/cron's internal logging into logx.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	logx.Debugf("cron: %s %v", msg, keysAndValues)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	logx.Errorf("cron: %s err=%v %v", msg, err, keysAndValues)
}
