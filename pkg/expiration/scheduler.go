package expiration

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/dmitrymomot/authenticator/pkg/broadcast"
	"github.com/dmitrymomot/authenticator/pkg/item"
	"github.com/dmitrymomot/authenticator/pkg/logger"
)

// DefaultInterval is how often buckets are checked for expired codes.
const DefaultInterval = 250 * time.Millisecond

// Scheduler tracks the displayed items grouped by TOTP period and reports,
// in one batch per tick, every item whose code window has ended.
//
// The tick runs from New until Stop; the owner must call Stop.
type Scheduler struct {
	onExpired func([]item.ListItem)
	expired   *broadcast.MemoryBroadcaster[[]item.ListItem]

	mu      sync.Mutex
	buckets map[int][]item.ListItem

	now        func() time.Time
	interval   time.Duration
	ticks      <-chan time.Time
	stopTicker func()
	log        *slog.Logger

	done chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock sets the time source used to decide expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// WithTicker drives the scheduler from ticks instead of a wall-clock ticker.
func WithTicker(ticks <-chan time.Time) Option {
	return func(s *Scheduler) {
		s.ticks = ticks
	}
}

// WithInterval overrides DefaultInterval. Ignored when WithTicker is used.
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithLogger sets the scheduler logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Scheduler) {
		if log != nil {
			s.log = log
		}
	}
}

// New starts a scheduler. onExpired is called from the tick goroutine with
// each non-empty batch; it usually refreshes the codes and calls Configure
// with the result. It must not call Stop.
func New(onExpired func([]item.ListItem), opts ...Option) *Scheduler {
	s := &Scheduler{
		onExpired: onExpired,
		expired:   broadcast.NewMemoryBroadcaster[[]item.ListItem](1),
		buckets:   make(map[int][]item.ListItem),
		now:       time.Now,
		interval:  DefaultInterval,
		log:       logger.Discard(),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.ticks == nil {
		ticker := time.NewTicker(s.interval)
		s.ticks = ticker.C
		s.stopTicker = ticker.Stop
	}

	s.wg.Add(1)
	go s.run()

	return s
}

// Configure replaces the tracked items. Items without a TOTP code are ignored.
func (s *Scheduler) Configure(items []item.ListItem) {
	buckets := make(map[int][]item.ListItem)
	for _, li := range items {
		if li.TOTP == nil {
			continue
		}
		period := li.Period()
		buckets[period] = append(buckets[period], li)
	}

	s.mu.Lock()
	s.buckets = buckets
	s.mu.Unlock()
}

// Subscribe returns a subscriber receiving every expired batch sent after
// the call.
func (s *Scheduler) Subscribe(ctx context.Context) broadcast.Subscriber[[]item.ListItem] {
	return s.expired.Subscribe(ctx)
}

// Stop ends the tick and waits for an in-flight batch to finish.
// It is safe to call more than once.
func (s *Scheduler) Stop() {
	s.once.Do(func() {
		close(s.done)
		s.wg.Wait()
		if s.stopTicker != nil {
			s.stopTicker()
		}
		_ = s.expired.Close()
	})
}

// Close calls Stop.
func (s *Scheduler) Close() error {
	s.Stop()
	return nil
}

func (s *Scheduler) run() {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			return
		case _, ok := <-s.ticks:
			if !ok {
				return
			}
			s.tick()
		}
	}
}

func (s *Scheduler) tick() {
	batch := s.collect(s.now())
	if len(batch) == 0 {
		return
	}

	s.log.Debug("codes expired", logger.Count(len(batch)))
	if s.onExpired != nil {
		s.onExpired(batch)
	}
	_ = s.expired.Broadcast(context.Background(), broadcast.Message[[]item.ListItem]{Data: batch})
}

// collect removes and returns the expired items of every bucket.
func (s *Scheduler) collect(now time.Time) []item.ListItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	var batch []item.ListItem
	for _, period := range slices.Sorted(maps.Keys(s.buckets)) {
		var kept []item.ListItem
		for _, li := range s.buckets[period] {
			if li.TOTP.Code.IsExpired(now) {
				batch = append(batch, li)
			} else {
				kept = append(kept, li)
			}
		}
		if len(kept) == 0 {
			delete(s.buckets, period)
			continue
		}
		s.buckets[period] = kept
	}
	return batch
}
