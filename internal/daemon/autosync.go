package daemon

import (
	"context"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Syncer is the subset of the sync engine the daemon drives.
type Syncer interface {
	FullSync(ctx context.Context, userID int64) error
}

// Config holds configuration for the auto-sync loop.
type Config struct {
	// Interval is how often a sync pass runs.
	Interval time.Duration

	// Logger for daemon activity.
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Interval: 5 * time.Minute,
		Logger:   log.New(os.Stderr, "[daemon] ", log.LstdFlags),
	}
}

// AutoSync runs periodic sync passes for one user. Pass failures are
// logged, never propagated: a dead network must not take the loop down.
type AutoSync struct {
	syncer Syncer
	userID int64
	config *Config

	// OnPassComplete, when set before Start, is invoked after every
	// pass with its duration and error (nil on success). Used by the
	// dashboard to broadcast sync_complete messages.
	OnPassComplete func(d time.Duration, err error)

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	trigger chan struct{}

	// inFlight guards against overlapping passes: a tick that fires
	// while the previous pass is still running is skipped, not queued.
	inFlight atomic.Bool

	// lastPassEnd is the UnixNano completion time of the most recent
	// pass, zero before the first one finishes.
	lastPassEnd atomic.Int64
}

// NewAutoSync creates an auto-sync loop for userID.
func NewAutoSync(s Syncer, userID int64, config *Config) *AutoSync {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Interval <= 0 {
		config.Interval = 5 * time.Minute
	}
	if config.Logger == nil {
		config.Logger = log.New(os.Stderr, "[daemon] ", log.LstdFlags)
	}
	return &AutoSync{
		syncer:  s,
		userID:  userID,
		config:  config,
		trigger: make(chan struct{}, 1),
	}
}

// Start launches the loop: one immediate pass, then one per interval.
// Calling Start on a running loop is a no-op.
func (a *AutoSync) Start() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.running {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.running = true

	a.wg.Add(1)
	go a.run(ctx)

	a.config.Logger.Printf("auto-sync started (interval %s)", a.config.Interval)
}

// Stop shuts the loop down and waits for an in-flight pass to finish.
// Calling Stop on a stopped loop is a no-op.
func (a *AutoSync) Stop() {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return
	}
	a.running = false
	cancel := a.cancel
	a.mu.Unlock()

	cancel()
	a.wg.Wait()
	a.config.Logger.Println("auto-sync stopped")
}

// IsRunning reports whether the loop is active.
func (a *AutoSync) IsRunning() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running
}

// TriggerSync requests an out-of-band pass without waiting for the next
// tick. Requests coalesce: triggering while one is already queued is a
// no-op.
func (a *AutoSync) TriggerSync() {
	select {
	case a.trigger <- struct{}{}:
	default:
	}
}

// TriggerIfIdle requests a pass like TriggerSync, but only when no pass
// is in flight and the previous one finished more than quiet ago. It
// reports whether a pass was requested. Callers reacting to store file
// events use this so a pass's own writes cannot re-trigger it.
func (a *AutoSync) TriggerIfIdle(quiet time.Duration) bool {
	if a.inFlight.Load() {
		return false
	}
	if last := a.lastPassEnd.Load(); last != 0 && time.Since(time.Unix(0, last)) < quiet {
		return false
	}
	a.TriggerSync()
	return true
}

func (a *AutoSync) run(ctx context.Context) {
	defer a.wg.Done()

	ticker := time.NewTicker(a.config.Interval)
	defer ticker.Stop()

	a.spawnPass(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.spawnPass(ctx)
		case <-a.trigger:
			a.spawnPass(ctx)
		}
	}
}

// spawnPass runs a pass without blocking the tick loop; Stop still
// waits for it through the wait group.
func (a *AutoSync) spawnPass(ctx context.Context) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.runPass(ctx)
	}()
}

func (a *AutoSync) runPass(ctx context.Context) {
	if !a.inFlight.CompareAndSwap(false, true) {
		a.config.Logger.Println("previous sync still running, skipping tick")
		return
	}
	defer func() {
		a.lastPassEnd.Store(time.Now().UnixNano())
		a.inFlight.Store(false)
	}()

	start := time.Now()
	err := a.syncer.FullSync(ctx, a.userID)
	elapsed := time.Since(start)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		a.config.Logger.Printf("sync pass failed: %v", err)
	} else {
		a.config.Logger.Printf("sync pass finished in %s", elapsed.Round(time.Millisecond))
	}

	if a.OnPassComplete != nil {
		a.OnPassComplete(elapsed, err)
	}
}
