// Package fetch re-runs a dependent load whenever its dependency key changes
// and guarantees that a response for a superseded key is never applied.
package fetch

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Func loads the value for one key.
type Func[K comparable, V any] func(ctx context.Context, key K) (V, error)

// SettleFunc observes every applied outcome: a fetch result or error for the
// latest key, or the zero result after the key became incomplete.
type SettleFunc[K comparable, V any] func(key K, result V, err error)

// State is a snapshot of a coordinator. Result belongs to Key once Loading
// is false.
type State[K comparable, V any] struct {
	Key        K
	Result     V
	Loading    bool
	Err        error
	Generation uint64
}

// Options configures a Coordinator.
type Options[K comparable, V any] struct {
	// Complete reports whether a key has everything needed to fetch. An
	// incomplete key clears the held result without calling Fetch. Nil
	// means every key is complete.
	Complete func(K) bool
	// OnSettle must not call Set or Refresh on the same coordinator.
	OnSettle SettleFunc[K, V]
	Logger   *zap.Logger
	Name     string
}

// Coordinator owns one dependent value. Every Set or Refresh bumps the
// generation; an outcome is applied only if its generation is still the
// latest when it completes. Cancellation is cooperative: Close and
// supersession suppress application, they do not abort the fetch.
type Coordinator[K comparable, V any] struct {
	fetch    Func[K, V]
	complete func(K) bool
	onSettle SettleFunc[K, V]
	logger   *zap.Logger

	// settleMu orders apply+hook pairs so hooks observe outcomes in the
	// order they were applied.
	settleMu sync.Mutex

	mu     sync.Mutex
	hasKey bool
	state  State[K, V]
	closed bool
	wg     sync.WaitGroup
}

// New creates a Coordinator with no key.
func New[K comparable, V any](fn Func[K, V], opts Options[K, V]) *Coordinator[K, V] {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	name := opts.Name
	if name == "" {
		name = "fetch"
	}
	return &Coordinator[K, V]{
		fetch:    fn,
		complete: opts.Complete,
		onSettle: opts.OnSettle,
		logger:   logger.Named(name),
	}
}

// Set moves the coordinator to key. Setting the current key again is a
// no-op and returns false.
func (c *Coordinator[K, V]) Set(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	if c.hasKey && c.state.Key == key {
		return false
	}
	c.hasKey = true
	c.startLocked(key)
	return true
}

// Refresh re-runs the fetch for the current key. Any in-flight fetch for the
// same key is superseded.
func (c *Coordinator[K, V]) Refresh() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || !c.hasKey {
		return
	}
	c.startLocked(c.state.Key)
}

func (c *Coordinator[K, V]) startLocked(key K) {
	c.state.Generation++
	gen := c.state.Generation
	var zero V
	c.state.Key = key
	c.state.Result = zero
	c.state.Err = nil

	c.wg.Add(1)
	if c.complete != nil && !c.complete(key) {
		c.state.Loading = false
		go func() {
			defer c.wg.Done()
			c.settle(gen, key, zero, nil)
		}()
		return
	}
	c.state.Loading = true
	go func() {
		defer c.wg.Done()
		v, err := c.fetch(context.Background(), key)
		c.settle(gen, key, v, err)
	}()
}

func (c *Coordinator[K, V]) settle(gen uint64, key K, v V, err error) {
	c.settleMu.Lock()
	defer c.settleMu.Unlock()

	c.mu.Lock()
	if c.closed || gen != c.state.Generation {
		latest := c.state.Generation
		c.mu.Unlock()
		c.logger.Debug("Discarding superseded result",
			zap.Uint64("generation", gen),
			zap.Uint64("latest", latest))
		return
	}
	c.state.Result = v
	c.state.Err = err
	c.state.Loading = false
	hook := c.onSettle
	c.mu.Unlock()

	if hook != nil {
		hook(key, v, err)
	}
}

// State returns the current snapshot.
func (c *Coordinator[K, V]) State() State[K, V] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Key returns the current key and whether one was ever set.
func (c *Coordinator[K, V]) Key() (K, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Key, c.hasKey
}

// Close marks in-flight fetches cancelled. Their results are dropped and
// later Set calls are ignored.
func (c *Coordinator[K, V]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.state.Generation++
	c.state.Loading = false
}

// Wait blocks until every started fetch has completed or been discarded.
func (c *Coordinator[K, V]) Wait() {
	c.wg.Wait()
}
