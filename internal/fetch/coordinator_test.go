package fetch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type key struct {
	ID   int64
	When string
}

func complete(k key) bool { return k.ID != 0 && k.When != "" }

// gate lets a test release each fetch individually.
type gate struct {
	mu      sync.Mutex
	release map[key]chan string
	calls   atomic.Int32
}

func newGate() *gate {
	return &gate{release: map[key]chan string{}}
}

func (g *gate) ch(k key) chan string {
	g.mu.Lock()
	defer g.mu.Unlock()
	c, ok := g.release[k]
	if !ok {
		c = make(chan string, 1)
		g.release[k] = c
	}
	return c
}

func (g *gate) fetch(_ context.Context, k key) (string, error) {
	g.calls.Add(1)
	v := <-g.ch(k)
	if v == "fail" {
		return "", errors.New("boom")
	}
	return v, nil
}

func TestSetAppliesResult(t *testing.T) {
	g := newGate()
	c := New(g.fetch, Options[key, string]{Complete: complete})

	k := key{1, "2024-06-01T23:00"}
	require.True(t, c.Set(k))
	st := c.State()
	assert.True(t, st.Loading)
	assert.Equal(t, k, st.Key)

	g.ch(k) <- "saturn"
	c.Wait()

	st = c.State()
	assert.False(t, st.Loading)
	assert.NoError(t, st.Err)
	assert.Equal(t, "saturn", st.Result)
}

func TestSameKeyIsNoop(t *testing.T) {
	g := newGate()
	c := New(g.fetch, Options[key, string]{Complete: complete})
	k := key{1, "t"}

	require.True(t, c.Set(k))
	assert.False(t, c.Set(k))
	g.ch(k) <- "v"
	c.Wait()
	assert.Equal(t, int32(1), g.calls.Load())
}

func TestStaleResponseIsDiscarded(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	g := newGate()
	var settled []string
	var mu sync.Mutex
	c := New(g.fetch, Options[key, string]{
		Complete: complete,
		Logger:   zap.New(core),
		OnSettle: func(_ key, v string, _ error) {
			mu.Lock()
			settled = append(settled, v)
			mu.Unlock()
		},
	})

	a, b := key{1, "a"}, key{2, "b"}
	c.Set(a)
	c.Set(b)

	// B completes first, then A's late response arrives.
	g.ch(b) <- "from-b"
	g.ch(a) <- "from-a"
	c.Wait()

	st := c.State()
	assert.Equal(t, b, st.Key)
	assert.Equal(t, "from-b", st.Result)
	assert.Equal(t, []string{"from-b"}, settled)
	assert.Equal(t, 1, logs.FilterMessage("Discarding superseded result").Len())
}

func TestIncompleteKeyClearsResult(t *testing.T) {
	g := newGate()
	var hookCalls atomic.Int32
	c := New(g.fetch, Options[key, string]{
		Complete: complete,
		OnSettle: func(key, string, error) { hookCalls.Add(1) },
	})

	k := key{1, "t"}
	c.Set(k)
	g.ch(k) <- "held"
	c.Wait()
	require.Equal(t, "held", c.State().Result)

	c.Set(key{1, ""})
	st := c.State()
	assert.Empty(t, st.Result)
	assert.False(t, st.Loading)
	assert.NoError(t, st.Err)

	c.Wait()
	assert.Equal(t, int32(1), g.calls.Load(), "incomplete key must not fetch")
	assert.Equal(t, int32(2), hookCalls.Load())
}

func TestIncompleteKeySupersedesInFlight(t *testing.T) {
	g := newGate()
	c := New(g.fetch, Options[key, string]{Complete: complete})

	k := key{1, "t"}
	c.Set(k)
	c.Set(key{})
	g.ch(k) <- "late"
	c.Wait()

	assert.Empty(t, c.State().Result)
}

func TestErrorIsApplied(t *testing.T) {
	g := newGate()
	c := New(g.fetch, Options[key, string]{Complete: complete})
	k := key{1, "t"}
	c.Set(k)
	g.ch(k) <- "fail"
	c.Wait()

	st := c.State()
	assert.EqualError(t, st.Err, "boom")
	assert.Empty(t, st.Result)
	assert.False(t, st.Loading)
}

func TestRefreshRefetchesSameKey(t *testing.T) {
	g := newGate()
	c := New(g.fetch, Options[key, string]{Complete: complete})
	k := key{1, "t"}
	c.Set(k)
	g.ch(k) <- "first"
	c.Wait()

	c.Refresh()
	assert.True(t, c.State().Loading)
	g.ch(k) <- "second"
	c.Wait()

	assert.Equal(t, "second", c.State().Result)
	assert.Equal(t, int32(2), g.calls.Load())
}

func TestCloseSuppressesApplication(t *testing.T) {
	g := newGate()
	var hookCalls atomic.Int32
	c := New(g.fetch, Options[key, string]{
		Complete: complete,
		OnSettle: func(key, string, error) { hookCalls.Add(1) },
	})
	k := key{1, "t"}
	c.Set(k)
	c.Close()
	g.ch(k) <- "after-close"
	c.Wait()

	assert.Empty(t, c.State().Result)
	assert.Zero(t, hookCalls.Load())
	assert.False(t, c.Set(key{2, "t"}))
}

func TestNilCompleteFetchesEveryKey(t *testing.T) {
	calls := 0
	c := New(func(_ context.Context, k int) (int, error) {
		calls++
		return k * 2, nil
	}, Options[int, int]{})

	c.Set(0)
	c.Wait()
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, c.State().Result)

	got, ok := c.Key()
	assert.True(t, ok)
	assert.Equal(t, 0, got)
}
