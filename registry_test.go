package deq

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/GoCodeAlone/deq/persist"
	"github.com/GoCodeAlone/deq/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_GetOrCreateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry()

	a, err := r.GetOrCreate(ctx, "main")
	require.NoError(t, err)
	b, err := r.GetOrCreate(ctx, "main")
	require.NoError(t, err)
	c, err := r.GetOrCreate(ctx, "other")
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, []string{"main", "other"}, r.Names())

	got, ok := r.Get("main")
	assert.True(t, ok)
	assert.Same(t, a, got)
	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestRegistry_ReplaysInitialCommands(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry()

	q, err := r.GetOrCreate(ctx, "main",
		NewAddEvent("early", nil),
		NewGlobalData(map[string]any{"site": "s"}),
		NewAddEvent("later", nil),
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"early", "later"}, eventNames(q.Events()))
	assert.NotContains(t, q.Events()[0].Data, "site")
	assert.Equal(t, "s", q.Events()[1].Data["site"])

	// Commands supplied for an existing queue are pushed into it too.
	again, err := r.GetOrCreate(ctx, "main", NewAddEvent("third", nil))
	require.NoError(t, err)
	assert.Same(t, q, again)
	assert.Equal(t, []string{"early", "later", "third"}, eventNames(q.Events()))
}

func TestRegistry_HandlersMayUseRegistry(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry()

	var forwarded []Event
	audit, err := r.GetOrCreate(ctx, "audit")
	require.NoError(t, err)
	audit.AddListener(ctx, "collector", ".*", collect(&forwarded), false)

	_, err = r.GetOrCreate(ctx, "main",
		NewAddListener("forwarder", "purchase", func(ctx context.Context, e Event) error {
			target, err := r.GetOrCreate(ctx, "audit")
			if err != nil {
				return err
			}
			target.AddEvent(ctx, "audit "+e.Name, nil)
			return nil
		}, false),
		NewAddEvent("purchase", nil),
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"audit purchase"}, eventNames(forwarded))
}

func TestRegistry_Errors(t *testing.T) {
	_, err := NewRegistry().GetOrCreate(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyQueueName)

	var nilRegistry *Registry
	_, err = nilRegistry.GetOrCreate(context.Background(), "x")
	assert.ErrorIs(t, err, ErrRegistryNil)

	factoryErr := errors.New("no store")
	r := NewRegistry(WithStoreFactory(func(context.Context, string) (PropertyStore, error) {
		return nil, factoryErr
	}))
	_, err = r.GetOrCreate(context.Background(), "x")
	assert.ErrorIs(t, err, factoryErr)
	assert.Empty(t, r.Names())
}

func TestRegistry_WithBackendSharesDurableData(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryEngine()

	first := NewRegistry(WithBackend(backend))
	q, err := first.GetOrCreate(ctx, "shop",
		NewPersistData(map[string]any{"visitor": "v1"}, ".*", persist.MustSeconds(3600), false),
	)
	require.NoError(t, err)
	require.NotNil(t, q.PropertyStore())

	// A new registry over the same backend models a new process.
	second := NewRegistry(WithBackend(backend))
	q2, err := second.GetOrCreate(ctx, "shop", NewAddEvent("visit", nil))
	require.NoError(t, err)
	assert.Equal(t, "v1", q2.Events()[0].Data["visitor"])

	// Queues are isolated by name.
	other, err := second.GetOrCreate(ctx, "blog", NewAddEvent("visit", nil))
	require.NoError(t, err)
	assert.NotContains(t, other.Events()[0].Data, "visitor")
}

func TestRegistry_QueueOptions(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry(WithQueueOptions(WithClock(func() time.Time { return testNow })))

	q, err := r.GetOrCreate(ctx, "main", NewAddEvent("e", nil))
	require.NoError(t, err)
	assert.Equal(t, testNow.UnixMilli(), q.Events()[0].Timestamp())
}

func TestRegistry_ConcurrentGetOrCreate(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry()

	const workers = 16
	queues := make([]*Queue, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			q, err := r.GetOrCreate(ctx, "shared")
			assert.NoError(t, err)
			queues[i] = q
		}(i)
	}
	wg.Wait()

	for _, q := range queues {
		assert.Same(t, queues[0], q)
	}
	assert.Len(t, r.PerQueueStats(), 1)
}
