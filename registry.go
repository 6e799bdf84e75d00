package deq

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/GoCodeAlone/deq/persist"
)

// StoreFactory creates the property store of a newly created queue
type StoreFactory func(ctx context.Context, queueName string) (PropertyStore, error)

// Registry owns one Queue per name. It is safe for concurrent use; the queues
// it returns are not.
type Registry struct {
	mu        sync.Mutex
	queues    map[string]*Queue
	logger    Logger
	queueOpts []QueueOption
	stores    StoreFactory
}

// RegistryOption configures a Registry
type RegistryOption func(*Registry)

// WithRegistryLogger sets the logger used by the registry and handed to every
// queue it creates.
func WithRegistryLogger(logger Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithQueueOptions applies opts to every queue the registry creates
func WithQueueOptions(opts ...QueueOption) RegistryOption {
	return func(r *Registry) {
		r.queueOpts = append(r.queueOpts, opts...)
	}
}

// WithStoreFactory attaches a property store, built by factory, to every
// queue the registry creates.
func WithStoreFactory(factory StoreFactory) RegistryOption {
	return func(r *Registry) {
		r.stores = factory
	}
}

// WithBackend attaches a persist.PropertyStore over backend to every queue the
// registry creates. The registry logger is passed to each store unless opts
// set another.
func WithBackend(backend persist.Backend, opts ...persist.Option) RegistryOption {
	return func(r *Registry) {
		r.stores = func(_ context.Context, name string) (PropertyStore, error) {
			storeOpts := append([]persist.Option{persist.WithLogger(r.logger)}, opts...)
			return persist.NewPropertyStore(name, backend, storeOpts...)
		}
	}
}

// NewRegistry creates an empty registry
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		queues: make(map[string]*Queue),
		logger: noopLogger{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// GetOrCreate returns the queue called name, creating it on first use. The
// initial commands are submitted in order to the returned queue whether it
// was just created or already existed.
func (r *Registry) GetOrCreate(ctx context.Context, name string, initial ...Command) (*Queue, error) {
	if r == nil {
		return nil, ErrRegistryNil
	}
	if name == "" {
		return nil, ErrEmptyQueueName
	}

	q, err := r.getOrCreate(ctx, name)
	if err != nil {
		return nil, err
	}

	// Replay outside the lock: handlers may look up other queues.
	cmds := append([]Command(nil), initial...)
	q.SubmitBulk(ctx, &cmds)
	return q, nil
}

func (r *Registry) getOrCreate(ctx context.Context, name string) (*Queue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if q, ok := r.queues[name]; ok {
		return q, nil
	}

	opts := append([]QueueOption{WithLogger(r.logger)}, r.queueOpts...)
	if r.stores != nil {
		store, err := r.stores(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("create property store for queue %q: %w", name, err)
		}
		opts = append(opts, WithPropertyStore(store))
	}

	q := NewQueue(name, opts...)
	r.queues[name] = q
	r.logger.Info("Queue created", "queue", name, "persistent", r.stores != nil)
	return q, nil
}

// Get returns the queue called name if it exists
func (r *Registry) Get(name string) (*Queue, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.queues[name]
	return q, ok
}

// Names returns the names of every queue, sorted
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.queues))
	for name := range r.queues {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PerQueueStats returns a snapshot of every queue's counters keyed by name
func (r *Registry) PerQueueStats() map[string]Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]Stats, len(r.queues))
	for name, q := range r.queues {
		out[name] = q.Stats()
	}
	return out
}
