// Package registry holds at most one datalog.Logger per widget id.
//
// A Registry is created once by the runtime and handed to everything that
// builds widgets, so all code paths for a widget share the same history
// instance.
package registry

import (
	"sort"
	"sync"
	"time"

	"github.com/rzbill/myriad/internal/datalog"
	"github.com/rzbill/myriad/internal/logstore"
	"github.com/rzbill/myriad/pkg/log"
)

// Options configures a Registry.
type Options struct {
	Store logstore.Store
	// DefaultLimitKB applies to loggers created without an explicit limit.
	// Zero selects datalog.DefaultLimitKB.
	DefaultLimitKB float64
	// KeyPrefix overrides datalog.DefaultKeyPrefix when set.
	KeyPrefix string
	Logger    log.Logger
	Metrics   datalog.Metrics
	// Clock stamps new records. Defaults to time.Now.
	Clock func() time.Time
}

// Registry maps widget ids to their shared Logger. Entries are never removed;
// disabling a widget's history clears the Logger instead.
type Registry struct {
	opts Options
	log  log.Logger

	mu        sync.Mutex
	instances map[string]*datalog.Logger
}

// New creates an empty Registry. It panics if opts.Store is nil.
func New(opts Options) *Registry {
	if opts.Store == nil {
		panic("registry: nil store")
	}
	if opts.DefaultLimitKB == 0 {
		opts.DefaultLimitKB = datalog.DefaultLimitKB
	}
	if opts.Logger == nil {
		opts.Logger = log.NewNopLogger()
	}
	return &Registry{
		opts:      opts,
		log:       opts.Logger.WithComponent("registry"),
		instances: make(map[string]*datalog.Logger),
	}
}

// GetOrCreate returns the Logger for widgetID, creating it with the default
// limit if needed. An existing Logger keeps its current limit.
func (r *Registry) GetOrCreate(widgetID string) *datalog.Logger {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getOrCreateLocked(widgetID, r.opts.DefaultLimitKB)
}

// GetOrCreateWithLimit returns the Logger for widgetID and applies limitKB
// to it, whether it was just created or already shared by other holders.
func (r *Registry) GetOrCreateWithLimit(widgetID string, limitKB float64) *datalog.Logger {
	r.mu.Lock()
	defer r.mu.Unlock()
	l := r.getOrCreateLocked(widgetID, limitKB)
	l.SetLimit(limitKB)
	return l
}

func (r *Registry) getOrCreateLocked(widgetID string, limitKB float64) *datalog.Logger {
	if l, ok := r.instances[widgetID]; ok {
		return l
	}
	opts := []datalog.Option{datalog.WithLogger(r.opts.Logger)}
	if r.opts.KeyPrefix != "" {
		opts = append(opts, datalog.WithKeyPrefix(r.opts.KeyPrefix))
	}
	if r.opts.Clock != nil {
		opts = append(opts, datalog.WithClock(r.opts.Clock))
	}
	if r.opts.Metrics != nil {
		opts = append(opts, datalog.WithMetrics(r.opts.Metrics))
	}
	l := datalog.New(r.opts.Store, widgetID, limitKB, opts...)
	r.instances[widgetID] = l
	r.log.Debug("logger created", log.Widget(widgetID), log.Int("records", l.Len()))
	return l
}

// Lookup returns the Logger for widgetID without creating one.
func (r *Registry) Lookup(widgetID string) (*datalog.Logger, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.instances[widgetID]
	return l, ok
}

// IDs returns the ids of all live loggers, sorted.
func (r *Registry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.instances))
	for id := range r.instances {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// DefaultLimitKB returns the limit used by GetOrCreate for new loggers.
func (r *Registry) DefaultLimitKB() float64 { return r.opts.DefaultLimitKB }

// KeyPrefix returns the store key prefix of every logger in the registry.
func (r *Registry) KeyPrefix() string {
	if r.opts.KeyPrefix != "" {
		return r.opts.KeyPrefix
	}
	return datalog.DefaultKeyPrefix
}
