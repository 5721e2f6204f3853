// Package service implements the graph client service: enable/disable
// lifecycle, script-cache ownership, and the per-call query executor.
package service

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/graphwire/graphwire/internal/cluster"
	"github.com/graphwire/graphwire/internal/config"
	"github.com/graphwire/graphwire/internal/driver"
	"github.com/graphwire/graphwire/internal/graph"
	"github.com/graphwire/graphwire/internal/script"
)

var errNotEnabled = errors.New("service: not enabled")

// DriverFactory builds the shared driver handle for a descriptor. The
// default factory dials nothing; connections open lazily per session.
type DriverFactory func(desc *cluster.Descriptor) (driver.Driver, error)

// Option configures a Service.
type Option func(*Service)

// WithLogger overrides the logger used for lifecycle messages.
func WithLogger(logger *log.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithEngine swaps the scripting backend.
func WithEngine(engine script.Engine) Option {
	return func(s *Service) { s.engine = engine }
}

// WithDriverFactory swaps the remote-driver construction.
func WithDriverFactory(factory DriverFactory) Option {
	return func(s *Service) { s.factory = factory }
}

// WithTLSMaterial registers a TLS material provider under a name the
// "tls" option can reference.
func WithTLSMaterial(name string, material config.TLSMaterial) Option {
	return func(s *Service) { s.materials[name] = material }
}

// Service is the client service instance. All lifecycle state lives on
// the struct; Enable and Disable swap it as a unit.
type Service struct {
	logger    *log.Logger
	engine    script.Engine
	factory   DriverFactory
	materials map[string]config.TLSMaterial

	mu    sync.RWMutex
	desc  *cluster.Descriptor
	drv   driver.Driver
	cache *script.Cache
}

var _ graph.ClientService = (*Service)(nil)

// New creates a disabled service. The zero configuration uses the goja
// scripting backend and the WebSocket driver.
func New(opts ...Option) *Service {
	s := &Service{
		logger:    log.Default(),
		engine:    script.NewGojaEngine(),
		factory:   defaultDriverFactory,
		materials: make(map[string]config.TLSMaterial),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func defaultDriverFactory(desc *cluster.Descriptor) (driver.Driver, error) {
	tlsCfg, err := desc.TLSClientConfig()
	if err != nil {
		return nil, err
	}
	return driver.NewWebSocket(driver.Config{
		Hosts: desc.ContactPoints(),
		Port:  desc.Port(),
		Path:  desc.Path(),
		TLS:   tlsCfg,
	})
}

// Enable builds the connection descriptor from the host-supplied options
// and prepares an empty script cache. The remote server is not contacted
// here; sessions are dialed per query. The host serializes Enable and
// Disable calls.
func (s *Service) Enable(options map[string]string) error {
	settings, err := config.Parse(options, s.materials)
	if err != nil {
		return graph.WrapError(graph.ErrConfiguration, err)
	}
	desc, err := cluster.Build(settings)
	if err != nil {
		return graph.WrapError(graph.ErrConfiguration, err)
	}
	drv, err := s.factory(desc)
	if err != nil {
		return graph.WrapError(graph.ErrConfiguration, err)
	}

	s.mu.Lock()
	s.desc = desc
	s.drv = drv
	s.cache = script.NewCache(s.engine)
	s.mu.Unlock()

	s.logger.Printf("graphwire: enabled, transit url %s", desc.TransitURL())
	return nil
}

// Disable discards the script cache and descriptor and closes the shared
// driver handle. State is cleared even when the close fails.
func (s *Service) Disable() error {
	s.mu.Lock()
	drv := s.drv
	s.drv = nil
	s.cache = nil
	s.desc = nil
	s.mu.Unlock()

	if drv == nil {
		return nil
	}
	if err := drv.Close(); err != nil {
		return graph.WrapError(graph.ErrShutdown, err)
	}
	s.logger.Printf("graphwire: disabled")
	return nil
}

// ExecuteQuery runs one query fragment against the remote server: open a
// session, resolve the compiled unit, bind parameters plus the reserved
// traversal handle, evaluate, and deliver the normalized row through cb
// with no further results. The session is closed on every exit path. The
// returned map is empty on success, mirroring the callback-only result
// contract.
func (s *Service) ExecuteQuery(ctx context.Context, scriptText string, params map[string]any, cb graph.ResultCallback) (result map[string]string, retErr error) {
	s.mu.RLock()
	desc, drv, cache := s.desc, s.drv, s.cache
	s.mu.RUnlock()
	if drv == nil || cache == nil {
		return nil, graph.WrapError(graph.ErrConnection, errNotEnabled)
	}

	sess, err := drv.OpenSession(ctx, desc.TraversalSource())
	if err != nil {
		return nil, graph.WrapError(graph.ErrConnection, err)
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil && retErr == nil {
			result = nil
			retErr = graph.WrapError(graph.ErrConnection, cerr)
		}
	}()

	unit, err := cache.GetOrCompile(scriptText)
	if err != nil {
		return nil, graph.WrapError(graph.ErrCompilation, err)
	}

	bindings := make(map[string]any, len(params)+1)
	for name, value := range params {
		bindings[name] = value
	}
	// The traversal handle wins over a caller parameter of the same name.
	bindings[graph.TraversalBinding] = &Traversal{ctx: ctx, sess: sess}

	value, err := s.engine.Evaluate(unit, bindings)
	if err != nil {
		return nil, graph.WrapError(graph.ErrExecution, err)
	}

	if err := cb(graph.Normalize(value), false); err != nil {
		return nil, graph.WrapError(graph.ErrExecution, err)
	}
	return map[string]string{}, nil
}

// TransitURL returns the descriptor's derived URL, or "" while disabled.
func (s *Service) TransitURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.desc == nil {
		return ""
	}
	return s.desc.TransitURL()
}
