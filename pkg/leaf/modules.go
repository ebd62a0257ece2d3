package leaf

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ModuleFunc is the second stage of a module: it registers directives,
// transforms and globals into a session. deps holds the ModuleFuncs of the
// modules listed in Requires, in order.
type ModuleFunc func(s *Session, deps ...ModuleFunc) error

// ModuleFactory is the first stage of a module. It runs once per session,
// the first time the module is demanded.
type ModuleFactory func(e *Engine) ModuleFunc

// Module is a named, loadable bundle of directives
type Module struct {
	// Requires lists modules loaded before this one
	Requires []string
	// Factory builds the module's ModuleFunc
	Factory ModuleFactory
}

// NewModule wraps a ModuleFunc that needs no first stage
func NewModule(fn ModuleFunc, requires ...string) *Module {
	return &Module{
		Requires: requires,
		Factory: func(*Engine) ModuleFunc {
			return fn
		},
	}
}

// ModuleRegistry manages modules available to every session of an engine
type ModuleRegistry interface {
	// Register adds a module under name, replacing any previous one
	Register(name string, m *Module) error

	// Get retrieves a module by name
	Get(name string) (*Module, bool)

	// List returns all registered module names, sorted
	List() []string
}

// Registry is the default implementation of ModuleRegistry
type Registry struct {
	modules map[string]*Module
	mutex   sync.RWMutex
}

// NewRegistry creates an empty module registry
func NewRegistry() *Registry {
	return &Registry{
		modules: make(map[string]*Module),
	}
}

func (r *Registry) Register(name string, m *Module) error {
	if name == "" {
		return fmt.Errorf("module name cannot be empty")
	}
	if m == nil {
		return fmt.Errorf("module %s cannot be nil", name)
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.modules[name] = m
	return nil
}

func (r *Registry) Get(name string) (*Module, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	m, exists := r.modules[name]
	return m, exists
}

func (r *Registry) List() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	names := make([]string, 0, len(r.modules))
	for name := range r.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var (
	globalModuleRegistry *Registry
	moduleRegistryOnce   sync.Once
)

// DefaultRegistry returns the process-wide module registry used by New()
func DefaultRegistry() *Registry {
	moduleRegistryOnce.Do(func() {
		globalModuleRegistry = NewRegistry()
	})
	return globalModuleRegistry
}

// Module adds a session-local module. Session modules shadow registry modules
// of the same name.
func (s *Session) Module(name string, m *Module) {
	s.modules[name] = m
}

// LoadModule loads a module and its requirements into the session. Loading
// an already loaded module does nothing.
func (s *Session) LoadModule(name string) error {
	_, err := s.loadModule(name, "", 0)
	return err
}

func (s *Session) lookupModule(name string) (*Module, bool) {
	if m, ok := s.modules[name]; ok {
		return m, true
	}
	if s.registry != nil {
		return s.registry.Get(name)
	}
	return nil, false
}

func (s *Session) loadModule(name, requiredBy string, depth int) (fn ModuleFunc, err error) {
	if depth > s.config.MaxModuleDepth {
		return nil, NewModuleError(name, requiredBy, "cyclical dependency detected", nil)
	}
	if fn, ok := s.loaded[name]; ok {
		return fn, nil
	}

	m, ok := s.lookupModule(name)
	if !ok {
		return nil, NewModuleError(name, requiredBy, "not found", nil)
	}
	if m == nil || m.Factory == nil {
		return nil, NewModuleError(name, requiredBy, "invalid type: module has no factory", nil)
	}

	defer func() {
		if r := recover(); r != nil {
			err = NewModuleError(name, requiredBy, "panicked while loading", RecoverError(r))
		}
	}()

	fn = m.Factory(s.engine)
	if fn == nil {
		return nil, NewModuleError(name, requiredBy, "invalid type: factory returned no module function", nil)
	}

	deps := make([]ModuleFunc, 0, len(m.Requires))
	for _, req := range m.Requires {
		dep, err := s.loadModule(req, name, depth+1)
		if err != nil {
			return nil, err
		}
		deps = append(deps, dep)
	}

	s.logger.WithFields(Fields{"module": name, "requires": strings.Join(m.Requires, ",")}).Debug("Loading module")
	if err := fn(s, deps...); err != nil {
		return nil, NewModuleError(name, requiredBy, "failed to load", err)
	}

	s.loaded[name] = fn
	return fn, nil
}
