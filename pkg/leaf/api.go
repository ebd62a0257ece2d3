package leaf

// Engine holds what every parse shares: configuration, the module registry,
// the template compiler and the file loader. Use New() to create one.
type Engine struct {
	config   *Config
	registry ModuleRegistry
	compiler TemplateCompiler
	loader   Loader
	cache    *Cache
	logger   *Logger
}

func compilerFor(config *Config) TemplateCompiler {
	compiler, err := CompilerByName(config.TemplateCompiler)
	if err != nil {
		Warn("%v, falling back to go templates", err)
		return &GoTemplateCompiler{}
	}
	return compiler
}

// New creates an engine with the global configuration and the default module
// registry.
func New() *Engine {
	config := GetGlobalConfig()
	return &Engine{
		config:   config,
		registry: DefaultRegistry(),
		compiler: compilerFor(config),
		loader:   OSLoader{},
		logger:   GetLogger(),
	}
}

// NewWithConfig creates an engine with a custom configuration and an empty
// module registry.
func NewWithConfig(config *Config) *Engine {
	config = NewConfigWithDefaults(config)
	return &Engine{
		config:   config,
		registry: NewRegistry(),
		compiler: compilerFor(config),
		loader:   OSLoader{},
		logger:   GetLogger(),
	}
}

// Config returns the engine's configuration
func (e *Engine) Config() *Config {
	return e.config
}

// Registry returns the engine's module registry
func (e *Engine) Registry() ModuleRegistry {
	return e.registry
}

// Logger returns the engine's logger
func (e *Engine) Logger() *Logger {
	return e.logger
}

// Loader returns the engine's file loader
func (e *Engine) Loader() Loader {
	return e.loader
}

// RegisterModule adds a module to the engine's registry
func (e *Engine) RegisterModule(name string, m *Module) error {
	return e.registry.Register(name, m)
}

// ClearCache empties the engine cache, if one was set with WithCache
func (e *Engine) ClearCache() {
	if e.cache != nil {
		e.cache.Clear()
	}
}

// Option represents a configuration option for the engine
type Option func(*Engine)

// WithConfig sets the engine configuration and the compiler it names
func WithConfig(config *Config) Option {
	return func(e *Engine) {
		e.config = NewConfigWithDefaults(config)
		e.compiler = compilerFor(e.config)
	}
}

// WithRegistry replaces the module registry
func WithRegistry(r ModuleRegistry) Option {
	return func(e *Engine) {
		e.registry = r
	}
}

// WithCompiler sets the compiler for string templates
func WithCompiler(c TemplateCompiler) Option {
	return func(e *Engine) {
		e.compiler = c
	}
}

// WithLoader sets the file loader
func WithLoader(l Loader) Option {
	return func(e *Engine) {
		e.loader = l
	}
}

// WithCache shares one cache across all parses of the engine. Loaded files
// and module config lookups are reused between parses. Compiled templates are
// keyed by directive uid, and every session registers its directives with
// fresh uids, so the "leaf-templates" namespace gains an entry per directive
// per parse and templates are recompiled each time, config file directives
// included. Call ClearCache to release them.
func WithCache(c *Cache) Option {
	return func(e *Engine) {
		e.cache = c
	}
}

// WithLogger sets the engine logger
func WithLogger(l *Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithModule registers a module in the engine's registry
func WithModule(name string, m *Module) Option {
	return func(e *Engine) {
		if err := e.registry.Register(name, m); err != nil {
			e.logger.Warn("Failed to register module %s: %v", name, err)
		}
	}
}

// NewWithOptions creates an engine from New() with the given options applied
func NewWithOptions(opts ...Option) *Engine {
	engine := New()
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

// Parse transforms input with a new default engine
func Parse(input string, transform func(s *Session) error, opts *Options) (string, error) {
	return New().Parse(input, transform, opts)
}

// ParseString transforms markup with a new default engine
func ParseString(markup string, opts *Options) (string, error) {
	return New().ParseString(markup, opts)
}

// ParseFile transforms a file with a new default engine
func ParseFile(path string, opts *Options) (string, error) {
	return New().ParseFile(path, opts)
}
