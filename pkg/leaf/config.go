package leaf

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config contains all configuration options for the leaf engine
type Config struct {
	// LogLevel controls the verbosity of logging (debug, info, warn, error, off)
	LogLevel string
	// Debug adds a leaf-directive attribute listing the directives applied to each element
	Debug bool
	// MaxExpansionDepth bounds how many directive applications may nest on one branch
	MaxExpansionDepth int
	// MaxModuleDepth bounds the module dependency chain before it is reported as cyclical
	MaxModuleDepth int
	// TemplateCompiler names the compiler for string templates (go, handlebars, none)
	TemplateCompiler string
	// OutputFormat is the default serializer (xml, html)
	OutputFormat string
	// ContentTag is the placeholder element replaced by an element's children on merge
	ContentTag string
}

var (
	globalConfig      *Config
	globalConfigMutex sync.RWMutex
	configOnce        sync.Once
)

func init() {
	configOnce.Do(func() {
		globalConfig = ConfigFromEnvironment()
	})
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		LogLevel:          "info",
		Debug:             false,
		MaxExpansionDepth: 100,
		MaxModuleDepth:    10,
		TemplateCompiler:  "go",
		OutputFormat:      "xml",
		ContentTag:        DefaultContentTag,
	}
}

// ConfigFromEnvironment creates a configuration from environment variables
func ConfigFromEnvironment() *Config {
	config := DefaultConfig()

	// LEAF_LOG_LEVEL
	if val := os.Getenv("LEAF_LOG_LEVEL"); val != "" {
		config.LogLevel = strings.ToLower(val)
	}

	// LEAF_DEBUG
	if val := os.Getenv("LEAF_DEBUG"); val != "" {
		config.Debug = parseBool(val)
	}

	// LEAF_MAX_EXPANSION_DEPTH
	if val := os.Getenv("LEAF_MAX_EXPANSION_DEPTH"); val != "" {
		if depth, err := strconv.Atoi(val); err == nil {
			config.MaxExpansionDepth = depth
		}
	}

	// LEAF_MAX_MODULE_DEPTH
	if val := os.Getenv("LEAF_MAX_MODULE_DEPTH"); val != "" {
		if depth, err := strconv.Atoi(val); err == nil {
			config.MaxModuleDepth = depth
		}
	}

	// LEAF_TEMPLATE_COMPILER
	if val := os.Getenv("LEAF_TEMPLATE_COMPILER"); val != "" {
		config.TemplateCompiler = strings.ToLower(val)
	}

	// LEAF_OUTPUT_FORMAT
	if val := os.Getenv("LEAF_OUTPUT_FORMAT"); val != "" {
		config.OutputFormat = strings.ToLower(val)
	}

	// LEAF_CONTENT_TAG
	if val := os.Getenv("LEAF_CONTENT_TAG"); val != "" {
		config.ContentTag = val
	}

	return config
}

// NewConfigWithDefaults creates a new configuration with defaults applied to unset fields
func NewConfigWithDefaults(overrides *Config) *Config {
	defaults := DefaultConfig()

	if overrides == nil {
		return defaults
	}

	config := *overrides

	if config.LogLevel == "" {
		config.LogLevel = defaults.LogLevel
	}
	if config.MaxExpansionDepth == 0 {
		config.MaxExpansionDepth = defaults.MaxExpansionDepth
	}
	if config.MaxModuleDepth == 0 {
		config.MaxModuleDepth = defaults.MaxModuleDepth
	}
	if config.TemplateCompiler == "" {
		config.TemplateCompiler = defaults.TemplateCompiler
	}
	if config.OutputFormat == "" {
		config.OutputFormat = defaults.OutputFormat
	}
	if config.ContentTag == "" {
		config.ContentTag = defaults.ContentTag
	}

	return &config
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"off":   true,
	}
	if !validLogLevels[c.LogLevel] {
		return errors.New("invalid log level: " + c.LogLevel)
	}

	if c.MaxExpansionDepth <= 0 {
		return errors.New("max expansion depth must be positive")
	}

	if c.MaxModuleDepth <= 0 {
		return errors.New("max module depth must be positive")
	}

	switch c.TemplateCompiler {
	case "go", "handlebars", "none":
	default:
		return errors.New("invalid template compiler: " + c.TemplateCompiler)
	}

	switch c.OutputFormat {
	case "xml", "html":
	default:
		return errors.New("invalid output format: " + c.OutputFormat)
	}

	if c.ContentTag == "" {
		return errors.New("content tag cannot be empty")
	}

	return nil
}

// GetGlobalConfig returns the global configuration
func GetGlobalConfig() *Config {
	globalConfigMutex.RLock()
	defer globalConfigMutex.RUnlock()

	if globalConfig == nil {
		return DefaultConfig()
	}

	// Return a copy to prevent modification
	configCopy := *globalConfig
	return &configCopy
}

// SetGlobalConfig sets the global configuration
func SetGlobalConfig(config *Config) {
	globalConfigMutex.Lock()
	globalConfig = config
	globalConfigMutex.Unlock()

	// Outside the lock, the logger reads the config back
	UpdateLoggerFromConfig()
}

// parseBool parses a boolean value from a string
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}
