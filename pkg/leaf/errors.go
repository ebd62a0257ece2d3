package leaf

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrRemove is returned from a directive's Logic hook to remove the element
// from the tree. No further directives run on it and its children are not
// visited.
var ErrRemove = errors.New("leaf: remove element")

// InputError reports input that cannot be turned into a single root element
type InputError struct {
	Message string
	Path    string
	Cause   error
}

func (e *InputError) Error() string {
	msg := "input error"
	if e.Path != "" {
		msg += " in '" + e.Path + "'"
	}
	msg += ": " + e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *InputError) Unwrap() error {
	return e.Cause
}

// NewInputError creates a new input error
func NewInputError(message, path string, cause error) error {
	return &InputError{
		Message: message,
		Path:    path,
		Cause:   cause,
	}
}

// DirectiveError reports a directive whose template or hooks failed
type DirectiveError struct {
	Directives []string
	Message    string
	Cause      error
}

func (e *DirectiveError) Error() string {
	var msg string
	if len(e.Directives) == 1 {
		msg = fmt.Sprintf("directive '%s': %s", e.Directives[0], e.Message)
	} else {
		msg = fmt.Sprintf("directives [%s]: %s", strings.Join(e.Directives, ", "), e.Message)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *DirectiveError) Unwrap() error {
	return e.Cause
}

// NewDirectiveError creates a new directive error for a single directive
func NewDirectiveError(directive, message string, cause error) error {
	return &DirectiveError{
		Directives: []string{directive},
		Message:    message,
		Cause:      cause,
	}
}

// ModuleError reports a module that could not be found or loaded
type ModuleError struct {
	Module     string
	RequiredBy string
	Message    string
	Cause      error
}

func (e *ModuleError) Error() string {
	msg := fmt.Sprintf("module '%s'", e.Module)
	if e.RequiredBy != "" {
		msg += fmt.Sprintf(" (required by '%s')", e.RequiredBy)
	}
	msg += ": " + e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ModuleError) Unwrap() error {
	return e.Cause
}

// NewModuleError creates a new module error
func NewModuleError(module, requiredBy, message string, cause error) error {
	return &ModuleError{
		Module:     module,
		RequiredBy: requiredBy,
		Message:    message,
		Cause:      cause,
	}
}

// MergeError reports an attribute merge operator that does not exist
type MergeError struct {
	Attribute string
	Operator  string
}

func (e *MergeError) Error() string {
	return fmt.Sprintf("merge error: attribute '%s' uses undefined operator '%s' (want one of %s)",
		e.Attribute, e.Operator, strings.Join(mergeOperatorNames(), ", "))
}

// ExpansionDepthError reports directives nesting deeper than the configured bound
type ExpansionDepthError struct {
	Tag   string
	Max   int
	Chain []string
}

func (e *ExpansionDepthError) Error() string {
	msg := fmt.Sprintf("expansion depth exceeded at <%s>: more than %d nested directive applications", e.Tag, e.Max)
	if len(e.Chain) > 0 {
		msg += " (last: " + strings.Join(e.Chain, " > ") + ")"
	}
	return msg
}

// MultiError collects multiple errors
type MultiError struct {
	errors []error
}

// NewMultiError creates a new multi-error collector
func NewMultiError() *MultiError {
	return &MultiError{
		errors: make([]error, 0),
	}
}

// Add adds an error to the collection (ignores nil errors)
func (m *MultiError) Add(err error) {
	if err != nil {
		m.errors = append(m.errors, err)
	}
}

// Len returns the number of errors
func (m *MultiError) Len() int {
	return len(m.errors)
}

// Err returns the multi-error or nil if empty
func (m *MultiError) Err() error {
	if len(m.errors) == 0 {
		return nil
	}
	if len(m.errors) == 1 {
		return m.errors[0]
	}
	return m
}

// Unwrap exposes the collected errors to errors.Is and errors.As
func (m *MultiError) Unwrap() []error {
	return m.errors
}

func (m *MultiError) Error() string {
	if len(m.errors) == 0 {
		return "no errors"
	}

	if len(m.errors) == 1 {
		return m.errors[0].Error()
	}

	var parts []string
	parts = append(parts, fmt.Sprintf("%d errors occurred:", len(m.errors)))
	for i, err := range m.errors {
		parts = append(parts, fmt.Sprintf("  [%d] %v", i+1, err))
	}
	return strings.Join(parts, "\n")
}

// ContextError adds context to an existing error
type ContextError struct {
	Operation string
	Context   map[string]interface{}
	Cause     error
}

func (e *ContextError) Error() string {
	var contextParts []string
	for k, v := range e.Context {
		contextParts = append(contextParts, fmt.Sprintf("%s=%v", k, v))
	}
	sort.Strings(contextParts)

	if len(contextParts) > 0 {
		return fmt.Sprintf("%s [%s]: %v", e.Operation, strings.Join(contextParts, ", "), e.Cause)
	}
	return fmt.Sprintf("%s: %v", e.Operation, e.Cause)
}

func (e *ContextError) Unwrap() error {
	return e.Cause
}

// WithContext wraps an error with additional context
func WithContext(err error, operation string, context map[string]interface{}) error {
	if err == nil {
		return nil
	}
	return &ContextError{
		Operation: operation,
		Context:   context,
		Cause:     err,
	}
}

// RecoverError converts a panic recovery value to an error
func RecoverError(r interface{}) error {
	switch v := r.(type) {
	case error:
		return fmt.Errorf("panic recovered: %w", v)
	case string:
		return fmt.Errorf("panic recovered: %s", v)
	default:
		return fmt.Errorf("panic recovered: %v", v)
	}
}

// IsInputError checks if an error is or wraps an input error
func IsInputError(err error) bool {
	var target *InputError
	return errors.As(err, &target)
}

// IsDirectiveError checks if an error is or wraps a directive error
func IsDirectiveError(err error) bool {
	var target *DirectiveError
	return errors.As(err, &target)
}

// IsModuleError checks if an error is or wraps a module error
func IsModuleError(err error) bool {
	var target *ModuleError
	return errors.As(err, &target)
}

// IsMergeError checks if an error is or wraps a merge error
func IsMergeError(err error) bool {
	var target *MergeError
	return errors.As(err, &target)
}

// IsExpansionDepthError checks if an error is or wraps an expansion depth error
func IsExpansionDepthError(err error) bool {
	var target *ExpansionDepthError
	return errors.As(err, &target)
}
