package leaf

import (
	"io"
	"strings"
	"testing"
)

// testEngine returns an engine with default configuration, its own registry
// and a silent logger
func testEngine(opts ...Option) *Engine {
	e := NewWithConfig(DefaultConfig())
	e.logger = NewLogger(io.Discard, LogOff)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func mustParse(t *testing.T, e *Engine, input string, transform func(s *Session) error) string {
	t.Helper()
	out, err := e.Parse(input, transform, nil)
	if err != nil {
		t.Fatalf("Parse(%q) error = %v", input, err)
	}
	return out
}

func assertErrorContains(t *testing.T, err error, want string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error containing %q, got nil", want)
	}
	if !strings.Contains(err.Error(), want) {
		t.Errorf("error = %q, want it to contain %q", err.Error(), want)
	}
}
