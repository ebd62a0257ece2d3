package leaf

import (
	"testing"

	"github.com/benjaminschreck/go-leaf/pkg/leaf/dom"
)

func tagModule(attr, value string) *Module {
	return NewModule(func(s *Session, _ ...ModuleFunc) error {
		s.DirectiveLogic("p", func(el *dom.Selection, _ Context) error {
			el.SetAttr(attr, value)
			return nil
		})
		return nil
	})
}

func TestInlineModules(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "leading comment",
			input: "<!-- modules: greet -->\n<p/>",
			want:  `<p greeted="yes"/>`,
		},
		{
			name:  "root attribute",
			input: `<p leaf-modules="greet"/>`,
			want:  `<p greeted="yes"/>`,
		},
		{
			name:  "comment listing several modules",
			input: "<!--modules: greet, mark--><p/>",
			want:  `<p greeted="yes" marked="yes"/>`,
		},
		{
			name:  "other comments are kept out of the root",
			input: "<!-- hello --><p/>",
			want:  `<p/>`,
		},
	}

	e := testEngine()
	opts := &Options{Modules: map[string]*Module{
		"greet": tagModule("greeted", "yes"),
		"mark":  tagModule("marked", "yes"),
	}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Parse(tt.input, nil, opts)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Parse() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestModuleRequiresLoadFirst(t *testing.T) {
	var order []string
	var depCount int

	e := testEngine()
	_, err := e.Parse("<p/>", func(s *Session) error {
		s.Module("base", NewModule(func(*Session, ...ModuleFunc) error {
			order = append(order, "base")
			return nil
		}))
		s.Module("theme", NewModule(func(_ *Session, deps ...ModuleFunc) error {
			order = append(order, "theme")
			depCount = len(deps)
			return nil
		}, "base"))
		if err := s.LoadModule("theme"); err != nil {
			return err
		}
		// already loaded
		return s.LoadModule("base")
	}, nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if len(order) != 2 || order[0] != "base" || order[1] != "theme" {
		t.Errorf("load order = %v, want [base theme]", order)
	}
	if depCount != 1 {
		t.Errorf("theme received %d deps, want 1", depCount)
	}
}

func TestModuleLoadedOnce(t *testing.T) {
	factoryCalls, loads := 0, 0
	shared := &Module{Factory: func(*Engine) ModuleFunc {
		factoryCalls++
		return func(*Session, ...ModuleFunc) error {
			loads++
			return nil
		}
	}}

	e := testEngine()
	_, err := e.Parse("<p/>", func(s *Session) error {
		s.Module("shared", shared)
		s.Module("a", NewModule(func(*Session, ...ModuleFunc) error { return nil }, "shared"))
		s.Module("b", NewModule(func(*Session, ...ModuleFunc) error { return nil }, "shared"))
		for _, name := range []string{"a", "b", "shared"} {
			if err := s.LoadModule(name); err != nil {
				return err
			}
		}
		return nil
	}, nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if factoryCalls != 1 || loads != 1 {
		t.Errorf("factory called %d times, module loaded %d times, want 1 and 1", factoryCalls, loads)
	}
}

func TestModuleErrors(t *testing.T) {
	noop := func(*Session, ...ModuleFunc) error { return nil }

	tests := []struct {
		name    string
		modules map[string]*Module
		load    string
		want    string
	}{
		{
			name: "cycle",
			modules: map[string]*Module{
				"a": NewModule(noop, "b"),
				"b": NewModule(noop, "a"),
			},
			load: "a",
			want: "cyclical dependency",
		},
		{
			name:    "self cycle",
			modules: map[string]*Module{"a": NewModule(noop, "a")},
			load:    "a",
			want:    "cyclical dependency",
		},
		{
			name:    "not found",
			modules: map[string]*Module{},
			load:    "missing",
			want:    "module 'missing': not found",
		},
		{
			name:    "missing requirement names parent",
			modules: map[string]*Module{"a": NewModule(noop, "missing")},
			load:    "a",
			want:    "module 'missing' (required by 'a'): not found",
		},
		{
			name:    "no factory",
			modules: map[string]*Module{"a": {}},
			load:    "a",
			want:    "invalid type",
		},
		{
			name: "factory returns nil",
			modules: map[string]*Module{"a": {Factory: func(*Engine) ModuleFunc {
				return nil
			}}},
			load: "a",
			want: "invalid type",
		},
		{
			name: "factory panics",
			modules: map[string]*Module{"a": {Factory: func(*Engine) ModuleFunc {
				panic("broken module")
			}}},
			load: "a",
			want: "panic recovered: broken module",
		},
	}

	e := testEngine()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Parse("<!-- modules: "+tt.load+" --><p/>", nil, &Options{Modules: tt.modules})
			if !IsModuleError(err) {
				t.Fatalf("Parse() error = %v, want ModuleError", err)
			}
			assertErrorContains(t, err, tt.want)
		})
	}
}

func TestModuleLookupOrder(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register("tag", tagModule("from", "registry")); err != nil {
		t.Fatal(err)
	}
	if err := registry.Register("global-only", tagModule("global", "yes")); err != nil {
		t.Fatal(err)
	}
	e := testEngine(WithRegistry(registry))

	got, err := e.Parse(`<p leaf-modules="tag global-only"/>`, nil, &Options{
		Modules: map[string]*Module{"tag": tagModule("from", "session")},
	})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if want := `<p from="session" global="yes"/>`; got != want {
		t.Errorf("Parse() = %q, want %q", got, want)
	}
}

func TestModuleFactoryReceivesEngine(t *testing.T) {
	var got *Engine
	e := testEngine(WithModule("probe", &Module{Factory: func(engine *Engine) ModuleFunc {
		got = engine
		return func(*Session, ...ModuleFunc) error { return nil }
	}}))

	if _, err := e.Parse(`<p leaf-modules="probe"/>`, nil, nil); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got != e {
		t.Error("factory did not receive the parsing engine")
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	if err := r.Register("", tagModule("a", "b")); err == nil {
		t.Error("Register with empty name should fail")
	}
	if err := r.Register("x", nil); err == nil {
		t.Error("Register with nil module should fail")
	}
	for _, name := range []string{"zeta", "alpha"} {
		if err := r.Register(name, tagModule("a", "b")); err != nil {
			t.Fatalf("Register(%s) error = %v", name, err)
		}
	}
	if _, ok := r.Get("alpha"); !ok {
		t.Error("Get(alpha) not found")
	}
	if names := r.List(); len(names) != 2 || names[0] != "alpha" || names[1] != "zeta" {
		t.Errorf("List() = %v", names)
	}
	if DefaultRegistry() != DefaultRegistry() {
		t.Error("DefaultRegistry() should return the same registry")
	}
}
