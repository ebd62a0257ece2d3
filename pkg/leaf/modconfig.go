package leaf

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/benjaminschreck/go-leaf/pkg/leaf/dom"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// ModulesConfigNames are the file names searched for module declarations,
// in order of preference within one directory.
var ModulesConfigNames = []string{
	"leaf-modules.yaml",
	"leaf-modules.yml",
	"leaf-modules.jsonc",
	"leaf-modules.json",
}

type modulesFile struct {
	Modules map[string]moduleSpec `yaml:"modules" json:"modules"`
}

type moduleSpec struct {
	Requires   []string               `yaml:"requires" json:"requires"`
	Globals    map[string]interface{} `yaml:"globals" json:"globals"`
	Directives []directiveSpec        `yaml:"directives" json:"directives"`
}

type directiveSpec struct {
	Name     string                 `yaml:"name" json:"name"`
	Template string                 `yaml:"template" json:"template"`
	Context  map[string]interface{} `yaml:"context" json:"context"`
	Source   string                 `yaml:"source" json:"source"`
	Merge    *mergeSpec             `yaml:"merge" json:"merge"`
	Remove   bool                   `yaml:"remove" json:"remove"`
}

type mergeSpec struct {
	ContentTag string            `yaml:"contentTag" json:"contentTag"`
	Attributes map[string]string `yaml:"attributes" json:"attributes"`
}

// LoadModulesConfig reads a module declaration file. The format follows the
// extension: .yaml/.yml are YAML, .json/.jsonc are JSON with comments allowed.
func LoadModulesConfig(path string, loader Loader) (map[string]*Module, error) {
	content, err := loader.Load(path)
	if err != nil {
		return nil, err
	}
	return parseModulesConfig(path, []byte(content))
}

func parseModulesConfig(path string, data []byte) (map[string]*Module, error) {
	name := filepath.Base(path)
	var file modulesFile

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var root yaml.Node
		if err := yaml.Unmarshal(data, &root); err != nil {
			return nil, NewModuleError(name, "", "config could not be parsed", err)
		}
		if len(root.Content) == 0 {
			return map[string]*Module{}, nil
		}
		if root.Content[0].Kind != yaml.MappingNode {
			return nil, NewModuleError(name, "", "config must be a mapping of module names to modules", nil)
		}
		if err := root.Content[0].Decode(&file); err != nil {
			return nil, NewModuleError(name, "", "config could not be decoded", err)
		}
	default:
		data = jsonc.ToJSON(data)
		if len(strings.TrimSpace(string(data))) == 0 {
			return map[string]*Module{}, nil
		}
		var raw interface{}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, NewModuleError(name, "", "config could not be parsed", err)
		}
		if _, ok := raw.(map[string]interface{}); !ok {
			return nil, NewModuleError(name, "", "config must be a mapping of module names to modules", nil)
		}
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, NewModuleError(name, "", "config could not be decoded", err)
		}
	}

	dir := filepath.Dir(path)
	modules := make(map[string]*Module, len(file.Modules))
	for modName, spec := range file.Modules {
		for i, d := range spec.Directives {
			if d.Name == "" {
				return nil, NewModuleError(modName, "", fmt.Sprintf("directive %d in %s has no name", i, name), nil)
			}
		}
		modules[modName] = NewModule(spec.moduleFunc(dir), spec.Requires...)
	}
	return modules, nil
}

func (spec moduleSpec) moduleFunc(dir string) ModuleFunc {
	return func(s *Session, _ ...ModuleFunc) error {
		for k, v := range spec.Globals {
			s.Globals[k] = v
		}
		for _, d := range spec.Directives {
			s.Directive(d.directive(dir))
		}
		return nil
	}
}

func (d directiveSpec) directive(dir string) Directive {
	out := Directive{
		Name:    d.Name,
		Context: Context(d.Context),
	}
	base := dir + string(filepath.Separator)
	if d.Source != "" {
		out.Source = resolvePath(d.Source, base)
	}
	if d.Template != "" {
		out.Template = TemplateString(d.Template)
		// file templates are relative to the config file, not to source
		out.templateDir = base
	}
	if d.Merge != nil {
		out.MergeOptions = &MergeOptions{
			ContentTag: d.Merge.ContentTag,
			Attributes: d.Merge.Attributes,
		}
	}
	if d.Remove {
		out.Logic = func(*dom.Selection, Context) error { return ErrRemove }
	}
	return out
}

// findModulesConfig walks from startDir to the filesystem root and returns
// the modules declared in the nearest config file. Results are memoized per
// start directory. No file yields an empty mapping.
func findModulesConfig(startDir string, loader Loader, cache *Cache) (map[string]*Module, error) {
	v, err := cache.NS("module-configs").Memo(startDir, func() (interface{}, error) {
		dir := filepath.Clean(startDir)
		for {
			for _, name := range ModulesConfigNames {
				path := filepath.Join(dir, name)
				content, err := loader.Load(path)
				if err == nil {
					Debug("Found module config %s", path)
					return parseModulesConfig(path, []byte(content))
				}
				if !errors.Is(err, fs.ErrNotExist) {
					return nil, NewModuleError(name, "", "config could not be read", err)
				}
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				return map[string]*Module{}, nil
			}
			dir = parent
		}
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]*Module), nil
}
