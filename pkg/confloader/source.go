package confloader

import (
	"os"
	"reflect"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/maps"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
)

// Source produces a nested key/value tree for the merge step.
//
// Read returns an empty (or nil) map when the source has nothing to
// contribute. Returning an error wrapped with Unavailable makes the loader
// skip the source; any other error aborts the load.
type Source interface {
	Name() string
	Read() (map[string]any, error)
}

// Sources are the candidate sources of one load, handed to an OrderFunc.
// Dotenv is nil unless WithDotenvFile was given.
type Sources struct {
	Overrides   Source
	Env         Source
	Dotenv      Source
	EnvFile     Source
	DefaultFile Source
	Defaults    Source
}

// OrderFunc arranges sources by precedence, highest first. Nil entries are
// skipped, so an OrderFunc may also drop sources or append new ones.
type OrderFunc func(s Sources) []Source

// DefaultOrder is overrides > env > dotenv > env YAML > default YAML > tag defaults.
func DefaultOrder(s Sources) []Source {
	out := []Source{s.Overrides, s.Env}
	if s.Dotenv != nil {
		out = append(out, s.Dotenv)
	}
	return append(out, s.EnvFile, s.DefaultFile, s.Defaults)
}

// Source names.
const (
	SourceOverrides   = "overrides"
	SourceEnv         = "env"
	SourceDotenv      = "dotenv"
	SourceEnvFile     = "env_file"
	SourceDefaultFile = "default_file"
	SourceDefaults    = "defaults"
)

// overridesSource serves explicit values passed at load time.
type overridesSource struct {
	values map[string]any
}

// NewOverridesSource returns a source serving values. Keys may be nested
// maps or dotted paths ("server.host"); dotted keys win over a nested map
// for the same leaf.
func NewOverridesSource(values map[string]any) Source {
	return &overridesSource{values: values}
}

func (s *overridesSource) Name() string { return SourceOverrides }

func (s *overridesSource) Read() (map[string]any, error) {
	if len(s.values) == 0 {
		return nil, nil
	}

	nested := make(map[string]any)
	dotted := make(map[string]any)
	for k, v := range s.values {
		if strings.Contains(k, ".") {
			dotted[k] = v
		} else {
			nested[k] = v
		}
	}

	tree := maps.Copy(nested)
	maps.Merge(maps.Unflatten(maps.Copy(dotted), "."), tree)
	return tree, nil
}

// envSource reads prefixed process environment variables.
type envSource struct {
	prefix string
	delim  string
}

// NewEnvSource returns a source over the process environment.
func NewEnvSource(prefix, nestedDelim string) Source {
	return &envSource{prefix: prefix, delim: nestedDelim}
}

func (s *envSource) Name() string { return SourceEnv }

func (s *envSource) Read() (map[string]any, error) {
	// Prefix filtering happens in ParseEnvKey so it can ignore case.
	provider := env.ProviderWithValue("", ".", func(key, value string) (string, any) {
		path, ok := ParseEnvKey(key, s.prefix, s.delim)
		if !ok {
			return "", nil
		}
		return path, value
	})
	return provider.Read()
}

// ParseEnvKey maps an environment variable name to a dotted config path.
//
// The prefix is matched case-insensitively and stripped, the rest is
// lower-cased and split on the nested delimiter:
//
//	APP_SERVER__HOST -> server.host
//	app_default_file_name -> default_file_name
//
// Names without the prefix, or with an empty segment, are rejected.
func ParseEnvKey(name, prefix, nestedDelim string) (string, bool) {
	if len(name) <= len(prefix) || !strings.EqualFold(name[:len(prefix)], prefix) {
		return "", false
	}

	rest := strings.ToLower(name[len(prefix):])
	if nestedDelim == "" {
		return rest, true
	}

	parts := strings.Split(rest, strings.ToLower(nestedDelim))
	for _, p := range parts {
		if p == "" {
			return "", false
		}
	}
	return strings.Join(parts, "."), true
}

// envTree turns name=value pairs into a nested tree using ParseEnvKey.
func envTree(vars map[string]string, prefix, nestedDelim string) map[string]any {
	flat := make(map[string]any, len(vars))
	for name, value := range vars {
		if path, ok := ParseEnvKey(name, prefix, nestedDelim); ok {
			flat[path] = value
		}
	}
	if len(flat) == 0 {
		return nil
	}
	return maps.Unflatten(flat, ".")
}

// dotenvSource reads a .env file with the same key mapping as envSource.
type dotenvSource struct {
	path   string
	prefix string
	delim  string
}

// NewDotenvSource returns a source over a .env file.
func NewDotenvSource(path, prefix, nestedDelim string) Source {
	return &dotenvSource{path: path, prefix: prefix, delim: nestedDelim}
}

func (s *dotenvSource) Name() string { return SourceDotenv }

func (s *dotenvSource) Read() (map[string]any, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return nil, Unavailable(s.path, err)
	}

	vars, err := godotenv.UnmarshalBytes(b)
	if err != nil {
		return nil, ErrMalformedSource.WithDetails(s.path).Wrap(err)
	}
	return envTree(vars, s.prefix, s.delim), nil
}

// yamlFileSource reads one YAML file.
type yamlFileSource struct {
	name string
	path string
}

// NewYAMLFileSource returns a source over the YAML file at path.
func NewYAMLFileSource(name, path string) Source {
	return &yamlFileSource{name: name, path: path}
}

func (s *yamlFileSource) Name() string { return s.name }

func (s *yamlFileSource) Read() (map[string]any, error) {
	b, err := file.Provider(s.path).ReadBytes()
	if err != nil {
		return nil, Unavailable(s.path, err)
	}

	tree, err := yaml.Parser().Unmarshal(b)
	if err != nil {
		return nil, ErrMalformedSource.WithDetails(s.path).Wrap(err)
	}
	return tree, nil
}

// defaultsSource serves the default tags of a schema type.
type defaultsSource struct {
	typ reflect.Type
}

// NewDefaultsSource returns a source serving the default tags of target's type.
func NewDefaultsSource(target any) Source {
	return &defaultsSource{typ: reflect.TypeOf(target)}
}

func (s *defaultsSource) Name() string { return SourceDefaults }

func (s *defaultsSource) Read() (map[string]any, error) {
	flat := make(map[string]any)
	for _, f := range schemaFields(s.typ) {
		if f.hasDefault {
			flat[f.path()] = f.defaultValue
		}
	}
	if len(flat) == 0 {
		return nil, nil
	}
	return maps.Unflatten(flat, "."), nil
}
