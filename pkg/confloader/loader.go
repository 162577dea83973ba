package confloader

import (
	"errors"
	"fmt"
	"os"
	"reflect"

	"github.com/knadh/koanf/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/yndnr/layercfg/internal/telemetry/logger"
)

// Defaults for the load entry point.
const (
	DefaultEnvPrefix       = "APP_"
	DefaultNestedDelimiter = "__"
	DefaultConfigFolder    = "config/"
	DefaultAppEnv          = "local"
	DefaultFileName        = "default"
)

// Suffixes of the control variables; with the default prefix these are
// APP_CONFIG_PATH and APP_ENV.
const (
	envConfigPathSuffix = "CONFIG_PATH"
	envAppEnvSuffix     = "ENV"
)

// Loader resolves a typed configuration from layered sources.
//
// A Loader holds only options. Every Load call reads the environment and
// files afresh and shares no state with other calls.
type Loader struct {
	envPrefix       string
	nestedDelim     string
	cfgFolder       string
	appEnv          string
	defaultFileName string
	overrides       map[string]any
	dotenvFile      string
	order           OrderFunc
	log             logger.Logger
	optErr          error
}

// Option is a function that configures the Loader.
type Option func(*Loader)

// WithConfigFolder sets the directory holding the YAML files.
// APP_CONFIG_PATH takes priority over it.
func WithConfigFolder(dir string) Option {
	return func(l *Loader) {
		l.cfgFolder = dir
	}
}

// WithAppEnv sets the environment name. APP_ENV takes priority over it.
func WithAppEnv(appEnv string) Option {
	return func(l *Loader) {
		l.appEnv = appEnv
	}
}

// WithDefaultFileName sets the basename of the fallback YAML file.
func WithDefaultFileName(name string) Option {
	return func(l *Loader) {
		l.defaultFileName = name
	}
}

// WithOverrides sets explicit values with the highest precedence.
// Keys may be nested maps or dotted paths.
func WithOverrides(values map[string]any) Option {
	return func(l *Loader) {
		l.overrides = values
	}
}

// WithEnvPrefix sets the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(l *Loader) {
		l.envPrefix = prefix
	}
}

// WithNestedDelimiter sets the token separating nesting levels in
// environment variable names.
func WithNestedDelimiter(delim string) Option {
	return func(l *Loader) {
		l.nestedDelim = delim
	}
}

// WithDotenvFile adds a .env file below the process environment.
func WithDotenvFile(path string) Option {
	return func(l *Loader) {
		l.dotenvFile = path
	}
}

// WithSourceOrder replaces the precedence hook.
func WithSourceOrder(order OrderFunc) Option {
	return func(l *Loader) {
		l.order = order
	}
}

// WithLogger sets the logger. Loads are silent without one.
func WithLogger(z *zap.Logger) Option {
	return func(l *Loader) {
		l.log = logger.FromZap(z)
	}
}

// LogConfig configures the logger built by WithLogConfig: Level is one of
// debug, info, warn or error; Format is json or text.
type LogConfig = logger.Config

// DefaultLogConfig returns info-level JSON logging to stderr.
func DefaultLogConfig() LogConfig {
	return logger.DefaultConfig()
}

// WithLogConfig builds the loader's logger from cfg. It replaces any logger
// set by WithLogger; a construction failure is returned by Load.
func WithLogConfig(cfg LogConfig) Option {
	return func(l *Loader) {
		log, err := logger.New(cfg)
		if err != nil {
			l.optErr = fmt.Errorf("build logger: %w", err)
			return
		}
		l.log = log
	}
}

// NewLoader creates a new configuration loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		envPrefix:       DefaultEnvPrefix,
		nestedDelim:     DefaultNestedDelimiter,
		cfgFolder:       DefaultConfigFolder,
		appEnv:          DefaultAppEnv,
		defaultFileName: DefaultFileName,
		order:           DefaultOrder,
		log:             logger.Nop(),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Load resolves a new T from all sources.
func Load[T any](opts ...Option) (*T, error) {
	cfg := new(T)
	if err := NewLoader(opts...).Load(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load resolves configuration into target, a pointer to the schema struct.
//
// Sources are consulted in precedence order (see DefaultOrder); for each key
// the highest-precedence source that defines it wins, and nested maps merge
// key by key. Required fields left without a value, values that cannot be
// coerced (including null or empty values for numbers and bools), malformed
// files and failed validate tags all fail the load.
func (l *Loader) Load(target any) error {
	if l.optErr != nil {
		return l.optErr
	}
	if err := checkTarget(target); err != nil {
		return err
	}

	cfgFolder, appEnv := l.resolveControl()
	l.log.Info("loading config", "cfg_folder", cfgFolder, "app_env", appEnv)

	k, err := l.merge(l.order(l.sources(target, cfgFolder, appEnv)))
	if err != nil {
		return err
	}

	tree := k.Raw()
	fields := schemaFields(reflect.TypeOf(target))

	var missing error
	for _, path := range missingFields(tree, fields) {
		missing = multierr.Append(missing, ErrMissingField.WithDetails(path))
	}
	if missing != nil {
		return missing
	}
	if err := checkCoercion(tree, fields); err != nil {
		return err
	}

	if err := decode(k, target); err != nil {
		return err
	}
	if err := validateShape(target); err != nil {
		return err
	}

	l.log.Debug("config resolved", resolvedPairs(k)...)
	return nil
}

// resolveControl applies APP_CONFIG_PATH and APP_ENV over the configured
// folder and environment. A set-but-empty variable still overrides.
func (l *Loader) resolveControl() (cfgFolder, appEnv string) {
	cfgFolder, appEnv = l.cfgFolder, l.appEnv
	if v, ok := os.LookupEnv(l.envPrefix + envConfigPathSuffix); ok {
		cfgFolder = v
	}
	if v, ok := os.LookupEnv(l.envPrefix + envAppEnvSuffix); ok {
		appEnv = v
	}
	return cfgFolder, appEnv
}

// sources builds the candidate set for one load.
func (l *Loader) sources(target any, cfgFolder, appEnv string) Sources {
	overrides := make(map[string]any, len(l.overrides)+3)
	for k, v := range l.overrides {
		overrides[k] = v
	}
	overrides["cfg_folder"] = cfgFolder
	overrides["app_env"] = appEnv
	overrides["default_file_name"] = l.defaultFileName

	s := Sources{
		Overrides:   NewOverridesSource(overrides),
		Env:         NewEnvSource(l.envPrefix, l.nestedDelim),
		EnvFile:     NewYAMLFileSource(SourceEnvFile, ResolveYAMLPath(appEnv, cfgFolder)),
		DefaultFile: NewYAMLFileSource(SourceDefaultFile, ResolveYAMLPath(l.defaultFileName, cfgFolder)),
		Defaults:    NewDefaultsSource(target),
	}
	if l.dotenvFile != "" {
		s.Dotenv = NewDotenvSource(l.dotenvFile, l.envPrefix, l.nestedDelim)
	}
	return s
}

// merge loads sources into koanf from lowest to highest precedence, so a
// later Load (a higher-precedence source) overrides earlier keys.
func (l *Loader) merge(srcs []Source) (*koanf.Koanf, error) {
	k := koanf.New(".")

	for i := len(srcs) - 1; i >= 0; i-- {
		src := srcs[i]
		if src == nil {
			continue
		}

		tree, err := src.Read()
		if err != nil {
			var unavailable *UnavailableError
			switch {
			case errors.As(err, &unavailable):
				l.logUnavailable(src, unavailable)
				continue
			case IsCode(err, ""):
				return nil, err
			default:
				return nil, ErrSourceRead.WithDetails(src.Name()).Wrap(err)
			}
		}

		if len(tree) == 0 {
			l.log.Debug("config source empty", "source", src.Name())
			continue
		}

		if err := k.Load(treeProvider(tree), nil); err != nil {
			return nil, fmt.Errorf("merge source %s: %w", src.Name(), err)
		}
		l.log.Debug("config source applied", "source", src.Name())
	}

	return k, nil
}

func (l *Loader) logUnavailable(src Source, ue *UnavailableError) {
	if errors.Is(ue.Err, os.ErrNotExist) {
		l.log.Debug("config source not found, skipping", "source", src.Name(), "path", ue.Source)
		return
	}
	l.log.Warn("config source unreadable, skipping", "source", src.Name(), "path", ue.Source, "error", ue.Err)
}

// resolvedPairs flattens the merged configuration into key/value log args.
func resolvedPairs(k *koanf.Koanf) []any {
	keys := k.Keys()
	args := make([]any, 0, len(keys)*2)
	for _, key := range keys {
		args = append(args, key, k.Get(key))
	}
	return args
}
