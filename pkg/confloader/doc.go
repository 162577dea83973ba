// Package confloader resolves a typed application configuration from
// layered sources, using koanf as the merge engine.
//
// Priority (highest to lowest):
//
//  1. Explicit overrides (WithOverrides)
//  2. Environment variables (APP_FIELD, APP_PARENT__CHILD; case-insensitive)
//  3. Optional .env file (WithDotenvFile)
//  4. Environment file: {cfg_folder}/{app_env}.yaml
//  5. Default file: {cfg_folder}/{default_file_name}.yaml
//  6. Schema defaults (`default:"..."` struct tags)
//
// The folder and environment name default to "config/" and "local" and
// are overridden by APP_CONFIG_PATH and APP_ENV.
//
// For each key the first source in that order that defines it wins, and
// nested sections merge key by key: a higher source setting server.host
// leaves server.port from a lower source in place. A key that is present
// wins even when its value is empty or zero.
//
// A schema is a plain struct embedding Base:
//
//	type ServerConfig struct {
//		Host string `koanf:"host"`
//		Port int    `koanf:"port" default:"8080"`
//	}
//
//	type AppConfig struct {
//		confloader.Base
//		Name   string       `koanf:"name"`
//		Server ServerConfig `koanf:"server"`
//	}
//
//	cfg, err := confloader.Load[AppConfig]()
//
// Leaf fields are required unless they carry a default tag, are pointers,
// or are tagged ",omitempty". Missing files contribute nothing; malformed
// files, missing required fields, values that cannot be coerced and failed
// `validate:"..."` constraints abort the load with an *Error.
//
// Sources are pluggable: WithSourceOrder receives the built-in candidates
// and returns the ordered list, so a new Source can be slotted in without
// touching the merge.
package confloader
