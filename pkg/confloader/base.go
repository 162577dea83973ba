package confloader

// Base carries the control fields every schema receives. Embed it in the
// application schema:
//
//	type AppConfig struct {
//		confloader.Base
//		Name   string       `koanf:"name"`
//		Server ServerConfig `koanf:"server"`
//	}
//
// The loader always sets these fields to the values it resolved, so they
// reflect where the configuration actually came from.
type Base struct {
	// CfgFolder is the directory holding the YAML files.
	CfgFolder string `koanf:"cfg_folder" default:"config/"`

	// AppEnv selects the environment file ({cfg_folder}/{app_env}.yaml).
	AppEnv string `koanf:"app_env" default:"local"`

	// DefaultFileName is the basename of the fallback YAML file.
	DefaultFileName string `koanf:"default_file_name" default:"default"`
}
