package confloader

import (
	"os"
	"path/filepath"
)

const yamlExt = ".yaml"

// For mocking in tests
var osGetwd = os.Getwd

// ResolveYAMLPath returns {cwd}/{cfgFolder}/{filePrefix}.yaml.
//
// An absolute cfgFolder is used as is. The file is not checked for
// existence; a missing file is an empty source, not an error.
func ResolveYAMLPath(filePrefix, cfgFolder string) string {
	name := filePrefix + yamlExt
	if filepath.IsAbs(cfgFolder) {
		return filepath.Join(cfgFolder, name)
	}

	wd, err := osGetwd()
	if err != nil {
		return filepath.Join(cfgFolder, name)
	}
	return filepath.Join(wd, cfgFolder, name)
}
