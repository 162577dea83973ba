package confloader

import "errors"

var errTreeHasNoBytes = errors.New("confloader: source tree is already parsed")

// treeProvider adapts the tree returned by Source.Read to koanf.Provider.
// merge loads it with a nil parser, so koanf only ever calls Read.
type treeProvider map[string]any

func (t treeProvider) ReadBytes() ([]byte, error) {
	return nil, errTreeHasNoBytes
}

func (t treeProvider) Read() (map[string]any, error) {
	return t, nil
}
