package roleseer

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// decode unmarshals a role document into a map, picking the codec by the
// path suffix. Only .yaml and .json are supported.
func decode(path string, data []byte) (map[string]interface{}, error) {
	contents := make(map[string]interface{})
	switch filepath.Ext(path) {
	case ".yaml":
		if err := yaml.Unmarshal(data, &contents); err != nil {
			return nil, err
		}
	case ".json":
		if err := json.Unmarshal(data, &contents); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	return contents, nil
}
