package reqflow

import (
	"gopkg.in/yaml.v3"
)

// OutlineYAML renders the use cases, flows and steps of model as YAML.
// It is meant for documentation and debugging; it cannot be loaded back.
func OutlineYAML(model *Model) ([]byte, error) {
	return yaml.Marshal(model.Outline())
}
