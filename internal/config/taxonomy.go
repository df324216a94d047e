package config

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/crm-funnel-cli/internal/model"
)

// LoadTaxonomyFile reads a status taxonomy from a standalone YAML file.
// The file has a top-level "taxonomy" key:
//
//	taxonomy:
//	  statuses: [...]
//	  conversion: [...]
//	  lost: [...]
//	  in_progress: [...]
func LoadTaxonomyFile(path string) (model.Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Taxonomy{}, eris.Wrapf(err, "config: read taxonomy %s", path)
	}

	var wrapper struct {
		Taxonomy model.Taxonomy `yaml:"taxonomy"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return model.Taxonomy{}, eris.Wrap(err, "config: parse taxonomy")
	}

	tax := wrapper.Taxonomy
	if len(tax.Statuses) == 0 {
		return model.Taxonomy{}, eris.Errorf("config: taxonomy %s lists no statuses", path)
	}
	return tax, nil
}
