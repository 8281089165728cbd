package catalog

import (
	_ "embed"

	"github.com/agentstation/utc"
	"github.com/goccy/go-yaml"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// defaultsDoc is the shape of the compiled-in defaults document.
type defaultsDoc struct {
	Categories []struct {
		Name  string `yaml:"name"`
		Color string `yaml:"color"`
	} `yaml:"categories"`
}

// DefaultCategories returns the categories seeded into an empty catalog,
// loaded from the compiled-in defaults document. Timestamps are set at
// call time; IDs are assigned by the persistence adapter on creation.
func DefaultCategories() []Category {
	var doc defaultsDoc
	if err := yaml.Unmarshal(defaultsYAML, &doc); err != nil {
		// The document is compiled in; failure to parse it is a build
		// defect, not a runtime condition.
		panic("catalog: invalid embedded defaults.yaml: " + err.Error())
	}

	now := utc.Now()
	categories := make([]Category, 0, len(doc.Categories))
	for _, c := range doc.Categories {
		categories = append(categories, Category{
			Name:      c.Name,
			Color:     c.Color,
			FileCount: 0,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return categories
}
