package schema

import (
	"embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed seed/categories.yaml
var seedFS embed.FS

// SeedCategory is one row of the category seed.
type SeedCategory struct {
	Name        string `yaml:"name" json:"name"`
	Slug        string `yaml:"slug" json:"slug"`
	Description string `yaml:"description" json:"description"`
	Icon        string `yaml:"icon" json:"icon"`
}

// SeedCategories returns the categories every fresh store starts with.
func SeedCategories() ([]SeedCategory, error) {
	data, err := seedFS.ReadFile("seed/categories.yaml")
	if err != nil {
		return nil, err
	}
	var out []SeedCategory
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse category seed: %w", err)
	}
	return out, nil
}
