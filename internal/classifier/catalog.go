package classifier

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Category is one closed-set intent label with the keywords the stub model
// matches for it.
type Category struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// Catalog is the ordered set of categories. Order determines both the
// listing in the prompt and keyword detection order.
type Catalog struct {
	Categories []Category `yaml:"categories"`
}

// DefaultCatalog returns the four HR intents.
func DefaultCatalog() *Catalog {
	return &Catalog{
		Categories: []Category{
			{Name: "LeaveRequest", Keywords: []string{"leave", "vacation", "pto", "time off", "holiday"}},
			{Name: "AssetRequest", Keywords: []string{"laptop", "phone", "equipment", "asset", "device"}},
			{Name: "AddressUpdate", Keywords: []string{"address", "move", "relocation", "location"}},
			{Name: "ExpenseReimbursement", Keywords: []string{"expense", "reimbursement", "receipt", "claim"}},
		},
	}
}

// LoadCatalog reads a YAML catalog. An empty path returns DefaultCatalog.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return &c, nil
}

// Names returns category names in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.Categories))
	for i, cat := range c.Categories {
		names[i] = cat.Name
	}
	return names
}

func (c *Catalog) validate() error {
	if len(c.Categories) == 0 {
		return fmt.Errorf("no categories")
	}
	seen := make(map[string]bool, len(c.Categories))
	for _, cat := range c.Categories {
		if cat.Name == "" {
			return fmt.Errorf("category name required")
		}
		if seen[cat.Name] {
			return fmt.Errorf("duplicate category %s", cat.Name)
		}
		seen[cat.Name] = true
	}
	return nil
}
