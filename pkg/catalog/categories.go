package catalog

import (
	"fmt"
	"maps"
	"sort"
	"sync"

	"golang.org/x/text/cases"
)

// fold returns s reduced to its Unicode case-fold form, the canonical
// form for caseless matching of category names and search terms.
func fold(s string) string {
	return cases.Fold().String(s)
}

// Categories is a concurrent safe map of categories.
type Categories struct {
	mu         sync.RWMutex
	categories map[CategoryID]*Category
}

// CategoriesOption defines a function that configures a Categories instance.
type CategoriesOption func(*Categories)

// WithCategoriesList initializes the map from a slice of categories.
func WithCategoriesList(categories []Category) CategoriesOption {
	return func(c *Categories) {
		c.categories = make(map[CategoryID]*Category, len(categories))
		for i := range categories {
			copied := categories[i]
			c.categories[copied.ID] = &copied
		}
	}
}

// WithCategoriesMap initializes the map with existing categories.
func WithCategoriesMap(categories map[CategoryID]*Category) CategoriesOption {
	return func(c *Categories) {
		if categories != nil {
			c.categories = make(map[CategoryID]*Category, len(categories))
			maps.Copy(c.categories, categories)
		}
	}
}

// NewCategories creates a new Categories map with optional configuration.
func NewCategories(opts ...CategoriesOption) *Categories {
	c := &Categories{
		categories: make(map[CategoryID]*Category),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Get returns a copy of a category by id and whether it exists.
func (c *Categories) Get(id CategoryID) (Category, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	category, ok := c.categories[id]
	if !ok {
		return Category{}, false
	}
	return *category, true
}

// Set sets a category by id, overwriting any existing entry.
func (c *Categories) Set(category Category) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.categories[category.ID] = &category
}

// Add adds a category, returning an error if its id already exists.
func (c *Categories) Add(category Category) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.categories[category.ID]; exists {
		return fmt.Errorf("category with ID %s already exists", category.ID)
	}

	c.categories[category.ID] = &category
	return nil
}

// Delete removes a category by id. Returns an error if the category
// doesn't exist.
func (c *Categories) Delete(id CategoryID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.categories[id]; !exists {
		return fmt.Errorf("category with ID %s not found", id)
	}

	delete(c.categories, id)
	return nil
}

// Exists checks if a category exists without returning it.
func (c *Categories) Exists(id CategoryID) bool {
	c.mu.RLock()
	_, exists := c.categories[id]
	c.mu.RUnlock()
	return exists
}

// FindByName returns the category whose name matches name
// case-insensitively, if any.
func (c *Categories) FindByName(name string) (Category, bool) {
	folded := fold(name)

	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, category := range c.categories {
		if fold(category.Name) == folded {
			return *category, true
		}
	}
	return Category{}, false
}

// Len returns the number of categories.
func (c *Categories) Len() int {
	c.mu.RLock()
	length := len(c.categories)
	c.mu.RUnlock()
	return length
}

// List returns copies of all categories sorted by name ascending,
// ties broken by id for a deterministic order.
func (c *Categories) List() []Category {
	c.mu.RLock()
	categories := make([]Category, 0, len(c.categories))
	for _, category := range c.categories {
		categories = append(categories, *category)
	}
	c.mu.RUnlock()

	sort.Slice(categories, func(i, j int) bool {
		if categories[i].Name != categories[j].Name {
			return categories[i].Name < categories[j].Name
		}
		return categories[i].ID < categories[j].ID
	})
	return categories
}

// Replace swaps the entire collection for the given snapshot. Used by
// adapter change notifications so readers never observe a partial
// replace.
func (c *Categories) Replace(categories []Category) {
	replacement := make(map[CategoryID]*Category, len(categories))
	for i := range categories {
		copied := categories[i]
		replacement[copied.ID] = &copied
	}

	c.mu.Lock()
	c.categories = replacement
	c.mu.Unlock()
}
