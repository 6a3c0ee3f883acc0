// Package catalog holds the versioned rule catalog. A Catalog is immutable
// once compiled and is safe for concurrent evaluation without locking.
package catalog

import (
	"github.com/kirillkom/claim-assessor/internal/core/domain"
	"github.com/kirillkom/claim-assessor/internal/core/signals"
)

type Catalog struct {
	version     string
	description string
	rules       []*Rule
	byCategory  map[domain.Category][]*Rule
}

func newCatalog(version, description string, rules []*Rule) *Catalog {
	c := &Catalog{
		version:     version,
		description: description,
		rules:       rules,
		byCategory:  make(map[domain.Category][]*Rule, len(domain.Categories)),
	}
	for _, rule := range rules {
		c.byCategory[rule.Category] = append(c.byCategory[rule.Category], rule)
	}
	return c
}

func (c *Catalog) Version() string     { return c.version }
func (c *Catalog) Description() string { return c.description }

// Rules returns every rule in declaration order. The slice is a copy.
func (c *Catalog) Rules() []*Rule {
	return append([]*Rule(nil), c.rules...)
}

// ForCategory returns the ordered subset of rules for one category.
func (c *Catalog) ForCategory(category domain.Category) []*Rule {
	return append([]*Rule(nil), c.byCategory[category]...)
}

// Evaluate runs every rule against the FNOL in declaration order.
func (c *Catalog) Evaluate(fnol *domain.FNOL, th signals.Thresholds) []Result {
	in := NewInput(fnol, signals.Derive(fnol, th))
	results := make([]Result, 0, len(c.rules))
	for _, rule := range c.rules {
		results = append(results, rule.Evaluate(in))
	}
	return results
}

// Info describes the catalog for operators.
func (c *Catalog) Info() domain.CatalogInfo {
	info := domain.CatalogInfo{
		Version:     c.version,
		Description: c.description,
		Rules:       make([]domain.RuleInfo, 0, len(c.rules)),
	}
	for _, r := range c.rules {
		info.Rules = append(info.Rules, domain.RuleInfo{
			ID:           r.ID,
			Category:     r.Category,
			Effect:       r.Effect,
			Kind:         r.Kind(),
			Source:       r.Source(),
			Critical:     r.Critical,
			Grants:       r.Grants,
			Excludes:     r.Excludes,
			Strength:     r.Strength,
			MetadataOnly: r.MetadataOnly,
			Description:  r.Description,
		})
	}
	return info
}
