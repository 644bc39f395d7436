package alerts

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"phoa/internal/types"
)

//go:embed recommendations.yaml
var catalogYAML []byte

// Catalog is the static recommendation list shipped with the service.
type Catalog struct {
	Fallback   []string            `yaml:"fallback"`
	Conditions map[string][]string `yaml:"conditions"`
}

// LoadCatalog parses the embedded catalog.
func LoadCatalog() (*Catalog, error) {
	return ParseCatalog(catalogYAML)
}

// ParseCatalog parses a catalog document. Keys are matched
// case-insensitively.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("recommendation catalog: %w", err)
	}
	normalized := make(map[string][]string, len(c.Conditions))
	for k, v := range c.Conditions {
		normalized[strings.ToLower(strings.TrimSpace(k))] = v
	}
	c.Conditions = normalized
	return &c, nil
}

// Lookup returns the catalog entry for a condition, trying the identifier
// before the name.
func (c *Catalog) Lookup(conditionID, name string) ([]string, bool) {
	if c == nil {
		return nil, false
	}
	for _, key := range []string{conditionID, name} {
		if key == "" {
			continue
		}
		if recs, ok := c.Conditions[strings.ToLower(strings.TrimSpace(key))]; ok && len(recs) > 0 {
			return recs, true
		}
	}
	return nil, false
}

// Recommender supplies the recommendations attached to a condition alert.
type Recommender interface {
	Recommend(conditionID, conditionName string) []string
}

// Recommendations resolves recommendations from stored treatments, then the
// static catalog, then the catalog's generic fallback.
type Recommendations struct {
	treatments map[string][]types.Treatment
	catalog    *Catalog
}

// NewRecommendations builds a Recommender for one evaluation. treatments is
// keyed by condition ID.
func NewRecommendations(treatments map[string][]types.Treatment, catalog *Catalog) *Recommendations {
	return &Recommendations{treatments: treatments, catalog: catalog}
}

// DefaultFallback applies when the catalog has no fallback of its own.
var DefaultFallback = []string{"Practice deep breathing exercises", "Find a safe space"}

// Recommend implements Recommender.
func (r *Recommendations) Recommend(conditionID, conditionName string) []string {
	if ts := r.treatments[conditionID]; len(ts) > 0 {
		out := make([]string, 0, len(ts))
		for _, t := range ts {
			if s := FormatTreatment(t); s != "" {
				out = append(out, s)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	if recs, ok := r.catalog.Lookup(conditionID, conditionName); ok {
		return clone(recs)
	}
	if r.catalog != nil && len(r.catalog.Fallback) > 0 {
		return clone(r.catalog.Fallback)
	}
	return clone(DefaultFallback)
}

// FormatTreatment renders a treatment as "name: description [url]", omitting
// the empty parts.
func FormatTreatment(t types.Treatment) string {
	name := strings.TrimSpace(t.Name)
	if name == "" {
		return ""
	}
	s := name
	if d := strings.TrimSpace(t.Description); d != "" {
		s += ": " + d
	}
	if u := strings.TrimSpace(t.URL); u != "" {
		s += " [" + u + "]"
	}
	return s
}

func clone(s []string) []string {
	return append([]string(nil), s...)
}
