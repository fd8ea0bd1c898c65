// Package catalog holds the static item and weather catalog shipped with
// stockbell. The data lives in catalog.yaml and is embedded at build time.
package catalog

import (
	_ "embed"
	"fmt"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/shaharia-lab/stockbell/internal/shop"
)

//go:embed catalog.yaml
var embedded []byte

// Seed is a known seed. Tier is 0 for common seeds.
type Seed struct {
	Name string `yaml:"name" json:"name"`
	Tier int    `yaml:"tier,omitempty" json:"tier"`
}

// WeatherEvent describes a weather event the shop can report.
type WeatherEvent struct {
	Key         string `yaml:"key" json:"key"`
	DisplayName string `yaml:"display_name" json:"display_name"`
	Mutation    string `yaml:"mutation" json:"mutation"`
	Multiplier  string `yaml:"multiplier" json:"multiplier"`
}

// Catalog is an indexed, read-only view of the catalog file.
type Catalog struct {
	seeds   []Seed
	order   map[string]int
	weather map[string]WeatherEvent
}

type catalogFile struct {
	Seeds   []Seed         `yaml:"seeds"`
	Weather []WeatherEvent `yaml:"weather"`
}

// Parse builds a Catalog from YAML data.
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}

	c := &Catalog{
		seeds:   f.Seeds,
		order:   make(map[string]int, len(f.Seeds)),
		weather: make(map[string]WeatherEvent, len(f.Weather)),
	}
	for i, s := range f.Seeds {
		if s.Name == "" {
			return nil, fmt.Errorf("parsing catalog: seed %d has no name", i)
		}
		if _, dup := c.order[s.Name]; dup {
			return nil, fmt.Errorf("parsing catalog: duplicate seed %q", s.Name)
		}
		c.order[s.Name] = i
	}
	for _, w := range f.Weather {
		c.weather[w.Key] = w
	}
	return c, nil
}

var (
	defaultOnce sync.Once
	defaultCat  *Catalog
)

// Default returns the embedded catalog. It panics if the embedded file is
// invalid, which is a build defect.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Parse(embedded)
		if err != nil {
			panic(err)
		}
		defaultCat = c
	})
	return defaultCat
}

// Seeds returns the known seeds in display order.
func (c *Catalog) Seeds() []Seed {
	out := make([]Seed, len(c.seeds))
	copy(out, c.seeds)
	return out
}

// IsSeed reports whether name is a known seed.
func (c *Catalog) IsSeed(name string) bool {
	_, ok := c.order[name]
	return ok
}

// Tier returns the rarity tier of a seed, 0 when common or unknown.
func (c *Catalog) Tier(name string) int {
	i, ok := c.order[name]
	if !ok {
		return 0
	}
	return c.seeds[i].Tier
}

// Weather looks up a weather event by the name the shop reports.
func (c *Catalog) Weather(name string) (WeatherEvent, bool) {
	w, ok := c.weather[name]
	return w, ok
}

// SortSeeds returns items ordered by catalog position. Unknown seeds go last,
// alphabetically.
func (c *Catalog) SortSeeds(items []shop.Item) []shop.Item {
	out := make([]shop.Item, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		return c.seedLess(out[i].Name, out[j].Name)
	})
	return out
}

// SortSeedNames is SortSeeds for bare names.
func (c *Catalog) SortSeedNames(names []string) []string {
	out := make([]string, len(names))
	copy(out, names)
	sort.SliceStable(out, func(i, j int) bool {
		return c.seedLess(out[i], out[j])
	})
	return out
}

// SortGear returns items ordered alphabetically by name.
func SortGear(items []shop.Item) []shop.Item {
	out := make([]shop.Item, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (c *Catalog) seedLess(a, b string) bool {
	ia, oka := c.order[a]
	ib, okb := c.order[b]
	switch {
	case oka && okb:
		return ia < ib
	case oka:
		return true
	case okb:
		return false
	default:
		return a < b
	}
}
