// Package registry loads provider descriptors: which providers exist, where
// they apply, and how strongly they are preferred.
package registry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/vakit-cli/internal/model"
	"github.com/sells-group/vakit-cli/internal/provider"
)

// Scope values.
const (
	ScopeGlobal   = "global"
	ScopeRegional = "regional"
)

// Descriptor is static metadata about one provider.
type Descriptor struct {
	ID           string            `yaml:"id" json:"id"`
	Label        string            `yaml:"label" json:"label"`
	Scope        string            `yaml:"scope" json:"scope"`
	Regions      []string          `yaml:"regions" json:"regions"`
	Priority     int               `yaml:"priority" json:"priority"`
	AuthRequired bool              `yaml:"auth_required" json:"authRequired"`
	Strategy     provider.Strategy `yaml:"strategy" json:"strategy"`
}

// AppliesTo reports whether the descriptor covers countryCode. Global
// descriptors, an unknown country and the "*" region match everything.
func (d Descriptor) AppliesTo(countryCode string) bool {
	if d.Scope != ScopeRegional || countryCode == "" {
		return true
	}
	for _, r := range d.Regions {
		if r == "*" || strings.EqualFold(r, countryCode) {
			return true
		}
	}
	return false
}

// Fallback returns the built-in descriptor list.
func Fallback() []Descriptor {
	return []Descriptor{
		{
			ID:       "aladhan",
			Label:    "Aladhan Global Prayer Times API",
			Scope:    ScopeGlobal,
			Regions:  []string{"*"},
			Priority: 10,
			Strategy: provider.StrategyCoords,
		},
		{
			ID:       "prayzone",
			Label:    "Pray.Zone API",
			Scope:    ScopeGlobal,
			Regions:  []string{"*"},
			Priority: 8,
			Strategy: provider.StrategyCity,
		},
	}
}

type file struct {
	APIs []Descriptor `yaml:"apis" json:"apis"`
}

// Load reads descriptors from path (.json, otherwise YAML) and orders them by
// priority, highest first. Any failure, including an empty list, yields the
// fallback list together with a *model.ConfigLoadError for the caller to log.
func Load(path string) ([]Descriptor, error) {
	descs, err := parse(path)
	if err != nil {
		return Sort(Fallback()), &model.ConfigLoadError{Path: path, Err: err}
	}
	return Sort(descs), nil
}

// LoadOrFallback is Load with the error logged instead of returned.
func LoadOrFallback(path string) []Descriptor {
	descs, err := Load(path)
	if err != nil {
		zap.L().Warn("registry: using built-in provider list", zap.Error(err))
	}
	return descs
}

func parse(path string) ([]Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "registry: read descriptors")
	}

	var f file
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &f)
	} else {
		err = yaml.Unmarshal(data, &f)
	}
	if err != nil {
		return nil, eris.Wrap(err, "registry: parse descriptors")
	}

	out := make([]Descriptor, 0, len(f.APIs))
	for _, d := range f.APIs {
		if strings.TrimSpace(d.ID) == "" {
			continue
		}
		if d.Scope == "" {
			d.Scope = ScopeGlobal
		}
		if d.Label == "" {
			d.Label = d.ID
		}
		out = append(out, d)
	}
	if len(out) == 0 {
		return nil, eris.New("registry: no descriptors in file")
	}
	return out, nil
}

// Sort orders descriptors by priority descending, keeping file order for ties.
func Sort(descs []Descriptor) []Descriptor {
	out := append([]Descriptor(nil), descs...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	return out
}
