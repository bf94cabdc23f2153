// Package zones holds the static, ordered table of fasting zones.
package zones

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"telegram-fasting-tracker/internal/models"
)

//go:embed zones.yaml
var tableYAML []byte

var table = mustParse(tableYAML)

// List returns the zones sorted ascending by threshold. The result is a copy.
func List() []models.ZoneDefinition {
	out := make([]models.ZoneDefinition, len(table))
	for i, z := range table {
		z.Refeeding.RecommendedFoods = append([]string(nil), z.Refeeding.RecommendedFoods...)
		z.Refeeding.FoodsToAvoid = append([]string(nil), z.Refeeding.FoodsToAvoid...)
		out[i] = z
	}
	return out
}

// ByName finds a zone by name, ignoring case and surrounding spaces.
func ByName(name string) (models.ZoneDefinition, bool) {
	name = strings.TrimSpace(name)
	for _, z := range List() {
		if strings.EqualFold(z.Name, name) {
			return z, true
		}
	}
	return models.ZoneDefinition{}, false
}

// Parse decodes a zone table and checks its ordering invariants.
func Parse(data []byte) ([]models.ZoneDefinition, error) {
	var zs []models.ZoneDefinition
	if err := yaml.Unmarshal(data, &zs); err != nil {
		return nil, fmt.Errorf("decode zone table: %w", err)
	}
	if err := Validate(zs); err != nil {
		return nil, err
	}
	return zs, nil
}

// Validate checks that the table is non-empty, positive and strictly increasing.
func Validate(zs []models.ZoneDefinition) error {
	if len(zs) == 0 {
		return errors.New("zone table is empty")
	}
	seen := make(map[string]bool, len(zs))
	for i, z := range zs {
		if z.Name == "" {
			return fmt.Errorf("zone #%d has no name", i)
		}
		key := strings.ToLower(z.Name)
		if seen[key] {
			return fmt.Errorf("duplicate zone name %q", z.Name)
		}
		seen[key] = true
		if z.ThresholdHours <= 0 {
			return fmt.Errorf("zone %q: threshold must be positive, got %v", z.Name, z.ThresholdHours)
		}
		if i > 0 && zs[i-1].ThresholdHours >= z.ThresholdHours {
			return fmt.Errorf("zone %q: threshold %v not greater than %v",
				z.Name, z.ThresholdHours, zs[i-1].ThresholdHours)
		}
	}
	return nil
}

func mustParse(data []byte) []models.ZoneDefinition {
	zs, err := Parse(data)
	if err != nil {
		panic(err)
	}
	return zs
}
