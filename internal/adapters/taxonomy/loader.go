// Package taxonomy loads seed taxonomies from TOML files.
//
// A file is a list of [[seed]] tables, read in order:
//
//	[[seed]]
//	name = "calm"
//	variants = ["chill", "mellow"]
package taxonomy

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/ewilliams-labs/moodmatch/internal/core/domain"
	"github.com/ewilliams-labs/moodmatch/internal/logging"
)

type document struct {
	Seeds []domain.Seed `toml:"seed"`
}

// Load reads the taxonomy at path. An empty path returns the built-in seeds.
func Load(path string) (*domain.Taxonomy, error) {
	if path == "" {
		return report(domain.DefaultTaxonomy(), "builtin"), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("taxonomy: read %s: %w", path, err)
	}
	tax, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("taxonomy: %s: %w", path, err)
	}
	return report(tax, path), nil
}

// Parse builds a taxonomy from a TOML document.
func Parse(data []byte) (*domain.Taxonomy, error) {
	var doc document
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidTaxonomy, err)
	}
	if len(doc.Seeds) == 0 {
		return nil, fmt.Errorf("%w: no [[seed]] tables", domain.ErrInvalidTaxonomy)
	}
	return domain.NewTaxonomy(doc.Seeds)
}

func report(tax *domain.Taxonomy, source string) *domain.Taxonomy {
	for _, c := range tax.Collisions() {
		logging.Warn().
			Str("variant", c.Variant).
			Str("kept_by", c.Winner).
			Str("ignored_for", c.Loser).
			Msg("taxonomy: variant declared by more than one seed")
	}
	logging.Info().Str("source", source).Int("seeds", tax.Len()).Msg("taxonomy loaded")
	return tax
}
