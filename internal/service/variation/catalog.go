package variation

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	models "promptforge/internal/domain/models/prompt"
)

//go:embed strategies.yaml
var strategiesYAML []byte

//go:embed exclusions.yaml
var exclusionsYAML []byte

// Strategy is one row of the strategy catalog: oracle guidance plus the
// deterministic fallback vocabulary.
type Strategy struct {
	Guidance   string   `yaml:"guidance"`
	Vocabulary []string `yaml:"vocabulary"`
}

// StrategyCatalog maps every variation strategy to its vocabulary.
type StrategyCatalog struct {
	Strategies map[models.VariationStrategy]Strategy `yaml:"strategies"`
}

// LoadStrategyCatalog parses the embedded strategy catalog, failing fast on
// a malformed or incomplete table.
func LoadStrategyCatalog() (*StrategyCatalog, error) {
	return loadStrategyCatalog(strategiesYAML)
}

func loadStrategyCatalog(raw []byte) (*StrategyCatalog, error) {
	var catalog StrategyCatalog
	if err := yaml.Unmarshal(raw, &catalog); err != nil {
		return nil, fmt.Errorf("parse strategy catalog: %w", err)
	}

	for _, strategy := range []models.VariationStrategy{
		models.StrategyStyle, models.StrategyDetail, models.StrategyMood, models.StrategyComposition,
	} {
		entry, ok := catalog.Strategies[strategy]
		if !ok {
			return nil, fmt.Errorf("strategy catalog: missing strategy %q", strategy)
		}
		if len(entry.Vocabulary) == 0 {
			return nil, fmt.Errorf("strategy catalog: strategy %q has an empty vocabulary", strategy)
		}
	}
	for name := range catalog.Strategies {
		if !name.Valid() {
			return nil, fmt.Errorf("strategy catalog: unknown strategy %q", name)
		}
	}

	return &catalog, nil
}

// ExclusionCatalog holds the canonical phrase groups negative prompts are
// assembled from.
type ExclusionCatalog struct {
	Quality        map[models.QualityLevel][]string `yaml:"quality"`
	Deformity      []string                         `yaml:"deformity"`
	Anatomy        []string                         `yaml:"anatomy"`
	Composition    []string                         `yaml:"composition"`
	Face           []string                         `yaml:"face"`
	Styles         map[string][]string              `yaml:"styles"`
	SubjectDomains map[string][]string              `yaml:"subject_domains"`
}

// LoadExclusionCatalog parses the embedded exclusion catalog, failing fast
// on a malformed table.
func LoadExclusionCatalog() (*ExclusionCatalog, error) {
	return loadExclusionCatalog(exclusionsYAML)
}

func loadExclusionCatalog(raw []byte) (*ExclusionCatalog, error) {
	var catalog ExclusionCatalog
	if err := yaml.Unmarshal(raw, &catalog); err != nil {
		return nil, fmt.Errorf("parse exclusion catalog: %w", err)
	}

	for _, level := range []models.QualityLevel{models.QualityHigh, models.QualityMedium, models.QualityLow} {
		if len(catalog.Quality[level]) == 0 {
			return nil, fmt.Errorf("exclusion catalog: missing quality group %q", level)
		}
	}
	if len(catalog.Deformity) == 0 {
		return nil, fmt.Errorf("exclusion catalog: missing deformity group")
	}
	if len(catalog.Styles["default"]) == 0 {
		return nil, fmt.Errorf("exclusion catalog: missing default style group")
	}

	return &catalog, nil
}

// StyleGroup returns the exclusion group for a style, falling back to the
// default group for unknown styles.
func (c *ExclusionCatalog) StyleGroup(style string) []string {
	if terms, ok := c.Styles[style]; ok {
		return terms
	}
	return c.Styles["default"]
}
