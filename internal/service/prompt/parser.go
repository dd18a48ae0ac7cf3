package prompt

import (
	_ "embed"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	models "promptforge/internal/domain/models/prompt"
	promptSvc "promptforge/internal/domain/services/prompt"
)

//go:embed categories.yaml
var categoriesYAML []byte

// categoryTable is the YAML shape of the trigger table.
type categoryTable struct {
	Categories []struct {
		Category string   `yaml:"category"`
		Patterns []string `yaml:"patterns"`
	} `yaml:"categories"`
}

// categoryRule is one compiled row of the trigger table.
type categoryRule struct {
	category models.Category
	patterns []*regexp.Regexp
}

// parserService implements the ElementParser interface over a compiled
// trigger table. Construction fails fast on a malformed table; Parse itself
// has no error states.
type parserService struct {
	rules  []categoryRule
	logger *slog.Logger
}

// NewElementParser compiles the embedded trigger table into a parser.
func NewElementParser(logger *slog.Logger) (promptSvc.ElementParser, error) {
	return newParserFromTable(categoriesYAML, logger)
}

func newParserFromTable(raw []byte, logger *slog.Logger) (promptSvc.ElementParser, error) {
	var table categoryTable
	if err := yaml.Unmarshal(raw, &table); err != nil {
		return nil, fmt.Errorf("parse category table: %w", err)
	}
	if len(table.Categories) == 0 {
		return nil, fmt.Errorf("category table is empty")
	}

	rules := make([]categoryRule, 0, len(table.Categories))
	for _, row := range table.Categories {
		cat := models.Category(row.Category)
		if !cat.Valid() || cat == models.CategoryCustom {
			return nil, fmt.Errorf("category table: invalid category %q", row.Category)
		}
		if len(row.Patterns) == 0 {
			return nil, fmt.Errorf("category table: category %q has no patterns", row.Category)
		}
		rule := categoryRule{category: cat}
		for _, pattern := range row.Patterns {
			re, err := regexp.Compile("(?i)" + pattern)
			if err != nil {
				return nil, fmt.Errorf("category table: compile pattern for %q: %w", row.Category, err)
			}
			rule.patterns = append(rule.patterns, re)
		}
		rules = append(rules, rule)
	}

	return &parserService{rules: rules, logger: logger}, nil
}

// Parse decomposes raw text into typed, ordered elements.
//
// Each category is scanned over the full text in table order, so the output
// is grouped category-major rather than left-to-right. Leftover comma
// fragments become custom elements with continuing positions.
func (p *parserService) Parse(text string) []models.Element {
	elements := []models.Element{}
	if strings.TrimSpace(text) == "" {
		return elements
	}

	position := 0
	for _, rule := range p.rules {
		for _, span := range nonOverlappingMatches(rule.patterns, text) {
			content := strings.TrimSpace(text[span[0]:span[1]])
			if content == "" {
				continue
			}
			elements = append(elements, models.Element{
				ID:       uuid.NewString(),
				Type:     rule.category,
				Content:  content,
				Position: position,
			})
			position++
		}
	}

	// Sweep leftover comma fragments into custom elements. A fragment that
	// is already a substring of an extracted element's content was covered
	// by a trigger; blanks never become elements.
	for _, fragment := range strings.Split(text, ",") {
		fragment = strings.TrimSpace(fragment)
		if fragment == "" {
			continue
		}
		if coveredByElements(elements, fragment) {
			continue
		}
		elements = append(elements, models.Element{
			ID:       uuid.NewString(),
			Type:     models.CategoryCustom,
			Content:  fragment,
			Position: position,
		})
		position++
	}

	// Positions are assigned monotonically above, so this is a no-op; kept
	// as an explicit invariant on the contract that output is position-sorted.
	sort.SliceStable(elements, func(i, j int) bool {
		return elements[i].Position < elements[j].Position
	})

	p.logger.Debug("parsed prompt text",
		"length", len(text),
		"elements", len(elements),
	)

	return elements
}

// nonOverlappingMatches collects match spans from every pattern of one
// category and drops spans overlapping an earlier-starting match, so a
// category never extracts the same stretch of text twice.
func nonOverlappingMatches(patterns []*regexp.Regexp, text string) [][]int {
	var spans [][]int
	for _, re := range patterns {
		spans = append(spans, re.FindAllStringIndex(text, -1)...)
	}

	sort.Slice(spans, func(i, j int) bool {
		if spans[i][0] != spans[j][0] {
			return spans[i][0] < spans[j][0]
		}
		return spans[i][1] > spans[j][1] // prefer the longer match at the same start
	})

	kept := spans[:0]
	lastEnd := -1
	for _, span := range spans {
		if span[0] < lastEnd {
			continue
		}
		kept = append(kept, span)
		lastEnd = span[1]
	}
	return kept
}

func coveredByElements(elements []models.Element, fragment string) bool {
	needle := strings.ToLower(fragment)
	for _, el := range elements {
		if strings.Contains(strings.ToLower(el.Content), needle) {
			return true
		}
	}
	return false
}
