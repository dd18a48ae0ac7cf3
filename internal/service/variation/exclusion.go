package variation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"promptforge/internal/domain"
	models "promptforge/internal/domain/models/prompt"
	domainoracle "promptforge/internal/domain/services/oracle"
	variationSvc "promptforge/internal/domain/services/variation"
)

// Oracle-backed exclusion output is accepted only if it looks like an actual
// term list: long enough to be useful and free of code-fence markers.
const minOracleExclusionLength = 20

// exclusionService implements the ExclusionService interface over the fixed
// exclusion catalog.
type exclusionService struct {
	oracle  domainoracle.Oracle
	model   string
	catalog *ExclusionCatalog
	logger  *slog.Logger
}

// NewExclusionService creates an exclusion assembler. oracle may be nil, in
// which case BuildWithOracle always takes the template path.
func NewExclusionService(oracle domainoracle.Oracle, model string, catalog *ExclusionCatalog, logger *slog.Logger) variationSvc.ExclusionService {
	return &exclusionService{
		oracle:  oracle,
		model:   model,
		catalog: catalog,
		logger:  logger,
	}
}

// Build assembles an exclusion list from the catalog.
//
// Template group selection:
//   - minimal:        quality + deformity
//   - standard:       minimal + anatomy + style group + subject domain group
//   - comprehensive:  standard + composition + face
//   - style-specific: quality + the declared style's group only
//
// Custom exclusions from the config are always appended. The assembled list
// is deduplicated case-insensitively; term order after dedup follows first
// occurrence, not input order.
func (s *exclusionService) Build(template models.ExclusionTemplate, cfg *models.ExclusionConfig) (string, error) {
	if cfg == nil {
		return "", &domain.ValidationError{Message: "exclusion config is required"}
	}
	if !template.Valid() {
		return "", &domain.ValidationError{Message: fmt.Sprintf("unknown exclusion template %q", template)}
	}
	if !cfg.QualityLevel.Valid() {
		return "", &domain.ValidationError{Message: fmt.Sprintf("unknown quality level %q", cfg.QualityLevel)}
	}

	var terms []string
	terms = append(terms, s.catalog.Quality[cfg.QualityLevel]...)

	switch template {
	case models.TemplateMinimal:
		terms = append(terms, s.catalog.Deformity...)

	case models.TemplateStandard:
		terms = append(terms, s.catalog.Deformity...)
		terms = append(terms, s.catalog.Anatomy...)
		terms = append(terms, s.catalog.StyleGroup(cfg.Style)...)
		terms = append(terms, s.catalog.SubjectDomains[cfg.SubjectDomain]...)

	case models.TemplateComprehensive:
		terms = append(terms, s.catalog.Deformity...)
		terms = append(terms, s.catalog.Anatomy...)
		terms = append(terms, s.catalog.StyleGroup(cfg.Style)...)
		terms = append(terms, s.catalog.SubjectDomains[cfg.SubjectDomain]...)
		terms = append(terms, s.catalog.Composition...)
		terms = append(terms, s.catalog.Face...)

	case models.TemplateStyleSpecific:
		terms = append(terms, s.catalog.StyleGroup(cfg.Style)...)
	}

	terms = append(terms, cfg.CustomExclusions...)

	return dedupeTerms(strings.Join(terms, ", ")), nil
}

// BuildWithOracle asks the oracle for an exclusion list tailored to the
// config. Output that fails validation falls back to the standard template
// for the same quality level.
func (s *exclusionService) BuildWithOracle(ctx context.Context, cfg *models.ExclusionConfig) (string, error) {
	if cfg == nil {
		return "", &domain.ValidationError{Message: "exclusion config is required"}
	}
	if !cfg.QualityLevel.Valid() {
		return "", &domain.ValidationError{Message: fmt.Sprintf("unknown quality level %q", cfg.QualityLevel)}
	}

	if s.oracle != nil {
		if list, ok := s.askOracle(ctx, cfg); ok {
			return list, nil
		}
	}

	return s.Build(models.TemplateStandard, cfg)
}

func (s *exclusionService) askOracle(ctx context.Context, cfg *models.ExclusionConfig) (string, bool) {
	temperature := 0.3
	resp, err := s.oracle.Complete(ctx, &domainoracle.CompletionRequest{
		Model:       s.model,
		Temperature: &temperature,
		MaxTokens:   300,
		Messages: []domainoracle.Message{
			{
				Role: domainoracle.RoleSystem,
				Content: "You write negative prompts for image generation. " +
					"Respond with a single comma-separated list of terms to avoid and nothing else.",
			},
			{
				Role: domainoracle.RoleUser,
				Content: fmt.Sprintf(
					"Quality level: %s. Style: %s. Subject: %s. List the artifacts and defects to exclude.",
					cfg.QualityLevel, orAny(cfg.Style), orAny(cfg.SubjectDomain),
				),
			},
		},
	})
	if err != nil {
		s.logger.Warn("oracle exclusion generation failed, using template fallback", "error", err)
		return "", false
	}

	text := strings.TrimSpace(resp.Text)
	if len(text) < minOracleExclusionLength || strings.Contains(text, "```") {
		s.logger.Warn("oracle exclusion output rejected, using template fallback",
			"length", len(text),
		)
		return "", false
	}

	if len(cfg.CustomExclusions) > 0 {
		text = text + ", " + strings.Join(cfg.CustomExclusions, ", ")
	}
	return dedupeTerms(text), true
}

// dedupeTerms splits on commas, lowercases, drops duplicates and blanks, and
// rejoins. First occurrence wins, so output order need not match input order.
func dedupeTerms(list string) string {
	seen := make(map[string]bool)
	var terms []string
	for _, term := range strings.Split(list, ",") {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" || seen[term] {
			continue
		}
		seen[term] = true
		terms = append(terms, term)
	}
	return strings.Join(terms, ", ")
}

func orAny(value string) string {
	if value == "" {
		return "any"
	}
	return value
}
