package variation

import (
	"context"

	"promptforge/internal/domain/models/prompt"
)

// VariationService produces alternative phrasings per element and assembles
// combinatorial prompt variants. Oracle failures are absorbed into the
// strategy's deterministic vocabulary; locked elements are never substituted.
type VariationService interface {
	// Generate produces up to req.Count candidate phrasings for one element.
	// A locked element always yields its own content as the sole candidate.
	Generate(ctx context.Context, req *prompt.VariationRequest) (*prompt.VariationResult, error)

	// GenerateBatch generates candidates for every element with bounded
	// concurrency against the oracle. Results are keyed by element ID.
	GenerateBatch(ctx context.Context, elements []prompt.Element, strategy prompt.VariationStrategy, count int) (map[string][]string, error)

	// Combine builds combinationCount prompt strings, independently picking
	// one candidate per element (or the element's own content when it has
	// none or is locked). Duplicates across combinations are possible.
	Combine(elements []prompt.Element, candidates map[string][]string, combinationCount int) []string
}

// ExclusionService assembles negative-prompt term lists.
type ExclusionService interface {
	// Build assembles an exclusion list from the fixed catalog per template
	Build(template prompt.ExclusionTemplate, cfg *prompt.ExclusionConfig) (string, error)

	// BuildWithOracle asks the oracle for an exclusion list, validating its
	// output and falling back to the standard template on failure
	BuildWithOracle(ctx context.Context, cfg *prompt.ExclusionConfig) (string, error)
}
