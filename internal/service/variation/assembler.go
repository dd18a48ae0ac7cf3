package variation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"regexp"
	"strings"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"golang.org/x/sync/semaphore"

	"promptforge/internal/config"
	"promptforge/internal/domain"
	models "promptforge/internal/domain/models/prompt"
	domainoracle "promptforge/internal/domain/services/oracle"
	variationSvc "promptforge/internal/domain/services/variation"
)

// assemblerService implements the VariationService interface.
//
// Fallback-first: the oracle is unreliable, so every generation path ends in
// the strategy's deterministic vocabulary when the oracle errors, times out,
// or returns output no candidate can be extracted from.
type assemblerService struct {
	oracle  domainoracle.Oracle
	model   string
	catalog *StrategyCatalog
	window  int64

	rngMu sync.Mutex
	rng   *rand.Rand

	logger *slog.Logger
}

// NewVariationService creates a variation assembler. oracle may be nil, in
// which case every generation uses the fallback vocabulary. rng may be nil
// for a time-seeded source; tests inject a fixed seed.
func NewVariationService(
	oracle domainoracle.Oracle,
	model string,
	catalog *StrategyCatalog,
	batchWindow int,
	rng *rand.Rand,
	logger *slog.Logger,
) variationSvc.VariationService {
	if batchWindow <= 0 {
		batchWindow = config.DefaultBatchWindow
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &assemblerService{
		oracle:  oracle,
		model:   model,
		catalog: catalog,
		window:  int64(batchWindow),
		rng:     rng,
		logger:  logger,
	}
}

// Generate produces up to req.Count candidate phrasings for one element.
//
// A locked element is never substituted: its own content comes back as the
// sole candidate regardless of the oracle.
func (s *assemblerService) Generate(ctx context.Context, req *models.VariationRequest) (*models.VariationResult, error) {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.Count, validation.Required, validation.Min(1), validation.Max(config.MaxVariationCount)),
	); err != nil {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("generate variations: %v", err)}
	}
	if !req.Strategy.Valid() {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("unknown variation strategy %q", req.Strategy)}
	}

	if req.Element.IsLocked {
		return &models.VariationResult{
			ElementID:  req.Element.ID,
			Candidates: []string{req.Element.Content},
		}, nil
	}

	strategy := s.catalog.Strategies[req.Strategy]

	if s.oracle != nil {
		candidates, err := s.askOracle(ctx, req, strategy)
		if err == nil && len(candidates) > 0 {
			return &models.VariationResult{
				ElementID:  req.Element.ID,
				Candidates: candidates,
			}, nil
		}
		if err != nil {
			// All oracle failure kinds fall back identically; log them apart
			var oerr *domain.OracleError
			if errors.As(err, &oerr) {
				s.logger.Warn("oracle variation generation failed, using vocabulary fallback",
					"element_id", req.Element.ID,
					"kind", string(oerr.Kind),
				)
			} else {
				s.logger.Warn("oracle variation generation failed, using vocabulary fallback",
					"element_id", req.Element.ID,
					"error", err,
				)
			}
		}
	}

	return &models.VariationResult{
		ElementID:  req.Element.ID,
		Candidates: s.fallbackCandidates(req.Element, strategy, req.Count),
		Fallback:   true,
	}, nil
}

// GenerateBatch generates candidates for every element, running at most
// `window` oracle calls concurrently. Elements beyond the window queue for
// the next slot rather than fanning out unbounded.
func (s *assemblerService) GenerateBatch(ctx context.Context, elements []models.Element, strategy models.VariationStrategy, count int) (map[string][]string, error) {
	if !strategy.Valid() {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("unknown variation strategy %q", strategy)}
	}
	if count < 1 || count > config.MaxVariationCount {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("count must be between 1 and %d", config.MaxVariationCount)}
	}

	sem := semaphore.NewWeighted(s.window)
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string][]string, len(elements))
	)

	for _, element := range elements {
		if err := sem.Acquire(ctx, 1); err != nil {
			break // context cancelled; return what we have with the error below
		}
		wg.Add(1)
		go func(el models.Element) {
			defer wg.Done()
			defer sem.Release(1)

			result, err := s.Generate(ctx, &models.VariationRequest{
				Element:  el,
				Strategy: strategy,
				Count:    count,
			})
			if err != nil {
				// Only validation errors reach here and those were checked
				// above; skip the element rather than poison the batch.
				s.logger.Error("batch variation generation skipped element",
					"element_id", el.ID,
					"error", err,
				)
				return
			}

			mu.Lock()
			results[result.ElementID] = result.Candidates
			mu.Unlock()
		}(element)
	}

	wg.Wait()
	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

// Combine builds combinationCount prompt strings. For each output it
// independently and uniformly picks one candidate per element, or keeps the
// element's own content when it is locked or has no candidates. Outputs are
// randomized, not enumerated; duplicates across combinations are possible
// and not deduplicated here.
func (s *assemblerService) Combine(elements []models.Element, candidates map[string][]string, combinationCount int) []string {
	if combinationCount < 1 {
		return []string{}
	}
	if combinationCount > config.MaxCombinationCount {
		combinationCount = config.MaxCombinationCount
	}

	ordered := models.SortedByPosition(elements)
	combinations := make([]string, 0, combinationCount)

	for i := 0; i < combinationCount; i++ {
		parts := make([]string, 0, len(ordered))
		for _, el := range ordered {
			pool := candidates[el.ID]
			if el.IsLocked || len(pool) == 0 {
				parts = append(parts, el.Content)
				continue
			}
			parts = append(parts, pool[s.intn(len(pool))])
		}
		combinations = append(combinations, strings.Join(parts, ", "))
	}

	return combinations
}

// askOracle requests candidates from the oracle and extracts them from the
// completion text.
func (s *assemblerService) askOracle(ctx context.Context, req *models.VariationRequest, strategy Strategy) ([]string, error) {
	temperature := 0.9
	resp, err := s.oracle.Complete(ctx, &domainoracle.CompletionRequest{
		Model:       s.model,
		Temperature: &temperature,
		MaxTokens:   300,
		Messages: []domainoracle.Message{
			{
				Role: domainoracle.RoleSystem,
				Content: "You rewrite elements of image-generation prompts. " +
					"Respond with a JSON array of short phrases and nothing else.",
			},
			{
				Role: domainoracle.RoleUser,
				Content: fmt.Sprintf(
					"Element: %q (%s)\nGive %d alternative phrasings focused on %s, e.g. %s.",
					req.Element.Content, req.Element.Type, req.Count,
					strategy.Guidance, strings.Join(firstN(strategy.Vocabulary, 3), "; "),
				),
			},
		},
	})
	if err != nil {
		return nil, err
	}

	return parseCandidates(resp.Text, req.Count), nil
}

var quotedPhrase = regexp.MustCompile(`"([^"\n]+)"`)

// parseCandidates extracts up to count candidate phrases from oracle output,
// accepting a literal JSON array or falling back to quoted substrings.
// Unusable output yields an empty slice, which triggers the vocabulary
// fallback upstream.
func parseCandidates(text string, count int) []string {
	var raw []string

	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start >= 0 && end > start {
		var arr []string
		if err := json.Unmarshal([]byte(text[start:end+1]), &arr); err == nil {
			raw = arr
		}
	}
	if raw == nil {
		for _, match := range quotedPhrase.FindAllStringSubmatch(text, -1) {
			raw = append(raw, match[1])
		}
	}

	seen := make(map[string]bool, len(raw))
	candidates := make([]string, 0, count)
	for _, candidate := range raw {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" || len(candidate) > config.MaxElementContentLength {
			continue
		}
		key := strings.ToLower(candidate)
		if seen[key] {
			continue
		}
		seen[key] = true
		candidates = append(candidates, candidate)
		if len(candidates) == count {
			break
		}
	}
	return candidates
}

// fallbackCandidates draws count deterministic candidates from the strategy
// vocabulary, anchored to the element's own content.
func (s *assemblerService) fallbackCandidates(element models.Element, strategy Strategy, count int) []string {
	candidates := make([]string, 0, count)
	for i := 0; i < count && i < len(strategy.Vocabulary); i++ {
		term := strategy.Vocabulary[i]
		if element.Content == "" {
			candidates = append(candidates, term)
			continue
		}
		candidates = append(candidates, element.Content+", "+term)
	}
	return candidates
}

func (s *assemblerService) intn(n int) int {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Intn(n)
}

func firstN(items []string, n int) []string {
	if len(items) < n {
		return items
	}
	return items[:n]
}
