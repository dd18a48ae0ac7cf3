package prompt

// VariationStrategy selects the vocabulary and oracle guidance used when
// generating candidate phrasings for an element.
type VariationStrategy string

const (
	StrategyStyle       VariationStrategy = "style"
	StrategyDetail      VariationStrategy = "detail"
	StrategyMood        VariationStrategy = "mood"
	StrategyComposition VariationStrategy = "composition"
)

// Valid reports whether s is a known strategy.
func (s VariationStrategy) Valid() bool {
	switch s {
	case StrategyStyle, StrategyDetail, StrategyMood, StrategyComposition:
		return true
	}
	return false
}

// VariationRequest asks for candidate phrasings of a single element.
type VariationRequest struct {
	Element  Element           `json:"element"`
	Strategy VariationStrategy `json:"strategy"`
	Count    int               `json:"count"`
}

// VariationResult carries the candidates produced for one element.
// Fallback is true when the candidates came from the strategy vocabulary
// rather than the oracle.
type VariationResult struct {
	ElementID  string   `json:"element_id"`
	Candidates []string `json:"candidates"`
	Fallback   bool     `json:"fallback"`
}

// QualityLevel scales how aggressive an exclusion list is.
type QualityLevel string

const (
	QualityHigh   QualityLevel = "high"
	QualityMedium QualityLevel = "medium"
	QualityLow    QualityLevel = "low"
)

// Valid reports whether q is a known quality level.
func (q QualityLevel) Valid() bool {
	switch q {
	case QualityHigh, QualityMedium, QualityLow:
		return true
	}
	return false
}

// ExclusionTemplate selects which catalog groups an exclusion list includes.
type ExclusionTemplate string

const (
	TemplateMinimal       ExclusionTemplate = "minimal"
	TemplateStandard      ExclusionTemplate = "standard"
	TemplateComprehensive ExclusionTemplate = "comprehensive"
	TemplateStyleSpecific ExclusionTemplate = "style-specific"
)

// Valid reports whether t is a known template.
func (t ExclusionTemplate) Valid() bool {
	switch t {
	case TemplateMinimal, TemplateStandard, TemplateComprehensive, TemplateStyleSpecific:
		return true
	}
	return false
}

// ExclusionConfig parameterizes negative-prompt assembly.
type ExclusionConfig struct {
	Style            string       `json:"style,omitempty"`
	SubjectDomain    string       `json:"subject_domain,omitempty"`
	QualityLevel     QualityLevel `json:"quality_level"`
	CustomExclusions []string     `json:"custom_exclusions,omitempty"`
}
