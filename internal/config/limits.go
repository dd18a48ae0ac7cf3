package config

const (
	// MaxContentLength is the maximum length for document content.
	// Image-generation prompts beyond a few thousand characters are
	// truncated by every major model anyway.
	MaxContentLength = 10000

	// MaxElementContentLength is the maximum length for a single element's
	// content. Elements are short comma-delimited phrases.
	MaxElementContentLength = 500

	// MaxSummaryLength is the maximum length for a version change summary.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255).
	MaxSummaryLength = 255

	// MaxVariationCount is the maximum number of candidates requested per
	// element. Keeps oracle prompts and fallback lists small.
	MaxVariationCount = 10

	// MaxCombinationCount is the maximum number of combined variant strings
	// per request.
	MaxCombinationCount = 50

	// DefaultBatchWindow is how many oracle calls batch variation
	// generation runs concurrently. Small fixed window so a big document
	// doesn't fan out into a rate-limit storm.
	DefaultBatchWindow = 3
)
