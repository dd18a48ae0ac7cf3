package prompt

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	models "promptforge/internal/domain/models/prompt"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestParser(t *testing.T) *parserService {
	t.Helper()
	parser, err := NewElementParser(testLogger())
	if err != nil {
		t.Fatalf("NewElementParser: %v", err)
	}
	return parser.(*parserService)
}

func TestParse_EmptyInput(t *testing.T) {
	parser := newTestParser(t)

	for _, input := range []string{"", "   ", "\n\t"} {
		elements := parser.Parse(input)
		if elements == nil {
			t.Errorf("Parse(%q) returned nil, want empty slice", input)
		}
		if len(elements) != 0 {
			t.Errorf("Parse(%q) returned %d elements, want 0", input, len(elements))
		}
	}
}

func TestParse_TypedExtraction(t *testing.T) {
	parser := newTestParser(t)

	elements := parser.Parse("beautiful anime girl, digital art, soft lighting")

	want := []struct {
		typ     models.Category
		content string
	}{
		{models.CategorySubject, "beautiful anime girl"},
		{models.CategoryStyle, "anime"},
		{models.CategoryStyle, "digital art"},
		{models.CategoryLighting, "soft lighting"},
	}

	if len(elements) != len(want) {
		t.Fatalf("got %d elements, want %d: %+v", len(elements), len(want), elements)
	}
	for i, w := range want {
		if elements[i].Type != w.typ || elements[i].Content != w.content {
			t.Errorf("element %d = (%s, %q), want (%s, %q)",
				i, elements[i].Type, elements[i].Content, w.typ, w.content)
		}
	}
}

func TestParse_CategoryMajorOrder(t *testing.T) {
	parser := newTestParser(t)

	// Lighting appears before the subject in the text; output order still
	// follows the trigger table, not text order.
	elements := parser.Parse("golden hour, lone warrior")

	if len(elements) < 2 {
		t.Fatalf("got %d elements, want at least 2", len(elements))
	}
	if elements[0].Type != models.CategorySubject {
		t.Errorf("first element type = %s, want subject", elements[0].Type)
	}
	if elements[0].Content != "lone warrior" {
		t.Errorf("first element content = %q, want %q", elements[0].Content, "lone warrior")
	}
	if elements[1].Type != models.CategoryLighting {
		t.Errorf("second element type = %s, want lighting", elements[1].Type)
	}
}

func TestParse_LeftoverFragmentsBecomeCustom(t *testing.T) {
	parser := newTestParser(t)

	elements := parser.Parse("beautiful anime girl, floating crystal shards")

	var custom []models.Element
	for _, el := range elements {
		if el.Type == models.CategoryCustom {
			custom = append(custom, el)
		}
	}
	if len(custom) != 1 {
		t.Fatalf("got %d custom elements, want 1: %+v", len(custom), elements)
	}
	if custom[0].Content != "floating crystal shards" {
		t.Errorf("custom content = %q, want %q", custom[0].Content, "floating crystal shards")
	}
	// Custom elements continue the position sequence after typed ones
	if custom[0].Position != len(elements)-1 {
		t.Errorf("custom position = %d, want %d", custom[0].Position, len(elements)-1)
	}
}

func TestParse_EveryFragmentCovered(t *testing.T) {
	parser := newTestParser(t)

	inputs := []string{
		"beautiful anime girl, digital art, soft lighting",
		"misty forest, watercolor, serene, 8k",
		"nothing recognizable here, qwerty asdf",
		"dragon, dramatic, low angle, muted colors",
	}

	for _, input := range inputs {
		elements := parser.Parse(input)
		for _, fragment := range strings.Split(input, ",") {
			fragment = strings.TrimSpace(fragment)
			if fragment == "" {
				continue
			}
			covered := false
			for _, el := range elements {
				if strings.Contains(strings.ToLower(el.Content), strings.ToLower(fragment)) {
					covered = true
					break
				}
			}
			if !covered {
				t.Errorf("input %q: fragment %q not covered by any element", input, fragment)
			}
		}
	}
}

func TestParse_PositionsMonotonic(t *testing.T) {
	parser := newTestParser(t)

	elements := parser.Parse("ancient castle, oil painting, moonlight, eerie, masterpiece, odd leftover")
	for i, el := range elements {
		if el.Position != i {
			t.Errorf("element %d has position %d", i, el.Position)
		}
		if el.ID == "" {
			t.Errorf("element %d has empty id", i)
		}
	}
}

func TestNewParserFromTable_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"empty table", "categories: []"},
		{"unknown category", "categories:\n  - category: flavor\n    patterns: [\"x\"]"},
		{"custom category", "categories:\n  - category: custom\n    patterns: [\"x\"]"},
		{"no patterns", "categories:\n  - category: subject\n    patterns: []"},
		{"bad regex", "categories:\n  - category: subject\n    patterns: [\"(\"]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := newParserFromTable([]byte(tt.yaml), testLogger()); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}
