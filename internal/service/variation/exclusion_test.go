package variation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"promptforge/internal/domain"
	models "promptforge/internal/domain/models/prompt"
	domainoracle "promptforge/internal/domain/services/oracle"
)

func mustExclusionCatalog(t *testing.T) *ExclusionCatalog {
	t.Helper()
	catalog, err := LoadExclusionCatalog()
	if err != nil {
		t.Fatalf("LoadExclusionCatalog: %v", err)
	}
	return catalog
}

func newExclusions(t *testing.T, oracle domainoracle.Oracle) *exclusionService {
	t.Helper()
	svc := NewExclusionService(oracle, "fake-model", mustExclusionCatalog(t), testLogger())
	return svc.(*exclusionService)
}

func termSet(list string) map[string]bool {
	set := make(map[string]bool)
	for _, term := range strings.Split(list, ",") {
		term = strings.TrimSpace(term)
		if term != "" {
			set[term] = true
		}
	}
	return set
}

func TestBuild_TemplatesNest(t *testing.T) {
	svc := newExclusions(t, nil)
	cfg := &models.ExclusionConfig{
		Style:         "anime",
		SubjectDomain: "portrait",
		QualityLevel:  models.QualityHigh,
	}

	minimal, err := svc.Build(models.TemplateMinimal, cfg)
	if err != nil {
		t.Fatalf("Build minimal: %v", err)
	}
	standard, err := svc.Build(models.TemplateStandard, cfg)
	if err != nil {
		t.Fatalf("Build standard: %v", err)
	}
	comprehensive, err := svc.Build(models.TemplateComprehensive, cfg)
	if err != nil {
		t.Fatalf("Build comprehensive: %v", err)
	}

	minimalSet := termSet(minimal)
	standardSet := termSet(standard)
	comprehensiveSet := termSet(comprehensive)

	for term := range minimalSet {
		if !standardSet[term] {
			t.Errorf("minimal term %q missing from standard", term)
		}
	}
	for term := range standardSet {
		if !comprehensiveSet[term] {
			t.Errorf("standard term %q missing from comprehensive", term)
		}
	}
	if len(comprehensiveSet) <= len(standardSet) || len(standardSet) <= len(minimalSet) {
		t.Errorf("template sizes not strictly growing: %d, %d, %d",
			len(minimalSet), len(standardSet), len(comprehensiveSet))
	}
}

func TestBuild_QualityLevelScales(t *testing.T) {
	svc := newExclusions(t, nil)

	high, _ := svc.Build(models.TemplateMinimal, &models.ExclusionConfig{QualityLevel: models.QualityHigh})
	low, _ := svc.Build(models.TemplateMinimal, &models.ExclusionConfig{QualityLevel: models.QualityLow})

	if len(termSet(high)) <= len(termSet(low)) {
		t.Errorf("high quality list (%d terms) not larger than low (%d terms)",
			len(termSet(high)), len(termSet(low)))
	}
}

func TestBuild_StyleSpecific(t *testing.T) {
	svc := newExclusions(t, nil)

	anime, err := svc.Build(models.TemplateStyleSpecific, &models.ExclusionConfig{
		Style:        "anime",
		QualityLevel: models.QualityLow,
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	set := termSet(anime)

	// Style-specific excludes the anatomy group entirely
	for _, anatomyTerm := range svc.catalog.Anatomy {
		if set[strings.ToLower(anatomyTerm)] {
			t.Errorf("style-specific list contains anatomy term %q", anatomyTerm)
		}
	}
	for _, styleTerm := range svc.catalog.Styles["anime"] {
		if !set[strings.ToLower(styleTerm)] {
			t.Errorf("style-specific list missing style term %q", styleTerm)
		}
	}
}

func TestBuild_UnknownStyleFallsBackToDefault(t *testing.T) {
	svc := newExclusions(t, nil)

	list, err := svc.Build(models.TemplateStyleSpecific, &models.ExclusionConfig{
		Style:        "no-such-style",
		QualityLevel: models.QualityLow,
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	set := termSet(list)
	for _, term := range svc.catalog.Styles["default"] {
		if !set[strings.ToLower(term)] {
			t.Errorf("default style term %q missing", term)
		}
	}
}

func TestBuild_CustomExclusionsAndDedupe(t *testing.T) {
	svc := newExclusions(t, nil)

	list, err := svc.Build(models.TemplateMinimal, &models.ExclusionConfig{
		QualityLevel:     models.QualityLow,
		CustomExclusions: []string{"extra thumbs", "Blurry", "extra thumbs"},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if strings.Count(list, "extra thumbs") != 1 {
		t.Errorf("custom term duplicated in %q", list)
	}
	if strings.Count(list, "blurry") != 1 {
		t.Errorf("case-insensitive duplicate survived in %q", list)
	}
	for _, term := range strings.Split(list, ", ") {
		if term != strings.ToLower(term) {
			t.Errorf("term %q not lowercased", term)
		}
	}
}

func TestBuild_Validation(t *testing.T) {
	svc := newExclusions(t, nil)

	tests := []struct {
		name     string
		template models.ExclusionTemplate
		cfg      *models.ExclusionConfig
	}{
		{"nil config", models.TemplateMinimal, nil},
		{"unknown template", "fancy", &models.ExclusionConfig{QualityLevel: models.QualityLow}},
		{"unknown quality", models.TemplateMinimal, &models.ExclusionConfig{QualityLevel: "extreme"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ve *domain.ValidationError
			if _, err := svc.Build(tt.template, tt.cfg); !errors.As(err, &ve) {
				t.Errorf("error = %v, want ValidationError", err)
			}
		})
	}
}

func TestBuildWithOracle_AcceptsValidOutput(t *testing.T) {
	oracle := &fakeOracle{text: "blurry, low quality, extra fingers, watermark, jpeg artifacts"}
	svc := newExclusions(t, oracle)

	list, err := svc.BuildWithOracle(context.Background(), &models.ExclusionConfig{
		QualityLevel:     models.QualityMedium,
		CustomExclusions: []string{"logo"},
	})
	if err != nil {
		t.Fatalf("BuildWithOracle: %v", err)
	}

	set := termSet(list)
	if !set["blurry"] || !set["watermark"] {
		t.Errorf("oracle terms missing from %q", list)
	}
	if !set["logo"] {
		t.Errorf("custom exclusion missing from %q", list)
	}
}

func TestBuildWithOracle_FallsBackOnBadOutput(t *testing.T) {
	cfg := &models.ExclusionConfig{QualityLevel: models.QualityMedium}

	plain := newExclusions(t, nil)
	want, err := plain.Build(models.TemplateStandard, cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	tests := []struct {
		name   string
		oracle *fakeOracle
	}{
		{"oracle error", &fakeOracle{err: &domain.OracleError{Kind: domain.OracleServerError}}},
		{"too short", &fakeOracle{text: "blurry"}},
		{"code fence", &fakeOracle{text: "```\nblurry, low quality, watermark\n```"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newExclusions(t, tt.oracle)
			got, err := svc.BuildWithOracle(context.Background(), cfg)
			if err != nil {
				t.Fatalf("BuildWithOracle: %v", err)
			}
			if got != want {
				t.Errorf("fallback list = %q, want standard template %q", got, want)
			}
		})
	}
}

func TestBuildWithOracle_NilOracle(t *testing.T) {
	cfg := &models.ExclusionConfig{QualityLevel: models.QualityHigh}
	svc := newExclusions(t, nil)

	got, err := svc.BuildWithOracle(context.Background(), cfg)
	if err != nil {
		t.Fatalf("BuildWithOracle: %v", err)
	}
	want, _ := svc.Build(models.TemplateStandard, cfg)
	if got != want {
		t.Errorf("nil-oracle list = %q, want %q", got, want)
	}
}
