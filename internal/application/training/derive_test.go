package training

import (
	"errors"
	"strings"
	"testing"

	"github.com/bryanwahyu/domain-intel/internal/domain/analysis"
	"github.com/bryanwahyu/domain-intel/internal/domain/report"
)

func sampleReport() *report.Report {
	return &report.Report{
		TopCompetitors:            []report.Competitor{{Name: "BigCommerce", Positioning: "Open SaaS"}, {Name: "Wix"}},
		CommonObjections:          []report.Objection{{Objection: "Too expensive", Response: "Show total cost of ownership"}},
		UniqueSellingPropositions: []string{"Largest app ecosystem", " "},
		RecommendedStrategies:     []string{"Lead with merchant case studies"},
	}
}

func TestDerive(t *testing.T) {
	t.Parallel()

	mods, err := Derive("shopify.com", sampleReport())
	if err != nil {
		t.Fatalf("Derive() error = %v", err)
	}
	want := []struct{ typ, section, difficulty string }{
		{analysis.ModuleObjectionHandling, "common_objections", "intermediate"},
		{analysis.ModuleProductKnowledge, "unique_selling_propositions", "beginner"},
		{analysis.ModulePitchStrategy, "recommended_strategies", "intermediate"},
		{analysis.ModuleCompetitorAnalysis, "top_competitors", "advanced"},
	}
	if len(mods) != len(want) {
		t.Fatalf("len(Derive()) = %d, want 4", len(mods))
	}
	for i, w := range want {
		m := mods[i]
		if m.ModuleType != w.typ || m.SourceSection != w.section || m.DifficultyLevel != w.difficulty {
			t.Errorf("module %d = %s/%s/%s", i, m.ModuleType, m.SourceSection, m.DifficultyLevel)
		}
		if m.Position != i || m.EstimatedDurationMinutes != 45 {
			t.Errorf("module %d position/duration = %d/%d", i, m.Position, m.EstimatedDurationMinutes)
		}
		if !strings.Contains(m.Title, "shopify.com") {
			t.Errorf("module %d title = %q", i, m.Title)
		}
	}
	if !strings.Contains(mods[0].Content, "Too expensive") || !strings.Contains(mods[0].Content, "# Objection Handling") {
		t.Errorf("objection content = %q", mods[0].Content)
	}
	if !strings.Contains(mods[3].Content, "**BigCommerce:** Open SaaS") || !strings.Contains(mods[3].Content, "**Wix**") {
		t.Errorf("competitor content = %q", mods[3].Content)
	}
}

func TestDeriveIsDeterministic(t *testing.T) {
	t.Parallel()
	a, _ := Derive("shopify.com", sampleReport())
	b, _ := Derive("shopify.com", sampleReport())
	for i := range a {
		if a[i].Content != b[i].Content {
			t.Errorf("module %d content differs between runs", i)
		}
	}
}

func TestDeriveFailures(t *testing.T) {
	t.Parallel()

	if _, err := Derive("x.com", nil); !errors.Is(err, analysis.ErrDerivationFailure) {
		t.Errorf("Derive(nil) error = %v", err)
	}
	r := sampleReport()
	r.RecommendedStrategies = []string{"  "}
	mods, err := Derive("x.com", r)
	if !errors.Is(err, analysis.ErrDerivationFailure) || mods != nil {
		t.Errorf("Derive() = %v, %v; want derivation failure and no modules", mods, err)
	}
}
