// Package training derives the sales training modules from a report.
package training

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/nao1215/markdown"

	"github.com/bryanwahyu/domain-intel/internal/domain/analysis"
	"github.com/bryanwahyu/domain-intel/internal/domain/report"
)

const defaultDurationMinutes = 45

type moduleDef struct {
	moduleType string
	title      string
	section    string
	difficulty string
	items      func(r *report.Report) []string
}

// modules is the fixed derivation table: one module per source section.
var modules = []moduleDef{
	{
		moduleType: analysis.ModuleObjectionHandling,
		title:      "Objection Handling",
		section:    "common_objections",
		difficulty: "intermediate",
		items: func(r *report.Report) []string {
			out := make([]string, 0, len(r.CommonObjections))
			for _, o := range r.CommonObjections {
				if strings.TrimSpace(o.Objection) == "" {
					continue
				}
				out = append(out, fmt.Sprintf("**Objection:** %s; **Response:** %s", o.Objection, o.Response))
			}
			return out
		},
	},
	{
		moduleType: analysis.ModuleProductKnowledge,
		title:      "Product Knowledge Training",
		section:    "unique_selling_propositions",
		difficulty: "beginner",
		items:      func(r *report.Report) []string { return nonEmpty(r.UniqueSellingPropositions) },
	},
	{
		moduleType: analysis.ModulePitchStrategy,
		title:      "Sales Pitch Strategy",
		section:    "recommended_strategies",
		difficulty: "intermediate",
		items:      func(r *report.Report) []string { return nonEmpty(r.RecommendedStrategies) },
	},
	{
		moduleType: analysis.ModuleCompetitorAnalysis,
		title:      "Competitor Analysis",
		section:    "top_competitors",
		difficulty: "advanced",
		items: func(r *report.Report) []string {
			out := make([]string, 0, len(r.TopCompetitors))
			for _, c := range r.TopCompetitors {
				if strings.TrimSpace(c.Name) == "" {
					continue
				}
				if c.Positioning == "" {
					out = append(out, "**"+c.Name+"**")
					continue
				}
				out = append(out, fmt.Sprintf("**%s:** %s", c.Name, c.Positioning))
			}
			return out
		},
	},
}

// Derive returns exactly four modules in fixed order, or an error wrapping
// analysis.ErrDerivationFailure when a source section has no usable entries.
func Derive(domain string, r *report.Report) ([]*analysis.TrainingModule, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: no report", analysis.ErrDerivationFailure)
	}
	out := make([]*analysis.TrainingModule, 0, len(modules))
	for i, m := range modules {
		items := m.items(r)
		if len(items) == 0 {
			return nil, fmt.Errorf("%w: section %s is empty", analysis.ErrDerivationFailure, m.section)
		}
		content, err := renderContent(domain, m, items)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", analysis.ErrDerivationFailure, err)
		}
		out = append(out, &analysis.TrainingModule{
			ModuleType:               m.moduleType,
			Title:                    fmt.Sprintf("%s - %s", m.title, domain),
			SourceSection:            m.section,
			Content:                  content,
			DifficultyLevel:          m.difficulty,
			EstimatedDurationMinutes: defaultDurationMinutes,
			Position:                 i,
		})
	}
	return out, nil
}

func renderContent(domain string, m moduleDef, items []string) (string, error) {
	var buf bytes.Buffer
	md := markdown.NewMarkdown(&buf)
	md.H1(m.title)
	md.PlainText("")
	md.PlainText(fmt.Sprintf("Training material for selling to and against **%s**, derived from the `%s` section of its business intelligence report.", domain, m.section))
	md.PlainText("")
	md.H2("Key Points")
	md.PlainText("")
	md.BulletList(items...)
	if err := md.Build(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
