package prompt

import (
	"fmt"
	"strings"

	"github.com/bryanwahyu/domain-intel/internal/domain/analysis"
)

const (
	contentPreviewChars = 2000
	newsSummaryChars    = 200
	maxNewsItems        = 5
	maxMarketSnippets   = 2
)

// ReportSystemPrompt fixes the role and the exact 13-section JSON schema.
func ReportSystemPrompt() string {
	return `You are a business intelligence and sales strategist AI. You must produce one valid JSON object only (no markdown, no commentary, no code fences) that follows the schema below exactly. Do not add keys.

Requirements:
- industry_overview: 2-3 paragraphs.
- market_size_and_trends: estimates with growth percentages.
- target_customer_segments: 3-5 segments. customer_pain_points: 5-7 items.
- top_competitors: 3-5 competitors. common_objections: 5-7 objections with responses.
- unique_selling_propositions: 3-5 items. emerging_opportunities (next 3-5 years): 4-6 items.
- recommended_strategies: 5-7 actionable strategies. ai_automation_opportunities: 4-6 items.
- sales_team_challenges: 5-7 challenges sales people face selling similar products or services.
- sales_upskilling_recommendations: 5-7 skill areas with concrete training suggestions.
- Every string must be non-empty.

Schema:
{
  "industry_overview": "string",
  "market_size_and_trends": {"market_size": "string", "growth_rate": "string", "key_trends": "string"},
  "target_customer_segments": ["string"],
  "customer_pain_points": ["string"],
  "buying_behavior": {"decision_process": "string", "budget_cycle": "string", "key_influencers": "string"},
  "top_competitors": [{"name": "string", "positioning": "string"}],
  "common_objections": [{"objection": "string", "response": "string"}],
  "unique_selling_propositions": ["string"],
  "emerging_opportunities": ["string"],
  "recommended_strategies": ["string"],
  "ai_automation_opportunities": ["string"],
  "sales_team_challenges": [{"challenge": "string", "impact": "string", "frequency": "string"}],
  "sales_upskilling_recommendations": [{"skill_area": "string", "training_type": "string", "priority": "string", "expected_outcome": "string"}]
}`
}

// ReportUserPrompt renders the scraped context for one domain.
func ReportUserPrompt(domain string, data *analysis.ScrapedData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Given the domain: %q\n\n", domain)

	title, desc, content := "N/A", "N/A", "N/A"
	if data != nil {
		w := data.WebsiteData
		title = orNA(w.Title)
		desc = orNA(w.Description)
		content = orNA(truncate(w.Content, contentPreviewChars))
	}
	b.WriteString("Website Information:\n")
	fmt.Fprintf(&b, "- Title: %s\n- Description: %s\n- Content Preview: %s\n\n", title, desc, content)

	var ext analysis.ExternalData
	if data != nil {
		ext = data.ExternalData
	}

	b.WriteString("Recent News & Market Context:\n")
	if len(ext.News) == 0 {
		b.WriteString("No recent news available\n")
	}
	for i, n := range ext.News {
		if i == maxNewsItems {
			break
		}
		fmt.Fprintf(&b, "%d. %s", i+1, n.Title)
		if n.Source != "" {
			fmt.Fprintf(&b, " (%s)", n.Source)
		}
		b.WriteString("\n")
		if n.Content != "" {
			fmt.Fprintf(&b, "   Summary: %s\n", truncate(n.Content, newsSummaryChars))
		}
	}

	b.WriteString("\nIndustry Market Insights:\n")
	if ext.IndustryInsights == nil || len(ext.IndustryInsights.MarketSnippets) == 0 {
		b.WriteString("No market insights available\n")
	} else {
		for i, s := range ext.IndustryInsights.MarketSnippets {
			if i == maxMarketSnippets {
				break
			}
			fmt.Fprintf(&b, "- %s\n", s)
		}
	}

	if ext.LinkedIn != nil {
		fmt.Fprintf(&b, "\nLinkedIn: %s (Found: %t)\n", orNA(ext.LinkedIn.CompanyURL), ext.LinkedIn.Found)
	} else {
		b.WriteString("\nLinkedIn: Not available (Found: false)\n")
	}

	b.WriteString("\nGenerate the comprehensive structured business intelligence report as one JSON object following the schema.")
	return b.String()
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
