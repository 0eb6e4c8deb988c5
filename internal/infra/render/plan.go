package render

import (
	"fmt"
	"strings"

	"github.com/bryanwahyu/domain-intel/internal/domain/analysis"
	"github.com/bryanwahyu/domain-intel/internal/domain/report"
)

// Placeholder replaces any missing or empty section.
const Placeholder = "No data available"

type BlockKind int

const (
	BlockTitle BlockKind = iota
	BlockSubtitle
	BlockMeta
	BlockPageBreak
	BlockHeading
	BlockParagraph
	BlockBullet
	BlockEntry // bold label followed by text, starts a numbered entry
	BlockField // bold label followed by text
)

// Block is one layout instruction.
type Block struct {
	Kind  BlockKind
	Label string
	Text  string
}

// pageBreakBefore lists the sections that start on a new page.
var pageBreakBefore = map[int]bool{6: true, 12: true}

// Plan lays the document out as a flat list of blocks: title block, the 13
// sections in fixed order, then the news appendix when there is news.
func Plan(doc analysis.Document) []Block {
	blocks := []Block{
		{Kind: BlockTitle, Text: "Business Intelligence Report"},
		{Kind: BlockSubtitle, Text: "Domain: " + doc.Domain},
		{Kind: BlockMeta, Text: "Generated: " + doc.GeneratedAt.UTC().Format("2006-01-02 15:04")},
	}
	for _, s := range report.Sections {
		if pageBreakBefore[s.Number] {
			blocks = append(blocks, Block{Kind: BlockPageBreak})
		}
		blocks = append(blocks, Block{Kind: BlockHeading, Text: fmt.Sprintf("%d. %s", s.Number, s.Title)})
		body := sectionBlocks(doc.Report, s.Number)
		if len(body) == 0 {
			body = []Block{{Kind: BlockParagraph, Text: Placeholder}}
		}
		blocks = append(blocks, body...)
	}

	if len(doc.News) > 0 {
		blocks = append(blocks,
			Block{Kind: BlockPageBreak},
			Block{Kind: BlockHeading, Text: fmt.Sprintf("%d. Recent News & Market Updates", len(report.Sections)+1)},
		)
		for i, n := range doc.News {
			blocks = append(blocks, Block{Kind: BlockEntry, Label: fmt.Sprintf("%d.", i+1), Text: n.Title})
			source := n.Source
			if n.Published != "" {
				source += " | Published: " + n.Published
			}
			blocks = append(blocks, field("Source:", source), field("URL:", n.URL))
			if n.Content != "" {
				blocks = append(blocks, Block{Kind: BlockParagraph, Text: n.Content})
			}
		}
	}
	return blocks
}

func sectionBlocks(r *report.Report, n int) []Block {
	if r == nil {
		return nil
	}
	switch n {
	case 1:
		return paragraphs(r.IndustryOverview)
	case 2:
		m := r.MarketSizeAndTrends
		return fields("Market Size:", m.MarketSize, "Growth Rate:", m.GrowthRate, "Key Trends:", m.KeyTrends)
	case 3:
		return bullets(r.TargetCustomerSegments)
	case 4:
		return bullets(r.CustomerPainPoints)
	case 5:
		b := r.BuyingBehavior
		return fields("Decision Process:", b.DecisionProcess, "Budget Cycle:", b.BudgetCycle, "Key Influencers:", b.KeyInfluencers)
	case 6:
		var out []Block
		for _, c := range r.TopCompetitors {
			if strings.TrimSpace(c.Name) == "" {
				continue
			}
			out = append(out, field(c.Name+":", c.Positioning))
		}
		return out
	case 7:
		var out []Block
		for i, o := range r.CommonObjections {
			out = append(out, Block{Kind: BlockEntry, Label: fmt.Sprintf("Objection %d:", i+1), Text: o.Objection})
			out = append(out, field("Response:", o.Response))
		}
		return out
	case 8:
		return bullets(r.UniqueSellingPropositions)
	case 9:
		return bullets(r.EmergingOpportunities)
	case 10:
		return bullets(r.RecommendedStrategies)
	case 11:
		return bullets(r.AIAutomationOpportunities)
	case 12:
		var out []Block
		for i, c := range r.SalesTeamChallenges {
			out = append(out,
				Block{Kind: BlockEntry, Label: fmt.Sprintf("Challenge %d:", i+1), Text: c.Challenge},
				field("Impact:", c.Impact),
				field("Frequency:", c.Frequency),
			)
		}
		return out
	case 13:
		var out []Block
		for i, u := range r.SalesUpskillingRecommendations {
			out = append(out,
				Block{Kind: BlockEntry, Label: fmt.Sprintf("Recommendation %d:", i+1), Text: u.SkillArea},
				field("Training Type:", u.TrainingType),
				field("Priority:", u.Priority),
				field("Expected Outcome:", u.ExpectedOutcome),
			)
		}
		return out
	}
	return nil
}

func paragraphs(text string) []Block {
	var out []Block
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, Block{Kind: BlockParagraph, Text: p})
		}
	}
	return out
}

func bullets(items []string) []Block {
	var out []Block
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, Block{Kind: BlockBullet, Text: it})
		}
	}
	return out
}

// fields takes label/value pairs and skips empty values.
func fields(pairs ...string) []Block {
	var out []Block
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) != "" {
			out = append(out, field(pairs[i], pairs[i+1]))
		}
	}
	return out
}

func field(label, text string) Block {
	if strings.TrimSpace(text) == "" {
		text = "N/A"
	}
	return Block{Kind: BlockField, Label: label, Text: text}
}
