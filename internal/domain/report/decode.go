package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrGenerationParse marks LLM output that does not satisfy the report schema.
var ErrGenerationParse = errors.New("generation parse error")

// Decode parses raw LLM output into a Report. It either returns a fully
// valid report or an error wrapping ErrGenerationParse, never a partial one.
func Decode(raw string) (*Report, error) {
	body := StripCodeFence(raw)
	if body == "" {
		return nil, fmt.Errorf("%w: empty response", ErrGenerationParse)
	}

	// presence check first, so a missing key is reported by name
	var keys map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &keys); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationParse, err)
	}
	for _, s := range Sections {
		v, ok := keys[s.Key]
		if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return nil, fmt.Errorf("%w: missing section %q", ErrGenerationParse, s.Key)
		}
	}

	dec := json.NewDecoder(strings.NewReader(body))
	dec.DisallowUnknownFields()
	var r Report
	if err := dec.Decode(&r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationParse, err)
	}
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationParse, err)
	}
	return &r, nil
}

// StripCodeFence removes a surrounding ```json ... ``` block if present.
func StripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// Validate checks every section is populated and that the two sales
// sections carry between MinSalesEntries and MaxSalesEntries complete entries.
func (r *Report) Validate() error {
	if blank(r.IndustryOverview) {
		return errors.New("industry_overview is empty")
	}
	m := r.MarketSizeAndTrends
	if blank(m.MarketSize) && blank(m.GrowthRate) && blank(m.KeyTrends) {
		return errors.New("market_size_and_trends is empty")
	}
	b := r.BuyingBehavior
	if blank(b.DecisionProcess) && blank(b.BudgetCycle) && blank(b.KeyInfluencers) {
		return errors.New("buying_behavior is empty")
	}

	lists := []struct {
		key   string
		items []string
	}{
		{"target_customer_segments", r.TargetCustomerSegments},
		{"customer_pain_points", r.CustomerPainPoints},
		{"unique_selling_propositions", r.UniqueSellingPropositions},
		{"emerging_opportunities", r.EmergingOpportunities},
		{"recommended_strategies", r.RecommendedStrategies},
		{"ai_automation_opportunities", r.AIAutomationOpportunities},
	}
	for _, l := range lists {
		if len(l.items) == 0 {
			return fmt.Errorf("%s is empty", l.key)
		}
		for i, it := range l.items {
			if blank(it) {
				return fmt.Errorf("%s[%d] is empty", l.key, i)
			}
		}
	}

	if len(r.TopCompetitors) == 0 {
		return errors.New("top_competitors is empty")
	}
	for i, c := range r.TopCompetitors {
		if blank(c.Name) {
			return fmt.Errorf("top_competitors[%d].name is empty", i)
		}
	}
	if len(r.CommonObjections) == 0 {
		return errors.New("common_objections is empty")
	}
	for i, o := range r.CommonObjections {
		if blank(o.Objection) || blank(o.Response) {
			return fmt.Errorf("common_objections[%d] is incomplete", i)
		}
	}

	if err := countInRange("sales_team_challenges", len(r.SalesTeamChallenges)); err != nil {
		return err
	}
	for i, c := range r.SalesTeamChallenges {
		if blank(c.Challenge) || blank(c.Impact) || blank(c.Frequency) {
			return fmt.Errorf("sales_team_challenges[%d] is incomplete", i)
		}
	}
	if err := countInRange("sales_upskilling_recommendations", len(r.SalesUpskillingRecommendations)); err != nil {
		return err
	}
	for i, u := range r.SalesUpskillingRecommendations {
		if blank(u.SkillArea) || blank(u.TrainingType) || blank(u.Priority) || blank(u.ExpectedOutcome) {
			return fmt.Errorf("sales_upskilling_recommendations[%d] is incomplete", i)
		}
	}
	return nil
}

func countInRange(key string, n int) error {
	if n < MinSalesEntries || n > MaxSalesEntries {
		return fmt.Errorf("%s has %d entries, want %d-%d", key, n, MinSalesEntries, MaxSalesEntries)
	}
	return nil
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }
