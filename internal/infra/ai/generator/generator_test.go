package generator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bryanwahyu/domain-intel/internal/domain/analysis"
	"github.com/bryanwahyu/domain-intel/internal/domain/report"
)

type fakeClient struct {
	reply  string
	err    error
	system string
	user   string
}

func (f *fakeClient) Complete(_ context.Context, system, user string) (string, error) {
	f.system, f.user = system, user
	return f.reply, f.err
}

const validReply = `{
 "industry_overview": "Commerce software.",
 "market_size_and_trends": {"market_size": "$6T", "growth_rate": "10%", "key_trends": "AI"},
 "target_customer_segments": ["SMB"],
 "customer_pain_points": ["Cart abandonment"],
 "buying_behavior": {"decision_process": "Trial", "budget_cycle": "Annual", "key_influencers": "CMO"},
 "top_competitors": [{"name": "Wix", "positioning": "Website builder"}],
 "common_objections": [{"objection": "Price", "response": "ROI"}],
 "unique_selling_propositions": ["App store"],
 "emerging_opportunities": ["B2B"],
 "recommended_strategies": ["Case studies"],
 "ai_automation_opportunities": ["Copywriting"],
 "sales_team_challenges": [
  {"challenge": "a", "impact": "b", "frequency": "c"},
  {"challenge": "a", "impact": "b", "frequency": "c"},
  {"challenge": "a", "impact": "b", "frequency": "c"},
  {"challenge": "a", "impact": "b", "frequency": "c"},
  {"challenge": "a", "impact": "b", "frequency": "c"}
 ],
 "sales_upskilling_recommendations": [
  {"skill_area": "a", "training_type": "b", "priority": "c", "expected_outcome": "d"},
  {"skill_area": "a", "training_type": "b", "priority": "c", "expected_outcome": "d"},
  {"skill_area": "a", "training_type": "b", "priority": "c", "expected_outcome": "d"},
  {"skill_area": "a", "training_type": "b", "priority": "c", "expected_outcome": "d"},
  {"skill_area": "a", "training_type": "b", "priority": "c", "expected_outcome": "d"}
 ]
}`

func TestGenerate(t *testing.T) {
	t.Parallel()

	t.Run("decodes valid reply", func(t *testing.T) {
		t.Parallel()
		fc := &fakeClient{reply: "```json\n" + validReply + "\n```"}
		r, err := New(fc, nil).Generate(context.Background(), "shopify.com", &analysis.ScrapedData{})
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if r.TopCompetitors[0].Name != "Wix" {
			t.Errorf("unexpected report %+v", r.TopCompetitors)
		}
		if !strings.Contains(fc.user, "shopify.com") {
			t.Error("user prompt does not name the domain")
		}
	})

	t.Run("invalid reply is a parse error", func(t *testing.T) {
		t.Parallel()
		fc := &fakeClient{reply: `{"industry_overview": "only this"}`}
		_, err := New(fc, nil).Generate(context.Background(), "x.com", nil)
		if !errors.Is(err, report.ErrGenerationParse) {
			t.Errorf("Generate() error = %v, want ErrGenerationParse", err)
		}
	})

	t.Run("client error propagates", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("connection reset")
		_, err := New(&fakeClient{err: boom}, nil).Generate(context.Background(), "x.com", nil)
		if !errors.Is(err, boom) {
			t.Errorf("Generate() error = %v", err)
		}
	})
}
