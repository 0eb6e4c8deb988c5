package report

// Report is the 13-section business intelligence document produced by the LLM.
// Field order follows the fixed section order.
type Report struct {
	IndustryOverview               string              `json:"industry_overview"`
	MarketSizeAndTrends            MarketSizeAndTrends `json:"market_size_and_trends"`
	TargetCustomerSegments         []string            `json:"target_customer_segments"`
	CustomerPainPoints             []string            `json:"customer_pain_points"`
	BuyingBehavior                 BuyingBehavior      `json:"buying_behavior"`
	TopCompetitors                 []Competitor        `json:"top_competitors"`
	CommonObjections               []Objection         `json:"common_objections"`
	UniqueSellingPropositions      []string            `json:"unique_selling_propositions"`
	EmergingOpportunities          []string            `json:"emerging_opportunities"`
	RecommendedStrategies          []string            `json:"recommended_strategies"`
	AIAutomationOpportunities      []string            `json:"ai_automation_opportunities"`
	SalesTeamChallenges            []Challenge         `json:"sales_team_challenges"`
	SalesUpskillingRecommendations []Upskilling        `json:"sales_upskilling_recommendations"`
}

type MarketSizeAndTrends struct {
	MarketSize string `json:"market_size"`
	GrowthRate string `json:"growth_rate"`
	KeyTrends  string `json:"key_trends"`
}

type BuyingBehavior struct {
	DecisionProcess string `json:"decision_process"`
	BudgetCycle     string `json:"budget_cycle"`
	KeyInfluencers  string `json:"key_influencers"`
}

type Competitor struct {
	Name        string `json:"name"`
	Positioning string `json:"positioning"`
}

type Objection struct {
	Objection string `json:"objection"`
	Response  string `json:"response"`
}

// Challenge is one entry of sales_team_challenges.
type Challenge struct {
	Challenge string `json:"challenge"`
	Impact    string `json:"impact"`
	Frequency string `json:"frequency"`
}

// Upskilling is one entry of sales_upskilling_recommendations.
type Upskilling struct {
	SkillArea       string `json:"skill_area"`
	TrainingType    string `json:"training_type"`
	Priority        string `json:"priority"`
	ExpectedOutcome string `json:"expected_outcome"`
}

// Section identifies one report section by its 1-based position.
type Section struct {
	Number int
	Key    string
	Title  string
}

// Sections is the fixed section order. Rendering and validation both walk it.
var Sections = []Section{
	{1, "industry_overview", "Industry Overview"},
	{2, "market_size_and_trends", "Market Size and Growth Trends"},
	{3, "target_customer_segments", "Target Customer Segments"},
	{4, "customer_pain_points", "Customer Pain Points"},
	{5, "buying_behavior", "Buying Behavior"},
	{6, "top_competitors", "Top Competitors"},
	{7, "common_objections", "Common Sales Objections"},
	{8, "unique_selling_propositions", "Unique Selling Propositions"},
	{9, "emerging_opportunities", "Emerging Opportunities (3-5 years)"},
	{10, "recommended_strategies", "Recommended Sales Strategies"},
	{11, "ai_automation_opportunities", "AI-Driven Automation Opportunities"},
	{12, "sales_team_challenges", "Sales Team Challenges"},
	{13, "sales_upskilling_recommendations", "Sales Upskilling Recommendations"},
}

const (
	MinSalesEntries = 5
	MaxSalesEntries = 7
)
