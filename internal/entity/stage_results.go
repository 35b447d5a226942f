package entity

// ClassificationResult is the A1 stage output: a structural read of what kind
// of thought this is, ported 1:1 from classify()'s return shape.
type ClassificationResult struct {
	Type          string         `json:"type" validate:"required,oneof=task problem idea question observation emotion"`
	Urgency       string         `json:"urgency" validate:"required,oneof=immediate soon eventually never"`
	Entities      EntityMentions `json:"entities" validate:"required"`
	EmotionalTone string         `json:"emotional_tone" validate:"required,oneof=excited anxious frustrated neutral curious overwhelmed hopeful"`
	ImpliedNeeds  []string       `json:"implied_needs"`
	Complexity    string         `json:"complexity" validate:"required,oneof=simple moderate complex"`
}

type EntityMentions struct {
	People []string `json:"people"`
	Dates  []string `json:"dates"`
	Places []string `json:"places"`
	Topics []string `json:"topics"`
}

// AnalysisResult is the A2 stage output, ported 1:1 from analyze_deeply().
type AnalysisResult struct {
	GoalAlignment       GoalAlignment        `json:"goal_alignment" validate:"required"`
	UnderlyingNeeds     []string             `json:"underlying_needs"`
	PatternConnections  []string             `json:"pattern_connections"`
	RealisticAssessment RealisticAssessment  `json:"realistic_assessment" validate:"required"`
	UnspokenFactors     []string             `json:"unspoken_factors"`
	OpportunityCost     string               `json:"opportunity_cost"`
}

type GoalAlignment struct {
	AlignedGoals     []string `json:"aligned_goals"`
	ConflictingGoals []string `json:"conflicting_goals"`
	Reasoning        string   `json:"reasoning"`
}

type RealisticAssessment struct {
	Feasibility       string `json:"feasibility"`
	GivenConstraints  string `json:"given_constraints"`
	TimeRequired      string `json:"time_required"`
}

// ValueDimension is the shared shape of each of the five A3 value scores.
type ValueDimension struct {
	Score      float64 `json:"score" validate:"gte=0,lte=10"`
	Reasoning  string  `json:"reasoning"`
	Confidence string  `json:"confidence" validate:"required,oneof=low medium high"`
}

// ValueImpactResult is the A3 stage output, ported 1:1 from assess_value()'s
// five independently-scored dimensions plus the weighted rollup.
type ValueImpactResult struct {
	EconomicValue struct {
		ValueDimension
		Timeframe string `json:"timeframe"`
	} `json:"economic_value" validate:"required"`
	RelationalValue struct {
		ValueDimension
		AffectedRelationships []string `json:"affected_relationships"`
	} `json:"relational_value" validate:"required"`
	LegacyValue struct {
		ValueDimension
		LongTermImpact string `json:"long_term_impact"`
	} `json:"legacy_value" validate:"required"`
	HealthValue struct {
		ValueDimension
		PhysicalMental string `json:"physical_mental"`
	} `json:"health_value" validate:"required"`
	GrowthValue struct {
		ValueDimension
		LearningAreas []string `json:"learning_areas"`
	} `json:"growth_value" validate:"required"`
	WeightedTotal      float64 `json:"weighted_total"`
	OverallAssessment  string  `json:"overall_assessment"`
}

// ActionPlanResult is the A4 stage output, ported 1:1 from plan_actions().
type ActionPlanResult struct {
	QuickWins []struct {
		Action  string `json:"action"`
		Duration string `json:"duration"`
		Timing  string `json:"timing"`
		Outcome string `json:"outcome"`
	} `json:"quick_wins"`
	MainActions []struct {
		Action        string   `json:"action"`
		Duration      string   `json:"duration"`
		Prerequisites []string `json:"prerequisites"`
		Obstacles     []string `json:"obstacles"`
		Mitigation    string   `json:"mitigation"`
		Timing        string   `json:"timing"`
	} `json:"main_actions"`
	DelegationOpportunities []struct {
		Task string `json:"task"`
		Who  string `json:"who"`
		Why  string `json:"why"`
	} `json:"delegation_opportunities"`
	Avoid          []string `json:"avoid"`
	SuccessMetrics []string `json:"success_metrics"`
}

// PriorityResult is the A5 stage output, ported 1:1 from prioritize().
type PriorityResult struct {
	PriorityLevel        string   `json:"priority_level" validate:"required,oneof=Critical High Medium Low Defer"`
	UrgencyReasoning     string   `json:"urgency_reasoning"`
	StrategicFit         string   `json:"strategic_fit"`
	MomentumImpact       string   `json:"momentum_impact"`
	RecommendedTimeline  struct {
		Start       string   `json:"start"`
		Duration    string   `json:"duration"`
		Checkpoints []string `json:"checkpoints"`
	} `json:"recommended_timeline"`
	Dependencies        []string `json:"dependencies"`
	RiskAssessment      string   `json:"risk_assessment"`
	Confidence          string   `json:"confidence" validate:"required,oneof=low medium high"`
	FinalRecommendation string   `json:"final_recommendation"`
}
