package domain

import "time"

// ScoreBreakdown mirrors every component contributing to overall_score, so
// the read surface can re-derive a score without recomputation.
type ScoreBreakdown struct {
	GrossYield        float64 `json:"gross_yield"`
	Fee               float64 `json:"fee"`
	NetYield          float64 `json:"net_yield"`
	YieldVelocity     float64 `json:"yield_velocity"`
	LiquidityScore    float64 `json:"liquidity_score"`
	DefinitionRisk    float64 `json:"definition_risk_score"`
	StalenessPenalty  float64 `json:"staleness_penalty"`
	NormYieldVelocity float64 `json:"norm_yield_velocity"`
	NormNetYield      float64 `json:"norm_net_yield"`
	Weights           ScoreWeights `json:"weights"`
}

// ScoreWeights is the weight vector used for one computation, copied into
// the breakdown for explainability (spec.md §9).
type ScoreWeights struct {
	W1 float64 `json:"w1"`
	W2 float64 `json:"w2"`
	W3 float64 `json:"w3"`
	W4 float64 `json:"w4"`
	W5 float64 `json:"w5"`
}

// ScoreSnapshot is the single latest row per market (spec.md §3).
type ScoreSnapshot struct {
	Venue             string
	MarketID          string
	AsOf              time.Time
	TRemainingSec     float64
	GrossYield        float64
	FeeBps            float64
	NetYield          float64
	YieldVelocity     float64
	LiquidityScore    float64
	StalenessSec      float64
	StalenessPenalty  float64
	DefinitionRiskScore float64
	OverallScore      float64
	Breakdown         ScoreBreakdown
}

// RecommendationSnapshot is the single latest row per market, written only
// for markets that passed eligibility in the same scoring tick.
type RecommendationSnapshot struct {
	Venue             string
	MarketID          string
	AsOf              time.Time
	RecommendedSide   Side
	EntryPrice        float64
	ExpectedPayout    float64
	MaxPositionPct    float64
	RiskScore         float64
	RiskFlags         []RiskFlag
	Notes             string
}
