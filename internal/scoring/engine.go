// Package scoring implements the Scoring Engine: eligibility gates, feature
// computation, the overall opportunity score, risk aggregation, and sizing
// guidance described in spec.md §4.E. Every function here is pure: given
// fixed inputs and fixed configuration the engine produces identical
// output (testable property #1).
package scoring

import (
	"math"
	"time"

	"github.com/denniswon/pm-endgame-sweep/internal/config"
	"github.com/denniswon/pm-endgame-sweep/internal/domain"
)

// minTDays is MIN_T_DAYS from spec.md §4.E: 1/24 of a day, i.e. one hour,
// the floor below which yield_velocity is not allowed to blow up.
const minTDays = 1.0 / 24.0

// Input bundles the triple load_scoring_inputs streams per market, plus the
// extractor's latest output for that market's rule text.
type Input struct {
	Market domain.Market
	Quote  domain.QuoteSnapshot
	Rule   domain.RuleSnapshot
}

// Eligible reports whether a market is scored this tick, per the gates in
// spec.md §4.E. now is passed explicitly so the engine never reads the
// clock internally — it stays a pure function of its arguments.
func Eligible(in Input, cfg config.ScoringConfig, now time.Time) bool {
	m := in.Market
	if m.Status != domain.StatusActive {
		return false
	}
	if m.CloseTime == nil || !m.CloseTime.After(now) {
		return false
	}
	tRemaining := m.CloseTime.Sub(now).Seconds()
	if tRemaining < cfg.MinTRemainingSec || tRemaining > cfg.MaxTRemainingSec {
		return false
	}
	if in.Quote.MarketID == "" {
		return false
	}
	if now.Sub(in.Quote.AsOf).Seconds() > cfg.QuoteStaleMaxSec {
		return false
	}
	if in.Rule.MarketID == "" {
		return false
	}
	return true
}

// norm implements norm(x, lo, hi) = clamp((x-lo)/(hi-lo), 0, 1).
func norm(x, lo, hi float64) float64 {
	if hi <= lo {
		return 0
	}
	v := (x - lo) / (hi - lo)
	return clamp01(v)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// recommendedLeg picks the side to recommend: whichever ask is higher, i.e.
// whose implied probability of winning is larger. When only one ask is
// present, that side is picked. When both asks are missing, ok is false.
// When the two asks are equal (within 1e-9, at any price level),
// cfg.TieBreakSide picks the side; asks that are close but not equal are
// decided by the higher ask alone.
func recommendedLeg(q domain.QuoteSnapshot, cfg config.ScoringConfig) (side domain.Side, ask, bid *float64, ok bool) {
	yesAsk, noAsk := q.YesAsk, q.NoAsk
	switch {
	case yesAsk == nil && noAsk == nil:
		return "", nil, nil, false
	case yesAsk == nil:
		return domain.SideNo, q.NoAsk, q.NoBid, true
	case noAsk == nil:
		return domain.SideYes, q.YesAsk, q.YesBid, true
	case math.Abs(*yesAsk-*noAsk) < 1e-9:
		if domain.Side(cfg.TieBreakSide) == domain.SideYes {
			return domain.SideYes, q.YesAsk, q.YesBid, true
		}
		return domain.SideNo, q.NoAsk, q.NoBid, true
	case *noAsk > *yesAsk:
		return domain.SideNo, q.NoAsk, q.NoBid, true
	default:
		return domain.SideYes, q.YesAsk, q.YesBid, true
	}
}

// Compute runs the full feature pipeline and produces a ScoreSnapshot plus
// a RecommendationSnapshot for a market that has already passed Eligible.
// ok is false if any computed value would be non-finite, per the failure
// semantics in spec.md §4.E — the caller must drop the market this tick.
func Compute(in Input, cfg config.ScoringConfig, now time.Time) (domain.ScoreSnapshot, domain.RecommendationSnapshot, bool) {
	side, ask, bid, ok := recommendedLeg(in.Quote, cfg)
	if !ok || ask == nil {
		return domain.ScoreSnapshot{}, domain.RecommendationSnapshot{}, false
	}
	p := *ask

	grossYield := 1 - p
	fee := p * cfg.FeeBps / 10_000
	netYield := math.Max(grossYield-fee, 0)

	tRemaining := in.Market.CloseTime.Sub(now).Seconds()
	tDays := math.Max(tRemaining/86_400, minTDays)
	yieldVelocity := netYield / tDays

	stalenessSec := now.Sub(in.Quote.AsOf).Seconds()
	stalenessPenalty := clamp01(stalenessSec / cfg.QuoteStaleMaxSec)

	spread := 1.0
	if bid != nil {
		spread = math.Max(p-*bid, 0)
	}
	liquidityScore := clamp01(1-spread/cfg.SpreadTarget) * (1 - stalenessPenalty)

	normYieldVelocity := norm(yieldVelocity, cfg.YieldVelocityBounds.Lo, cfg.YieldVelocityBounds.Hi)
	normNetYield := norm(netYield, cfg.NetYieldBounds.Lo, cfg.NetYieldBounds.Hi)
	definitionRisk := in.Rule.DefinitionRiskScore

	overall := cfg.W1*normYieldVelocity + cfg.W2*normNetYield + cfg.W3*liquidityScore -
		cfg.W4*definitionRisk - cfg.W5*stalenessPenalty
	overall = clamp01(overall)

	values := []float64{grossYield, fee, netYield, yieldVelocity, stalenessPenalty, liquidityScore, overall}
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return domain.ScoreSnapshot{}, domain.RecommendationSnapshot{}, false
		}
	}

	breakdown := domain.ScoreBreakdown{
		GrossYield:        grossYield,
		Fee:               fee,
		NetYield:          netYield,
		YieldVelocity:     yieldVelocity,
		LiquidityScore:    liquidityScore,
		DefinitionRisk:    definitionRisk,
		StalenessPenalty:  stalenessPenalty,
		NormYieldVelocity: normYieldVelocity,
		NormNetYield:      normNetYield,
		Weights: domain.ScoreWeights{
			W1: cfg.W1, W2: cfg.W2, W3: cfg.W3, W4: cfg.W4, W5: cfg.W5,
		},
	}

	score := domain.ScoreSnapshot{
		Venue:               in.Market.Venue,
		MarketID:            in.Market.MarketID,
		AsOf:                now,
		TRemainingSec:       tRemaining,
		GrossYield:          grossYield,
		FeeBps:              cfg.FeeBps,
		NetYield:            netYield,
		YieldVelocity:       yieldVelocity,
		LiquidityScore:      liquidityScore,
		StalenessSec:        stalenessSec,
		StalenessPenalty:    stalenessPenalty,
		DefinitionRiskScore: definitionRisk,
		OverallScore:        overall,
		Breakdown:           breakdown,
	}

	riskScore := RiskScore(definitionRisk, liquidityScore, stalenessPenalty)
	rec := domain.RecommendationSnapshot{
		Venue:           in.Market.Venue,
		MarketID:        in.Market.MarketID,
		AsOf:            now,
		RecommendedSide: side,
		EntryPrice:      p,
		ExpectedPayout:  1.0,
		MaxPositionPct:  SizingGuidance(riskScore, liquidityScore),
		RiskScore:       riskScore,
		RiskFlags:       in.Rule.RiskFlags,
	}

	return score, rec, true
}

// RiskScore aggregates definition risk, illiquidity, and staleness into a
// single [0,1] figure per spec.md §4.E.
func RiskScore(definitionRisk, liquidityScore, stalenessPenalty float64) float64 {
	return clamp01(0.6*definitionRisk + 0.25*(1-liquidityScore) + 0.15*stalenessPenalty)
}

// SizingGuidance derives max_position_pct from risk and liquidity, clamped
// to [0.01, 0.10] per spec.md §4.E and testable property #2.
func SizingGuidance(riskScore, liquidityScore float64) float64 {
	const base = 0.10
	haircut := 1 - riskScore
	liq := 0.5 + 0.5*liquidityScore
	v := base * haircut * liq
	if v < 0.01 {
		return 0.01
	}
	if v > 0.10 {
		return 0.10
	}
	return v
}
