package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/denniswon/pm-endgame-sweep/internal/domain"
)

// UpsertRuleLatest replaces the stored row only when rule_hash differs;
// otherwise it touches updated_at only, per spec.md §4.B and scenario S6.
func (g *Gateway) UpsertRuleLatest(ctx context.Context, rule domain.RuleSnapshot) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	flagsJSON, err := json.Marshal(rule.RiskFlags)
	if err != nil {
		return fmt.Errorf("postgres: upsert_rule_latest: marshal flags: %w", err)
	}

	_, err = g.db.ExecContext(ctx, `
		INSERT INTO rules_latest (venue, market_id, as_of, rule_text, rule_hash, settlement_source, settlement_window, definition_risk_score, risk_flags, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
		ON CONFLICT (venue, market_id) DO UPDATE SET
			as_of = CASE WHEN rules_latest.rule_hash != EXCLUDED.rule_hash THEN EXCLUDED.as_of ELSE rules_latest.as_of END,
			rule_text = CASE WHEN rules_latest.rule_hash != EXCLUDED.rule_hash THEN EXCLUDED.rule_text ELSE rules_latest.rule_text END,
			rule_hash = CASE WHEN rules_latest.rule_hash != EXCLUDED.rule_hash THEN EXCLUDED.rule_hash ELSE rules_latest.rule_hash END,
			settlement_source = CASE WHEN rules_latest.rule_hash != EXCLUDED.rule_hash THEN EXCLUDED.settlement_source ELSE rules_latest.settlement_source END,
			settlement_window = CASE WHEN rules_latest.rule_hash != EXCLUDED.rule_hash THEN EXCLUDED.settlement_window ELSE rules_latest.settlement_window END,
			definition_risk_score = CASE WHEN rules_latest.rule_hash != EXCLUDED.rule_hash THEN EXCLUDED.definition_risk_score ELSE rules_latest.definition_risk_score END,
			risk_flags = CASE WHEN rules_latest.rule_hash != EXCLUDED.rule_hash THEN EXCLUDED.risk_flags ELSE rules_latest.risk_flags END,
			updated_at = now()`,
		rule.Venue, rule.MarketID, rule.AsOf, rule.RuleText, rule.RuleHash,
		rule.SettlementSource, rule.SettlementWindow, rule.DefinitionRiskScore, flagsJSON)
	if err != nil {
		return fmt.Errorf("postgres: upsert_rule_latest: %w", err)
	}
	return nil
}
