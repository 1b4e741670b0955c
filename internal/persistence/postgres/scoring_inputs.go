package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/denniswon/pm-endgame-sweep/internal/domain"
	"github.com/denniswon/pm-endgame-sweep/internal/persistence"
)

// scoringInputRow mirrors one joined result row before it's split back
// into the three domain snapshots that make up a ScoringInputRow.
type scoringInputRow struct {
	Venue        string          `db:"venue"`
	MarketID     string          `db:"market_id"`
	Status       string          `db:"status"`
	CloseTime    sql.NullTime    `db:"close_time"`
	QuoteAsOf    sql.NullTime    `db:"quote_as_of"`
	YesBid       sql.NullFloat64 `db:"yes_bid"`
	YesAsk       sql.NullFloat64 `db:"yes_ask"`
	NoBid        sql.NullFloat64 `db:"no_bid"`
	NoAsk        sql.NullFloat64 `db:"no_ask"`
	RuleAsOf     sql.NullTime    `db:"rule_as_of"`
	RuleText     sql.NullString  `db:"rule_text"`
	RuleHash     sql.NullString  `db:"rule_hash"`
	DefRiskScore sql.NullFloat64 `db:"definition_risk_score"`
	RiskFlags    []byte          `db:"risk_flags"`
}

// LoadScoringInputs streams (market, latest_quote, latest_rule) triples for
// markets satisfying filter, paged by market_id cursor and bounded to
// filter.Limit rows — never an unbounded collection (spec.md §4.B).
func (g *Gateway) LoadScoringInputs(ctx context.Context, filter persistence.ScoringFilter) (persistence.ScoringInputPage, error) {
	limit := filter.Limit
	if limit <= 0 || limit > persistence.MaxBatchSize {
		limit = persistence.MaxBatchSize
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	rows, err := g.db.QueryxContext(ctx, `
		SELECT m.venue, m.market_id, m.status, m.close_time,
			q.as_of AS quote_as_of, q.yes_bid, q.yes_ask, q.no_bid, q.no_ask,
			r.as_of AS rule_as_of, r.rule_text, r.rule_hash, r.definition_risk_score, r.risk_flags
		FROM markets m
		LEFT JOIN quotes_latest q ON q.venue = m.venue AND q.market_id = m.market_id
		LEFT JOIN rules_latest r ON r.venue = m.venue AND r.market_id = m.market_id
		WHERE m.status = $1
			AND m.close_time > $2
			AND m.close_time <= $3
			AND m.market_id > $4
		ORDER BY m.market_id ASC
		LIMIT $5`,
		string(filter.Status), filter.CloseAfter, filter.CloseBefore, filter.Cursor, limit)
	if err != nil {
		return persistence.ScoringInputPage{}, fmt.Errorf("postgres: load_scoring_inputs: query: %w", err)
	}
	defer rows.Close()

	var page persistence.ScoringInputPage
	for rows.Next() {
		var r scoringInputRow
		if err := rows.StructScan(&r); err != nil {
			return persistence.ScoringInputPage{}, fmt.Errorf("postgres: load_scoring_inputs: scan: %w", err)
		}
		page.Rows = append(page.Rows, r.toScoringInputRow())
		page.NextCursor = r.MarketID
	}
	if err := rows.Err(); err != nil {
		return persistence.ScoringInputPage{}, fmt.Errorf("postgres: load_scoring_inputs: rows: %w", err)
	}
	if len(page.Rows) < limit {
		page.NextCursor = ""
	}
	return page, nil
}

func (r scoringInputRow) toScoringInputRow() persistence.ScoringInputRow {
	out := persistence.ScoringInputRow{
		Market: domain.Market{
			Venue:    r.Venue,
			MarketID: r.MarketID,
			Status:   domain.Status(r.Status),
		},
	}
	if r.CloseTime.Valid {
		t := r.CloseTime.Time
		out.Market.CloseTime = &t
	}
	if r.QuoteAsOf.Valid {
		out.Quote = domain.QuoteSnapshot{
			Venue:    r.Venue,
			MarketID: r.MarketID,
			AsOf:     r.QuoteAsOf.Time,
			YesBid:   nullableFloat(r.YesBid),
			YesAsk:   nullableFloat(r.YesAsk),
			NoBid:    nullableFloat(r.NoBid),
			NoAsk:    nullableFloat(r.NoAsk),
		}
	}
	if r.RuleAsOf.Valid {
		rule := domain.RuleSnapshot{
			Venue:               r.Venue,
			MarketID:            r.MarketID,
			AsOf:                r.RuleAsOf.Time,
			RuleText:            r.RuleText.String,
			RuleHash:            r.RuleHash.String,
			DefinitionRiskScore: r.DefRiskScore.Float64,
		}
		if len(r.RiskFlags) > 0 {
			_ = json.Unmarshal(r.RiskFlags, &rule.RiskFlags)
		}
		out.Rule = rule
	}
	return out
}

func nullableFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
