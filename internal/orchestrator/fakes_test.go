package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/denniswon/pm-endgame-sweep/internal/domain"
	"github.com/denniswon/pm-endgame-sweep/internal/persistence"
	"github.com/denniswon/pm-endgame-sweep/internal/venueclient"
)

// fakeClient is a venueclient.Client test double that returns a single,
// fixed page/response set and records how many times Discover and Quotes
// were called, so tests can assert on orchestrator behavior without a real
// venue.
type fakeClient struct {
	mu sync.Mutex

	name string

	page       venueclient.Page
	discoverErr error

	quotes    []venueclient.QuoteResult
	quotesErr error

	ruleText string
	ruleErr  error

	discoverCalls int
	quotesCalls   int
}

func (c *fakeClient) Name() string { return c.name }

func (c *fakeClient) Discover(ctx context.Context, cursor string) (venueclient.Page, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.discoverCalls++
	if c.discoverErr != nil {
		return venueclient.Page{}, c.discoverErr
	}
	if cursor != "" {
		return venueclient.Page{}, nil
	}
	return c.page, nil
}

func (c *fakeClient) Quotes(ctx context.Context, marketIDs []string) ([]venueclient.QuoteResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.quotesCalls++
	if c.quotesErr != nil {
		return nil, c.quotesErr
	}
	return c.quotes, nil
}

func (c *fakeClient) Rule(ctx context.Context, marketID string) (string, error) {
	if c.ruleErr != nil {
		return "", c.ruleErr
	}
	return c.ruleText, nil
}

// fakeGateway is a persistence.Gateway test double backed by plain slices
// and maps, guarded by a mutex, recording every write for assertions.
type fakeGateway struct {
	mu sync.Mutex

	markets  []domain.Market
	outcomes []domain.Outcome
	quotes   map[string]domain.QuoteSnapshot
	samples  []domain.QuoteSample
	rules    map[string]domain.RuleSnapshot
	scores   []domain.ScoreSnapshot
	recs     []domain.RecommendationSnapshot

	scoringRows []persistence.ScoringInputRow

	pruned int64
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		quotes: map[string]domain.QuoteSnapshot{},
		rules:  map[string]domain.RuleSnapshot{},
	}
}

func (g *fakeGateway) UpsertMarkets(ctx context.Context, batch []domain.Market) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.markets = append(g.markets, batch...)
	return nil
}

func (g *fakeGateway) UpsertOutcomes(ctx context.Context, batch []domain.Outcome) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.outcomes = append(g.outcomes, batch...)
	return nil
}

func (g *fakeGateway) UpsertQuotesLatest(ctx context.Context, batch []domain.QuoteSnapshot) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, q := range batch {
		g.quotes[q.Venue+":"+q.MarketID] = q
	}
	return nil
}

func (g *fakeGateway) InsertQuoteSampleIfAbsent(ctx context.Context, sample domain.QuoteSample) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.samples = append(g.samples, sample)
	return nil
}

// UpsertRuleLatest mirrors the Postgres gateway's hash-conditional merge
// (postgres/rules.go): when the incoming hash matches the stored hash, the
// stored row is left unchanged (the fake has no updated_at column to touch).
func (g *fakeGateway) UpsertRuleLatest(ctx context.Context, rule domain.RuleSnapshot) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	key := rule.Venue + ":" + rule.MarketID
	prev, existed := g.rules[key]
	if existed && prev.RuleHash == rule.RuleHash {
		return nil
	}
	g.rules[key] = rule
	return nil
}

// UpsertScoresAndRecommendations mirrors the Postgres gateway's single-
// transaction write: both batches land together, modeling the atomicity
// guarantee the orchestrator relies on.
func (g *fakeGateway) UpsertScoresAndRecommendations(ctx context.Context, scores []domain.ScoreSnapshot, recs []domain.RecommendationSnapshot) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.scores = append(g.scores, scores...)
	g.recs = append(g.recs, recs...)
	return nil
}

func (g *fakeGateway) LoadScoringInputs(ctx context.Context, filter persistence.ScoringFilter) (persistence.ScoringInputPage, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return persistence.ScoringInputPage{Rows: g.scoringRows}, nil
}

func (g *fakeGateway) PruneQuoteSamples(ctx context.Context, olderThan time.Time) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pruned, nil
}
