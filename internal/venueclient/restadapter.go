package venueclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// RESTAdapter implements WireAdapter against a generic JSON/REST prediction
// market API: paged GET for discovery, a batched GET for quotes, and a
// single GET returning rule text for a market. Only the three request paths
// are configurable; the JSON field names are fixed by this adapter's DTOs,
// so a venue with different field names needs its own WireAdapter.
type RESTAdapter struct {
	DiscoverPath string
	QuotesPath   string
	RulePath     string
}

type discoverPageDTO struct {
	Markets []struct {
		MarketID     string     `json:"market_id"`
		Title        string     `json:"title"`
		Category     string     `json:"category"`
		Status       string     `json:"status"`
		OpenTime     time.Time  `json:"open_time"`
		CloseTime    *time.Time `json:"close_time"`
		ResolvedTime *time.Time `json:"resolved_time"`
		CanonicalURL string     `json:"canonical_url"`
	} `json:"markets"`
	Outcomes []struct {
		MarketID string `json:"market_id"`
		Side     string `json:"side"`
		TokenID  string `json:"token_id"`
	} `json:"outcomes"`
	NextCursor string `json:"next_cursor"`
}

func (a *RESTAdapter) DiscoverPage(ctx context.Context, client *http.Client, baseURL, cursor string) (Page, error) {
	q := url.Values{}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	var dto discoverPageDTO
	if err := getJSON(ctx, client, baseURL+a.DiscoverPath, q, &dto); err != nil {
		return Page{}, err
	}

	page := Page{NextCursor: dto.NextCursor}
	for _, m := range dto.Markets {
		page.Markets = append(page.Markets, MarketResult{
			MarketID:     m.MarketID,
			Title:        m.Title,
			Category:     m.Category,
			Status:       m.Status,
			OpenTime:     m.OpenTime,
			CloseTime:    m.CloseTime,
			ResolvedTime: m.ResolvedTime,
			CanonicalURL: m.CanonicalURL,
		})
	}
	for _, o := range dto.Outcomes {
		page.Outcomes = append(page.Outcomes, OutcomeResult{
			MarketID: o.MarketID,
			Side:     o.Side,
			TokenID:  o.TokenID,
		})
	}
	return page, nil
}

type quoteDTO struct {
	MarketID string    `json:"market_id"`
	AsOf     time.Time `json:"as_of"`
	YesBid   *float64  `json:"yes_bid"`
	YesAsk   *float64  `json:"yes_ask"`
	NoBid    *float64  `json:"no_bid"`
	NoAsk    *float64  `json:"no_ask"`
}

func (a *RESTAdapter) FetchQuotes(ctx context.Context, client *http.Client, baseURL string, marketIDs []string) ([]QuoteResult, error) {
	q := url.Values{}
	for _, id := range marketIDs {
		q.Add("market_id", id)
	}
	var dtos []quoteDTO
	if err := getJSON(ctx, client, baseURL+a.QuotesPath, q, &dtos); err != nil {
		return nil, err
	}

	out := make([]QuoteResult, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, QuoteResult{
			MarketID: d.MarketID,
			AsOf:     d.AsOf,
			YesBid:   d.YesBid,
			YesAsk:   d.YesAsk,
			NoBid:    d.NoBid,
			NoAsk:    d.NoAsk,
		})
	}
	return out, nil
}

type ruleDTO struct {
	RuleText string `json:"rule_text"`
}

func (a *RESTAdapter) FetchRule(ctx context.Context, client *http.Client, baseURL, marketID string) (string, error) {
	q := url.Values{}
	q.Set("market_id", marketID)
	var dto ruleDTO
	if err := getJSON(ctx, client, baseURL+a.RulePath, q, &dto); err != nil {
		return "", err
	}
	return dto.RuleText, nil
}

func getJSON(ctx context.Context, client *http.Client, rawURL string, q url.Values, out interface{}) error {
	full := rawURL
	if len(q) > 0 {
		full = rawURL + "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, full, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return NewHTTPStatusError(resp.StatusCode, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return NewMalformedPayloadError(fmt.Errorf("decode %s: %w", rawURL, err))
	}
	return nil
}
