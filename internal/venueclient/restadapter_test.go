package venueclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRESTAdapter_DiscoverPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/markets", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"markets": [{"market_id":"m1","title":"Will X happen?","status":"active"}],
			"outcomes": [{"market_id":"m1","side":"YES","token_id":"t1"}],
			"next_cursor": "cur2"
		}`))
	}))
	defer server.Close()

	adapter := &RESTAdapter{DiscoverPath: "/markets"}
	page, err := adapter.DiscoverPage(context.Background(), server.Client(), server.URL, "")
	require.NoError(t, err)

	assert.Equal(t, "cur2", page.NextCursor)
	require.Len(t, page.Markets, 1)
	assert.Equal(t, "m1", page.Markets[0].MarketID)
	require.Len(t, page.Outcomes, 1)
	assert.Equal(t, "t1", page.Outcomes[0].TokenID)
}

func TestRESTAdapter_FetchQuotes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, []string{"m1", "m2"}, r.URL.Query()["market_id"])
		w.Write([]byte(`[{"market_id":"m1","as_of":"2026-07-31T00:00:00Z","yes_bid":0.9,"yes_ask":0.94}]`))
	}))
	defer server.Close()

	adapter := &RESTAdapter{QuotesPath: "/quotes"}
	quotes, err := adapter.FetchQuotes(context.Background(), server.Client(), server.URL, []string{"m1", "m2"})
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Equal(t, "m1", quotes[0].MarketID)
	assert.Equal(t, 0.94, *quotes[0].YesAsk)
}

func TestRESTAdapter_FetchRule(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "m1", r.URL.Query().Get("market_id"))
		w.Write([]byte(`{"rule_text":"Resolves YES if X occurs."}`))
	}))
	defer server.Close()

	adapter := &RESTAdapter{RulePath: "/rules"}
	text, err := adapter.FetchRule(context.Background(), server.Client(), server.URL, "m1")
	require.NoError(t, err)
	assert.Equal(t, "Resolves YES if X occurs.", text)
}

func TestRESTAdapter_MalformedBodyIsMalformedPayloadError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"rule_text": not valid json`))
	}))
	defer server.Close()

	adapter := &RESTAdapter{RulePath: "/rules"}
	_, err := adapter.FetchRule(context.Background(), server.Client(), server.URL, "m1")
	require.Error(t, err)

	_, ok := err.(*malformedPayloadError)
	require.True(t, ok)
}

func TestRESTAdapter_NonOKStatusIsHTTPStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	adapter := &RESTAdapter{RulePath: "/rules"}
	_, err := adapter.FetchRule(context.Background(), server.Client(), server.URL, "m1")
	require.Error(t, err)

	se, ok := err.(*httpStatusError)
	require.True(t, ok)
	assert.Equal(t, http.StatusTooManyRequests, se.status)
}
