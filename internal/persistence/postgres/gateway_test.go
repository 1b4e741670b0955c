package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/denniswon/pm-endgame-sweep/internal/domain"
)

func newMockGateway(t *testing.T) (*Gateway, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	sqlxDB := sqlx.NewDb(mockDB, "postgres")
	return NewGateway(sqlxDB, 5*time.Second), mock
}

func TestGateway_UpsertMarkets_RejectsOversizedBatch(t *testing.T) {
	g, _ := newMockGateway(t)
	batch := make([]domain.Market, 1001)
	for i := range batch {
		batch[i] = domain.Market{Venue: "kalshi", MarketID: "M"}
	}
	err := g.UpsertMarkets(context.Background(), batch)
	require.Error(t, err)
}

func TestGateway_UpsertMarkets_CommitsOnSuccess(t *testing.T) {
	g, mock := newMockGateway(t)

	mock.ExpectBegin()
	mock.ExpectPrepare("INSERT INTO markets")
	mock.ExpectExec("INSERT INTO markets").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := g.UpsertMarkets(context.Background(), []domain.Market{
		{Venue: "kalshi", MarketID: "M1", Status: domain.StatusActive, OpenTime: time.Now()},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGateway_UpsertMarkets_RollsBackOnExecError(t *testing.T) {
	g, mock := newMockGateway(t)

	mock.ExpectBegin()
	mock.ExpectPrepare("INSERT INTO markets")
	mock.ExpectExec("INSERT INTO markets").WillReturnError(assertErr)
	mock.ExpectRollback()

	err := g.UpsertMarkets(context.Background(), []domain.Market{
		{Venue: "kalshi", MarketID: "M1", Status: domain.StatusActive, OpenTime: time.Now()},
	})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGateway_UpsertMarkets_RejectsInvalidResolvedMarket(t *testing.T) {
	g, _ := newMockGateway(t)
	err := g.UpsertMarkets(context.Background(), []domain.Market{
		{Venue: "kalshi", MarketID: "M1", Status: domain.StatusResolved},
	})
	require.Error(t, err)
}

func TestGateway_InsertQuoteSampleIfAbsent_UsesDoNothing(t *testing.T) {
	g, mock := newMockGateway(t)

	mock.ExpectExec("INSERT INTO quotes_5m .* ON CONFLICT .* DO NOTHING").WillReturnResult(sqlmock.NewResult(0, 1))

	err := g.InsertQuoteSampleIfAbsent(context.Background(), domain.QuoteSample{
		Venue: "kalshi", MarketID: "M1", BucketStart: time.Now(),
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGateway_PruneQuoteSamples_ReturnsRowsAffected(t *testing.T) {
	g, mock := newMockGateway(t)

	mock.ExpectExec("DELETE FROM quotes_5m").WillReturnResult(sqlmock.NewResult(0, 42))

	n, err := g.PruneQuoteSamples(context.Background(), time.Now().Add(-7*24*time.Hour))
	require.NoError(t, err)
	require.Equal(t, int64(42), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGateway_UpsertScoresAndRecommendations_SingleTransaction(t *testing.T) {
	g, mock := newMockGateway(t)

	mock.ExpectBegin()
	mock.ExpectPrepare("INSERT INTO scores_latest")
	mock.ExpectExec("INSERT INTO scores_latest").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectPrepare("INSERT INTO recs_latest")
	mock.ExpectExec("INSERT INTO recs_latest").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := g.UpsertScoresAndRecommendations(context.Background(),
		[]domain.ScoreSnapshot{{Venue: "kalshi", MarketID: "M1"}},
		[]domain.RecommendationSnapshot{{Venue: "kalshi", MarketID: "M1"}})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGateway_UpsertScoresAndRecommendations_RollsBackOnRecommendationError(t *testing.T) {
	g, mock := newMockGateway(t)

	mock.ExpectBegin()
	mock.ExpectPrepare("INSERT INTO scores_latest")
	mock.ExpectExec("INSERT INTO scores_latest").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectPrepare("INSERT INTO recs_latest")
	mock.ExpectExec("INSERT INTO recs_latest").WillReturnError(assertErr)
	mock.ExpectRollback()

	err := g.UpsertScoresAndRecommendations(context.Background(),
		[]domain.ScoreSnapshot{{Venue: "kalshi", MarketID: "M1"}},
		[]domain.RecommendationSnapshot{{Venue: "kalshi", MarketID: "M1"}})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

var assertErr = errGatewayTest{}

type errGatewayTest struct{}

func (errGatewayTest) Error() string { return "mock exec failure" }
