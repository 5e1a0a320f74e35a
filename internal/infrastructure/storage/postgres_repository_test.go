package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Factulist/internal/domain"
)

func TestInsertReportQuery(t *testing.T) {
	t.Parallel()

	rep := domain.Report{ID: 7, Title: "t", SourceDomain: "example.com", CreatedAt: time.Unix(0, 0).UTC()}
	query, args, err := insertReportQuery(rep)
	require.NoError(t, err)

	assert.Equal(t, "INSERT INTO reports (id,source,payload,created_at) VALUES ($1,$2,$3,$4)", query)
	require.Len(t, args, 4)
	assert.Equal(t, int64(7), args[0])
	assert.Equal(t, "example.com", args[1])
	assert.Contains(t, args[2].(string), `"title":"t"`)
}

func TestLastReportsQuery(t *testing.T) {
	t.Parallel()

	query, _, err := lastReportsQuery(5).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT payload FROM reports ORDER BY id DESC LIMIT 5", query)
}

func TestIncrementStatsQuery(t *testing.T) {
	t.Parallel()

	query, args, err := incrementStatsQuery("example.com", domain.CredibilityVerified)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(query, "INSERT INTO source_stats (domain,label,count) VALUES ($1,$2,$3)"))
	assert.Contains(t, query, "ON CONFLICT (domain, label) DO UPDATE SET count = source_stats.count + 1")
	assert.Equal(t, []interface{}{"example.com", domain.CredibilityVerified, 1}, args)

	_, _, err = incrementStatsQuery("", "x")
	assert.Error(t, err)
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func reportPayload(t *testing.T, rep domain.Report) []byte {
	t.Helper()

	raw, err := json.Marshal(rep)
	require.NoError(t, err)
	return raw
}

func TestPostgresAppendAssignsCountAsID(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec("LOCK TABLE reports IN EXCLUSIVE MODE").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT COUNT(*) FROM reports").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectExec("INSERT INTO reports (id,source,payload,created_at) VALUES ($1,$2,$3,$4)").
		WithArgs(int64(3), "example.com", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rep, err := NewPostgresRepository(db).Append(context.Background(), domain.Report{
		Title:        "t",
		SourceDomain: "example.com",
		CreatedAt:    time.Unix(0, 0).UTC(),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), rep.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAppendRollsBackOnInsertError(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec("LOCK TABLE reports IN EXCLUSIVE MODE").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT COUNT(*) FROM reports").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec("INSERT INTO reports (id,source,payload,created_at) VALUES ($1,$2,$3,$4)").
		WillReturnError(errors.New("duplicate key value"))
	mock.ExpectRollback()

	_, err := NewPostgresRepository(db).Append(context.Background(), domain.Report{SourceDomain: "example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert report")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAppendLockFailure(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec("LOCK TABLE reports IN EXCLUSIVE MODE").WillReturnError(errors.New("lock timeout"))
	mock.ExpectRollback()

	_, err := NewPostgresRepository(db).Append(context.Background(), domain.Report{})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLastReturnsInsertionOrder(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT payload FROM reports ORDER BY id DESC LIMIT 2").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).
			AddRow(reportPayload(t, domain.Report{ID: 5, Title: "newest"})).
			AddRow(reportPayload(t, domain.Report{ID: 4, Title: "older"})))

	reports, err := NewPostgresRepository(db).Last(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, int64(4), reports[0].ID)
	assert.Equal(t, int64(5), reports[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetReport(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT payload FROM reports WHERE id = $1").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow(reportPayload(t, domain.Report{ID: 1, Title: "one"})))
	mock.ExpectQuery("SELECT payload FROM reports WHERE id = $1").
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"payload"}))

	repo := NewPostgresRepository(db)
	rep, err := repo.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "one", rep.Title)

	_, err = repo.Get(context.Background(), 9)
	assert.ErrorIs(t, err, domain.ErrReportNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStatsIncrementThenGet(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	query, _, err := incrementStatsQuery("example.com", domain.CredibilityFalse)
	require.NoError(t, err)
	mock.ExpectExec(query).
		WithArgs("example.com", domain.CredibilityFalse, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT domain, label, count FROM source_stats WHERE domain = $1").
		WithArgs("example.com").
		WillReturnRows(sqlmock.NewRows([]string{"domain", "label", "count"}).
			AddRow("example.com", domain.CredibilityFalse, 2).
			AddRow("example.com", domain.CredibilityVerified, 1))

	stats, err := NewPostgresStatsRepository(db).Increment(context.Background(), "example.com", domain.CredibilityFalse)
	require.NoError(t, err)
	assert.Equal(t, "example.com", stats.Domain)
	assert.Equal(t, map[string]int{domain.CredibilityFalse: 2, domain.CredibilityVerified: 1}, stats.Counts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStatsAllGroupsLabels(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT domain, label, count FROM source_stats ORDER BY domain ASC, label ASC").
		WillReturnRows(sqlmock.NewRows([]string{"domain", "label", "count"}).
			AddRow("a.com", domain.CredibilityFalse, 2).
			AddRow("a.com", domain.CredibilityVerified, 1).
			AddRow("b.com", domain.CredibilityMisleading, 3))

	all, err := NewPostgresStatsRepository(db).All(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a.com", all[0].Domain)
	assert.Equal(t, 2, all[0].Counts[domain.CredibilityFalse])
	assert.Equal(t, 1, all[0].Counts[domain.CredibilityVerified])
	assert.Equal(t, map[string]int{domain.CredibilityMisleading: 3}, all[1].Counts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStatsGetUnknownDomain(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT domain, label, count FROM source_stats WHERE domain = $1").
		WithArgs("nowhere.org").
		WillReturnRows(sqlmock.NewRows([]string{"domain", "label", "count"}))

	_, ok, err := NewPostgresStatsRepository(db).Get(context.Background(), "nowhere.org")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}
