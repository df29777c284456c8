package catalog

import (
	"context"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/pim/backend/internal/contracts"
)

func newMockRepository(t *testing.T) (*CompletenessRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewCompletenessRepository(sqlx.NewDb(db, "sqlmock"), 0), mock
}

var (
	selectChannels = regexp.QuoteMeta(`SELECT id, code FROM pim_catalog_channel WHERE code = ANY($1)`)
	selectLocales  = regexp.QuoteMeta(`SELECT id, code FROM pim_catalog_locale WHERE code = ANY($1)`)
	deleteRows     = regexp.QuoteMeta(`DELETE FROM pim_catalog_completeness WHERE product_id = ANY($1)`)
	insertRows     = regexp.QuoteMeta(`SELECT * FROM unnest($1::bigint[], $2::bigint[], $3::bigint[], $4::int[], $5::int[])`)
)

func michelAndOrphan() []contracts.ProductCompletenessCollection {
	return []contracts.ProductCompletenessCollection{
		{
			ProductID: 1,
			Completenesses: []contracts.ProductCompleteness{
				{ChannelCode: "ecommerce", LocaleCode: "en_US", MissingCount: 1, RequiredCount: 2},
				{ChannelCode: "tablet", LocaleCode: "fr_FR", MissingCount: 0, RequiredCount: 1},
			},
		},
		{ProductID: 2, Completenesses: []contracts.ProductCompleteness{}},
	}
}

func TestCompletenessRepository_SaveAll(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery(selectChannels).
		WithArgs(pq.Array([]string{"ecommerce", "tablet"})).
		WillReturnRows(sqlmock.NewRows([]string{"id", "code"}).AddRow(10, "ecommerce").AddRow(11, "tablet"))
	mock.ExpectQuery(selectLocales).
		WithArgs(pq.Array([]string{"en_US", "fr_FR"})).
		WillReturnRows(sqlmock.NewRows([]string{"id", "code"}).AddRow(58, "en_US").AddRow(90, "fr_FR"))
	mock.ExpectExec(deleteRows).
		WithArgs(pq.Array([]int64{1, 2})).
		WillReturnResult(sqlmock.NewResult(0, 5))
	mock.ExpectExec(insertRows).
		WithArgs(
			pq.Array([]int64{58, 90}),
			pq.Array([]int64{10, 11}),
			pq.Array([]int64{1, 1}),
			pq.Array([]int64{1, 0}),
			pq.Array([]int64{2, 1}),
		).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	require.NoError(t, repo.SaveAll(context.Background(), michelAndOrphan()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompletenessRepository_SaveOnlyDeletesEmptyCollection(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec(deleteRows).
		WithArgs(pq.Array([]int64{2})).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	require.NoError(t, repo.Save(context.Background(), contracts.ProductCompletenessCollection{ProductID: 2}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompletenessRepository_EmptyBatchIsNoop(t *testing.T) {
	repo, mock := newMockRepository(t)

	require.NoError(t, repo.SaveAll(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompletenessRepository_UnknownChannelRollsBack(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery(selectChannels).
		WillReturnRows(sqlmock.NewRows([]string{"id", "code"}).AddRow(10, "ecommerce"))
	mock.ExpectRollback()

	err := repo.SaveAll(context.Background(), michelAndOrphan())
	require.Error(t, err)
	assert.ErrorIs(t, err, contracts.ErrInvalidArgument)
	assert.Contains(t, err.Error(), `"tablet"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompletenessRepository_InsertFailureRollsBack(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery(selectChannels).
		WillReturnRows(sqlmock.NewRows([]string{"id", "code"}).AddRow(10, "ecommerce").AddRow(11, "tablet"))
	mock.ExpectQuery(selectLocales).
		WillReturnRows(sqlmock.NewRows([]string{"id", "code"}).AddRow(58, "en_US").AddRow(90, "fr_FR"))
	mock.ExpectExec(deleteRows).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(insertRows).WillReturnError(errors.New("deadlock detected"))
	mock.ExpectRollback()

	err := repo.SaveAll(context.Background(), michelAndOrphan())
	require.Error(t, err)
	assert.ErrorIs(t, err, contracts.ErrUpstreamUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompletenessRepository_BeginFailure(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

	err := repo.SaveAll(context.Background(), michelAndOrphan())
	assert.ErrorIs(t, err, contracts.ErrUpstreamUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompletenessRepository_FromProductID(t *testing.T) {
	repo, mock := newMockRepository(t)

	rows := sqlmock.NewRows([]string{"channel_code", "locale_code", "missing_count", "required_count"}).
		AddRow("ecommerce", "en_US", 1, 2).
		AddRow("tablet", "fr_FR", 0, 1)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM pim_catalog_completeness pc`)).
		WithArgs(int64(1)).
		WillReturnRows(rows)

	got, err := repo.FromProductID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, &contracts.ProductCompletenessCollection{
		ProductID: 1,
		Completenesses: []contracts.ProductCompleteness{
			{ChannelCode: "ecommerce", LocaleCode: "en_US", MissingCount: 1, RequiredCount: 2},
			{ChannelCode: "tablet", LocaleCode: "fr_FR", MissingCount: 0, RequiredCount: 1},
		},
	}, got)
	assert.Equal(t, 50, got.Completenesses[0].Ratio())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompletenessRepository_FromProductIDWithoutRows(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM pim_catalog_completeness pc`)).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"channel_code", "locale_code", "missing_count", "required_count"}))

	got, err := repo.FromProductID(context.Background(), 9)
	require.NoError(t, err)
	assert.NotNil(t, got.Completenesses)
	assert.Empty(t, got.Completenesses)
}

func TestBuildInsertColumns(t *testing.T) {
	cols := buildInsertColumns(michelAndOrphan(),
		map[string]int64{"ecommerce": 10, "tablet": 11},
		map[string]int64{"en_US": 58, "fr_FR": 90},
	)
	assert.Equal(t, 2, cols.len())
	assert.Equal(t, []int64{58, 90}, cols.localeIDs)
	assert.Equal(t, []int64{10, 11}, cols.channelIDs)
	assert.Equal(t, []int64{1, 1}, cols.productIDs)
	assert.Equal(t, []int64{1, 0}, cols.missingCounts)
	assert.Equal(t, []int64{2, 1}, cols.requiredCounts)
	assert.Len(t, cols.args(), 5)

	cols = buildInsertColumns([]contracts.ProductCompletenessCollection{{ProductID: 3}}, nil, nil)
	assert.Zero(t, cols.len())
}

// wideBatch gives every product one row per channel/locale pair
func wideBatch(products int, channels, locales []string) []contracts.ProductCompletenessCollection {
	batch := make([]contracts.ProductCompletenessCollection, 0, products)
	for id := 1; id <= products; id++ {
		collection := contracts.ProductCompletenessCollection{ProductID: int64(id)}
		for _, channel := range channels {
			for _, locale := range locales {
				collection.Completenesses = append(collection.Completenesses, contracts.ProductCompleteness{
					ChannelCode: channel, LocaleCode: locale, MissingCount: 1, RequiredCount: 4,
				})
			}
		}
		batch = append(batch, collection)
	}
	return batch
}

func TestCompletenessRepository_SaveAllLargeBatchUsesOneFiveParameterInsert(t *testing.T) {
	repo, mock := newMockRepository(t)

	channels := []string{"ecommerce", "mobile", "print"}
	locales := []string{"de_DE", "en_US", "es_ES", "fr_FR", "it_IT"}
	batch := wideBatch(1000, channels, locales)

	channelRows := sqlmock.NewRows([]string{"id", "code"})
	for i, code := range channels {
		channelRows.AddRow(i+1, code)
	}
	localeRows := sqlmock.NewRows([]string{"id", "code"})
	for i, code := range locales {
		localeRows.AddRow(i+100, code)
	}

	mock.ExpectBegin()
	mock.ExpectQuery(selectChannels).WillReturnRows(channelRows)
	mock.ExpectQuery(selectLocales).WillReturnRows(localeRows)
	mock.ExpectExec(deleteRows).WithArgs(sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(insertRows).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 15000))
	mock.ExpectCommit()

	require.NoError(t, repo.SaveAll(context.Background(), batch))
	assert.NoError(t, mock.ExpectationsWereMet())

	cols := buildInsertColumns(batch,
		map[string]int64{"ecommerce": 1, "mobile": 2, "print": 3},
		map[string]int64{"de_DE": 100, "en_US": 101, "es_ES": 102, "fr_FR": 103, "it_IT": 104},
	)
	assert.Equal(t, 15000, cols.len())
	assert.Len(t, cols.args(), 5)
}
