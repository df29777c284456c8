package catalog

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/wonny/pim/backend/internal/contracts"
)

// CompletenessRepository persists completeness with replace semantics.
// Delete and insert of a batch run in one transaction.
// ⭐ SSOT: pim_catalog_completeness 쓰기는 여기서만
type CompletenessRepository struct {
	db      *sqlx.DB
	timeout time.Duration
}

var (
	_ contracts.CompletenessSaver  = (*CompletenessRepository)(nil)
	_ contracts.CompletenessReader = (*CompletenessRepository)(nil)
)

// NewCompletenessRepository creates a new repository
func NewCompletenessRepository(db *sqlx.DB, timeout time.Duration) *CompletenessRepository {
	return &CompletenessRepository{db: db, timeout: timeout}
}

// codeID maps a channel or locale code to its row id
type codeID struct {
	ID   int64  `db:"id"`
	Code string `db:"code"`
}

// Save replaces the completeness rows of one product
func (r *CompletenessRepository) Save(ctx context.Context, completenesses contracts.ProductCompletenessCollection) error {
	return r.SaveAll(ctx, []contracts.ProductCompletenessCollection{completenesses})
}

// SaveAll replaces the completeness rows of every product in the batch.
// A product with an empty collection only loses its old rows.
func (r *CompletenessRepository) SaveAll(ctx context.Context, batch []contracts.ProductCompletenessCollection) (err error) {
	if len(batch) == 0 {
		return nil
	}

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	productIDs, channelCodes, localeCodes := distinctKeys(batch)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return contracts.Unavailable("begin completeness transaction", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	channelIDs, err := lookupIDs(ctx, tx, "pim_catalog_channel", "channel", channelCodes)
	if err != nil {
		return err
	}
	localeIDs, err := lookupIDs(ctx, tx, "pim_catalog_locale", "locale", localeCodes)
	if err != nil {
		return err
	}

	deleteQuery := `DELETE FROM pim_catalog_completeness WHERE product_id = ANY($1)`
	if _, err = tx.ExecContext(ctx, deleteQuery, pq.Array(productIDs)); err != nil {
		return contracts.Unavailable("delete completeness", err)
	}

	if rows := buildInsertColumns(batch, channelIDs, localeIDs); rows.len() > 0 {
		if _, err = tx.ExecContext(ctx, insertQuery, rows.args()...); err != nil {
			return contracts.Unavailable("insert completeness", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return contracts.Unavailable("commit completeness", err)
	}

	return nil
}

// FromProductID reads back the persisted completeness of a product
func (r *CompletenessRepository) FromProductID(ctx context.Context, productID int64) (*contracts.ProductCompletenessCollection, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT
			c.code AS channel_code,
			l.code AS locale_code,
			pc.missing_count,
			pc.required_count
		FROM pim_catalog_completeness pc
		JOIN pim_catalog_channel c ON c.id = pc.channel_id
		JOIN pim_catalog_locale l ON l.id = pc.locale_id
		WHERE pc.product_id = $1
		ORDER BY c.code, l.code
	`

	completenesses := []contracts.ProductCompleteness{}
	if err := r.db.SelectContext(ctx, &completenesses, query, productID); err != nil {
		return nil, contracts.Unavailable("query completeness", err)
	}

	return &contracts.ProductCompletenessCollection{
		ProductID:      productID,
		Completenesses: completenesses,
	}, nil
}

// distinctKeys returns sorted product ids, channel codes and locale codes of a batch
func distinctKeys(batch []contracts.ProductCompletenessCollection) ([]int64, []string, []string) {
	ids := make(map[int64]struct{})
	channels := make(map[string]struct{})
	locales := make(map[string]struct{})

	for _, collection := range batch {
		ids[collection.ProductID] = struct{}{}
		for _, c := range collection.Completenesses {
			channels[c.ChannelCode] = struct{}{}
			locales[c.LocaleCode] = struct{}{}
		}
	}

	productIDs := make([]int64, 0, len(ids))
	for id := range ids {
		productIDs = append(productIDs, id)
	}
	sort.Slice(productIDs, func(i, j int) bool { return productIDs[i] < productIDs[j] })

	return productIDs, sortedKeys(channels), sortedKeys(locales)
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// lookupIDs resolves codes to ids, failing on the first unknown code
func lookupIDs(ctx context.Context, tx *sqlx.Tx, table, kind string, codes []string) (map[string]int64, error) {
	ids := make(map[string]int64, len(codes))
	if len(codes) == 0 {
		return ids, nil
	}

	query := fmt.Sprintf(`SELECT id, code FROM %s WHERE code = ANY($1)`, table)

	var rows []codeID
	if err := tx.SelectContext(ctx, &rows, query, pq.Array(codes)); err != nil {
		return nil, contracts.Unavailable("lookup "+kind+" ids", err)
	}
	for _, row := range rows {
		ids[row.Code] = row.ID
	}

	for _, code := range codes {
		if _, ok := ids[code]; !ok {
			return nil, fmt.Errorf("%w: unknown %s code %q", contracts.ErrInvalidArgument, kind, code)
		}
	}
	return ids, nil
}

// insertQuery binds one array per column so the parameter count stays at five
// whatever the batch size
const insertQuery = `
	INSERT INTO pim_catalog_completeness (locale_id, channel_id, product_id, missing_count, required_count)
	SELECT * FROM unnest($1::bigint[], $2::bigint[], $3::bigint[], $4::int[], $5::int[])
`

// insertColumns holds the rows of a batch column by column
type insertColumns struct {
	localeIDs      []int64
	channelIDs     []int64
	productIDs     []int64
	missingCounts  []int64
	requiredCounts []int64
}

// buildInsertColumns flattens the batch in collection order
func buildInsertColumns(batch []contracts.ProductCompletenessCollection, channelIDs, localeIDs map[string]int64) insertColumns {
	rowCount := 0
	for _, collection := range batch {
		rowCount += len(collection.Completenesses)
	}

	cols := insertColumns{
		localeIDs:      make([]int64, 0, rowCount),
		channelIDs:     make([]int64, 0, rowCount),
		productIDs:     make([]int64, 0, rowCount),
		missingCounts:  make([]int64, 0, rowCount),
		requiredCounts: make([]int64, 0, rowCount),
	}
	for _, collection := range batch {
		for _, c := range collection.Completenesses {
			cols.localeIDs = append(cols.localeIDs, localeIDs[c.LocaleCode])
			cols.channelIDs = append(cols.channelIDs, channelIDs[c.ChannelCode])
			cols.productIDs = append(cols.productIDs, collection.ProductID)
			cols.missingCounts = append(cols.missingCounts, int64(c.MissingCount))
			cols.requiredCounts = append(cols.requiredCounts, int64(c.RequiredCount))
		}
	}
	return cols
}

func (c insertColumns) len() int {
	return len(c.productIDs)
}

func (c insertColumns) args() []interface{} {
	return []interface{}{
		pq.Array(c.localeIDs),
		pq.Array(c.channelIDs),
		pq.Array(c.productIDs),
		pq.Array(c.missingCounts),
		pq.Array(c.requiredCounts),
	}
}
