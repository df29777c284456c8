package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/pim/backend/internal/contracts"
)

// IdentifierCursor pages product identifiers with a keyset on identifier
type IdentifierCursor struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

var _ contracts.ProductIdentifierCursor = (*IdentifierCursor)(nil)

// NewIdentifierCursor creates a new cursor
func NewIdentifierCursor(pool *pgxpool.Pool, timeout time.Duration) *IdentifierCursor {
	return &IdentifierCursor{pool: pool, timeout: timeout}
}

// NextIdentifiers returns up to limit identifiers sorted after the given one.
// An empty after starts from the beginning.
func (c *IdentifierCursor) NextIdentifiers(ctx context.Context, after string, limit int) ([]string, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", contracts.ErrInvalidArgument, limit)
	}

	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	query := `
		SELECT identifier
		FROM pim_catalog_product
		WHERE identifier > $1
		ORDER BY identifier
		LIMIT $2
	`

	rows, err := c.pool.Query(ctx, query, after, limit)
	if err != nil {
		return nil, contracts.Unavailable("query product identifiers", err)
	}
	defer rows.Close()

	identifiers := make([]string, 0, limit)
	for rows.Next() {
		var identifier string
		if err := rows.Scan(&identifier); err != nil {
			return nil, contracts.Unavailable("scan product identifier", err)
		}
		identifiers = append(identifiers, identifier)
	}

	if err := rows.Err(); err != nil {
		return nil, contracts.Unavailable("iterate product identifiers", err)
	}

	return identifiers, nil
}
