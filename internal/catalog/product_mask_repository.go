package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/pim/backend/internal/contracts"
)

// ProductMaskRepository loads product masks from the product raw values
// ⭐ SSOT: 상품 마스크 SQL은 여기서만
type ProductMaskRepository struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

var _ contracts.ProductMaskLoader = (*ProductMaskRepository)(nil)

// NewProductMaskRepository creates a new repository.
// A zero timeout leaves the caller's deadline untouched.
func NewProductMaskRepository(pool *pgxpool.Pool, timeout time.Duration) *ProductMaskRepository {
	return &ProductMaskRepository{pool: pool, timeout: timeout}
}

// FromProductIdentifiers loads every known product of the batch in one query
func (r *ProductMaskRepository) FromProductIdentifiers(ctx context.Context, identifiers []string) ([]*contracts.ProductMask, error) {
	if len(identifiers) == 0 {
		return []*contracts.ProductMask{}, nil
	}

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT
			p.id,
			p.identifier,
			COALESCE(f.code, '') AS family_code,
			p.raw_values
		FROM pim_catalog_product p
		LEFT JOIN pim_catalog_family f ON f.id = p.family_id
		WHERE p.identifier = ANY($1)
	`

	rows, err := r.pool.Query(ctx, query, identifiers)
	if err != nil {
		return nil, contracts.Unavailable("query product masks", err)
	}
	defer rows.Close()

	masks := make([]*contracts.ProductMask, 0, len(identifiers))
	for rows.Next() {
		var (
			id         int64
			identifier string
			familyCode string
			rawValues  []byte
		)
		if err := rows.Scan(&id, &identifier, &familyCode, &rawValues); err != nil {
			return nil, contracts.Unavailable("scan product mask", err)
		}

		mask, err := productMaskFromRawValues(id, identifier, familyCode, rawValues)
		if err != nil {
			return nil, fmt.Errorf("product %s: %w", identifier, err)
		}
		masks = append(masks, mask)
	}

	if err := rows.Err(); err != nil {
		return nil, contracts.Unavailable("iterate product masks", err)
	}

	return masks, nil
}

// rawValues is the stored value document: attribute -> channel -> locale -> data.
// Non-scopable and non-localizable values sit under the wildcard keys.
type rawValues map[string]map[string]map[string]json.RawMessage

// productMaskFromRawValues keeps a code for every value holding data
func productMaskFromRawValues(id int64, identifier, familyCode string, raw []byte) (*contracts.ProductMask, error) {
	var values rawValues
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &values); err != nil {
			return nil, &contracts.MalformedMaskError{Code: identifier, Reason: "raw values: " + err.Error()}
		}
	}

	var codes []contracts.RequirementCode
	for attribute, channels := range values {
		for channel, locales := range channels {
			for locale, data := range locales {
				if isEmptyValue(data) {
					continue
				}
				code := contracts.NewRequirementCode(attribute, channel, locale)
				if code.Attribute == "" {
					return nil, &contracts.MalformedMaskError{Code: code.String(), Reason: "empty attribute"}
				}
				codes = append(codes, code)
			}
		}
	}

	return contracts.NewProductMask(id, identifier, familyCode, codes), nil
}

func isEmptyValue(data json.RawMessage) bool {
	trimmed := bytes.TrimSpace(data)
	switch string(trimmed) {
	case "", "null", `""`, "[]", "{}":
		return true
	}
	return false
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
