package contracts

import "context"

// ProductMaskLoader loads product masks in one batch
// ⭐ SSOT: Product Mask 로더 인터페이스
type ProductMaskLoader interface {
	// FromProductIdentifiers returns one mask per resolvable identifier, in no
	// guaranteed order. Unknown identifiers are omitted.
	FromProductIdentifiers(ctx context.Context, identifiers []string) ([]*ProductMask, error)
}

// FamilyMaskLoader loads family requirement masks in one batch
// ⭐ SSOT: Family Mask 로더 인터페이스
type FamilyMaskLoader interface {
	// FromFamilyCodes returns the mask of every known family code keyed by code.
	// Unknown codes are omitted; an empty input returns an empty map.
	FromFamilyCodes(ctx context.Context, familyCodes []string) (map[string]*FamilyMask, error)
}

// CompletenessCalculator computes product completeness from masks
type CompletenessCalculator interface {
	FromProductIdentifiers(ctx context.Context, identifiers []string) (map[string]*ProductCompletenessWithMissingAttributeCodesCollection, error)
	FromProductIdentifier(ctx context.Context, identifier string) (*ProductCompletenessWithMissingAttributeCodesCollection, error)
}

// CompletenessSaver persists completeness with replace semantics: every prior
// row of a saved product is removed in the same transaction
// ⭐ SSOT: Completeness 저장 게이트웨이 인터페이스
type CompletenessSaver interface {
	Save(ctx context.Context, completenesses ProductCompletenessCollection) error
	SaveAll(ctx context.Context, completenesses []ProductCompletenessCollection) error
}

// CompletenessReader reads persisted completeness back
type CompletenessReader interface {
	FromProductID(ctx context.Context, productID int64) (*ProductCompletenessCollection, error)
}

// ProductIdentifierCursor pages through every product identifier in
// ascending order
type ProductIdentifierCursor interface {
	// NextIdentifiers returns up to limit identifiers strictly after the given one
	NextIdentifiers(ctx context.Context, after string, limit int) ([]string, error)
}
