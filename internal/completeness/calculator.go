package completeness

import (
	"context"
	"fmt"
	"sort"

	"github.com/wonny/pim/backend/internal/contracts"
	"github.com/wonny/pim/backend/pkg/logger"
)

// =============================================================================
// Calculator - 순수 계산기 + 배치 로더
// =============================================================================

// Calculator computes product completeness from product and family masks.
// ⭐ SSOT: 마스크 로딩은 주입된 로더가 담당, 계산기는 I/O 없음
type Calculator struct {
	products contracts.ProductMaskLoader
	families contracts.FamilyMaskLoader
	logger   *logger.Logger
}

var _ contracts.CompletenessCalculator = (*Calculator)(nil)

// NewCalculator creates a calculator over the given loaders
func NewCalculator(products contracts.ProductMaskLoader, families contracts.FamilyMaskLoader, log *logger.Logger) *Calculator {
	if log == nil {
		log = logger.Nop()
	}
	return &Calculator{
		products: products,
		families: families,
		logger:   log.WithComponent("completeness_calculator"),
	}
}

// FromProductIdentifiers computes the completeness of every product in the batch.
// Masks are loaded once per batch. Every identifier must resolve, otherwise a
// *contracts.NotFoundError lists the unresolved ones and nothing is returned.
func (c *Calculator) FromProductIdentifiers(ctx context.Context, identifiers []string) (map[string]*contracts.ProductCompletenessWithMissingAttributeCodesCollection, error) {
	if len(identifiers) == 0 {
		return nil, fmt.Errorf("%w: empty product identifier list", contracts.ErrInvalidArgument)
	}

	productMasks, err := c.products.FromProductIdentifiers(ctx, identifiers)
	if err != nil {
		return nil, err
	}

	byIdentifier := make(map[string]*contracts.ProductMask, len(productMasks))
	for _, mask := range productMasks {
		byIdentifier[mask.Identifier()] = mask
	}

	if unresolved := unresolvedIdentifiers(identifiers, byIdentifier); len(unresolved) > 0 {
		return nil, &contracts.NotFoundError{Identifiers: unresolved}
	}

	familyMasks, err := c.families.FromFamilyCodes(ctx, distinctFamilyCodes(productMasks))
	if err != nil {
		return nil, err
	}

	results := make(map[string]*contracts.ProductCompletenessWithMissingAttributeCodesCollection, len(byIdentifier))
	for identifier, product := range byIdentifier {
		family := familyMasks[product.FamilyCode()]
		if product.HasFamily() && family == nil {
			c.logger.WithFields(map[string]interface{}{
				"product": identifier,
				"family":  product.FamilyCode(),
			}).Warn("family mask not found, product has no completeness")
		}
		results[identifier] = Compute(product, family)
	}

	c.logger.WithFields(map[string]interface{}{
		"products": len(results),
		"families": len(familyMasks),
	}).Debug("completeness calculated")

	return results, nil
}

// FromProductIdentifier computes the completeness of a single product
func (c *Calculator) FromProductIdentifier(ctx context.Context, identifier string) (*contracts.ProductCompletenessWithMissingAttributeCodesCollection, error) {
	results, err := c.FromProductIdentifiers(ctx, []string{identifier})
	if err != nil {
		return nil, err
	}
	return results[identifier], nil
}

// Compute is the pure completeness step for one product.
// A nil family yields an empty collection, as does a product without family.
func Compute(product *contracts.ProductMask, family *contracts.FamilyMask) *contracts.ProductCompletenessWithMissingAttributeCodesCollection {
	collection := &contracts.ProductCompletenessWithMissingAttributeCodesCollection{
		ProductID:      product.ID(),
		Completenesses: []contracts.ProductCompletenessWithMissingAttributeCodes{},
	}
	if !product.HasFamily() || family == nil {
		return collection
	}

	for i := 0; i < family.Len(); i++ {
		required := family.PerChannelAndLocale(i)

		missing := make(map[int]string)
		for position := 0; position < required.RequiredCount(); position++ {
			code := required.RequiredCode(position)
			if !product.Satisfies(code) {
				missing[position] = code.Attribute
			}
		}

		collection.Completenesses = append(collection.Completenesses,
			contracts.NewProductCompletenessWithMissingAttributeCodes(
				required.ChannelCode(),
				required.LocaleCode(),
				required.RequiredCount(),
				missing,
			))
	}

	return collection
}

// unresolvedIdentifiers keeps the first-seen order of the request
func unresolvedIdentifiers(requested []string, resolved map[string]*contracts.ProductMask) []string {
	var unresolved []string
	seen := make(map[string]struct{}, len(requested))
	for _, identifier := range requested {
		if _, dup := seen[identifier]; dup {
			continue
		}
		seen[identifier] = struct{}{}
		if _, ok := resolved[identifier]; !ok {
			unresolved = append(unresolved, identifier)
		}
	}
	return unresolved
}

// distinctFamilyCodes returns the sorted non-empty family codes of the batch
func distinctFamilyCodes(products []*contracts.ProductMask) []string {
	set := make(map[string]struct{})
	for _, p := range products {
		if p.HasFamily() {
			set[p.FamilyCode()] = struct{}{}
		}
	}

	codes := make([]string, 0, len(set))
	for code := range set {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
