package completeness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wonny/pim/backend/internal/contracts"
)

type fakeProductLoader struct {
	masks map[string]*contracts.ProductMask
	err   error
	calls [][]string
}

func (f *fakeProductLoader) FromProductIdentifiers(_ context.Context, identifiers []string) ([]*contracts.ProductMask, error) {
	f.calls = append(f.calls, append([]string(nil), identifiers...))
	if f.err != nil {
		return nil, f.err
	}
	var out []*contracts.ProductMask
	seen := map[string]bool{}
	for _, id := range identifiers {
		if mask, ok := f.masks[id]; ok && !seen[id] {
			out = append(out, mask)
			seen[id] = true
		}
	}
	return out, nil
}

type fakeFamilyLoader struct {
	masks map[string]*contracts.FamilyMask
	err   error
	calls [][]string
}

func (f *fakeFamilyLoader) FromFamilyCodes(_ context.Context, codes []string) (map[string]*contracts.FamilyMask, error) {
	f.calls = append(f.calls, append([]string(nil), codes...))
	if f.err != nil {
		return nil, f.err
	}
	out := map[string]*contracts.FamilyMask{}
	for _, code := range codes {
		if mask, ok := f.masks[code]; ok {
			out[code] = mask
		}
	}
	return out, nil
}

type fakeSaver struct {
	saved [][]contracts.ProductCompletenessCollection
	err   error
}

func (f *fakeSaver) Save(ctx context.Context, c contracts.ProductCompletenessCollection) error {
	return f.SaveAll(ctx, []contracts.ProductCompletenessCollection{c})
}

func (f *fakeSaver) SaveAll(_ context.Context, batch []contracts.ProductCompletenessCollection) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, batch)
	return nil
}

func code(t *testing.T, raw string) contracts.RequirementCode {
	t.Helper()
	c, err := contracts.ParseRequirementCode(raw)
	require.NoError(t, err)
	return c
}

func productMask(t *testing.T, id int64, identifier, family string, existing ...string) *contracts.ProductMask {
	t.Helper()
	mask, err := contracts.ParseProductMask(id, identifier, family, existing)
	require.NoError(t, err)
	return mask
}

// tshirtFamily requires name+view on ecommerce/en_US and desc everywhere
func tshirtFamily(t *testing.T) *contracts.FamilyMask {
	t.Helper()
	family, err := contracts.NewFamilyMask("tshirt", []contracts.FamilyMaskPerChannelAndLocale{
		contracts.NewFamilyMaskPerChannelAndLocale("ecommerce", "en_US", []contracts.RequirementCode{
			code(t, "name-ecommerce-en_US"),
			code(t, "view-ecommerce-en_US"),
		}),
		contracts.NewFamilyMaskPerChannelAndLocale(contracts.AllChannels, contracts.AllLocales, []contracts.RequirementCode{
			code(t, "desc-<all_channels>-<all_locales>"),
		}),
	})
	require.NoError(t, err)
	return family
}

func michel(t *testing.T) *contracts.ProductMask {
	return productMask(t, 1, "michel", "tshirt",
		"name-ecommerce-en_US",
		"name-ecommerce-fr_FR",
		"desc-<all_channels>-<all_locales>",
		"price-tablet-fr_FR",
		"size-ecommerce-en_US",
	)
}

func jean(t *testing.T) *contracts.ProductMask {
	return productMask(t, 2, "jean", "tshirt",
		"name-ecommerce-fr_FR",
		"price-tablet-fr_FR",
		"size-ecommerce-en_US",
	)
}

func newTestCalculator(t *testing.T, products ...*contracts.ProductMask) (*Calculator, *fakeProductLoader, *fakeFamilyLoader) {
	t.Helper()
	productLoader := &fakeProductLoader{masks: map[string]*contracts.ProductMask{}}
	for _, p := range products {
		productLoader.masks[p.Identifier()] = p
	}
	familyLoader := &fakeFamilyLoader{masks: map[string]*contracts.FamilyMask{"tshirt": tshirtFamily(t)}}
	return NewCalculator(productLoader, familyLoader, nil), productLoader, familyLoader
}
