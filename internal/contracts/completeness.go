package contracts

import "sort"

// ProductCompletenessWithMissingAttributeCodes is the completeness of one
// product for one channel/locale.
// MissingAttributeCodes maps the family-defined position of each missing
// requirement to its attribute code; positions may be sparse.
// ⭐ SSOT: 계산 결과 타입은 여기서만
type ProductCompletenessWithMissingAttributeCodes struct {
	ChannelCode           string         `json:"channel"`
	LocaleCode            string         `json:"locale"`
	RequiredCount         int            `json:"required_count"`
	MissingCount          int            `json:"missing_count"`
	MissingAttributeCodes map[int]string `json:"missing_attribute_codes"`
}

// NewProductCompletenessWithMissingAttributeCodes derives MissingCount from missing
func NewProductCompletenessWithMissingAttributeCodes(channelCode, localeCode string, requiredCount int, missing map[int]string) ProductCompletenessWithMissingAttributeCodes {
	if missing == nil {
		missing = map[int]string{}
	}
	return ProductCompletenessWithMissingAttributeCodes{
		ChannelCode:           channelCode,
		LocaleCode:            localeCode,
		RequiredCount:         requiredCount,
		MissingCount:          len(missing),
		MissingAttributeCodes: missing,
	}
}

// IsComplete reports whether nothing is missing
func (c ProductCompletenessWithMissingAttributeCodes) IsComplete() bool {
	return c.MissingCount == 0
}

// Ratio returns the filled share of required attributes as a floored percentage.
// A channel/locale without requirements is 100% complete.
func (c ProductCompletenessWithMissingAttributeCodes) Ratio() int {
	return ratio(c.RequiredCount, c.MissingCount)
}

// MissingAttributeCodesInOrder returns the missing attribute codes by ascending position
func (c ProductCompletenessWithMissingAttributeCodes) MissingAttributeCodesInOrder() []string {
	positions := make([]int, 0, len(c.MissingAttributeCodes))
	for p := range c.MissingAttributeCodes {
		positions = append(positions, p)
	}
	sort.Ints(positions)

	codes := make([]string, len(positions))
	for i, p := range positions {
		codes[i] = c.MissingAttributeCodes[p]
	}
	return codes
}

// ProductCompletenessWithMissingAttributeCodesCollection holds every
// channel/locale completeness of one product, in family enumeration order
type ProductCompletenessWithMissingAttributeCodesCollection struct {
	ProductID      int64                                          `json:"product_id"`
	Completenesses []ProductCompletenessWithMissingAttributeCodes `json:"completenesses"`
}

// IsEmpty reports whether the product has no channel/locale to be complete for
func (c *ProductCompletenessWithMissingAttributeCodesCollection) IsEmpty() bool {
	return len(c.Completenesses) == 0
}

// Get returns the completeness of a channel/locale
func (c *ProductCompletenessWithMissingAttributeCodesCollection) Get(channelCode, localeCode string) (ProductCompletenessWithMissingAttributeCodes, bool) {
	for _, completeness := range c.Completenesses {
		if completeness.ChannelCode == channelCode && completeness.LocaleCode == localeCode {
			return completeness, true
		}
	}
	return ProductCompletenessWithMissingAttributeCodes{}, false
}

// ToProductCompletenessCollection drops the positional detail for persistence
func (c *ProductCompletenessWithMissingAttributeCodesCollection) ToProductCompletenessCollection() ProductCompletenessCollection {
	out := ProductCompletenessCollection{
		ProductID:      c.ProductID,
		Completenesses: make([]ProductCompleteness, len(c.Completenesses)),
	}
	for i, completeness := range c.Completenesses {
		out.Completenesses[i] = ProductCompleteness{
			ChannelCode:   completeness.ChannelCode,
			LocaleCode:    completeness.LocaleCode,
			MissingCount:  completeness.MissingCount,
			RequiredCount: completeness.RequiredCount,
		}
	}
	return out
}

// ProductCompleteness is the persisted form of one channel/locale completeness
type ProductCompleteness struct {
	ChannelCode   string `json:"channel" db:"channel_code"`
	LocaleCode    string `json:"locale" db:"locale_code"`
	MissingCount  int    `json:"missing_count" db:"missing_count"`
	RequiredCount int    `json:"required_count" db:"required_count"`
}

// Ratio returns the filled share of required attributes as a floored percentage
func (c ProductCompleteness) Ratio() int {
	return ratio(c.RequiredCount, c.MissingCount)
}

// ProductCompletenessCollection is the persisted form of a product's completenesses
type ProductCompletenessCollection struct {
	ProductID      int64                 `json:"product_id"`
	Completenesses []ProductCompleteness `json:"completenesses"`
}

func ratio(required, missing int) int {
	if required <= 0 {
		return 100
	}
	return (required - missing) * 100 / required
}
