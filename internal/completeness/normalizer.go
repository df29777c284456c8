package completeness

import (
	"sort"

	"github.com/wonny/pim/backend/internal/contracts"
)

// NormalizeForIndex renders a collection as {channel: {locale: ratio}} for the
// product search index. An empty collection normalizes to an empty map.
func NormalizeForIndex(collection *contracts.ProductCompletenessWithMissingAttributeCodesCollection) map[string]map[string]int {
	out := make(map[string]map[string]int)
	if collection == nil {
		return out
	}

	for _, c := range collection.Completenesses {
		locales, ok := out[c.ChannelCode]
		if !ok {
			locales = make(map[string]int)
			out[c.ChannelCode] = locales
		}
		locales[c.LocaleCode] = c.Ratio()
	}
	return out
}

// MissingAttributes is the UI hint form of one channel/locale completeness
type MissingAttributes struct {
	Channel       string   `json:"channel"`
	Locale        string   `json:"locale"`
	RequiredCount int      `json:"required_count"`
	MissingCount  int      `json:"missing_count"`
	Ratio         int      `json:"ratio"`
	Missing       []string `json:"missing"`
}

// NormalizeMissingAttributes lists the missing attribute codes per
// channel/locale, sorted by channel then locale. Codes keep family order.
func NormalizeMissingAttributes(collection *contracts.ProductCompletenessWithMissingAttributeCodesCollection) []MissingAttributes {
	if collection == nil {
		return []MissingAttributes{}
	}

	out := make([]MissingAttributes, 0, len(collection.Completenesses))
	for _, c := range collection.Completenesses {
		out = append(out, MissingAttributes{
			Channel:       c.ChannelCode,
			Locale:        c.LocaleCode,
			RequiredCount: c.RequiredCount,
			MissingCount:  c.MissingCount,
			Ratio:         c.Ratio(),
			Missing:       c.MissingAttributeCodesInOrder(),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Channel != out[j].Channel {
			return out[i].Channel < out[j].Channel
		}
		return out[i].Locale < out[j].Locale
	})
	return out
}
